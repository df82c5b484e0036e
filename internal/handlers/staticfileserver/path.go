package staticfileserver

import "strings"

// indexDocument is served in place of a directory.
const indexDocument = "index.html"

// NormalizePath turns a URL path into a document-root relative path.
// The result always starts with ".". Directories are rewritten to their index
// document, backslashes become forward slashes, and one pass collapses "//"
// into "/" (so a run of three slashes leaves two).
func NormalizePath(urlPath string, isDirectory bool) string {
	p := "." + urlPath
	if isDirectory {
		p += "/" + indexDocument
	}
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.ReplaceAll(p, "//", "/")
}
