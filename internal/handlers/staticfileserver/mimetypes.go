package staticfileserver

import (
	"mime"
	"path/filepath"
	"strings"
)

const defaultOctetStreamMimeType = "application/octet-stream"

// defaultMimeTypes is consulted before Go's mime package so the common types
// are stable across hosts. Values carry no charset parameter.
var defaultMimeTypes = map[string]string{
	".3g2":         "video/3gpp2",
	".3gp":         "video/3gpp",
	".7z":          "application/x-7z-compressed",
	".aac":         "audio/aac",
	".abw":         "application/x-abiword",
	".apng":        "image/apng",
	".arc":         "application/x-freearc",
	".avi":         "video/x-msvideo",
	".avif":        "image/avif",
	".azw":         "application/vnd.amazon.ebook",
	".bin":         "application/octet-stream",
	".bmp":         "image/bmp",
	".bz":          "application/x-bzip",
	".bz2":         "application/x-bzip2",
	".cda":         "application/x-cdf",
	".csh":         "application/x-csh",
	".css":         "text/css",
	".csv":         "text/csv",
	".doc":         "application/msword",
	".docx":        "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".eot":         "application/vnd.ms-fontobject",
	".epub":        "application/epub+zip",
	".gif":         "image/gif",
	".gz":          "application/gzip",
	".htm":         "text/html",
	".html":        "text/html",
	".ico":         "image/vnd.microsoft.icon",
	".ics":         "text/calendar",
	".jar":         "application/java-archive",
	".jpeg":        "image/jpeg",
	".jpg":         "image/jpeg",
	".js":          "text/javascript",
	".json":        "application/json",
	".jsonld":      "application/ld+json",
	".map":         "application/json",
	".md":          "text/markdown",
	".mid":         "audio/midi",
	".midi":        "audio/midi",
	".mjs":         "text/javascript",
	".mp3":         "audio/mpeg",
	".mp4":         "video/mp4",
	".mpeg":        "video/mpeg",
	".mpkg":        "application/vnd.apple.installer+xml",
	".odp":         "application/vnd.oasis.opendocument.presentation",
	".ods":         "application/vnd.oasis.opendocument.spreadsheet",
	".odt":         "application/vnd.oasis.opendocument.text",
	".oga":         "audio/ogg",
	".ogv":         "video/ogg",
	".ogx":         "application/ogg",
	".opus":        "audio/opus",
	".otf":         "font/otf",
	".pdf":         "application/pdf",
	".php":         "application/x-httpd-php",
	".png":         "image/png",
	".ppt":         "application/vnd.ms-powerpoint",
	".pptx":        "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".rar":         "application/vnd.rar",
	".rs":          "text/x-rust",
	".rtf":         "application/rtf",
	".sh":          "application/x-sh",
	".svg":         "image/svg+xml",
	".tar":         "application/x-tar",
	".tif":         "image/tiff",
	".tiff":        "image/tiff",
	".toml":        "text/x-toml",
	".ts":          "video/mp2t",
	".ttf":         "font/ttf",
	".txt":         "text/plain",
	".vsd":         "application/vnd.visio",
	".wasm":        "application/wasm",
	".wav":         "audio/wav",
	".weba":        "audio/webm",
	".webm":        "video/webm",
	".webmanifest": "application/manifest+json",
	".webp":        "image/webp",
	".woff":        "font/woff",
	".woff2":       "font/woff2",
	".xhtml":       "application/xhtml+xml",
	".xls":         "application/vnd.ms-excel",
	".xlsx":        "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xml":         "application/xml",
	".xul":         "application/vnd.mozilla.xul+xml",
	".yaml":        "text/x-yaml",
	".yml":         "text/x-yaml",
	".zip":         "application/zip",
}

// ResolveMimeType determines the content type of filePath from its extension.
// Extensions match case-insensitively. Lookup order:
//  1. defaultMimeTypes
//  2. mime.TypeByExtension, with parameters stripped
//  3. application/octet-stream
func ResolveMimeType(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == "" {
		return defaultOctetStreamMimeType
	}

	if mimeType, ok := defaultMimeTypes[ext]; ok {
		return mimeType
	}

	if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
			return mediaType
		}
	}

	return defaultOctetStreamMimeType
}
