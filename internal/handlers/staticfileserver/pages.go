package staticfileserver

import (
	"fmt"
	"net/http"
	"strings"
)

// binaryHeaderPlaceholder replaces header values that are not printable text.
const binaryHeaderPlaceholder = "[BINARY DATA]"

// ErrorPage renders the HTML body sent with every non-2xx response.
// The markup (including the unclosed trailing <body>) is kept byte-for-byte
// compatible with earlier releases.
func ErrorPage(statusCode int) []byte {
	reason := http.StatusText(statusCode)
	if reason == "" {
		reason = "?"
	}
	return []byte(fmt.Sprintf("<!DOCTYPE html><body><h1>%d</h1><h2>%s</h2><body>", statusCode, reason))
}

// TraceBody echoes req as a message/http body: the request line, then one
// "name: value" line per header field in the order the request lists them.
func TraceBody(req *Request) []byte {
	lines := make([]string, 0, len(req.Header)+1)
	lines = append(lines, req.Method+" "+req.URI+" "+req.Proto)
	for _, hf := range req.Header {
		value := hf.Value
		if !isVisibleText(value) {
			value = binaryHeaderPlaceholder
		}
		lines = append(lines, hf.Name+": "+value)
	}
	return []byte(strings.Join(lines, "\n"))
}

// isVisibleText reports whether v contains only visible ASCII, spaces and tabs.
func isVisibleText(v string) bool {
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c != '\t' && (c < 0x20 || c > 0x7e) {
			return false
		}
	}
	return true
}
