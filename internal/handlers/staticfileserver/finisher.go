package staticfileserver

import (
	"net/http"

	"example.com/tws/internal/buildinfo"
)

const (
	contentTypeHTML = "text/html"
	contentTypeHTTP = "message/http"

	// allowedMethods is advertised by OPTIONS and by 405 responses.
	allowedMethods = "GET, HEAD, OPTIONS, TRACE"
)

// NewResponse returns a 200 response carrying the default headers every
// response is sent with, success or error.
func NewResponse() *Response {
	resp := &Response{Status: http.StatusOK, Header: make(http.Header)}
	resp.Header.Set("Server", buildinfo.ServerHeader())
	resp.Header.Set("Access-Control-Allow-Origin", "*")
	resp.Header.Set("Cache-Control", "no-cache")
	return resp
}

// Finish is the last step before a response is written. Any non-2xx status
// gets the HTML error page as its body, replacing whatever the dispatcher set.
// HEAD responses never carry a body, error page included.
func Finish(req *Request, resp *Response) {
	if resp.Status < 200 || resp.Status > 299 {
		resp.Body = ErrorPage(resp.Status)
		resp.Header.Set("Content-Type", contentTypeHTML)
	}
	if req.Method == http.MethodHead {
		resp.Body = nil
	}
}
