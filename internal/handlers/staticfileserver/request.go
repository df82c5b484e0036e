package staticfileserver

import (
	"net/http"
	"sort"
)

// HeaderField is a single request header line.
type HeaderField struct {
	Name  string
	Value string
}

// Request is the read-only view of an inbound request used by the dispatcher.
type Request struct {
	Method string
	// URI is the request target as sent, e.g. "/docs/?page=2".
	URI string
	// Path is the decoded URL path, always starting with "/".
	Path  string
	Proto string
	// Header lists every header field in order. TRACE echoes this order.
	Header []HeaderField
}

// NewRequest converts an *http.Request. http.Header does not retain arrival
// order, so names are listed in sorted canonical form; values of a repeated
// name keep their received order. The Host header, which net/http moves to
// r.Host, is restored into the list.
func NewRequest(r *http.Request) *Request {
	uri := r.RequestURI
	if uri == "" {
		uri = r.URL.RequestURI()
	}
	p := r.URL.Path
	if p == "" {
		p = "/"
	}

	names := make([]string, 0, len(r.Header)+1)
	for name := range r.Header {
		names = append(names, name)
	}
	_, hasHost := r.Header["Host"]
	if r.Host != "" && !hasHost {
		names = append(names, "Host")
	}
	sort.Strings(names)

	fields := make([]HeaderField, 0, len(names))
	for _, name := range names {
		if name == "Host" && !hasHost {
			fields = append(fields, HeaderField{Name: name, Value: r.Host})
			continue
		}
		for _, v := range r.Header[name] {
			fields = append(fields, HeaderField{Name: name, Value: v})
		}
	}

	return &Request{
		Method: r.Method,
		URI:    uri,
		Path:   p,
		Proto:  r.Proto,
		Header: fields,
	}
}

// Response is built up by the dispatcher and finisher, then written out.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}
