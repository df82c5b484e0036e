package staticfileserver

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/tws/internal/buildinfo"
)

func handle(t *testing.T, d *Dispatcher, method, urlPath string) *Response {
	t.Helper()
	return d.Handle(&Request{
		Method: method,
		URI:    urlPath,
		Path:   urlPath,
		Proto:  "HTTP/1.1",
	})
}

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	return NewDispatcher(newTestDocumentRoot(t), nil)
}

func assertDefaultHeaders(t *testing.T, resp *Response) {
	t.Helper()
	assert.Equal(t, buildinfo.ServerHeader(), resp.Header.Get("Server"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
}

func TestDispatch_GetFile(t *testing.T) {
	d := newTestDispatcher(t)

	tests := []struct {
		path        string
		body        string
		contentType string
	}{
		{"/a.txt", "hello\n", "text/plain"},
		{"/page.html", "<p>page</p>", "text/html"},
		{"/Cargo.toml", "[package]\n", "text/x-toml"},
		{"/blob", "\x00\xff\x10\x80", "application/octet-stream"},
		{"/nested/deep/file.json", `{"ok":true}`, "application/json"},
		{"//a.txt", "hello\n", "text/plain"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := handle(t, d, http.MethodGet, tt.path)
			assert.Equal(t, http.StatusOK, resp.Status)
			assert.Equal(t, tt.body, string(resp.Body))
			assert.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
			assertDefaultHeaders(t, resp)
		})
	}
}

func TestDispatch_GetDirectory(t *testing.T) {
	d := newTestDispatcher(t)

	for _, p := range []string{"/docs", "/docs/"} {
		resp := handle(t, d, http.MethodGet, p)
		assert.Equal(t, http.StatusOK, resp.Status, p)
		assert.Equal(t, "<h1>docs</h1>", string(resp.Body), p)
		assert.Equal(t, "text/html", resp.Header.Get("Content-Type"), p)
	}

	resp := handle(t, d, http.MethodGet, "/empty")
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, string(ErrorPage(http.StatusNotFound)), string(resp.Body))

	// The tree root has no index.html either.
	resp = handle(t, d, http.MethodGet, "/")
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestDispatch_GetMissing(t *testing.T) {
	d := newTestDispatcher(t)

	for _, p := range []string{"/IDONTEXIST", "/docs/nope.html", "/../etc/passwd", "/a.txt/x", "/a.txt/", "//a.txt/"} {
		resp := handle(t, d, http.MethodGet, p)
		assert.Equal(t, http.StatusNotFound, resp.Status, p)
		assert.Equal(t, "text/html", resp.Header.Get("Content-Type"), p)
		assert.Contains(t, string(resp.Body), "404", p)
		assertDefaultHeaders(t, resp)
	}
}

func TestDispatch_GetPermissionDenied(t *testing.T) {
	skipIfRoot(t)
	d := newTestDispatcher(t)
	require.NoError(t, os.WriteFile(filepath.Join(d.root.Dir(), "locked.txt"), []byte("x"), 0o000))

	resp := handle(t, d, http.MethodGet, "/locked.txt")
	assert.Equal(t, http.StatusForbidden, resp.Status)
	assert.Equal(t, string(ErrorPage(http.StatusForbidden)), string(resp.Body))

	head := handle(t, d, http.MethodHead, "/locked.txt")
	assert.Equal(t, http.StatusForbidden, head.Status)
	assert.Empty(t, head.Body)
}

func TestDispatch_HeadMatchesGet(t *testing.T) {
	d := newTestDispatcher(t)

	for _, p := range []string{"/a.txt", "/a.txt/", "/page.html", "/blob", "/docs", "/docs/", "/empty", "/missing", "/", "/../x"} {
		get := handle(t, d, http.MethodGet, p)
		head := handle(t, d, http.MethodHead, p)

		assert.Equal(t, get.Status, head.Status, p)
		assert.Equal(t, get.Header.Get("Content-Type"), head.Header.Get("Content-Type"), p)
		assert.Empty(t, head.Body, p)
		assertDefaultHeaders(t, head)
	}
}

func TestDispatch_Options(t *testing.T) {
	d := newTestDispatcher(t)

	for _, p := range []string{"/a.txt", "/missing", "/docs"} {
		resp := handle(t, d, http.MethodOptions, p)
		assert.Equal(t, http.StatusOK, resp.Status, p)
		assert.Equal(t, "GET, HEAD, OPTIONS, TRACE", resp.Header.Get("Allow"), p)
		assert.Empty(t, resp.Body, p)
		assertDefaultHeaders(t, resp)
	}
}

func TestDispatch_Trace(t *testing.T) {
	d := newTestDispatcher(t)

	req := &Request{
		Method: http.MethodTrace,
		URI:    "/missing?x=1",
		Path:   "/missing",
		Proto:  "HTTP/1.1",
		Header: []HeaderField{
			{Name: "Accept", Value: "*/*"},
			{Name: "Host", Value: "localhost:4000"},
			{Name: "X-Raw", Value: "\x01\x02"},
		},
	}
	resp := d.Handle(req)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "message/http", resp.Header.Get("Content-Type"))
	assert.Equal(t, "TRACE /missing?x=1 HTTP/1.1\nAccept: */*\nHost: localhost:4000\nX-Raw: [BINARY DATA]", string(resp.Body))
	assertDefaultHeaders(t, resp)
}

func TestDispatch_BodyBearingMethods(t *testing.T) {
	d := newTestDispatcher(t)

	methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodConnect}
	for _, m := range methods {
		t.Run(m, func(t *testing.T) {
			resp := handle(t, d, m, "/a.txt")
			assert.Equal(t, http.StatusMethodNotAllowed, resp.Status)
			assert.Equal(t, "GET, HEAD, OPTIONS, TRACE", resp.Header.Get("Allow"))
			assert.Equal(t, string(ErrorPage(http.StatusMethodNotAllowed)), string(resp.Body))
			assert.Equal(t, "text/html", resp.Header.Get("Content-Type"))

			resp = handle(t, d, m, "/docs")
			assert.Equal(t, http.StatusMethodNotAllowed, resp.Status)

			resp = handle(t, d, m, "/missing")
			assert.Equal(t, http.StatusNotFound, resp.Status)
			assert.Empty(t, resp.Header.Get("Allow"))
			assert.Equal(t, string(ErrorPage(http.StatusNotFound)), string(resp.Body))

			// A directory without index.html resolves to a missing index document.
			resp = handle(t, d, m, "/empty")
			assert.Equal(t, http.StatusNotFound, resp.Status)
		})
	}
}

func TestDispatch_UnknownMethod(t *testing.T) {
	d := newTestDispatcher(t)

	for _, m := range []string{"BREW", "PROPFIND", "get"} {
		resp := handle(t, d, m, "/a.txt")
		assert.Equal(t, http.StatusNotImplemented, resp.Status, m)
		assert.Equal(t, string(ErrorPage(http.StatusNotImplemented)), string(resp.Body), m)
		assertDefaultHeaders(t, resp)
	}
}

func TestDispatch_Idempotent(t *testing.T) {
	d := newTestDispatcher(t)

	for _, m := range []string{http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace} {
		for _, p := range []string{"/a.txt", "/docs", "/missing"} {
			first := handle(t, d, m, p)
			second := handle(t, d, m, p)
			assert.Equal(t, first, second, "%s %s", m, p)
		}
	}
}

func TestFinish(t *testing.T) {
	t.Run("success body kept", func(t *testing.T) {
		resp := NewResponse()
		resp.Body = []byte("ok")
		Finish(&Request{Method: http.MethodGet}, resp)
		assert.Equal(t, "ok", string(resp.Body))
		assert.Empty(t, resp.Header.Get("Content-Type"))
	})
	t.Run("error body replaced", func(t *testing.T) {
		resp := NewResponse()
		resp.Status = http.StatusInternalServerError
		resp.Header.Set("Content-Type", contentTypeHTTP)
		resp.Body = []byte("TRACE / HTTP/1.1")
		Finish(&Request{Method: http.MethodTrace}, resp)
		assert.Equal(t, string(ErrorPage(http.StatusInternalServerError)), string(resp.Body))
		assert.Equal(t, "text/html", resp.Header.Get("Content-Type"))
	})
	t.Run("head never has a body", func(t *testing.T) {
		resp := NewResponse()
		resp.Status = http.StatusNotFound
		Finish(&Request{Method: http.MethodHead}, resp)
		assert.Nil(t, resp.Body)
		assert.Equal(t, "text/html", resp.Header.Get("Content-Type"))
	})
}
