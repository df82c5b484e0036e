package staticfileserver

import (
	"net/http"

	"example.com/tws/internal/logger"
)

// Dispatcher turns a Request into a Response. It keeps no state between
// requests; every decision is made from the request and a fresh look at the
// filesystem.
type Dispatcher struct {
	root *DocumentRoot
	log  *logger.Logger
}

// NewDispatcher creates a Dispatcher serving files from root.
func NewDispatcher(root *DocumentRoot, lg *logger.Logger) *Dispatcher {
	if lg == nil {
		lg = logger.NewDiscardLogger()
	}
	return &Dispatcher{root: root, log: lg}
}

// Handle runs the full pipeline: default headers, method dispatch, finishing.
func (d *Dispatcher) Handle(req *Request) *Response {
	resp := NewResponse()
	d.Dispatch(req, resp)
	Finish(req, resp)
	return resp
}

// Dispatch sets the status, headers and body for req on resp.
func (d *Dispatcher) Dispatch(req *Request, resp *Response) {
	// The probe and the final read both use the "./"-prefixed form so GET and
	// HEAD agree on existence at the root.
	isDir := false
	switch status := d.root.Classify(NormalizePath(req.Path, false)); status {
	case IsDir:
		isDir = true
	case IsFile, NotFound:
	default:
		panic(unhandledStatus(status))
	}
	p := NormalizePath(req.Path, isDir)

	switch req.Method {
	case http.MethodGet:
		d.handleGet(p, resp)
	case http.MethodHead:
		d.handleHead(p, resp)
	case http.MethodOptions:
		resp.Status = http.StatusOK
		resp.Header.Set("Allow", allowedMethods)
	case http.MethodTrace:
		resp.Status = http.StatusOK
		resp.Header.Set("Content-Type", contentTypeHTTP)
		resp.Body = TraceBody(req)
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodConnect:
		d.handleBadMethod(p, resp)
	default:
		resp.Status = http.StatusNotImplemented
	}
}

func (d *Dispatcher) handleGet(p string, resp *Response) {
	switch status := d.root.Classify(p); status {
	case IsFile:
	case IsDir, NotFound:
		resp.Status = http.StatusNotFound
		resp.Header.Set("Content-Type", contentTypeHTML)
		return
	default:
		panic(unhandledStatus(status))
	}

	body, err := d.root.ReadFile(p)
	if err != nil {
		d.logReadError(p, err)
		resp.Status = statusForReadError(err)
		resp.Header.Set("Content-Type", contentTypeHTML)
		return
	}
	resp.Status = http.StatusOK
	resp.Body = body
	resp.Header.Set("Content-Type", ResolveMimeType(p))
}

// handleHead reaches the same status GET would, opening but never reading
// the file.
func (d *Dispatcher) handleHead(p string, resp *Response) {
	switch status := d.root.Classify(p); status {
	case IsFile:
	case IsDir, NotFound:
		resp.Status = http.StatusNotFound
		resp.Header.Set("Content-Type", contentTypeHTML)
		return
	default:
		panic(unhandledStatus(status))
	}

	if err := d.root.CheckReadable(p); err != nil {
		d.logReadError(p, err)
		resp.Status = statusForReadError(err)
		resp.Header.Set("Content-Type", contentTypeHTML)
		return
	}
	resp.Status = http.StatusOK
	resp.Header.Set("Content-Type", ResolveMimeType(p))
}

// handleBadMethod answers methods that would modify the resource. Existence
// is checked first, so a missing path is 404 rather than 405.
func (d *Dispatcher) handleBadMethod(p string, resp *Response) {
	switch status := d.root.Classify(p); status {
	case NotFound:
		resp.Status = http.StatusNotFound
	case IsFile, IsDir:
		resp.Status = http.StatusMethodNotAllowed
		resp.Header.Set("Allow", allowedMethods)
	default:
		panic(unhandledStatus(status))
	}
}

func (d *Dispatcher) logReadError(p string, err error) {
	fields := logger.LogFields{"path": p, "error": err.Error()}
	switch statusForReadError(err) {
	case http.StatusNotFound:
		d.log.Debug("File vanished between classification and read", fields)
	case http.StatusForbidden:
		d.log.Warn("Permission denied reading file", fields)
	default:
		d.log.Error("Failed to read file", fields)
	}
}
