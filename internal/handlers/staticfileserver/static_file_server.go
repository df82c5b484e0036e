package staticfileserver

import (
	"net/http"
	"strconv"
	"time"

	"example.com/tws/internal/logger"
)

// StaticFileServer serves a DocumentRoot over net/http.
type StaticFileServer struct {
	dispatcher *Dispatcher
	log        *logger.Logger
}

// New creates a StaticFileServer for documentRoot.
func New(documentRoot string, lg *logger.Logger) (*StaticFileServer, error) {
	if lg == nil {
		lg = logger.NewDiscardLogger()
	}
	root, err := NewDocumentRoot(documentRoot)
	if err != nil {
		return nil, err
	}
	lg.Debug("StaticFileServer: document root resolved", logger.LogFields{"root": root.Dir()})
	return &StaticFileServer{
		dispatcher: NewDispatcher(root, lg),
		log:        lg,
	}, nil
}

// ServeHTTP implements http.Handler.
func (sfs *StaticFileServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := NewRequest(r)
	resp := sfs.dispatcher.Handle(req)

	h := w.Header()
	for name, values := range resp.Header {
		h[name] = values
	}
	// Identical requests against an unchanged tree produce identical bytes.
	h["Date"] = nil
	if req.Method != http.MethodHead {
		h.Set("Content-Length", strconv.Itoa(len(resp.Body)))
	}
	w.WriteHeader(resp.Status)

	var written int
	if len(resp.Body) > 0 {
		n, err := w.Write(resp.Body)
		written = n
		if err != nil {
			sfs.log.Debug("StaticFileServer: failed to write response body", logger.LogFields{
				"uri":   req.URI,
				"error": err.Error(),
			})
		}
	}

	sfs.log.Access(r, resp.Status, int64(written), time.Since(start))
}
