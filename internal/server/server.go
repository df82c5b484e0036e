package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"example.com/tws/internal/config"
	"example.com/tws/internal/logger"
	"example.com/tws/internal/util"
)

// Server manages the listener and http.Server lifecycle: binding, serving
// HTTP/1.1 and HTTP/2 cleartext, and graceful shutdown.
type Server struct {
	cfg *config.Config
	log *logger.Logger

	httpServer *http.Server

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a Server that answers every request with handler.
// Nothing is bound until Listen is called.
func NewServer(cfg *config.Config, lg *logger.Logger, handler http.Handler) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if lg == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}

	h2s := &http2.Server{}
	hs := &http.Server{
		Handler:  h2c.NewHandler(handler, h2s),
		ErrorLog: lg.StdLogger(),
	}
	// Registers h2s for GOAWAY on Shutdown.
	if err := http2.ConfigureServer(hs, h2s); err != nil {
		return nil, fmt.Errorf("configuring HTTP/2: %w", err)
	}

	return &Server{
		cfg:        cfg,
		log:        lg,
		httpServer: hs,
	}, nil
}

// Listen binds the configured address. Calling it again after a successful
// bind is a no-op.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}

	ap, err := config.ParseListenAddress(s.cfg.Address())
	if err != nil {
		return &config.ConfigError{Message: "invalid server.address", Err: err}
	}
	ln, err := util.CreateListenerForAddrPort(ap)
	if err != nil {
		return err
	}
	s.listener = ln
	s.log.Debug("Listener created", logger.LogFields{"address": ln.Addr().String()})
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// URL returns the base URL clients use to reach the server, or "" before
// Listen.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return util.ListenerURL(s.listener)
}

// Serve accepts connections until Shutdown or Close. It returns nil after a
// clean shutdown.
func (s *Server) Serve() error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	s.log.Info("Serving", logger.LogFields{"address": ln.Addr().String()})
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving on %s: %w", ln.Addr(), err)
	}
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight requests
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Close drops every connection immediately.
func (s *Server) Close() error {
	return s.httpServer.Close()
}

// NotifySignals relays SIGINT and SIGTERM. The returned func stops relaying.
func NotifySignals() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	return ch, func() { signal.Stop(ch) }
}

// Run serves until the first value arrives on stop, then shuts down
// gracefully with no deadline. A second value forces every connection closed.
func (s *Server) Run(stop <-chan os.Signal) error {
	serveErr := make(chan error, 1)
	go func() { serveErr <- s.Serve() }()

	select {
	case err := <-serveErr:
		return err
	case sig := <-stop:
		s.log.Info("Shutting down, waiting for in-flight requests", logger.LogFields{"signal": sig.String()})
	}

	shutdownErr := make(chan error, 1)
	go func() { shutdownErr <- s.Shutdown(context.Background()) }()

	var err error
	select {
	case err = <-shutdownErr:
	case sig := <-stop:
		s.log.Warn("Second signal received, closing all connections", logger.LogFields{"signal": sig.String()})
		if cerr := s.Close(); cerr != nil {
			s.log.Error("Failed to close server", logger.LogFields{"error": cerr.Error()})
		}
		err = <-shutdownErr
	}
	if serr := <-serveErr; serr != nil {
		return serr
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("Server stopped")
	return nil
}
