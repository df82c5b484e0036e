package testutil

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"

	"golang.org/x/net/http2"

	"example.com/tws/internal/config"
	"example.com/tws/internal/handlers/staticfileserver"
	"example.com/tws/internal/logger"
	"example.com/tws/internal/server"
)

// TestRequest models an HTTP request for E2E testing.
type TestRequest struct {
	Method  string
	Path    string // Should include query string if any, e.g., "/path?query=value"
	Headers http.Header
}

// HeaderMatcher maps a header name to its exact expected value. An empty
// value asserts the header is absent.
type HeaderMatcher map[string]string

// BodyMatcher defines a way to match the response body.
type BodyMatcher interface {
	Match(body []byte) (bool, string) // Returns match status and a description of mismatch
}

// ExactBodyMatcher matches the body exactly.
type ExactBodyMatcher struct {
	ExpectedBody []byte
}

func (m *ExactBodyMatcher) Match(body []byte) (bool, string) {
	if bytes.Equal(m.ExpectedBody, body) {
		return true, ""
	}
	return false, fmt.Sprintf("bodies do not match exactly. Expected: %q, Got: %q", string(m.ExpectedBody), string(body))
}

// StringContainsBodyMatcher checks if the body contains a specific substring.
type StringContainsBodyMatcher struct {
	Substring string
}

func (m *StringContainsBodyMatcher) Match(body []byte) (bool, string) {
	if bytes.Contains(body, []byte(m.Substring)) {
		return true, ""
	}
	return false, fmt.Sprintf("body does not contain substring: %q. Body: %q", m.Substring, string(body))
}

// ExpectedResponse models the expected outcome of an HTTP request.
type ExpectedResponse struct {
	StatusCode   int
	Headers      HeaderMatcher
	BodyMatcher  BodyMatcher
	ExpectNoBody bool // If true, BodyMatcher is ignored and body must be empty
}

// ActualResponse stores the outcome of a request.
type ActualResponse struct {
	StatusCode int
	Proto      string
	Headers    http.Header
	Body       []byte
}

// ServerInstance is a tws server running in-process on an ephemeral
// loopback port, serving Root.
type ServerInstance struct {
	Root    string
	Address string // e.g. "127.0.0.1:41234"
	URL     string // e.g. "http://127.0.0.1:41234"
	Access  *SyncBuffer

	srv  *server.Server
	stop chan os.Signal
	done chan error
}

// SyncBuffer is a bytes.Buffer safe for concurrent writes and reads.
type SyncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *SyncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *SyncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// WriteTree creates files under root. Keys are slash-separated relative paths.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("MkdirAll(%s): %v", full, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile(%s): %v", full, err)
		}
	}
}

// StartTestServer starts a server for root and stops it when the test ends.
// Access log lines are captured in JSON form.
func StartTestServer(t *testing.T, root string) *ServerInstance {
	t.Helper()

	addr := "127.0.0.1:0"
	quiet := false
	cfg := config.Default()
	cfg.Server.Address = &addr
	cfg.Logging.Quiet = &quiet
	cfg.Logging.Format = config.LogFormatJSON

	access := &SyncBuffer{}
	lg, err := logger.New(cfg.Logging, access, io.Discard)
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	handler, err := staticfileserver.New(root, lg)
	if err != nil {
		t.Fatalf("staticfileserver.New: %v", err)
	}
	srv, err := server.NewServer(cfg, lg, handler)
	if err != nil {
		t.Fatalf("server.NewServer: %v", err)
	}
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}

	si := &ServerInstance{
		Root:    root,
		Address: srv.Addr().String(),
		URL:     srv.URL(),
		Access:  access,
		srv:     srv,
		stop:    make(chan os.Signal, 2),
		done:    make(chan error, 1),
	}
	go func() { si.done <- srv.Run(si.stop) }()
	t.Cleanup(func() {
		if err := si.Stop(); err != nil {
			t.Errorf("Stop: %v", err)
		}
	})
	return si
}

// Stop requests a graceful shutdown and waits for it. Safe to call twice.
func (s *ServerInstance) Stop() error {
	if s.done == nil {
		return nil
	}
	s.stop <- syscall.SIGTERM
	select {
	case err := <-s.done:
		s.done = nil
		return err
	case <-time.After(10 * time.Second):
		s.srv.Close()
		return fmt.Errorf("server did not shut down within 10s")
	}
}

// HTTP1Client returns a client that never follows redirects.
func HTTP1Client() *http.Client {
	return &http.Client{
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// H2CClient returns a client speaking HTTP/2 with prior knowledge over
// cleartext TCP.
func H2CClient() *http.Client {
	return &http.Client{
		Timeout: 5 * time.Second,
		Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		},
	}
}

// Do sends req to the server with client.
func (s *ServerInstance) Do(client *http.Client, req TestRequest) (ActualResponse, error) {
	httpReq, err := http.NewRequest(req.Method, s.URL+req.Path, nil)
	if err != nil {
		return ActualResponse{}, err
	}
	for name, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return ActualResponse{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ActualResponse{}, err
	}
	return ActualResponse{StatusCode: resp.StatusCode, Proto: resp.Proto, Headers: resp.Header, Body: body}, nil
}

// RawRequest writes raw to a fresh connection and returns everything the
// server sent back. raw must ask for "Connection: close". Useful where
// net/http clients would rewrite the request, e.g. dot segments.
func (s *ServerInstance) RawRequest(raw string) ([]byte, error) {
	conn, err := net.DialTimeout("tcp", s.Address, 5*time.Second)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	if _, err := io.WriteString(conn, raw); err != nil {
		return nil, err
	}
	return io.ReadAll(conn)
}

// Verify checks actual against expected and reports every mismatch.
func Verify(t *testing.T, actual ActualResponse, expected ExpectedResponse) {
	t.Helper()
	if actual.StatusCode != expected.StatusCode {
		t.Errorf("status = %d, want %d", actual.StatusCode, expected.StatusCode)
	}
	for name, want := range expected.Headers {
		if got := actual.Headers.Get(name); got != want {
			t.Errorf("header %s = %q, want %q", name, got, want)
		}
	}
	if expected.ExpectNoBody {
		if len(actual.Body) != 0 {
			t.Errorf("expected no body, got %q", actual.Body)
		}
		return
	}
	if expected.BodyMatcher != nil {
		if ok, msg := expected.BodyMatcher.Match(actual.Body); !ok {
			t.Error(msg)
		}
	}
}
