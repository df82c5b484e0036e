package logger

import (
	"fmt"
	"io"
	stdlog "log"
	"net"
	"net/http"
	"os"
	"os/user"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"example.com/tws/internal/buildinfo"
	"example.com/tws/internal/config"
)

// LogFields carries structured key/value context for a log entry.
type LogFields map[string]interface{}

// Logger is the application logger. It owns an error log for operator
// messages and an access log that records every finished request.
// All behavior is fixed at construction; the quiet flag is never mutated.
type Logger struct {
	app       zerolog.Logger
	accessLog *AccessLogger
	bannerOut io.Writer
	quiet     bool
}

// AccessLogger writes one entry per finished request.
type AccessLogger struct {
	format config.LogFormat
	mu     sync.Mutex
	out    io.Writer
	json   zerolog.Logger
	now    func() time.Time
}

// NewLogger creates a Logger writing access entries to stdout and application
// messages to stderr.
func NewLogger(cfg *config.LoggingConfig) (*Logger, error) {
	return New(cfg, os.Stdout, os.Stderr)
}

// New creates a Logger with explicit outputs.
func New(cfg *config.LoggingConfig, accessOut, errorOut io.Writer) (*Logger, error) {
	if cfg == nil {
		return nil, fmt.Errorf("logging configuration cannot be nil")
	}
	if cfg.Quiet != nil && *cfg.Quiet {
		return &Logger{app: zerolog.Nop(), quiet: true}, nil
	}

	level, err := zerologLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	l := &Logger{bannerOut: accessOut}
	switch cfg.Format {
	case config.LogFormatJSON:
		l.app = zerolog.New(errorOut).Level(level).With().Timestamp().Logger()
	case config.LogFormatConsole, "":
		cw := zerolog.ConsoleWriter{
			Out:         errorOut,
			NoColor:     color.NoColor,
			TimeFormat:  "15:04:05",
			FormatLevel: formatConsoleLevel,
		}
		l.app = zerolog.New(cw).Level(level).With().Timestamp().Logger()
	default:
		return nil, fmt.Errorf("invalid log format: %s", cfg.Format)
	}

	l.accessLog = &AccessLogger{
		format: cfg.Format,
		out:    accessOut,
		json:   zerolog.New(accessOut).With().Timestamp().Logger(),
		now:    time.Now,
	}
	return l, nil
}

// NewDiscardLogger returns a Logger that drops everything.
func NewDiscardLogger() *Logger {
	return &Logger{app: zerolog.Nop(), quiet: true}
}

func zerologLevel(level config.LogLevel) (zerolog.Level, error) {
	switch level {
	case config.LogLevelDebug:
		return zerolog.DebugLevel, nil
	case config.LogLevelInfo, "":
		return zerolog.InfoLevel, nil
	case config.LogLevelWarning:
		return zerolog.WarnLevel, nil
	case config.LogLevelError:
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("invalid log level: %s", level)
	}
}

// formatConsoleLevel renders the level as a colored badge, e.g. " WARN ".
func formatConsoleLevel(i interface{}) string {
	lvl, _ := i.(string)
	switch lvl {
	case zerolog.LevelDebugValue:
		return color.New(color.Bold, color.FgBlack, color.BgWhite).Sprint(" DEBUG ")
	case zerolog.LevelInfoValue:
		return color.New(color.Bold, color.FgBlack, color.BgCyan).Sprint(" INFO ")
	case zerolog.LevelWarnValue:
		return color.New(color.Bold, color.FgBlack, color.BgYellow).Sprint(" WARN ")
	case zerolog.LevelErrorValue, zerolog.LevelFatalValue, zerolog.LevelPanicValue:
		return color.New(color.Bold, color.FgBlack, color.BgRed).Sprint(" ERROR ")
	default:
		return " " + strings.ToUpper(lvl) + " "
	}
}

func (l *Logger) log(ev *zerolog.Event, msg string, fields []LogFields) {
	if ev == nil {
		return
	}
	for _, f := range fields {
		if len(f) > 0 {
			ev = ev.Fields(map[string]interface{}(f))
		}
	}
	ev.Msg(msg)
}

func (l *Logger) Debug(msg string, fields ...LogFields) { l.log(l.app.Debug(), msg, fields) }

func (l *Logger) Info(msg string, fields ...LogFields) { l.log(l.app.Info(), msg, fields) }

func (l *Logger) Warn(msg string, fields ...LogFields) { l.log(l.app.Warn(), msg, fields) }

func (l *Logger) Error(msg string, fields ...LogFields) { l.log(l.app.Error(), msg, fields) }

// StdLogger adapts the application log for APIs that want a *log.Logger,
// such as http.Server.ErrorLog. Lines are recorded at warn level.
func (l *Logger) StdLogger() *stdlog.Logger {
	return stdlog.New(levelWriter{l.app, zerolog.WarnLevel}, "", 0)
}

type levelWriter struct {
	app   zerolog.Logger
	level zerolog.Level
}

func (w levelWriter) Write(p []byte) (int, error) {
	w.app.WithLevel(w.level).Msg(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Quiet reports whether the logger was built with output suppressed.
func (l *Logger) Quiet() bool { return l.quiet }

// Access records a finished request. A failed write is reported on the
// application log.
func (l *Logger) Access(req *http.Request, status int, responseBytes int64, duration time.Duration) {
	if l.accessLog == nil {
		return
	}
	if err := l.accessLog.LogAccess(req, status, responseBytes, duration); err != nil {
		l.Error("Failed to write access log entry", LogFields{"error": err.Error()})
	}
}

// LogAccess writes a single access entry for req. JSON entries go through
// zerolog, which reports its own write failures to stderr; only console
// write errors are returned.
func (al *AccessLogger) LogAccess(req *http.Request, status int, responseBytes int64, duration time.Duration) error {
	if al == nil {
		return nil
	}
	uri := req.RequestURI
	if uri == "" {
		uri = req.URL.RequestURI()
	}

	if al.format == config.LogFormatJSON {
		host, _, err := net.SplitHostPort(req.RemoteAddr)
		if err != nil {
			host = req.RemoteAddr
		}
		ev := al.json.Info().
			Str("request_id", ulid.Make().String()).
			Str("remote_addr", host).
			Str("protocol", req.Proto).
			Str("method", req.Method).
			Str("uri", uri).
			Int("status", status).
			Int64("resp_bytes", responseBytes).
			Str("resp_size", humanize.Bytes(uint64(responseBytes))).
			Int64("duration_ms", duration.Milliseconds())
		if ua := req.UserAgent(); ua != "" {
			ev = ev.Str("user_agent", ua)
		}
		ev.Send()
		return nil
	}

	line := fmt.Sprintf(" %s  %s  %s  %s  %s\n",
		color.New(color.Faint).Sprint(al.now().Format("15:04:05")),
		statusBadge(status),
		methodBadge(req.Method),
		uri,
		color.New(color.Faint).Sprint(humanize.Bytes(uint64(responseBytes))),
	)
	al.mu.Lock()
	defer al.mu.Unlock()
	_, err := io.WriteString(al.out, line)
	return err
}

func statusBadge(status int) string {
	var bg color.Attribute
	switch status / 100 {
	case 1:
		bg = color.BgMagenta
	case 2:
		bg = color.BgGreen
	case 3:
		bg = color.BgYellow
	case 4:
		bg = color.BgRed
	case 5:
		bg = color.BgBlue
	default:
		bg = color.BgWhite
	}
	return color.New(color.Bold, color.FgBlack, bg).Sprintf(" %d ", status)
}

func methodBadge(method string) string {
	label, bg := " ??? ", color.BgWhite
	switch method {
	case http.MethodGet:
		label, bg = " GET ", color.BgGreen
	case http.MethodHead:
		label, bg = " HEAD ", color.BgGreen
	case http.MethodPost:
		label, bg = " POST ", color.BgMagenta
	case http.MethodPut:
		label, bg = " PUT ", color.BgYellow
	case http.MethodDelete:
		label, bg = " DEL ", color.BgRed
	case http.MethodConnect:
		label, bg = " CONN ", color.BgBlue
	case http.MethodOptions:
		label, bg = " OPT ", color.BgBlue
	case http.MethodTrace:
		label, bg = " TRACE ", color.BgHiMagenta
	case http.MethodPatch:
		label, bg = " PATCH ", color.BgYellow
	}
	// Pad outside the escape codes so columns line up with or without color.
	return color.New(color.Bold, color.FgBlack, bg).Sprint(label) + strings.Repeat(" ", 7-len(label))
}

// Banner prints the startup greeting.
func (l *Logger) Banner(address string) {
	if l.quiet || l.bannerOut == nil {
		return
	}
	name := "stranger"
	if u, err := user.Current(); err == nil {
		name = u.Username
		if u.Name != "" {
			name = u.Name
		}
	}
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString("  ╭─" + strings.ToUpper(buildinfo.Product) + "\n")
	sb.WriteString("  │ Welcome back " + color.New(color.FgBlue, color.Bold).Sprint(name) + "!\n")
	sb.WriteString("  │ Version: " + color.New(color.FgGreen, color.Bold).Sprint(buildinfo.Version) + "\n")
	sb.WriteString("  │ Host: " + color.New(color.FgRed, color.Bold).Sprint(host) + "\n")
	sb.WriteString("  │ Address: " + color.New(color.FgYellow, color.Bold).Sprint(address) + "\n")
	sb.WriteString("  ╰────────\n\n")
	l.writeConsole("banner", sb.String())
}

// Goodbye prints the farewell line after shutdown.
func (l *Logger) Goodbye() {
	if l.quiet || l.bannerOut == nil {
		return
	}
	l.writeConsole("goodbye", "\rBye!\n")
}

// writeConsole prints s to the banner output, reporting a failed write on the
// application log.
func (l *Logger) writeConsole(what, s string) {
	if _, err := io.WriteString(l.bannerOut, s); err != nil {
		l.Error("Failed to write console output", LogFields{"output": what, "error": err.Error()})
	}
}
