// Package log sets up the slog logger shared by the importer and the CLI. Console output
// is a compact one-line text format (or JSON), with optional rotated file output.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger initialization. Environment equivalents:
//   - PSDI_LOG_LEVEL=debug|info|warn|error
//   - PSDI_LOG_FORMAT=console|json
//   - PSDI_LOG_FILE=<path> (enables file logging with rotation)
//   - PSDI_LOG_SOURCE=true|false
type Options struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"` // "console" or "json"
	AddSource bool   `yaml:"source"`
	File      string `yaml:"file"`

	// Writer replaces stderr for console output
	Writer io.Writer `yaml:"-"`
}

var (
	defaultLoggerMu sync.RWMutex
	defaultLogger   *slog.Logger
)

// L returns the default logger, initializing from the environment on first use
func L() *slog.Logger {
	defaultLoggerMu.RLock()
	l := defaultLogger
	defaultLoggerMu.RUnlock()
	if l != nil {
		return l
	}
	return Init(FromEnv())
}

// Init configures the global logger, sets slog.Default and returns it
func Init(opts Options) *slog.Logger {
	logger := New(opts)

	defaultLoggerMu.Lock()
	defaultLogger = logger
	defaultLoggerMu.Unlock()
	slog.SetDefault(logger)
	return logger
}

// New builds a logger without touching the global default
func New(opts Options) *slog.Logger {
	lvl := parseLevel(opts.Level)
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	var handlers []slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		handlers = append(handlers, slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}))
	} else {
		handlers = append(handlers, &consoleHandler{level: lvl, addSource: opts.AddSource, w: w, mu: &sync.Mutex{}})
	}

	if strings.TrimSpace(opts.File) != "" {
		fw := &lj.Logger{Filename: opts.File, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
		handlers = append(handlers, slog.NewJSONHandler(fw, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}))
	}

	h := handlers[0]
	if len(handlers) > 1 {
		h = &multi{hs: handlers}
	}
	return slog.New(h).With(slog.String("app", "psdimport"))
}

// FromEnv builds Options from environment variables
func FromEnv() Options {
	return Options{
		Level:     getenv("PSDI_LOG_LEVEL", "info"),
		Format:    getenv("PSDI_LOG_FORMAT", "console"),
		AddSource: strings.EqualFold(getenv("PSDI_LOG_SOURCE", "false"), "true"),
		File:      os.Getenv("PSDI_LOG_FILE"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// WithComponent returns a logger with the component attribute pre-set
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation annotates the logger with an operation name
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

// Discard returns a logger that drops everything
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type multi struct{ hs []slog.Handler }

func (m *multi) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.hs {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multi) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m.hs {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *multi) WithAttrs(attrs []slog.Attr) slog.Handler {
	res := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		res[i] = h.WithAttrs(attrs)
	}
	return &multi{hs: res}
}

func (m *multi) WithGroup(name string) slog.Handler {
	res := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		res[i] = h.WithGroup(name)
	}
	return &multi{hs: res}
}

// consoleHandler prints one line per record: time level message key=value...
type consoleHandler struct {
	level     slog.Level
	addSource bool
	w         io.Writer
	mu        *sync.Mutex
	attrs     []slog.Attr
	groups    []string
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	b := &strings.Builder{}
	b.Grow(256)
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	b.WriteString(ts.Format(time.RFC3339))
	b.WriteString(" ")
	b.WriteString(levelString(r.Level))
	if r.Message != "" {
		b.WriteString(" ")
		b.WriteString(r.Message)
	}

	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	write := func(a slog.Attr) {
		b.WriteString(" ")
		b.WriteString(prefix)
		b.WriteString(a.Key)
		b.WriteString("=")
		b.WriteString(attrValueString(a.Value.Resolve()))
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		write(a)
		return true
	})

	if h.addSource {
		if file, line, ok := recordSource(r); ok {
			b.WriteString(" src=")
			b.WriteString(file)
			b.WriteString(":")
			b.WriteString(strconv.Itoa(line))
		}
	}
	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &c
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.groups = append(append([]string(nil), h.groups...), name)
	return &c
}

func levelString(l slog.Level) string {
	switch l {
	case slog.LevelDebug:
		return "DBG"
	case slog.LevelInfo:
		return "INF"
	case slog.LevelWarn:
		return "WRN"
	case slog.LevelError:
		return "ERR"
	default:
		return l.String()
	}
}

func attrValueString(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if strings.ContainsAny(s, " \t\"=") {
			return strconv.Quote(s)
		}
		return s
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	default:
		return v.String()
	}
}

// recordSource resolves the call site from the record PC. Record.Source only exists
// from Go 1.25.
func recordSource(r slog.Record) (string, int, bool) {
	if r.PC == 0 {
		return "", 0, false
	}
	frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
	if frame.File == "" {
		return "", 0, false
	}
	return frame.File, frame.Line, true
}
