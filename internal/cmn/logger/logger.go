package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	slogmulti "github.com/samber/slog-multi"
)

// Logger is the application logger. Structured records go to stderr (and
// an optional file); Write emits free-form lines to stdout.
type Logger interface {
	Debug(msg string, tags ...any)
	Info(msg string, tags ...any)
	Warn(msg string, tags ...any)
	Error(msg string, tags ...any)

	With(attrs ...any) Logger
	WithGroup(name string) Logger

	// Write writes a message to the logger in free form.
	Write(string)
}

var _ Logger = (*appLogger)(nil)

type appLogger struct {
	logger *slog.Logger
	file   *guardedWriter
	stdout *guardedWriter
	quiet  bool
}

type Config struct {
	debug  bool
	format string
	writer io.Writer
	stdout io.Writer
	stderr io.Writer
	quiet  bool
}

type Option func(*Config)

// WithDebug sets the level of the logger to debug.
func WithDebug() Option {
	return func(o *Config) {
		o.debug = true
	}
}

// WithFormat sets the format of the logger (text or json).
func WithFormat(format string) Option {
	return func(o *Config) {
		o.format = format
	}
}

// WithWriter sets an additional writer (usually a log file).
func WithWriter(w io.Writer) Option {
	return func(o *Config) {
		o.writer = w
	}
}

// WithStdout replaces os.Stdout as the target of Write.
func WithStdout(w io.Writer) Option {
	return func(o *Config) {
		o.stdout = w
	}
}

// WithStderr replaces os.Stderr as the target of structured records.
func WithStderr(w io.Writer) Option {
	return func(o *Config) {
		o.stderr = w
	}
}

// WithQuiet suppresses console output.
func WithQuiet() Option {
	return func(o *Config) {
		o.quiet = true
	}
}

var defaultLogger = NewLogger(WithFormat("text"))

func NewLogger(opts ...Option) Logger {
	cfg := &Config{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	level := slog.LevelInfo
	if cfg.debug {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.debug,
	}

	var (
		handlers []slog.Handler
		file     *guardedWriter
	)

	if !cfg.quiet {
		handlers = append(handlers, newHandler(cfg.stderr, cfg.format, handlerOpts))
	}

	if cfg.writer != nil {
		file = &guardedWriter{w: cfg.writer}
		handlers = append(handlers, newHandler(file, cfg.format, handlerOpts))
	}

	return &appLogger{
		logger: slog.New(slogmulti.Fanout(handlers...)),
		file:   file,
		stdout: &guardedWriter{w: cfg.stdout},
		quiet:  cfg.quiet,
	}
}

// guardedWriter serializes writes so that lines from concurrent requests
// and structured records sharing the same file never interleave.
type guardedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (g *guardedWriter) Write(p []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.w.Write(p)
}

func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// Debug implements logger.Logger.
func (a *appLogger) Debug(msg string, tags ...any) {
	a.logger.Debug(msg, tags...)
}

// Info implements logger.Logger.
func (a *appLogger) Info(msg string, tags ...any) {
	a.logger.Info(msg, tags...)
}

// Warn implements logger.Logger.
func (a *appLogger) Warn(msg string, tags ...any) {
	a.logger.Warn(msg, tags...)
}

// Error implements logger.Logger.
func (a *appLogger) Error(msg string, tags ...any) {
	a.logger.Error(msg, tags...)
}

// With implements logger.Logger.
func (a *appLogger) With(attrs ...any) Logger {
	return &appLogger{
		logger: a.logger.With(attrs...),
		file:   a.file,
		stdout: a.stdout,
		quiet:  a.quiet,
	}
}

// WithGroup implements logger.Logger.
func (a *appLogger) WithGroup(name string) Logger {
	return &appLogger{
		logger: a.logger.WithGroup(name),
		file:   a.file,
		stdout: a.stdout,
		quiet:  a.quiet,
	}
}

func (a *appLogger) Write(msg string) {
	line := []byte(msg + "\n")
	if !a.quiet {
		_, _ = a.stdout.Write(line)
	}
	if a.file != nil {
		_, _ = a.file.Write(line)
	}
}

// Slog exposes the underlying slog.Logger for libraries that take one.
func Slog(l Logger) *slog.Logger {
	if a, ok := l.(*appLogger); ok {
		return a.logger
	}
	return defaultLogger.(*appLogger).logger
}

// WithValues adds key-value pairs to the logger stored in ctx.
func WithValues(ctx context.Context, keyvals ...any) context.Context {
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "MISSING_VALUE")
	}
	return WithLogger(ctx, FromContext(ctx).With(keyvals...))
}
