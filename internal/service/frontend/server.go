package frontend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/skribblers/backend/internal/cmn/config"
	"github.com/skribblers/backend/internal/cmn/logger"
	"github.com/skribblers/backend/internal/cmn/logger/tag"
	"github.com/skribblers/backend/internal/service/frontend/handlers"
	"github.com/skribblers/backend/internal/service/frontend/metrics"
	"github.com/skribblers/backend/internal/service/frontend/middleware"
)

const shutdownTimeout = 5 * time.Second

// Server represents the HTTP server for the application
type Server struct {
	config   *config.Config
	sink     logger.Sink
	logger   logger.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	listener net.Listener // Optional pre-bound listener (for tests)

	mu         sync.Mutex
	httpServer *http.Server
}

// ServerOption is a functional option for configuring the Server
type ServerOption func(*Server)

// WithSink sets the destination for request and startup lines.
func WithSink(sink logger.Sink) ServerOption {
	return func(s *Server) {
		s.sink = sink
	}
}

// WithLogger sets the structured logger used by the server and the access log.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// WithListener sets a pre-bound listener for the server.
// When set, the server will use this listener instead of creating its own.
func WithListener(l net.Listener) ServerOption {
	return func(s *Server) {
		s.listener = l
	}
}

// WithRegistry sets the prometheus registry the request metrics are
// registered with.
func WithRegistry(r *prometheus.Registry) ServerOption {
	return func(s *Server) {
		s.registry = r
	}
}

// NewServer constructs a Server from cfg. Without WithSink, lines go to stdout.
func NewServer(cfg *config.Config, opts ...ServerOption) *Server {
	srv := &Server{config: cfg}
	for _, opt := range opts {
		opt(srv)
	}
	if srv.sink == nil {
		srv.sink = logger.Stdout()
	}
	if srv.logger == nil {
		srv.logger = logger.FromContext(context.Background())
	}
	if srv.registry == nil {
		srv.registry = prometheus.NewRegistry()
	}
	srv.metrics = metrics.New(srv.registry)
	return srv
}

// Handler returns the router with all middleware and routes installed.
func (srv *Server) Handler() http.Handler {
	return srv.router()
}

func (srv *Server) router() *chi.Mux {
	r := chi.NewMux()

	// Request lines wrap everything so a recovered panic is still reported.
	r.Use(middleware.RequestLogging(srv.sink))
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(srv.metrics.Middleware)
	if srv.config.Server.AccessLog {
		r.Use(httplog.RequestLogger(srv.accessLogger()))
	}
	if srv.config.Server.CORS.Enabled() {
		srv.logger.Info("CORS enabled", tag.Origins(srv.config.Server.CORS.AllowedOrigins))
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: srv.config.Server.CORS.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300, // Maximum value not ignored by any of major browsers
		}))
	}
	r.Use(chimw.GetHead)
	r.Use(middleware.JSONBody(srv.config.Server.BodyLimit))

	r.Get("/", handlers.Greeting)
	if srv.config.Metrics.Enabled {
		r.Method(http.MethodGet, srv.config.Metrics.Path, srv.metrics.Handler())
	}

	return r
}

// accessLogger writes access records through the application logger so they
// share its console, quiet mode and log file.
func (srv *Server) accessLogger() *httplog.Logger {
	return &httplog.Logger{
		Logger: logger.Slog(srv.logger.With("version", config.Version)),
		Options: httplog.Options{
			LogLevel:         slog.LevelInfo,
			JSON:             srv.config.Core.LogFormat == "json",
			Concise:          true,
			RequestHeaders:   true,
			MessageFieldName: "msg",
		},
	}
}

// Serve binds the configured address, or uses the pre-bound listener, and
// serves until ctx is done or the process receives SIGINT or SIGTERM.
func (srv *Server) Serve(ctx context.Context) error {
	listener := srv.listener
	if listener == nil {
		addr := net.JoinHostPort(srv.config.Server.Host, strconv.Itoa(srv.config.Server.Port))
		l, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
		listener = l
	}

	httpServer := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		WriteTimeout:      60 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			// Keep the logger, drop cancellation so in-flight requests can finish.
			return context.WithoutCancel(ctx)
		},
	}
	srv.mu.Lock()
	srv.httpServer = httpServer
	srv.mu.Unlock()

	srv.sink(startedLine(boundPort(listener)))
	srv.metrics.StartUptime(ctx)

	logger.Info(ctx, "Server is starting", tag.Addr(listener.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(listener)
	}()

	return srv.waitForShutdown(ctx, errCh)
}

// Shutdown gracefully shuts down the server
func (srv *Server) Shutdown(ctx context.Context) error {
	srv.mu.Lock()
	httpServer := srv.httpServer
	srv.mu.Unlock()
	if httpServer == nil {
		return nil
	}

	logger.Info(ctx, "Server is shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	httpServer.SetKeepAlivesEnabled(false)
	return httpServer.Shutdown(shutdownCtx)
}

// waitForShutdown blocks until ctx is done, a signal arrives or the server
// stops on its own.
func (srv *Server) waitForShutdown(ctx context.Context, errCh <-chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-ctx.Done():
		logger.Info(ctx, "Context done, shutting down server")
	case sig := <-quit:
		logger.Info(ctx, "Received shutdown signal", tag.Signal(sig.String()))
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server stopped unexpectedly: %w", err)
	}

	if err := srv.Shutdown(context.WithoutCancel(ctx)); err != nil {
		logger.Error(ctx, "Failed to shutdown server gracefully", tag.Error(err))
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func startedLine(port int) string {
	return fmt.Sprintf("Server started on: http://localhost:%d", port)
}

func boundPort(l net.Listener) int {
	if addr, ok := l.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}
