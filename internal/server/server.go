package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/haguru/choji/internal/interfaces"
)

var (
	ReadTimeout       = 10 * time.Second
	ReadHeaderTimeout = 5 * time.Second
	WriteTimeout      = 10 * time.Second
	IdleTimeout       = 30 * time.Second
)

type Server struct {
	Port        string
	Host        string
	ServiceName string
	server      *http.Server
	mux         *http.ServeMux
	middlewares []func(http.Handler) http.Handler
	Logger      interfaces.Logger
}

// NewServer creates a new Server instance with the specified host and port.
// Every request is traced under serviceName.
func NewServer(serviceName, host, port string, logger interfaces.Logger) interfaces.Server {
	mux := http.NewServeMux()
	s := &Server{
		Host:        host,
		Port:        port,
		ServiceName: serviceName,
		mux:         mux,
		Logger:      logger,
	}
	s.server = &http.Server{
		Addr:              net.JoinHostPort(host, port),
		ReadTimeout:       ReadTimeout,
		ReadHeaderTimeout: ReadHeaderTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}
	return s
}

// AddRoute adds a new route to the server.
// The pattern may carry a method, as in "POST /signup"; other methods on the
// same path are answered with 405 by the mux.
func (s *Server) AddRoute(pattern string, handler func(w http.ResponseWriter, r *http.Request)) error {
	return s.Handle(pattern, http.HandlerFunc(handler))
}

// Handle registers handler for pattern. An invalid or conflicting pattern is
// returned as an error instead of panicking.
func (s *Server) Handle(pattern string, handler http.Handler) (err error) {
	if handler == nil {
		return fmt.Errorf("nil handler for route %s", pattern)
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("failed to add route %s: %v", pattern, rec)
		}
	}()
	s.mux.Handle(pattern, handler)
	s.Logger.Info("Route added", "route", pattern)
	return nil
}

// Use appends a middleware. Middlewares wrap the mux in the order added, the
// first one outermost.
func (s *Server) Use(middleware func(http.Handler) http.Handler) {
	s.middlewares = append(s.middlewares, middleware)
}

// Handler returns the mux wrapped in the middlewares and tracing.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		handler = s.middlewares[i](handler)
	}
	return otelhttp.NewHandler(handler, s.ServiceName)
}

// ListenAndServe starts the HTTP server and listens for incoming requests.
// It returns nil once Shutdown has been called.
func (s *Server) ListenAndServe() error {
	s.server.Handler = s.Handler()
	s.Logger.Info("Starting server", "host", s.Host, "port", s.Port)
	err := s.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.Logger.Error("Failed to start server", "error", err)
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown stops accepting connections and waits for in flight requests
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("Shutting down server", "host", s.Host, "port", s.Port)
	return s.server.Shutdown(ctx)
}
