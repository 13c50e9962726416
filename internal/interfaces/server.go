package interfaces

import (
	"context"
	"net/http"
)

// Server interface defines the methods for a server implementation.
type Server interface {
	AddRoute(pattern string, handler func(w http.ResponseWriter, r *http.Request)) error
	Handle(pattern string, handler http.Handler) error
	Use(middleware func(http.Handler) http.Handler)
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}
