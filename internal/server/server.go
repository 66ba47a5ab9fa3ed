// Package server exposes the HTTP API: item catalog CRUD plus token
// diagnostics for the OAuth manager.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/beelinehq/beeline/internal/items"
	"github.com/beelinehq/beeline/internal/oauth"
	"github.com/beelinehq/beeline/internal/observability/middleware"
)

const apiPrefix = "/api/v1"

// Server is the HTTP front of the application.
type Server struct {
	handler  http.Handler
	server   *http.Server
	validate *validator.Validate

	items   *items.Store
	tokens  *oauth.Manager
	version string
}

// Compile-time check that Server implements http.Handler.
var _ http.Handler = (*Server)(nil)

// New wires routes and middleware around the given collaborators.
// allowedOrigins configures cross-origin access; see middleware.CORS.
func New(store *items.Store, tokens *oauth.Manager, version string, allowedOrigins []string) *Server {
	s := &Server{
		validate: validator.New(),
		items:    store,
		tokens:   tokens,
		version:  version,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET "+apiPrefix+"/items", s.handleListItems)
	mux.HandleFunc("POST "+apiPrefix+"/items", s.handleCreateItem)
	mux.HandleFunc("GET "+apiPrefix+"/items/{id}", s.handleGetItem)
	mux.HandleFunc("PUT "+apiPrefix+"/items/{id}", s.handleUpdateItem)
	mux.HandleFunc("DELETE "+apiPrefix+"/items/{id}", s.handleDeleteItem)

	mux.HandleFunc("GET "+apiPrefix+"/auth/token", s.handleTokenInfo)
	mux.HandleFunc("DELETE "+apiPrefix+"/auth/token", s.handleClearToken)

	s.handler = applyMiddlewares(mux,
		middleware.Logging(slog.Default()),
		middleware.RequestID,
		middleware.CORS(allowedOrigins),
		middleware.Recovery,
	)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Start starts the HTTP server in the background and returns immediately.
// Returns a channel for runtime errors and a startup error if any.
//
// Startup errors (port in use, permission denied) are returned immediately.
// Runtime errors (network failures during operation) are sent to the error
// channel. The caller is responsible for calling Shutdown.
func (s *Server) Start(ctx context.Context, address string) (<-chan error, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	s.server = &http.Server{
		Handler:      s,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  90 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)

	go func() {
		err := s.server.Serve(listener)
		// Only report error if not from graceful shutdown
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return errCh, nil
}

// Shutdown performs graceful shutdown of the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	if err := s.server.Shutdown(ctx); err != nil {
		// Graceful shutdown failed - force close
		_ = s.server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}

// applyMiddlewares applies middlewares to a handler in the order they
// appear. The first middleware in the slice is the outermost.
func applyMiddlewares(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
