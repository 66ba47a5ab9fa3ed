// Package app wires the application's components together and manages
// their lifecycle: one transport client, one token cache, one token
// manager and one HTTP server per process, constructed at startup and
// passed by reference. No ambient global state.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/beelinehq/beeline/internal/httpclient"
	"github.com/beelinehq/beeline/internal/items"
	"github.com/beelinehq/beeline/internal/oauth"
	"github.com/beelinehq/beeline/internal/server"
	"github.com/beelinehq/beeline/internal/tokencache"
	"github.com/beelinehq/beeline/internal/upstream"
)

// Version is the reported application version.
const Version = "0.1.0"

// App orchestrates the lifecycle of the HTTP server and related services.
type App struct {
	cfg *Config

	httpClient *httpclient.Client
	tokens     *oauth.Manager
	store      *items.Store
	server     *server.Server
	upstream   *upstream.Client
}

// New creates a new App instance.
func New(cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	httpClient := httpclient.New(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second)
	cache := tokencache.New(time.Duration(cfg.OAuth.ExpirationBufferSeconds) * time.Second)
	tokens := oauth.NewManager(httpClient, cache, oauth.Config{
		ClientID:         cfg.OAuth.ClientID,
		ClientSecret:     cfg.OAuth.ClientSecret,
		TokenURL:         cfg.OAuth.TokenURL,
		MaxRetryAttempts: cfg.OAuth.MaxRetryAttempts,
	})

	a := &App{
		cfg:        cfg,
		httpClient: httpClient,
		tokens:     tokens,
		store:      items.NewStore(),
	}
	a.server = server.New(a.store, tokens, Version, cfg.Server.AllowedOrigins)

	if cfg.Upstream.BaseURL != "" {
		upstreamClient, err := upstream.New(cfg.Upstream.BaseURL, tokens,
			time.Duration(cfg.HTTP.TimeoutSeconds)*time.Second)
		if err != nil {
			return nil, fmt.Errorf("failed to create upstream client: %w", err)
		}
		a.upstream = upstreamClient
	}

	return a, nil
}

// TokenManager returns the process-wide token manager.
func (a *App) TokenManager() *oauth.Manager { return a.tokens }

// Upstream returns the authenticated upstream client, or nil when no
// upstream base URL is configured.
func (a *App) Upstream() *upstream.Client { return a.upstream }

// Start starts all services and blocks until shutdown is triggered.
// Uses errgroup for runtime error monitoring and shutdown function
// collection for coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	address := a.cfg.Server.Host + ":" + strconv.FormatUint(uint64(a.cfg.Server.Port), 10)
	var shutdownFuncs []func(context.Context) error

	slog.InfoContext(gCtx, "starting http server", "address", address)
	serverErrCh, err := a.server.Start(gCtx, address)
	if err != nil {
		return fmt.Errorf("server startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, a.server.Shutdown)
	shutdownFuncs = append(shutdownFuncs, func(context.Context) error {
		a.httpClient.Close()
		return nil
	})

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-serverErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "server runtime error", "error", err)
				return fmt.Errorf("server: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	slog.InfoContext(gCtx, "application ready", "address", address)

	runtimeErr := g.Wait()

	slog.InfoContext(gCtx, "shutting down services")

	// Shutdown phase: Stop all services
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Shutdown.Timeout)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}
