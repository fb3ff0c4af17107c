// Package app wires configuration, authorization rules and the demo API
// into a runnable HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/stacklok/toolhive-action-authz/internal/config"
)

// DemoApp encapsulates the components needed to run the demo server
// It provides lifecycle management and graceful shutdown capabilities
type DemoApp struct {
	config     *config.Config
	httpServer *http.Server
}

// Start starts the HTTP server
// This method blocks until the HTTP server stops or encounters an error
func (app *DemoApp) Start() error {
	slog.Info("Server listening",
		"address", app.httpServer.Addr,
		"framework", app.config.GetFramework(),
	)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server with the given timeout
func (app *DemoApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// GetConfig returns the application configuration
func (app *DemoApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *DemoApp) GetHTTPServer() *http.Server {
	return app.httpServer
}
