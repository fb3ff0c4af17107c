package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/metric"

	"github.com/stacklok/toolhive-action-authz/internal/api"
	"github.com/stacklok/toolhive-action-authz/internal/config"
	"github.com/stacklok/toolhive-action-authz/internal/telemetry"
	"github.com/stacklok/toolhive-action-authz/pkg/authz"
	"github.com/stacklok/toolhive-action-authz/pkg/authz/chiauthz"
)

const (
	defaultHTTPAddress    = ":8080"
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// DemoAppOptions is a function that configures the demo app builder
type DemoAppOptions func(*demoAppConfig) error

// demoAppConfig collects the inputs of NewDemoApp
type demoAppConfig struct {
	config *config.Config
	store  *api.ThingStore

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Telemetry components
	meterProvider  metric.MeterProvider
	metricsHandler http.Handler
}

func baseConfig(opts ...DemoAppOptions) (*demoAppConfig, error) {
	cfg := &demoAppConfig{
		address:        defaultHTTPAddress,
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// NewDemoApp builds the demo application from the given options
func NewDemoApp(ctx context.Context, opts ...DemoAppOptions) (*DemoApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}
	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.store == nil {
		cfg.store = api.NewThingStore()
	}

	handler, err := buildHandler(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP handler: %w", err)
	}

	httpServer := &http.Server{
		Addr:         cfg.address,
		Handler:      handler,
		ReadTimeout:  cfg.readTimeout,
		WriteTimeout: cfg.writeTimeout,
		IdleTimeout:  cfg.idleTimeout,
	}
	slog.Info("HTTP server configured", "address", cfg.address)

	return &DemoApp{
		config:     cfg.config,
		httpServer: httpServer,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) DemoAppOptions {
	return func(cfg *demoAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithStore sets the store backing the demo API
func WithStore(store *api.ThingStore) DemoAppOptions {
	return func(cfg *demoAppConfig) error {
		cfg.store = store
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) DemoAppOptions {
	return func(cfg *demoAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) DemoAppOptions {
	return func(cfg *demoAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for HTTP and decision metrics
func WithMeterProvider(mp metric.MeterProvider) DemoAppOptions {
	return func(cfg *demoAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithMetricsHandler serves h on GET /metrics
func WithMetricsHandler(h http.Handler) DemoAppOptions {
	return func(cfg *demoAppConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

// buildHandler builds the router of the configured framework with its
// middleware and authorization rules
//
//nolint:unparam // we prefer having a similar interface
func buildHandler(_ context.Context, b *demoAppConfig) (http.Handler, error) {
	slog.Info("Initializing HTTP handler", "framework", b.config.GetFramework())

	// Use default middlewares if not provided
	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	serverOpts := []api.ServerOption{}
	if b.metricsHandler != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(b.metricsHandler))
	}
	if b.meterProvider != nil {
		serverOpts = append(serverOpts, api.WithAuthzOptions(authz.WithMeterProvider(b.meterProvider)))
	}

	switch b.config.GetFramework() {
	case config.FrameworkEcho:
		return buildEchoHandler(b, serverOpts)
	default:
		return buildChiHandler(b, serverOpts)
	}
}

func buildChiHandler(b *demoAppConfig, serverOpts []api.ServerOption) (http.Handler, error) {
	middlewares := b.middlewares

	// HTTP metrics read the chi route pattern, so they only apply to the chi router.
	// Prepend them to capture all requests including forbidden ones.
	if b.meterProvider != nil {
		httpMetrics, err := telemetry.NewHTTPMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
		}
		if httpMetrics != nil {
			middlewares = append([]func(http.Handler) http.Handler{httpMetrics.Middleware}, middlewares...)
			slog.Info("HTTP metrics middleware enabled")
		}
	}

	rules, err := BuildRules(b.config, func(x *chiauthz.Exchange) *http.Request { return x.R })
	if err != nil {
		return nil, fmt.Errorf("failed to build authorization rules: %w", err)
	}

	serverOpts = append(serverOpts, api.WithMiddlewares(middlewares...))
	router, err := api.NewServer(b.store, authz.NewRegistry(rules), serverOpts...)
	if err != nil {
		return nil, err
	}
	return router, nil
}

func buildEchoHandler(b *demoAppConfig, serverOpts []api.ServerOption) (http.Handler, error) {
	rules, err := BuildRules(b.config, func(c echo.Context) *http.Request { return c.Request() })
	if err != nil {
		return nil, fmt.Errorf("failed to build authorization rules: %w", err)
	}

	serverOpts = append(serverOpts, api.WithMiddlewares(b.middlewares...))
	e, err := api.NewEchoServer(b.store, authz.NewRegistry(rules), serverOpts...)
	if err != nil {
		return nil, err
	}
	return e, nil
}
