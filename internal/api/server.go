// Package api provides the demo HTTP servers whose endpoints are guarded
// by per-action authorization rules.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/toolhive-action-authz/pkg/authz"
	"github.com/stacklok/toolhive-action-authz/pkg/authz/chiauthz"
)

// ServerOption configures the demo API server
type ServerOption func(*serverConfig)

// serverConfig holds the server configuration
type serverConfig struct {
	middlewares    []func(http.Handler) http.Handler
	authzOpts      []authz.Option
	metricsHandler http.Handler
}

// WithMiddlewares adds middleware to the server. They run before authorization.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithAuthzOptions passes options to the authorization core
func WithAuthzOptions(opts ...authz.Option) ServerOption {
	return func(cfg *serverConfig) {
		cfg.authzOpts = append(cfg.authzOpts, opts...)
	}
}

// WithMetricsHandler serves h on GET /metrics
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.metricsHandler = h
	}
}

func newServerConfig(opts ...ServerOption) *serverConfig {
	cfg := &serverConfig{
		middlewares: []func(http.Handler) http.Handler{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// NewServer creates the chi router of the demo API. Every route, /health
// included, requires a rule in registry naming its "<METHOD> <pattern>" action.
func NewServer(store *ThingStore, registry *chiauthz.Registry, opts ...ServerOption) (*chi.Mux, error) {
	cfg := newServerConfig(opts...)

	r := chi.NewRouter()

	// Apply middleware
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	authorizer, err := chiauthz.New(r, registry, chiauthz.WithAuthzOptions(cfg.authzOpts...))
	if err != nil {
		return nil, err
	}
	r.Use(authorizer.Middleware)

	h := &thingHandlers{store: store}

	r.Get("/health", healthHandler)
	if cfg.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.metricsHandler)
	}

	r.Get("/things", h.list)
	r.Post("/things", h.create)
	r.Get("/things/{id}", h.get)
	r.Delete("/things/{id}", h.delete)

	return r, nil
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

type thingHandlers struct {
	store *ThingStore
}

func (h *thingHandlers) list(w http.ResponseWriter, _ *http.Request) {
	things := h.store.List()
	writeJSON(w, http.StatusOK, ThingListResponse{Things: things, Total: len(things)})
}

func (h *thingHandlers) get(w http.ResponseWriter, r *http.Request) {
	thing, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, thing)
}

func (h *thingHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req CreateThingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	thing, err := h.store.Create(req.Name)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, thing)
}

func (h *thingHandlers) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusFor maps store errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrThingNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrThingNameRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
