// Package chiauthz enforces per-action authorization rules on chi routers.
//
// The current action is resolved from the router's own route table: the
// first route matching the request method and path names the action.
package chiauthz

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/toolhive-action-authz/pkg/authz"
	"github.com/stacklok/toolhive-action-authz/pkg/authz/routes"
)

// Exchange is the request context handed to rules.
type Exchange struct {
	W http.ResponseWriter
	R *http.Request
}

// Rules is a rule set for chi routers.
type Rules = authz.Rules[*Exchange]

// Registry is a rule registry for chi routers.
type Registry = authz.Registry[*Exchange]

// HaltFunc stops request processing with status.
type HaltFunc func(w http.ResponseWriter, r *http.Request, status int) error

// HaltError is returned by Halt after the response has been written.
type HaltError struct {
	Status int
}

func (e *HaltError) Error() string {
	return fmt.Sprintf("request halted with status %d", e.Status)
}

// ForbiddenResponse is the JSON body written when authorization is denied.
type ForbiddenResponse struct {
	Error   string           `json:"error"`
	Message string           `json:"message"`
	Details *ForbiddenDetail `json:"details,omitempty"`
}

// ForbiddenDetail names the action that was denied.
type ForbiddenDetail struct {
	RequiredAction string `json:"required_action"`
}

// Halt writes a JSON error response with status and returns a *HaltError.
func Halt(w http.ResponseWriter, r *http.Request, status int) error {
	resp := ForbiddenResponse{
		Error:   "forbidden",
		Message: "You do not have permission to perform this action.",
	}
	if action, ok := ActionFromContext(r.Context()); ok {
		resp.Details = &ForbiddenDetail{RequiredAction: action.String()}
	}
	if status != http.StatusForbidden {
		resp.Error = http.StatusText(status)
		resp.Message = http.StatusText(status)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode halt response", "error", err)
	}
	return &HaltError{Status: status}
}

// Option configures an Authorizer.
type Option func(*Authorizer)

// WithTable uses table instead of walking the router.
func WithTable(table routes.Table) Option {
	return func(a *Authorizer) {
		a.loadTable.Do(func() {})
		a.table = table
	}
}

// WithHalt replaces Halt.
func WithHalt(halt HaltFunc) Option {
	return func(a *Authorizer) {
		a.halt = halt
	}
}

// WithAuthzOptions passes options to the underlying authz.Authorizer.
func WithAuthzOptions(opts ...authz.Option) Option {
	return func(a *Authorizer) {
		a.authzOpts = append(a.authzOpts, opts...)
	}
}

// Authorizer is the chi binding of authz.Authorizer.
type Authorizer struct {
	router    chi.Routes
	halt      HaltFunc
	authzOpts []authz.Option
	core      *authz.Authorizer[*Exchange]

	loadTable sync.Once
	table     routes.Table
}

// New creates an Authorizer for router using the rules in registry.
// The registry must be configured before the router starts serving.
func New(router chi.Routes, registry *Registry, opts ...Option) (*Authorizer, error) {
	a := &Authorizer{
		router: router,
		halt:   Halt,
	}
	for _, opt := range opts {
		opt(a)
	}

	core, err := authz.New(registry, authz.Binding[*Exchange](a), a.authzOpts...)
	if err != nil {
		return nil, err
	}
	a.core = core
	return a, nil
}

// Authorize checks the current request. See authz.Authorizer.Authorize.
func (a *Authorizer) Authorize(x *Exchange) (authz.Decision, error) {
	return a.core.Authorize(x)
}

// Middleware runs Authorize before next and stops the chain when the
// action is not allowed.
func (a *Authorizer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		x := &Exchange{W: w, R: r}
		decision, err := a.Authorize(x)
		if !decision.Allowed {
			a.core.Logger().DebugContext(r.Context(), "Request halted",
				"action", decision.Action,
				"method", r.Method,
				"path", r.URL.Path,
				"result", err,
			)
			return
		}
		next.ServeHTTP(w, x.R)
	})
}

// CurrentAction resolves the action of x from the router's route table.
// On a mounted sub-router the path is the part left for that router, so
// the table patterns, which are relative to the router, still apply.
func (a *Authorizer) CurrentAction(x *Exchange) authz.ActionID {
	action := routes.Resolve(a.routeTable(), x.R.Method, routePath(x.R))
	x.R = x.R.WithContext(withAction(x.R.Context(), action))
	return action
}

// Forbid halts the request with 403 Forbidden and returns the halt result.
func (a *Authorizer) Forbid(x *Exchange) error {
	return a.halt(x.W, x.R, http.StatusForbidden)
}

// Context returns the request context of x.
func (*Authorizer) Context(x *Exchange) context.Context {
	return x.R.Context()
}

func (a *Authorizer) routeTable() routes.Table {
	a.loadTable.Do(func() {
		if a.router == nil {
			return
		}
		table, err := routes.FromChi(a.router)
		if err != nil {
			a.core.Logger().Error("Failed to build route table, actions fall back to request paths", "error", err)
			return
		}
		a.core.Logger().Debug("Built route table", "routes", table.Len())
		a.table = table
	})
	return a.table
}

// routePath returns the path still to be routed by the current chi router.
func routePath(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePath != "" {
		return rctx.RoutePath
	}
	return r.URL.Path
}

type actionKey struct{}

func withAction(ctx context.Context, action authz.ActionID) context.Context {
	return context.WithValue(ctx, actionKey{}, action)
}

// ActionFromContext returns the action identifier resolved for the request.
func ActionFromContext(ctx context.Context) (authz.ActionID, bool) {
	action, ok := ctx.Value(actionKey{}).(authz.ActionID)
	return action, ok
}
