// Package authz provides per-action authorization for HTTP frameworks.
//
// An application registers one Rule per action identifier in a Registry.
// A framework adapter supplies the Binding that names the current action and
// rejects the request, and runs Authorizer.Authorize before each handler.
// Actions without a rule are forbidden.
package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/metric"

	"github.com/stacklok/toolhive-action-authz/internal/telemetry"
)

//go:generate mockgen -destination=mocks/mock_binding.go -package=mocks -source=authorizer.go Binding

// ErrNotImplemented is the panic value of bindings that are not wired to a framework.
var ErrNotImplemented = errors.New("authz: not implemented")

// Binding connects the authorizer to a host framework.
type Binding[C any] interface {
	// CurrentAction returns the identifier of the action handling c.
	CurrentAction(c C) ActionID

	// Forbid rejects the request. Its return value is handed back to the
	// caller of Authorize unchanged.
	Forbid(c C) error
}

// contextBinding is implemented by bindings that can expose the request context.
type contextBinding[C any] interface {
	Context(c C) context.Context
}

// UnboundBinding is a Binding that is not attached to any framework.
// Both methods panic with ErrNotImplemented.
type UnboundBinding[C any] struct{}

// CurrentAction panics.
func (UnboundBinding[C]) CurrentAction(C) ActionID {
	panic(fmt.Errorf("%w: CurrentAction", ErrNotImplemented))
}

// Forbid panics.
func (UnboundBinding[C]) Forbid(C) error {
	panic(fmt.Errorf("%w: Forbid", ErrNotImplemented))
}

// Decision is the outcome of an authorization check.
type Decision struct {
	// Action is the identifier that was checked.
	Action ActionID

	// Allowed indicates whether the request may continue.
	Allowed bool
}

// Option configures an Authorizer.
type Option func(*options)

type options struct {
	logger        *slog.Logger
	meterProvider metric.MeterProvider
}

// WithLogger sets the logger used for authorization decisions.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMeterProvider enables decision metrics.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = provider
	}
}

// Authorizer checks requests against the rules of a Registry.
type Authorizer[C any] struct {
	registry *Registry[C]
	binding  Binding[C]
	logger   *slog.Logger
	metrics  *telemetry.AuthzMetrics
}

// New creates an Authorizer. A nil binding is replaced by UnboundBinding.
func New[C any](registry *Registry[C], binding Binding[C], opts ...Option) (*Authorizer[C], error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if binding == nil {
		binding = UnboundBinding[C]{}
	}

	metrics, err := telemetry.NewAuthzMetrics(o.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorization metrics: %w", err)
	}

	return &Authorizer[C]{
		registry: registry,
		binding:  binding,
		logger:   o.logger,
		metrics:  metrics,
	}, nil
}

// Authorize checks whether the current action of c is permitted.
// When it is not, the binding's Forbid is invoked exactly once and its
// result is returned as the error.
func (a *Authorizer[C]) Authorize(c C) (Decision, error) {
	action := a.binding.CurrentAction(c)
	rule, defined := a.registry.Lookup(action)
	allowed := defined && rule != nil && Truthy(rule.Evaluate(c))

	ctx := a.context(c)
	a.metrics.RecordDecision(ctx, action.String(), defined, allowed)

	decision := Decision{Action: action, Allowed: allowed}
	if allowed {
		a.logger.DebugContext(ctx, "Authorization permitted", "action", action)
		return decision, nil
	}

	a.logger.WarnContext(ctx, "Authorization denied", "action", action)
	return decision, a.binding.Forbid(c)
}

// Logger returns the logger used for authorization decisions.
func (a *Authorizer[C]) Logger() *slog.Logger {
	return a.logger
}

func (a *Authorizer[C]) context(c C) context.Context {
	if cb, ok := a.binding.(contextBinding[C]); ok {
		if ctx := cb.Context(c); ctx != nil {
			return ctx
		}
	}
	return context.Background()
}
