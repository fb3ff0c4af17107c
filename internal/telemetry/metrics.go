// Package telemetry provides OpenTelemetry instrumentation for action authorization.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// AuthzMetricsMeterName is the name used for the authorization metrics meter
	AuthzMetricsMeterName = "github.com/stacklok/toolhive-action-authz/authz"

	// UnregisteredAction replaces identifiers that have no rule, so that
	// synthesized "METHOD /path" identifiers cannot explode cardinality.
	UnregisteredAction = "unregistered_action"
)

// AuthzMetrics holds the OpenTelemetry instruments for authorization decisions
type AuthzMetrics struct {
	decisionsTotal metric.Int64Counter
}

// NewAuthzMetrics creates a new AuthzMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewAuthzMetrics(provider metric.MeterProvider) (*AuthzMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(AuthzMetricsMeterName)

	decisionsTotal, err := meter.Int64Counter(
		"authz_decisions_total",
		metric.WithDescription("Number of authorization decisions by action and outcome"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	return &AuthzMetrics{
		decisionsTotal: decisionsTotal,
	}, nil
}

// RecordDecision records one authorization decision. Actions without a
// registered rule are recorded as UnregisteredAction.
func (m *AuthzMetrics) RecordDecision(ctx context.Context, action string, registered, allowed bool) {
	if m == nil || m.decisionsTotal == nil {
		return
	}

	if !registered {
		action = UnregisteredAction
	}

	decision := "denied"
	if allowed {
		decision = "allowed"
	}

	attrs := []attribute.KeyValue{
		attribute.String("action", action),
		attribute.String("decision", decision),
	}

	m.decisionsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}
