package authz

import (
	"errors"
	"maps"
)

// ErrRegistryConfigured is returned when rules are set on a registry that already has them.
var ErrRegistryConfigured = errors.New("authz: authorization rules already configured")

// Rules maps action identifiers to their authorization rule.
type Rules[C any] map[ActionID]Rule[C]

// Registry holds the authorization rules of one router or application.
//
// A Registry is configured once at startup and must not be modified while
// requests are being served. Lookups take no locks.
type Registry[C any] struct {
	rules      Rules[C]
	configured bool
}

// NewRegistry returns a registry configured with rules.
func NewRegistry[C any](rules Rules[C]) *Registry[C] {
	r := &Registry[C]{}
	// A fresh registry cannot already be configured.
	_ = r.Set(rules)
	return r
}

// Set configures the registry. It can be called only once; later calls
// return ErrRegistryConfigured. The map is copied.
func (r *Registry[C]) Set(rules Rules[C]) error {
	if r.configured {
		return ErrRegistryConfigured
	}
	r.rules = maps.Clone(rules)
	if r.rules == nil {
		r.rules = Rules[C]{}
	}
	r.configured = true
	return nil
}

// Lookup returns the rule for id. It reports false for unknown actions and
// for registries that are nil or not configured.
func (r *Registry[C]) Lookup(id ActionID) (Rule[C], bool) {
	if r == nil || !r.configured {
		return nil, false
	}
	rule, ok := r.rules[id]
	return rule, ok
}

// Configured reports whether Set has been called.
func (r *Registry[C]) Configured() bool {
	return r != nil && r.configured
}

// Len returns the number of configured rules.
func (r *Registry[C]) Len() int {
	if r == nil {
		return 0
	}
	return len(r.rules)
}
