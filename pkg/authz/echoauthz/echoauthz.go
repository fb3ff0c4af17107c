// Package echoauthz enforces per-action authorization rules on echo servers.
//
// The current action is the name of the echo route that handles the
// request. Echo names routes after their handler function unless a name is
// assigned:
//
//	e.GET("/things/:id", showThing).Name = "things.show"
package echoauthz

import (
	"context"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/stacklok/toolhive-action-authz/pkg/authz"
)

// Rules is a rule set for echo servers.
type Rules = authz.Rules[echo.Context]

// Registry is a rule registry for echo servers.
type Registry = authz.Registry[echo.Context]

// ForbidFunc rejects a request using echo's short-circuit mechanism.
type ForbidFunc func(c echo.Context) error

// Forbid returns echo.ErrForbidden, which echo's error handler renders as 403.
func Forbid(echo.Context) error {
	return echo.ErrForbidden
}

// Option configures an Authorizer.
type Option func(*Authorizer)

// WithForbid replaces Forbid.
func WithForbid(forbid ForbidFunc) Option {
	return func(a *Authorizer) {
		a.forbid = forbid
	}
}

// WithAuthzOptions passes options to the underlying authz.Authorizer.
func WithAuthzOptions(opts ...authz.Option) Option {
	return func(a *Authorizer) {
		a.authzOpts = append(a.authzOpts, opts...)
	}
}

// Authorizer is the echo binding of authz.Authorizer.
type Authorizer struct {
	echo      *echo.Echo
	forbid    ForbidFunc
	authzOpts []authz.Option
	core      *authz.Authorizer[echo.Context]

	loadNames sync.Once
	names     map[string]string
}

// New creates an Authorizer for e using the rules in registry.
// The registry must be configured before e starts serving.
func New(e *echo.Echo, registry *Registry, opts ...Option) (*Authorizer, error) {
	a := &Authorizer{
		echo:   e,
		forbid: Forbid,
	}
	for _, opt := range opts {
		opt(a)
	}

	core, err := authz.New(registry, authz.Binding[echo.Context](a), a.authzOpts...)
	if err != nil {
		return nil, err
	}
	a.core = core
	return a, nil
}

// Authorize checks the current request. See authz.Authorizer.Authorize.
func (a *Authorizer) Authorize(c echo.Context) (authz.Decision, error) {
	return a.core.Authorize(c)
}

// Middleware returns echo middleware that runs Authorize before the handler.
// Register it with e.Use so that it runs after routing.
func (a *Authorizer) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			decision, err := a.Authorize(c)
			if !decision.Allowed {
				return err
			}
			return next(c)
		}
	}
}

// CurrentAction returns the name of the route handling c. Routes that are
// unknown or unnamed are identified as "<METHOD> <route path>", using the
// request path when echo matched no route.
func (a *Authorizer) CurrentAction(c echo.Context) authz.ActionID {
	method := c.Request().Method
	path := c.Path()
	if path == "" {
		path = c.Request().URL.Path
	}
	key := routeKey(method, path)
	if name, ok := a.routeNames()[key]; ok && name != "" {
		return authz.NewActionID(name)
	}
	return authz.NewActionID(key)
}

// Forbid rejects c and returns the result of the forbid function.
func (a *Authorizer) Forbid(c echo.Context) error {
	return a.forbid(c)
}

// Context returns the request context of c.
func (*Authorizer) Context(c echo.Context) context.Context {
	return c.Request().Context()
}

func (a *Authorizer) routeNames() map[string]string {
	a.loadNames.Do(func() {
		a.names = map[string]string{}
		if a.echo == nil {
			return
		}
		for _, r := range a.echo.Routes() {
			a.names[routeKey(r.Method, r.Path)] = r.Name
		}
		a.core.Logger().Debug("Indexed echo routes", "routes", len(a.names))
	})
	return a.names
}

func routeKey(method, path string) string {
	return method + " " + path
}
