package routes

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Namer is implemented by handlers that declare a route name.
type Namer interface {
	RouteName() string
}

type namedHandler struct {
	http.Handler
	name string
}

func (h namedHandler) RouteName() string {
	return h.name
}

// Named wraps h so that FromChi reports name for its route.
func Named(name string, h http.Handler) http.Handler {
	return namedHandler{Handler: h, name: name}
}

// NamedFunc is Named for handler functions.
func NamedFunc(name string, h http.HandlerFunc) http.Handler {
	return Named(name, h)
}

// FromChi builds a table from the endpoints registered on a chi router.
// Routes are named by Named when declared, otherwise "<METHOD> <pattern>".
func FromChi(router chi.Routes) (Table, error) {
	table := Table{}

	err := chi.Walk(router, func(method, route string, handler http.Handler, _ ...func(http.Handler) http.Handler) error {
		method = strings.ToUpper(method)

		name := method + " " + route
		if n, ok := handler.(Namer); ok && n.RouteName() != "" {
			name = n.RouteName()
		}

		if err := table.Handle(method, route, name); err != nil {
			return fmt.Errorf("failed to add %s %s: %w", method, route, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk chi routes: %w", err)
	}

	return table, nil
}

// Len returns the number of entries across all methods.
func (t Table) Len() int {
	n := 0
	for _, entries := range t {
		n += len(entries)
	}
	return n
}
