// Package routes resolves action identifiers from an HTTP method and path
// using an ordered route table.
package routes

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/stacklok/toolhive-action-authz/pkg/authz"
)

// Route is the metadata of one routing table entry.
type Route struct {
	// Name is the declared route name. Empty means the route has none.
	Name string
}

// Entry pairs a path pattern with its route metadata.
type Entry struct {
	Pattern *regexp.Regexp
	Route   Route
}

// Table holds route entries per uppercase HTTP method, in declared order.
type Table map[string][]Entry

// Add appends an entry for method.
func (t Table) Add(method string, pattern *regexp.Regexp, route Route) {
	method = strings.ToUpper(method)
	t[method] = append(t[method], Entry{Pattern: pattern, Route: route})
}

// Handle appends an entry for a chi path template such as "/things/{id}".
func (t Table) Handle(method, template, name string) error {
	pattern, err := CompileTemplate(template)
	if err != nil {
		return err
	}
	t.Add(method, pattern, Route{Name: name})
	return nil
}

// Resolve returns the action identifier for a request.
//
// The first entry for the method whose pattern matches path wins. Its route
// name is the identifier; when nothing matches, or the match has no name,
// the identifier is "<METHOD> <path>" built from the requested path.
func Resolve(t Table, method, path string) authz.ActionID {
	method = strings.ToUpper(method)

	for _, entry := range t[method] {
		if entry.Pattern == nil || !entry.Pattern.MatchString(path) {
			continue
		}
		if entry.Route.Name != "" {
			return authz.ActionID(entry.Route.Name)
		}
		break
	}

	return authz.ActionID(method + " " + path)
}

// CompileTemplate converts a chi path template into an anchored regular expression.
//
//	{param}      matches one path segment
//	{param:re}   matches re (one leading ^ and trailing $ are ignored, as in chi)
//	*            (trailing) matches the rest of the path
func CompileTemplate(template string) (*regexp.Regexp, error) {
	if !strings.HasPrefix(template, "/") {
		return nil, fmt.Errorf("route template must begin with '/': %q", template)
	}

	var b strings.Builder
	b.WriteString(`\A`)

	for i := 0; i < len(template); {
		switch c := template[i]; {
		case c == '{':
			end, err := closingBrace(template, i)
			if err != nil {
				return nil, err
			}
			param := template[i+1 : end]
			expr := `[^/]+`
			if name, re, ok := strings.Cut(param, ":"); ok {
				if name == "" || re == "" {
					return nil, fmt.Errorf("route template %q: invalid parameter %q", template, param)
				}
				// chi anchors parameter regexps to the segment itself, with or
				// without an explicit ^ and $.
				expr = strings.TrimSuffix(strings.TrimPrefix(re, "^"), "$")
			} else if param == "" {
				return nil, fmt.Errorf("route template %q: empty parameter", template)
			}
			b.WriteString("((?:" + expr + "))")
			i = end + 1
		case c == '*':
			if i != len(template)-1 {
				return nil, fmt.Errorf("route template %q: wildcard must be the last character", template)
			}
			b.WriteString(`(.*)`)
			i++
		default:
			next := strings.IndexAny(template[i:], "{*")
			if next < 0 {
				next = len(template) - i
			}
			b.WriteString(regexp.QuoteMeta(template[i : i+next]))
			i += next
		}
	}

	b.WriteString(`\z`)

	pattern, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("route template %q: %w", template, err)
	}
	return pattern, nil
}

// closingBrace returns the index of the brace closing the one at start,
// allowing nested braces inside parameter regexps such as {id:[0-9]{3}}.
func closingBrace(template string, start int) (int, error) {
	depth := 0
	for i := start; i < len(template); i++ {
		switch template[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("route template %q: unclosed '{'", template)
}
