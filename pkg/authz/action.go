package authz

import "fmt"

// ActionID names one logical request-handling action, such as a route name.
type ActionID string

// String returns the identifier as a plain string.
func (id ActionID) String() string {
	return string(id)
}

// NewActionID coerces a host framework's notion of an action name into an ActionID.
func NewActionID(v any) ActionID {
	switch name := v.(type) {
	case ActionID:
		return name
	case string:
		return ActionID(name)
	case []byte:
		return ActionID(name)
	case fmt.Stringer:
		return ActionID(name.String())
	case nil:
		return ""
	default:
		return ActionID(fmt.Sprint(name))
	}
}
