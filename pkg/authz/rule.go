package authz

import "reflect"

// Rule decides whether the current action is permitted for the request context c.
// The result is interpreted with Truthy.
type Rule[C any] interface {
	Evaluate(c C) any
}

// RuleFunc adapts a boolean predicate to a Rule.
type RuleFunc[C any] func(c C) bool

// Evaluate calls f(c).
func (f RuleFunc[C]) Evaluate(c C) any {
	return f(c)
}

// ValueFunc adapts a function returning an arbitrary value to a Rule.
// Any truthy value permits the action.
type ValueFunc[C any] func(c C) any

// Evaluate calls f(c).
func (f ValueFunc[C]) Evaluate(c C) any {
	return f(c)
}

// Allow returns a rule that permits every request.
func Allow[C any]() Rule[C] {
	return RuleFunc[C](func(C) bool { return true })
}

// Deny returns a rule that forbids every request.
func Deny[C any]() Rule[C] {
	return RuleFunc[C](func(C) bool { return false })
}

// Truthy reports whether a rule result permits an action.
// false and nil values (including typed nil pointers, maps, slices, funcs,
// channels and interfaces) are falsy; everything else is truthy.
func Truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}
