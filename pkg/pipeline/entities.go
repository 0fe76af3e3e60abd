package pipeline

// Expressible is implemented by definition elements whose concrete value
// only exists once the service runs the pipeline: parameters, execution
// variables, step properties, and pipeline functions. Expr returns the
// reference object the service resolves at execution time, typically
// {"Get": "<path>"}.
type Expressible interface {
	Expr() map[string]any
}

// RequestEntity is implemented by definition elements that render
// themselves into the request structures submitted to the service.
// Rendering is pure: it never mutates the element and returns a fresh
// structure on every call.
type RequestEntity interface {
	ToRequest() map[string]any
}

// resolveValue renders a single operand. Deferred references render as
// their expression object; everything else passes through untouched.
func resolveValue(v any) any {
	if e, ok := v.(Expressible); ok {
		return e.Expr()
	}
	return v
}

// resolveValues renders a list of operands, preserving order.
// A nil slice renders as an empty list.
func resolveValues(vs []any) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = resolveValue(v)
	}
	return out
}
