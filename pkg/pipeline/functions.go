package pipeline

// Join concatenates values with a separator at execution time. Values may
// mix literals and deferred references; deferred values render as their
// expression objects and are resolved by the service before joining.
type Join struct {
	// On is the separator placed between values.
	On string

	// Values are the parts to concatenate, in order.
	Values []any
}

// NewJoin creates a join over the given values. A nil value list
// collapses to empty.
func NewJoin(on string, values ...any) *Join {
	if values == nil {
		values = []any{}
	}
	return &Join{On: on, Values: values}
}

// Expr implements Expressible.
func (j *Join) Expr() map[string]any {
	return map[string]any{
		"Std:Join": map[string]any{
			"On":     j.On,
			"Values": resolveValues(j.Values),
		},
	}
}
