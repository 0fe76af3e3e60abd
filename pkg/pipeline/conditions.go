// Package pipeline provides the data model for pipeline definitions.
//
// Condition trees express branching logic. A tree is built from typed
// constructors and rendered into the nested request structure the service
// evaluates during an execution.
package pipeline

import (
	"github.com/tombee/baton/pkg/errors"
)

// ConditionType identifies the comparison or combinator a condition node
// performs. The set is closed: the only way to obtain a typed condition
// is through the constructors in this package.
type ConditionType string

const (
	// ConditionTypeEquals checks left == right.
	ConditionTypeEquals ConditionType = "Equals"
	// ConditionTypeGreaterThan checks left > right.
	ConditionTypeGreaterThan ConditionType = "GreaterThan"
	// ConditionTypeGreaterThanOrEqualTo checks left >= right.
	ConditionTypeGreaterThanOrEqualTo ConditionType = "GreaterThanOrEqualTo"
	// ConditionTypeIn checks membership of a value in a candidate list.
	ConditionTypeIn ConditionType = "In"
	// ConditionTypeLessThan checks left < right.
	ConditionTypeLessThan ConditionType = "LessThan"
	// ConditionTypeLessThanOrEqualTo checks left <= right.
	ConditionTypeLessThanOrEqualTo ConditionType = "LessThanOrEqualTo"
	// ConditionTypeNot negates a nested condition.
	ConditionTypeNot ConditionType = "Not"
	// ConditionTypeOr is the disjunction of nested conditions.
	ConditionTypeOr ConditionType = "Or"
)

// Condition is a node in a condition expression tree. The variant set is
// sealed to this package; rendering via ToRequest is pure and idempotent.
type Condition interface {
	RequestEntity

	conditionNode()
}

// ConditionComparison relates a deferred left operand to a right operand
// using one of the five comparison types. Use the per-type constructors;
// the comparison type is fixed at construction and never exposed as a
// parameter.
type ConditionComparison struct {
	condType ConditionType

	// Left is the deferred operand the service resolves at execution time.
	Left Expressible

	// Right is the operand compared against. It may be a literal or
	// another deferred reference.
	Right any
}

func (c *ConditionComparison) conditionNode() {}

// Type returns the comparison type fixed by the constructor.
func (c *ConditionComparison) Type() ConditionType {
	return c.condType
}

// ToRequest renders the comparison into its request structure.
func (c *ConditionComparison) ToRequest() map[string]any {
	return map[string]any{
		"Type":       string(c.condType),
		"LeftValue":  c.Left.Expr(),
		"RightValue": resolveValue(c.Right),
	}
}

// NewConditionEquals creates an equality comparison.
func NewConditionEquals(left Expressible, right any) (*ConditionComparison, error) {
	return newComparison(ConditionTypeEquals, left, right)
}

// NewConditionGreaterThan creates a strictly-greater comparison.
func NewConditionGreaterThan(left Expressible, right any) (*ConditionComparison, error) {
	return newComparison(ConditionTypeGreaterThan, left, right)
}

// NewConditionGreaterThanOrEqualTo creates a greater-or-equal comparison.
func NewConditionGreaterThanOrEqualTo(left Expressible, right any) (*ConditionComparison, error) {
	return newComparison(ConditionTypeGreaterThanOrEqualTo, left, right)
}

// NewConditionLessThan creates a strictly-less comparison.
func NewConditionLessThan(left Expressible, right any) (*ConditionComparison, error) {
	return newComparison(ConditionTypeLessThan, left, right)
}

// NewConditionLessThanOrEqualTo creates a less-or-equal comparison.
func NewConditionLessThanOrEqualTo(left Expressible, right any) (*ConditionComparison, error) {
	return newComparison(ConditionTypeLessThanOrEqualTo, left, right)
}

func newComparison(ct ConditionType, left Expressible, right any) (*ConditionComparison, error) {
	if left == nil {
		return nil, &errors.ValidationError{
			Field:      "left",
			Message:    "comparison requires a left operand",
			Suggestion: "Pass a parameter, execution variable, step property, or function as the left operand",
		}
	}
	if right == nil {
		return nil, &errors.ValidationError{
			Field:      "right",
			Message:    "comparison requires a right operand",
			Suggestion: "Pass a literal or a deferred reference as the right operand",
		}
	}
	return &ConditionComparison{condType: ct, Left: left, Right: right}, nil
}

// ConditionIn checks whether a deferred value is a member of a candidate
// list. Candidates may mix literals and deferred references; their order
// is preserved in the rendered request.
type ConditionIn struct {
	// Value is the deferred operand tested for membership.
	Value Expressible

	// Values are the membership candidates.
	Values []any
}

// NewConditionIn creates a membership condition. A nil candidate slice
// collapses to an empty list; absent and empty candidates are
// indistinguishable from construction onward.
func NewConditionIn(value Expressible, values []any) (*ConditionIn, error) {
	if value == nil {
		return nil, &errors.ValidationError{
			Field:      "value",
			Message:    "membership condition requires a query value",
			Suggestion: "Pass a parameter, execution variable, step property, or function as the query value",
		}
	}
	if values == nil {
		values = []any{}
	}
	return &ConditionIn{Value: value, Values: values}, nil
}

func (c *ConditionIn) conditionNode() {}

// ToRequest renders the membership check into its request structure.
func (c *ConditionIn) ToRequest() map[string]any {
	return map[string]any{
		"Type":       string(ConditionTypeIn),
		"QueryValue": c.Value.Expr(),
		"Values":     resolveValues(c.Values),
	}
}

// ConditionNot negates a nested condition.
type ConditionNot struct {
	// Expression is the condition being negated.
	Expression Condition
}

// NewConditionNot creates a negation of the given condition.
func NewConditionNot(expression Condition) (*ConditionNot, error) {
	if expression == nil {
		return nil, &errors.ValidationError{
			Field:      "expression",
			Message:    "negation requires an inner condition",
			Suggestion: "Pass the condition to negate",
		}
	}
	return &ConditionNot{Expression: expression}, nil
}

func (c *ConditionNot) conditionNode() {}

// ToRequest renders the negation into its request structure.
func (c *ConditionNot) ToRequest() map[string]any {
	return map[string]any{
		"Type":       string(ConditionTypeNot),
		"Expression": c.Expression.ToRequest(),
	}
}

// ConditionOr is the ordered disjunction of nested conditions. Zero terms
// is legal and renders an empty Conditions list.
type ConditionOr struct {
	// Conditions are the disjunction terms, in evaluation order.
	Conditions []Condition
}

// NewConditionOr creates a disjunction of the given conditions.
func NewConditionOr(conditions ...Condition) *ConditionOr {
	if conditions == nil {
		conditions = []Condition{}
	}
	return &ConditionOr{Conditions: conditions}
}

func (c *ConditionOr) conditionNode() {}

// ToRequest renders the disjunction into its request structure. An empty
// disjunction renders "Conditions": [], never null.
func (c *ConditionOr) ToRequest() map[string]any {
	terms := make([]any, len(c.Conditions))
	for i, cond := range c.Conditions {
		terms[i] = cond.ToRequest()
	}
	return map[string]any{
		"Type":       string(ConditionTypeOr),
		"Conditions": terms,
	}
}
