package pipeline

import (
	"github.com/tombee/baton/pkg/errors"
)

// StepType identifies how the service interprets a step's arguments.
type StepType string

const (
	// StepTypeTask is a unit of work executed by the service.
	StepTypeTask StepType = "Task"
	// StepTypeCondition evaluates conditions and branches.
	StepTypeCondition StepType = "Condition"
)

// Step is a single node in a pipeline's step graph.
type Step interface {
	RequestEntity

	// StepName returns the step's unique name within the pipeline.
	StepName() string

	// Type returns the step's service type.
	Type() StepType

	// Dependencies returns the names of steps this step depends on.
	Dependencies() []string
}

// renderSteps renders a step list in order. A nil slice renders as an
// empty list.
func renderSteps(steps []Step) []any {
	out := make([]any, len(steps))
	for i, s := range steps {
		out[i] = s.ToRequest()
	}
	return out
}

// TaskStep is a generic unit of work. The service interprets Arguments;
// this library only carries them.
type TaskStep struct {
	// Name identifies the step within the pipeline.
	Name string

	// Arguments is the freeform payload passed to the service. Values may
	// include deferred references, which render as expression objects.
	Arguments map[string]any

	// DependsOn lists steps that must complete before this one starts.
	DependsOn []string
}

// NewTaskStep creates a task step with the given arguments.
func NewTaskStep(name string, arguments map[string]any) *TaskStep {
	return &TaskStep{Name: name, Arguments: arguments}
}

// StepName implements Step.
func (s *TaskStep) StepName() string { return s.Name }

// Type implements Step.
func (s *TaskStep) Type() StepType { return StepTypeTask }

// Dependencies implements Step.
func (s *TaskStep) Dependencies() []string { return s.DependsOn }

// Properties returns the step's runtime output reference root.
func (s *TaskStep) Properties() *Properties {
	return NewProperties(s.Name)
}

// ToRequest renders the step declaration. Deferred references inside
// Arguments render as their expression objects; other values pass through.
func (s *TaskStep) ToRequest() map[string]any {
	args := make(map[string]any, len(s.Arguments))
	for k, v := range s.Arguments {
		args[k] = resolveValue(v)
	}

	r := map[string]any{
		"Name":      s.Name,
		"Type":      string(StepTypeTask),
		"Arguments": args,
	}
	if len(s.DependsOn) > 0 {
		r["DependsOn"] = append([]string(nil), s.DependsOn...)
	}
	return r
}

// ConditionStep evaluates its conditions and routes the execution into
// the if or else branch. All conditions must hold for the if branch to
// run; combine with ConditionOr for any-of semantics.
type ConditionStep struct {
	// Name identifies the step within the pipeline.
	Name string

	// Conditions are evaluated together; order is preserved.
	Conditions []Condition

	// IfSteps run when every condition holds.
	IfSteps []Step

	// ElseSteps run otherwise.
	ElseSteps []Step

	// DependsOn lists steps that must complete before this one starts.
	DependsOn []string
}

// NewConditionStep creates a condition step. At least one condition is
// required; nil branch slices collapse to empty.
func NewConditionStep(name string, conditions []Condition, ifSteps, elseSteps []Step) (*ConditionStep, error) {
	if name == "" {
		return nil, &errors.ValidationError{
			Field:      "name",
			Message:    "condition step requires a name",
			Suggestion: "Give the step a unique name within the pipeline",
		}
	}
	if len(conditions) == 0 {
		return nil, &errors.ValidationError{
			Field:      "conditions",
			Message:    "condition step requires at least one condition",
			Suggestion: "Add a condition, e.g. NewConditionEquals(param, value)",
		}
	}
	if ifSteps == nil {
		ifSteps = []Step{}
	}
	if elseSteps == nil {
		elseSteps = []Step{}
	}
	return &ConditionStep{
		Name:       name,
		Conditions: conditions,
		IfSteps:    ifSteps,
		ElseSteps:  elseSteps,
	}, nil
}

// StepName implements Step.
func (s *ConditionStep) StepName() string { return s.Name }

// Type implements Step.
func (s *ConditionStep) Type() StepType { return StepTypeCondition }

// Dependencies implements Step.
func (s *ConditionStep) Dependencies() []string { return s.DependsOn }

// Properties returns the step's runtime output reference root. A
// condition step exposes its outcome under Steps.<name>.Outcome.
func (s *ConditionStep) Properties() *Properties {
	return NewProperties(s.Name)
}

// ToRequest renders the step declaration with its conditions and both
// branches, preserving order everywhere.
func (s *ConditionStep) ToRequest() map[string]any {
	conds := make([]any, len(s.Conditions))
	for i, c := range s.Conditions {
		conds[i] = c.ToRequest()
	}

	r := map[string]any{
		"Name": s.Name,
		"Type": string(StepTypeCondition),
		"Arguments": map[string]any{
			"Conditions": conds,
			"IfSteps":    renderSteps(s.IfSteps),
			"ElseSteps":  renderSteps(s.ElseSteps),
		},
	}
	if len(s.DependsOn) > 0 {
		r["DependsOn"] = append([]string(nil), s.DependsOn...)
	}
	return r
}

// walkSteps visits every step in the list in declaration order,
// descending into condition branches (if steps before else steps).
func walkSteps(steps []Step, visit func(Step)) {
	for _, s := range steps {
		visit(s)
		if cs, ok := s.(*ConditionStep); ok {
			walkSteps(cs.IfSteps, visit)
			walkSteps(cs.ElseSteps, visit)
		}
	}
}
