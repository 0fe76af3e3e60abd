// Package manifest loads pipeline definitions from YAML manifests.
//
// A manifest mirrors the programmatic pipeline API: declared parameters,
// a step graph, and condition expressions compiled through condexpr. The
// result is a *pipeline.Pipeline ready for validation and rendering:
//
//	name: quality-gate
//	parameters:
//	  - name: min_auc
//	    type: Float
//	    default: 0.82
//	steps:
//	  - name: train
//	    type: task
//	    arguments: {image: trainer:v3}
//	  - name: gate
//	    type: condition
//	    when: 'train.Metrics.AUC >= min_auc'
//	    depends_on: [train]
//	    if_steps:
//	      - name: publish
//	        type: task
//	        arguments: {channel: releases}
//
// Condition expressions resolve identifiers against declared parameters,
// the execution namespace (execution.PipelineName, execution.RunId, ...),
// and the property roots of steps declared earlier in the manifest.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tombee/baton/pkg/errors"
	"github.com/tombee/baton/pkg/pipeline"
	"github.com/tombee/baton/pkg/pipeline/condexpr"
)

// Manifest is the YAML representation of a pipeline definition.
type Manifest struct {
	// Name is the pipeline identifier
	Name string `yaml:"name" json:"name"`

	// Description provides human-readable context about the pipeline
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Metadata holds free-form annotations carried into the definition document
	Metadata map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`

	// Parameters declare the pipeline's inputs
	Parameters []ParameterDefinition `yaml:"parameters,omitempty" json:"parameters,omitempty"`

	// Steps are the pipeline's top-level steps, in declaration order
	Steps []StepDefinition `yaml:"steps" json:"steps"`
}

// ParameterDefinition declares a typed pipeline parameter.
type ParameterDefinition struct {
	// Name is the parameter identifier
	Name string `yaml:"name" json:"name"`

	// Type is one of String, Integer, Float, Boolean
	Type string `yaml:"type" json:"type"`

	// Default provides a fallback value if the execution supplies none.
	// Parameters without a default are required.
	Default interface{} `yaml:"default,omitempty" json:"default,omitempty"`

	// hasDefault distinguishes an explicit null default from an absent one
	hasDefault bool
}

// UnmarshalYAML records whether a default was present in the source, so
// an explicit `default: false` is not lost.
func (p *ParameterDefinition) UnmarshalYAML(value *yaml.Node) error {
	type raw ParameterDefinition
	var r raw
	if err := value.Decode(&r); err != nil {
		return err
	}
	*p = ParameterDefinition(r)

	for i := 0; i+1 < len(value.Content); i += 2 {
		if value.Content[i].Value == "default" {
			p.hasDefault = true
			break
		}
	}
	return nil
}

// StepDefinition declares a single step. Task steps carry arguments;
// condition steps carry expressions and nested branches.
type StepDefinition struct {
	// Name is the step identifier, unique across the pipeline
	Name string `yaml:"name" json:"name"`

	// Type is "task" or "condition"
	Type string `yaml:"type" json:"type"`

	// Arguments is the freeform payload for task steps
	Arguments map[string]interface{} `yaml:"arguments,omitempty" json:"arguments,omitempty"`

	// When is a single condition expression (condition steps)
	When string `yaml:"when,omitempty" json:"when,omitempty"`

	// Conditions are additional condition expressions; every entry must
	// hold for the if branch to run
	Conditions []string `yaml:"conditions,omitempty" json:"conditions,omitempty"`

	// IfSteps run when every condition holds
	IfSteps []StepDefinition `yaml:"if_steps,omitempty" json:"if_steps,omitempty"`

	// ElseSteps run otherwise
	ElseSteps []StepDefinition `yaml:"else_steps,omitempty" json:"else_steps,omitempty"`

	// DependsOn lists steps that must complete before this one starts
	DependsOn []string `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
}

// Load reads the manifest at path and builds the pipeline it declares.
func Load(path string) (*pipeline.Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	p, err := Parse(data)
	if err != nil {
		var parseErr *errors.ParseError
		if errors.As(err, &parseErr) && parseErr.File == "" {
			parseErr.File = path
		}
		return nil, err
	}
	return p, nil
}

// Parse builds a pipeline from manifest YAML. The returned pipeline has
// passed structural validation (pipeline.Validate).
func Parse(data []byte) (*pipeline.Pipeline, error) {
	m, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	return m.Build()
}

// ParseManifest unmarshals manifest YAML without building the pipeline.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &errors.ParseError{
			Message: "manifest is not valid YAML",
			Cause:   err,
		}
	}
	return &m, nil
}

// Build compiles the manifest into a pipeline: typed parameters, the
// step graph, and condition expressions resolved against the manifest's
// scope. The result is validated before being returned.
func (m *Manifest) Build() (*pipeline.Pipeline, error) {
	if m.Name == "" {
		return nil, &errors.ValidationError{
			Field:      "name",
			Message:    "manifest requires a name",
			Suggestion: "Add a top-level name field",
		}
	}
	if len(m.Steps) == 0 {
		return nil, &errors.ValidationError{
			Field:      "steps",
			Message:    "manifest requires at least one step",
			Suggestion: "Add a steps list with at least one task or condition step",
		}
	}

	scope := baseScope()

	params := make([]pipeline.Parameter, 0, len(m.Parameters))
	for i, pd := range m.Parameters {
		param, err := buildParameter(pd, i)
		if err != nil {
			return nil, err
		}
		params = append(params, param)
		scope[pd.Name] = param
	}

	steps, err := buildSteps(m.Steps, "steps", scope)
	if err != nil {
		return nil, err
	}

	p := &pipeline.Pipeline{
		Name:        m.Name,
		Description: m.Description,
		Parameters:  params,
		Steps:       steps,
		Metadata:    m.Metadata,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// baseScope returns the names every condition expression can reference:
// the execution namespace with the standard execution variables.
func baseScope() condexpr.Scope {
	return condexpr.Scope{
		"execution": map[string]any{
			"StartDateTime":   pipeline.ExecutionStartDateTime,
			"CurrentDateTime": pipeline.ExecutionCurrentDateTime,
			"PipelineName":    pipeline.ExecutionPipelineName,
			"PipelineVersion": pipeline.ExecutionPipelineVersion,
			"RunId":           pipeline.ExecutionRunID,
		},
	}
}

func buildParameter(pd ParameterDefinition, index int) (pipeline.Parameter, error) {
	field := fmt.Sprintf("parameters[%d]", index)
	if pd.Name == "" {
		return nil, &errors.ValidationError{
			Field:      field + ".name",
			Message:    "parameter requires a name",
			Suggestion: "Add a name field to the parameter",
		}
	}

	defField := field + ".default"
	switch pipeline.ParameterType(pd.Type) {
	case pipeline.ParameterTypeString:
		p := pipeline.NewParameterString(pd.Name)
		if pd.hasDefault {
			s, ok := pd.Default.(string)
			if !ok {
				return nil, typeMismatch(defField, pd.Name, "a string", pd.Default)
			}
			p.WithDefault(s)
		}
		return p, nil

	case pipeline.ParameterTypeInteger:
		p := pipeline.NewParameterInteger(pd.Name)
		if pd.hasDefault {
			n, ok := pd.Default.(int)
			if !ok {
				return nil, typeMismatch(defField, pd.Name, "an integer", pd.Default)
			}
			p.WithDefault(n)
		}
		return p, nil

	case pipeline.ParameterTypeFloat:
		p := pipeline.NewParameterFloat(pd.Name)
		if pd.hasDefault {
			// YAML decodes whole-number defaults as int
			switch n := pd.Default.(type) {
			case float64:
				p.WithDefault(n)
			case int:
				p.WithDefault(float64(n))
			default:
				return nil, typeMismatch(defField, pd.Name, "a number", pd.Default)
			}
		}
		return p, nil

	case pipeline.ParameterTypeBoolean:
		p := pipeline.NewParameterBoolean(pd.Name)
		if pd.hasDefault {
			b, ok := pd.Default.(bool)
			if !ok {
				return nil, typeMismatch(defField, pd.Name, "a boolean", pd.Default)
			}
			p.WithDefault(b)
		}
		return p, nil

	default:
		return nil, &errors.ValidationError{
			Field:      field + ".type",
			Message:    fmt.Sprintf("unknown parameter type %q", pd.Type),
			Suggestion: "Use one of String, Integer, Float, Boolean",
		}
	}
}

func typeMismatch(field, name, want string, got interface{}) error {
	return &errors.ValidationError{
		Field:      field,
		Message:    fmt.Sprintf("default for %s must be %s, got %T", name, want, got),
		Suggestion: "Match the default value to the parameter's declared type",
	}
}

// buildSteps builds a step list, adding each step's property root to the
// scope so later expressions can reference it.
func buildSteps(defs []StepDefinition, path string, scope condexpr.Scope) ([]pipeline.Step, error) {
	steps := make([]pipeline.Step, 0, len(defs))
	for i, sd := range defs {
		field := fmt.Sprintf("%s[%d]", path, i)
		step, err := buildStep(sd, field, scope)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func buildStep(sd StepDefinition, field string, scope condexpr.Scope) (pipeline.Step, error) {
	if sd.Name == "" {
		return nil, &errors.ValidationError{
			Field:      field + ".name",
			Message:    "step requires a name",
			Suggestion: "Add a name field to the step",
		}
	}

	switch sd.Type {
	case "task":
		if sd.When != "" || len(sd.Conditions) > 0 {
			return nil, &errors.ValidationError{
				Field:      field + ".when",
				Message:    fmt.Sprintf("task step %q cannot carry conditions", sd.Name),
				Suggestion: "Use type: condition for steps with when or conditions",
			}
		}
		step := pipeline.NewTaskStep(sd.Name, sd.Arguments)
		step.DependsOn = sd.DependsOn
		scope[sd.Name] = step.Properties()
		return step, nil

	case "condition":
		exprs := make([]string, 0, len(sd.Conditions)+1)
		if sd.When != "" {
			exprs = append(exprs, sd.When)
		}
		exprs = append(exprs, sd.Conditions...)
		if len(exprs) == 0 {
			return nil, &errors.ValidationError{
				Field:      field + ".when",
				Message:    fmt.Sprintf("condition step %q requires a when expression or a conditions list", sd.Name),
				Suggestion: "Add when: '<expression>' or a conditions: list",
			}
		}

		conds := make([]pipeline.Condition, 0, len(exprs))
		for i, src := range exprs {
			cond, err := condexpr.Compile(src, scope)
			if err != nil {
				exprField := field + ".when"
				if sd.When == "" || i > 0 {
					exprField = fmt.Sprintf("%s.conditions[%d]", field, i)
					if sd.When != "" {
						exprField = fmt.Sprintf("%s.conditions[%d]", field, i-1)
					}
				}
				return nil, fmt.Errorf("%s: %w", exprField, err)
			}
			conds = append(conds, cond)
		}

		// The step itself enters the scope before its branches so nested
		// expressions can reference the branching step's outputs.
		scope[sd.Name] = pipeline.NewProperties(sd.Name)

		ifSteps, err := buildSteps(sd.IfSteps, field+".if_steps", scope)
		if err != nil {
			return nil, err
		}
		elseSteps, err := buildSteps(sd.ElseSteps, field+".else_steps", scope)
		if err != nil {
			return nil, err
		}

		step, err := pipeline.NewConditionStep(sd.Name, conds, ifSteps, elseSteps)
		if err != nil {
			return nil, err
		}
		step.DependsOn = sd.DependsOn
		return step, nil

	case "":
		return nil, &errors.ValidationError{
			Field:      field + ".type",
			Message:    fmt.Sprintf("step %q requires a type", sd.Name),
			Suggestion: "Set type to task or condition",
		}

	default:
		return nil, &errors.ValidationError{
			Field:      field + ".type",
			Message:    fmt.Sprintf("unknown step type %q", sd.Type),
			Suggestion: "Use task or condition",
		}
	}
}
