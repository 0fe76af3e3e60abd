// Package pipeline provides the data model for pipeline definitions:
// parameters, execution variables, step properties, functions, condition
// trees, steps, and the definition document itself.
//
// Definitions are built programmatically (or loaded from YAML manifests
// by the manifest package) and rendered into the JSON request structure
// a pipeline service consumes:
//
//	minAUC := pipeline.NewParameterFloat("min_auc").WithDefault(0.82)
//	train := pipeline.NewTaskStep("train", map[string]any{"image": "trainer:v3"})
//
//	passed, _ := pipeline.NewConditionGreaterThanOrEqualTo(
//	    train.Properties().Field("Metrics").Field("AUC"), minAUC)
//	gate, _ := pipeline.NewConditionStep("gate",
//	    []pipeline.Condition{passed},
//	    []pipeline.Step{publish}, []pipeline.Step{alert})
//
//	p := &pipeline.Pipeline{
//	    Name:       "quality-gate",
//	    Parameters: []pipeline.Parameter{minAUC},
//	    Steps:      []pipeline.Step{train, gate},
//	}
//	doc, err := p.Definition()
//
// Rendering never evaluates anything: deferred references stay symbolic
// ({"Get": path} objects) and are resolved by the service at execution
// time.
package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/tombee/baton/pkg/errors"
)

// SchemaVersion is the definition document version this library emits.
const SchemaVersion = "2024-01"

// Pipeline is a complete pipeline definition: declared parameters plus
// the step graph.
type Pipeline struct {
	// Name identifies the pipeline. Required.
	Name string

	// Description is an optional human-readable summary.
	Description string

	// Parameters are the pipeline's declared inputs.
	Parameters []Parameter

	// Steps is the top-level step list, in declaration order.
	Steps []Step

	// Metadata holds optional free-form annotations carried verbatim
	// into the definition document.
	Metadata map[string]string
}

// Validate checks structural invariants: the pipeline is named, parameter
// and step names are unique (step names across all nesting levels), and
// every DependsOn entry resolves to a declared step.
func (p *Pipeline) Validate() error {
	if p.Name == "" {
		return &errors.ValidationError{
			Field:      "name",
			Message:    "pipeline requires a name",
			Suggestion: "Set the Name field to a non-empty identifier",
		}
	}

	seenParams := make(map[string]bool, len(p.Parameters))
	for i, param := range p.Parameters {
		if param == nil {
			return &errors.ValidationError{
				Field:   fmt.Sprintf("parameters[%d]", i),
				Message: "parameter is nil",
			}
		}
		name := param.ParameterName()
		if name == "" {
			return &errors.ValidationError{
				Field:      fmt.Sprintf("parameters[%d]", i),
				Message:    "parameter requires a name",
				Suggestion: "Set the parameter name to a non-empty identifier",
			}
		}
		if seenParams[name] {
			return &errors.ValidationError{
				Field:      fmt.Sprintf("parameters[%d]", i),
				Message:    fmt.Sprintf("duplicate parameter name %q", name),
				Suggestion: "Parameter names must be unique within a pipeline",
			}
		}
		seenParams[name] = true
	}

	seenSteps := make(map[string]bool)
	var dup string
	walkSteps(p.Steps, func(s Step) {
		name := s.StepName()
		if seenSteps[name] && dup == "" {
			dup = name
		}
		seenSteps[name] = true
	})
	if dup != "" {
		return &errors.ValidationError{
			Field:      "steps",
			Message:    fmt.Sprintf("duplicate step name %q", dup),
			Suggestion: "Step names must be unique across the pipeline, including condition branches",
		}
	}
	if seenSteps[""] {
		return &errors.ValidationError{
			Field:      "steps",
			Message:    "step requires a name",
			Suggestion: "Give every step a non-empty name",
		}
	}

	var depErr error
	walkSteps(p.Steps, func(s Step) {
		for _, dep := range s.Dependencies() {
			if !seenSteps[dep] && depErr == nil {
				depErr = &errors.ValidationError{
					Field:      "steps",
					Message:    fmt.Sprintf("step %q depends on unknown step %q", s.StepName(), dep),
					Suggestion: "DependsOn entries must name steps declared in this pipeline",
				}
			}
		}
	})
	return depErr
}

// ToRequest renders the definition document. The document shape is:
//
//	{
//	  "Version": "2024-01",
//	  "Metadata": {"PipelineName": ..., "Description": ..., ...},
//	  "Parameters": [...],
//	  "Steps": [...]
//	}
//
// Rendering is pure; declaration order is preserved in all lists.
func (p *Pipeline) ToRequest() map[string]any {
	meta := map[string]any{
		"PipelineName": p.Name,
	}
	if p.Description != "" {
		meta["Description"] = p.Description
	}
	for k, v := range p.Metadata {
		meta[k] = v
	}

	params := make([]any, len(p.Parameters))
	for i, param := range p.Parameters {
		params[i] = param.ToRequest()
	}

	return map[string]any{
		"Version":    SchemaVersion,
		"Metadata":   meta,
		"Parameters": params,
		"Steps":      renderSteps(p.Steps),
	}
}

// Definition validates the pipeline and returns its request document as
// indented JSON. The serialization is deterministic: keys are sorted by
// the JSON encoder and list order follows declaration order.
func (p *Pipeline) Definition() (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(p.ToRequest(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling definition: %w", err)
	}
	return string(data), nil
}
