package pipeline

import (
	"fmt"
)

// Properties is a reference into a step's runtime output namespace.
// References are immutable: Field and Index return new values rooted at
// the extended path, so a reference can be held and extended freely.
//
// Obtain a root from a step:
//
//	train := pipeline.NewTaskStep("train", args)
//	auc := train.Properties().Field("Metrics").Field("AUC")
type Properties struct {
	path string
}

// NewProperties returns the property root for the named step,
// Steps.<stepName>.
func NewProperties(stepName string) *Properties {
	return &Properties{path: "Steps." + stepName}
}

// Field returns the reference for a named field beneath p.
func (p *Properties) Field(name string) *Properties {
	return &Properties{path: p.path + "." + name}
}

// Index returns the reference for a list element beneath p.
func (p *Properties) Index(i int) *Properties {
	return &Properties{path: fmt.Sprintf("%s[%d]", p.path, i)}
}

// Path returns the full reference path, e.g. "Steps.train.Metrics.AUC".
func (p *Properties) Path() string {
	return p.path
}

// Expr implements Expressible.
func (p *Properties) Expr() map[string]any {
	return map[string]any{"Get": p.path}
}
