package pipeline

// ParameterType identifies the primitive type of a pipeline parameter.
type ParameterType string

const (
	// ParameterTypeString is a string-valued parameter.
	ParameterTypeString ParameterType = "String"
	// ParameterTypeInteger is an integer-valued parameter.
	ParameterTypeInteger ParameterType = "Integer"
	// ParameterTypeFloat is a float-valued parameter.
	ParameterTypeFloat ParameterType = "Float"
	// ParameterTypeBoolean is a boolean-valued parameter.
	ParameterTypeBoolean ParameterType = "Boolean"
)

// Parameter is implemented by all typed pipeline parameters. Parameters
// are declared on the pipeline and referenced from step arguments and
// conditions; the service substitutes execution-time values for the
// Parameters.<name> references.
type Parameter interface {
	Expressible
	RequestEntity

	// ParameterName returns the name used in Parameters.<name> references.
	ParameterName() string
}

func parameterExpr(name string) map[string]any {
	return map[string]any{"Get": "Parameters." + name}
}

// ParameterString is a string-typed pipeline parameter.
type ParameterString struct {
	// Name identifies the parameter within the pipeline.
	Name string

	// Default is the value used when an execution supplies none.
	// It is only rendered when set via WithDefault.
	Default string

	hasDefault bool
}

// NewParameterString creates a string parameter with no default.
func NewParameterString(name string) *ParameterString {
	return &ParameterString{Name: name}
}

// WithDefault sets the default value and returns the parameter.
func (p *ParameterString) WithDefault(v string) *ParameterString {
	p.Default = v
	p.hasDefault = true
	return p
}

// ParameterName implements Parameter.
func (p *ParameterString) ParameterName() string { return p.Name }

// Expr implements Expressible.
func (p *ParameterString) Expr() map[string]any { return parameterExpr(p.Name) }

// ToRequest renders the parameter declaration.
func (p *ParameterString) ToRequest() map[string]any {
	r := map[string]any{"Name": p.Name, "Type": string(ParameterTypeString)}
	if p.hasDefault {
		r["DefaultValue"] = p.Default
	}
	return r
}

// ParameterInteger is an integer-typed pipeline parameter.
type ParameterInteger struct {
	Name    string
	Default int

	hasDefault bool
}

// NewParameterInteger creates an integer parameter with no default.
func NewParameterInteger(name string) *ParameterInteger {
	return &ParameterInteger{Name: name}
}

// WithDefault sets the default value and returns the parameter.
func (p *ParameterInteger) WithDefault(v int) *ParameterInteger {
	p.Default = v
	p.hasDefault = true
	return p
}

// ParameterName implements Parameter.
func (p *ParameterInteger) ParameterName() string { return p.Name }

// Expr implements Expressible.
func (p *ParameterInteger) Expr() map[string]any { return parameterExpr(p.Name) }

// ToRequest renders the parameter declaration.
func (p *ParameterInteger) ToRequest() map[string]any {
	r := map[string]any{"Name": p.Name, "Type": string(ParameterTypeInteger)}
	if p.hasDefault {
		r["DefaultValue"] = p.Default
	}
	return r
}

// ParameterFloat is a float-typed pipeline parameter.
type ParameterFloat struct {
	Name    string
	Default float64

	hasDefault bool
}

// NewParameterFloat creates a float parameter with no default.
func NewParameterFloat(name string) *ParameterFloat {
	return &ParameterFloat{Name: name}
}

// WithDefault sets the default value and returns the parameter.
func (p *ParameterFloat) WithDefault(v float64) *ParameterFloat {
	p.Default = v
	p.hasDefault = true
	return p
}

// ParameterName implements Parameter.
func (p *ParameterFloat) ParameterName() string { return p.Name }

// Expr implements Expressible.
func (p *ParameterFloat) Expr() map[string]any { return parameterExpr(p.Name) }

// ToRequest renders the parameter declaration.
func (p *ParameterFloat) ToRequest() map[string]any {
	r := map[string]any{"Name": p.Name, "Type": string(ParameterTypeFloat)}
	if p.hasDefault {
		r["DefaultValue"] = p.Default
	}
	return r
}

// ParameterBoolean is a boolean-typed pipeline parameter.
type ParameterBoolean struct {
	Name    string
	Default bool

	hasDefault bool
}

// NewParameterBoolean creates a boolean parameter with no default.
func NewParameterBoolean(name string) *ParameterBoolean {
	return &ParameterBoolean{Name: name}
}

// WithDefault sets the default value and returns the parameter.
func (p *ParameterBoolean) WithDefault(v bool) *ParameterBoolean {
	p.Default = v
	p.hasDefault = true
	return p
}

// ParameterName implements Parameter.
func (p *ParameterBoolean) ParameterName() string { return p.Name }

// Expr implements Expressible.
func (p *ParameterBoolean) Expr() map[string]any { return parameterExpr(p.Name) }

// ToRequest renders the parameter declaration.
func (p *ParameterBoolean) ToRequest() map[string]any {
	r := map[string]any{"Name": p.Name, "Type": string(ParameterTypeBoolean)}
	if p.hasDefault {
		r["DefaultValue"] = p.Default
	}
	return r
}
