package pipeline

// ExecutionVariable is a value the service injects when a pipeline
// execution starts. Variables are referenced by name under the Execution
// namespace and resolved per execution.
type ExecutionVariable struct {
	name string
}

// Standard execution variables available to every pipeline.
var (
	// ExecutionStartDateTime is the timestamp the execution started.
	ExecutionStartDateTime = ExecutionVariable{name: "StartDateTime"}

	// ExecutionCurrentDateTime is the timestamp at the point the
	// reference is resolved.
	ExecutionCurrentDateTime = ExecutionVariable{name: "CurrentDateTime"}

	// ExecutionPipelineName is the name of the executing pipeline.
	ExecutionPipelineName = ExecutionVariable{name: "PipelineName"}

	// ExecutionPipelineVersion is the version of the pipeline definition
	// being executed.
	ExecutionPipelineVersion = ExecutionVariable{name: "PipelineVersion"}

	// ExecutionRunID uniquely identifies the execution.
	ExecutionRunID = ExecutionVariable{name: "RunId"}
)

// Name returns the variable's name within the Execution namespace.
func (v ExecutionVariable) Name() string {
	return v.name
}

// Expr implements Expressible.
func (v ExecutionVariable) Expr() map[string]any {
	return map[string]any{"Get": "Execution." + v.name}
}
