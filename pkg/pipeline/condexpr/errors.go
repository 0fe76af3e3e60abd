package condexpr

import (
	"fmt"
)

// CompileError describes a condition expression that could not be
// compiled into a condition tree.
type CompileError struct {
	// Expression is the source text being compiled.
	Expression string

	// Message describes what went wrong.
	Message string

	// SuggestText offers a rewrite when one exists.
	SuggestText string

	// Cause is the underlying parser error, if any.
	Cause error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Expression != "" {
		return fmt.Sprintf("cannot compile condition %q: %s", e.Expression, e.Message)
	}
	return fmt.Sprintf("cannot compile condition: %s", e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CompileError) Unwrap() error {
	return e.Cause
}

// IsUserVisible implements pkg/errors.UserVisibleError.
// Compile errors are always caused by the expression text.
func (e *CompileError) IsUserVisible() bool {
	return true
}

// UserMessage implements pkg/errors.UserVisibleError.
func (e *CompileError) UserMessage() string {
	return e.Error()
}

// Suggestion implements pkg/errors.UserVisibleError.
func (e *CompileError) Suggestion() string {
	return e.SuggestText
}

// ErrorType implements pkg/errors.ErrorClassifier.
func (e *CompileError) ErrorType() string {
	return "condexpr"
}

// IsRetryable implements pkg/errors.ErrorClassifier. Compile errors are
// never transient.
func (e *CompileError) IsRetryable() bool {
	return false
}
