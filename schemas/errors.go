package schemas

import "fmt"

// ValidationError reports a manifest's first departure from the schema.
type ValidationError struct {
	// Path locates the failing field in the manifest document
	// (e.g. "$.name", "$.steps[0].type", "$.parameters[1]")
	Path string

	// Keyword is the schema keyword that failed: "type", "required",
	// or "enum"
	Keyword string

	// Message is the human-readable error message, e.g.
	// `value "loop" not in allowed values: ["task","condition"]`
	Message string
}

// NewValidationError creates a new validation error.
func NewValidationError(path, keyword, message string) *ValidationError {
	return &ValidationError{
		Path:    path,
		Keyword: keyword,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("manifest does not match schema at %s (%s): %s", e.Path, e.Keyword, e.Message)
}

// Is matches on location and keyword so tests can compare against a
// prototype without reproducing the message.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return e.Path == t.Path && e.Keyword == t.Keyword
}
