package export

import "fmt"

// Error is returned when an export cannot be written.
type Error struct {
	Path    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	prefix := "export error"
	if e.Path != "" {
		prefix = fmt.Sprintf("export error (%s)", e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
