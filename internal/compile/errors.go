package compile

import "fmt"

// ToolError reports a compiler failure. Diagnostics holds the raw tool log,
// kept separate from Message so a UI can show a one-line status with an
// expandable detail view.
type ToolError struct {
	Message     string
	Diagnostics string
	Cause       error
}

func (e *ToolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("compile: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("compile: %s", e.Message)
}

func (e *ToolError) Unwrap() error {
	return e.Cause
}
