package extraction

import "fmt"

// Kind classifies extraction failures so callers can pick a recovery path.
type Kind string

const (
	// KindUnavailable means the upstream service could not be reached within
	// the retry budget.
	KindUnavailable Kind = "unavailable"
	// KindUnparseable means the service responded but the response failed
	// schema validation even after the strict reformulation retry.
	KindUnparseable Kind = "unparseable"
	// KindEmptyResponse means a custom-prompt call returned no text.
	KindEmptyResponse Kind = "empty_response"
)

// Error is the failure type surfaced by the extraction client.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf returns the extraction error kind, or "" for other errors.
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return ""
}
