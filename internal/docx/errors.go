package docx

import "fmt"

// StructuralError reports malformed or unexpected package internals. It is
// never retried.
type StructuralError struct {
	Part   string
	Reason string
	Cause  error
}

func (e *StructuralError) Error() string {
	msg := "structural error"
	if e.Part != "" {
		msg += " in " + e.Part
	}
	msg += ": " + e.Reason
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *StructuralError) Unwrap() error {
	return e.Cause
}
