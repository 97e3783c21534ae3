package assemble

import (
	"fmt"

	"supplydesk/internal"
)

// ValidationError rejects a render request before any document work starts.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid render request: %s %s", e.Field, e.Reason)
}

// ConversionError reports a failed format conversion. Document still holds
// the assembled native document so callers can deliver it instead.
type ConversionError struct {
	Target   string
	Document internal.RenderedDocument
	Cause    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert to %s: %v", e.Target, e.Cause)
}

func (e *ConversionError) Unwrap() error {
	return e.Cause
}
