package brief

import (
	"fmt"
	"strings"
)

// MalformedOutputError reports that the model answered but no valid payload
// matching the output contract could be recovered from its text.
type MalformedOutputError struct {
	Message string
	Missing []string // required keys absent from the payload, if known
	Cause   error
}

func (e *MalformedOutputError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("malformed model output: %s: missing required keys [%s]", e.Message, strings.Join(e.Missing, ", "))
	}
	if e.Cause != nil {
		return fmt.Sprintf("malformed model output: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed model output: %s", e.Message)
}

func (e *MalformedOutputError) Unwrap() error {
	return e.Cause
}
