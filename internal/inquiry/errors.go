package inquiry

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSubmitInProgress is returned when Submit is called while a previous
// submission has not resolved yet.
var ErrSubmitInProgress = errors.New("inquiry: submission already in progress")

// ValidationError reports a draft that failed validation. It is recovered
// locally and never reaches the relay.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		fields = append(fields, v.Field)
	}
	return fmt.Sprintf("inquiry: invalid fields: %s", strings.Join(fields, ", "))
}

// TransportError reports a relay call that did not succeed, either because the
// request failed or because the relay answered with a non-2xx status.
type TransportError struct {
	StatusCode int
	Cause      error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("inquiry: relay transport: %v", e.Cause)
	}
	return fmt.Sprintf("inquiry: relay responded with status %d", e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// IsValidationError unwraps err into a *ValidationError.
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// IsTransportError unwraps err into a *TransportError.
func IsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
