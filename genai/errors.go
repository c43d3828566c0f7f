package genai

import (
	"errors"
	"fmt"
)

// ErrNoOutput signals that the generation service returned an empty or
// unusable response.
var ErrNoOutput = errors.New("generation service returned no usable output")

// GenerationError marks a flow that failed after input validation. No state
// was mutated; the user may retry manually.
type GenerationError struct {
	Flow string
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("flow %s: %v", e.Flow, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func generationFailed(flow string, err error) error {
	return &GenerationError{Flow: flow, Err: err}
}

// ValidationError rejects flow input before any model call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a flow input validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
