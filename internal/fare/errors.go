package fare

import (
	"errors"
	"fmt"

	"github.com/richxcame/fare-engine/pkg/validation"
)

var (
	// ErrConfigurationMissing is returned when no active pricing configuration is available
	ErrConfigurationMissing = errors.New("pricing configuration missing")
	// ErrInvalidInput is returned when a trip request fails validation
	ErrInvalidInput = errors.New("invalid trip input")
	// ErrInvalidConfiguration is returned when a configuration breaks its invariants
	ErrInvalidConfiguration = errors.New("invalid pricing configuration")
)

// InputError describes which trip field was rejected and why
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidInput, e.Field, e.Reason)
}

// Unwrap makes errors.Is(err, ErrInvalidInput) hold
func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func newInputError(field, reason string) *InputError {
	return &InputError{Field: field, Reason: reason}
}

// inputErrorFrom reduces a validation failure to the first offending field
func inputErrorFrom(err error) error {
	var ve *validation.ValidationError
	if errors.As(err, &ve) && ve.HasErrors() {
		field := ve.Fields()[0]
		return newInputError(field, ve.Errors[field])
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
