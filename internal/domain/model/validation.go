package model

import "fmt"

// ValidationReason enumerates why a record failed normalization.
type ValidationReason string

const (
	ReasonMissingName      ValidationReason = "missing_name"
	ReasonInvalidMinLength ValidationReason = "invalid_min_length"
	ReasonMaxBelowMin      ValidationReason = "max_below_min"
)

// ValidationError is returned when a record cannot be accepted into the
// collection. Message is suitable for showing to the user.
type ValidationError struct {
	Reason  ValidationReason
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid service (%s): %s", e.Reason, e.Message)
}
