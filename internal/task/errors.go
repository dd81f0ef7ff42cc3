package task

import "errors"

// ErrNotFound is returned when no task matches the given id.
var ErrNotFound = errors.New("task not found")

// ValidationError carries a user-facing message for a rejected mutation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
