package exam

import (
	"errors"
	"fmt"
)

// ErrNotFound marks an owner-scoped record that does not exist. Handlers
// map it to 404. Missing records are never retried.
var ErrNotFound = errors.New("record not found")

// ValidationError reports rejected caller input. Handlers map it to 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
