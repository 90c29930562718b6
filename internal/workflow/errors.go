package workflow

import (
	"errors"
	"fmt"
)

// Workflow errors surfaced to the HTTP layer. The already-sold message is
// part of the API contract and passed through to callers verbatim.
var (
	ErrAlreadySold     = errors.New("This hive has already been sold")
	ErrPurchasePending = errors.New("a purchase for this hive is already in progress")
)

// ValidationError reports a missing required request field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
