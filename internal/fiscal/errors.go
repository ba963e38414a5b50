package fiscal

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every calculator. All three are raised before any
// box set is built.
var (
	ErrInvalidAmount   = errors.New("fiscal: invalid amount")
	ErrUnsupportedRate = errors.New("fiscal: unsupported rate")
	ErrInvalidPeriod   = errors.New("fiscal: invalid period")
)

// FieldError ties a taxonomy error to the input field that caused it, so the
// calling layer can report a form-field-level message.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s=%s: %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// NewFieldError wraps err with the offending field and its rendered value.
func NewFieldError(field string, value any, err error) *FieldError {
	return &FieldError{Field: field, Value: fmt.Sprint(value), Err: err}
}

// FieldOf returns the field name carried by err, or "" when err carries none.
func FieldOf(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Field
	}
	return ""
}
