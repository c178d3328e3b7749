package schema

import (
	"errors"
	"strings"
)

// FieldError ties a validation failure to the record field that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string { return e.Field + " " + e.Err.Error() }

func (e FieldError) Unwrap() error { return e.Err }

// FieldErrors collects every blocking failure of one save, in the order the
// checks ran.
type FieldErrors []FieldError

// Add records err against field; a nil err is ignored.
func (fe *FieldErrors) Add(field string, err error) {
	if err == nil {
		return
	}
	*fe = append(*fe, FieldError{Field: field, Err: err})
}

// Has reports whether field has at least one failure.
func (fe FieldErrors) Has(field string) bool {
	for _, e := range fe {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Err returns nil when empty so callers can `return errs.Err()`.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, e := range fe {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// Unwrap exposes each field's error to errors.Is and errors.As.
func (fe FieldErrors) Unwrap() []error {
	out := make([]error, len(fe))
	for i, e := range fe {
		out[i] = e
	}
	return out
}

// AsFieldErrors extracts FieldErrors from err, if present.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	ok := errors.As(err, &fe)
	return fe, ok
}
