package gps

import (
	"errors"
	"fmt"
)

var (
	ErrChecksum = errors.New("nmea: checksum mismatch")
	ErrShort    = errors.New("nmea: too few fields")
	ErrField    = errors.New("nmea: invalid field")
)

// FieldError names the field that made a sentence malformed.
type FieldError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("nmea: %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrField }

func fieldErr(field, value, reason string) error {
	return &FieldError{Field: field, Value: value, Reason: reason}
}
