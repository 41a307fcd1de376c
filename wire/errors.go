package wire

import (
	"errors"
	"fmt"
	"strings"
)

// Decode errors. Every decode failure matches exactly one of these with
// errors.Is; there is no partial result alongside any of them.
var (
	ErrUnexpectedEOF    = errors.New("unexpected end of input")
	ErrInvalidVarint    = errors.New("invalid varint")
	ErrWireTypeMismatch = errors.New("wire type mismatch")
	ErrRecursionLimit   = errors.New("recursion limit exceeded")
	ErrInvalidUTF8      = errors.New("invalid UTF-8 in string field")
	ErrFieldConversion  = errors.New("field conversion failed")
)

// ConversionError reports a failed conversion from a decoded value into its
// domain type: an out-of-range narrow integer, an unknown enum number, a
// failed validator or a custom shadow rejecting its input.
type ConversionError struct {
	Target string // domain type or field being built
	Cause  error
}

// Error implements the error interface.
func (e *ConversionError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%v: %v", ErrFieldConversion, e.Cause)
	}
	return fmt.Sprintf("%v: %s: %v", ErrFieldConversion, e.Target, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ConversionError) Unwrap() error {
	return e.Cause
}

// Is makes every ConversionError match ErrFieldConversion.
func (e *ConversionError) Is(target error) bool {
	return target == ErrFieldConversion
}

// NewConversionError wraps cause as a FieldConversionFailed error
func NewConversionError(target string, cause error) error {
	if cause == nil {
		return nil
	}
	var ce *ConversionError
	if errors.As(cause, &ce) && ce.Target == target {
		return cause
	}
	return &ConversionError{Target: target, Cause: cause}
}

// MismatchError builds a wire type mismatch error for a known field
func MismatchError(want, got WireType) error {
	return fmt.Errorf("%w: expected %s, got %s", ErrWireTypeMismatch, want, got)
}

// FieldError represents an encoding/decoding error with a field path.
type FieldError struct {
	FieldPath []string // e.g., ["order", "items", "price"]
	Err       error    // underlying error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if len(e.FieldPath) == 0 {
		return e.Err.Error()
	}

	return fmt.Sprintf("error at proto path %s: %v", strings.Join(e.FieldPath, "."), e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// WrapField prefixes err's field path with fieldName
func WrapField(err error, fieldName string) error {
	if err == nil {
		return nil
	}

	if fe, ok := err.(*FieldError); ok {
		return &FieldError{
			FieldPath: append([]string{fieldName}, fe.FieldPath...),
			Err:       fe.Err,
		}
	}

	return &FieldError{
		FieldPath: []string{fieldName},
		Err:       err,
	}
}
