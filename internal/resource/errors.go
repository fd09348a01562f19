package resource

import (
	"errors"
	"fmt"

	"github.com/resforge/resforge/internal/binio"
)

// Common errors.
var (
	ErrMalformedHeader    = errors.New("malformed container header")
	ErrUnknownVariantTag  = errors.New("unknown variant tag")
	ErrUnresolvedSchedule = errors.New("scheduled write was never patched")
	ErrOffsetOutOfRange   = errors.New("relative offset out of range")
	ErrUnsupportedKind    = errors.New("unsupported container kind")
	ErrCountOverflow      = errors.New("element count exceeds its field width")

	ErrTruncatedStream     = binio.ErrTruncatedStream
	ErrOversizedFixedField = binio.ErrOversizedFixedField
)

// HeaderError reports a descriptor that does not match the expected container layout.
type HeaderError struct {
	Want   Descriptor
	Got    Descriptor
	Offset int64
}

// Error implements the error interface.
func (e *HeaderError) Error() string {
	return fmt.Sprintf("%s at offset %d: got %s, want %s", ErrMalformedHeader, e.Offset, e.Got, e.Want)
}

// Unwrap returns ErrMalformedHeader.
func (e *HeaderError) Unwrap() error {
	return ErrMalformedHeader
}

// VariantError reports a tag outside a variant family's closed mapping.
type VariantError struct {
	Family string // Variant family (e.g. "geometry batch")
	Tag    string // Formatted tag value
}

// Error implements the error interface.
func (e *VariantError) Error() string {
	return fmt.Sprintf("%s: %s tag %s", ErrUnknownVariantTag, e.Family, e.Tag)
}

// Unwrap returns ErrUnknownVariantTag.
func (e *VariantError) Unwrap() error {
	return ErrUnknownVariantTag
}
