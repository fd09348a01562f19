package binio

import "errors"

// Common errors.
var (
	ErrTruncatedStream     = errors.New("truncated stream: read past available data")
	ErrOversizedFixedField = errors.New("string exceeds its field capacity")
	ErrInvalidAlignment    = errors.New("alignment must be a positive power of two")
)
