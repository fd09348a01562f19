package model

import "errors"

// Common errors.
var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrLengthMismatch  = errors.New("array length mismatch")
)
