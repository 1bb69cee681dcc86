package tensor

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrShapeMismatch   = errors.New("shape mismatch")
)

// IndexError describes an out-of-range coordinate.
//
// Element accessors panic with an *IndexError; recover it and use
// errors.Is(err, ErrIndexOutOfRange) to classify it.
type IndexError struct {
	X, Y, Z int
	Shape   Shape
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	return fmt.Sprintf("index (%d, %d, %d) out of range for shape %v", e.X, e.Y, e.Z, e.Shape)
}

// Unwrap returns ErrIndexOutOfRange.
func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}
