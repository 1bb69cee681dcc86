package layer

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrConfiguration covers bad layer ordering or kinds, mismatched
	// shapes and unknown layer or optimizer types. It is always raised at
	// construction time.
	ErrConfiguration = errors.New("configuration error")

	// ErrPrecondition signals a caller bug, such as Backward without a
	// matching Forward or a target that does not fit the output layer.
	ErrPrecondition = errors.New("precondition violation")
)

// ConfigError locates a configuration failure inside a layer list.
type ConfigError struct {
	Index int    // Position in the description list
	Type  string // Layer type tag
	Err   error  // Underlying cause
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("layer %d (%s): %v", e.Index, e.Type, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// configErrorf formats an error that matches ErrConfiguration.
func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
