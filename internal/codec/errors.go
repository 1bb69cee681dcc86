package codec

import "errors"

// Common errors.
var (
	ErrUnsupportedPrecision = errors.New("unsupported precision")
	ErrMalformed            = errors.New("malformed encoded buffer")
)
