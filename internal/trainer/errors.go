package trainer

import (
	"errors"
	"fmt"

	"github.com/born-ml/toygrad/internal/layer"
)

// Common errors.
var (
	// ErrUnknownMethod is returned by the first update step of a trainer
	// configured with an unsupported method. It matches
	// layer.ErrConfiguration.
	ErrUnknownMethod = fmt.Errorf("%w: unknown trainer method", layer.ErrConfiguration)

	// ErrStateMismatch is returned when loaded accumulators do not fit the
	// model's parameters or the trainer's method.
	ErrStateMismatch = errors.New("trainer state does not match trainer")
)
