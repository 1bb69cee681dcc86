package layer

import (
	"fmt"

	"github.com/born-ml/toygrad/internal/tensor"
)

// Regression is an L2 output layer.
//
// Forward is the identity (viewed as 1×1×n). Backward(target) writes
// dx[i] = x[i] - target[i] and returns 0.5·Σ(x[i]-target[i])².
type Regression struct {
	base
}

// NewRegression creates a regression output layer.
func NewRegression(opts Options, prev Layer) (*Regression, error) {
	if err := requirePrev(TypeRegression, prev); err != nil {
		return nil, err
	}
	l := &Regression{base: newBase(opts, prev)}
	l.out = tensor.NewShape(1, 1, l.in.Len())
	return l, nil
}

// Kind returns KindOutput.
func (l *Regression) Kind() Kind { return KindOutput }

// Forward returns input viewed with the output shape.
func (l *Regression) Forward(input *tensor.Tensor, _ bool) *tensor.Tensor {
	output, err := input.Reshape(l.out)
	if err != nil {
		panic(fmt.Sprintf("Regression.Forward: %v", err))
	}
	return l.remember(input, output)
}

// Backward seeds the L2 gradient from target.Values and returns the loss.
func (l *Regression) Backward(target Target) (float32, error) {
	input, _, err := l.context()
	if err != nil {
		return 0, err
	}
	if len(target.Values) != l.out.Z {
		return 0, fmt.Errorf("%w: regression target has %d values, want %d", ErrPrecondition, len(target.Values), l.out.Z)
	}
	input.ZeroGrad()

	x := input.Data()
	dx := input.Grad()
	var loss float32
	for i, t := range target.Values {
		dy := x[i] - t
		dx[i] = dy
		loss += 0.5 * dy * dy
	}
	return loss, nil
}
