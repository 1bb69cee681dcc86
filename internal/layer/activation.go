package layer

import (
	"github.com/chewxy/math32"

	"github.com/born-ml/toygrad/internal/tensor"
)

// leakySlope is the LeakyReLU slope for negative inputs.
const leakySlope = 0.01

// elementwise pairs a scalar activation with its derivative. The derivative
// is expressed in terms of the forward output y, not the pre-activation.
type elementwise struct {
	forward  func(x float32) float32
	backward func(y, dy float32) float32
}

var activations = map[string]elementwise{
	TypeRelu: {
		forward: func(x float32) float32 {
			if x <= 0 {
				return 0
			}
			return x
		},
		backward: func(y, dy float32) float32 {
			if y <= 0 {
				return 0
			}
			return dy
		},
	},
	TypeLeakyRelu: {
		forward: func(x float32) float32 {
			return max(leakySlope*x, x)
		},
		backward: func(y, dy float32) float32 {
			if y <= 0 {
				return leakySlope * dy
			}
			return dy
		},
	},
	TypeSigmoid: {
		forward: func(x float32) float32 {
			return 1 / (1 + math32.Exp(-x))
		},
		backward: func(y, dy float32) float32 {
			return y * (1 - y) * dy
		},
	},
	TypeTanh: {
		forward: func(x float32) float32 {
			return math32.Tanh(x)
		},
		backward: func(y, dy float32) float32 {
			return (1 - y*y) * dy
		},
	},
}

// Activation applies a parameterless function to every element
// (relu, leakyrelu, sigmoid or tanh). Output shape equals input shape.
type Activation struct {
	base
	fn elementwise
}

// NewActivation creates the elementwise layer named by opts.Type.
func NewActivation(opts Options, prev Layer) (*Activation, error) {
	fn, ok := activations[opts.Type]
	if !ok {
		return nil, configErrorf("unknown activation %q", opts.Type)
	}
	if err := requirePrev(opts.Type, prev); err != nil {
		return nil, err
	}
	return &Activation{base: newBase(opts, prev), fn: fn}, nil
}

// Kind returns KindHidden.
func (l *Activation) Kind() Kind { return KindHidden }

// Forward applies the activation to a copy of input.
func (l *Activation) Forward(input *tensor.Tensor, _ bool) *tensor.Tensor {
	output := input.Clone()
	o := output.Data()
	for i, v := range o {
		o[i] = l.fn.forward(v)
	}
	return l.remember(input, output)
}

// Backward multiplies the chain gradient by the activation's derivative.
func (l *Activation) Backward() error {
	input, output, err := l.context()
	if err != nil {
		return err
	}
	input.ZeroGrad()

	dx := input.Grad()
	g := output.Grad()
	for i, y := range output.Data() {
		dx[i] = l.fn.backward(y, g[i])
	}
	return nil
}
