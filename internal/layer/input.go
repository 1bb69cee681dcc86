package layer

import "github.com/born-ml/toygrad/internal/tensor"

// Input defines the network input shape and passes its input through.
type Input struct {
	base
}

// NewInput creates an input layer of shape (Sx, Sy, Sz).
func NewInput(opts Options, prev Layer) (*Input, error) {
	l := &Input{base: newBase(opts, prev)}
	l.out = tensor.NewShape(opts.Sx, opts.Sy, opts.Sz)
	if err := l.out.Validate(); err != nil {
		return nil, configErrorf("input: %v", err)
	}
	l.in = l.out
	return l, nil
}

// Kind returns KindInput.
func (l *Input) Kind() Kind { return KindInput }

// Forward returns input unchanged.
func (l *Input) Forward(input *tensor.Tensor, _ bool) *tensor.Tensor {
	return l.remember(input, input)
}

// Backward is a no-op: the input layer is the network boundary.
func (l *Input) Backward() error {
	return nil
}
