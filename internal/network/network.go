// Package network chains layers into a trainable feed-forward network.
//
// A Network is resolved once from an ordered list of layer descriptions.
// The first layer must be an input layer, the last an output (loss) layer
// and every layer in between a hidden layer. Shapes are threaded from each
// layer to the next at resolve time and never re-checked per call, apart
// from the network input.
//
// Example:
//
//	net, err := network.New([]layer.Options{
//	    {Type: layer.TypeInput, Sx: 1, Sy: 1, Sz: 2},
//	    {Type: layer.TypeDense, Filters: 8},
//	    {Type: layer.TypeSigmoid},
//	    {Type: layer.TypeDense, Filters: 1},
//	    {Type: layer.TypeRegression},
//	}, network.WithSeed(42))
//
//	out, err := net.Predict([]float32{0, 1})
//
// A Network is not safe for concurrent use; see Predictor for a
// goroutine-safe inference wrapper.
package network

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/toygrad/internal/codec"
	"github.com/born-ml/toygrad/internal/layer"
	"github.com/born-ml/toygrad/internal/parallel"
	"github.com/born-ml/toygrad/internal/tensor"
)

// Option configures network construction.
type Option func(*settings)

type settings struct {
	rng *rand.Rand
	par parallel.Config
}

// WithRand sets the generator used for weight initialisation and dropout.
func WithRand(rng *rand.Rand) Option {
	return func(s *settings) { s.rng = rng }
}

// WithSeed is shorthand for WithRand(tensor.NewRand(seed)).
func WithSeed(seed uint64) Option {
	return WithRand(tensor.NewRand(seed))
}

// WithParallel lets Dense and Conv layers split their loops across
// goroutines.
func WithParallel(cfg parallel.Config) Option {
	return func(s *settings) { s.par = cfg }
}

// Network is an ordered, resolved layer list.
type Network struct {
	layers []layer.Layer
	hidden []layer.Hidden // index-aligned with layers; nil for input and output
	output layer.Output
}

// New resolves descs into a network. Any construction failure is returned
// as a *layer.ConfigError locating the offending description.
func New(descs []layer.Options, opts ...Option) (*Network, error) {
	s := settings{par: parallel.Sequential()}
	for _, opt := range opts {
		opt(&s)
	}
	if s.rng == nil {
		s.rng = tensor.NewRand(1)
	}
	env := layer.Env{Rand: s.rng, Parallel: s.par}

	if len(descs) < 2 {
		return nil, fmt.Errorf("%w: a network needs at least an input and an output layer, got %d layers",
			layer.ErrConfiguration, len(descs))
	}

	n := &Network{
		layers: make([]layer.Layer, len(descs)),
		hidden: make([]layer.Hidden, len(descs)),
	}

	var prev layer.Layer
	last := len(descs) - 1
	for i, desc := range descs {
		l, err := layer.New(desc, prev, env)
		if err != nil {
			return nil, &layer.ConfigError{Index: i, Type: desc.Type, Err: err}
		}
		if err := n.place(i, last, l, prev); err != nil {
			return nil, &layer.ConfigError{Index: i, Type: desc.Type, Err: err}
		}
		n.layers[i] = l
		prev = l
	}
	return n, nil
}

// place checks that l may sit at position i and records its role.
func (n *Network) place(i, last int, l layer.Layer, prev layer.Layer) error {
	want := layer.KindHidden
	switch i {
	case 0:
		want = layer.KindInput
	case last:
		want = layer.KindOutput
	}
	if l.Kind() != want {
		return fmt.Errorf("%w: %s layer at position %d, want %s", layer.ErrConfiguration, l.Kind(), i, want)
	}
	if prev != nil && l.InShape() != prev.OutShape() {
		return fmt.Errorf("%w: input shape %v does not match previous output %v",
			layer.ErrConfiguration, l.InShape(), prev.OutShape())
	}

	switch want {
	case layer.KindHidden:
		h, ok := l.(layer.Hidden)
		if !ok {
			return fmt.Errorf("%w: %s layer has no hidden backward pass", layer.ErrConfiguration, l.Type())
		}
		n.hidden[i] = h
	case layer.KindOutput:
		o, ok := l.(layer.Output)
		if !ok {
			return fmt.Errorf("%w: %s layer has no loss backward pass", layer.ErrConfiguration, l.Type())
		}
		n.output = o
	}
	return nil
}

// Layers returns the resolved layers in order.
func (n *Network) Layers() []layer.Layer {
	return n.layers
}

// InShape returns the shape Forward expects.
func (n *Network) InShape() tensor.Shape {
	return n.layers[0].OutShape()
}

// OutShape returns the shape Forward produces.
func (n *Network) OutShape() tensor.Shape {
	return n.output.OutShape()
}

// Forward runs every layer left to right.
func (n *Network) Forward(input *tensor.Tensor, training bool) (*tensor.Tensor, error) {
	if input.Shape() != n.InShape() {
		return nil, fmt.Errorf("%w: %w: network input %v, want %v",
			layer.ErrPrecondition, tensor.ErrShapeMismatch, input.Shape(), n.InShape())
	}
	out := input
	for _, l := range n.layers {
		out = l.Forward(out, training)
	}
	return out, nil
}

// Backward seeds the loss at the output layer and propagates the gradient
// back to the first hidden layer. It returns the output layer's loss.
func (n *Network) Backward(target layer.Target) (float32, error) {
	loss, err := n.output.Backward(target)
	if err != nil {
		return 0, fmt.Errorf("layer %d (%s): %w", len(n.layers)-1, n.output.Type(), err)
	}
	for i := len(n.layers) - 2; i > 0; i-- {
		if err := n.hidden[i].Backward(); err != nil {
			return 0, fmt.Errorf("layer %d (%s): %w", i, n.hidden[i].Type(), err)
		}
	}
	return loss, nil
}

// ParamsAndGrads flattens every layer's parameter views. The order is
// stable across calls: layer order, then each layer's own order.
func (n *Network) ParamsAndGrads() []layer.ParamGrad {
	var pg []layer.ParamGrad
	for _, l := range n.layers {
		pg = append(pg, l.ParamsAndGrads()...)
	}
	return pg
}

// Cost runs one inference forward pass and the matching backward pass and
// returns the loss. Parameters are not updated, but parameter gradients
// accumulate like in any other backward pass.
func (n *Network) Cost(input *tensor.Tensor, target layer.Target) (float32, error) {
	if _, err := n.Forward(input, false); err != nil {
		return 0, err
	}
	return n.Backward(target)
}

// Predict runs inference on a flat input laid out like the input tensor and
// returns a copy of the output values.
func (n *Network) Predict(values []float32) ([]float32, error) {
	input, err := tensor.FromSlice(n.InShape(), values)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", layer.ErrPrecondition, err)
	}
	out, err := n.Forward(input, false)
	if err != nil {
		return nil, err
	}
	return append([]float32(nil), out.Data()...), nil
}

// Export returns the layer descriptions with every trainable layer's
// parameters encoded at precision. New(model) rebuilds an equivalent
// network.
func (n *Network) Export(precision codec.Precision) (Model, error) {
	model := make(Model, len(n.layers))
	for i, l := range n.layers {
		opts, err := l.Export(precision)
		if err != nil {
			return nil, fmt.Errorf("layer %d (%s): %w", i, l.Type(), err)
		}
		model[i] = opts
	}
	return model, nil
}
