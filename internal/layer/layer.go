// Package layer implements the layer family of a feed-forward network.
//
// Every layer derives its output shape from its own Options and the output
// shape of the layer before it. Layers keep the tensors of their most recent
// Forward call (the "last forward context") and Backward reads that context,
// so Backward is only valid right after a matching Forward on the same
// goroutine. A layer instance must not serve concurrent forward/backward
// pairs.
//
// Gradient flow follows one convention throughout: a layer's Backward reads
// the chain gradient from its stored output tensor's gradient buffer, writes
// input gradients into its stored input tensor's gradient buffer, and
// accumulates parameter gradients into its filters and biases.
package layer

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/toygrad/internal/codec"
	"github.com/born-ml/toygrad/internal/parallel"
	"github.com/born-ml/toygrad/internal/tensor"
)

// Kind is a layer's position class inside a network.
type Kind int

// Layer kinds.
const (
	KindInput Kind = iota
	KindHidden
	KindOutput
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindHidden:
		return "hidden"
	case KindOutput:
		return "output"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Layer is the contract shared by every layer variant.
type Layer interface {
	// Type returns the description tag the layer was built from.
	Type() string

	// Kind reports whether this is an input, hidden or output layer.
	Kind() Kind

	// InShape and OutShape are fixed at construction.
	InShape() tensor.Shape
	OutShape() tensor.Shape

	// Forward computes the output for input. It never mutates input and
	// stores both tensors for the next Backward call.
	Forward(input *tensor.Tensor, training bool) *tensor.Tensor

	// ParamsAndGrads returns views of every trainable tensor, in a stable
	// order. Parameterless layers return nil.
	ParamsAndGrads() []ParamGrad

	// Export returns the layer's description with its parameters encoded
	// at the given precision, suitable for rebuilding the layer.
	Export(precision codec.Precision) (Options, error)
}

// Hidden is a layer that propagates a gradient already deposited in its
// output tensor back to its input tensor.
type Hidden interface {
	Layer
	Backward() error
}

// Output is a loss layer: it seeds backpropagation from a target and
// returns the scalar loss.
type Output interface {
	Layer
	Backward(target Target) (float32, error)
}

// ParamGrad is a read/write view into one trainable tensor's values and
// gradients plus its regularisation multipliers. The slices are shared with
// the layer, not copied.
type ParamGrad struct {
	Params  []float32
	Grads   []float32
	L1Decay float32
	L2Decay float32
}

// Target is the value an output layer's Backward compares against.
//
// Softmax reads Class; Regression reads Values.
type Target struct {
	Class  int
	Values []float32
}

// Class returns a classification target.
func Class(i int) Target {
	return Target{Class: i}
}

// Values returns a regression target.
func Values(v ...float32) Target {
	return Target{Class: -1, Values: v}
}

// Env carries the dependencies shared by all layers of a network.
type Env struct {
	// Rand drives weight initialisation and dropout masks.
	Rand *rand.Rand

	// Parallel controls how Dense and Conv split their inner loops.
	Parallel parallel.Config
}

// DefaultEnv returns an Env with a fixed seed and sequential execution.
func DefaultEnv() Env {
	return Env{
		Rand:     tensor.NewRand(1),
		Parallel: parallel.Sequential(),
	}
}

// unknownShape is the input shape of a layer without a predecessor.
var unknownShape = tensor.Shape{X: -1, Y: -1, Z: -1}

// base holds the state every layer variant shares: its description, its
// fixed shapes and the last forward context.
type base struct {
	opts Options
	in   tensor.Shape
	out  tensor.Shape
	it   *tensor.Tensor
	ot   *tensor.Tensor
}

func newBase(opts Options, prev Layer) base {
	in := unknownShape
	if prev != nil {
		in = prev.OutShape()
	}
	opts.EncodedFilters = nil
	opts.EncodedBiases = ""
	return base{opts: opts, in: in, out: in}
}

func (b *base) Type() string           { return b.opts.Type }
func (b *base) InShape() tensor.Shape  { return b.in }
func (b *base) OutShape() tensor.Shape { return b.out }

func (b *base) ParamsAndGrads() []ParamGrad { return nil }

func (b *base) Export(codec.Precision) (Options, error) {
	return b.opts, nil
}

func (b *base) remember(input, output *tensor.Tensor) *tensor.Tensor {
	b.it = input
	b.ot = output
	return output
}

// context returns the last forward tensors, failing when Forward never ran.
func (b *base) context() (it, ot *tensor.Tensor, err error) {
	if b.it == nil || b.ot == nil {
		return nil, nil, fmt.Errorf("%w: %s backward called without a matching forward", ErrPrecondition, b.opts.Type)
	}
	return b.it, b.ot, nil
}

// requirePrev fails when a layer that derives its shape from a predecessor
// has none.
func requirePrev(typ string, prev Layer) error {
	if prev == nil {
		return configErrorf("%s layer needs a preceding layer", typ)
	}
	return nil
}
