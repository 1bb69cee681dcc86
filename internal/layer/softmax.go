package layer

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/born-ml/toygrad/internal/tensor"
)

// Softmax is a softmax/cross-entropy output layer.
//
// Forward computes numerically stable class probabilities and caches them.
// Backward(target) writes dx[i] = p[i] - 1{i == class} and returns the
// negative log-likelihood -log(p[class]).
type Softmax struct {
	base
	es []float32
}

// NewSoftmax creates a softmax output layer over the flattened input.
func NewSoftmax(opts Options, prev Layer) (*Softmax, error) {
	if err := requirePrev(TypeSoftmax, prev); err != nil {
		return nil, err
	}
	l := &Softmax{base: newBase(opts, prev)}
	l.out = tensor.NewShape(1, 1, l.in.Len())
	l.es = make([]float32, l.out.Z)
	return l, nil
}

// Kind returns KindOutput.
func (l *Softmax) Kind() Kind { return KindOutput }

// Forward returns the class probabilities.
func (l *Softmax) Forward(input *tensor.Tensor, _ bool) *tensor.Tensor {
	output := tensor.Zeros(l.out)

	x := input.Data()
	amax := x[0]
	for _, v := range x[1:] {
		if v > amax {
			amax = v
		}
	}

	var esum float32
	for i, v := range x {
		e := math32.Exp(v - amax)
		l.es[i] = e
		esum += e
	}

	o := output.Data()
	for i := range l.es {
		l.es[i] /= esum
		o[i] = l.es[i]
	}

	return l.remember(input, output)
}

// Backward seeds the cross-entropy gradient for target.Class.
func (l *Softmax) Backward(target Target) (float32, error) {
	input, _, err := l.context()
	if err != nil {
		return 0, err
	}
	if target.Class < 0 || target.Class >= l.out.Z {
		return 0, fmt.Errorf("%w: softmax target class %d out of range [0, %d)", ErrPrecondition, target.Class, l.out.Z)
	}
	input.ZeroGrad()

	dx := input.Grad()
	for i, p := range l.es {
		if i == target.Class {
			dx[i] = p - 1
		} else {
			dx[i] = p
		}
	}
	return -math32.Log(l.es[target.Class]), nil
}

// Probabilities returns the probabilities cached by the last forward pass.
func (l *Softmax) Probabilities() []float32 {
	return l.es
}
