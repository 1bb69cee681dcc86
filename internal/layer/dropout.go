package layer

import (
	"math/rand/v2"

	"github.com/born-ml/toygrad/internal/tensor"
)

// Dropout zeroes each activation with probability p during training.
//
// At inference time every activation is scaled by p instead. Backward only
// passes gradient through the positions kept in the matching forward call.
type Dropout struct {
	base
	probability float32
	dropped     []bool
	rng         *rand.Rand
}

// NewDropout creates a dropout layer drawing its masks from env.Rand.
func NewDropout(opts Options, prev Layer, env Env) (*Dropout, error) {
	if err := requirePrev(TypeDropout, prev); err != nil {
		return nil, err
	}
	p := orFloat(opts.Probability, 0.5)
	if p < 0 || p > 1 {
		return nil, configErrorf("dropout: probability must be in [0, 1], got %g", p)
	}

	l := &Dropout{
		base:        newBase(opts, prev),
		probability: p,
		rng:         env.Rand,
	}
	l.dropped = make([]bool, l.out.Len())
	return l, nil
}

// Kind returns KindHidden.
func (l *Dropout) Kind() Kind { return KindHidden }

// Forward applies a fresh bernoulli mask when training and scales by p
// otherwise.
func (l *Dropout) Forward(input *tensor.Tensor, training bool) *tensor.Tensor {
	output := input.Clone()
	o := output.Data()

	if training {
		for i := range o {
			l.dropped[i] = l.rng.Float32() < l.probability
			if l.dropped[i] {
				o[i] = 0
			}
		}
	} else {
		clear(l.dropped)
		for i := range o {
			o[i] *= l.probability
		}
	}

	return l.remember(input, output)
}

// Backward passes gradient through kept positions only.
func (l *Dropout) Backward() error {
	input, output, err := l.context()
	if err != nil {
		return err
	}
	input.ZeroGrad()

	dx := input.Grad()
	for i, g := range output.Grad() {
		if !l.dropped[i] {
			dx[i] = g
		}
	}
	return nil
}

// Dropped reports whether element i was zeroed by the last forward pass.
func (l *Dropout) Dropped(i int) bool {
	return l.dropped[i]
}
