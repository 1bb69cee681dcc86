package layer

import (
	"github.com/born-ml/toygrad/internal/codec"
	"github.com/born-ml/toygrad/internal/parallel"
	"github.com/born-ml/toygrad/internal/tensor"
)

// Dense is a fully connected layer.
//
// It holds one filter per output unit, each shaped like the flattened
// input, and one bias per unit:
//
//	out[i] = Σ_d in[d]·filter_i[d] + bias[i]
//
// Output shape is (1, 1, Filters).
type Dense struct {
	base
	l1decay float32
	l2decay float32
	biased  bool
	filters []*tensor.Tensor
	biases  *tensor.Tensor
	par     parallel.Config
}

// NewDense creates a dense layer. Filters are drawn from env.Rand unless
// opts carries encoded parameters.
func NewDense(opts Options, prev Layer, env Env) (*Dense, error) {
	if err := requirePrev(TypeDense, prev); err != nil {
		return nil, err
	}
	if opts.Filters <= 0 {
		return nil, configErrorf("dense: filters must be > 0, got %d", opts.Filters)
	}

	l := &Dense{
		base:    newBase(opts, prev),
		l1decay: orFloat(opts.L1Decay, 0),
		l2decay: orFloat(opts.L2Decay, 1),
		par:     env.Parallel,
	}
	l.out = tensor.NewShape(1, 1, opts.Filters)

	bias := orFloat(opts.Bias, 0)
	l.biased = bias != -1

	var err error
	if l.filters, err = buildFilters(opts.EncodedFilters, l.out.Z, tensor.NewShape(1, 1, l.in.Len()), env); err != nil {
		return nil, err
	}
	if !l.biased {
		l.biases = tensor.Zeros(tensor.NewShape(1, 1, l.out.Z))
	} else if l.biases, err = buildBiases(opts.EncodedBiases, l.out.Z, bias); err != nil {
		return nil, err
	}
	return l, nil
}

// Kind returns KindHidden.
func (l *Dense) Kind() Kind { return KindHidden }

// Forward computes one dot product per output unit.
func (l *Dense) Forward(input *tensor.Tensor, _ bool) *tensor.Tensor {
	output := tensor.Zeros(l.out)

	x := input.Data()
	o := output.Data()
	b := l.biases.Data()
	parallel.Each(l.out.Z, l.par, func(i int) {
		w := l.filters[i].Data()
		var a float32
		for d, v := range x {
			a += v * w[d]
		}
		o[i] = a + b[i]
	})

	return l.remember(input, output)
}

// Backward accumulates filter and bias gradients and writes the input
// gradient.
func (l *Dense) Backward() error {
	input, output, err := l.context()
	if err != nil {
		return err
	}
	input.ZeroGrad()

	x := input.Data()
	dx := input.Grad()
	g := output.Grad()
	db := l.biases.Grad()

	// Each unit owns its filter gradient and bias slot.
	parallel.Each(l.out.Z, l.par, func(i int) {
		chain := g[i]
		dw := l.filters[i].Grad()
		for d, v := range x {
			dw[d] += v * chain
		}
		if l.biased {
			db[i] += chain
		}
	})

	// Each input element is summed over all units by a single worker.
	parallel.For(len(x), l.par, func(lo, hi int) {
		for i, f := range l.filters {
			chain := g[i]
			w := f.Data()
			for d := lo; d < hi; d++ {
				dx[d] += w[d] * chain
			}
		}
	})
	return nil
}

// ParamsAndGrads returns the filters followed by the biases (when enabled).
func (l *Dense) ParamsAndGrads() []ParamGrad {
	return paramsAndGrads(l.filters, l.biases, l.biased, l.l1decay, l.l2decay)
}

// Export returns the description with encoded filters and biases.
func (l *Dense) Export(precision codec.Precision) (Options, error) {
	return exportParams(l.opts, l.filters, l.biases, l.biased, precision)
}

// Filters returns the per-unit weight tensors.
func (l *Dense) Filters() []*tensor.Tensor { return l.filters }

// Biases returns the bias tensor.
func (l *Dense) Biases() *tensor.Tensor { return l.biases }
