package layer

import (
	"github.com/born-ml/toygrad/internal/codec"
	"github.com/born-ml/toygrad/internal/parallel"
	"github.com/born-ml/toygrad/internal/tensor"
)

// Conv is a 2D convolution with stride and implicit zero padding.
//
// Each of the Filters output channels owns one Sx×Sy×inputDepth filter and
// one bias. Window positions that fall outside the input contribute zero;
// padding is never materialised.
//
// Output shape:
//
//	out_x = (in_x + 2*pad - sx) / stride + 1
//	out_y = (in_y + 2*pad - sy) / stride + 1
//	out_z = filters
type Conv struct {
	base
	sx, sy  int
	stride  int
	pad     int
	l1decay float32
	l2decay float32
	filters []*tensor.Tensor
	biases  *tensor.Tensor
	par     parallel.Config
}

// NewConv creates a convolution layer.
func NewConv(opts Options, prev Layer, env Env) (*Conv, error) {
	if err := requirePrev(TypeConv, prev); err != nil {
		return nil, err
	}
	if opts.Filters <= 0 {
		return nil, configErrorf("conv: filters must be > 0, got %d", opts.Filters)
	}
	if opts.Sx <= 0 {
		return nil, configErrorf("conv: sx must be > 0, got %d", opts.Sx)
	}

	l := &Conv{
		base:    newBase(opts, prev),
		sx:      opts.Sx,
		sy:      orInt(opts.Sy, opts.Sx),
		stride:  orInt(opts.Stride, 1),
		pad:     opts.Pad,
		l1decay: orFloat(opts.L1Decay, 0),
		l2decay: orFloat(opts.L2Decay, 1),
		par:     env.Parallel,
	}

	ox, oy, err := windowOutput(l.in, l.sx, l.sy, l.stride, l.pad)
	if err != nil {
		return nil, err
	}
	l.out = tensor.NewShape(ox, oy, opts.Filters)

	if l.filters, err = buildFilters(opts.EncodedFilters, l.out.Z, tensor.NewShape(l.sx, l.sy, l.in.Z), env); err != nil {
		return nil, err
	}
	if l.biases, err = buildBiases(opts.EncodedBiases, l.out.Z, orFloat(opts.Bias, 0)); err != nil {
		return nil, err
	}
	return l, nil
}

// windowOutput computes the spatial output extent of a strided window.
func windowOutput(in tensor.Shape, sx, sy, stride, pad int) (int, int, error) {
	if sx <= 0 || sy <= 0 {
		return 0, 0, configErrorf("window must be > 0, got %d×%d", sx, sy)
	}
	if stride <= 0 {
		return 0, 0, configErrorf("stride must be > 0, got %d", stride)
	}
	if pad < 0 {
		return 0, 0, configErrorf("pad must be >= 0, got %d", pad)
	}
	if in.X+2*pad < sx || in.Y+2*pad < sy {
		return 0, 0, configErrorf("window %d×%d does not fit input %v with pad %d", sx, sy, in, pad)
	}
	return (in.X+2*pad-sx)/stride + 1, (in.Y+2*pad-sy)/stride + 1, nil
}

// Kind returns KindHidden.
func (l *Conv) Kind() Kind { return KindHidden }

// Forward convolves every filter over the input; channels run in parallel.
func (l *Conv) Forward(input *tensor.Tensor, _ bool) *tensor.Tensor {
	output := tensor.Zeros(l.out)

	in := input.Shape()
	x := input.Data()
	o := output.Data()
	b := l.biases.Data()

	parallel.Each(l.out.Z, l.par, func(d int) {
		f := l.filters[d]
		fs := f.Shape()
		w := f.Data()
		for ay, y := 0, -l.pad; ay < l.out.Y; ay, y = ay+1, y+l.stride {
			for ax, xx := 0, -l.pad; ax < l.out.X; ax, xx = ax+1, xx+l.stride {
				var a float32
				for fy := 0; fy < fs.Y; fy++ {
					oy := y + fy
					if oy < 0 || oy >= in.Y {
						continue
					}
					for fx := 0; fx < fs.X; fx++ {
						ox := xx + fx
						if ox < 0 || ox >= in.X {
							continue
						}
						fi := fs.Index(fx, fy, 0)
						ii := in.Index(ox, oy, 0)
						for fd := 0; fd < fs.Z; fd++ {
							a += w[fi+fd] * x[ii+fd]
						}
					}
				}
				o[l.out.Index(ax, ay, d)] = a + b[d]
			}
		}
	})

	return l.remember(input, output)
}

// Backward distributes each output gradient over the window that produced
// it, into both the filter and the input gradients.
func (l *Conv) Backward() error {
	input, output, err := l.context()
	if err != nil {
		return err
	}
	input.ZeroGrad()

	in := input.Shape()
	x := input.Data()
	dx := input.Grad()
	g := output.Grad()
	db := l.biases.Grad()

	// Filter and bias gradients: one channel per worker.
	parallel.Each(l.out.Z, l.par, func(d int) {
		f := l.filters[d]
		fs := f.Shape()
		dw := f.Grad()
		l.visit(in, fs, func(ax, ay, fi, ii int) {
			chain := g[l.out.Index(ax, ay, d)]
			for fd := 0; fd < fs.Z; fd++ {
				dw[fi+fd] += x[ii+fd] * chain
			}
		})
		for ay := 0; ay < l.out.Y; ay++ {
			for ax := 0; ax < l.out.X; ax++ {
				db[d] += g[l.out.Index(ax, ay, d)]
			}
		}
	})

	// Input gradients: one input depth slice per worker.
	parallel.For(in.Z, l.par, func(lo, hi int) {
		for d, f := range l.filters {
			w := f.Data()
			l.visit(in, f.Shape(), func(ax, ay, fi, ii int) {
				chain := g[l.out.Index(ax, ay, d)]
				for fd := lo; fd < hi; fd++ {
					dx[ii+fd] += w[fi+fd] * chain
				}
			})
		}
	})
	return nil
}

// visit calls fn for every (output position, filter offset, input offset)
// pair touched by the convolution, skipping positions in the padding.
func (l *Conv) visit(in, fs tensor.Shape, fn func(ax, ay, fi, ii int)) {
	for ay, y := 0, -l.pad; ay < l.out.Y; ay, y = ay+1, y+l.stride {
		for ax, xx := 0, -l.pad; ax < l.out.X; ax, xx = ax+1, xx+l.stride {
			for fy := 0; fy < fs.Y; fy++ {
				oy := y + fy
				if oy < 0 || oy >= in.Y {
					continue
				}
				for fx := 0; fx < fs.X; fx++ {
					ox := xx + fx
					if ox < 0 || ox >= in.X {
						continue
					}
					fn(ax, ay, fs.Index(fx, fy, 0), in.Index(ox, oy, 0))
				}
			}
		}
	}
}

// ParamsAndGrads returns the filters followed by the biases.
func (l *Conv) ParamsAndGrads() []ParamGrad {
	return paramsAndGrads(l.filters, l.biases, true, l.l1decay, l.l2decay)
}

// Export returns the description with encoded filters and biases.
func (l *Conv) Export(precision codec.Precision) (Options, error) {
	return exportParams(l.opts, l.filters, l.biases, true, precision)
}

// Filters returns the per-channel weight tensors.
func (l *Conv) Filters() []*tensor.Tensor { return l.filters }

// Biases returns the bias tensor.
func (l *Conv) Biases() *tensor.Tensor { return l.biases }
