package layer

import (
	"github.com/chewxy/math32"

	"github.com/born-ml/toygrad/internal/tensor"
)

// Pool is a 2D max-pooling layer.
//
// Forward records, per output cell, the input (x, y) that held the maximum
// (the switch). Backward routes each output gradient to exactly that input
// position. Output depth equals input depth.
type Pool struct {
	base
	sx, sy  int
	stride  int
	pad     int
	switchX []int
	switchY []int
}

// NewPool creates a max-pooling layer.
func NewPool(opts Options, prev Layer) (*Pool, error) {
	if err := requirePrev(TypePool, prev); err != nil {
		return nil, err
	}

	l := &Pool{
		base:   newBase(opts, prev),
		sx:     opts.Sx,
		sy:     orInt(opts.Sy, opts.Sx),
		stride: orInt(opts.Stride, 2),
		pad:    opts.Pad,
	}

	ox, oy, err := windowOutput(l.in, l.sx, l.sy, l.stride, l.pad)
	if err != nil {
		return nil, err
	}
	l.out = tensor.NewShape(ox, oy, l.in.Z)
	l.switchX = make([]int, l.out.Len())
	l.switchY = make([]int, l.out.Len())
	return l, nil
}

// Kind returns KindHidden.
func (l *Pool) Kind() Kind { return KindHidden }

// Forward takes the max over every window and records where it came from.
// A window lying entirely in the padding outputs zero and records no switch.
func (l *Pool) Forward(input *tensor.Tensor, _ bool) *tensor.Tensor {
	output := tensor.Zeros(l.out)

	in := input.Shape()
	x := input.Data()
	o := output.Data()

	for d := 0; d < l.out.Z; d++ {
		for ax, xx := 0, -l.pad; ax < l.out.X; ax, xx = ax+1, xx+l.stride {
			for ay, y := 0, -l.pad; ay < l.out.Y; ay, y = ay+1, y+l.stride {
				a := math32.Inf(-1)
				winx, winy := -1, -1
				for fx := 0; fx < l.sx; fx++ {
					for fy := 0; fy < l.sy; fy++ {
						ox, oy := xx+fx, y+fy
						if oy < 0 || oy >= in.Y || ox < 0 || ox >= in.X {
							continue
						}
						if v := x[in.Index(ox, oy, d)]; v > a {
							a, winx, winy = v, ox, oy
						}
					}
				}
				n := l.out.Index(ax, ay, d)
				l.switchX[n], l.switchY[n] = winx, winy
				if winx >= 0 {
					o[n] = a
				}
			}
		}
	}

	return l.remember(input, output)
}

// Backward sends each output gradient to its recorded switch.
func (l *Pool) Backward() error {
	input, output, err := l.context()
	if err != nil {
		return err
	}
	input.ZeroGrad()

	g := output.Grad()
	for d := 0; d < l.out.Z; d++ {
		for ay := 0; ay < l.out.Y; ay++ {
			for ax := 0; ax < l.out.X; ax++ {
				n := l.out.Index(ax, ay, d)
				if l.switchX[n] < 0 {
					continue
				}
				input.AddGrad(l.switchX[n], l.switchY[n], d, g[n])
			}
		}
	}
	return nil
}

// Switch returns the input (x, y) that produced output cell (ax, ay, d) in
// the last forward pass, or (-1, -1) when the window saw no input.
func (l *Pool) Switch(ax, ay, d int) (int, int) {
	n := l.out.Index(ax, ay, d)
	return l.switchX[n], l.switchY[n]
}
