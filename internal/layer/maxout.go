package layer

import "github.com/born-ml/toygrad/internal/tensor"

// Maxout keeps the maximum of each group of k consecutive depth channels.
//
// Output shape is (in_x, in_y, in_z/k). Forward records the winning depth
// index per output cell; Backward routes gradient only to that channel.
type Maxout struct {
	base
	group    int
	switches []int
}

// NewMaxout creates a maxout layer with group size Sx (default 2).
func NewMaxout(opts Options, prev Layer) (*Maxout, error) {
	if err := requirePrev(TypeMaxout, prev); err != nil {
		return nil, err
	}
	k := orInt(opts.Sx, 2)
	if k <= 0 {
		return nil, configErrorf("maxout: group size must be > 0, got %d", k)
	}

	l := &Maxout{base: newBase(opts, prev), group: k}
	l.out.Z = l.in.Z / k
	if l.out.Z == 0 {
		return nil, configErrorf("maxout: input depth %d is smaller than group size %d", l.in.Z, k)
	}
	l.switches = make([]int, l.out.Len())
	return l, nil
}

// Kind returns KindHidden.
func (l *Maxout) Kind() Kind { return KindHidden }

// Forward keeps the per-group maximum.
func (l *Maxout) Forward(input *tensor.Tensor, _ bool) *tensor.Tensor {
	output := tensor.Zeros(l.out)

	in := input.Shape()
	x := input.Data()
	o := output.Data()

	for y := 0; y < l.out.Y; y++ {
		for xx := 0; xx < l.out.X; xx++ {
			cell := in.Index(xx, y, 0)
			for i := 0; i < l.out.Z; i++ {
				first := i * l.group
				a, win := x[cell+first], first
				for j := 1; j < l.group; j++ {
					if v := x[cell+first+j]; v > a {
						a, win = v, first+j
					}
				}
				n := l.out.Index(xx, y, i)
				o[n] = a
				l.switches[n] = win
			}
		}
	}

	return l.remember(input, output)
}

// Backward routes each output gradient to its winning channel.
func (l *Maxout) Backward() error {
	input, output, err := l.context()
	if err != nil {
		return err
	}
	input.ZeroGrad()

	g := output.Grad()
	for y := 0; y < l.out.Y; y++ {
		for x := 0; x < l.out.X; x++ {
			for i := 0; i < l.out.Z; i++ {
				n := l.out.Index(x, y, i)
				input.SetGrad(x, y, l.switches[n], g[n])
			}
		}
	}
	return nil
}

// Switch returns the winning input depth for output cell (x, y, i).
func (l *Maxout) Switch(x, y, i int) int {
	return l.switches[l.out.Index(x, y, i)]
}
