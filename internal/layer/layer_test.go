package layer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/toygrad/internal/codec"
	"github.com/born-ml/toygrad/internal/tensor"
)

func TestNew_OutputShapes(t *testing.T) {
	tests := []struct {
		name string
		in   tensor.Shape
		desc Options
		want tensor.Shape
	}{
		{"dense", tensor.NewShape(2, 3, 4), Options{Type: TypeDense, Filters: 5}, tensor.NewShape(1, 1, 5)},
		{"conv same", tensor.NewShape(8, 8, 3), Options{Type: TypeConv, Sx: 3, Filters: 4, Pad: 1}, tensor.NewShape(8, 8, 4)},
		{"conv strided", tensor.NewShape(7, 5, 2), Options{Type: TypeConv, Sx: 3, Sy: 1, Filters: 2, Stride: 2}, tensor.NewShape(3, 5, 2)},
		{"pool default stride", tensor.NewShape(8, 8, 3), Options{Type: TypePool, Sx: 2}, tensor.NewShape(4, 4, 3)},
		{"pool overlapping", tensor.NewShape(5, 5, 1), Options{Type: TypePool, Sx: 3, Stride: 1}, tensor.NewShape(3, 3, 1)},
		{"maxout", tensor.NewShape(2, 2, 6), Options{Type: TypeMaxout, Sx: 3}, tensor.NewShape(2, 2, 2)},
		{"maxout default group", tensor.NewShape(1, 1, 5), Options{Type: TypeMaxout}, tensor.NewShape(1, 1, 2)},
		{"dropout", tensor.NewShape(3, 3, 3), Options{Type: TypeDropout}, tensor.NewShape(3, 3, 3)},
		{"relu", tensor.NewShape(2, 1, 4), Options{Type: TypeRelu}, tensor.NewShape(2, 1, 4)},
		{"tanh", tensor.NewShape(2, 1, 4), Options{Type: TypeTanh}, tensor.NewShape(2, 1, 4)},
		{"softmax", tensor.NewShape(2, 2, 2), Options{Type: TypeSoftmax}, tensor.NewShape(1, 1, 8)},
		{"regression", tensor.NewShape(1, 3, 1), Options{Type: TypeRegression}, tensor.NewShape(1, 1, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layers := mustBuild(t, Options{Type: TypeInput, Sx: tt.in.X, Sy: tt.in.Y, Sz: tt.in.Z}, tt.desc)
			l := layers[1]
			assert.Equal(t, tt.in, l.InShape())
			assert.Equal(t, tt.want, l.OutShape())

			out := l.Forward(spread(tt.in), false)
			assert.Equal(t, tt.want, out.Shape())
		})
	}
}

func TestNew_ConfigurationErrors(t *testing.T) {
	input := Options{Type: TypeInput, Sx: 4, Sy: 4, Sz: 2}
	tests := []struct {
		name string
		desc Options
	}{
		{"unknown type", Options{Type: "batchnorm"}},
		{"dense without filters", Options{Type: TypeDense}},
		{"conv without window", Options{Type: TypeConv, Filters: 2}},
		{"conv window too large", Options{Type: TypeConv, Sx: 5, Filters: 2}},
		{"pool negative pad", Options{Type: TypePool, Sx: 2, Pad: -1}},
		{"dropout probability", Options{Type: TypeDropout, Probability: Float(1.5)}},
		{"maxout group too large", Options{Type: TypeMaxout, Sx: 3}},
		{"bad filter payload", Options{Type: TypeDense, Filters: 1, EncodedFilters: []string{"f32|2|!!"}}},
		{"filter count", Options{Type: TypeDense, Filters: 2, EncodedFilters: []string{"f32|0|"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev, err := New(input, nil, DefaultEnv())
			require.NoError(t, err)
			_, err = New(tt.desc, prev, DefaultEnv())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestNew_InvalidInputShape(t *testing.T) {
	_, err := New(Options{Type: TypeInput, Sx: 0, Sy: 1, Sz: 1}, nil, DefaultEnv())
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = New(Options{Type: TypeRelu}, nil, DefaultEnv())
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestDecodeError_WrapsCodecCause(t *testing.T) {
	in, err := New(Options{Type: TypeInput, Sx: 1, Sy: 1, Sz: 2}, nil, DefaultEnv())
	require.NoError(t, err)

	_, err = New(Options{Type: TypeDense, Filters: 1, EncodedFilters: []string{"f64|2|AAAA"}}, in, DefaultEnv())
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.ErrorIs(t, err, codec.ErrUnsupportedPrecision)
}

func TestRegister(t *testing.T) {
	Register("identity", func(o Options, p Layer, _ Env) (Layer, error) {
		return adapt[*Activation](NewActivation(Options{Type: TypeRelu}, p))
	})
	assert.Contains(t, Types(), "identity")
	assert.Contains(t, Types(), TypeConv)
}

func TestDense_Forward(t *testing.T) {
	in, err := New(Options{Type: TypeInput, Sx: 1, Sy: 1, Sz: 3}, nil, DefaultEnv())
	require.NoError(t, err)

	w0, err := codec.Encode([]float32{1, 2, 3}, codec.F32)
	require.NoError(t, err)
	w1, err := codec.Encode([]float32{-1, 0, 1}, codec.F32)
	require.NoError(t, err)
	b, err := codec.Encode([]float32{0.5, -0.5}, codec.F32)
	require.NoError(t, err)

	l, err := NewDense(Options{Type: TypeDense, Filters: 2, EncodedFilters: []string{w0, w1}, EncodedBiases: b}, in, DefaultEnv())
	require.NoError(t, err)

	out := l.Forward(tensor.Vector(1, 1, 2), false)
	assert.Equal(t, []float32{9.5, 0.5}, out.Data())
}

func TestDense_MatchesMatVec(t *testing.T) {
	shape := tensor.NewShape(2, 2, 3)
	l := hiddenOn(t, shape, Options{Type: TypeDense, Filters: 5, Bias: Float(0.1)})
	d := l.(*Dense)
	x := spread(shape)

	rows := len(d.Filters())
	w := mat.NewDense(rows, shape.Len(), nil)
	for i, f := range d.Filters() {
		w.SetRow(i, toFloat64(f.Data()))
	}
	var want mat.VecDense
	want.MulVec(w, mat.NewVecDense(shape.Len(), toFloat64(x.Data())))
	want.AddVec(&want, mat.NewVecDense(rows, toFloat64(d.Biases().Data())))

	got := l.Forward(x, false)
	assert.True(t, floats.EqualApprox(want.RawVector().Data, toFloat64(got.Data()), 1e-5),
		"forward = %v, want %v", got.Data(), want.RawVector().Data)
}

func TestDense_NoBias(t *testing.T) {
	l := hiddenOn(t, tensor.NewShape(1, 1, 3), Options{Type: TypeDense, Filters: 2, Bias: Float(-1)})
	pg := l.ParamsAndGrads()
	assert.Len(t, pg, 2)

	exported, err := l.Export(codec.F32)
	require.NoError(t, err)
	assert.Empty(t, exported.EncodedBiases)
}

func TestDense_ParamsAndGradsOrder(t *testing.T) {
	l := hiddenOn(t, tensor.NewShape(1, 1, 3), Options{Type: TypeDense, Filters: 2, L1Decay: Float(0.2)})
	pg := l.ParamsAndGrads()
	require.Len(t, pg, 3)

	d := l.(*Dense)
	assert.Same(t, &d.Filters()[0].Data()[0], &pg[0].Params[0])
	assert.Same(t, &d.Filters()[1].Data()[0], &pg[1].Params[0])
	assert.Same(t, &d.Biases().Data()[0], &pg[2].Params[0])

	assert.Equal(t, float32(0.2), pg[0].L1Decay)
	assert.Equal(t, float32(1), pg[0].L2Decay)
	assert.Zero(t, pg[2].L1Decay)
	assert.Zero(t, pg[2].L2Decay)
}

func TestDense_Gradients(t *testing.T) {
	shape := tensor.NewShape(2, 2, 3)
	l := hiddenOn(t, shape, Options{Type: TypeDense, Filters: 4, Bias: Float(0.1)})
	checkHiddenGradients(t, l, spread(shape))
}

func TestConv_Gradients(t *testing.T) {
	tests := []struct {
		name string
		in   tensor.Shape
		desc Options
	}{
		{"valid", tensor.NewShape(4, 4, 2), Options{Type: TypeConv, Sx: 3, Filters: 2}},
		{"padded strided", tensor.NewShape(5, 5, 2), Options{Type: TypeConv, Sx: 3, Filters: 3, Stride: 2, Pad: 1}},
		{"rectangular", tensor.NewShape(5, 3, 1), Options{Type: TypeConv, Sx: 2, Sy: 3, Filters: 2, Pad: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := hiddenOn(t, tt.in, tt.desc)
			checkHiddenGradients(t, l, spread(tt.in))
		})
	}
}

func TestConv_ParallelMatchesSequential(t *testing.T) {
	shape := tensor.NewShape(6, 6, 4)
	desc := Options{Type: TypeConv, Sx: 3, Filters: 8, Pad: 1}

	run := func(env Env) ([]float32, []float32) {
		in, err := New(Options{Type: TypeInput, Sx: 6, Sy: 6, Sz: 4}, nil, env)
		require.NoError(t, err)
		l, err := NewConv(desc, in, env)
		require.NoError(t, err)
		x := spread(shape)
		out := l.Forward(x, false)
		copy(out.Grad(), coefficients(out.Len()))
		require.NoError(t, l.Backward())
		return out.Data(), x.Grad()
	}

	seq := DefaultEnv()
	par := DefaultEnv()
	par.Parallel.Enabled = true
	par.Parallel.NumWorkers = 4
	par.Parallel.MinChunkSize = 1

	seqOut, seqDx := run(seq)
	parOut, parDx := run(par)
	assert.InDeltaSlice(t, seqOut, parOut, 1e-5)
	assert.InDeltaSlice(t, seqDx, parDx, 1e-5)
}

func TestActivation_Gradients(t *testing.T) {
	shape := tensor.NewShape(2, 2, 3)
	for _, typ := range []string{TypeRelu, TypeLeakyRelu, TypeSigmoid, TypeTanh} {
		t.Run(typ, func(t *testing.T) {
			l := hiddenOn(t, shape, Options{Type: typ})
			checkHiddenGradients(t, l, spread(shape))
		})
	}
}

func TestActivation_Values(t *testing.T) {
	x := tensor.Vector(-2, 0, 3)
	tests := []struct {
		typ  string
		want []float64
	}{
		{TypeRelu, []float64{0, 0, 3}},
		{TypeLeakyRelu, []float64{-0.02, 0, 3}},
		{TypeSigmoid, []float64{0.11920292, 0.5, 0.95257413}},
		{TypeTanh, []float64{-0.96402758, 0, 0.99505475}},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			l := hiddenOn(t, x.Shape(), Options{Type: tt.typ})
			got := toFloat64(l.Forward(x, false).Data())
			assert.True(t, floats.EqualApprox(tt.want, got, 1e-6), "got %v", got)
			assert.Equal(t, []float32{-2, 0, 3}, x.Data(), "input must not change")
		})
	}
}

func TestPool_Switches(t *testing.T) {
	l := hiddenOn(t, tensor.NewShape(4, 4, 1), Options{Type: TypePool, Sx: 2})
	x, err := tensor.FromSlice(tensor.NewShape(4, 4, 1), []float32{
		1, 9, 2, 3,
		4, 5, 8, 6,
		0, 1, 1, 2,
		7, 2, 3, 4,
	})
	require.NoError(t, err)

	out := l.Forward(x, false)
	assert.Equal(t, []float32{9, 8, 7, 4}, out.Data())

	p := l.(*Pool)
	sx, sy := p.Switch(0, 0, 0)
	assert.Equal(t, [2]int{1, 0}, [2]int{sx, sy})
	sx, sy = p.Switch(1, 0, 0)
	assert.Equal(t, [2]int{2, 1}, [2]int{sx, sy})

	copy(out.Grad(), []float32{1, 2, 3, 4})
	require.NoError(t, l.Backward())
	assert.Equal(t, []float32{
		0, 1, 0, 0,
		0, 0, 2, 0,
		0, 0, 0, 0,
		3, 0, 0, 4,
	}, x.Grad())
}

func TestPool_WindowOutsideInput(t *testing.T) {
	l := hiddenOn(t, tensor.NewShape(1, 1, 1), Options{Type: TypePool, Sx: 1, Stride: 1, Pad: 1})
	require.Equal(t, tensor.NewShape(3, 3, 1), l.OutShape())

	x := tensor.Vector(-5)
	out := l.Forward(x, false)
	assert.Equal(t, float32(-5), out.Get(1, 1, 0))
	assert.Equal(t, float32(0), out.Get(0, 0, 0))

	sx, sy := l.(*Pool).Switch(0, 0, 0)
	assert.Equal(t, -1, sx)
	assert.Equal(t, -1, sy)

	for i := range out.Grad() {
		out.Grad()[i] = 1
	}
	require.NoError(t, l.Backward())
	assert.Equal(t, []float32{1}, x.Grad())
}

func TestMaxout_Switches(t *testing.T) {
	l := hiddenOn(t, tensor.NewShape(1, 1, 4), Options{Type: TypeMaxout})
	x := tensor.Vector(1, 5, 3, 2)

	out := l.Forward(x, false)
	assert.Equal(t, []float32{5, 3}, out.Data())
	assert.Equal(t, 1, l.(*Maxout).Switch(0, 0, 0))
	assert.Equal(t, 2, l.(*Maxout).Switch(0, 0, 1))

	copy(out.Grad(), []float32{0.5, -2})
	require.NoError(t, l.Backward())
	assert.Equal(t, []float32{0, 0.5, -2, 0}, x.Grad())
}

func TestDropout_Training(t *testing.T) {
	shape := tensor.NewShape(4, 4, 4)
	l := hiddenOn(t, shape, Options{Type: TypeDropout, Probability: Float(0.5)})
	d := l.(*Dropout)

	x := spread(shape)
	out := l.Forward(x, true)
	for i := range out.Grad() {
		out.Grad()[i] = 1
	}
	require.NoError(t, l.Backward())

	dropped := 0
	for i, v := range out.Data() {
		if d.Dropped(i) {
			dropped++
			assert.Zero(t, v)
			assert.Zero(t, x.Grad()[i])
		} else {
			assert.Equal(t, x.Data()[i], v)
			assert.Equal(t, float32(1), x.Grad()[i])
		}
	}
	assert.Greater(t, dropped, 0)
	assert.Less(t, dropped, shape.Len())
}

func TestDropout_Inference(t *testing.T) {
	l := hiddenOn(t, tensor.NewShape(1, 1, 3), Options{Type: TypeDropout, Probability: Float(0.25)})
	out := l.Forward(tensor.Vector(4, -8, 2), false)
	assert.Equal(t, []float32{1, -2, 0.5}, out.Data())
}

func TestDropout_Extremes(t *testing.T) {
	shape := tensor.NewShape(1, 1, 16)
	keep := hiddenOn(t, shape, Options{Type: TypeDropout, Probability: Float(0)})
	x := spread(shape)
	assert.Equal(t, x.Data(), keep.Forward(x, true).Data())

	drop := hiddenOn(t, shape, Options{Type: TypeDropout, Probability: Float(1)})
	for _, v := range drop.Forward(x, true).Data() {
		assert.Zero(t, v)
	}
}

func TestSoftmax_Probabilities(t *testing.T) {
	layers := mustBuild(t, Options{Type: TypeInput, Sx: 1, Sy: 1, Sz: 3}, Options{Type: TypeSoftmax})
	l := layers[1].(*Softmax)

	x := tensor.Vector(1, 2, 3)
	out := l.Forward(x, false)
	assert.InDeltaSlice(t, []float32{0.0900, 0.2447, 0.6652}, out.Data(), 1e-4)

	loss, err := l.Backward(Class(2))
	require.NoError(t, err)
	assert.InDelta(t, 0.4076, loss, 1e-4)
	assert.InDeltaSlice(t, []float32{0.0900, 0.2447, -0.3348}, x.Grad(), 1e-4)
}

func TestSoftmax_LargeLogitsStayFinite(t *testing.T) {
	layers := mustBuild(t, Options{Type: TypeInput, Sx: 1, Sy: 1, Sz: 2}, Options{Type: TypeSoftmax})
	out := layers[1].Forward(tensor.Vector(1000, 1001), false)
	assert.InDeltaSlice(t, []float32{0.2689, 0.7311}, out.Data(), 1e-4)
}

func TestSoftmax_Gradients(t *testing.T) {
	shape := tensor.NewShape(1, 1, 5)
	layers := mustBuild(t, Options{Type: TypeInput, Sx: 1, Sy: 1, Sz: 5}, Options{Type: TypeSoftmax})
	checkOutputGradients(t, layers[1].(Output), spread(shape), Class(3))
}

func TestRegression_Loss(t *testing.T) {
	layers := mustBuild(t, Options{Type: TypeInput, Sx: 1, Sy: 1, Sz: 2}, Options{Type: TypeRegression})
	l := layers[1].(Output)

	x := tensor.Vector(1, 1)
	l.Forward(x, false)
	loss, err := l.Backward(Values(0, 2))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, loss, 1e-6)
	assert.Equal(t, []float32{1, -1}, x.Grad())
}

func TestRegression_Gradients(t *testing.T) {
	shape := tensor.NewShape(2, 2, 1)
	layers := mustBuild(t, Options{Type: TypeInput, Sx: 2, Sy: 2, Sz: 1}, Options{Type: TypeRegression})
	checkOutputGradients(t, layers[1].(Output), spread(shape), Values(0.5, -1, 2, 0))
}

func TestBackward_Preconditions(t *testing.T) {
	t.Run("hidden without forward", func(t *testing.T) {
		l := hiddenOn(t, tensor.NewShape(1, 1, 2), Options{Type: TypeDense, Filters: 1})
		assert.ErrorIs(t, l.Backward(), ErrPrecondition)
	})

	t.Run("output without forward", func(t *testing.T) {
		layers := mustBuild(t, Options{Type: TypeInput, Sx: 1, Sy: 1, Sz: 2}, Options{Type: TypeSoftmax})
		_, err := layers[1].(Output).Backward(Class(0))
		assert.ErrorIs(t, err, ErrPrecondition)
	})

	t.Run("softmax class out of range", func(t *testing.T) {
		layers := mustBuild(t, Options{Type: TypeInput, Sx: 1, Sy: 1, Sz: 2}, Options{Type: TypeSoftmax})
		l := layers[1].(Output)
		l.Forward(tensor.Vector(1, 2), false)
		for _, c := range []int{-1, 2} {
			_, err := l.Backward(Class(c))
			assert.ErrorIs(t, err, ErrPrecondition)
		}
	})

	t.Run("regression target length", func(t *testing.T) {
		layers := mustBuild(t, Options{Type: TypeInput, Sx: 1, Sy: 1, Sz: 2}, Options{Type: TypeRegression})
		l := layers[1].(Output)
		l.Forward(tensor.Vector(1, 2), false)
		_, err := l.Backward(Values(1))
		assert.ErrorIs(t, err, ErrPrecondition)
	})
}

func TestExport_RoundTrip(t *testing.T) {
	shape := tensor.NewShape(3, 3, 2)
	descs := []Options{
		{Type: TypeDense, Filters: 3},
		{Type: TypeConv, Sx: 2, Filters: 2, Pad: 1, Bias: Float(0.1)},
	}
	for _, desc := range descs {
		t.Run(desc.Type, func(t *testing.T) {
			in, err := New(Options{Type: TypeInput, Sx: 3, Sy: 3, Sz: 2}, nil, DefaultEnv())
			require.NoError(t, err)
			l, err := New(desc, in, DefaultEnv())
			require.NoError(t, err)

			exported, err := l.Export(codec.F32)
			require.NoError(t, err)
			assert.NotEmpty(t, exported.EncodedFilters)
			assert.NotEmpty(t, exported.EncodedBiases)

			other, err := New(exported, in, Env{Rand: tensor.NewRand(99)})
			require.NoError(t, err)

			x := spread(shape)
			assert.Equal(t, l.Forward(x, false).Data(), other.Forward(x, false).Data())

			again, err := other.Export(codec.F32)
			require.NoError(t, err)
			assert.Equal(t, exported, again)
		})
	}
}

func TestConfigError_Unwrap(t *testing.T) {
	err := &ConfigError{Index: 3, Type: TypeConv, Err: configErrorf("bad")}
	assert.Contains(t, err.Error(), "layer 3 (conv)")
	assert.True(t, errors.Is(err, ErrConfiguration))

	var ce *ConfigError
	assert.True(t, errors.As(err, &ce))
	assert.Equal(t, 3, ce.Index)
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
