package layer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/born-ml/toygrad/internal/tensor"
)

// gradTolerance is the relative tolerance of float32 central differences.
const gradTolerance = 1e-2

var centralDiff = &fd.Settings{Formula: fd.Central, Step: 1e-2}

// mustBuild chains layer constructors the way a network does.
func mustBuild(t *testing.T, descs ...Options) []Layer {
	t.Helper()
	env := DefaultEnv()
	var prev Layer
	layers := make([]Layer, 0, len(descs))
	for _, d := range descs {
		l, err := New(d, prev, env)
		require.NoError(t, err, "building %s", d.Type)
		layers = append(layers, l)
		prev = l
	}
	return layers
}

// hiddenOn builds input(shape) followed by desc and returns the hidden layer.
func hiddenOn(t *testing.T, shape tensor.Shape, desc Options) Hidden {
	t.Helper()
	layers := mustBuild(t, Options{Type: TypeInput, Sx: shape.X, Sy: shape.Y, Sz: shape.Z}, desc)
	h, ok := layers[1].(Hidden)
	require.True(t, ok, "%s is not a hidden layer", desc.Type)
	return h
}

// spread returns a deterministic input whose values stay away from zero and
// from each other, so kinks in relu/pool never sit inside a finite-difference
// step.
func spread(shape tensor.Shape) *tensor.Tensor {
	x := tensor.Zeros(shape)
	for i := range x.Data() {
		sign := float32(1)
		if i%3 == 1 {
			sign = -1
		}
		x.Data()[i] = sign * (0.3 + 0.17*float32(i%7) + 0.05*float32(i))
	}
	return x
}

// coefficients returns the fixed weights c of the probe loss Σ c[i]·out[i].
func coefficients(n int) []float32 {
	c := make([]float32, n)
	for i := range c {
		c[i] = float32(math.Sin(float64(i)+0.5)) + 0.1
	}
	return c
}

func probe(out *tensor.Tensor, c []float32) float64 {
	var s float64
	for i, v := range out.Data() {
		s += float64(v) * float64(c[i])
	}
	return s
}

// numericGrad differentiates f with respect to buf in place.
func numericGrad(buf []float32, f func() float64) []float64 {
	x := make([]float64, len(buf))
	for i, v := range buf {
		x[i] = float64(v)
	}
	grad := make([]float64, len(buf))
	fd.Gradient(grad, func(p []float64) float64 {
		for i, v := range p {
			buf[i] = float32(v)
		}
		return f()
	}, x, centralDiff)
	for i, v := range x {
		buf[i] = float32(v)
	}
	return grad
}

func assertGradClose(t *testing.T, numeric []float64, analytic []float32, what string) {
	t.Helper()
	require.Len(t, analytic, len(numeric), what)
	for i, n := range numeric {
		tol := gradTolerance * math.Max(1, math.Abs(n))
		assert.InDelta(t, n, float64(analytic[i]), tol, "%s[%d]", what, i)
	}
}

// checkHiddenGradients compares Backward against central differences of
// the probe loss, for the input and for every parameter tensor.
func checkHiddenGradients(t *testing.T, l Hidden, x *tensor.Tensor) {
	t.Helper()
	c := coefficients(l.OutShape().Len())
	loss := func() float64 { return probe(l.Forward(x, false), c) }

	wantDx := numericGrad(x.Data(), loss)
	wantParams := make([][]float64, 0)
	for _, pg := range l.ParamsAndGrads() {
		wantParams = append(wantParams, numericGrad(pg.Params, loss))
	}

	for _, pg := range l.ParamsAndGrads() {
		clear(pg.Grads)
	}
	out := l.Forward(x, false)
	copy(out.Grad(), c)
	require.NoError(t, l.Backward())

	assertGradClose(t, wantDx, x.Grad(), "dx")
	for i, pg := range l.ParamsAndGrads() {
		assertGradClose(t, wantParams[i], pg.Grads, "param")
	}
}

// checkOutputGradients compares the loss gradient of an output layer
// against central differences of the loss it returns.
func checkOutputGradients(t *testing.T, l Output, x *tensor.Tensor, target Target) {
	t.Helper()
	loss := func() float64 {
		l.Forward(x, false)
		v, err := l.Backward(target)
		require.NoError(t, err)
		return float64(v)
	}
	want := numericGrad(x.Data(), loss)

	l.Forward(x, false)
	_, err := l.Backward(target)
	require.NoError(t, err)
	assertGradClose(t, want, x.Grad(), "dx")
}
