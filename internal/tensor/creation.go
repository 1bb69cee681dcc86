package tensor

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Zeros creates a zero-filled tensor.
func Zeros(shape Shape) *Tensor {
	n := shape.Len()
	return &Tensor{
		shape: shape,
		w:     make([]float32, n),
		dw:    make([]float32, n),
	}
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float32) *Tensor {
	t := Zeros(shape)
	if value != 0 {
		for i := range t.w {
			t.w[i] = value
		}
	}
	return t
}

// Randn creates a tensor with values drawn from N(0, 1/len).
//
// The standard deviation sqrt(1/len) keeps the dot product of a filter with
// a unit-scale input near unit scale.
func Randn(shape Shape, rng *rand.Rand) *Tensor {
	t := Zeros(shape)
	scale := math.Sqrt(1.0 / float64(shape.Len()))
	for i := range t.w {
		t.w[i] = float32(rng.NormFloat64() * scale)
	}
	return t
}

// Wrap creates a tensor that takes ownership of data without copying.
func Wrap(shape Shape, data []float32) (*Tensor, error) {
	if shape.Len() != len(data) {
		return nil, fmt.Errorf("%w: shape %v requires %d elements, but got %d", ErrShapeMismatch, shape, shape.Len(), len(data))
	}
	return &Tensor{
		shape: shape,
		w:     data,
		dw:    make([]float32, len(data)),
	}, nil
}

// FromSlice creates a tensor from a copy of data.
//
// Example:
//
//	x, err := tensor.FromSlice(tensor.NewShape(1, 1, 2), []float32{0, 1})
func FromSlice(shape Shape, data []float32) (*Tensor, error) {
	w := make([]float32, len(data))
	copy(w, data)
	return Wrap(shape, w)
}

// Vector creates a 1×1×len(values) tensor from a copy of values.
func Vector(values ...float32) *Tensor {
	t, err := FromSlice(NewShape(1, 1, len(values)), values)
	if err != nil {
		panic(err) // shape derived from len(values)
	}
	return t
}

// NewRand returns a deterministic PCG-backed generator for seed.
//
// Weight initialisation and dropout masks take their randomness from an
// explicit *rand.Rand so tests and training runs can be reproduced.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
