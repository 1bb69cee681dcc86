// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand/v2"

	"github.com/born-ml/toygrad/internal/tensor"
)

// Tensor is a fixed-shape 3D float32 array with a gradient buffer.
type Tensor = tensor.Tensor

// Shape is the (X, Y, Z) extent of a tensor.
type Shape = tensor.Shape

// IndexError reports an out-of-range coordinate.
type IndexError = tensor.IndexError

// Errors.
var (
	ErrIndexOutOfRange = tensor.ErrIndexOutOfRange
	ErrShapeMismatch   = tensor.ErrShapeMismatch
)

// NewShape returns the shape (sx, sy, sz).
func NewShape(sx, sy, sz int) Shape {
	return tensor.NewShape(sx, sy, sz)
}

// Zeros creates a zero-filled tensor.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float32) *Tensor {
	return tensor.Full(shape, value)
}

// Randn creates a tensor drawn from N(0, 1/len) using rng.
func Randn(shape Shape, rng *rand.Rand) *Tensor {
	return tensor.Randn(shape, rng)
}

// Wrap creates a tensor that takes ownership of data.
func Wrap(shape Shape, data []float32) (*Tensor, error) {
	return tensor.Wrap(shape, data)
}

// FromSlice creates a tensor from a copy of data.
func FromSlice(shape Shape, data []float32) (*Tensor, error) {
	return tensor.FromSlice(shape, data)
}

// Vector creates a 1×1×n tensor from a copy of values.
func Vector(values ...float32) *Tensor {
	return tensor.Vector(values...)
}

// NewRand returns a deterministic generator for seed.
func NewRand(seed uint64) *rand.Rand {
	return tensor.NewRand(seed)
}
