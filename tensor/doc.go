// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public 3D tensor type used by toygrad.
//
// A Tensor has a fixed width, height and depth and pairs its value buffer
// with an equally shaped gradient buffer. Depth is the fastest-varying
// dimension, so the flat index of (x, y, z) is ((sx*y)+x)*sz + z.
//
// Example:
//
//	x := tensor.Vector(0, 1)                       // 1×1×2
//	img := tensor.Zeros(tensor.NewShape(28, 28, 1)) // 28×28×1
//	img.Set(3, 4, 0, 0.5)
//
//	rng := tensor.NewRand(42)
//	w := tensor.Randn(tensor.NewShape(1, 1, 16), rng)
package tensor
