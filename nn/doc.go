// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides feed-forward networks built from layer descriptions.
//
// # Overview
//
// A network is an ordered list of layers: one input layer, any number of
// hidden layers and one output (loss) layer.
//   - Input: input
//   - Hidden: dense, conv, pool, dropout, maxout, relu, leakyrelu, sigmoid, tanh
//   - Output: regression (L2), softmax (cross-entropy)
//
// # Basic Usage
//
//	net, err := nn.New([]nn.Options{
//	    {Type: nn.TypeInput, Sx: 28, Sy: 28, Sz: 1},
//	    {Type: nn.TypeConv, Sx: 5, Filters: 8, Pad: 2},
//	    {Type: nn.TypeRelu},
//	    {Type: nn.TypePool, Sx: 2},
//	    {Type: nn.TypeDense, Filters: 10},
//	    {Type: nn.TypeSoftmax},
//	}, nn.WithSeed(1))
//
//	probs, err := net.Predict(pixels)
//
// # Persistence
//
// Export returns the descriptions with parameters encoded as text; the
// result rebuilds an identical network and can be served by a Predictor:
//
//	model, err := net.Export(nn.F32)
//	p, err := nn.NewPredictor(model)
//
// SaveCheckpoint and LoadCheckpoint store a network together with its
// trainer state in a binary file.
package nn
