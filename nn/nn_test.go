// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"errors"
	"testing"

	"github.com/born-ml/toygrad/nn"
)

func TestNew(t *testing.T) {
	net, err := nn.New([]nn.Options{
		{Type: nn.TypeInput, Sx: 4, Sy: 4, Sz: 1},
		{Type: nn.TypeConv, Sx: 3, Filters: 2, Pad: 1},
		{Type: nn.TypeRelu},
		{Type: nn.TypePool, Sx: 2},
		{Type: nn.TypeDense, Filters: 3},
		{Type: nn.TypeSoftmax},
	}, nn.WithSeed(1), nn.WithParallel())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	out, err := net.Predict(make([]float32, 16))
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if len(out) != 3 {
		t.Errorf("len(out) = %d, want 3", len(out))
	}
}

func TestNew_ConfigError(t *testing.T) {
	_, err := nn.New([]nn.Options{
		{Type: nn.TypeInput, Sx: 1, Sy: 1, Sz: 2},
		{Type: nn.TypeDense, Filters: 2},
	})
	var ce *nn.ConfigError
	if !errors.As(err, &ce) || ce.Index != 1 {
		t.Fatalf("err = %v, want ConfigError at index 1", err)
	}
	if !errors.Is(err, nn.ErrConfiguration) {
		t.Errorf("err does not match ErrConfiguration")
	}
}
