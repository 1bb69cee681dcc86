// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"errors"
	"testing"

	"github.com/born-ml/toygrad/tensor"
)

// TestPublicAPI exercises the facade end to end.
func TestPublicAPI(t *testing.T) {
	x, err := tensor.FromSlice(tensor.NewShape(2, 1, 2), []float32{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	if got := x.Get(1, 0, 0); got != 3 {
		t.Errorf("Get(1, 0, 0) = %v, want 3", got)
	}

	v := tensor.Vector(5, 6)
	if !v.Shape().Equal(tensor.NewShape(1, 1, 2)) {
		t.Errorf("Vector shape = %v, want (1×1×2)", v.Shape())
	}

	_, err = tensor.Wrap(tensor.NewShape(3, 1, 1), []float32{1})
	if !errors.Is(err, tensor.ErrShapeMismatch) {
		t.Errorf("Wrap error = %v, want ErrShapeMismatch", err)
	}
}

// TestOutOfRange verifies the panic value type.
func TestOutOfRange(t *testing.T) {
	defer func() {
		r := recover()
		var ie *tensor.IndexError
		err, ok := r.(error)
		if !ok || !errors.As(err, &ie) {
			t.Fatalf("recovered %v, want *tensor.IndexError", r)
		}
		if !errors.Is(err, tensor.ErrIndexOutOfRange) {
			t.Errorf("IndexError does not match ErrIndexOutOfRange")
		}
	}()
	tensor.Zeros(tensor.NewShape(1, 1, 1)).Get(0, 0, 1)
}
