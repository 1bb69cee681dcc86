package tensor

import "fmt"

// Tensor is a fixed-shape 3D array of float32 values with an equally shaped
// gradient buffer.
//
// The value buffer holds activations or parameters. The gradient buffer is
// accumulated during a backward pass and is zeroed at the start of the next
// one, so callers must not assume gradients persist across steps.
//
// A Tensor exclusively owns both buffers. Data and Grad return views, not
// copies: writes through them modify the tensor.
type Tensor struct {
	shape Shape
	w     []float32
	dw    []float32
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Len returns the number of elements.
func (t *Tensor) Len() int {
	return len(t.w)
}

// Data returns the value buffer (zero-copy).
func (t *Tensor) Data() []float32 {
	return t.w
}

// Grad returns the gradient buffer (zero-copy).
func (t *Tensor) Grad() []float32 {
	return t.dw
}

// ZeroGrad clears the gradient buffer, allocating it if needed.
//
// Every layer calls ZeroGrad on its stored input before writing input
// gradients, which is what makes gradient buffers per-step state.
func (t *Tensor) ZeroGrad() {
	if len(t.dw) != len(t.w) {
		t.dw = make([]float32, len(t.w))
		return
	}
	clear(t.dw)
}

// index returns the flat offset of (x, y, z), panicking with an *IndexError
// when the coordinate lies outside the tensor.
func (t *Tensor) index(x, y, z int) int {
	if !t.shape.Contains(x, y, z) {
		panic(&IndexError{X: x, Y: y, Z: z, Shape: t.shape})
	}
	return t.shape.Index(x, y, z)
}

// Get returns the value at (x, y, z).
func (t *Tensor) Get(x, y, z int) float32 {
	return t.w[t.index(x, y, z)]
}

// Set stores v at (x, y, z).
func (t *Tensor) Set(x, y, z int, v float32) {
	t.w[t.index(x, y, z)] = v
}

// Add adds v to the value at (x, y, z).
func (t *Tensor) Add(x, y, z int, v float32) {
	t.w[t.index(x, y, z)] += v
}

// GetGrad returns the gradient at (x, y, z).
func (t *Tensor) GetGrad(x, y, z int) float32 {
	return t.dw[t.index(x, y, z)]
}

// SetGrad stores v as the gradient at (x, y, z).
func (t *Tensor) SetGrad(x, y, z int, v float32) {
	t.dw[t.index(x, y, z)] = v
}

// AddGrad adds v to the gradient at (x, y, z).
func (t *Tensor) AddGrad(x, y, z int, v float32) {
	t.dw[t.index(x, y, z)] += v
}

// Clone returns a tensor with an independent copy of the values and a
// freshly zeroed gradient buffer.
func (t *Tensor) Clone() *Tensor {
	w := make([]float32, len(t.w))
	copy(w, t.w)
	return &Tensor{
		shape: t.shape,
		w:     w,
		dw:    make([]float32, len(w)),
	}
}

// ZerosLike returns a zero-valued tensor of the same shape.
func (t *Tensor) ZerosLike() *Tensor {
	return Zeros(t.shape)
}

// String returns a human-readable representation of the tensor.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor[float32]%v", t.shape)
}

// Reshape returns a view of t with a different shape of the same length.
// The view shares both buffers with t; t itself is returned when the shapes
// already match.
func (t *Tensor) Reshape(shape Shape) (*Tensor, error) {
	if shape == t.shape {
		return t, nil
	}
	if shape.Len() != len(t.w) {
		return nil, fmt.Errorf("%w: cannot view %v as %v", ErrShapeMismatch, t.shape, shape)
	}
	if len(t.dw) != len(t.w) {
		t.dw = make([]float32, len(t.w))
	}
	return &Tensor{shape: shape, w: t.w, dw: t.dw}, nil
}
