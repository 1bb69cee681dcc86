package tensor

import "fmt"

// Shape is the fixed 3D extent of a tensor: width (X), height (Y) and depth (Z).
//
// Depth is the fastest-varying dimension in memory, so the flat index of
// (x, y, z) is ((X*y)+x)*Z + z.
type Shape struct {
	X int `json:"sx"`
	Y int `json:"sy"`
	Z int `json:"sz"`
}

// NewShape returns the shape (sx, sy, sz).
func NewShape(sx, sy, sz int) Shape {
	return Shape{X: sx, Y: sy, Z: sz}
}

// Len returns the total number of elements.
func (s Shape) Len() int {
	return s.X * s.Y * s.Z
}

// Validate checks that every dimension is positive.
func (s Shape) Validate() error {
	if s.X <= 0 || s.Y <= 0 || s.Z <= 0 {
		return fmt.Errorf("%w: invalid shape %v (all dimensions must be > 0)", ErrShapeMismatch, s)
	}
	return nil
}

// Equal reports whether two shapes are identical.
func (s Shape) Equal(other Shape) bool {
	return s == other
}

// Index returns the flat offset of (x, y, z) without bounds checking.
func (s Shape) Index(x, y, z int) int {
	return ((s.X*y)+x)*s.Z + z
}

// Contains reports whether (x, y, z) lies inside the shape.
func (s Shape) Contains(x, y, z int) bool {
	return x >= 0 && x < s.X && y >= 0 && y < s.Y && z >= 0 && z < s.Z
}

// String returns "(sx×sy×sz)".
func (s Shape) String() string {
	return fmt.Sprintf("(%d×%d×%d)", s.X, s.Y, s.Z)
}
