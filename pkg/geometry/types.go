// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Scale returns the point scaled by a factor.
func (p Point2D) Scale(factor float64) Point2D {
	return Point2D{X: p.X * factor, Y: p.Y * factor}
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether either dimension is non-positive.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Box is an axis-aligned rectangle stored as corner coordinates.
// A Box built with NewBox always satisfies X0 <= X1 and Y0 <= Y1.
type Box struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// NewBox returns the normalized box spanned by two corner points,
// regardless of the direction they were given in.
func NewBox(a, b Point2D) Box {
	return Box{
		X0: math.Min(a.X, b.X),
		Y0: math.Min(a.Y, b.Y),
		X1: math.Max(a.X, b.X),
		Y1: math.Max(a.Y, b.Y),
	}
}

// Width returns X1 - X0.
func (b Box) Width() float64 {
	return b.X1 - b.X0
}

// Height returns Y1 - Y0.
func (b Box) Height() float64 {
	return b.Y1 - b.Y0
}

// Empty reports whether the box has zero area.
func (b Box) Empty() bool {
	return b.Width() <= 0 || b.Height() <= 0
}

// Scale multiplies every coordinate by factor.
func (b Box) Scale(factor float64) Box {
	return Box{X0: b.X0 * factor, Y0: b.Y0 * factor, X1: b.X1 * factor, Y1: b.Y1 * factor}
}

// Array returns the box as [x0, y0, x1, y1], the form used on the wire.
func (b Box) Array() [4]float64 {
	return [4]float64{b.X0, b.Y0, b.X1, b.Y1}
}
