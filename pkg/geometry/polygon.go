package geometry

import "math"

// PolygonArea returns the unsigned area of a closed polygon using the
// shoelace formula. Fewer than three vertices yield zero.
func PolygonArea(polygon []Point2D) float64 {
	if len(polygon) < 3 {
		return 0
	}
	var sum float64
	n := len(polygon)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += polygon[i].X*polygon[j].Y - polygon[j].X*polygon[i].Y
	}
	return math.Abs(sum) / 2
}

// BoundingBox returns the smallest box containing all points.
// The zero Box is returned for an empty slice.
func BoundingBox(points []Point2D) Box {
	if len(points) == 0 {
		return Box{}
	}
	b := Box{X0: points[0].X, Y0: points[0].Y, X1: points[0].X, Y1: points[0].Y}
	for _, p := range points[1:] {
		b.X0 = math.Min(b.X0, p.X)
		b.Y0 = math.Min(b.Y0, p.Y)
		b.X1 = math.Max(b.X1, p.X)
		b.Y1 = math.Max(b.Y1, p.Y)
	}
	return b
}

// ScalePolygon multiplies every vertex by factor, returning a new slice.
func ScalePolygon(polygon []Point2D, factor float64) []Point2D {
	out := make([]Point2D, len(polygon))
	for i, p := range polygon {
		out[i] = p.Scale(factor)
	}
	return out
}
