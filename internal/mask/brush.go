package mask

import (
	"image"
	"math"

	"mask-annotator/pkg/geometry"
)

// Mode selects whether an edit sets or clears pixels.
type Mode int

const (
	Add      Mode = iota // write SET
	Subtract             // write UNSET
)

func (m Mode) String() string {
	switch m {
	case Add:
		return "add"
	case Subtract:
		return "subtract"
	default:
		return "unknown"
	}
}

// value returns the canonical pixel value written by the mode.
func (m Mode) value() uint8 {
	if m == Add {
		return Set
	}
	return Unset
}

// discBounds returns the pixel rectangle that can contain points within
// radius of center, clipped to bounds.
func discBounds(center geometry.Point2D, radius float64, bounds image.Rectangle) image.Rectangle {
	r := image.Rect(
		int(math.Floor(center.X-radius)),
		int(math.Floor(center.Y-radius)),
		int(math.Ceil(center.X+radius))+1,
		int(math.Ceil(center.Y+radius))+1,
	)
	return r.Intersect(bounds)
}

// paintDisc writes v into every pixel of g whose integer coordinate lies
// within radius of center. It returns the rectangle that was scanned.
func paintDisc(g *image.Gray, center geometry.Point2D, radius float64, v uint8) image.Rectangle {
	rect := discBounds(center, radius, g.Rect)
	r2 := radius * radius
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		dy := float64(y) - center.Y
		row := g.Pix[g.PixOffset(0, y):]
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dx := float64(x) - center.X
			if dx*dx+dy*dy <= r2 {
				row[x] = v
			}
		}
	}
	return rect
}
