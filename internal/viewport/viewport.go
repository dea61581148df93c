// Package viewport maps between natural image pixels and the scaled display.
package viewport

import (
	"fmt"
	"math"

	"mask-annotator/internal/editerr"
	"mask-annotator/pkg/geometry"
)

// Transform holds the uniform scale that fits the natural image into the
// display area. The scale is computed once per Fit and reused by every
// conversion so both directions agree exactly.
type Transform struct {
	natural geometry.Size
	display geometry.Size
	scale   float64
	ready   bool
}

// New returns a Transform with no image loaded.
func New() *Transform {
	return &Transform{}
}

// Fit computes s = min(containerW/naturalW, maxH/naturalH) and the rounded
// display size.
func (t *Transform) Fit(natural geometry.Size, containerW, maxH float64) error {
	if natural.Empty() {
		return fmt.Errorf("fit %dx%d: invalid image size", natural.Width, natural.Height)
	}
	if containerW <= 0 || maxH <= 0 {
		return fmt.Errorf("fit into %.0fx%.0f: invalid display area", containerW, maxH)
	}

	s := math.Min(containerW/float64(natural.Width), maxH/float64(natural.Height))
	t.natural = natural
	t.scale = s
	t.display = geometry.Size{
		Width:  int(math.Round(float64(natural.Width) * s)),
		Height: int(math.Round(float64(natural.Height) * s)),
	}
	t.ready = true
	return nil
}

// Reset forgets the current image.
func (t *Transform) Reset() {
	*t = Transform{}
}

// Ready reports whether an image has been fitted.
func (t *Transform) Ready() bool {
	return t.ready
}

// Scale returns s.
func (t *Transform) Scale() (float64, error) {
	if !t.ready {
		return 0, editerr.ErrNotReady
	}
	return t.scale, nil
}

// NaturalSize returns the source image dimensions.
func (t *Transform) NaturalSize() (geometry.Size, error) {
	if !t.ready {
		return geometry.Size{}, editerr.ErrNotReady
	}
	return t.natural, nil
}

// DisplaySize returns (round(w*s), round(h*s)).
func (t *Transform) DisplaySize() (geometry.Size, error) {
	if !t.ready {
		return geometry.Size{}, editerr.ErrNotReady
	}
	return t.display, nil
}

// ToDisplay converts a natural-space point to display space.
func (t *Transform) ToDisplay(p geometry.Point2D) (geometry.Point2D, error) {
	if !t.ready {
		return geometry.Point2D{}, editerr.ErrNotReady
	}
	return p.Scale(t.scale), nil
}

// ToNatural converts a display-space point to natural space.
func (t *Transform) ToNatural(p geometry.Point2D) (geometry.Point2D, error) {
	if !t.ready {
		return geometry.Point2D{}, editerr.ErrNotReady
	}
	return geometry.Point2D{X: p.X / t.scale, Y: p.Y / t.scale}, nil
}

// BoxToNatural divides each coordinate of a display box by s.
func (t *Transform) BoxToNatural(b geometry.Box) (geometry.Box, error) {
	if !t.ready {
		return geometry.Box{}, editerr.ErrNotReady
	}
	return geometry.Box{
		X0: b.X0 / t.scale,
		Y0: b.Y0 / t.scale,
		X1: b.X1 / t.scale,
		Y1: b.Y1 / t.scale,
	}, nil
}

// BoxToDisplay multiplies each coordinate of a natural box by s.
func (t *Transform) BoxToDisplay(b geometry.Box) (geometry.Box, error) {
	if !t.ready {
		return geometry.Box{}, editerr.ErrNotReady
	}
	return b.Scale(t.scale), nil
}

// PolygonToDisplay scales a natural-space polygon into display space.
func (t *Transform) PolygonToDisplay(poly []geometry.Point2D) ([]geometry.Point2D, error) {
	if !t.ready {
		return nil, editerr.ErrNotReady
	}
	return geometry.ScalePolygon(poly, t.scale), nil
}
