package contour

import (
	"errors"
	"image"
	"math"
	"testing"

	"mask-annotator/pkg/geometry"
)

func rectMask(w, h int, r image.Rectangle) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			g.Pix[y*g.Stride+x] = 255
		}
	}
	return g
}

func TestCentroid(t *testing.T) {
	m := rectMask(20, 20, image.Rect(4, 6, 8, 10))
	c, ok := Centroid(m)
	if !ok {
		t.Fatal("expected centroid")
	}
	if c != (geometry.Point2D{X: 5.5, Y: 7.5}) {
		t.Fatalf("centroid = %v", c)
	}
	if _, ok := Centroid(image.NewGray(image.Rect(0, 0, 3, 3))); ok {
		t.Fatal("empty mask should have no centroid")
	}
}

func TestExtractRectangle(t *testing.T) {
	m := rectMask(100, 80, image.Rect(20, 10, 60, 50))
	res, err := Extract(m)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if math.Abs(res.Centroid.X-39.5) > 0.01 || math.Abs(res.Centroid.Y-29.5) > 0.01 {
		t.Fatalf("centroid = %v", res.Centroid)
	}
	if len(res.Contour) != 4 {
		t.Fatalf("contour has %d vertices, want 4: %v", len(res.Contour), res.Contour)
	}
	box := geometry.BoundingBox(res.Contour)
	if box != (geometry.Box{X0: 20, Y0: 10, X1: 59, Y1: 49}) {
		t.Fatalf("contour bounds = %v", box)
	}
}

func TestExtractPicksLargestRegion(t *testing.T) {
	m := rectMask(100, 100, image.Rect(5, 5, 10, 10))
	big := rectMask(100, 100, image.Rect(40, 40, 90, 90))
	for i, v := range big.Pix {
		if v != 0 {
			m.Pix[i] = v
		}
	}
	res, err := Extract(m)
	if err != nil {
		t.Fatal(err)
	}
	if b := geometry.BoundingBox(res.Contour); b.X0 < 40 {
		t.Fatalf("contour should follow the large region, bounds %v", b)
	}
}

func TestExtractEmpty(t *testing.T) {
	_, err := Extract(image.NewGray(image.Rect(0, 0, 10, 10)))
	if !errors.Is(err, ErrEmptyMask) {
		t.Fatalf("err = %v, want ErrEmptyMask", err)
	}
}
