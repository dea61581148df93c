package mask

import (
	"bytes"
	"image"
	"math"
	"testing"

	maskimage "mask-annotator/internal/image"
	"mask-annotator/pkg/geometry"
)

func disc(w, h, cx, cy int, r float64) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if math.Hypot(float64(x-cx), float64(y-cy)) <= r {
				g.Pix[y*g.Stride+x] = Set
			}
		}
	}
	return g
}

func TestVisualizeDeterministic(t *testing.T) {
	g := disc(40, 30, 17, 12, 9)
	a := Visualize(g)
	b := Visualize(g)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatal("Visualize must be deterministic")
	}
}

func TestVisualizeDiscRing(t *testing.T) {
	for _, r := range []float64{2, 3.5, 8} {
		g := disc(32, 32, 16, 16, r)
		out := Visualize(g)
		for y := 0; y < 32; y++ {
			for x := 0; x < 32; x++ {
				px := out.RGBAAt(x, y)
				if g.GrayAt(x, y).Y == Unset {
					if px.A != 0 {
						t.Fatalf("r=%v (%d,%d): UNSET pixel not transparent", r, x, y)
					}
					continue
				}
				ring := false
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if g.GrayAt(x+dx, y+dy).Y == Unset {
							ring = true
						}
					}
				}
				want := interiorRGBA
				if ring {
					want = boundaryRGBA
				}
				if px != want {
					t.Fatalf("r=%v (%d,%d): got %v, want %v (ring=%v)", r, x, y, px, want, ring)
				}
			}
		}
	}
}

func TestVisualizeImageEdgeIsBoundary(t *testing.T) {
	g := solid(5, 4, Set)
	out := Visualize(g)
	for y := 0; y < 4; y++ {
		for x := 0; x < 5; x++ {
			edge := x == 0 || y == 0 || x == 4 || y == 3
			want := interiorRGBA
			if edge {
				want = boundaryRGBA
			}
			if got := out.RGBAAt(x, y); got != want {
				t.Fatalf("(%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestVisualizeRegionMatchesFull(t *testing.T) {
	g := disc(30, 30, 10, 10, 6)
	vis := Visualize(g)

	dirty := paintDisc(g, pointAt(20, 18), 5, Set)
	VisualizeRegion(g, vis, dirty.Inset(-1))
	if !bytes.Equal(vis.Pix, Visualize(g).Pix) {
		t.Fatal("region update differs from full recompute")
	}
}

func pointAt(x, y float64) geometry.Point2D {
	return geometry.Point2D{X: x, Y: y}
}

func TestVisualizeOffsetOrigin(t *testing.T) {
	g := disc(40, 30, 20, 15, 6)
	sub := g.SubImage(image.Rect(10, 5, 30, 25)).(*image.Gray)
	want := Visualize(maskimage.ToGray(sub))
	got := Visualize(sub)
	if got.Bounds() != image.Rect(0, 0, 20, 20) {
		t.Fatalf("bounds = %v", got.Bounds())
	}
	if !bytes.Equal(got.Pix, want.Pix) {
		t.Fatal("sub-image overlay differs from the same pixels at origin 0")
	}
	if got.RGBAAt(10, 10) != interiorRGBA {
		t.Fatalf("center = %v, want interior", got.RGBAAt(10, 10))
	}
}
