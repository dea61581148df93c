package render

import (
	"image"
	"image/color"
	"testing"

	"mask-annotator/internal/backend"
	"mask-annotator/internal/viewport"
	"mask-annotator/pkg/geometry"
)

// newRenderer sets up a 400x300 source shown at scale 0.5.
func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	tr := viewport.New()
	if err := tr.Fit(geometry.Size{Width: 400, Height: 300}, 200, 1000); err != nil {
		t.Fatal(err)
	}
	src := image.NewRGBA(image.Rect(0, 0, 400, 300))
	for i := range src.Pix {
		src.Pix[i] = 0x40
	}
	r := New(tr, nil)
	if err := r.SetSource(src); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestPickRadius(t *testing.T) {
	r := newRenderer(t)
	// Centroids in natural space; display = natural * 0.5.
	r.SetRecords([]backend.MaskRecord{
		{MaskID: "a", Centroid: geometry.Point2D{X: 100, Y: 100}},
		{MaskID: "b", Centroid: geometry.Point2D{X: 110, Y: 100}},
		{MaskID: "c", Centroid: geometry.Point2D{X: 300, Y: 200}},
	})

	tests := []struct {
		name   string
		p      geometry.Point2D
		wantID string
		wantOK bool
	}{
		{"exact", geometry.Point2D{X: 150, Y: 100}, "c", true},
		{"within 10", geometry.Point2D{X: 160, Y: 100}, "c", true},
		{"11 away", geometry.Point2D{X: 161, Y: 100}, "", false},
		{"overlap first wins", geometry.Point2D{X: 52, Y: 50}, "a", true},
		{"only second", geometry.Point2D{X: 64, Y: 50}, "b", true},
		{"nothing", geometry.Point2D{X: 0, Y: 149}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := r.Pick(tt.p)
			if id != tt.wantID || ok != tt.wantOK {
				t.Fatalf("Pick(%v) = %q, %v; want %q, %v", tt.p, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestBaseIncludesOverlay(t *testing.T) {
	r := newRenderer(t)
	overlay := image.NewRGBA(image.Rect(0, 0, 200, 150))
	overlay.SetRGBA(10, 10, color.RGBA{255, 255, 0, 255})
	r.RedrawBase(overlay)

	base := r.Layer(LayerBase)
	if got := base.RGBAAt(10, 10); got != (color.RGBA{255, 255, 0, 255}) {
		t.Fatalf("overlay pixel = %v", got)
	}
	if got := base.RGBAAt(11, 10); got.R != 0x40 {
		t.Fatalf("transparent overlay pixel changed the image: %v", got)
	}
}

func TestPreviewDoesNotStick(t *testing.T) {
	r := newRenderer(t)
	r.RedrawBase(nil)
	clean := append([]byte(nil), r.Layer(LayerBase).Pix...)

	r.DrawPreview(geometry.NewBox(geometry.Point2D{X: 20, Y: 20}, geometry.Point2D{X: 80, Y: 60}))
	if string(r.Layer(LayerBase).Pix) == string(clean) {
		t.Fatal("preview drew nothing")
	}
	r.RedrawBase(nil)
	if string(r.Layer(LayerBase).Pix) != string(clean) {
		t.Fatal("redraw should erase the previous preview")
	}
}

func TestBorderLifecycle(t *testing.T) {
	r := newRenderer(t)
	r.SetRecords([]backend.MaskRecord{{
		MaskID:   "m",
		Centroid: geometry.Point2D{X: 200, Y: 150},
		Contour:  []geometry.Point2D{{X: 100, Y: 100}, {X: 300, Y: 100}, {X: 300, Y: 200}, {X: 100, Y: 200}},
	}})

	if err := r.ShowBorder("nope"); err == nil {
		t.Fatal("unknown mask should fail")
	}
	if err := r.ShowBorder("m"); err != nil {
		t.Fatal(err)
	}
	border := r.Layer(LayerBorder)
	if border.RGBAAt(50, 50).A == 0 {
		t.Fatal("contour corner (50,50) in display space should be stroked")
	}
	if border.RGBAAt(100, 75).A != 0 {
		t.Fatal("contour interior should stay transparent")
	}

	r.ClearBorder()
	for _, v := range border.Pix {
		if v != 0 {
			t.Fatal("ClearBorder left pixels behind")
		}
	}

	r.ShowBorder("m")
	r.SetRecords(nil)
	if r.Selected() != "" {
		t.Fatal("selection should drop when its record disappears")
	}
}

func TestPointsAndCompose(t *testing.T) {
	r := newRenderer(t)
	r.SetRecords([]backend.MaskRecord{{MaskID: "m", Centroid: geometry.Point2D{X: 200, Y: 150}}})
	if r.Layer(LayerPoints).RGBAAt(100, 75).A == 0 {
		t.Fatal("marker missing at display centroid")
	}
	out := r.Compose()
	if out.Rect.Dx() != 200 || out.Rect.Dy() != 150 {
		t.Fatalf("compose size = %v", out.Rect)
	}
	if out.RGBAAt(100, 75) == out.RGBAAt(0, 0) {
		t.Fatal("marker not visible in composed output")
	}
}

func TestLassoPreview(t *testing.T) {
	r := newRenderer(t)
	points := r.Layer(LayerPoints)
	stroked := func() bool {
		for x := 20; x < 100; x++ {
			if points.RGBAAt(x, 20).A != 0 {
				return true
			}
		}
		return false
	}

	r.DrawLasso([]geometry.Point2D{{X: 20, Y: 20}, {X: 100, Y: 20}, {X: 100, Y: 100}})
	if !stroked() {
		t.Fatal("lasso path not drawn")
	}
	r.RedrawPoints()
	if stroked() {
		t.Fatal("lasso preview should be transient")
	}
	r.DrawLasso([]geometry.Point2D{{X: 20, Y: 20}})
	if stroked() {
		t.Fatal("a single point draws nothing")
	}
}
