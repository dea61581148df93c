package viewport

import (
	"errors"
	"math"
	"testing"

	"mask-annotator/internal/editerr"
	"mask-annotator/pkg/geometry"
)

func fitted(t *testing.T, w, h int, containerW, maxH float64) *Transform {
	t.Helper()
	tr := New()
	if err := tr.Fit(geometry.Size{Width: w, Height: h}, containerW, maxH); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	return tr
}

func TestFitScale(t *testing.T) {
	tests := []struct {
		name          string
		w, h          int
		containerW    float64
		maxH          float64
		wantScale     float64
		wantW, wantH  int
	}{
		{"width bound", 400, 300, 200, 1000, 0.5, 200, 150},
		{"height bound", 400, 300, 1000, 150, 0.5, 200, 150},
		{"upscale", 100, 50, 300, 300, 3, 300, 150},
		{"rounding", 333, 333, 100, 100, 100.0 / 333, 100, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := fitted(t, tt.w, tt.h, tt.containerW, tt.maxH)
			s, _ := tr.Scale()
			if math.Abs(s-tt.wantScale) > 1e-12 {
				t.Errorf("scale = %v, want %v", s, tt.wantScale)
			}
			d, _ := tr.DisplaySize()
			if d.Width != tt.wantW || d.Height != tt.wantH {
				t.Errorf("display = %dx%d, want %dx%d", d.Width, d.Height, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	tr := fitted(t, 1234, 567, 800, 600)
	for _, p := range []geometry.Point2D{{X: 0, Y: 0}, {X: 17.25, Y: 3.5}, {X: 1234, Y: 567}, {X: 600.1, Y: 0.9}} {
		d, err := tr.ToDisplay(p)
		if err != nil {
			t.Fatal(err)
		}
		back, err := tr.ToNatural(d)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
			t.Errorf("round trip %v -> %v -> %v", p, d, back)
		}
	}
}

func TestBoxToNatural(t *testing.T) {
	tr := fitted(t, 400, 300, 200, 1000)
	box := geometry.NewBox(geometry.Point2D{X: 50, Y: 50}, geometry.Point2D{X: 150, Y: 100})
	got, err := tr.BoxToNatural(box)
	if err != nil {
		t.Fatal(err)
	}
	want := geometry.Box{X0: 100, Y0: 100, X1: 300, Y1: 200}
	if got != want {
		t.Fatalf("BoxToNatural = %v, want %v", got, want)
	}
}

func TestBoxRoundTrip(t *testing.T) {
	tr := fitted(t, 400, 300, 200, 1000)
	natural := geometry.Box{X0: 100, Y0: 100, X1: 300, Y1: 200}
	display, err := tr.BoxToDisplay(natural)
	if err != nil {
		t.Fatal(err)
	}
	if display != (geometry.Box{X0: 50, Y0: 50, X1: 150, Y1: 100}) {
		t.Fatalf("BoxToDisplay = %v", display)
	}
	back, _ := tr.BoxToNatural(display)
	if back != natural {
		t.Fatalf("round trip = %v, want %v", back, natural)
	}
}

func TestNotReady(t *testing.T) {
	tr := New()
	if _, err := tr.ToDisplay(geometry.Point2D{}); !errors.Is(err, editerr.ErrNotReady) {
		t.Errorf("ToDisplay err = %v, want ErrNotReady", err)
	}
	if _, err := tr.ToNatural(geometry.Point2D{}); !errors.Is(err, editerr.ErrNotReady) {
		t.Errorf("ToNatural err = %v, want ErrNotReady", err)
	}
	if _, err := tr.DisplaySize(); !errors.Is(err, editerr.ErrNotReady) {
		t.Errorf("DisplaySize err = %v, want ErrNotReady", err)
	}

	tr = fitted(t, 10, 10, 10, 10)
	tr.Reset()
	if tr.Ready() {
		t.Error("Reset should clear readiness")
	}
}

func TestFitRejectsInvalid(t *testing.T) {
	tr := New()
	if err := tr.Fit(geometry.Size{}, 100, 100); err == nil {
		t.Error("expected error for empty image")
	}
	if err := tr.Fit(geometry.Size{Width: 10, Height: 10}, 0, 100); err == nil {
		t.Error("expected error for zero container width")
	}
	if tr.Ready() {
		t.Error("failed Fit must not mark transform ready")
	}
}
