package geometry

import "testing"

func TestNewBoxNormalizes(t *testing.T) {
	tests := []struct {
		name string
		a, b Point2D
	}{
		{"down-right", Point2D{10, 20}, Point2D{30, 40}},
		{"up-left", Point2D{30, 40}, Point2D{10, 20}},
		{"up-right", Point2D{10, 40}, Point2D{30, 20}},
		{"down-left", Point2D{30, 20}, Point2D{10, 40}},
	}
	want := Box{X0: 10, Y0: 20, X1: 30, Y1: 40}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewBox(tt.a, tt.b); got != want {
				t.Fatalf("NewBox(%v, %v) = %v, want %v", tt.a, tt.b, got, want)
			}
		})
	}
}

func TestBoxEmpty(t *testing.T) {
	if !NewBox(Point2D{5, 5}, Point2D{5, 9}).Empty() {
		t.Error("zero-width box should be empty")
	}
	if NewBox(Point2D{5, 5}, Point2D{6, 9}).Empty() {
		t.Error("1x4 box should not be empty")
	}
}

func TestPolygonArea(t *testing.T) {
	square := []Point2D{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	if got := PolygonArea(square); got != 100 {
		t.Fatalf("PolygonArea(square) = %v, want 100", got)
	}
	if got := PolygonArea(square[:2]); got != 0 {
		t.Fatalf("PolygonArea(segment) = %v, want 0", got)
	}
}

func TestBoundingBox(t *testing.T) {
	pts := []Point2D{{3, 7}, {-1, 2}, {5, 4}}
	want := Box{X0: -1, Y0: 2, X1: 5, Y1: 7}
	if got := BoundingBox(pts); got != want {
		t.Fatalf("BoundingBox = %v, want %v", got, want)
	}
}
