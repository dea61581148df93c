package main

import (
	"bytes"
	"encoding/json"
	"image"
	"path/filepath"
	"testing"

	"mask-annotator/internal/backend"
	maskimage "mask-annotator/internal/image"
)

func writeMask(t *testing.T, dir, name string, r image.Rectangle) string {
	t.Helper()
	g := image.NewGray(image.Rect(0, 0, 40, 30))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			g.Pix[y*g.Stride+x] = 200
		}
	}
	path := filepath.Join(dir, name)
	if err := maskimage.SavePNG(path, g); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	full := writeMask(t, dir, "abc.png", image.Rect(10, 10, 30, 20))
	empty := writeMask(t, dir, "empty.png", image.Rectangle{})
	missing := filepath.Join(dir, "missing.png")

	records, failed := collect([]string{full, empty, missing}, nil)
	if failed != 1 {
		t.Fatalf("failed = %d, want 1", failed)
	}
	if len(records) != 1 || records[0].MaskID != "abc" {
		t.Fatalf("records = %+v", records)
	}
	c := records[0].Centroid
	if c.X < 19 || c.X > 20 || c.Y < 14 || c.Y > 15 {
		t.Fatalf("centroid = %+v", c)
	}
	if len(records[0].Contour) < 4 {
		t.Fatalf("contour has %d points", len(records[0].Contour))
	}

	var buf bytes.Buffer
	if err := write(&buf, records, false); err != nil {
		t.Fatal(err)
	}
	var decoded []backend.MaskRecord
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded[0].MaskID != "abc" {
		t.Fatalf("decoded = %+v", decoded)
	}
}
