package image

import (
	"bytes"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"mask-annotator/pkg/geometry"

	"golang.org/x/image/draw"
)

func TestLoadPNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	path := filepath.Join(t.TempDir(), "photo.png")
	if err := SavePNG(path, img); err != nil {
		t.Fatal(err)
	}
	src, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if src.Size() != (geometry.Size{Width: 40, Height: 30}) {
		t.Fatalf("size = %v", src.Size())
	}
	if src.Format != "png" || src.Name() != "photo.png" {
		t.Fatalf("format=%q name=%q", src.Format, src.Name())
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestIsSupportedFormat(t *testing.T) {
	for path, want := range map[string]bool{
		"a.PNG": true, "b.tif": true, "c.webp": true, "d.gif": false, "e": false,
	} {
		if got := IsSupportedFormat(path); got != want {
			t.Errorf("IsSupportedFormat(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestScaleGrayBinarize(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = 200
	}
	src.SetGray(0, 0, color.Gray{Y: 10})
	g := ScaleGray(src, geometry.Size{Width: 8, Height: 8}, draw.NearestNeighbor)
	Binarize(g, BinaryThreshold)
	for _, v := range g.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("non-binary value %d", v)
		}
	}
	if g.GrayAt(0, 0).Y != 0 || g.GrayAt(1, 1).Y != 0 {
		t.Error("top-left block should be UNSET")
	}
	if g.GrayAt(7, 7).Y != 255 {
		t.Error("bottom-right should be SET")
	}
}

func TestCompositeOver(t *testing.T) {
	c := NewComposite(2, 1)
	base := NewLayer("base", 2, 1)
	base.Image.SetRGBA(0, 0, color.RGBA{0, 0, 255, 255})
	base.Image.SetRGBA(1, 0, color.RGBA{0, 0, 255, 255})
	top := NewLayer("top", 2, 1)
	top.Image.SetRGBA(1, 0, color.RGBA{255, 0, 0, 255})
	c.AddLayer(base)
	c.AddLayer(top)

	out := c.Render()
	if got := out.RGBAAt(0, 0); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("pixel 0 = %v", got)
	}
	if got := out.RGBAAt(1, 0); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("pixel 1 = %v", got)
	}

	top.Visible = false
	out = c.Render()
	if got := out.RGBAAt(1, 0); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("hidden layer leaked: %v", got)
	}
}
