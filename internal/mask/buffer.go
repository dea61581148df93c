// Package mask holds the editable binary mask and its overlay rendering.
package mask

import (
	"fmt"
	"image"

	"mask-annotator/internal/editerr"
	maskimage "mask-annotator/internal/image"
	"mask-annotator/pkg/geometry"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
)

// Canonical pixel values.
const (
	Unset uint8 = 0
	Set   uint8 = 255
)

// Buffer is the mask being edited at display resolution. The canonical
// raster is the source of truth; the visualization raster is derived from it
// and updated in the same call as every mutation.
type Buffer struct {
	canonical *image.Gray
	vis       *image.RGBA
}

// NewBuffer returns an empty, uninitialized buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Initialized reports whether a mask has been loaded.
func (b *Buffer) Initialized() bool {
	return b.canonical != nil
}

// Size returns the buffer dimensions.
func (b *Buffer) Size() (geometry.Size, error) {
	if !b.Initialized() {
		return geometry.Size{}, editerr.ErrNotInitialized
	}
	r := b.canonical.Rect
	return geometry.Size{Width: r.Dx(), Height: r.Dy()}, nil
}

// InitializeFrom replaces both rasters with src resampled to display and
// binarized at 128.
func (b *Buffer) InitializeFrom(src image.Image, display geometry.Size) error {
	if src == nil || src.Bounds().Empty() {
		return fmt.Errorf("initialize mask: empty raster")
	}
	if display.Empty() {
		return fmt.Errorf("initialize mask: invalid display size %dx%d", display.Width, display.Height)
	}

	g := maskimage.ScaleGray(src, display, draw.ApproxBiLinear)
	maskimage.Binarize(g, maskimage.BinaryThreshold)
	b.canonical = g
	b.vis = Visualize(g)
	return nil
}

// Reset discards the mask.
func (b *Buffer) Reset() {
	b.canonical = nil
	b.vis = nil
}

// ApplyBrush writes the disc of the given radius around center, in display
// pixels. It returns the rectangle whose overlay pixels changed.
func (b *Buffer) ApplyBrush(center geometry.Point2D, radius float64, mode Mode) (image.Rectangle, error) {
	if !b.Initialized() {
		return image.Rectangle{}, editerr.ErrNotInitialized
	}
	if radius < 0 {
		return image.Rectangle{}, fmt.Errorf("apply brush: negative radius %v", radius)
	}

	dirty := paintDisc(b.canonical, center, radius, mode.value())
	return b.refresh(dirty), nil
}

// ApplyPolygon fills a closed polygon in display coordinates with the mode's
// value. Pixels whose coverage is at least half count as inside.
func (b *Buffer) ApplyPolygon(polygon []geometry.Point2D, mode Mode) (image.Rectangle, error) {
	if !b.Initialized() {
		return image.Rectangle{}, editerr.ErrNotInitialized
	}
	if len(polygon) < 3 {
		return image.Rectangle{}, fmt.Errorf("apply polygon: need at least 3 vertices, got %d", len(polygon))
	}

	r := b.canonical.Rect
	dc := gg.NewContext(r.Dx(), r.Dy())
	dc.MoveTo(polygon[0].X, polygon[0].Y)
	for _, p := range polygon[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.ClosePath()
	dc.SetRGB(1, 1, 1)
	dc.Fill()
	cover, ok := dc.Image().(*image.RGBA)
	if !ok {
		return image.Rectangle{}, fmt.Errorf("apply polygon: unexpected raster type %T", dc.Image())
	}

	box := geometry.BoundingBox(polygon)
	scan := image.Rect(int(box.X0)-1, int(box.Y0)-1, int(box.X1)+2, int(box.Y1)+2).Intersect(r)
	v := mode.value()
	for y := scan.Min.Y; y < scan.Max.Y; y++ {
		for x := scan.Min.X; x < scan.Max.X; x++ {
			if cover.Pix[cover.PixOffset(x, y)+3] >= maskimage.BinaryThreshold {
				b.canonical.Pix[b.canonical.PixOffset(x, y)] = v
			}
		}
	}
	return b.refresh(scan), nil
}

// refresh recomputes the overlay around an edited rectangle.
func (b *Buffer) refresh(edited image.Rectangle) image.Rectangle {
	if edited.Empty() {
		return image.Rectangle{}
	}
	dirty := edited.Inset(-1).Intersect(b.canonical.Rect)
	VisualizeRegion(b.canonical, b.vis, dirty)
	return dirty
}

// ExportAtResolution resamples the canonical raster to width x height and
// re-binarizes it so every pixel is exactly 0 or 255.
func (b *Buffer) ExportAtResolution(width, height int) (*image.Gray, error) {
	if !b.Initialized() {
		return nil, editerr.ErrNotInitialized
	}
	size := geometry.Size{Width: width, Height: height}
	if size.Empty() {
		return nil, fmt.Errorf("export mask: invalid size %dx%d", width, height)
	}

	out := maskimage.ScaleGray(b.canonical, size, draw.BiLinear)
	maskimage.Binarize(out, maskimage.BinaryThreshold)
	return out, nil
}

// Resize resamples the mask to a new display size, keeping it binary.
func (b *Buffer) Resize(display geometry.Size) error {
	if !b.Initialized() {
		return editerr.ErrNotInitialized
	}
	cur, _ := b.Size()
	if cur == display {
		return nil
	}
	g, err := b.ExportAtResolution(display.Width, display.Height)
	if err != nil {
		return err
	}
	b.canonical = g
	b.vis = Visualize(g)
	return nil
}

// Canonical returns the two-level raster. Callers must not modify it.
func (b *Buffer) Canonical() (*image.Gray, error) {
	if !b.Initialized() {
		return nil, editerr.ErrNotInitialized
	}
	return b.canonical, nil
}

// Visualization returns the overlay raster. Callers must not modify it.
func (b *Buffer) Visualization() (*image.RGBA, error) {
	if !b.Initialized() {
		return nil, editerr.ErrNotInitialized
	}
	return b.vis, nil
}

// Area returns the number of SET pixels.
func (b *Buffer) Area() int {
	if !b.Initialized() {
		return 0
	}
	n := 0
	for _, v := range b.canonical.Pix {
		if v == Set {
			n++
		}
	}
	return n
}
