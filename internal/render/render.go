// Package render draws the editor's layer stack: the image with its mask
// overlay, the selected record's outline, and the record markers.
package render

import (
	"fmt"
	"image"
	"io"
	"log/slog"

	"mask-annotator/internal/backend"
	maskimage "mask-annotator/internal/image"
	"mask-annotator/internal/viewport"
	"mask-annotator/pkg/colorutil"
	"mask-annotator/pkg/geometry"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
)

const (
	// PickRadius is how close, in display pixels, a click must be to a marker.
	PickRadius = 10.0

	markerRadius     = 5.0
	borderLineWidth  = 3.0
	previewLineWidth = 2.0
	previewDash      = 6.0
	cursorLineWidth  = 1.0
)

// Layer names, bottom to top.
const (
	LayerBase   = "base"
	LayerBorder = "border"
	LayerPoints = "points"
)

// Renderer owns one pixel buffer per layer. Collaborators only receive the
// composed output or read-only layer views.
type Renderer struct {
	transform *viewport.Transform
	logger    *slog.Logger

	size    geometry.Size
	source  image.Image
	scaled  *image.RGBA
	overlay *image.RGBA

	base   *maskimage.Layer
	border *maskimage.Layer
	points *maskimage.Layer
	stack  *maskimage.Composite
	output *image.RGBA

	records  []backend.MaskRecord
	selected string
}

// New creates a renderer bound to a transform. A nil logger discards output.
func New(t *viewport.Transform, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Renderer{transform: t, logger: logger.With("component", "render")}
}

// SetSource scales img to the current display size and allocates the layers.
func (r *Renderer) SetSource(img image.Image) error {
	r.source = img
	r.overlay = nil
	r.selected = ""
	return r.Resize()
}

// Resize reallocates every layer for the transform's display size and
// redraws them.
func (r *Renderer) Resize() error {
	if r.source == nil {
		return fmt.Errorf("render: no source image")
	}
	size, err := r.transform.DisplaySize()
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if r.overlay != nil && r.overlay.Rect.Size() != image.Pt(size.Width, size.Height) {
		r.overlay = nil
	}

	r.size = size
	r.scaled = maskimage.ScaleRGBA(r.source, size, draw.CatmullRom)
	r.base = maskimage.NewLayer(LayerBase, size.Width, size.Height)
	r.border = maskimage.NewLayer(LayerBorder, size.Width, size.Height)
	r.points = maskimage.NewLayer(LayerPoints, size.Width, size.Height)
	r.stack = maskimage.NewComposite(size.Width, size.Height)
	r.stack.AddLayer(r.base)
	r.stack.AddLayer(r.border)
	r.stack.AddLayer(r.points)
	r.output = image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))

	r.RedrawBase(r.overlay)
	r.redrawBorder()
	r.RedrawPoints()
	r.logger.Debug("layers allocated", "width", size.Width, "height", size.Height)
	return nil
}

// Ready reports whether a source image has been laid out.
func (r *Renderer) Ready() bool {
	return r.base != nil
}

// Size returns the display size of every layer.
func (r *Renderer) Size() geometry.Size {
	return r.size
}

// Clear drops the source image and all layers.
func (r *Renderer) Clear() {
	*r = Renderer{transform: r.transform, logger: r.logger}
}

// RedrawBase paints the scaled image followed by overlay, which may be nil.
// The overlay's own per-pixel alpha is the only blending applied.
func (r *Renderer) RedrawBase(overlay *image.RGBA) {
	if !r.Ready() {
		return
	}
	r.overlay = overlay
	draw.Draw(r.base.Image, r.base.Image.Rect, r.scaled, image.Point{}, draw.Src)
	if overlay != nil {
		draw.Draw(r.base.Image, r.base.Image.Rect, overlay, image.Point{}, draw.Over)
	}
}

// DrawPreview redraws the base layer and strokes a dashed rectangle for the
// live selection box in display coordinates.
func (r *Renderer) DrawPreview(box geometry.Box) {
	if !r.Ready() {
		return
	}
	r.RedrawBase(r.overlay)
	dc := gg.NewContextForRGBA(r.base.Image)
	dc.SetColor(colorutil.SelectionPreview)
	dc.SetLineWidth(previewLineWidth)
	dc.SetDash(previewDash, previewDash)
	dc.DrawRectangle(box.X0, box.Y0, box.Width(), box.Height())
	dc.Stroke()
}

// SetRecords replaces the cached record snapshot and redraws the markers.
// A selected record that no longer exists is cleared.
func (r *Renderer) SetRecords(records []backend.MaskRecord) {
	r.records = append([]backend.MaskRecord(nil), records...)
	if r.selected != "" {
		if _, ok := r.record(r.selected); !ok {
			r.selected = ""
			r.redrawBorder()
		}
	}
	r.RedrawPoints()
}

// Records returns the cached snapshot.
func (r *Renderer) Records() []backend.MaskRecord {
	return r.records
}

// ShowBorder outlines the record with the given ID.
func (r *Renderer) ShowBorder(maskID string) error {
	if _, ok := r.record(maskID); !ok {
		return fmt.Errorf("render: unknown mask %q", maskID)
	}
	r.selected = maskID
	r.redrawBorder()
	return nil
}

// ClearBorder empties the border layer.
func (r *Renderer) ClearBorder() {
	r.selected = ""
	r.redrawBorder()
}

// Selected returns the outlined record ID, or "".
func (r *Renderer) Selected() string {
	return r.selected
}

func (r *Renderer) redrawBorder() {
	if !r.Ready() {
		return
	}
	r.border.Clear()
	rec, ok := r.record(r.selected)
	if !ok || len(rec.Contour) < 2 {
		return
	}
	poly, err := r.transform.PolygonToDisplay(rec.Contour)
	if err != nil {
		return
	}

	dc := gg.NewContextForRGBA(r.border.Image)
	dc.SetColor(colorutil.RecordBorder)
	dc.SetLineWidth(borderLineWidth)
	dc.SetLineJoinRound()
	dc.MoveTo(poly[0].X, poly[0].Y)
	for _, p := range poly[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.ClosePath()
	dc.Stroke()
}

// RedrawPoints draws a filled marker at every record centroid.
func (r *Renderer) RedrawPoints() {
	if !r.Ready() {
		return
	}
	r.points.Clear()
	if len(r.records) == 0 {
		return
	}
	dc := gg.NewContextForRGBA(r.points.Image)
	for _, rec := range r.records {
		p, err := r.transform.ToDisplay(rec.Centroid)
		if err != nil {
			return
		}
		dc.DrawCircle(p.X, p.Y, markerRadius)
		dc.SetColor(colorutil.RecordMarker)
		dc.FillPreserve()
		dc.SetColor(colorutil.White)
		dc.SetLineWidth(1)
		dc.Stroke()
	}
}

// DrawBrushCursor redraws the markers and outlines the brush footprint.
func (r *Renderer) DrawBrushCursor(center geometry.Point2D, radius float64) {
	if !r.Ready() {
		return
	}
	r.RedrawPoints()
	dc := gg.NewContextForRGBA(r.points.Image)
	dc.SetColor(colorutil.BrushCursor)
	dc.SetLineWidth(cursorLineWidth)
	dc.DrawCircle(center.X, center.Y, radius)
	dc.Stroke()
}

// DrawLasso redraws the markers and strokes an open lasso path.
func (r *Renderer) DrawLasso(path []geometry.Point2D) {
	if !r.Ready() {
		return
	}
	r.RedrawPoints()
	if len(path) < 2 {
		return
	}
	dc := gg.NewContextForRGBA(r.points.Image)
	dc.SetColor(colorutil.BrushCursor)
	dc.SetLineWidth(cursorLineWidth)
	dc.SetDash(previewDash/2, previewDash/2)
	dc.MoveTo(path[0].X, path[0].Y)
	for _, p := range path[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.Stroke()
}

// Pick returns the first record, in list order, whose marker lies within
// PickRadius of p.
func (r *Renderer) Pick(p geometry.Point2D) (string, bool) {
	for _, rec := range r.records {
		c, err := r.transform.ToDisplay(rec.Centroid)
		if err != nil {
			return "", false
		}
		if c.Distance(p) <= PickRadius {
			return rec.MaskID, true
		}
	}
	return "", false
}

// Compose flattens the layers. The returned image is reused by the next call.
func (r *Renderer) Compose() *image.RGBA {
	if !r.Ready() {
		return nil
	}
	r.stack.RenderInto(r.output)
	return r.output
}

// Layer returns a read-only view of a named layer.
func (r *Renderer) Layer(name string) *image.RGBA {
	if !r.Ready() {
		return nil
	}
	switch name {
	case LayerBase:
		return r.base.Image
	case LayerBorder:
		return r.border.Image
	case LayerPoints:
		return r.points.Image
	}
	return nil
}

func (r *Renderer) record(maskID string) (backend.MaskRecord, bool) {
	if maskID == "" {
		return backend.MaskRecord{}, false
	}
	for _, rec := range r.records {
		if rec.MaskID == maskID {
			return rec, true
		}
	}
	return backend.MaskRecord{}, false
}
