// Package editor coordinates pointer input, the mask being edited, and the
// asynchronous segmentation and persistence collaborators.
package editor

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"

	"mask-annotator/internal/backend"
	"mask-annotator/internal/editerr"
	maskimage "mask-annotator/internal/image"
	"mask-annotator/internal/mask"
	"mask-annotator/internal/render"
	"mask-annotator/internal/viewport"
	"mask-annotator/pkg/geometry"
)

// Ticket identifies one segmentation request. Its result is applied only if
// no newer request, box reset, or image load happened in between.
type Ticket struct {
	Generation uint64
	Request    backend.SegmentRequest
}

// Controller is the single-threaded editing core. It is not safe for
// concurrent use; Session serializes access.
type Controller struct {
	cfg     Config
	logger  *slog.Logger
	metrics Recorder

	transform *viewport.Transform
	mask      *mask.Buffer
	renderer  *render.Renderer

	source     *maskimage.Source
	state      modeState
	resume     modeState // mode to return to when inspect ends
	brushSize  int
	selection  *geometry.Box // display space
	generation uint64
	pending    uint64 // generation of the in-flight segmentation, 0 if none
	epoch      uint64 // bumped on every image load

	containerW float64
	maxH       float64
}

// NewController creates a controller in BOX_SELECT mode with no image.
// A nil logger discards output and a nil recorder records nothing.
func NewController(cfg Config, logger *slog.Logger, metrics Recorder) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	t := viewport.New()
	c := &Controller{
		cfg:        cfg,
		logger:     logger.With("component", "editor"),
		metrics:    metrics,
		transform:  t,
		mask:       mask.NewBuffer(),
		renderer:   render.New(t, logger),
		state:      &boxSelectState{},
		brushSize:  cfg.clampBrush(cfg.BrushSize),
		containerW: cfg.ContainerWidth,
		maxH:       cfg.MaxDisplayHeight,
	}
	return c
}

// LoadImage fits src into the display area and starts a fresh edit in
// BOX_SELECT mode. Any in-flight request is invalidated.
func (c *Controller) LoadImage(src *maskimage.Source) error {
	if err := c.transform.Fit(src.Size(), c.containerW, c.maxH); err != nil {
		return fmt.Errorf("load image: %w", err)
	}
	c.source = src
	c.epoch++
	c.state.exit(c)
	c.resume = nil
	if err := c.renderer.SetSource(src.Image); err != nil {
		return fmt.Errorf("load image: %w", err)
	}
	c.renderer.SetRecords(nil)
	c.state = &boxSelectState{}
	c.state.enter(c)

	s, _ := c.transform.Scale()
	d, _ := c.transform.DisplaySize()
	c.logger.Info("image loaded", "name", src.Name(),
		"width", src.Width(), "height", src.Height(),
		"display_width", d.Width, "display_height", d.Height, "scale", s)
	return nil
}

// Resize refits the image into a new display area, resampling the mask and
// rescaling the selection so they stay aligned with the image.
func (c *Controller) Resize(containerW, maxH float64) error {
	if containerW <= 0 || maxH <= 0 {
		return fmt.Errorf("resize: invalid display area %.0fx%.0f", containerW, maxH)
	}
	c.containerW, c.maxH = containerW, maxH
	if c.source == nil {
		return nil
	}

	oldScale, _ := c.transform.Scale()
	var natural *geometry.Box
	if c.selection != nil {
		if b, err := c.transform.BoxToNatural(*c.selection); err == nil {
			natural = &b
		}
	}
	if err := c.transform.Fit(c.source.Size(), containerW, maxH); err != nil {
		return fmt.Errorf("resize: %w", err)
	}
	newScale, _ := c.transform.Scale()
	if newScale == oldScale {
		return nil
	}

	display, _ := c.transform.DisplaySize()
	if c.mask.Initialized() {
		if err := c.mask.Resize(display); err != nil {
			return fmt.Errorf("resize: %w", err)
		}
	}
	if natural != nil {
		box, err := c.transform.BoxToDisplay(*natural)
		if err != nil {
			return fmt.Errorf("resize: %w", err)
		}
		c.selection = &box
	}
	if err := c.renderer.Resize(); err != nil {
		return fmt.Errorf("resize: %w", err)
	}
	c.renderer.RedrawBase(c.overlay())
	if c.selection != nil && c.state.mode() == ModeBoxSelect {
		c.renderer.DrawPreview(*c.selection)
	}
	c.logger.Debug("viewport resized", "scale", newScale,
		"display_width", display.Width, "display_height", display.Height)
	return nil
}

// Mode returns the active mode.
func (c *Controller) Mode() Mode {
	return c.state.mode()
}

// SetMode switches tools. Entering BOX_SELECT always clears the box and the
// mask. Leaving INSPECT clears the outlined record.
func (c *Controller) SetMode(m Mode) {
	if m == c.state.mode() && m != ModeBoxSelect {
		return
	}
	prev := c.state
	prev.exit(c)
	if m == ModeInspect {
		c.resume = prev
	} else {
		c.resume = nil
	}
	c.state = newState(m)
	c.state.enter(c)
	c.logger.Debug("mode changed", "from", prev.mode(), "to", m)
}

// ExitInspect leaves INSPECT and returns to the mode that was active before
// it, keeping that mode's box and mask.
func (c *Controller) ExitInspect() {
	if c.state.mode() != ModeInspect {
		return
	}
	c.state.exit(c)
	next := c.resume
	if next == nil {
		next = &boxSelectState{}
	}
	c.resume = nil
	c.state = next
	if c.selection != nil && next.mode() == ModeBoxSelect {
		c.renderer.DrawPreview(*c.selection)
	}
	c.logger.Debug("mode changed", "from", ModeInspect, "to", next.mode())
}

// BrushSize returns the brush radius in display pixels.
func (c *Controller) BrushSize() int {
	return c.brushSize
}

// SetBrushSize sets the brush radius, clamped to the configured range.
func (c *Controller) SetBrushSize(size int) int {
	c.brushSize = c.cfg.clampBrush(size)
	return c.brushSize
}

// PointerDown forwards a press at display point p to the active mode.
func (c *Controller) PointerDown(p geometry.Point2D) error {
	return c.state.pointerDown(c, p)
}

// PointerMove forwards pointer motion to the active mode.
func (c *Controller) PointerMove(p geometry.Point2D) error {
	return c.state.pointerMove(c, p)
}

// PointerUp forwards a release to the active mode.
func (c *Controller) PointerUp(p geometry.Point2D) error {
	return c.state.pointerUp(c, p)
}

// Click forwards a click. Only INSPECT reacts to it.
func (c *Controller) Click(p geometry.Point2D) error {
	return c.state.click(c, p)
}

// Hover reports pointer motion with no button held.
func (c *Controller) Hover(p geometry.Point2D) {
	c.state.hover(c, p)
}

// PointerLeft clears transient pointer decorations.
func (c *Controller) PointerLeft() {
	c.renderer.RedrawPoints()
}

// Selection returns the current box in display coordinates.
func (c *Controller) Selection() (geometry.Box, bool) {
	if c.selection == nil {
		return geometry.Box{}, false
	}
	return *c.selection, true
}

// NaturalSelection returns the current box in natural image coordinates.
func (c *Controller) NaturalSelection() (geometry.Box, error) {
	if c.selection == nil {
		return geometry.Box{}, editerr.ErrEmptySelection
	}
	return c.transform.BoxToNatural(*c.selection)
}

// Busy reports whether a segmentation request is in flight.
func (c *Controller) Busy() bool {
	return c.pending != 0
}

// Epoch identifies the loaded image. Persistence results are checked
// against it.
func (c *Controller) Epoch() uint64 {
	return c.epoch
}

// Source returns the loaded image, or nil.
func (c *Controller) Source() *maskimage.Source {
	return c.source
}

// BeginSegmentation stamps a request for the current box. Brush and export
// are gated until the matching Complete or Abandon call.
func (c *Controller) BeginSegmentation() (Ticket, error) {
	if c.source == nil {
		return Ticket{}, editerr.ErrNotReady
	}
	box, err := c.NaturalSelection()
	if err != nil {
		return Ticket{}, err
	}
	ref := c.source.ID
	if ref == "" {
		ref = c.source.Path
	}

	c.generation++
	c.pending = c.generation
	c.metrics.ObserveSegmentation(OutcomeStarted)
	c.logger.Info("segmentation requested", "generation", c.generation, "box", box.Array())
	return Ticket{
		Generation: c.generation,
		Request:    backend.SegmentRequest{ImageRef: ref, Box: box},
	}, nil
}

// CompleteSegmentation seeds the mask from the collaborator's raster if the
// ticket is still current. A superseded ticket yields ErrStaleResponse and
// changes nothing.
func (c *Controller) CompleteSegmentation(t Ticket, raster image.Image) error {
	if !c.current(t) {
		c.metrics.ObserveSegmentation(OutcomeStale)
		return fmt.Errorf("segmentation %d: %w", t.Generation, editerr.ErrStaleResponse)
	}
	c.pending = 0

	display, err := c.transform.DisplaySize()
	if err != nil {
		return err
	}
	if err := c.mask.InitializeFrom(raster, display); err != nil {
		c.metrics.ObserveSegmentation(OutcomeFailed)
		return fmt.Errorf("segmentation %d: %w", t.Generation, err)
	}
	c.renderer.RedrawBase(c.overlay())
	if c.selection != nil && c.state.mode() == ModeBoxSelect {
		c.renderer.DrawPreview(*c.selection)
	}
	c.metrics.ObserveSegmentation(OutcomeApplied)
	c.logger.Info("segmentation applied", "generation", t.Generation, "area", c.mask.Area())
	return nil
}

// AbandonSegmentation releases the gate after a failed request. A ticket
// that was already superseded yields ErrStaleResponse.
func (c *Controller) AbandonSegmentation(t Ticket) error {
	if !c.current(t) {
		c.metrics.ObserveSegmentation(OutcomeStale)
		return fmt.Errorf("segmentation %d: %w", t.Generation, editerr.ErrStaleResponse)
	}
	c.pending = 0
	c.metrics.ObserveSegmentation(OutcomeFailed)
	return nil
}

func (c *Controller) current(t Ticket) bool {
	return t.Generation != 0 && t.Generation == c.generation && c.pending == t.Generation
}

// cancelSegmentation drops interest in any in-flight request.
func (c *Controller) cancelSegmentation() {
	if c.pending != 0 {
		c.logger.Debug("segmentation superseded", "generation", c.pending)
	}
	c.generation++
	c.pending = 0
}

// ExportMask returns the mask at the source image's natural resolution.
func (c *Controller) ExportMask() (*image.Gray, error) {
	if c.source == nil {
		return nil, editerr.ErrNotReady
	}
	if c.Busy() {
		return nil, editerr.ErrBusy
	}
	if !c.mask.Initialized() {
		return nil, fmt.Errorf("export: %w: %w", editerr.ErrEmptySelection, editerr.ErrNotInitialized)
	}
	return c.mask.ExportAtResolution(c.source.Width(), c.source.Height())
}

// SetRecords replaces the saved-mask snapshot shown in INSPECT.
func (c *Controller) SetRecords(records []backend.MaskRecord) {
	c.renderer.SetRecords(records)
}

// InspectSelection returns the outlined record, if any.
func (c *Controller) InspectSelection() (string, bool) {
	id := c.renderer.Selected()
	return id, id != ""
}

// Compose returns the flattened layers for display, or nil before an image
// is loaded. The image is reused by the next call.
func (c *Controller) Compose() *image.RGBA {
	return c.renderer.Compose()
}

// DisplaySize returns the size of the composed image.
func (c *Controller) DisplaySize() (geometry.Size, error) {
	return c.transform.DisplaySize()
}

// MaskArea returns the number of SET display pixels.
func (c *Controller) MaskArea() int {
	return c.mask.Area()
}

func (c *Controller) brushReady() error {
	if !c.transform.Ready() {
		return editerr.ErrNotReady
	}
	if c.Busy() {
		return editerr.ErrBusy
	}
	if !c.mask.Initialized() {
		return editerr.ErrNotInitialized
	}
	return nil
}

func (c *Controller) paint(p geometry.Point2D, op mask.Mode) error {
	if _, err := c.mask.ApplyBrush(p, float64(c.brushSize), op); err != nil {
		return err
	}
	c.renderer.RedrawBase(c.overlay())
	c.metrics.ObserveStroke(op)
	c.logger.Debug("brush applied", "x", p.X, "y", p.Y, "radius", c.brushSize, "mode", op)
	return nil
}

// Lasso forwards a freehand path in display coordinates. While open it is
// only previewed; once closed, the brush modes fill it into the mask. Other
// modes ignore it.
func (c *Controller) Lasso(path []geometry.Point2D, closed bool) error {
	return c.state.lasso(c, path, closed)
}

func (c *Controller) applyPolygon(polygon []geometry.Point2D, op mask.Mode) error {
	if _, err := c.mask.ApplyPolygon(polygon, op); err != nil {
		return err
	}
	c.renderer.RedrawBase(c.overlay())
	c.metrics.ObserveStroke(op)
	c.logger.Debug("lasso applied", "points", len(polygon), "mode", op)
	return nil
}

// overlay returns the mask visualization, or nil when there is no mask.
func (c *Controller) overlay() *image.RGBA {
	vis, err := c.mask.Visualization()
	if err != nil {
		return nil
	}
	return vis
}

// clampToDisplay keeps a box corner inside the displayed image.
func (c *Controller) clampToDisplay(p geometry.Point2D) geometry.Point2D {
	d, err := c.transform.DisplaySize()
	if err != nil {
		return p
	}
	return geometry.Point2D{
		X: math.Max(0, math.Min(p.X, float64(d.Width))),
		Y: math.Max(0, math.Min(p.Y, float64(d.Height))),
	}
}
