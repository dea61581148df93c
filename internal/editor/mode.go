package editor

import (
	"mask-annotator/internal/editerr"
	"mask-annotator/internal/mask"
	"mask-annotator/pkg/geometry"
)

// Mode is the active interaction tool.
type Mode int

const (
	ModeBoxSelect Mode = iota
	ModeBrushAdd
	ModeBrushSubtract
	ModeInspect
)

func (m Mode) String() string {
	switch m {
	case ModeBoxSelect:
		return "box-select"
	case ModeBrushAdd:
		return "brush-add"
	case ModeBrushSubtract:
		return "brush-subtract"
	case ModeInspect:
		return "inspect"
	default:
		return "unknown"
	}
}

// modeState handles pointer input for one mode. Each (mode, event) pair has
// exactly one handler; the controller never branches on the mode itself.
type modeState interface {
	mode() Mode
	enter(c *Controller)
	exit(c *Controller)
	pointerDown(c *Controller, p geometry.Point2D) error
	pointerMove(c *Controller, p geometry.Point2D) error
	pointerUp(c *Controller, p geometry.Point2D) error
	click(c *Controller, p geometry.Point2D) error
	hover(c *Controller, p geometry.Point2D)
	lasso(c *Controller, path []geometry.Point2D, closed bool) error
}

func newState(m Mode) modeState {
	switch m {
	case ModeBrushAdd:
		return &brushState{op: mask.Add}
	case ModeBrushSubtract:
		return &brushState{op: mask.Subtract}
	case ModeInspect:
		return &inspectState{}
	default:
		return &boxSelectState{}
	}
}

// boxSelectState drags out the segmentation prompt.
type boxSelectState struct {
	dragging bool
	start    geometry.Point2D
}

func (s *boxSelectState) mode() Mode { return ModeBoxSelect }

func (s *boxSelectState) enter(c *Controller) {
	c.selection = nil
	c.cancelSegmentation()
	c.mask.Reset()
	c.renderer.RedrawBase(nil)
}

func (s *boxSelectState) exit(c *Controller) {
	s.dragging = false
}

func (s *boxSelectState) pointerDown(c *Controller, p geometry.Point2D) error {
	if !c.transform.Ready() {
		return editerr.ErrNotReady
	}
	// A new box replaces the old one along with its mask and any pending
	// request for it.
	c.selection = nil
	c.cancelSegmentation()
	c.mask.Reset()
	c.renderer.RedrawBase(nil)
	s.dragging = true
	s.start = c.clampToDisplay(p)
	return nil
}

func (s *boxSelectState) pointerMove(c *Controller, p geometry.Point2D) error {
	if !s.dragging {
		return nil
	}
	c.renderer.DrawPreview(geometry.NewBox(s.start, c.clampToDisplay(p)))
	return nil
}

func (s *boxSelectState) pointerUp(c *Controller, p geometry.Point2D) error {
	if !s.dragging {
		return nil
	}
	s.dragging = false

	box := geometry.NewBox(s.start, c.clampToDisplay(p))
	if box.Empty() {
		c.renderer.RedrawBase(nil)
		return nil
	}
	c.selection = &box
	c.renderer.DrawPreview(box)
	c.logger.Debug("selection set", "box", box.Array())
	return nil
}

func (s *boxSelectState) click(c *Controller, p geometry.Point2D) error { return nil }
func (s *boxSelectState) hover(c *Controller, p geometry.Point2D)       {}

func (s *boxSelectState) lasso(c *Controller, path []geometry.Point2D, closed bool) error {
	return nil
}

// brushState paints into the mask while the pointer is held down.
type brushState struct {
	op       mask.Mode
	painting bool
}

func (s *brushState) mode() Mode {
	if s.op == mask.Subtract {
		return ModeBrushSubtract
	}
	return ModeBrushAdd
}

func (s *brushState) enter(c *Controller) {}

func (s *brushState) exit(c *Controller) {
	s.painting = false
	c.renderer.RedrawPoints()
}

func (s *brushState) pointerDown(c *Controller, p geometry.Point2D) error {
	if err := c.brushReady(); err != nil {
		return err
	}
	s.painting = true
	return c.paint(p, s.op)
}

func (s *brushState) pointerMove(c *Controller, p geometry.Point2D) error {
	s.hover(c, p)
	if !s.painting {
		return nil
	}
	if err := c.brushReady(); err != nil {
		s.painting = false
		return err
	}
	return c.paint(p, s.op)
}

func (s *brushState) pointerUp(c *Controller, p geometry.Point2D) error {
	s.painting = false
	return nil
}

func (s *brushState) click(c *Controller, p geometry.Point2D) error { return nil }

func (s *brushState) hover(c *Controller, p geometry.Point2D) {
	c.renderer.DrawBrushCursor(p, float64(c.brushSize))
}

// lasso previews an open path and fills it with the brush mode once closed.
func (s *brushState) lasso(c *Controller, path []geometry.Point2D, closed bool) error {
	if err := c.brushReady(); err != nil {
		c.renderer.RedrawPoints()
		return err
	}
	if !closed {
		c.renderer.DrawLasso(path)
		return nil
	}
	c.renderer.RedrawPoints()
	if geometry.PolygonArea(path) < 1 {
		return nil
	}
	return c.applyPolygon(path, s.op)
}

// inspectState ignores drawing input; clicks pick saved-mask markers.
type inspectState struct{}

func (s *inspectState) mode() Mode { return ModeInspect }

func (s *inspectState) enter(c *Controller) {}

func (s *inspectState) exit(c *Controller) {
	c.renderer.ClearBorder()
	c.renderer.SetRecords(nil)
}

func (s *inspectState) pointerDown(c *Controller, p geometry.Point2D) error { return nil }
func (s *inspectState) pointerMove(c *Controller, p geometry.Point2D) error { return nil }
func (s *inspectState) pointerUp(c *Controller, p geometry.Point2D) error   { return nil }
func (s *inspectState) hover(c *Controller, p geometry.Point2D)             {}

func (s *inspectState) lasso(c *Controller, path []geometry.Point2D, closed bool) error {
	return nil
}

func (s *inspectState) click(c *Controller, p geometry.Point2D) error {
	id, ok := c.renderer.Pick(p)
	if !ok {
		c.renderer.ClearBorder()
		return nil
	}
	c.logger.Debug("mask picked", "mask_id", id)
	return c.renderer.ShowBorder(id)
}
