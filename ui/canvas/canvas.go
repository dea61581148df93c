// Package canvas provides the fyne widget that shows the composed editor
// layers and forwards pointer input to the editor.
package canvas

import (
	"image"
	"sync"

	"mask-annotator/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// Editor is the part of the editing session the canvas drives.
type Editor interface {
	PointerDown(p geometry.Point2D) error
	PointerMove(p geometry.Point2D) error
	PointerUp(p geometry.Point2D) error
	Click(p geometry.Point2D) error
	Hover(p geometry.Point2D)
	PointerLeft()
	Lasso(path []geometry.Point2D, closed bool) error
	Render() *image.RGBA
	DisplaySize() (geometry.Size, error)
	Resize(containerW, maxH float64) error
}

var placeholderSize = fyne.NewSize(400, 300)

// EditorCanvas displays the editor's composite at display resolution.
// Widget coordinates map one to one onto display pixels.
type EditorCanvas struct {
	widget.BaseWidget

	editor Editor
	image  *fynecanvas.Image
	maxH   float64

	mu        sync.Mutex
	pressed   bool
	lasso     []geometry.Point2D
	lastWidth float32
}

var (
	_ desktop.Mouseable = (*EditorCanvas)(nil)
	_ desktop.Hoverable = (*EditorCanvas)(nil)
	_ fyne.Tappable     = (*EditorCanvas)(nil)
)

// NewEditorCanvas creates a canvas bound to ed. maxH caps the display
// height when the widget is laid out.
func NewEditorCanvas(ed Editor, maxH float64) *EditorCanvas {
	img := fynecanvas.NewImageFromImage(nil)
	img.FillMode = fynecanvas.ImageFillContain
	img.ScaleMode = fynecanvas.ImageScalePixels
	img.SetMinSize(placeholderSize)

	ec := &EditorCanvas{editor: ed, image: img, maxH: maxH}
	ec.ExtendBaseWidget(ec)
	return ec
}

// Refresh re-renders the composite and resizes the image to the current
// display size.
func (ec *EditorCanvas) Refresh() {
	if out := ec.editor.Render(); out != nil {
		ec.image.Image = out
		ec.image.SetMinSize(fyne.NewSize(float32(out.Rect.Dx()), float32(out.Rect.Dy())))
	} else {
		ec.image.Image = nil
		ec.image.SetMinSize(placeholderSize)
	}
	ec.image.Refresh()
	ec.BaseWidget.Refresh()
}

// Fit recomputes the display size for the given container width.
func (ec *EditorCanvas) Fit(width float32) {
	if width <= 0 {
		return
	}
	ec.mu.Lock()
	ec.lastWidth = width
	ec.mu.Unlock()
	if err := ec.editor.Resize(float64(width), ec.maxH); err == nil {
		ec.Refresh()
	}
}

// inside rejects positions outside the widget; fyne can deliver events
// slightly past the edges while the pointer is captured.
func (ec *EditorCanvas) inside(pos fyne.Position) bool {
	size, err := ec.editor.DisplaySize()
	if err != nil {
		return false
	}
	return pos.X >= 0 && pos.Y >= 0 &&
		float64(pos.X) <= float64(size.Width) && float64(pos.Y) <= float64(size.Height)
}

func toPoint(pos fyne.Position) geometry.Point2D {
	return geometry.Point2D{X: float64(pos.X), Y: float64(pos.Y)}
}

// MouseDown starts a drag or a brush stroke. With Shift held it starts a
// lasso path instead.
func (ec *EditorCanvas) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || !ec.inside(ev.Position) {
		return
	}
	p := toPoint(ev.Position)
	ec.mu.Lock()
	ec.pressed = true
	lasso := ev.Modifier&fyne.KeyModifierShift != 0
	if lasso {
		ec.lasso = []geometry.Point2D{p}
	}
	ec.mu.Unlock()
	if !lasso {
		ec.editor.PointerDown(p)
	}
	ec.Refresh()
}

// MouseUp ends the current gesture. Releases outside the image still end
// it so a drag cannot get stuck.
func (ec *EditorCanvas) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	p := ec.clamp(ev.Position)
	ec.mu.Lock()
	was := ec.pressed
	ec.pressed = false
	path := ec.lasso
	ec.lasso = nil
	if path != nil {
		path = append(path, p)
	}
	ec.mu.Unlock()
	switch {
	case !was:
		return
	case path != nil:
		ec.editor.Lasso(path, true)
	default:
		ec.editor.PointerUp(p)
	}
	ec.Refresh()
}

// Tapped forwards clicks; only INSPECT reacts to them.
func (ec *EditorCanvas) Tapped(ev *fyne.PointEvent) {
	if !ec.inside(ev.Position) {
		return
	}
	ec.editor.Click(toPoint(ev.Position))
	ec.Refresh()
}

func (ec *EditorCanvas) MouseIn(ev *desktop.MouseEvent) {
	ec.MouseMoved(ev)
}

// MouseMoved extends a drag while the button is held and moves the brush
// cursor otherwise.
func (ec *EditorCanvas) MouseMoved(ev *desktop.MouseEvent) {
	ec.mu.Lock()
	pressed := ec.pressed
	var path []geometry.Point2D
	if pressed && ec.lasso != nil {
		ec.lasso = append(ec.lasso, ec.clamp(ev.Position))
		path = append([]geometry.Point2D(nil), ec.lasso...)
	}
	ec.mu.Unlock()
	if path != nil {
		ec.editor.Lasso(path, false)
	} else if pressed {
		ec.editor.PointerMove(ec.clamp(ev.Position))
	} else if ec.inside(ev.Position) {
		ec.editor.Hover(toPoint(ev.Position))
	} else {
		ec.editor.PointerLeft()
	}
	ec.Refresh()
}

func (ec *EditorCanvas) MouseOut() {
	ec.editor.PointerLeft()
	ec.Refresh()
}

func (ec *EditorCanvas) clamp(pos fyne.Position) geometry.Point2D {
	p := toPoint(pos)
	size, err := ec.editor.DisplaySize()
	if err != nil {
		return p
	}
	p.X = min(max(p.X, 0), float64(size.Width))
	p.Y = min(max(p.Y, 0), float64(size.Height))
	return p
}

// CreateRenderer implements fyne.Widget.
func (ec *EditorCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &editorCanvasRenderer{canvas: ec}
}

type editorCanvasRenderer struct {
	canvas *EditorCanvas
}

func (r *editorCanvasRenderer) Layout(size fyne.Size) {
	ec := r.canvas
	ec.mu.Lock()
	changed := size.Width != ec.lastWidth
	ec.mu.Unlock()
	if changed {
		ec.Fit(size.Width)
	}
	ec.image.Move(fyne.NewPos(0, 0))
	ec.image.Resize(ec.image.MinSize())
}

func (r *editorCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *editorCanvasRenderer) Refresh() {
	r.canvas.image.Refresh()
}

func (r *editorCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.image}
}

func (r *editorCanvasRenderer) Destroy() {}
