// Package toolbar provides the editor's tool row: mode buttons, brush size,
// and the backend actions.
package toolbar

import (
	"fmt"

	"mask-annotator/internal/editor"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Actions are invoked from the main goroutine when a control is used.
type Actions struct {
	SetMode      func(editor.Mode)
	SetBrushSize func(int) int
	Predict      func()
	Save         func()
	ShowMasks    func()
	HideMasks    func()
	Upload       func()
}

// Toolbar holds the controls so their state can follow the session.
type Toolbar struct {
	actions Actions

	add, subtract, exitEdit *widget.Button
	boxSelect, predict      *widget.Button
	save, masks, upload     *widget.Button
	brush                   *widget.Slider
	brushLabel              *widget.Label

	inspecting bool
	row        *fyne.Container
}

// New builds the toolbar. brushSize is the initial radius and is shown
// clamped to [minBrush, maxBrush].
func New(actions Actions, brushSize, minBrush, maxBrush int) *Toolbar {
	tb := &Toolbar{actions: actions}

	tb.add = widget.NewButton("Add", func() { tb.setMode(editor.ModeBrushAdd) })
	tb.subtract = widget.NewButton("Subtract", func() { tb.setMode(editor.ModeBrushSubtract) })
	tb.exitEdit = widget.NewButton("Exit edit", func() { tb.setMode(editor.ModeBoxSelect) })
	tb.boxSelect = widget.NewButton("Box select", func() { tb.setMode(editor.ModeBoxSelect) })
	tb.predict = widget.NewButton("Run prediction", func() { call(actions.Predict) })
	tb.save = widget.NewButton("Save mask", func() { call(actions.Save) })
	tb.masks = widget.NewButton("Show masks", tb.toggleMasks)
	tb.upload = widget.NewButton("Upload", func() { call(actions.Upload) })

	tb.brushLabel = widget.NewLabel("")
	tb.brush = widget.NewSlider(float64(minBrush), float64(maxBrush))
	tb.brush.Step = 1
	tb.brush.SetValue(float64(min(max(brushSize, minBrush), maxBrush)))
	tb.brushLabel.SetText(brushText(int(tb.brush.Value)))
	tb.brush.OnChanged = func(v float64) {
		size := int(v)
		if actions.SetBrushSize != nil {
			size = actions.SetBrushSize(size)
		}
		tb.brushLabel.SetText(brushText(size))
	}

	slider := container.NewGridWrap(fyne.NewSize(160, tb.brush.MinSize().Height), tb.brush)
	tb.row = container.NewHBox(
		tb.upload,
		widget.NewSeparator(),
		tb.boxSelect,
		tb.predict,
		widget.NewSeparator(),
		tb.add,
		tb.subtract,
		tb.exitEdit,
		tb.brushLabel,
		slider,
		widget.NewSeparator(),
		tb.save,
		tb.masks,
	)
	tb.Update(editor.ModeBoxSelect, false)
	return tb
}

func brushText(size int) string {
	return fmt.Sprintf("Brush %d px", size)
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

func (tb *Toolbar) setMode(m editor.Mode) {
	if tb.actions.SetMode != nil {
		tb.actions.SetMode(m)
	}
}

func (tb *Toolbar) toggleMasks() {
	if tb.inspecting {
		call(tb.actions.HideMasks)
	} else {
		call(tb.actions.ShowMasks)
	}
}

// Object returns the widget row.
func (tb *Toolbar) Object() fyne.CanvasObject {
	return tb.row
}

// BrushSize returns the slider value.
func (tb *Toolbar) BrushSize() int {
	return int(tb.brush.Value)
}

// Update reflects the active mode and whether a segmentation is in flight.
func (tb *Toolbar) Update(mode editor.Mode, busy bool) {
	tb.inspecting = mode == editor.ModeInspect
	if tb.inspecting {
		tb.masks.SetText("Hide masks")
	} else {
		tb.masks.SetText("Show masks")
	}

	highlight(tb.boxSelect, mode == editor.ModeBoxSelect)
	highlight(tb.add, mode == editor.ModeBrushAdd)
	highlight(tb.subtract, mode == editor.ModeBrushSubtract)
	highlight(tb.masks, tb.inspecting)

	enable(tb.add, !busy && !tb.inspecting)
	enable(tb.subtract, !busy && !tb.inspecting)
	enable(tb.exitEdit, mode == editor.ModeBrushAdd || mode == editor.ModeBrushSubtract)
	enable(tb.predict, !busy && mode == editor.ModeBoxSelect)
	enable(tb.save, !busy && !tb.inspecting)
}

func highlight(b *widget.Button, on bool) {
	want := widget.MediumImportance
	if on {
		want = widget.HighImportance
	}
	if b.Importance != want {
		b.Importance = want
		b.Refresh()
	}
}

func enable(b *widget.Button, on bool) {
	if on {
		b.Enable()
	} else {
		b.Disable()
	}
}
