package toolbar

import (
	"testing"

	"mask-annotator/internal/editor"

	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
)

func TestButtonsInvokeActions(t *testing.T) {
	test.NewApp()
	var modes []editor.Mode
	var calls []string
	tb := New(Actions{
		SetMode:   func(m editor.Mode) { modes = append(modes, m) },
		Predict:   func() { calls = append(calls, "predict") },
		Save:      func() { calls = append(calls, "save") },
		ShowMasks: func() { calls = append(calls, "show") },
		HideMasks: func() { calls = append(calls, "hide") },
		Upload:    func() { calls = append(calls, "upload") },
	}, 10, 1, 50)

	test.Tap(tb.add)
	test.Tap(tb.subtract)
	test.Tap(tb.boxSelect)
	if len(modes) != 3 || modes[0] != editor.ModeBrushAdd || modes[1] != editor.ModeBrushSubtract || modes[2] != editor.ModeBoxSelect {
		t.Fatalf("modes = %v", modes)
	}

	test.Tap(tb.upload)
	test.Tap(tb.predict)
	test.Tap(tb.save)
	test.Tap(tb.masks)
	tb.Update(editor.ModeInspect, false)
	test.Tap(tb.masks)

	want := []string{"upload", "predict", "save", "show", "hide"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
}

func TestUpdateFollowsState(t *testing.T) {
	test.NewApp()
	tb := New(Actions{}, 10, 1, 50)

	if !tb.exitEdit.Disabled() {
		t.Fatal("exit edit should be disabled in box select")
	}
	if tb.boxSelect.Importance != widget.HighImportance {
		t.Fatal("box select should be highlighted initially")
	}

	tb.Update(editor.ModeBrushAdd, false)
	if tb.exitEdit.Disabled() || !tb.predict.Disabled() {
		t.Fatal("brush mode enables exit edit and disables prediction")
	}

	tb.Update(editor.ModeBoxSelect, true)
	if !tb.add.Disabled() || !tb.save.Disabled() || !tb.predict.Disabled() {
		t.Fatal("busy should gate brush, save and prediction")
	}

	tb.Update(editor.ModeInspect, false)
	if tb.masks.Text != "Hide masks" {
		t.Fatalf("masks label = %q", tb.masks.Text)
	}
}

func TestBrushSliderClamps(t *testing.T) {
	test.NewApp()
	var got int
	tb := New(Actions{SetBrushSize: func(n int) int { got = n; return n }}, 80, 1, 50)
	if tb.BrushSize() != 50 {
		t.Fatalf("initial = %d", tb.BrushSize())
	}
	tb.brush.SetValue(25)
	if got != 25 || tb.brushLabel.Text != "Brush 25 px" {
		t.Fatalf("got %d label %q", got, tb.brushLabel.Text)
	}
}
