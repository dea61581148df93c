package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCheckForUpdateFiresOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annotator")
	if err := os.WriteFile(path, []byte("v1"), 0o755); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	h, err := newHotReloader(path, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	fired := 0
	h.OnNewBinary(func() { fired++ })

	if h.checkForUpdate() {
		t.Fatal("unchanged binary reported as new")
	}
	if err := os.Chtimes(path, time.Now(), time.Now()); err != nil {
		t.Fatal(err)
	}
	if !h.checkForUpdate() || h.checkForUpdate() {
		t.Fatal("update should fire exactly once")
	}
	if fired != 1 {
		t.Fatalf("callback fired %d times", fired)
	}

	h.ResetBaseline()
	if h.checkForUpdate() {
		t.Fatal("baseline reset should absorb the current build")
	}
}

func TestNewHotReloaderMissingFile(t *testing.T) {
	if _, err := newHotReloader(filepath.Join(t.TempDir(), "missing"), 0, nil); err == nil {
		t.Fatal("expected error for missing binary")
	}
}
