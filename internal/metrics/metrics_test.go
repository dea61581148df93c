package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"mask-annotator/internal/mask"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	m.ObserveStroke(mask.Add)
	m.ObserveStroke(mask.Add)
	m.ObserveStroke(mask.Subtract)
	m.ObserveSegmentation("started")
	m.ObserveSegmentation("started")
	m.ObserveSegmentation("stale")
	m.ObserveSave("saved")

	if got := testutil.ToFloat64(m.strokes.WithLabelValues("add")); got != 2 {
		t.Errorf("add strokes = %v", got)
	}
	if got := testutil.ToFloat64(m.segmentations.WithLabelValues("stale")); got != 1 {
		t.Errorf("stale = %v", got)
	}
	if got := m.inFlight.Load(); got != 1 {
		t.Errorf("in flight = %d", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveSave("failed")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `annotator_mask_saves_total{outcome="failed"} 1`) {
		t.Fatalf("metrics output missing save counter:\n%s", body)
	}
}
