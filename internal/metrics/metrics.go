// Package metrics exposes editor activity as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"mask-annotator/internal/editor"
	"mask-annotator/internal/mask"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts editor activity.
type Metrics struct {
	strokes       *prometheus.CounterVec
	segmentations *prometheus.CounterVec
	saves         *prometheus.CounterVec

	// In-flight segmentation count, exported as a gauge
	inFlight atomic.Int64

	registry *prometheus.Registry
}

var _ editor.Recorder = (*Metrics)(nil)

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		strokes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "annotator_brush_strokes_total",
			Help: "Brush and polygon edits applied to the mask",
		}, []string{"mode"}),
		segmentations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "annotator_segmentations_total",
			Help: "Segmentation requests by outcome",
		}, []string{"outcome"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "annotator_mask_saves_total",
			Help: "Mask persistence attempts by outcome",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(m.strokes, m.segmentations, m.saves)
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "annotator_segmentations_in_flight",
			Help: "Segmentation requests awaiting a response",
		},
		func() float64 { return float64(m.inFlight.Load()) },
	))
	return m
}

// ObserveStroke counts one mask edit.
func (m *Metrics) ObserveStroke(op mask.Mode) {
	m.strokes.WithLabelValues(op.String()).Inc()
}

// ObserveSegmentation counts a segmentation lifecycle step.
func (m *Metrics) ObserveSegmentation(outcome string) {
	m.segmentations.WithLabelValues(outcome).Inc()
	switch outcome {
	case editor.OutcomeStarted:
		m.inFlight.Add(1)
	case editor.OutcomeApplied, editor.OutcomeStale, editor.OutcomeFailed:
		if m.inFlight.Add(-1) < 0 {
			m.inFlight.Store(0)
		}
	}
}

// ObserveSave counts a persistence attempt.
func (m *Metrics) ObserveSave(outcome string) {
	m.saves.WithLabelValues(outcome).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve runs a /metrics endpoint on addr until ctx is canceled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if logger != nil {
		logger.Info("metrics listening", "addr", addr)
	}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
