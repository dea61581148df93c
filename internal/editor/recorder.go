package editor

import "mask-annotator/internal/mask"

// Segmentation and save outcomes reported to a Recorder.
const (
	OutcomeStarted = "started"
	OutcomeApplied = "applied"
	OutcomeStale   = "stale"
	OutcomeFailed  = "failed"
	OutcomeSaved   = "saved"
)

// Recorder receives editor activity counts.
type Recorder interface {
	ObserveStroke(op mask.Mode)
	ObserveSegmentation(outcome string)
	ObserveSave(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveStroke(mask.Mode)    {}
func (nopRecorder) ObserveSegmentation(string) {}
func (nopRecorder) ObserveSave(string)         {}
