// Package editerr defines the error kinds shared by the mask editor components.
package editerr

import "errors"

var (
	// ErrNotReady is returned by coordinate operations before an image is loaded.
	ErrNotReady = errors.New("no image loaded")
	// ErrNotInitialized is returned by mask operations before a mask exists.
	ErrNotInitialized = errors.New("mask not initialized")
	// ErrEmptySelection is returned when segmentation is requested without a box.
	ErrEmptySelection = errors.New("empty selection")
	// ErrStaleResponse marks a collaborator response that belongs to an
	// earlier request generation. It is dropped without notifying the operator.
	ErrStaleResponse = errors.New("stale response")
	// ErrBusy is returned when an operation is gated by an in-flight segmentation.
	ErrBusy = errors.New("segmentation in progress")
)

// Message maps an error to the sentence shown in the status bar.
// It returns "" for errors the operator should not see.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStaleResponse):
		return ""
	case errors.Is(err, ErrEmptySelection):
		return "Select a region first"
	case errors.Is(err, ErrNotReady):
		return "Load an image first"
	case errors.Is(err, ErrNotInitialized):
		return "Run a prediction before editing the mask"
	case errors.Is(err, ErrBusy):
		return "Waiting for segmentation to finish"
	default:
		return "Error: " + err.Error()
	}
}

// Silent reports whether err should be dropped without operator feedback.
func Silent(err error) bool {
	return errors.Is(err, ErrStaleResponse)
}
