// Package backend defines the collaborators the editor talks to and an HTTP
// client for the annotation server.
package backend

import (
	"context"
	"image"
	"io"

	"mask-annotator/pkg/geometry"
)

// MaskRecord describes a persisted mask in natural image coordinates.
type MaskRecord struct {
	MaskID   string             `json:"mask_id"`
	Centroid geometry.Point2D   `json:"centroid"`
	Contour  []geometry.Point2D `json:"contour"`
}

// SegmentRequest asks for a mask seeded by a box in natural coordinates.
type SegmentRequest struct {
	ImageRef string
	Box      geometry.Box
}

// UploadResult identifies an image stored by the server.
type UploadResult struct {
	ImageID   string `json:"image_id"`
	ImagePath string `json:"image_path"`
}

// Segmenter turns a box prompt into a binary raster at any resolution.
// Pixels with luminance >= 128 are selected.
type Segmenter interface {
	Segment(ctx context.Context, req SegmentRequest) (image.Image, error)
}

// Store persists masks at natural resolution and lists what it holds.
type Store interface {
	Save(ctx context.Context, maskID string, mask *image.Gray) error
	List(ctx context.Context) ([]MaskRecord, error)
}

// SessionResetter clears uploaded images and stored masks.
type SessionResetter interface {
	Reset(ctx context.Context) error
}

// Uploader sends the source image to the server.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (UploadResult, error)
}
