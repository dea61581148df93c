// Package colorutil provides the shared overlay palette and color helpers.
package colorutil

import (
	"image/color"
)

// Common overlay colors used throughout the application.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red     = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Green   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}

	Transparent = color.RGBA{}
)

// Mask overlay palette.
var (
	// MaskBoundary is drawn on SET pixels that touch an UNSET neighbor.
	MaskBoundary = Yellow
	// MaskInterior is the translucent fill for the remaining SET pixels.
	MaskInterior = color.NRGBA{R: 255, G: 0, B: 0, A: 180}
	// SelectionPreview strokes the live box while dragging.
	SelectionPreview = Red
	// RecordBorder outlines the selected saved mask in inspect mode.
	RecordBorder = Cyan
	// RecordMarker fills the centroid marker of each saved mask.
	RecordMarker = Magenta
	// BrushCursor outlines the brush footprint under the pointer.
	BrushCursor = White
)

// Luma returns the Rec. 601 luminance of c in the range 0-255.
func Luma(c color.Color) uint8 {
	r, g, b, _ := c.RGBA()
	// 16-bit channels; weights sum to 1000
	y := (299*r + 587*g + 114*b) / 1000
	return uint8(y >> 8)
}

// Premultiply converts a straight-alpha color into the premultiplied form
// stored in image.RGBA pixels.
func Premultiply(c color.NRGBA) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}
