package image

import (
	"image"
	"image/color"

	"mask-annotator/pkg/geometry"

	"golang.org/x/image/draw"
)

// BinaryThreshold separates SET from UNSET when reading external rasters.
const BinaryThreshold = 128

// ScaleRGBA renders src into a new RGBA of the given size.
func ScaleRGBA(src image.Image, size geometry.Size, scaler draw.Scaler) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// ScaleGray converts src to grayscale and resamples it to size.
func ScaleGray(src image.Image, size geometry.Size, scaler draw.Scaler) *image.Gray {
	gray := ToGray(src)
	dst := image.NewGray(image.Rect(0, 0, size.Width, size.Height))
	scaler.Scale(dst, dst.Bounds(), gray, gray.Bounds(), draw.Src, nil)
	return dst
}

// ToGray returns src as an *image.Gray with origin at (0,0).
// Pixels are converted by luminance, and fully transparent pixels become 0.
func ToGray(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.SetGray(x-b.Min.X, y-b.Min.Y, color.GrayModel.Convert(src.At(x, y)).(color.Gray))
		}
	}
	return dst
}

// Binarize maps every pixel >= threshold to 255 and everything else to 0, in place.
func Binarize(g *image.Gray, threshold uint8) {
	for i, v := range g.Pix {
		if v >= threshold {
			g.Pix[i] = 255
		} else {
			g.Pix[i] = 0
		}
	}
}
