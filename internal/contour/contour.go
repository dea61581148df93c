// Package contour derives the outline and centroid of a binary mask.
package contour

import (
	"errors"
	"fmt"
	"image"

	"mask-annotator/pkg/geometry"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

// ErrEmptyMask is returned when the mask has no SET pixels.
var ErrEmptyMask = errors.New("mask has no foreground")

// Epsilon for polygon simplification, as a fraction of the contour perimeter.
const simplifyFraction = 0.002

// Result is the geometry of the largest foreground region.
type Result struct {
	Centroid geometry.Point2D
	Contour  []geometry.Point2D
	Area     float64
}

// Extract finds the largest external contour of mask, simplifies it, and
// computes the centroid of all foreground pixels from image moments.
func Extract(mask *image.Gray) (Result, error) {
	mat, err := toMat(mask)
	if err != nil {
		return Result{}, err
	}
	defer mat.Close()

	contours := gocv.FindContours(mat, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	if contours.Size() == 0 {
		return Result{}, ErrEmptyMask
	}

	best := -1
	var bestArea float64
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if best < 0 || area > bestArea {
			best = i
			bestArea = area
		}
	}

	largest := contours.At(best)
	epsilon := simplifyFraction * gocv.ArcLength(largest, true)
	approx := gocv.ApproxPolyDP(largest, epsilon, true)
	defer approx.Close()

	pts := approx.ToPoints()
	if len(pts) < 3 {
		pts = largest.ToPoints()
	}
	outline := make([]geometry.Point2D, len(pts))
	for i, p := range pts {
		outline[i] = geometry.Point2D{X: float64(p.X), Y: float64(p.Y)}
	}

	// Calculate centroid from moments: cx = m10/m00, cy = m01/m00
	moments := gocv.Moments(mat, true)
	centroid, ok := geometry.Point2D{}, false
	if m00 := moments["m00"]; m00 > 0 {
		centroid = geometry.Point2D{X: moments["m10"] / m00, Y: moments["m01"] / m00}
		ok = true
	}
	if !ok {
		if centroid, ok = Centroid(mask); !ok {
			return Result{}, ErrEmptyMask
		}
	}

	return Result{Centroid: centroid, Contour: outline, Area: bestArea}, nil
}

// Centroid returns the mean coordinate of SET pixels without OpenCV.
// ok is false for an empty mask.
func Centroid(mask *image.Gray) (c geometry.Point2D, ok bool) {
	b := mask.Bounds()
	var xs, ys []float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if mask.GrayAt(x, y).Y >= 128 {
				xs = append(xs, float64(x-b.Min.X))
				ys = append(ys, float64(y-b.Min.Y))
			}
		}
	}
	if len(xs) == 0 {
		return geometry.Point2D{}, false
	}
	return geometry.Point2D{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil)}, true
}

// toMat copies a grayscale image into a single-channel Mat, thresholded
// so every foreground pixel is 255.
func toMat(mask *image.Gray) (gocv.Mat, error) {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return gocv.Mat{}, ErrEmptyMask
	}
	data := make([]byte, w*h)
	for y := 0; y < h; y++ {
		row := mask.Pix[mask.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			if row[x] >= 128 {
				data[y*w+x] = 255
			}
		}
	}
	mat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8U, data)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to create mat: %w", err)
	}
	return mat, nil
}
