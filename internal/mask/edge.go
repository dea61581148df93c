package mask

import (
	"image"

	maskimage "mask-annotator/internal/image"
	"mask-annotator/pkg/colorutil"
)

var (
	boundaryRGBA = colorutil.MaskBoundary
	interiorRGBA = colorutil.Premultiply(colorutil.MaskInterior)
)

// Visualize renders the overlay for a canonical raster. UNSET pixels are
// transparent. SET pixels with any UNSET 8-neighbor, counting pixels outside
// the raster as UNSET, get the opaque boundary color. All other SET pixels
// get the translucent interior color. The output depends only on canonical's
// pixels, not on its bounds origin.
func Visualize(canonical *image.Gray) *image.RGBA {
	canonical = maskimage.ToGray(canonical)
	b := canonical.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	VisualizeRegion(canonical, out, out.Bounds())
	return out
}

// VisualizeRegion recomputes dst inside rect from canonical. Both rasters
// must have bounds starting at (0, 0) and the same size. Pixels of dst outside rect are
// left untouched, so after an edit confined to r the result equals a full
// Visualize when rect covers r grown by one pixel.
func VisualizeRegion(canonical *image.Gray, dst *image.RGBA, rect image.Rectangle) {
	rect = rect.Intersect(canonical.Rect)
	w, h := canonical.Rect.Dx(), canonical.Rect.Dy()

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			o := dst.PixOffset(x, y)
			px := dst.Pix[o : o+4 : o+4]
			if canonical.Pix[canonical.PixOffset(x, y)] != Set {
				px[0], px[1], px[2], px[3] = 0, 0, 0, 0
				continue
			}
			c := interiorRGBA
			if onBoundary(canonical, x, y, w, h) {
				c = boundaryRGBA
			}
			px[0], px[1], px[2], px[3] = c.R, c.G, c.B, c.A
		}
	}
}

// onBoundary reports whether any 8-neighbor of (x, y) is UNSET or out of bounds.
func onBoundary(g *image.Gray, x, y, w, h int) bool {
	if x == 0 || y == 0 || x == w-1 || y == h-1 {
		return true
	}
	for dy := -1; dy <= 1; dy++ {
		row := g.PixOffset(0, y+dy)
		for dx := -1; dx <= 1; dx++ {
			if g.Pix[row+x+dx] != Set {
				return true
			}
		}
	}
	return false
}
