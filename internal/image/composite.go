package image

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Layer is a named RGBA raster in a composite stack.
type Layer struct {
	Name    string
	Image   *image.RGBA
	Visible bool
	Opacity float64 // 0.0 - 1.0
}

// NewLayer creates a transparent, visible layer of the given size.
func NewLayer(name string, width, height int) *Layer {
	return &Layer{
		Name:    name,
		Image:   image.NewRGBA(image.Rect(0, 0, width, height)),
		Visible: true,
		Opacity: 1.0,
	}
}

// Clear resets every pixel to transparent.
func (l *Layer) Clear() {
	clear(l.Image.Pix)
}

// Composite stacks layers bottom to top with source-over blending.
type Composite struct {
	Width     int
	Height    int
	Layers    []*Layer
	BackColor color.Color
}

// NewComposite creates a new Composite with the specified dimensions.
func NewComposite(width, height int) *Composite {
	return &Composite{
		Width:     width,
		Height:    height,
		BackColor: color.RGBA{40, 40, 40, 255}, // Dark gray background
	}
}

// AddLayer appends a layer above the existing ones.
func (c *Composite) AddLayer(layer *Layer) {
	c.Layers = append(c.Layers, layer)
}

// Render produces the final composited image.
func (c *Composite) Render() *image.RGBA {
	result := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	c.RenderInto(result)
	return result
}

// RenderInto composites into dst, reusing its buffer.
func (c *Composite) RenderInto(dst *image.RGBA) {
	if c.BackColor != nil {
		draw.Draw(dst, dst.Bounds(), &image.Uniform{C: c.BackColor}, image.Point{}, draw.Src)
	} else {
		clear(dst.Pix)
	}

	for _, l := range c.Layers {
		if l == nil || l.Image == nil || !l.Visible || l.Opacity <= 0 {
			continue
		}
		if l.Opacity >= 1 {
			draw.Draw(dst, dst.Bounds(), l.Image, image.Point{}, draw.Over)
			continue
		}
		mask := &image.Uniform{C: color.Alpha{A: uint8(clamp(l.Opacity, 0, 1) * 255)}}
		draw.DrawMask(dst, dst.Bounds(), l.Image, image.Point{}, mask, image.Point{}, draw.Over)
	}
}

func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
