package quantize

import (
	"image"
	"image/color"
)

// Grid is a mutable 2D array of colors addressed by (x, y). It is owned
// exclusively by the quantization call for the run's duration: both modes
// rewrite pixels in place.
type Grid struct {
	width, height int
	pix           []Color // row-major
}

// NewGrid returns a zeroed (all black) grid of the given dimensions.
func NewGrid(width, height int) *Grid {
	return &Grid{width: width, height: height, pix: make([]Color, width*height)}
}

// GridFromImage copies an image into a new grid, dropping alpha.
func GridFromImage(img image.Image) *Grid {
	b := img.Bounds()
	g := NewGrid(b.Dx(), b.Dy())
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g.pix[i] = ColorOf(img.At(x, y))
			i++
		}
	}
	return g
}

// Width returns the grid width in pixels.
func (g *Grid) Width() int { return g.width }

// Height returns the grid height in pixels.
func (g *Grid) Height() int { return g.height }

// At returns the color at (x, y).
func (g *Grid) At(x, y int) Color {
	return g.pix[y*g.width+x]
}

// Set overwrites the color at (x, y).
func (g *Grid) Set(x, y int, c Color) {
	g.pix[y*g.width+x] = c
}

// Image renders the grid as a fully opaque *image.NRGBA.
func (g *Grid) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, g.width, g.height))
	for i, c := range g.pix {
		o := i * 4
		img.Pix[o] = c.R
		img.Pix[o+1] = c.G
		img.Pix[o+2] = c.B
		img.Pix[o+3] = 255
	}
	return img
}

// Paletted renders the grid as *image.Paletted over the given palette, which
// must have at most 256 entries. Every pixel must already equal a palette
// entry, which holds for the output of a completed quantization run; pixels
// missing from the palette fall back to index 0.
func (g *Grid) Paletted(p Palette) *image.Paletted {
	cp := p.Colors()
	img := image.NewPaletted(image.Rect(0, 0, g.width, g.height), cp)
	index := make(map[Color]uint8, len(p))
	for i, c := range p {
		if _, ok := index[c]; !ok {
			index[c] = uint8(i)
		}
	}
	for i, c := range g.pix {
		img.Pix[i] = index[c]
	}
	return img
}

var _ color.Color = Color{}
