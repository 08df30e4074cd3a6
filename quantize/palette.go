package quantize

import "image/color"

// Palette is an ordered sequence of colors. Order is insertion order; it only
// matters for tie-breaking in nearest-color search, where the earliest entry
// wins. The engine never inserts duplicates itself; callers that edit a
// palette directly are responsible for keeping it unique.
type Palette []Color

// PaletteOf builds a Palette from generic colors, dropping alpha.
func PaletteOf(colors []color.Color) Palette {
	p := make(Palette, len(colors))
	for i, c := range colors {
		p[i] = ColorOf(c)
	}
	return p
}

// Contains reports whether c is an exact member of the palette.
func (p Palette) Contains(c Color) bool {
	for _, pc := range p {
		if pc == c {
			return true
		}
	}
	return false
}

// Colors returns the palette as a color.Palette for use with the standard
// image packages.
func (p Palette) Colors() color.Palette {
	out := make(color.Palette, len(p))
	for i, c := range p {
		out[i] = c.NRGBA()
	}
	return out
}
