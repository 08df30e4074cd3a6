package main

import (
	"image"
	"image/color"
)

// paletteQuantizer implements draw.Quantizer. It ignores the provided image
// and just returns its fixed palette each time. This is useful for places
// that only allow you to set the palette through a draw.Quantizer, like the
// image/gif package.
type paletteQuantizer struct {
	p color.Palette
}

func (pq *paletteQuantizer) Quantize(p color.Palette, m image.Image) color.Palette {
	return pq.p
}
