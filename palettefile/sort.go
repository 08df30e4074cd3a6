package palettefile

import (
	"sort"

	"github.com/Biggyjman/Palette-Optimizer/quantize"
)

// luma returns the Rec. 709 luminance of a color.
func luma(c quantize.Color) float64 {
	return 0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)
}

// SortLuma orders the palette dark to light by Rec. 709 luminance, breaking
// ties on the raw RGB tuple.
func SortLuma(p quantize.Palette) {
	sort.SliceStable(p, func(i, j int) bool {
		li, lj := luma(p[i]), luma(p[j])
		if li != lj {
			return li < lj
		}
		if p[i].R != p[j].R {
			return p[i].R < p[j].R
		}
		if p[i].G != p[j].G {
			return p[i].G < p[j].G
		}
		return p[i].B < p[j].B
	})
}

// SortHue orders the palette by hue, then saturation, then value.
func SortHue(p quantize.Palette) {
	sort.SliceStable(p, func(i, j int) bool {
		hi, si, vi := rgbToHSV(p[i])
		hj, sj, vj := rgbToHSV(p[j])
		if hi != hj {
			return hi < hj
		}
		if si != sj {
			return si < sj
		}
		return vi < vj
	})
}

// rgbToHSV converts to HSV with h in [0,1), s and v in [0,1].
func rgbToHSV(c quantize.Color) (h, s, v float64) {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255

	max := r
	if g > max {
		max = g
	}
	if b > max {
		max = b
	}
	min := r
	if g < min {
		min = g
	}
	if b < min {
		min = b
	}

	v = max
	d := max - min
	if max == 0 || d == 0 {
		return 0, 0, v
	}
	s = d / max

	switch max {
	case r:
		h = (g - b) / d
		if h < 0 {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	return h / 6, s, v
}
