package quantize

import (
	"fmt"
	"image/color"
	"math"
)

// Color is an exact 8-bit RGB triplet. Equality is exact channel-wise
// equality; there is no implicit tolerance.
type Color struct {
	R, G, B uint8
}

// ColorOf converts any color.Color to a Color, dropping alpha.
func ColorOf(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{n.R, n.G, n.B}
}

// NRGBA returns the color as fully opaque color.NRGBA.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{c.R, c.G, c.B, 255}
}

// RGBA implements color.Color as a fully opaque color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return c.NRGBA().RGBA()
}

// Hex returns the color as a lowercase #rrggbb string.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// maxDistance is the Euclidean distance between the two most distant
// representable colors, (0,0,0) and (255,255,255).
var maxDistance = math.Sqrt(255 * 255 * 3)

// MaxDistance returns the largest possible Euclidean distance between two
// colors.
func MaxDistance() float64 {
	return maxDistance
}

// DistanceSq returns the squared Euclidean distance between two colors.
// Exact integer arithmetic; the square root is never taken on the hot path.
func DistanceSq(a, b Color) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return dr*dr + dg*dg + db*db
}

// AllowedDistanceSq converts a similarity threshold percentage in [0,100]
// into the squared-distance cutoff above which two colors are considered too
// different to merge. A higher threshold means a smaller allowed distance and
// therefore a larger discovered palette. Out-of-range thresholds must be
// clamped by the caller.
func AllowedDistanceSq(threshold int) float64 {
	allowed := (1 - float64(threshold)/100) * maxDistance
	return allowed * allowed
}

// Similarity returns how alike two colors are as a percentage in [0,100],
// rounded to two decimal places. Provided for reporting; the quantizers
// themselves compare squared distances.
func Similarity(a, b Color) float64 {
	d := math.Sqrt(float64(DistanceSq(a, b)))
	return math.Round((1-d/maxDistance)*100*100) / 100
}
