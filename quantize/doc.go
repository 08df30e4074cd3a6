// Package quantize reduces full-color images to a limited set of colors.
//
// It offers two modes: Simplify greedily discovers a palette while rewriting
// near-duplicate colors in a single online pass, and Apply maps every pixel
// to its nearest color in a fixed, caller-supplied palette. Both modes report
// progress through a Run and honor cooperative cancellation.
package quantize
