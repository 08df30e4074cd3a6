package quantize

import (
	"math/rand"
	"time"
)

// tileSize is the edge length of the square tiles the grid is partitioned
// into during discovery. Tiles localize palette growth to spatial
// neighborhoods; shuffling within a tile keeps a single edge of the image
// from dominating the early palette.
const tileSize = 300

// Simplify discovers a palette for the grid in a single online pass,
// rewriting each pixel that falls within the similarity threshold of an
// already-discovered color. It returns the discovered palette; the grid is
// mutated in place.
//
// The traversal shuffles pixel order within each tile using a fresh random
// seed, so the discovered palette is not deterministic across runs and is not
// globally optimal. That is a property of the greedy design, not a defect.
// Use SimplifySeeded for reproducible runs.
//
// On cancellation it returns ErrCanceled and no palette; the partially
// mutated grid must not be treated as usable output.
func Simplify(run *Run, g *Grid, threshold int) (Palette, error) {
	return SimplifySeeded(run, g, threshold, time.Now().UnixNano())
}

// SimplifySeeded is Simplify with a caller-controlled seed for the tile-local
// shuffle.
func SimplifySeeded(run *Run, g *Grid, threshold int, seed int64) (Palette, error) {
	run.reset()
	return simplifySeeded(run, g, threshold, seed)
}

// simplifySeeded is the scan itself. The Run must already be reset; the
// Start launchers do that on the caller's goroutine so a cancellation
// requested right after launch is not lost.
func simplifySeeded(run *Run, g *Grid, threshold int, seed int64) (Palette, error) {
	if g == nil || g.width <= 0 || g.height <= 0 {
		return nil, ErrInvalidGrid
	}
	run.begin(g.width * g.height)

	allowedSq := AllowedDistanceSq(threshold)
	rng := rand.New(rand.NewSource(seed))
	cache := make(nearestCache)

	var saved Palette
	// Exact-membership test for step 1 of the per-pixel transition. Kept as
	// a set alongside the ordered palette so it stays O(1) per pixel.
	members := make(map[Color]struct{})

	processed := 0
	for y0 := 0; y0 < g.height; y0 += tileSize {
		if run.Canceled() {
			return nil, ErrCanceled
		}
		y1 := min(y0+tileSize, g.height)
		for x0 := 0; x0 < g.width; x0 += tileSize {
			if run.Canceled() {
				return nil, ErrCanceled
			}
			x1 := min(x0+tileSize, g.width)

			coords := make([]int, 0, (y1-y0)*(x1-x0))
			for y := y0; y < y1; y++ {
				row := y * g.width
				for x := x0; x < x1; x++ {
					coords = append(coords, row+x)
				}
			}
			rng.Shuffle(len(coords), func(i, j int) {
				coords[i], coords[j] = coords[j], coords[i]
			})

			for _, i := range coords {
				c := g.pix[i]
				if _, seen := members[c]; !seen {
					if len(saved) == 0 {
						// Seed color; the pixel keeps its value.
						saved = append(saved, c)
						members[c] = struct{}{}
					} else {
						nearest := cache.nearest(c, saved)
						if float64(DistanceSq(nearest, c)) > allowedSq {
							saved = append(saved, c)
							members[c] = struct{}{}
							cache.invalidate(c)
						} else {
							g.pix[i] = nearest
						}
					}
				}

				processed++
				if processed%batchSize == 0 {
					run.publish(processed)
					if run.Canceled() {
						return nil, ErrCanceled
					}
				}
			}
		}
	}

	run.finish()
	return saved, nil
}
