package quantize

// Apply overwrites every pixel of the grid with its nearest entry in the
// fixed palette, by squared distance, ties resolving to the earliest entry.
// Pixels are visited in raster order; the result does not depend on order
// since the palette is immutable. Apply is deterministic and idempotent:
// re-running it on its own output changes nothing, because every pixel is
// then its own nearest neighbor at distance zero.
//
// An empty palette is a no-op success: the grid is left unchanged and the
// progress total is treated as 1 so percentage reporting stays defined.
//
// On cancellation it returns ErrCanceled; the grid is then partially
// quantized in place and must be discarded by the caller.
func Apply(run *Run, g *Grid, p Palette) error {
	run.reset()
	return applyPalette(run, g, p)
}

// applyPalette is the scan itself; the Run must already be reset. See
// simplifySeeded for why the reset happens on the caller's goroutine.
func applyPalette(run *Run, g *Grid, p Palette) error {
	if g == nil || g.width <= 0 || g.height <= 0 {
		return ErrInvalidGrid
	}
	if len(p) == 0 {
		run.begin(1)
		run.finish()
		return nil
	}
	run.begin(g.width * g.height)

	cache := make(nearestCache)
	processed := 0
	for y := 0; y < g.height; y++ {
		if run.Canceled() {
			return ErrCanceled
		}
		row := y * g.width
		for x := 0; x < g.width; x++ {
			if run.Canceled() {
				return ErrCanceled
			}
			i := row + x
			g.pix[i] = cache.nearest(g.pix[i], p)

			processed++
			if processed%batchSize == 0 {
				run.publish(processed)
			}
		}
	}

	run.finish()
	return nil
}
