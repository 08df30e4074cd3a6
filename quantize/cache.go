package quantize

// nearestCache memoizes which candidate is nearest to a source color, so
// colors seen more than once within a run cost a single map lookup instead of
// a candidate scan. Entries are valid only while the candidate set is
// unchanged: when a cached color is itself inserted into the palette, its
// entry must be invalidated, because its true nearest neighbor is now itself.
type nearestCache map[Color]Color

// nearest returns the candidate closest to c by squared distance, consulting
// the cache first. Ties resolve to the earliest candidate: the scan only
// replaces the current best on a strictly smaller distance. candidates must
// be non-empty.
func (nc nearestCache) nearest(c Color, candidates Palette) Color {
	if hit, ok := nc[c]; ok {
		return hit
	}
	best := candidates[0]
	bestDist := DistanceSq(c, best)
	for _, cand := range candidates[1:] {
		if d := DistanceSq(c, cand); d < bestDist {
			best = cand
			bestDist = d
		}
	}
	nc[c] = best
	return best
}

// invalidate removes the stale entry for c, if any. The rest of the cache
// stays intact.
func (nc nearestCache) invalidate(c Color) {
	delete(nc, c)
}
