package quantize

import "testing"

func TestNearestFirstMinimumWins(t *testing.T) {
	// Both palette entries are equidistant from the probe; the earlier one
	// must win.
	p := Palette{{0, 0, 0}, {10, 10, 10}}
	nc := make(nearestCache)
	if got := nc.nearest(Color{5, 5, 5}, p); (got != Color{0, 0, 0}) {
		t.Errorf("nearest = %v, want the earliest entry {0 0 0}", got)
	}
}

func TestNearestCachesResult(t *testing.T) {
	p := Palette{{0, 0, 0}, {200, 200, 200}}
	nc := make(nearestCache)
	c := Color{40, 40, 40}
	first := nc.nearest(c, p)
	if _, ok := nc[c]; !ok {
		t.Fatal("nearest did not populate the cache")
	}
	// A cached entry short-circuits the scan even if the candidate set the
	// caller passes would now give a different answer. Staleness is handled
	// by invalidate, not by re-scanning.
	if got := nc.nearest(c, Palette{{255, 255, 255}}); got != first {
		t.Errorf("cached nearest = %v, want %v", got, first)
	}
}

func TestInvalidateRemovesSingleEntry(t *testing.T) {
	p := Palette{{0, 0, 0}}
	nc := make(nearestCache)
	a := Color{1, 1, 1}
	b := Color{2, 2, 2}
	nc.nearest(a, p)
	nc.nearest(b, p)

	nc.invalidate(a)
	if _, ok := nc[a]; ok {
		t.Error("invalidate left the stale entry in place")
	}
	if _, ok := nc[b]; !ok {
		t.Error("invalidate flushed an unrelated entry")
	}
}
