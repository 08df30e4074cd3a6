package quantize

import (
	"errors"
	"math/rand"
	"testing"
)

func TestSimplifySinglePixel(t *testing.T) {
	g := NewGrid(1, 1)
	g.Set(0, 0, Color{255, 0, 0})

	run := NewRun()
	pal, err := Simplify(run, g, 95)
	if err != nil {
		t.Fatalf("Simplify: %v", err)
	}
	if len(pal) != 1 || (pal[0] != Color{255, 0, 0}) {
		t.Fatalf("palette = %v, want [{255 0 0}]", pal)
	}
	if (g.At(0, 0) != Color{255, 0, 0}) {
		t.Errorf("pixel changed to %v", g.At(0, 0))
	}
	if percent, processed, total := run.Progress(); percent != 100 || processed != 1 || total != 1 {
		t.Errorf("Progress() = %v, %d/%d, want 100, 1/1", percent, processed, total)
	}
}

func TestSimplifyThresholdMaxKeepsNearColors(t *testing.T) {
	// At threshold 100 the allowed distance is zero, so even (0,0,0) and
	// (1,1,1) at squared distance 3 stay separate and no pixel is rewritten.
	g := NewGrid(2, 1)
	g.Set(0, 0, Color{0, 0, 0})
	g.Set(1, 0, Color{1, 1, 1})

	pal, err := Simplify(NewRun(), g, 100)
	if err != nil {
		t.Fatalf("Simplify: %v", err)
	}
	if len(pal) != 2 {
		t.Fatalf("palette has %d entries, want 2", len(pal))
	}
	if (g.At(0, 0) != Color{0, 0, 0}) || (g.At(1, 0) != Color{1, 1, 1}) {
		t.Error("pixels were rewritten at threshold 100")
	}
}

func TestSimplifyThresholdZeroMergesEverything(t *testing.T) {
	g := NewGrid(2, 1)
	g.Set(0, 0, Color{0, 0, 0})
	g.Set(1, 0, Color{1, 1, 1})

	pal, err := Simplify(NewRun(), g, 0)
	if err != nil {
		t.Fatalf("Simplify: %v", err)
	}
	if len(pal) != 1 {
		t.Fatalf("palette = %v, want exactly one entry", pal)
	}
	// Whichever pixel was visited first seeded the palette; the other must
	// have been rewritten to match it.
	if g.At(0, 0) != pal[0] || g.At(1, 0) != pal[0] {
		t.Errorf("pixels %v, %v not collapsed onto %v", g.At(0, 0), g.At(1, 0), pal[0])
	}
}

func TestSimplifySeededIsReproducible(t *testing.T) {
	const seed = 42
	makeGrid := func() *Grid {
		rng := rand.New(rand.NewSource(7))
		g := NewGrid(64, 64)
		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x++ {
				g.Set(x, y, Color{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256))})
			}
		}
		return g
	}

	g1 := makeGrid()
	pal1, err := SimplifySeeded(NewRun(), g1, 60, seed)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	g2 := makeGrid()
	pal2, err := SimplifySeeded(NewRun(), g2, 60, seed)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(pal1) != len(pal2) {
		t.Fatalf("palette sizes differ: %d vs %d", len(pal1), len(pal2))
	}
	for i := range pal1 {
		if pal1[i] != pal2[i] {
			t.Fatalf("palette entry %d differs: %v vs %v", i, pal1[i], pal2[i])
		}
	}
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if g1.At(x, y) != g2.At(x, y) {
				t.Fatalf("pixel (%d,%d) differs: %v vs %v", x, y, g1.At(x, y), g2.At(x, y))
			}
		}
	}
}

func TestSimplifyOutputPixelsAreMembers(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	g := NewGrid(50, 40)
	for y := 0; y < 40; y++ {
		for x := 0; x < 50; x++ {
			g.Set(x, y, Color{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256))})
		}
	}

	pal, err := Simplify(NewRun(), g, 50)
	if err != nil {
		t.Fatalf("Simplify: %v", err)
	}
	if len(pal) == 0 {
		t.Fatal("empty palette from a non-empty grid")
	}
	members := make(map[Color]struct{}, len(pal))
	for _, c := range pal {
		if _, dup := members[c]; dup {
			t.Fatalf("palette contains duplicate %v", c)
		}
		members[c] = struct{}{}
	}
	for y := 0; y < 40; y++ {
		for x := 0; x < 50; x++ {
			if _, ok := members[g.At(x, y)]; !ok {
				t.Fatalf("pixel (%d,%d) = %v is not in the discovered palette", x, y, g.At(x, y))
			}
		}
	}
}

func TestSimplifyInvalidGrid(t *testing.T) {
	if _, err := Simplify(NewRun(), NewGrid(0, 10), 95); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("err = %v, want ErrInvalidGrid", err)
	}
	if _, err := Simplify(NewRun(), nil, 95); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("nil grid err = %v, want ErrInvalidGrid", err)
	}
}
