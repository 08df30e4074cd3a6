package quantize

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"
)

func noisyGrid(w, h int, seed int64) *Grid {
	rng := rand.New(rand.NewSource(seed))
	g := NewGrid(w, h)
	for i := range g.pix {
		g.pix[i] = Color{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256))}
	}
	return g
}

func TestSetProgressClamps(t *testing.T) {
	run := NewRun()
	run.SetProgress(150)
	if percent, _, _ := run.Progress(); percent != 100 {
		t.Errorf("percent = %v, want 100", percent)
	}
	run.SetProgress(-5)
	if percent, _, _ := run.Progress(); percent != 0 {
		t.Errorf("percent = %v, want 0", percent)
	}
}

func TestCancelIdempotent(t *testing.T) {
	run := NewRun()
	if run.Canceled() {
		t.Fatal("fresh Run reports canceled")
	}
	run.Cancel()
	run.Cancel()
	if !run.Canceled() {
		t.Fatal("Cancel did not stick")
	}
}

func TestRunResetsBetweenRuns(t *testing.T) {
	g := NewGrid(1, 1)
	run := NewRun()
	run.Cancel()

	// A stale cancellation request from before the run must not leak in.
	pal, err := Simplify(run, g, 95)
	if err != nil {
		t.Fatalf("Simplify after stale Cancel: %v", err)
	}
	if len(pal) != 1 {
		t.Fatalf("palette = %v, want one entry", pal)
	}
	if run.Canceled() {
		t.Error("cancel flag not cleared at run start")
	}
}

func TestStartApplyProgressMonotonic(t *testing.T) {
	g := noisyGrid(400, 300, 1)
	p := Palette{{0, 0, 0}, {255, 255, 255}, {255, 0, 0}, {0, 255, 0}, {0, 0, 255}}

	run := NewRun()
	done := StartApply(run, g, p)

	lastProcessed := 0
	for {
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("StartApply: %v", err)
			}
			percent, processed, total := run.Progress()
			if percent != 100 || processed != total {
				t.Errorf("final Progress() = %v, %d/%d", percent, processed, total)
			}
			return
		default:
			_, processed, total := run.Progress()
			if processed < lastProcessed {
				t.Fatalf("processed went backwards: %d after %d", processed, lastProcessed)
			}
			if processed > total {
				t.Fatalf("processed %d exceeds total %d", processed, total)
			}
			lastProcessed = processed
		}
	}
}

func TestStartSimplifyCancellation(t *testing.T) {
	g := noisyGrid(1000, 1000, 2)

	run := NewRun()
	done := StartSimplifySeeded(run, g, 80, 5)

	// Wait for the run to be demonstrably underway, then request
	// cancellation while most of the grid is still unprocessed.
	deadline := time.Now().Add(10 * time.Second)
	for {
		_, processed, total := run.Progress()
		if processed >= batchSize && processed <= total/2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("run never reached a cancelable point")
		}
		time.Sleep(time.Millisecond)
	}
	run.Cancel()

	res := <-done
	if !errors.Is(res.Err, ErrCanceled) {
		t.Fatalf("err = %v, want ErrCanceled", res.Err)
	}
	if res.Palette != nil {
		t.Error("canceled run returned a palette")
	}
	if _, processed, total := run.Progress(); processed >= total {
		t.Errorf("canceled run reports %d/%d processed", processed, total)
	}
}

func TestStartApplyCancellation(t *testing.T) {
	g := noisyGrid(1000, 1000, 4)
	p := Palette{{0, 0, 0}, {255, 255, 255}}

	run := NewRun()
	done := StartApply(run, g, p)

	deadline := time.Now().Add(10 * time.Second)
	for {
		_, processed, total := run.Progress()
		if processed >= batchSize && processed <= total/2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("run never reached a cancelable point")
		}
		time.Sleep(time.Millisecond)
	}
	run.Cancel()

	if err := <-done; !errors.Is(err, ErrCanceled) {
		t.Fatalf("err = %v, want ErrCanceled", err)
	}
}

func TestStartApplyImmediateCancel(t *testing.T) {
	// Cancellation requested right after launch, before the worker has done
	// any work, must still end the run as canceled. Repeated because the
	// failure mode is a race between the caller and the worker startup.
	g := noisyGrid(1000, 1000, 6)
	p := Palette{{0, 0, 0}, {255, 255, 255}}

	for i := 0; i < 25; i++ {
		run := NewRun()
		done := StartApply(run, g, p)
		run.Cancel()
		if err := <-done; !errors.Is(err, ErrCanceled) {
			t.Fatalf("iteration %d: err = %v, want ErrCanceled", i, err)
		}
		if _, processed, total := run.Progress(); processed >= total && total > 0 {
			t.Fatalf("iteration %d: canceled run reports %d/%d processed", i, processed, total)
		}
	}
}

func TestStartSimplifyImmediateCancel(t *testing.T) {
	g := noisyGrid(1000, 1000, 8)

	for i := 0; i < 25; i++ {
		run := NewRun()
		done := StartSimplifySeeded(run, g, 80, int64(i))
		run.Cancel()
		res := <-done
		if !errors.Is(res.Err, ErrCanceled) {
			t.Fatalf("iteration %d: err = %v, want ErrCanceled", i, res.Err)
		}
		if res.Palette != nil {
			t.Fatalf("iteration %d: canceled run returned a palette", i)
		}
	}
}

func TestStartApplyRecoversPanic(t *testing.T) {
	// A grid whose backing store is shorter than its declared dimensions
	// forces an index panic inside the scan; it must surface as an error on
	// the outcome channel, not crash the process.
	g := &Grid{width: 100, height: 100, pix: make([]Color, 10)}
	p := Palette{{0, 0, 0}}

	err := <-StartApply(NewRun(), g, p)
	if err == nil {
		t.Fatal("expected an internal failure error")
	}
	if !strings.Contains(err.Error(), "internal failure") {
		t.Errorf("err = %v, want an internal failure", err)
	}
}

func TestStartSimplifyDeliversResult(t *testing.T) {
	g := NewGrid(2, 2)
	g.Set(0, 0, Color{200, 0, 0})
	g.Set(1, 0, Color{201, 0, 0})
	g.Set(0, 1, Color{0, 0, 200})
	g.Set(1, 1, Color{0, 0, 201})

	res := <-StartSimplifySeeded(NewRun(), g, 80, 9)
	if res.Err != nil {
		t.Fatalf("StartSimplifySeeded: %v", res.Err)
	}
	// Threshold 80 allows distance 88.33, squared ~7803: the two reds merge,
	// the two blues merge, red and blue stay apart.
	if len(res.Palette) != 2 {
		t.Errorf("palette = %v, want 2 entries", res.Palette)
	}
}
