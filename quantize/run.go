package quantize

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// batchSize is how many pixels are processed between progress updates and
// batch-level cancellation checks.
const batchSize = 5000

var (
	// ErrCanceled is the terminal outcome of a run that observed a
	// cancellation request. It is not a failure: the caller asked for it.
	// The grid mutated by a canceled run is partially quantized and must be
	// discarded.
	ErrCanceled = errors.New("quantize: run canceled")

	// ErrInvalidGrid reports a grid with zero area. No work is attempted.
	ErrInvalidGrid = errors.New("quantize: grid has no pixels")
)

// Run is the shared state between a quantization worker and whoever polls it.
// The worker is the only writer of progress; any number of other goroutines
// may call Progress, Cancel, and Canceled concurrently. A Run is reset at the
// start of each quantization call, so one value can drive consecutive runs
// (never two at once). The zero value is ready to use.
type Run struct {
	mu        sync.Mutex
	percent   float64
	processed int
	total     int

	canceled atomic.Bool
}

// NewRun returns a Run ready to drive a quantization call.
func NewRun() *Run {
	return &Run{}
}

// reset clears the progress snapshot and any stale cancellation request left
// over from a previous run. It runs on the caller's goroutine, before any
// worker is spawned, so a Cancel issued right after a Start call returns is
// aimed at the new run and never erased by it.
func (r *Run) reset() {
	r.mu.Lock()
	r.percent = 0
	r.processed = 0
	r.total = 0
	r.mu.Unlock()
	r.canceled.Store(false)
}

// begin records the total for the run now underway. The cancel flag is left
// alone; only reset touches it.
func (r *Run) begin(total int) {
	r.mu.Lock()
	r.percent = 0
	r.processed = 0
	r.total = total
	r.mu.Unlock()
}

// SetProgress publishes a progress percentage, clamped to [0,100]. Only the
// running worker should call this.
func (r *Run) SetProgress(percent float64) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	r.mu.Lock()
	r.percent = percent
	r.mu.Unlock()
}

// publish records a processed-pixel count and the percentage derived from it.
func (r *Run) publish(processed int) {
	r.mu.Lock()
	total := r.total
	if total < 1 {
		total = 1
	}
	percent := float64(processed) / float64(total) * 100
	if percent > 100 {
		percent = 100
	}
	r.percent = percent
	r.processed = processed
	r.mu.Unlock()
}

// finish marks the run fully processed.
func (r *Run) finish() {
	r.mu.Lock()
	r.percent = 100
	r.processed = r.total
	r.mu.Unlock()
}

// Progress returns the most recently published snapshot: the percentage in
// [0,100] and the processed/total pixel counts. Safe to call concurrently
// with a running worker.
func (r *Run) Progress() (percent float64, processed, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.percent, r.processed, r.total
}

// Cancel requests cooperative cancellation of the current run. It is
// idempotent and safe to call at any time; the worker observes the request at
// its next checkpoint, at most one batch or one tile/row boundary later.
// Cancel never preempts work mid-scan.
func (r *Run) Cancel() {
	r.canceled.Store(true)
}

// Canceled reports whether cancellation has been requested. Non-blocking.
func (r *Run) Canceled() bool {
	return r.canceled.Load()
}

// SimplifyResult is the terminal outcome of a background discovery run.
type SimplifyResult struct {
	Palette Palette
	Err     error
}

// StartSimplify runs Simplify on its own goroutine and delivers the outcome
// on the returned channel. Progress stays pollable on run throughout. The Run
// is reset before StartSimplify returns, so a Cancel issued immediately
// afterwards cancels this run. A panic inside the scan is recovered and
// surfaced as an error so it never reaches the polling goroutine; the Run is
// left reusable for a fresh start.
func StartSimplify(run *Run, g *Grid, threshold int) <-chan SimplifyResult {
	run.reset()
	seed := time.Now().UnixNano()
	return startSimplify(run, func() (Palette, error) {
		return simplifySeeded(run, g, threshold, seed)
	})
}

// StartSimplifySeeded is StartSimplify with a caller-controlled shuffle seed.
func StartSimplifySeeded(run *Run, g *Grid, threshold int, seed int64) <-chan SimplifyResult {
	run.reset()
	return startSimplify(run, func() (Palette, error) {
		return simplifySeeded(run, g, threshold, seed)
	})
}

func startSimplify(run *Run, fn func() (Palette, error)) <-chan SimplifyResult {
	ch := make(chan SimplifyResult, 1)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				ch <- SimplifyResult{Err: fmt.Errorf("quantize: internal failure: %v", v)}
			}
		}()
		pal, err := fn()
		ch <- SimplifyResult{Palette: pal, Err: err}
	}()
	return ch
}

// StartApply runs Apply on its own goroutine and delivers the outcome on the
// returned channel, with the same panic containment and reset-before-return
// behavior as StartSimplify.
func StartApply(run *Run, g *Grid, p Palette) <-chan error {
	run.reset()
	ch := make(chan error, 1)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				ch <- fmt.Errorf("quantize: internal failure: %v", v)
			}
		}()
		ch <- applyPalette(run, g, p)
	}()
	return ch
}
