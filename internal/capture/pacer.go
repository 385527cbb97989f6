package capture

import "time"

// Pacer enforces a fixed wall-clock budget per capture iteration. It is
// best-effort pacing, not a real-time scheduler: iterations that overrun
// the period are not compensated for later (no catch-up).
type Pacer struct {
	period time.Duration
	sleep  func(time.Duration)
}

// NewPacer returns a Pacer for the target frame rate. A rate <= 0 yields
// a free-running pacer that never sleeps.
func NewPacer(frameRate float64) *Pacer {
	var period time.Duration
	if frameRate > 0 {
		period = time.Duration(float64(time.Second) / frameRate)
	}
	return &Pacer{period: period, sleep: time.Sleep}
}

// Period returns the per-iteration budget.
func (p *Pacer) Period() time.Duration { return p.period }

// Wait suspends the calling goroutine for the remainder of the iteration
// that began at start: max(0, period - elapsed). Only the capture
// goroutine ever blocks here.
func (p *Pacer) Wait(start time.Time) {
	if p.period <= 0 {
		return
	}
	if remaining := p.period - time.Since(start); remaining > 0 {
		p.sleep(remaining)
	}
}
