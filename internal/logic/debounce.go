package logic

import "time"

// Debouncer converts a noisy raw level stream into a stable logical state.
// A new level is only accepted after it has persisted for the full debounce
// window, so contact bounce never produces a transition. A line that never
// stabilizes simply never reports one.
type Debouncer struct {
	window         time.Duration
	stable         Level
	candidate      Level
	candidateSince time.Time
	hasCandidate   bool
}

// NewDebouncer creates a debouncer with the given window, seeded with the
// level read from the line at startup.
func NewDebouncer(window time.Duration, initial Level) *Debouncer {
	return &Debouncer{
		window: window,
		stable: initial,
	}
}

// Sample feeds one raw reading taken at the given time. It returns the
// current stable level and whether a debounced transition occurred on this
// sample.
func (d *Debouncer) Sample(raw Level, now time.Time) (Level, bool) {
	if raw == d.stable {
		// Back at the stable level; abandon any candidate.
		d.hasCandidate = false
		return d.stable, false
	}

	if !d.hasCandidate || raw != d.candidate {
		d.candidate = raw
		d.candidateSince = now
		d.hasCandidate = true
		return d.stable, false
	}

	if now.Sub(d.candidateSince) >= d.window {
		d.stable = raw
		d.hasCandidate = false
		return d.stable, true
	}

	return d.stable, false
}

// Stable returns the current debounced level.
func (d *Debouncer) Stable() Level {
	return d.stable
}
