package policy

import (
	"sync"
	"time"
)

// RateWindow keeps timestamps of recently accepted signals. It is the only
// context the threshold policy reads besides its direct inputs, and it is an
// explicitly constructed object so independent pipelines never share one.
type RateWindow struct {
	mu     sync.Mutex
	window time.Duration
	events []time.Time
	now    func() time.Time
}

// NewRateWindow creates a rolling window of the given span.
func NewRateWindow(window time.Duration) *RateWindow {
	return &RateWindow{
		window: window,
		now:    time.Now,
	}
}

// Record notes one accepted signal at the current time.
func (w *RateWindow) Record() {
	w.RecordAt(w.now())
}

// RecordAt notes one accepted signal at the given time.
func (w *RateWindow) RecordAt(t time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune(w.now())
	w.events = append(w.events, t)
}

// Count returns the number of accepted signals inside the window.
func (w *RateWindow) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune(w.now())
	return len(w.events)
}

// prune drops events older than the window. Caller holds the lock.
func (w *RateWindow) prune(now time.Time) {
	cutoff := now.Add(-w.window)
	kept := w.events[:0]
	for _, t := range w.events {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.events = kept
}
