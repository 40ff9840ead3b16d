package guard

import (
	"sync"
	"time"

	"github.com/Alias1177/SignalEngine/models"
)

type pairState struct {
	lastType models.SignalType
	lastAt   time.Time
}

// DuplicateGuard suppresses near-identical repeated signals per pair inside
// a cooldown window. Explicitly constructed and injected: independent
// pipeline instances never share suppression state.
type DuplicateGuard struct {
	mu       sync.Mutex
	cooldown time.Duration
	pairs    map[string]pairState
	now      func() time.Time
}

// NewDuplicateGuard creates a guard with the given cooldown window.
func NewDuplicateGuard(cooldown time.Duration) *DuplicateGuard {
	return &DuplicateGuard{
		cooldown: cooldown,
		pairs:    make(map[string]pairState),
		now:      time.Now,
	}
}

// Record reports whether the signal is accepted. A same-type signal for the
// pair inside the cooldown window is rejected and leaves state untouched.
// Acceptance always updates the timestamp, so a direction flip resets the
// window.
func (g *DuplicateGuard) Record(pair string, sigType models.SignalType) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	state, seen := g.pairs[pair]

	if seen && state.lastType == sigType && now.Sub(state.lastAt) < g.cooldown {
		return false
	}

	g.pairs[pair] = pairState{lastType: sigType, lastAt: now}
	return true
}

// Reset clears suppression state for a pair.
func (g *DuplicateGuard) Reset(pair string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.pairs, pair)
}
