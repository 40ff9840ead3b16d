package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalEngine/internal/config"
	"github.com/Alias1177/SignalEngine/internal/guard"
	"github.com/Alias1177/SignalEngine/internal/notify"
	"github.com/Alias1177/SignalEngine/internal/performance"
	"github.com/Alias1177/SignalEngine/internal/policy"
	"github.com/Alias1177/SignalEngine/internal/quality"
	"github.com/Alias1177/SignalEngine/internal/storage"
	"github.com/Alias1177/SignalEngine/models"
)

// Outcome is the result of one evaluation cycle for a pair. A Signal is
// always present: rejected and degraded cycles still produce one for
// display, with ShouldSave false and the Reason explaining why.
type Outcome struct {
	Signal      *models.Signal
	Quality     models.QualityResult
	Thresholds  models.Thresholds
	ShouldSave  bool
	ShouldTrack bool
	Reason      string
	EvaluatedAt time.Time
}

// pairRuntime is per-pair evaluation state. Guarded by Coordinator.mu.
type pairRuntime struct {
	candles  []models.Candle
	snapshot *models.MarketSnapshot

	timer      *time.Timer // debounce, armed by data arrival
	inFlight   bool
	pending    bool // trigger arrived mid-evaluation, collapsed to one re-run
	cancel     context.CancelFunc
	generation uint64 // bumped when this pair is deselected
}

// Coordinator runs the evaluation pipeline per pair: debounced triggers,
// at most one in-flight evaluation per pair, and cancellation of the
// previously selected pair's evaluation on pair switch.
type Coordinator struct {
	cfg      *config.Config
	scorer   quality.ScoringStrategy
	policy   *policy.ThresholdPolicy
	guard    *guard.DuplicateGuard
	accepts  *policy.RateWindow
	store    storage.Store
	tracker  *performance.Tracker
	notifier *notify.Notifier

	ctx context.Context

	mu         sync.Mutex
	pairs      map[string]*pairRuntime
	outcomes   map[string]*Outcome
	activePair string

	now    func() time.Time
	logger zerolog.Logger
}

// Options bundle the coordinator's collaborators.
type Options struct {
	Scorer   quality.ScoringStrategy
	Policy   *policy.ThresholdPolicy
	Guard    *guard.DuplicateGuard
	Accepts  *policy.RateWindow
	Store    storage.Store
	Tracker  *performance.Tracker
	Notifier *notify.Notifier
}

// New creates a coordinator. The context bounds all evaluations; cancel it
// to stop the coordinator.
func New(ctx context.Context, cfg *config.Config, opts Options) *Coordinator {
	c := &Coordinator{
		cfg:      cfg,
		scorer:   opts.Scorer,
		policy:   opts.Policy,
		guard:    opts.Guard,
		accepts:  opts.Accepts,
		store:    opts.Store,
		tracker:  opts.Tracker,
		notifier: opts.Notifier,
		ctx:      ctx,
		pairs:    make(map[string]*pairRuntime),
		outcomes: make(map[string]*Outcome),
		now:      time.Now,
		logger:   log.With().Str("component", "coordinator").Logger(),
	}
	if len(cfg.Pairs) > 0 {
		c.activePair = cfg.Pairs[0]
	}
	return c
}

// OnCandles stores a fresh candle window and arms the debounce timer.
func (c *Coordinator) OnCandles(pair string, candles []models.Candle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rt := c.runtime(pair)
	rt.candles = candles
	c.armLocked(pair, rt)
}

// OnSnapshot stores a fresh ticker snapshot, resolves tracked signals
// against its price and arms the debounce timer.
func (c *Coordinator) OnSnapshot(pair string, snapshot *models.MarketSnapshot) {
	if c.tracker != nil && snapshot != nil {
		for _, res := range c.tracker.Observe(pair, snapshot.Price) {
			if err := c.store.UpdateStatus(c.ctx, res.SignalID, res.Status, res.Outcome); err != nil {
				c.logger.Warn().Err(err).Str("signal_id", res.SignalID).Msg("Failed to persist resolution")
			}
			c.notifier.SignalResolved(res)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rt := c.runtime(pair)
	rt.snapshot = snapshot
	c.armLocked(pair, rt)
}

// SelectPair changes the active pair. The deselected pair's in-flight
// evaluation is cancelled and its late result discarded.
func (c *Coordinator) SelectPair(pair string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pair == c.activePair {
		return
	}
	// Only the deselected pair's results go stale; background pairs are
	// unaffected by the switch.
	prev := c.pairs[c.activePair]
	c.activePair = pair
	if prev != nil {
		prev.generation++
		if prev.cancel != nil {
			prev.cancel()
		}
	}
}

// ActivePair returns the currently selected pair.
func (c *Coordinator) ActivePair() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activePair
}

// CurrentSignal returns the last outcome for the active pair, nil before
// the first completed evaluation.
func (c *Coordinator) CurrentSignal() *Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcomes[c.activePair]
}

// Outcome returns the last outcome for a specific pair.
func (c *Coordinator) Outcome(pair string) *Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcomes[pair]
}

// History returns the persisted signal history, newest first.
func (c *Coordinator) History(ctx context.Context) ([]models.PersistedSignal, error) {
	return c.store.List(ctx)
}

// Metrics returns aggregate performance for a pair, or all pairs when empty.
func (c *Coordinator) Metrics(pair string) models.PerformanceMetrics {
	return c.tracker.Metrics(pair)
}

// runtime returns the runtime for a pair, creating it on first touch.
// Caller holds the lock.
func (c *Coordinator) runtime(pair string) *pairRuntime {
	rt, ok := c.pairs[pair]
	if !ok {
		rt = &pairRuntime{}
		c.pairs[pair] = rt
	}
	return rt
}

// armLocked (re)starts the debounce timer so evaluation runs only after
// data arrivals settle. Caller holds the lock.
func (c *Coordinator) armLocked(pair string, rt *pairRuntime) {
	if rt.timer != nil {
		rt.timer.Reset(c.cfg.Debounce)
		return
	}
	rt.timer = time.AfterFunc(c.cfg.Debounce, func() {
		c.trigger(pair)
	})
}

// trigger starts an evaluation for the pair, or collapses the request into
// a single pending re-run when one is already in flight.
func (c *Coordinator) trigger(pair string) {
	c.mu.Lock()
	rt := c.runtime(pair)
	if rt.inFlight {
		rt.pending = true
		c.mu.Unlock()
		return
	}
	if c.ctx.Err() != nil {
		c.mu.Unlock()
		return
	}

	rt.inFlight = true
	gen := rt.generation
	evalCtx, cancel := context.WithCancel(c.ctx)
	rt.cancel = cancel

	candles := rt.candles
	snapshot := rt.snapshot
	c.mu.Unlock()

	go c.run(evalCtx, pair, gen, candles, snapshot)
}

// run executes one evaluation and applies its outcome unless the result
// went stale through cancellation or a pair switch.
func (c *Coordinator) run(ctx context.Context, pair string, gen uint64, candles []models.Candle, snapshot *models.MarketSnapshot) {
	outcome := c.evaluate(ctx, pair, candles, snapshot)

	c.mu.Lock()
	rt := c.runtime(pair)
	rt.inFlight = false
	rt.cancel = nil

	stale := ctx.Err() != nil || (gen != rt.generation && pair != c.activePair)
	rerun := rt.pending
	rt.pending = false
	c.mu.Unlock()

	if stale {
		c.logger.Debug().Str("pair", pair).Msg("Discarding stale evaluation result")
	} else {
		c.apply(pair, outcome)
	}
	if rerun {
		c.trigger(pair)
	}
}

// apply records the outcome and, for accepted signals, persists, tracks
// and announces them.
func (c *Coordinator) apply(pair string, outcome *Outcome) {
	c.mu.Lock()
	c.outcomes[pair] = outcome
	c.mu.Unlock()

	c.logger.Info().
		Str("pair", pair).
		Str("type", string(outcome.Signal.Type)).
		Float64("confidence", outcome.Signal.Confidence).
		Float64("quality", outcome.Quality.QualityScore).
		Bool("accepted", outcome.ShouldSave).
		Str("reason", outcome.Reason).
		Msg("Evaluation completed")

	if !outcome.ShouldSave {
		return
	}

	persisted := c.persist(pair, outcome)
	if persisted == nil {
		return
	}
	if outcome.ShouldTrack && c.tracker != nil {
		c.tracker.StartTracking(*persisted)
	}
	c.notifier.SignalAccepted(*persisted)
}
