package performance

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalEngine/models"
)

// Resolution describes a tracked signal whose outcome was just determined.
type Resolution struct {
	SignalID     string
	Pair         string
	Status       models.SignalStatus
	Outcome      models.SignalOutcome
	ExitPrice    float64
	ActualReturn float64
}

// Tracker follows accepted signals until their outcome is verified against
// the market. Outcomes come only from observed prices or horizon expiry,
// and each record resolves at most once.
type Tracker struct {
	mu      sync.Mutex
	horizon time.Duration
	records map[string]*models.PerformanceRecord
	order   []string // insertion order, for stable metrics
	now     func() time.Time
	logger  zerolog.Logger
}

// NewTracker creates a tracker that expires unresolved signals after horizon.
func NewTracker(horizon time.Duration) *Tracker {
	return &Tracker{
		horizon: horizon,
		records: make(map[string]*models.PerformanceRecord),
		now:     time.Now,
		logger:  log.With().Str("component", "performance_tracker").Logger(),
	}
}

// StartTracking registers an accepted signal. Re-registering an id is a no-op.
func (t *Tracker) StartTracking(signal models.PersistedSignal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.records[signal.ID]; ok {
		return
	}
	t.records[signal.ID] = &models.PerformanceRecord{
		SignalID:   signal.ID,
		Pair:       signal.Pair,
		Type:       signal.Type,
		Entry:      signal.Entry,
		StopLoss:   signal.StopLoss,
		TakeProfit: signal.TakeProfit,
		Outcome:    models.OutcomePending,
		StartedAt:  t.now(),
	}
	t.order = append(t.order, signal.ID)
}

// Observe checks every pending record for the pair against the given price
// and the expiry horizon, returning the records resolved by this tick.
func (t *Tracker) Observe(pair string, price float64) []Resolution {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	var resolved []Resolution
	for _, id := range t.order {
		r := t.records[id]
		if r.Pair != pair || r.Outcome != models.OutcomePending {
			continue
		}

		status, exit := verdict(r, price)
		if status == "" && now.Sub(r.StartedAt) >= t.horizon {
			status, exit = models.StatusExpired, price
		}
		if status == "" {
			continue
		}

		ret := signedReturn(r.Type, r.Entry, exit)
		r.Outcome = models.OutcomeWin
		if ret < 0 {
			r.Outcome = models.OutcomeLoss
		}
		r.ActualReturn = ret
		r.ExitPrice = exit
		r.ResolvedAt = now

		t.logger.Info().
			Str("pair", r.Pair).
			Str("signal_id", r.SignalID).
			Str("status", string(status)).
			Float64("return_pct", ret).
			Msg("Signal resolved")

		resolved = append(resolved, Resolution{
			SignalID:     r.SignalID,
			Pair:         r.Pair,
			Status:       status,
			Outcome:      r.Outcome,
			ExitPrice:    exit,
			ActualReturn: ret,
		})
	}
	return resolved
}

// verdict maps the observed price onto a TP or SL hit. Stop loss wins the
// tie when a single tick spans both levels.
func verdict(r *models.PerformanceRecord, price float64) (models.SignalStatus, float64) {
	switch r.Type {
	case models.SignalBuy:
		if price <= r.StopLoss {
			return models.StatusHitSL, r.StopLoss
		}
		if price >= r.TakeProfit {
			return models.StatusHitTP, r.TakeProfit
		}
	case models.SignalSell:
		if price >= r.StopLoss {
			return models.StatusHitSL, r.StopLoss
		}
		if price <= r.TakeProfit {
			return models.StatusHitTP, r.TakeProfit
		}
	}
	return "", 0
}

// signedReturn is the percent move from entry in the trade's direction.
func signedReturn(sigType models.SignalType, entry, exit float64) float64 {
	if entry == 0 {
		return 0
	}
	ret := (exit - entry) / entry * 100
	if sigType == models.SignalSell {
		ret = -ret
	}
	return ret
}

// Resolve records an externally determined terminal outcome for a tracked
// signal. The first resolution wins; later calls are no-ops. Reports
// whether the outcome was applied.
func (t *Tracker) Resolve(id string, outcome models.SignalOutcome, actualReturn, exitPrice float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.records[id]
	if !ok || r.Outcome != models.OutcomePending {
		return false
	}
	r.Outcome = outcome
	r.ActualReturn = actualReturn
	r.ExitPrice = exitPrice
	r.ResolvedAt = t.now()
	return true
}

// Metrics aggregates resolved outcomes. An empty pair covers all pairs.
func (t *Tracker) Metrics(pair string) models.PerformanceMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	records := make([]models.PerformanceRecord, 0, len(t.order))
	for _, id := range t.order {
		r := t.records[id]
		if pair != "" && r.Pair != pair {
			continue
		}
		records = append(records, *r)
	}
	return computeMetrics(records)
}
