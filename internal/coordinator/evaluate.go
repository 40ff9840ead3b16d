package coordinator

import (
	"context"

	"github.com/google/uuid"

	"github.com/Alias1177/SignalEngine/internal/calculate"
	"github.com/Alias1177/SignalEngine/internal/patterns"
	"github.com/Alias1177/SignalEngine/internal/quality"
	"github.com/Alias1177/SignalEngine/models"
)

// errorRecoveryTag marks fallback signals produced when a pipeline stage
// fails. The caller always gets a displayable outcome, never an error.
const errorRecoveryTag = "Error Recovery"

const minDetectWindow = 5

// evaluate runs the full pipeline for one pair. Every exit path returns a
// displayable outcome; stage failures degrade to a neutral fallback.
func (c *Coordinator) evaluate(ctx context.Context, pair string, candles []models.Candle, snapshot *models.MarketSnapshot) (outcome *Outcome) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Str("pair", pair).Interface("panic", r).Msg("Evaluation stage failed")
			outcome = c.fallback(pair, candles, "evaluation stage failed")
		}
	}()

	if len(candles) < minDetectWindow || snapshot == nil {
		return c.fallback(pair, candles, "insufficient market data")
	}
	if err := ctx.Err(); err != nil {
		return c.fallback(pair, candles, "evaluation cancelled")
	}

	indicators := calculate.Compute(candles, c.cfg)
	detected := patterns.Detect(candles, c.cfg)

	if detected.Best == nil {
		out := c.neutralOutcome(candles, "no pattern above reliability floor")
		out.Quality.MarketCondition = models.ConditionRanging
		return out
	}

	signal := c.buildSignal(detected.Best)
	volume := quality.ValidateVolume(pair, snapshot.Volume24h)
	result := c.scorer.Score(signal, indicators, candles, volume)

	// Quality feedback nudges confidence up to ±0.1 around the pattern base.
	signal.Confidence = clamp01(signal.Confidence + (result.QualityScore-50)/500)

	thresholds := c.policy.GetThresholds(pair, result.MarketCondition, result.Momentum, volume)

	outcome = &Outcome{
		Signal:      signal,
		Quality:     result,
		Thresholds:  thresholds,
		EvaluatedAt: c.now(),
	}

	switch {
	case signal.Entry <= 0 || signal.StopLoss <= 0 || signal.TakeProfit <= 0:
		// Still displayed for transparency, never saved or tracked
		outcome.Reason = "invalid price levels"
	case !volume.IsRealistic:
		outcome.Reason = "unrealistic volume"
	case signal.Confidence < thresholds.Confidence:
		outcome.Reason = "confidence below threshold"
	case result.QualityScore < thresholds.Quality:
		outcome.Reason = "quality below threshold"
	case !c.guard.Record(pair, signal.Type):
		outcome.Reason = "duplicate within cooldown"
	default:
		outcome.ShouldSave = true
		outcome.ShouldTrack = c.cfg.TrackingEnabled
		outcome.Reason = "accepted"
		c.accepts.Record()
	}
	return outcome
}

// buildSignal turns the best pattern candidate into a full signal with
// leverage, fee and net profit/loss bookkeeping.
func (c *Coordinator) buildSignal(best *models.PatternCandidate) *models.Signal {
	signal := &models.Signal{
		Type:         best.Type,
		Confidence:   best.Reliability / 100,
		Patterns:     []string{best.PatternName},
		Entry:        best.Entry,
		StopLoss:     best.StopLoss,
		TakeProfit:   best.TakeProfit,
		RiskReward:   best.RiskReward,
		Leverage:     c.cfg.Leverage,
		PositionSize: best.PositionSize,
	}

	notional := signal.PositionSize * signal.Entry * signal.Leverage
	signal.TradingFees = notional * c.cfg.TakerFee * 2 // entry + exit

	profitMove := signal.TakeProfit - signal.Entry
	lossMove := signal.Entry - signal.StopLoss
	if signal.Type == models.SignalSell {
		profitMove = signal.Entry - signal.TakeProfit
		lossMove = signal.StopLoss - signal.Entry
	}
	signal.NetProfit = signal.PositionSize*profitMove*signal.Leverage - signal.TradingFees
	signal.NetLoss = signal.PositionSize*lossMove*signal.Leverage + signal.TradingFees
	return signal
}

// fallback produces the neutral error-recovery signal.
func (c *Coordinator) fallback(pair string, candles []models.Candle, reason string) *Outcome {
	out := c.neutralOutcome(candles, reason)
	out.Signal.Patterns = []string{errorRecoveryTag}
	return out
}

// neutralOutcome is a display-only NEUTRAL signal anchored to the last
// known price when there is one.
func (c *Coordinator) neutralOutcome(candles []models.Candle, reason string) *Outcome {
	var price float64
	if len(candles) > 0 {
		price = candles[len(candles)-1].Close
	}
	return &Outcome{
		Signal: &models.Signal{
			Type:       models.SignalNeutral,
			Confidence: 0.3,
			Entry:      price,
		},
		Reason:      reason,
		EvaluatedAt: c.now(),
	}
}

// persist materializes the accepted signal and appends it to the store.
func (c *Coordinator) persist(pair string, outcome *Outcome) *models.PersistedSignal {
	now := c.now()
	persisted := &models.PersistedSignal{
		Signal:    *outcome.Signal,
		ID:        uuid.NewString(),
		Pair:      pair,
		Timestamp: now.UnixMilli(),
		Status:    models.StatusActive,
		Outcome:   models.OutcomePending,
		EntryTime: now,
	}
	if err := c.store.Append(c.ctx, *persisted); err != nil {
		c.logger.Error().Err(err).Str("pair", pair).Msg("Failed to persist signal")
		return nil
	}
	return persisted
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
