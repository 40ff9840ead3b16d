package patterns

import (
	"math"

	"github.com/Alias1177/SignalEngine/internal/calculate"
	"github.com/Alias1177/SignalEngine/internal/config"
	"github.com/Alias1177/SignalEngine/models"
)

// volatilityLookback is the range window used for the normalized volatility
// measure.
const volatilityLookback = 20

// Result is the output of one detection pass.
type Result struct {
	// Best is the single highest-reliability directional candidate, nil when
	// nothing clears the reliability floor.
	Best *models.PatternCandidate
	// Matched lists all matched pattern names, directional or not.
	Matched []string
	// Volatility is the recent high/low range normalized by price.
	Volatility float64
}

// Detect scans the recent candles against the pattern catalog and picks the
// best directional candidate. Selection: highest reliability, ties broken by
// higher implied risk/reward.
func Detect(candles []models.Candle, cfg *config.Config) Result {
	res := Result{Volatility: volatility(candles)}

	if len(candles) < 5 {
		return res
	}

	res.Matched = identifyPatterns(candles)
	if len(res.Matched) == 0 {
		return res
	}

	atr := calculate.CalculateATR(candles, cfg.ATRPeriod)
	entry := candles[len(candles)-1].Close

	for _, name := range res.Matched {
		direction := patternDirection[name]
		if direction == models.SignalNeutral {
			continue
		}

		reliability := reliabilityFor(name, candles)
		if reliability < cfg.ReliabilityFloor {
			continue
		}

		candidate := buildCandidate(name, direction, reliability, entry, atr, cfg)
		if res.Best == nil ||
			candidate.Reliability > res.Best.Reliability ||
			(candidate.Reliability == res.Best.Reliability && candidate.RiskReward > res.Best.RiskReward) {
			res.Best = candidate
		}
	}

	return res
}

// reliabilityFor blends the catalog base score with the measured pattern
// strength, clamped to 0..100.
func reliabilityFor(name string, candles []models.Candle) float64 {
	base := patternReliability[name]
	strength := math.Max(0, math.Min(1, patternStrength(name, candles)))

	// Strength shifts the base by up to ±10 points
	reliability := base + (strength-0.5)*20
	return math.Max(0, math.Min(100, reliability))
}

// buildCandidate derives entry, ATR-based stop, 1:2 take-profit and a
// risk-sized position for the pattern.
func buildCandidate(name string, direction models.SignalType, reliability, entry, atr float64, cfg *config.Config) *models.PatternCandidate {
	// Fall back to a 1% stop distance when ATR is unavailable
	stopDistance := atr * 1.5
	if stopDistance <= 0 {
		stopDistance = entry * 0.01
	}

	var stopLoss, takeProfit float64
	if direction == models.SignalBuy {
		stopLoss = entry - stopDistance
		takeProfit = entry + stopDistance*2.0
	} else {
		stopLoss = entry + stopDistance
		takeProfit = entry - stopDistance*2.0
	}

	riskReward := 0.0
	if stopDistance > 0 {
		riskReward = math.Abs(takeProfit-entry) / stopDistance
	}

	// Position size = risk amount per trade / stop distance
	positionSize := 0.0
	if stopDistance > 0 {
		positionSize = (cfg.AccountSize * cfg.RiskPerTrade) / stopDistance
	}

	return &models.PatternCandidate{
		PatternName:  name,
		Type:         direction,
		Reliability:  reliability,
		Entry:        entry,
		StopLoss:     stopLoss,
		TakeProfit:   takeProfit,
		RiskReward:   riskReward,
		PositionSize: positionSize,
	}
}

// volatility returns the high/low range of the recent window relative to the
// last close.
func volatility(candles []models.Candle) float64 {
	if len(candles) == 0 {
		return 0
	}

	start := len(candles) - volatilityLookback
	if start < 0 {
		start = 0
	}

	highest := candles[start].High
	lowest := candles[start].Low
	for _, c := range candles[start:] {
		if c.High > highest {
			highest = c.High
		}
		if c.Low < lowest {
			lowest = c.Low
		}
	}

	lastClose := candles[len(candles)-1].Close
	if lastClose == 0 {
		return 0
	}

	return (highest - lowest) / lastClose
}
