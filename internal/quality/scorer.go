package quality

import (
	"math"

	"github.com/Alias1177/SignalEngine/models"
)

// ScoringStrategy assigns a composite quality score to a candidate signal.
// The concrete implementation is a weighted heuristic; the interface leaves
// room for a trained model without renaming anything.
type ScoringStrategy interface {
	Score(signal *models.Signal, indicators *models.IndicatorSet, candles []models.Candle, volume models.VolumeValidation) models.QualityResult
}

// HeuristicScorer is the default ScoringStrategy: indicator agreement,
// pattern reliability and volume realism blended into a 0..100 score.
type HeuristicScorer struct{}

// NewHeuristicScorer creates the default scorer.
func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{}
}

// Score is deterministic: identical inputs always produce identical output.
func (s *HeuristicScorer) Score(signal *models.Signal, indicators *models.IndicatorSet, candles []models.Candle, volume models.VolumeValidation) models.QualityResult {
	condition := classifyCondition(indicators)
	momentum := normalizedMomentum(indicators, candles)

	if signal == nil || indicators == nil || len(candles) == 0 {
		return models.QualityResult{MarketCondition: condition, Momentum: momentum}
	}

	// Base: confidence carries half the weight
	score := signal.Confidence * 50

	// Indicator agreement with the signal direction
	agreement := directionAgreement(signal.Type, indicators, candles)
	score += agreement * 30

	// Trend consistency: recent price change pointing the same way
	if signal.Type == models.SignalBuy && indicators.PriceChange > 0 {
		score += 10
	} else if signal.Type == models.SignalSell && indicators.PriceChange < 0 {
		score += 10
	}

	// Favorable regimes earn a margin, unstable ones cost one
	switch condition {
	case models.ConditionTrendingUp:
		if signal.Type == models.SignalBuy {
			score += 10
		}
	case models.ConditionTrendingDown:
		if signal.Type == models.SignalSell {
			score += 10
		}
	case models.ConditionChoppy:
		score -= 10
	}

	// Missing indicators lower trust in the agreement measurement
	score -= float64(len(indicators.Unavailable)) * 2

	// Unrealistic volume caps the score below any sane accept threshold
	if !volume.IsRealistic {
		score = math.Min(score, 40)
	}

	return models.QualityResult{
		QualityScore:    math.Max(0, math.Min(100, score)),
		MarketCondition: condition,
		Momentum:        momentum,
	}
}

// directionAgreement returns -1..1: the share of computable indicators that
// vote with the signal direction minus those voting against it.
func directionAgreement(sigType models.SignalType, ind *models.IndicatorSet, candles []models.Candle) float64 {
	if sigType == models.SignalNeutral {
		return 0
	}

	price := candles[len(candles)-1].Close

	bullish := 0
	bearish := 0
	votes := 0

	vote := func(name string, isBullish, isBearish bool) {
		if !ind.Available(name) {
			return
		}
		votes++
		if isBullish {
			bullish++
		} else if isBearish {
			bearish++
		}
	}

	vote("RSI", ind.RSI < 40, ind.RSI > 60)
	vote("MACD", ind.MACDHist > 0, ind.MACDHist < 0)
	vote("STOCHASTIC",
		ind.Stochastic < 20 && ind.Stochastic > ind.StochasticSignal,
		ind.Stochastic > 80 && ind.Stochastic < ind.StochasticSignal)
	vote("EMA", price > ind.EMA, price < ind.EMA)
	vote("BOLLINGER", price < ind.BBLower, price > ind.BBUpper)
	vote("ADX", ind.ADX > 25 && ind.PlusDI > ind.MinusDI, ind.ADX > 25 && ind.MinusDI > ind.PlusDI)
	vote("CCI", ind.CCI < -100, ind.CCI > 100)
	vote("VWAP", price > ind.VWAP, price < ind.VWAP)

	if votes == 0 {
		return 0
	}

	net := float64(bullish-bearish) / float64(votes)
	if sigType == models.SignalSell {
		net = -net
	}
	return net
}

// classifyCondition labels the market regime from trend and volatility state.
func classifyCondition(ind *models.IndicatorSet) models.MarketCondition {
	if ind == nil {
		return models.ConditionRanging
	}

	if ind.VolatilityRatio > 1.6 {
		return models.ConditionVolatile
	}

	if ind.Available("ADX") && ind.ADX > 25 {
		if ind.PlusDI > ind.MinusDI {
			return models.ConditionTrendingUp
		}
		return models.ConditionTrendingDown
	}

	// Weak trend with above-normal volatility reads as chop
	if ind.VolatilityRatio > 1.2 {
		return models.ConditionChoppy
	}

	return models.ConditionRanging
}

// normalizedMomentum expresses momentum as a percentage of the last close.
func normalizedMomentum(ind *models.IndicatorSet, candles []models.Candle) float64 {
	if ind == nil || len(candles) == 0 {
		return 0
	}
	lastClose := candles[len(candles)-1].Close
	if lastClose == 0 {
		return 0
	}
	return ind.Momentum / lastClose * 100
}
