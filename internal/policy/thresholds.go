package policy

import (
	"math"

	"github.com/Alias1177/SignalEngine/internal/config"
	"github.com/Alias1177/SignalEngine/models"
)

// Adjustment steps applied to the configured baselines. A fixed threshold
// either floods the user with noise in choppy markets or goes silent in
// quiet ones, so the policy moves with both market state and recent output
// rate.
const (
	starvationConfidenceRelief = 0.10
	starvationQualityRelief    = 10.0
	regimeConfidencePenalty    = 0.05
	regimeQualityPenalty       = 5.0
	momentumConfidenceRelief   = 0.03
)

// ThresholdPolicy returns the minimum confidence/quality a candidate signal
// must clear. Pure function of its inputs plus the injected rate window.
type ThresholdPolicy struct {
	cfg    *config.Config
	recent *RateWindow
}

// NewThresholdPolicy creates a policy around the configured baselines.
func NewThresholdPolicy(cfg *config.Config, recent *RateWindow) *ThresholdPolicy {
	return &ThresholdPolicy{cfg: cfg, recent: recent}
}

// GetThresholds computes the accept thresholds for one candidate.
func (p *ThresholdPolicy) GetThresholds(pair string, condition models.MarketCondition, momentum float64, volume models.VolumeValidation) models.Thresholds {
	confidence := p.cfg.BaseConfidence
	quality := p.cfg.BaseQuality

	// Starvation relief: no accepted signals in the rolling window relaxes
	// both thresholds so the user is never left with zero output
	if p.recent != nil && p.recent.Count() == 0 {
		confidence -= starvationConfidenceRelief
		quality -= starvationQualityRelief
	}

	// Unfavorable regimes tighten
	switch condition {
	case models.ConditionVolatile, models.ConditionChoppy:
		confidence += regimeConfidencePenalty
		quality += regimeQualityPenalty
	}

	// Suspicious volume data tightens further
	if !volume.IsRealistic {
		confidence += regimeConfidencePenalty
		quality += regimeQualityPenalty
	}

	// Strong momentum earns a small relief
	if math.Abs(momentum) > 1.0 {
		confidence -= momentumConfidenceRelief
	}

	return models.Thresholds{
		Confidence: clamp(confidence, 0, 1),
		Quality:    clamp(quality, 0, 100),
	}
}

// Baseline returns the unadjusted configured thresholds.
func (p *ThresholdPolicy) Baseline() models.Thresholds {
	return models.Thresholds{
		Confidence: clamp(p.cfg.BaseConfidence, 0, 1),
		Quality:    clamp(p.cfg.BaseQuality, 0, 100),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
