package policy

import (
	"testing"
	"time"

	"github.com/Alias1177/SignalEngine/internal/config"
	"github.com/Alias1177/SignalEngine/models"
)

func testConfig() *config.Config {
	return &config.Config{
		BaseConfidence: 0.65,
		BaseQuality:    70,
		RateWindow:     30 * time.Minute,
	}
}

func goodVolume() models.VolumeValidation {
	return models.VolumeValidation{IsRealistic: true}
}

func TestStarvationRelief(t *testing.T) {
	cfg := testConfig()
	window := NewRateWindow(cfg.RateWindow)
	policy := NewThresholdPolicy(cfg, window)

	starved := policy.GetThresholds("BTC/USDT", models.ConditionRanging, 0, goodVolume())
	if starved.Confidence >= cfg.BaseConfidence {
		t.Errorf("starved confidence = %v, want below baseline %v", starved.Confidence, cfg.BaseConfidence)
	}
	if starved.Quality >= cfg.BaseQuality {
		t.Errorf("starved quality = %v, want below baseline %v", starved.Quality, cfg.BaseQuality)
	}

	// One recent accept removes the relief
	window.Record()
	fed := policy.GetThresholds("BTC/USDT", models.ConditionRanging, 0, goodVolume())
	if fed.Confidence != cfg.BaseConfidence {
		t.Errorf("fed confidence = %v, want baseline %v", fed.Confidence, cfg.BaseConfidence)
	}
	if fed.Quality != cfg.BaseQuality {
		t.Errorf("fed quality = %v, want baseline %v", fed.Quality, cfg.BaseQuality)
	}
}

func TestRegimeAndVolumeTighten(t *testing.T) {
	cfg := testConfig()
	window := NewRateWindow(cfg.RateWindow)
	window.Record() // no starvation relief
	policy := NewThresholdPolicy(cfg, window)

	base := policy.GetThresholds("BTC/USDT", models.ConditionRanging, 0, goodVolume())

	tests := []struct {
		name      string
		condition models.MarketCondition
		volume    models.VolumeValidation
	}{
		{name: "Волатильный режим", condition: models.ConditionVolatile, volume: goodVolume()},
		{name: "Рваный режим", condition: models.ConditionChoppy, volume: goodVolume()},
		{name: "Плохой объём", condition: models.ConditionRanging, volume: models.VolumeValidation{IsRealistic: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.GetThresholds("BTC/USDT", tt.condition, 0, tt.volume)
			if got.Confidence <= base.Confidence {
				t.Errorf("confidence = %v, want above base %v", got.Confidence, base.Confidence)
			}
			if got.Quality <= base.Quality {
				t.Errorf("quality = %v, want above base %v", got.Quality, base.Quality)
			}
		})
	}
}

func TestMomentumRelief(t *testing.T) {
	cfg := testConfig()
	window := NewRateWindow(cfg.RateWindow)
	window.Record()
	policy := NewThresholdPolicy(cfg, window)

	base := policy.GetThresholds("BTC/USDT", models.ConditionRanging, 0, goodVolume())
	strong := policy.GetThresholds("BTC/USDT", models.ConditionRanging, 2.5, goodVolume())

	if strong.Confidence >= base.Confidence {
		t.Errorf("strong momentum confidence = %v, want below base %v", strong.Confidence, base.Confidence)
	}
}

func TestThresholdClamping(t *testing.T) {
	cfg := testConfig()
	cfg.BaseConfidence = 0.99
	cfg.BaseQuality = 98

	policy := NewThresholdPolicy(cfg, nil)
	got := policy.GetThresholds("BTC/USDT", models.ConditionVolatile, 0,
		models.VolumeValidation{IsRealistic: false})

	if got.Confidence > 1 {
		t.Errorf("confidence = %v, want clamped to 1", got.Confidence)
	}
	if got.Quality > 100 {
		t.Errorf("quality = %v, want clamped to 100", got.Quality)
	}
}

func TestRateWindowPrunes(t *testing.T) {
	window := NewRateWindow(30 * time.Minute)
	base := time.Now()
	window.now = func() time.Time { return base }

	window.RecordAt(base.Add(-45 * time.Minute))
	window.RecordAt(base.Add(-10 * time.Minute))
	window.RecordAt(base)

	if got := window.Count(); got != 2 {
		t.Errorf("Count() = %v, want 2", got)
	}

	window.now = func() time.Time { return base.Add(time.Hour) }
	if got := window.Count(); got != 0 {
		t.Errorf("Count() after an hour = %v, want 0", got)
	}
}
