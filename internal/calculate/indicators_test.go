package calculate

import (
	"reflect"
	"testing"

	"github.com/Alias1177/SignalEngine/internal/config"
	"github.com/Alias1177/SignalEngine/models"
)

func testConfig() *config.Config {
	return &config.Config{
		RSIPeriod:        14,
		MACDFastPeriod:   12,
		MACDSlowPeriod:   26,
		MACDSignalPeriod: 9,
		BBPeriod:         20,
		BBStdDev:         2.0,
		EMAPeriod:        10,
		ATRPeriod:        14,
		ADXPeriod:        14,
		CCIPeriod:        20,
		StochKPeriod:     14,
		StochDPeriod:     3,
	}
}

func generateTestCandles(n int, generator func(int) models.Candle) []models.Candle {
	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		candles[i] = generator(i)
	}
	return candles
}

func trendingCandles(n int, step float64) []models.Candle {
	return generateTestCandles(n, func(i int) models.Candle {
		base := 100 + float64(i)*step
		return models.Candle{
			Timestamp: int64(i) * 60_000,
			Open:      base - step/2,
			High:      base + 1,
			Low:       base - 1,
			Close:     base,
			Volume:    1000 + float64(i)*10,
		}
	})
}

func TestComputeDeterministic(t *testing.T) {
	cfg := testConfig()
	candles := trendingCandles(60, 0.5)

	first := Compute(candles, cfg)
	second := Compute(candles, cfg)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Compute() not deterministic: %+v != %+v", first, second)
	}
}

func TestComputeShortWindow(t *testing.T) {
	tests := []struct {
		name        string
		candles     []models.Candle
		unavailable []string
	}{
		{
			name:    "Пустое окно",
			candles: nil,
			unavailable: []string{
				NameRSI, NameMACD, NameBollinger, NameEMA, NameATR, NameADX,
				NameCCI, NameVWAP, NameOBV, NameStochastic, NameMomentum,
			},
		},
		{
			name:    "Три свечи",
			candles: trendingCandles(3, 1),
			unavailable: []string{
				NameRSI, NameMACD, NameBollinger, NameEMA, NameATR, NameADX,
				NameCCI, NameStochastic, NameMomentum,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := Compute(tt.candles, testConfig())

			for _, name := range tt.unavailable {
				if set.Available(name) {
					t.Errorf("indicator %s should be unavailable", name)
				}
			}
			if set.RSI != 50 {
				t.Errorf("RSI neutral default = %v, want 50", set.RSI)
			}
			if set.Stochastic != 50 {
				t.Errorf("Stochastic neutral default = %v, want 50", set.Stochastic)
			}
			if set.VolatilityRatio != 1 {
				t.Errorf("VolatilityRatio neutral default = %v, want 1", set.VolatilityRatio)
			}
		})
	}
}

func TestComputeTrendDirection(t *testing.T) {
	cfg := testConfig()

	up := Compute(trendingCandles(60, 0.5), cfg)
	if up.RSI <= 50 {
		t.Errorf("uptrend RSI = %v, want > 50", up.RSI)
	}
	if up.Momentum <= 0 {
		t.Errorf("uptrend Momentum = %v, want > 0", up.Momentum)
	}

	down := Compute(trendingCandles(60, -0.5), cfg)
	if down.RSI >= 50 {
		t.Errorf("downtrend RSI = %v, want < 50", down.RSI)
	}
	if down.Momentum >= 0 {
		t.Errorf("downtrend Momentum = %v, want < 0", down.Momentum)
	}
}

func TestComputeFullWindow(t *testing.T) {
	set := Compute(trendingCandles(200, 0.2), testConfig())

	if len(set.Unavailable) != 0 {
		t.Errorf("full window Unavailable = %v, want empty", set.Unavailable)
	}
	if set.BBUpper <= set.BBMiddle || set.BBMiddle <= set.BBLower {
		t.Errorf("bollinger ordering broken: %v %v %v", set.BBUpper, set.BBMiddle, set.BBLower)
	}
	if set.ATR <= 0 {
		t.Errorf("ATR = %v, want > 0", set.ATR)
	}
	if set.EMA <= 0 || set.VWAP <= 0 {
		t.Errorf("EMA/VWAP should be positive, got %v / %v", set.EMA, set.VWAP)
	}
}
