package calculate

import "github.com/Alias1177/SignalEngine/models"

// calculateOBV computes On-Balance Volume over the whole window.
func calculateOBV(candles []models.Candle) float64 {
	if len(candles) < 2 {
		return 0
	}

	var obv float64
	for i := 1; i < len(candles); i++ {
		if candles[i].Close > candles[i-1].Close {
			obv += candles[i].Volume
		} else if candles[i].Close < candles[i-1].Close {
			obv -= candles[i].Volume
		}
	}

	return obv
}
