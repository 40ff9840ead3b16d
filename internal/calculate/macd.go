package calculate

import "github.com/Alias1177/SignalEngine/models"

func calculateMACD(candles []models.Candle, fastPeriod, slowPeriod, signalPeriod int) (float64, float64, float64) {
	closes := make([]float64, len(candles))
	for i, candle := range candles {
		closes[i] = candle.Close
	}

	// Cannot calculate MACD with insufficient data
	if len(closes) < slowPeriod+signalPeriod {
		return 0, 0, 0
	}

	fastEMA := calculateEMAFromPrices(closes, fastPeriod)
	slowEMA := calculateEMAFromPrices(closes, slowPeriod)
	macdLine := fastEMA - slowEMA

	// Signal line is an EMA of the MACD history over a sliding window
	macdHistory := make([]float64, 0, len(closes)-slowPeriod+1)
	for i := slowPeriod - 1; i < len(closes); i++ {
		window := closes[:i+1]
		macdHistory = append(macdHistory, calculateEMAFromPrices(window, fastPeriod)-calculateEMAFromPrices(window, slowPeriod))
	}

	signalLine := 0.0
	if len(macdHistory) >= signalPeriod {
		signalLine = calculateEMAFromPrices(macdHistory, signalPeriod)
	}

	histogram := macdLine - signalLine

	return macdLine, signalLine, histogram
}
