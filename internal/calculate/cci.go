package calculate

import (
	"math"

	"github.com/Alias1177/SignalEngine/models"
)

// calculateCCI computes the Commodity Channel Index over the period.
func calculateCCI(candles []models.Candle, period int) float64 {
	if len(candles) < period {
		return 0
	}

	window := candles[len(candles)-period:]

	typical := make([]float64, period)
	var sum float64
	for i, c := range window {
		typical[i] = (c.High + c.Low + c.Close) / 3
		sum += typical[i]
	}
	sma := sum / float64(period)

	var meanDeviation float64
	for _, tp := range typical {
		meanDeviation += math.Abs(tp - sma)
	}
	meanDeviation /= float64(period)

	if meanDeviation == 0 {
		return 0
	}

	return (typical[period-1] - sma) / (0.015 * meanDeviation)
}
