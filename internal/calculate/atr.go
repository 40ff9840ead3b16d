package calculate

import (
	"math"

	"github.com/Alias1177/SignalEngine/models"
)

// CalculateATR returns the average true range over the period. Exported
// because pattern detection and stop placement reuse it.
func CalculateATR(candles []models.Candle, period int) float64 {
	if len(candles) < period+1 {
		return 0
	}

	var trueRanges []float64

	// True Range is the greatest of:
	// 1. Current High - Current Low
	// 2. Abs(Current High - Previous Close)
	// 3. Abs(Current Low - Previous Close)
	for i := 1; i < len(candles); i++ {
		highLow := candles[i].High - candles[i].Low
		highPrevClose := math.Abs(candles[i].High - candles[i-1].Close)
		lowPrevClose := math.Abs(candles[i].Low - candles[i-1].Close)

		trueRange := math.Max(highLow, math.Max(highPrevClose, lowPrevClose))
		trueRanges = append(trueRanges, trueRange)
	}

	periodToUse := period
	if len(trueRanges) < period {
		periodToUse = len(trueRanges)
	}

	var sum float64
	for i := len(trueRanges) - periodToUse; i < len(trueRanges); i++ {
		sum += trueRanges[i]
	}

	return sum / float64(periodToUse)
}
