package calculate

import (
	"math"

	"github.com/Alias1177/SignalEngine/models"
)

func calculateADX(candles []models.Candle, period int) (float64, float64, float64) {
	if len(candles) < period*2 {
		return 0, 0, 0 // Not enough data
	}

	var plusDM, minusDM, trueRange []float64

	for i := 1; i < len(candles); i++ {
		upMove := candles[i].High - candles[i-1].High
		downMove := candles[i-1].Low - candles[i].Low

		// +DM when current high - previous high exceeds previous low - current low
		pDM := 0.0
		if upMove > downMove && upMove > 0 {
			pDM = upMove
		}
		plusDM = append(plusDM, pDM)

		mDM := 0.0
		if downMove > upMove && downMove > 0 {
			mDM = downMove
		}
		minusDM = append(minusDM, mDM)

		tr1 := candles[i].High - candles[i].Low
		tr2 := math.Abs(candles[i].High - candles[i-1].Close)
		tr3 := math.Abs(candles[i].Low - candles[i-1].Close)
		trueRange = append(trueRange, math.Max(tr1, math.Max(tr2, tr3)))
	}

	// Smoothed +DM, -DM and TR over the first period
	var smoothedPlusDM, smoothedMinusDM, smoothedTR float64
	for i := 0; i < period; i++ {
		smoothedPlusDM += plusDM[i]
		smoothedMinusDM += minusDM[i]
		smoothedTR += trueRange[i]
	}

	if smoothedTR == 0 {
		return 0, 0, 0
	}

	plusDI := (smoothedPlusDM / smoothedTR) * 100
	minusDI := (smoothedMinusDM / smoothedTR) * 100

	dx := 0.0
	if plusDI+minusDI > 0 {
		dx = math.Abs(plusDI-minusDI) / (plusDI + minusDI) * 100
	}
	adx := dx

	// Refine for remaining periods
	for i := period; i < len(trueRange); i++ {
		smoothedPlusDM = smoothedPlusDM - (smoothedPlusDM / float64(period)) + plusDM[i]
		smoothedMinusDM = smoothedMinusDM - (smoothedMinusDM / float64(period)) + minusDM[i]
		smoothedTR = smoothedTR - (smoothedTR / float64(period)) + trueRange[i]

		if smoothedTR == 0 {
			continue
		}

		newPlusDI := (smoothedPlusDM / smoothedTR) * 100
		newMinusDI := (smoothedMinusDM / smoothedTR) * 100

		newDX := 0.0
		if newPlusDI+newMinusDI > 0 {
			newDX = math.Abs(newPlusDI-newMinusDI) / (newPlusDI + newMinusDI) * 100
		}

		// ADX is smoothed DX
		adx = ((float64(period-1) * adx) + newDX) / float64(period)

		plusDI = newPlusDI
		minusDI = newMinusDI
	}

	return adx, plusDI, minusDI
}
