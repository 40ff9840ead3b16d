package calculate

import "github.com/Alias1177/SignalEngine/models"

// calculateVWAP computes the volume weighted average price over the window.
// Falls back to the last close when the window carries no volume.
func calculateVWAP(candles []models.Candle) float64 {
	var cumulativePV, cumulativeVolume float64
	for _, c := range candles {
		typical := (c.High + c.Low + c.Close) / 3
		cumulativePV += typical * c.Volume
		cumulativeVolume += c.Volume
	}

	if cumulativeVolume == 0 {
		return candles[len(candles)-1].Close
	}

	return cumulativePV / cumulativeVolume
}
