package quality

import (
	"strings"

	"github.com/Alias1177/SignalEngine/models"
)

// Per-tier absolute floors for 24h quote volume. Upstream data sources
// sometimes report stale or plainly wrong volume; accepting a signal on bad
// volume data is a correctness risk, so majors must clear a much higher bar.
const (
	majorVolumeFloor   = 1_000_000
	midCapVolumeFloor  = 100_000
	defaultVolumeFloor = 10_000
)

var majorAssets = map[string]bool{
	"BTC": true,
	"ETH": true,
}

var midCapAssets = map[string]bool{
	"BNB":  true,
	"SOL":  true,
	"XRP":  true,
	"ADA":  true,
	"DOGE": true,
	"AVAX": true,
	"DOT":  true,
	"LINK": true,
}

// ValidateVolume checks whether the reported 24h volume clears the asset
// tier's expected minimum.
func ValidateVolume(pair string, volume24h float64) models.VolumeValidation {
	expected := expectedMinimum(pair)
	return models.VolumeValidation{
		IsRealistic:     volume24h >= expected,
		CurrentVolume:   volume24h,
		ExpectedMinimum: expected,
	}
}

func expectedMinimum(pair string) float64 {
	base := pair
	if idx := strings.IndexAny(pair, "/-"); idx > 0 {
		base = pair[:idx]
	}
	base = strings.ToUpper(base)

	switch {
	case majorAssets[base]:
		return majorVolumeFloor
	case midCapAssets[base]:
		return midCapVolumeFloor
	default:
		return defaultVolumeFloor
	}
}
