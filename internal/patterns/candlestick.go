package patterns

import (
	"math"

	"github.com/Alias1177/SignalEngine/models"
)

// Pattern names in the detection catalog.
const (
	BullishEngulfing      = "BULLISH_ENGULFING"
	BearishEngulfing      = "BEARISH_ENGULFING"
	Hammer                = "HAMMER"
	ShootingStar          = "SHOOTING_STAR"
	ThreeWhiteSoldiers    = "THREE_WHITE_SOLDIERS"
	ThreeBlackCrows       = "THREE_BLACK_CROWS"
	Doji                  = "DOJI"
	StrongBullishMomentum = "STRONG_BULLISH_MOMENTUM"
	StrongBearishMomentum = "STRONG_BEARISH_MOMENTUM"
	MorningStar           = "MORNING_STAR"
	EveningStar           = "EVENING_STAR"
	DoubleTop             = "DOUBLE_TOP"
	DoubleBottom          = "DOUBLE_BOTTOM"
)

// direction of each catalog entry; Doji stays non-directional.
var patternDirection = map[string]models.SignalType{
	BullishEngulfing:      models.SignalBuy,
	BearishEngulfing:      models.SignalSell,
	Hammer:                models.SignalBuy,
	ShootingStar:          models.SignalSell,
	ThreeWhiteSoldiers:    models.SignalBuy,
	ThreeBlackCrows:       models.SignalSell,
	Doji:                  models.SignalNeutral,
	StrongBullishMomentum: models.SignalBuy,
	StrongBearishMomentum: models.SignalSell,
	MorningStar:           models.SignalBuy,
	EveningStar:           models.SignalSell,
	DoubleTop:             models.SignalSell,
	DoubleBottom:          models.SignalBuy,
}

// base reliability per pattern before the strength adjustment
var patternReliability = map[string]float64{
	BullishEngulfing:      75,
	BearishEngulfing:      75,
	Hammer:                70,
	ShootingStar:          70,
	ThreeWhiteSoldiers:    80,
	ThreeBlackCrows:       80,
	Doji:                  40,
	StrongBullishMomentum: 65,
	StrongBearishMomentum: 65,
	MorningStar:           78,
	EveningStar:           78,
	DoubleTop:             72,
	DoubleBottom:          72,
}

// identifyPatterns identifies candle patterns on the recent window
func identifyPatterns(candles []models.Candle) []string {
	if len(candles) < 5 {
		return nil
	}

	var patterns []string

	// Get recent candles
	c3 := candles[len(candles)-3]
	c4 := candles[len(candles)-2]
	c5 := candles[len(candles)-1] // Most recent

	// Body sizes
	bodySize1 := math.Abs(candles[len(candles)-5].Close - candles[len(candles)-5].Open)
	bodySize2 := math.Abs(candles[len(candles)-4].Close - candles[len(candles)-4].Open)
	bodySize3 := math.Abs(c3.Close - c3.Open)
	bodySize4 := math.Abs(c4.Close - c4.Open)
	bodySize5 := math.Abs(c5.Close - c5.Open)

	avgBodySize := (bodySize1 + bodySize2 + bodySize3 + bodySize4 + bodySize5) / 5

	bullish3 := c3.Bullish()
	bullish4 := c4.Bullish()
	bullish5 := c5.Bullish()

	upperWick5 := c5.High - math.Max(c5.Open, c5.Close)
	lowerWick5 := math.Min(c5.Open, c5.Close) - c5.Low

	// Engulfing patterns
	if bullish5 && !bullish4 &&
		c5.Open < c4.Close &&
		c5.Close > c4.Open &&
		bodySize5 > bodySize4*1.2 {
		patterns = append(patterns, BullishEngulfing)
	}

	if !bullish5 && bullish4 &&
		c5.Open > c4.Close &&
		c5.Close < c4.Open &&
		bodySize5 > bodySize4*1.2 {
		patterns = append(patterns, BearishEngulfing)
	}

	// Pin bars / hammers
	if lowerWick5 > bodySize5*2 && upperWick5 < bodySize5*0.5 {
		patterns = append(patterns, Hammer)
	}

	if upperWick5 > bodySize5*2 && lowerWick5 < bodySize5*0.5 {
		patterns = append(patterns, ShootingStar)
	}

	// Three candle patterns
	if bullish3 && bullish4 && bullish5 {
		patterns = append(patterns, ThreeWhiteSoldiers)
	}

	if !bullish3 && !bullish4 && !bullish5 {
		patterns = append(patterns, ThreeBlackCrows)
	}

	// Doji
	if bodySize5 < avgBodySize*0.3 &&
		(upperWick5 > bodySize5 || lowerWick5 > bodySize5) {
		patterns = append(patterns, Doji)
	}

	// Momentum candles
	if bullish5 && bodySize5 > avgBodySize*1.5 &&
		lowerWick5 < bodySize5*0.2 && upperWick5 < bodySize5*0.2 {
		patterns = append(patterns, StrongBullishMomentum)
	}

	if !bullish5 && bodySize5 > avgBodySize*1.5 &&
		lowerWick5 < bodySize5*0.2 && upperWick5 < bodySize5*0.2 {
		patterns = append(patterns, StrongBearishMomentum)
	}

	// Evening Star (bearish reversal)
	if len(candles) >= 7 &&
		bullish3 &&
		bodySize3 > avgBodySize &&
		bodySize4 < avgBodySize*0.3 &&
		c4.Open > c3.Close &&
		!bullish5 &&
		bodySize5 > avgBodySize &&
		c5.Close < (c3.Open+(c3.Close-c3.Open)/2) {
		patterns = append(patterns, EveningStar)
	}

	// Morning Star (bullish reversal)
	if len(candles) >= 7 &&
		!bullish3 &&
		bodySize3 > avgBodySize &&
		bodySize4 < avgBodySize*0.3 &&
		c4.Open < c3.Close &&
		bullish5 &&
		bodySize5 > avgBodySize &&
		c5.Close > (c3.Open+(c3.Close-c3.Open)/2) {
		patterns = append(patterns, MorningStar)
	}

	patterns = append(patterns, identifyDoubleTopBottom(candles, avgBodySize)...)

	return patterns
}

// identifyDoubleTopBottom detects double top and double bottom patterns
func identifyDoubleTopBottom(candles []models.Candle, avgBodySize float64) []string {
	var patterns []string

	if len(candles) < 10 {
		return patterns
	}

	// Two peaks of similar height with a valley in between
	var peaks []int
	for i := 2; i < len(candles)-2; i++ {
		if candles[i].High > candles[i-1].High &&
			candles[i].High > candles[i-2].High &&
			candles[i].High > candles[i+1].High &&
			candles[i].High > candles[i+2].High {
			peaks = append(peaks, i)
		}
	}

	if len(peaks) >= 2 {
		last := peaks[len(peaks)-1]
		prev := peaks[len(peaks)-2]

		if math.Abs(candles[last].High-candles[prev].High) < avgBodySize*0.5 &&
			last-prev >= 3 {
			lowestVal := candles[prev].High
			for i := prev + 1; i < last; i++ {
				if candles[i].Low < lowestVal {
					lowestVal = candles[i].Low
				}
			}

			// Confirmed once price breaks below the valley
			if candles[len(candles)-1].Close < lowestVal {
				patterns = append(patterns, DoubleTop)
			}
		}
	}

	// Two troughs of similar depth with a peak in between
	var troughs []int
	for i := 2; i < len(candles)-2; i++ {
		if candles[i].Low < candles[i-1].Low &&
			candles[i].Low < candles[i-2].Low &&
			candles[i].Low < candles[i+1].Low &&
			candles[i].Low < candles[i+2].Low {
			troughs = append(troughs, i)
		}
	}

	if len(troughs) >= 2 {
		last := troughs[len(troughs)-1]
		prev := troughs[len(troughs)-2]

		if math.Abs(candles[last].Low-candles[prev].Low) < avgBodySize*0.5 &&
			last-prev >= 3 {
			highestVal := candles[prev].Low
			for i := prev + 1; i < last; i++ {
				if candles[i].High > highestVal {
					highestVal = candles[i].High
				}
			}

			if candles[len(candles)-1].Close > highestVal {
				patterns = append(patterns, DoubleBottom)
			}
		}
	}

	return patterns
}

// patternStrength evaluates the strength of a matched pattern, 0..1-ish
// (engulfing ratios can exceed 1; callers clamp).
func patternStrength(pattern string, candles []models.Candle) float64 {
	if len(candles) < 5 {
		return 0.0
	}

	c3 := candles[len(candles)-3]
	c4 := candles[len(candles)-2]
	c5 := candles[len(candles)-1] // Most recent

	switch pattern {
	case BullishEngulfing, BearishEngulfing:
		// Strength based on how much current candle engulfs previous
		bodySize4 := math.Abs(c4.Close - c4.Open)
		bodySize5 := math.Abs(c5.Close - c5.Open)
		if bodySize4 == 0 {
			return 0.0
		}
		return (bodySize5 / bodySize4) - 1.0

	case Hammer, ShootingStar:
		// Strength based on wick to body ratio
		bodySize := math.Abs(c5.Close - c5.Open)
		if bodySize == 0 {
			return 0.0
		}
		if pattern == Hammer {
			return (math.Min(c5.Open, c5.Close) - c5.Low) / bodySize / 3
		}
		return (c5.High - math.Max(c5.Open, c5.Close)) / bodySize / 3

	case Doji:
		bodySize := math.Abs(c5.Close - c5.Open)
		totalRange := c5.High - c5.Low
		if totalRange == 0 {
			return 0.0
		}
		return 1.0 - (bodySize / totalRange)

	case ThreeWhiteSoldiers, ThreeBlackCrows:
		// Consistency of the three candle bodies
		bodySize3 := math.Abs(c3.Close - c3.Open)
		bodySize4 := math.Abs(c4.Close - c4.Open)
		bodySize5 := math.Abs(c5.Close - c5.Open)
		avgSize := (bodySize3 + bodySize4 + bodySize5) / 3
		if avgSize == 0 {
			return 0.0
		}
		sizeDiff := math.Abs(bodySize3-avgSize) + math.Abs(bodySize4-avgSize) + math.Abs(bodySize5-avgSize)
		return 1.0 - (sizeDiff / (avgSize * 3))

	case MorningStar, EveningStar:
		// Smaller middle candle relative to its neighbors is stronger
		bodySize3 := math.Abs(c3.Close - c3.Open)
		bodySize4 := math.Abs(c4.Close - c4.Open)
		bodySize5 := math.Abs(c5.Close - c5.Open)
		neighbors := (bodySize3 + bodySize5) / 2
		if neighbors == 0 {
			return 0.0
		}
		return 1.0 - (bodySize4 / neighbors)

	default:
		return 0.5 // Default moderate strength
	}
}
