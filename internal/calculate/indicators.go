package calculate

import (
	"github.com/Alias1177/SignalEngine/internal/config"
	"github.com/Alias1177/SignalEngine/models"
)

// Indicator names reported through IndicatorSet.Unavailable.
const (
	NameRSI        = "RSI"
	NameMACD       = "MACD"
	NameBollinger  = "BOLLINGER"
	NameEMA        = "EMA"
	NameATR        = "ATR"
	NameADX        = "ADX"
	NameCCI        = "CCI"
	NameVWAP       = "VWAP"
	NameOBV        = "OBV"
	NameStochastic = "STOCHASTIC"
	NameMomentum   = "MOMENTUM"
)

// Compute calculates all technical indicators for the candle window.
// Pure function of its inputs: no state is retained between calls. A window
// too short for a given indicator yields that indicator's neutral default
// and its name in the Unavailable list, never a panic.
func Compute(candles []models.Candle, cfg *config.Config) *models.IndicatorSet {
	set := &models.IndicatorSet{
		RSI:              50,
		Stochastic:       50,
		StochasticSignal: 50,
		VolatilityRatio:  1,
	}

	if len(candles) == 0 {
		set.Unavailable = []string{
			NameRSI, NameMACD, NameBollinger, NameEMA, NameATR, NameADX,
			NameCCI, NameVWAP, NameOBV, NameStochastic, NameMomentum,
		}
		return set
	}

	lastClose := candles[len(candles)-1].Close
	set.BBUpper, set.BBMiddle, set.BBLower = lastClose, lastClose, lastClose
	set.EMA = lastClose
	set.VWAP = lastClose

	unavailable := func(name string) {
		set.Unavailable = append(set.Unavailable, name)
	}

	if len(candles) >= cfg.RSIPeriod+1 {
		set.RSI = calculateRSI(candles, cfg.RSIPeriod)
	} else {
		unavailable(NameRSI)
	}

	if len(candles) >= cfg.MACDSlowPeriod+cfg.MACDSignalPeriod {
		set.MACD, set.MACDSignal, set.MACDHist = calculateMACD(
			candles, cfg.MACDFastPeriod, cfg.MACDSlowPeriod, cfg.MACDSignalPeriod)
	} else {
		unavailable(NameMACD)
	}

	if len(candles) >= cfg.BBPeriod {
		set.BBUpper, set.BBMiddle, set.BBLower = calculateBollingerBands(
			candles, cfg.BBPeriod, cfg.BBStdDev)
	} else {
		unavailable(NameBollinger)
	}

	if len(candles) >= cfg.EMAPeriod {
		set.EMA = calculateEMA(candles, cfg.EMAPeriod)
	} else {
		unavailable(NameEMA)
	}

	if len(candles) >= cfg.ATRPeriod+1 {
		set.ATR = CalculateATR(candles, cfg.ATRPeriod)
	} else {
		unavailable(NameATR)
	}

	if len(candles) >= cfg.ADXPeriod*2 {
		set.ADX, set.PlusDI, set.MinusDI = calculateADX(candles, cfg.ADXPeriod)
	} else {
		unavailable(NameADX)
	}

	if len(candles) >= cfg.CCIPeriod {
		set.CCI = calculateCCI(candles, cfg.CCIPeriod)
	} else {
		unavailable(NameCCI)
	}

	set.VWAP = calculateVWAP(candles)

	if len(candles) >= 2 {
		set.OBV = calculateOBV(candles)
	} else {
		unavailable(NameOBV)
	}

	if len(candles) >= cfg.StochKPeriod {
		set.Stochastic, set.StochasticSignal = calculateStochastic(
			candles, cfg.StochKPeriod, cfg.StochDPeriod)
	} else {
		unavailable(NameStochastic)
	}

	if len(candles) > 10 {
		set.Momentum = lastClose - candles[len(candles)-11].Close
	} else {
		unavailable(NameMomentum)
	}

	if len(candles) >= 5 {
		firstClose := candles[len(candles)-5].Close
		if firstClose != 0 {
			set.PriceChange = (lastClose - firstClose) / firstClose * 100
		}
	}

	// Volatility ratio compares short and long ATR
	if len(candles) >= 21 {
		atr5 := CalculateATR(candles, 5)
		atr20 := CalculateATR(candles, 20)
		if atr20 > 0 {
			set.VolatilityRatio = atr5 / atr20
		}
	}

	return set
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
