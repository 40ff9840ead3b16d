package models

import (
	"time"
)

// SignalType - направление сигнала
type SignalType string

const (
	SignalBuy     SignalType = "BUY"
	SignalSell    SignalType = "SELL"
	SignalNeutral SignalType = "NEUTRAL"
)

// SignalStatus - lifecycle of a persisted signal. ACTIVE is the only
// non-terminal state.
type SignalStatus string

const (
	StatusActive  SignalStatus = "ACTIVE"
	StatusHitTP   SignalStatus = "HIT_TP"
	StatusHitSL   SignalStatus = "HIT_SL"
	StatusExpired SignalStatus = "EXPIRED"
)

// Terminal reports whether no further status transition is allowed.
func (s SignalStatus) Terminal() bool {
	return s == StatusHitTP || s == StatusHitSL || s == StatusExpired
}

// SignalOutcome - realized result of a tracked signal
type SignalOutcome string

const (
	OutcomePending SignalOutcome = "PENDING"
	OutcomeWin     SignalOutcome = "WIN"
	OutcomeLoss    SignalOutcome = "LOSS"
)

// MarketCondition labels the current market regime for threshold decisions.
type MarketCondition string

const (
	ConditionTrendingUp   MarketCondition = "TRENDING_UP"
	ConditionTrendingDown MarketCondition = "TRENDING_DOWN"
	ConditionRanging      MarketCondition = "RANGING"
	ConditionVolatile     MarketCondition = "VOLATILE"
	ConditionChoppy       MarketCondition = "CHOPPY"
)

// Candle represents a single OHLCV interval. Timestamp is ms since epoch.
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Time converts the candle timestamp to time.Time.
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.Timestamp)
}

// Bullish reports whether the candle closed above its open.
func (c Candle) Bullish() bool {
	return c.Close > c.Open
}

// MarketSnapshot - 24h ticker state for one pair, superseded by each poll
type MarketSnapshot struct {
	Symbol           string  `json:"symbol"`
	Price            float64 `json:"price"`
	Volume24h        float64 `json:"volume_24h"`
	High24h          float64 `json:"high_24h"`
	Low24h           float64 `json:"low_24h"`
	ChangePercent24h float64 `json:"change_percent_24h"`
}

// IndicatorSet holds all indicators computed from one candle window.
// Derived and ephemeral: recomputed every evaluation cycle, never persisted.
type IndicatorSet struct {
	RSI              float64 `json:"rsi"`
	MACD             float64 `json:"macd"`
	MACDSignal       float64 `json:"macd_signal"`
	MACDHist         float64 `json:"macd_hist"`
	BBUpper          float64 `json:"bb_upper"`
	BBMiddle         float64 `json:"bb_middle"`
	BBLower          float64 `json:"bb_lower"`
	EMA              float64 `json:"ema"`
	ATR              float64 `json:"atr"`
	ADX              float64 `json:"adx"`
	PlusDI           float64 `json:"plus_di"`
	MinusDI          float64 `json:"minus_di"`
	CCI              float64 `json:"cci"`
	VWAP             float64 `json:"vwap"`
	OBV              float64 `json:"obv"`
	Stochastic       float64 `json:"stochastic"`
	StochasticSignal float64 `json:"stochastic_signal"`
	Momentum         float64 `json:"momentum"`         // Current close - close n periods ago
	PriceChange      float64 `json:"price_change_pct"` // % change over last 5 candles
	VolatilityRatio  float64 `json:"volatility_ratio"` // ATR(5)/ATR(20)
	// Unavailable names indicators whose minimum window was not met; their
	// fields above hold neutral defaults.
	Unavailable []string `json:"unavailable,omitempty"`
}

// Available reports whether the named indicator was computed from real data.
func (s *IndicatorSet) Available(name string) bool {
	for _, u := range s.Unavailable {
		if u == name {
			return false
		}
	}
	return true
}

// PatternCandidate - лучший кандидат паттерна за цикл оценки
type PatternCandidate struct {
	PatternName  string     `json:"pattern_name"`
	Type         SignalType `json:"type"`
	Reliability  float64    `json:"reliability"` // 0..100
	Entry        float64    `json:"entry"`
	StopLoss     float64    `json:"stop_loss"`
	TakeProfit   float64    `json:"take_profit"`
	RiskReward   float64    `json:"risk_reward"`
	PositionSize float64    `json:"position_size"`
}

// Signal is the unit of pipeline output. Pure value object: the same shape
// whether displayed-only or persisted.
type Signal struct {
	Type         SignalType `json:"type"`
	Confidence   float64    `json:"confidence"` // 0..1
	Patterns     []string   `json:"patterns"`
	Entry        float64    `json:"entry"`
	StopLoss     float64    `json:"stop_loss"`
	TakeProfit   float64    `json:"take_profit"`
	RiskReward   float64    `json:"risk_reward"`
	Leverage     float64    `json:"leverage"`
	PositionSize float64    `json:"position_size"`
	TradingFees  float64    `json:"trading_fees"`
	NetProfit    float64    `json:"net_profit"`
	NetLoss      float64    `json:"net_loss"`
}

// PersistedSignal is a Signal accepted for saving. Created at acceptance
// time; mutated only by status resolution; never deleted individually.
type PersistedSignal struct {
	Signal    `json:"signal"`
	ID        string        `json:"id"`
	Pair      string        `json:"pair"`
	Timestamp int64         `json:"timestamp"` // ms epoch
	Status    SignalStatus  `json:"status"`
	Outcome   SignalOutcome `json:"outcome,omitempty"`
	EntryTime time.Time     `json:"entry_time"`
}

// PerformanceRecord links a signal to its eventual realized outcome.
// Mutated exactly once, when the outcome resolves.
type PerformanceRecord struct {
	SignalID     string        `json:"signal_id"`
	Pair         string        `json:"pair"`
	Type         SignalType    `json:"type"`
	Entry        float64       `json:"entry"`
	StopLoss     float64       `json:"stop_loss"`
	TakeProfit   float64       `json:"take_profit"`
	Outcome      SignalOutcome `json:"outcome"`
	ActualReturn float64       `json:"actual_return"` // % of entry, signed
	ExitPrice    float64       `json:"exit_price,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	ResolvedAt   time.Time     `json:"resolved_at,omitempty"`
}

// PerformanceMetrics - агрегированная статистика по закрытым сигналам
type PerformanceMetrics struct {
	TotalSignals  int     `json:"total_signals"`
	Resolved      int     `json:"resolved"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	WinRate       float64 `json:"win_rate"` // %
	AverageReturn float64 `json:"average_return"`
	ProfitFactor  float64 `json:"profit_factor"`
	MaxDrawdown   float64 `json:"max_drawdown"` // %
	MaxConsecutive struct {
		Wins   int `json:"wins"`
		Losses int `json:"losses"`
	} `json:"max_consecutive"`
}

// VolumeValidation is the result of the volume realism check.
type VolumeValidation struct {
	IsRealistic     bool    `json:"is_realistic"`
	CurrentVolume   float64 `json:"current_volume"`
	ExpectedMinimum float64 `json:"expected_minimum"`
}

// QualityResult is what the scorer returns for one candidate signal.
type QualityResult struct {
	QualityScore    float64         `json:"quality_score"` // 0..100
	MarketCondition MarketCondition `json:"market_condition"`
	Momentum        float64         `json:"momentum"`
}

// Thresholds - минимальные значения для принятия сигнала
type Thresholds struct {
	Confidence float64 `json:"confidence"` // 0..1
	Quality    float64 `json:"quality"`    // 0..100
}
