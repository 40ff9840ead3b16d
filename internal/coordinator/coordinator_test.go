package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/Alias1177/SignalEngine/internal/config"
	"github.com/Alias1177/SignalEngine/internal/guard"
	"github.com/Alias1177/SignalEngine/internal/performance"
	"github.com/Alias1177/SignalEngine/internal/policy"
	"github.com/Alias1177/SignalEngine/internal/quality"
	"github.com/Alias1177/SignalEngine/internal/storage"
	"github.com/Alias1177/SignalEngine/models"
)

func testConfig() *config.Config {
	return &config.Config{
		Pairs:            []string{"BTC/USDT", "ETH/USDT"},
		Debounce:         time.Millisecond,
		Cooldown:         10 * time.Minute,
		RateWindow:       30 * time.Minute,
		BaseConfidence:   0.65,
		BaseQuality:      70,
		ReliabilityFloor: 60,
		Retention:        100,
		TrackHorizon:     4 * time.Hour,
		TrackingEnabled:  true,
		Leverage:         10,
		AccountSize:      10000,
		RiskPerTrade:     0.01,
		TakerFee:         0.0004,
		RSIPeriod:        14,
		MACDFastPeriod:   12,
		MACDSlowPeriod:   26,
		MACDSignalPeriod: 9,
		BBPeriod:         20,
		BBStdDev:         2.0,
		EMAPeriod:        10,
		ATRPeriod:        14,
		ADXPeriod:        14,
		CCIPeriod:        20,
		StochKPeriod:     14,
		StochDPeriod:     3,
	}
}

// fixedScorer пинит качество, чтобы тесты управляли порогом напрямую
type fixedScorer struct {
	quality float64
}

func (s fixedScorer) Score(_ *models.Signal, _ *models.IndicatorSet, _ []models.Candle, _ models.VolumeValidation) models.QualityResult {
	return models.QualityResult{
		QualityScore:    s.quality,
		MarketCondition: models.ConditionRanging,
	}
}

// blockingScorer holds each evaluation until released.
type blockingScorer struct {
	started chan struct{}
	release chan struct{}
	calls   chan struct{}
}

func (s *blockingScorer) Score(_ *models.Signal, _ *models.IndicatorSet, _ []models.Candle, _ models.VolumeValidation) models.QualityResult {
	s.started <- struct{}{}
	<-s.release
	s.calls <- struct{}{}
	return models.QualityResult{QualityScore: 90, MarketCondition: models.ConditionRanging}
}

func newTestCoordinator(ctx context.Context, cfg *config.Config, scorer quality.ScoringStrategy) *Coordinator {
	accepts := policy.NewRateWindow(cfg.RateWindow)
	return New(ctx, cfg, Options{
		Scorer:  scorer,
		Policy:  policy.NewThresholdPolicy(cfg, accepts),
		Guard:   guard.NewDuplicateGuard(cfg.Cooldown),
		Accepts: accepts,
		Store:   storage.NewMemoryStore(cfg.Retention, ""),
		Tracker: performance.NewTracker(cfg.TrackHorizon),
	})
}

// alternating candles carry no catalog pattern; the last two are replaced
// with a bullish engulfing below.
func neutralCandles(n int) []models.Candle {
	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		open, close := 100.0, 101.0
		if i%2 == 1 {
			open, close = 101.0, 100.0
		}
		candles[i] = models.Candle{
			Timestamp: int64(i) * 60_000,
			Open:      open,
			High:      101.5,
			Low:       99.5,
			Close:     close,
			Volume:    1000,
		}
	}
	return candles
}

func buyCandles() []models.Candle {
	candles := neutralCandles(60)
	candles[58] = models.Candle{
		Timestamp: 58 * 60_000,
		Open:      101, High: 101.5, Low: 99.5, Close: 100,
		Volume: 1000,
	}
	candles[59] = models.Candle{
		Timestamp: 59 * 60_000,
		Open:      99.5, High: 102, Low: 99.2, Close: 101.5,
		Volume: 1200,
	}
	return candles
}

func goodSnapshot() *models.MarketSnapshot {
	return &models.MarketSnapshot{
		Symbol:    "BTCUSDT",
		Price:     101.5,
		Volume24h: 5_000_000,
	}
}

func TestEvaluateAccept(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(ctx, testConfig(), fixedScorer{quality: 90})

	outcome := c.evaluate(ctx, "BTC/USDT", buyCandles(), goodSnapshot())

	if outcome.Signal.Type != models.SignalBuy {
		t.Fatalf("Signal.Type = %v, want %v", outcome.Signal.Type, models.SignalBuy)
	}
	if !outcome.ShouldSave {
		t.Errorf("ShouldSave = false (%s), want true", outcome.Reason)
	}
	if !outcome.ShouldTrack {
		t.Error("ShouldTrack = false, want true")
	}
	if outcome.Reason != "accepted" {
		t.Errorf("Reason = %q, want accepted", outcome.Reason)
	}
	if outcome.Signal.NetProfit <= 0 || outcome.Signal.NetLoss <= 0 {
		t.Errorf("bookkeeping: NetProfit %v, NetLoss %v, want both > 0",
			outcome.Signal.NetProfit, outcome.Signal.NetLoss)
	}

	// Persisting an accepted outcome lands in the store and the tracker
	c.apply("BTC/USDT", outcome)
	records, err := c.History(ctx)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(History()) = %v, want 1", len(records))
	}
	if records[0].Status != models.StatusActive {
		t.Errorf("Status = %v, want %v", records[0].Status, models.StatusActive)
	}
	if m := c.Metrics("BTC/USDT"); m.TotalSignals != 1 {
		t.Errorf("tracked signals = %v, want 1", m.TotalSignals)
	}
}

func TestEvaluateDuplicateSuppressed(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(ctx, testConfig(), fixedScorer{quality: 90})

	first := c.evaluate(ctx, "BTC/USDT", buyCandles(), goodSnapshot())
	if !first.ShouldSave {
		t.Fatalf("first evaluation rejected: %s", first.Reason)
	}

	second := c.evaluate(ctx, "BTC/USDT", buyCandles(), goodSnapshot())
	if second.ShouldSave {
		t.Error("duplicate inside the cooldown should not be saved")
	}
	if second.Reason != "duplicate within cooldown" {
		t.Errorf("Reason = %q, want duplicate within cooldown", second.Reason)
	}
	// Still a displayable signal
	if second.Signal == nil || second.Signal.Type != models.SignalBuy {
		t.Error("rejected outcome should still carry the signal for display")
	}
}

func TestEvaluateUnrealisticVolume(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(ctx, testConfig(), fixedScorer{quality: 90})

	snapshot := goodSnapshot()
	snapshot.Volume24h = 100

	outcome := c.evaluate(ctx, "BTC/USDT", buyCandles(), snapshot)

	if outcome.ShouldSave {
		t.Error("unrealistic volume should reject the signal")
	}
	if outcome.Reason != "unrealistic volume" {
		t.Errorf("Reason = %q, want unrealistic volume", outcome.Reason)
	}
	if outcome.Signal == nil {
		t.Error("rejected outcome should still carry the signal for display")
	}
}

func TestEvaluateQualityGate(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(ctx, testConfig(), fixedScorer{quality: 10})

	outcome := c.evaluate(ctx, "BTC/USDT", buyCandles(), goodSnapshot())

	if outcome.ShouldSave {
		t.Error("low quality should reject the signal")
	}
	if outcome.Reason != "quality below threshold" {
		t.Errorf("Reason = %q, want quality below threshold", outcome.Reason)
	}
}

func TestEvaluateInvalidLevels(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(ctx, testConfig(), fixedScorer{quality: 90})

	// Prices near zero push the ATR stop below zero
	candles := buyCandles()
	for i := range candles {
		candles[i].Open /= 100000
		candles[i].High /= 100000
		candles[i].Low /= 100000
		candles[i].Close /= 100000
		candles[i].Low -= 0.01
	}

	outcome := c.evaluate(ctx, "BTC/USDT", candles, goodSnapshot())
	if outcome.ShouldSave {
		t.Error("signal with broken price levels must not be saved")
	}
	if outcome.Reason != "invalid price levels" {
		t.Errorf("Reason = %q, want invalid price levels", outcome.Reason)
	}
	if outcome.Signal == nil {
		t.Error("invalid signal should still be displayed")
	}
}

func TestEvaluateFallback(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(ctx, testConfig(), fixedScorer{quality: 90})

	tests := []struct {
		name     string
		candles  []models.Candle
		snapshot *models.MarketSnapshot
	}{
		{name: "Нет снапшота", candles: buyCandles(), snapshot: nil},
		{name: "Мало свечей", candles: neutralCandles(3), snapshot: goodSnapshot()},
		{name: "Нет данных", candles: nil, snapshot: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := c.evaluate(ctx, "BTC/USDT", tt.candles, tt.snapshot)

			if outcome.Signal.Type != models.SignalNeutral {
				t.Errorf("fallback Signal.Type = %v, want %v", outcome.Signal.Type, models.SignalNeutral)
			}
			if outcome.ShouldSave {
				t.Error("fallback must never be saved")
			}
			if len(outcome.Signal.Patterns) != 1 || outcome.Signal.Patterns[0] != errorRecoveryTag {
				t.Errorf("fallback Patterns = %v, want [%s]", outcome.Signal.Patterns, errorRecoveryTag)
			}
		})
	}
}

func TestEvaluateNoPattern(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(ctx, testConfig(), fixedScorer{quality: 90})

	outcome := c.evaluate(ctx, "BTC/USDT", neutralCandles(60), goodSnapshot())

	if outcome.Signal.Type != models.SignalNeutral {
		t.Errorf("Signal.Type = %v, want %v", outcome.Signal.Type, models.SignalNeutral)
	}
	if outcome.ShouldSave {
		t.Error("no-pattern outcome must not be saved")
	}
	// No stage failed: no error recovery tag
	if len(outcome.Signal.Patterns) != 0 {
		t.Errorf("Patterns = %v, want empty", outcome.Signal.Patterns)
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestInFlightTriggersCollapse(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scorer := &blockingScorer{
		started: make(chan struct{}, 4),
		release: make(chan struct{}, 4),
		calls:   make(chan struct{}, 4),
	}
	cfg := testConfig()
	cfg.Debounce = 20 * time.Millisecond // both arrivals settle before the first run
	c := newTestCoordinator(ctx, cfg, scorer)

	c.OnSnapshot("BTC/USDT", goodSnapshot())
	c.OnCandles("BTC/USDT", buyCandles())

	// First evaluation is now blocked inside the scorer
	<-scorer.started

	// Three more arrivals while in flight collapse into one pending re-run
	for i := 0; i < 3; i++ {
		c.OnCandles("BTC/USDT", buyCandles())
	}
	time.Sleep(50 * time.Millisecond) // let the debounce timers fire

	scorer.release <- struct{}{}
	<-scorer.calls
	<-scorer.started // the single collapsed re-run
	scorer.release <- struct{}{}
	<-scorer.calls

	waitFor(t, func() bool { return c.Outcome("BTC/USDT") != nil }, "no outcome applied")
	time.Sleep(50 * time.Millisecond)

	select {
	case <-scorer.started:
		t.Error("collapsed triggers ran more than one extra evaluation")
	default:
	}
}

func TestPairSwitchDiscardsLateResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scorer := &blockingScorer{
		started: make(chan struct{}, 4),
		release: make(chan struct{}, 4),
		calls:   make(chan struct{}, 4),
	}
	cfg := testConfig()
	cfg.Debounce = 20 * time.Millisecond
	c := newTestCoordinator(ctx, cfg, scorer)

	if c.ActivePair() != "BTC/USDT" {
		t.Fatalf("ActivePair() = %v, want BTC/USDT", c.ActivePair())
	}

	c.OnSnapshot("BTC/USDT", goodSnapshot())
	c.OnCandles("BTC/USDT", buyCandles())
	<-scorer.started

	// Switching away cancels the in-flight evaluation for the old pair
	c.SelectPair("ETH/USDT")
	scorer.release <- struct{}{}
	<-scorer.calls

	time.Sleep(50 * time.Millisecond)
	if c.Outcome("BTC/USDT") != nil {
		t.Error("late result for the deselected pair should be discarded")
	}
	if c.CurrentSignal() != nil {
		t.Error("CurrentSignal() should be nil for the freshly selected pair")
	}
}

func TestPairSwitchKeepsBackgroundResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scorer := &blockingScorer{
		started: make(chan struct{}, 4),
		release: make(chan struct{}, 4),
		calls:   make(chan struct{}, 4),
	}
	cfg := testConfig()
	cfg.Debounce = 20 * time.Millisecond
	c := newTestCoordinator(ctx, cfg, scorer)

	// ETH evaluates in the background while BTC is the active pair
	c.OnSnapshot("ETH/USDT", goodSnapshot())
	c.OnCandles("ETH/USDT", buyCandles())
	<-scorer.started

	// Switching BTC -> SOL must not touch the unrelated ETH evaluation
	c.SelectPair("SOL/USDT")
	scorer.release <- struct{}{}
	<-scorer.calls

	waitFor(t, func() bool { return c.Outcome("ETH/USDT") != nil },
		"background pair result discarded by an unrelated pair switch")
}
