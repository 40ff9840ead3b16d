package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalEngine/internal/config"
	"github.com/Alias1177/SignalEngine/internal/coordinator"
	"github.com/Alias1177/SignalEngine/internal/guard"
	"github.com/Alias1177/SignalEngine/internal/market"
	"github.com/Alias1177/SignalEngine/internal/notify"
	"github.com/Alias1177/SignalEngine/internal/performance"
	platformhttp "github.com/Alias1177/SignalEngine/internal/platform/http"
	"github.com/Alias1177/SignalEngine/internal/policy"
	"github.com/Alias1177/SignalEngine/internal/quality"
	"github.com/Alias1177/SignalEngine/internal/storage"
)

func main() {
	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setupSignalHandling(cancel)

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// 2. Configure logging
	setupLogging(cfg.LogLevel)
	log.Info().Msg("Starting Signal Engine")
	printConfig(cfg)

	// 3. Storage backend
	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open signal store")
	}

	// 4. Notifier (optional)
	notifier, err := notify.New(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init notifier")
	}
	if notifier == nil {
		log.Info().Msg("Telegram notifications disabled")
	}

	// 5. Pipeline components
	accepts := policy.NewRateWindow(cfg.RateWindow)
	coord := coordinator.New(ctx, cfg, coordinator.Options{
		Scorer:   quality.NewHeuristicScorer(),
		Policy:   policy.NewThresholdPolicy(cfg, accepts),
		Guard:    guard.NewDuplicateGuard(cfg.Cooldown),
		Accepts:  accepts,
		Store:    store,
		Tracker:  performance.NewTracker(cfg.TrackHorizon),
		Notifier: notifier,
	})

	// 6. Market data pollers
	httpClient := platformhttp.NewClient(platformhttp.ClientOptions{
		Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
	})
	client := market.NewClient(httpClient, cfg.MarketBaseURL)

	var wg sync.WaitGroup
	for _, pair := range cfg.Pairs {
		wg.Add(2)
		go func(pair string) {
			defer wg.Done()
			pollSnapshots(ctx, client, coord, cfg, pair)
		}(pair)
		go func(pair string) {
			defer wg.Done()
			pollCandles(ctx, client, coord, cfg, pair)
		}(pair)
	}

	wg.Wait()
	log.Info().Msg("Signal Engine stopped")
}

// setupSignalHandling configures signal handling for graceful shutdown
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, exiting...")
		cancel()
	}()
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

// printConfig outputs the current configuration
func printConfig(cfg *config.Config) {
	log.Info().
		Strs("Pairs", cfg.Pairs).
		Str("CandleInterval", cfg.CandleInterval).
		Int("CandleWindow", cfg.CandleWindow).
		Dur("SnapshotPoll", cfg.SnapshotPoll).
		Dur("CandlePoll", cfg.CandlePoll).
		Dur("Debounce", cfg.Debounce).
		Dur("Cooldown", cfg.Cooldown).
		Float64("BaseConfidence", cfg.BaseConfidence).
		Float64("BaseQuality", cfg.BaseQuality).
		Str("StorageBackend", cfg.StorageBackend).
		Bool("TrackingEnabled", cfg.TrackingEnabled).
		Msg("Configuration loaded")
}

// openStore selects the persistence backend from config.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.StorageBackend {
	case "memory":
		return storage.NewMemoryStore(cfg.Retention, cfg.HistoryFile), nil
	case "postgres":
		return storage.NewPostgresStore(storage.ConnectionParams{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPassword,
			DBName:   cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSLMode,
		}, cfg.Retention)
	case "redis":
		return storage.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.Retention)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// pollSnapshots feeds 24h tickers into the coordinator. Snapshot arrival
// also drives resolution of tracked signals against the latest price.
func pollSnapshots(ctx context.Context, client *market.Client, coord *coordinator.Coordinator, cfg *config.Config, pair string) {
	ticker := time.NewTicker(cfg.SnapshotPoll)
	defer ticker.Stop()

	for {
		snapshot, err := client.GetSnapshot(ctx, pair)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Str("pair", pair).Msg("Snapshot fetch failed")
		} else {
			coord.OnSnapshot(pair, snapshot)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// pollCandles feeds candle windows into the coordinator.
func pollCandles(ctx context.Context, client *market.Client, coord *coordinator.Coordinator, cfg *config.Config, pair string) {
	ticker := time.NewTicker(cfg.CandlePoll)
	defer ticker.Stop()

	for {
		candles, err := client.GetCandles(ctx, pair, cfg.CandleInterval, cfg.CandleWindow)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Str("pair", pair).Msg("Candle fetch failed")
		} else {
			coord.OnCandles(pair, candles)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
