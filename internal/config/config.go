package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	Pairs          []string
	CandleInterval string
	CandleWindow   int

	SnapshotPoll time.Duration
	CandlePoll   time.Duration
	Debounce     time.Duration

	// Signal acceptance policy
	Cooldown         time.Duration
	RateWindow       time.Duration
	BaseConfidence   float64
	BaseQuality      float64
	ReliabilityFloor float64
	Retention        int
	TrackHorizon     time.Duration
	TrackingEnabled  bool

	// Trade bookkeeping
	Leverage     float64
	AccountSize  float64
	RiskPerTrade float64
	TakerFee     float64

	// Indicator periods
	RSIPeriod        int
	MACDFastPeriod   int
	MACDSlowPeriod   int
	MACDSignalPeriod int
	BBPeriod         int
	BBStdDev         float64
	EMAPeriod        int
	ATRPeriod        int
	ADXPeriod        int
	CCIPeriod        int
	StochKPeriod     int
	StochDPeriod     int

	LogLevel       string
	RequestTimeout int    // seconds
	MarketBaseURL  string // empty selects the public endpoint

	StorageBackend string // memory, postgres, redis
	HistoryFile    string // optional JSON mirror for the memory backend

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TelegramToken  string
	TelegramChatID int64
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.Pairs = getEnvListWithDefault("PAIRS", []string{"BTC/USDT", "ETH/USDT", "SOL/USDT"})
	cfg.CandleInterval = getEnvWithDefault("CANDLE_INTERVAL", "1m")
	cfg.CandleWindow = getEnvIntWithDefault("CANDLE_WINDOW", 200)

	cfg.SnapshotPoll = getEnvDurationWithDefault("SNAPSHOT_POLL", 15*time.Second)
	cfg.CandlePoll = getEnvDurationWithDefault("CANDLE_POLL", 45*time.Second)
	cfg.Debounce = getEnvDurationWithDefault("DEBOUNCE", 5*time.Second)

	cfg.Cooldown = getEnvDurationWithDefault("COOLDOWN", 10*time.Minute)
	cfg.RateWindow = getEnvDurationWithDefault("RATE_WINDOW", 30*time.Minute)
	cfg.BaseConfidence = getEnvFloatWithDefault("BASE_CONFIDENCE", 0.65)
	cfg.BaseQuality = getEnvFloatWithDefault("BASE_QUALITY", 70)
	cfg.ReliabilityFloor = getEnvFloatWithDefault("RELIABILITY_FLOOR", 60)
	cfg.Retention = getEnvIntWithDefault("RETENTION", 500)
	cfg.TrackHorizon = getEnvDurationWithDefault("TRACK_HORIZON", 4*time.Hour)
	cfg.TrackingEnabled = getEnvBoolWithDefault("TRACKING_ENABLED", true)

	cfg.Leverage = getEnvFloatWithDefault("LEVERAGE", 10)
	cfg.AccountSize = getEnvFloatWithDefault("ACCOUNT_SIZE", 10000)
	cfg.RiskPerTrade = getEnvFloatWithDefault("RISK_PER_TRADE", 0.01)
	cfg.TakerFee = getEnvFloatWithDefault("TAKER_FEE", 0.0004)

	cfg.RSIPeriod = getEnvIntWithDefault("RSI_PERIOD", 14)
	cfg.MACDFastPeriod = getEnvIntWithDefault("MACD_FAST_PERIOD", 12)
	cfg.MACDSlowPeriod = getEnvIntWithDefault("MACD_SLOW_PERIOD", 26)
	cfg.MACDSignalPeriod = getEnvIntWithDefault("MACD_SIGNAL_PERIOD", 9)
	cfg.BBPeriod = getEnvIntWithDefault("BB_PERIOD", 20)
	cfg.BBStdDev = getEnvFloatWithDefault("BB_STD_DEV", 2.0)
	cfg.EMAPeriod = getEnvIntWithDefault("EMA_PERIOD", 10)
	cfg.ATRPeriod = getEnvIntWithDefault("ATR_PERIOD", 14)
	cfg.ADXPeriod = getEnvIntWithDefault("ADX_PERIOD", 14)
	cfg.CCIPeriod = getEnvIntWithDefault("CCI_PERIOD", 20)
	cfg.StochKPeriod = getEnvIntWithDefault("STOCH_K_PERIOD", 14)
	cfg.StochDPeriod = getEnvIntWithDefault("STOCH_D_PERIOD", 3)

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.MarketBaseURL = os.Getenv("MARKET_BASE_URL")

	cfg.StorageBackend = getEnvWithDefault("STORAGE_BACKEND", "memory")
	cfg.HistoryFile = os.Getenv("HISTORY_FILE")

	cfg.PostgresHost = getEnvWithDefault("POSTGRES_HOST", "localhost")
	cfg.PostgresPort = getEnvWithDefault("POSTGRES_PORT", "5432")
	cfg.PostgresUser = getEnvWithDefault("POSTGRES_USER", "postgres")
	cfg.PostgresPassword = os.Getenv("POSTGRES_PASSWORD")
	cfg.PostgresDB = getEnvWithDefault("POSTGRES_DB", "signals")
	cfg.PostgresSSLMode = getEnvWithDefault("POSTGRES_SSLMODE", "disable")

	cfg.RedisAddr = getEnvWithDefault("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getEnvIntWithDefault("REDIS_DB", 0)

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.TelegramChatID = getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0)

	return &cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvListWithDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
