package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 環境変数の読み込みはここだけ
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Redis
	Redis RedisConfig

	// External API
	JQuants JQuantsConfig

	// Market aggregation tuning
	Market MarketConfig

	// Watched securities shown on the landing board (code -> display name)
	Watchlist map[string]string

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// JQuantsConfig holds J-Quants API configuration
type JQuantsConfig struct {
	APIKey   string
	BaseURL  string
	MockMode bool // fixture dataset instead of live calls

	// HTTP behavior
	Timeout        time.Duration
	RatePerSecond  float64 // client-side request rate limit
	PriceLookback  time.Duration
	LookbackBuffer time.Duration
}

// MarketConfig holds market-wide aggregation parameters
type MarketConfig struct {
	// TradingDayThreshold is the minimum record count (exclusive) for a
	// daily snapshot to count as a real trading day. Holidays and weekends
	// return near-empty responses, so ">100 securities" stands in for a
	// proper market-calendar lookup. Overridable because it is a heuristic.
	TradingDayThreshold int

	HistoryDays  int           // default segment-history window
	BreadthDays  int           // accepted days needed for breadth deltas
	ScanBudget   int           // max calendar days scanned backward
	Concurrency  int           // day-scan worker pool size
	TopN         int           // default ranking size
	HistoryTTL   time.Duration // segment-history memoization TTL
	WarmSchedule string        // cron spec for the cache warm job, "" disables
}

// Load reads configuration from environment variables
// ⭐ SSOT: os.Getenv() を呼ぶのはこの関数だけ
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		JQuants: JQuantsConfig{
			APIKey:         getEnv("JQUANTS_API_KEY", ""),
			BaseURL:        getEnv("JQUANTS_BASE_URL", "https://api.jquants.com/v2"),
			MockMode:       getEnvAsBool("JQUANTS_MOCK_MODE", false),
			Timeout:        getEnvAsDuration("JQUANTS_TIMEOUT", "8s"),
			RatePerSecond:  getEnvAsFloat("JQUANTS_RATE_PER_SECOND", 5.0),
			PriceLookback:  getEnvAsDuration("PRICE_LOOKBACK", "35040h"),       // ~4 years
			LookbackBuffer: getEnvAsDuration("PRICE_LOOKBACK_BUFFER", "1440h"), // 60 days
		},

		Market: MarketConfig{
			TradingDayThreshold: getEnvAsInt("MARKET_TRADING_DAY_THRESHOLD", 100),
			HistoryDays:         getEnvAsInt("MARKET_HISTORY_DAYS", 14),
			BreadthDays:         getEnvAsInt("MARKET_BREADTH_DAYS", 2),
			ScanBudget:          getEnvAsInt("MARKET_SCAN_BUDGET", 10),
			Concurrency:         getEnvAsInt("MARKET_SCAN_CONCURRENCY", 4),
			TopN:                getEnvAsInt("MARKET_RANKING_TOP_N", 100),
			HistoryTTL:          getEnvAsDuration("MARKET_HISTORY_TTL", "12h"),
			WarmSchedule:        getEnv("MARKET_WARM_SCHEDULE", ""),
		},

		Watchlist: getEnvAsPairs("WATCHLIST", map[string]string{
			"3350": "メタプラネット",
			"8058": "三菱商事",
		}),

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	// Live mode cannot work without a credential; mock mode can.
	if !c.JQuants.MockMode && c.JQuants.APIKey == "" {
		return fmt.Errorf("JQUANTS_API_KEY is required unless JQUANTS_MOCK_MODE=true")
	}

	if c.Market.TradingDayThreshold < 0 {
		return fmt.Errorf("MARKET_TRADING_DAY_THRESHOLD must be >= 0")
	}
	if c.Market.Concurrency < 1 {
		return fmt.Errorf("MARKET_SCAN_CONCURRENCY must be >= 1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsPairs parses "code1:name1,code2:name2" into a map
func getEnvAsPairs(key string, defaultValue map[string]string) map[string]string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	pairs := make(map[string]string)
	for _, entry := range strings.Split(valueStr, ",") {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 2)
		if len(parts) != 2 || parts[0] == "" {
			continue
		}
		pairs[parts[0]] = parts[1]
	}

	if len(pairs) == 0 {
		return defaultValue
	}
	return pairs
}
