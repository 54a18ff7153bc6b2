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
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional price archive)
	Database DatabaseConfig

	// Redis (optional cache backend + shared rate limit)
	Redis RedisConfig

	// Upstream market data
	Yahoo YahooConfig

	Market    MarketConfig
	Cache     CacheConfig
	Scheduler SchedulerConfig
	Depth     DepthConfig
	Screening ScreeningConfig

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

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database URL was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// YahooConfig holds chart/quote provider configuration
type YahooConfig struct {
	ChartURL   string
	QuoteURL   string
	UserAgent  string
	Timeout    time.Duration
	RateLimit  float64 // requests per second, 0 = unlimited
	RateBurst  int
	MaxRetries int
}

// MarketConfig holds exchange and request defaults
type MarketConfig struct {
	ExchangeSuffix   string
	DefaultRange     string
	DefaultInterval  string
	BatchConcurrency int
}

// CacheConfig holds quote cache configuration
type CacheConfig struct {
	Backend      string // memory, redis
	PriceTTL     time.Duration
	OrderBookTTL time.Duration
	BrokerTTL    time.Duration
	Coalesce     bool
}

// SchedulerConfig holds background job configuration
type SchedulerConfig struct {
	WarmSymbols   []string
	WarmSchedule  string
	SweepSchedule string
}

// DepthConfig holds the optional order book page source
type DepthConfig struct {
	PageURL    string // e.g. https://example.com/stock/{symbol}, empty = synthetic only
	PageSource string
}

// ScreeningConfig holds screening strategy presets
type ScreeningConfig struct {
	StrategiesFile string // YAML file, empty = built-in strategies
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Yahoo: YahooConfig{
			ChartURL:   getEnv("YAHOO_CHART_URL", "https://query1.finance.yahoo.com/v8/finance/chart"),
			QuoteURL:   getEnv("YAHOO_QUOTE_URL", "https://query1.finance.yahoo.com/v7/finance/quote"),
			UserAgent:  getEnv("YAHOO_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
			Timeout:    getEnvAsDuration("YAHOO_TIMEOUT", "10s"),
			RateLimit:  getEnvAsFloat("YAHOO_RATE_LIMIT", 5),
			RateBurst:  getEnvAsInt("YAHOO_RATE_BURST", 5),
			MaxRetries: getEnvAsInt("YAHOO_MAX_RETRIES", 0),
		},

		Market: MarketConfig{
			ExchangeSuffix:   getEnv("EXCHANGE_SUFFIX", ".JK"),
			DefaultRange:     getEnv("DEFAULT_RANGE", "6mo"),
			DefaultInterval:  getEnv("DEFAULT_INTERVAL", "1d"),
			BatchConcurrency: getEnvAsInt("BATCH_CONCURRENCY", 4),
		},

		Cache: CacheConfig{
			Backend:      strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
			PriceTTL:     getEnvAsDuration("CACHE_PRICE_TTL", "5m"),
			OrderBookTTL: getEnvAsDuration("CACHE_ORDERBOOK_TTL", "1m"),
			BrokerTTL:    getEnvAsDuration("CACHE_BROKER_TTL", "5m"),
			Coalesce:     getEnvAsBool("CACHE_COALESCE", false),
		},

		Scheduler: SchedulerConfig{
			WarmSymbols:   getEnvAsList("WARM_SYMBOLS", nil),
			WarmSchedule:  getEnv("WARM_SCHEDULE", "0 */15 9-16 * * 1-5"),
			SweepSchedule: getEnv("CACHE_SWEEP_SCHEDULE", "0 */10 * * * *"),
		},

		Depth: DepthConfig{
			PageURL:    getEnv("DEPTH_PAGE_URL", ""),
			PageSource: getEnv("DEPTH_PAGE_SOURCE", "RTI Business"),
		},

		Screening: ScreeningConfig{
			StrategiesFile: getEnv("SCREEN_STRATEGIES_FILE", ""),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if !c.Redis.Enabled {
			return fmt.Errorf("CACHE_BACKEND=redis requires REDIS_ENABLED=true")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of: memory, redis")
	}

	if c.Cache.PriceTTL <= 0 || c.Cache.OrderBookTTL <= 0 || c.Cache.BrokerTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}

	if c.Yahoo.Timeout <= 0 {
		return fmt.Errorf("YAHOO_TIMEOUT must be positive")
	}

	if c.Market.BatchConcurrency < 1 {
		return fmt.Errorf("BATCH_CONCURRENCY must be at least 1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{".env"}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
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
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
