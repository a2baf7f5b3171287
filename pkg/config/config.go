package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Environment
	Env string // development, staging, production

	// External data vendors
	AlphaVantage AlphaVantageConfig
	Yahoo        YahooConfig
	Stooq        StooqConfig

	// Response cache
	Cache CacheConfig

	// Database (optional; persistence is disabled when URL is empty)
	Database DatabaseConfig

	// Results API server
	Port string

	// Artifacts
	OutputDir    string
	StrategyFile string

	// Price fallback order, comma separated (yahoo, stooq, vendor)
	PriceSources string

	// Reporting currency for memo annotations
	BaseCurrency string

	// Scheduler
	ScreenCron string

	// Logging
	LogLevel  string
	LogFormat string
}

// AlphaVantageConfig holds the fundamentals vendor configuration
type AlphaVantageConfig struct {
	APIKey     string
	BaseURL    string
	Pause      time.Duration // minimum interval between calls, shared clock
	Timeout    time.Duration
	MaxRetries int
}

// YahooConfig holds the Yahoo quote source configuration
type YahooConfig struct {
	ChartBaseURL string
	QuoteBaseURL string // HTML quote page, scrape fallback
}

// StooqConfig holds the Stooq quote source configuration
type StooqConfig struct {
	BaseURL string
}

// CacheConfig holds the on-disk response cache configuration
type CacheConfig struct {
	Dir             string
	FundamentalsTTL time.Duration
	OverviewTTL     time.Duration
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

// Enabled reports whether result persistence is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		AlphaVantage: AlphaVantageConfig{
			APIKey:     getEnv("ALPHAVANTAGE_API_KEY", ""),
			BaseURL:    getEnv("AV_BASE_URL", "https://www.alphavantage.co/query"),
			Pause:      getEnvAsDuration("AV_PAUSE", "12s"),
			Timeout:    getEnvAsDuration("AV_TIMEOUT", "15s"),
			MaxRetries: getEnvAsInt("AV_MAX_RETRIES", 3),
		},

		Yahoo: YahooConfig{
			ChartBaseURL: getEnv("YAHOO_CHART_BASE_URL", "https://query1.finance.yahoo.com"),
			QuoteBaseURL: getEnv("YAHOO_QUOTE_BASE_URL", "https://finance.yahoo.com"),
		},

		Stooq: StooqConfig{
			BaseURL: getEnv("STOOQ_BASE_URL", "https://stooq.com"),
		},

		Cache: CacheConfig{
			Dir:             getEnv("AV_CACHE_DIR", "./.av_cache"),
			FundamentalsTTL: getEnvAsDuration("CACHE_FUNDAMENTALS_TTL", "336h"), // 14 days
			OverviewTTL:     getEnvAsDuration("CACHE_OVERVIEW_TTL", "168h"),     // 7 days
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Port: getEnv("PORT", "8090"),

		OutputDir:    getEnv("OUTPUT_DIR", "./out"),
		StrategyFile: getEnv("STRATEGY_FILE", ""),

		PriceSources: getEnv("PRICE_SOURCES", "yahoo,stooq,vendor"),

		BaseCurrency: getEnv("BASE_CCY", "USD"),

		ScreenCron: getEnv("SCREEN_CRON", "0 0 22 * * MON-FRI"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// The vendor credential is the only startup-fatal requirement
	if c.AlphaVantage.APIKey == "" {
		return fmt.Errorf("ALPHAVANTAGE_API_KEY is required")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.AlphaVantage.Pause < 0 {
		return fmt.Errorf("AV_PAUSE must not be negative")
	}

	if c.AlphaVantage.MaxRetries < 0 {
		return fmt.Errorf("AV_MAX_RETRIES must not be negative")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

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
