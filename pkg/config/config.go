package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Source identifies a market data provider.
type Source string

const (
	SourceAlphaVantage Source = "alpha_vantage"
	SourceYahoo        Source = "yf"
)

// Config holds service configuration. It is built once at startup and
// read-only afterwards.
type Config struct {
	// Provider selection
	DataSource     Source
	FallbackSource Source
	Symbols        []string

	// Provider credentials and limits
	AlphaVantageKey  string
	APITimeout       time.Duration
	InterSymbolDelay time.Duration

	// Persistence
	DatabaseURL string
	DBHost      string
	DBName      string
	DBUser      string
	DBPassword  string

	// Logging
	LogFile string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() Config {
	return Config{
		DataSource:       Source(strings.ToLower(getEnv("DATA_SOURCE", "yf"))),
		FallbackSource:   Source(strings.ToLower(getEnv("FALLBACK_SOURCE", "yf"))),
		Symbols:          splitCSV(getEnv("SYMBOLS", "GOOGL,NVDA,MSFT")),
		AlphaVantageKey:  getEnv("ALPHA_API_KEY", ""),
		APITimeout:       time.Duration(getEnvInt("API_TIMEOUT", 30)) * time.Second,
		InterSymbolDelay: time.Duration(getEnvInt("RATE_LIMIT_DELAY", 12)) * time.Second,
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBName:           getEnv("DB_NAME", "stockpulse"),
		DBUser:           getEnv("DB_USER", "stockpulse"),
		DBPassword:       getEnv("DB_PASS", ""),
		LogFile:          getEnv("LOG_FILE", "stockpulse.log"),
	}
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultVal
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
