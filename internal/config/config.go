package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Config holds application configuration values.
type Config struct {
	Secret       string
	AuthDisabled bool
	DatabaseDSN  string
	HTTPPort     string
	LogLevel     string

	GSTRate           decimal.Decimal
	ExpiryAlertDays   int
	ReorderWindowDays int

	RedisAddress      string
	AlertScanSchedule string
	SeedCSV           string
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	secret := os.Getenv("SECRET")
	if secret == "" {
		secret = "dev_secret"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}
	// Validate that port is numeric.
	if _, err := strconv.Atoi(port); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", port)
		port = "8080"
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "file:medstock.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}

	gst := decimal.RequireFromString("0.18")
	if raw := os.Getenv("GST_RATE"); raw != "" {
		if v, err := decimal.NewFromString(raw); err == nil && !v.IsNegative() {
			gst = v
		} else {
			log.Printf("invalid GST_RATE value %q, defaulting to %s", raw, gst)
		}
	}

	return Config{
		Secret:            secret,
		AuthDisabled:      envBool("AUTH_DISABLED", false),
		DatabaseDSN:       dsn,
		HTTPPort:          port,
		LogLevel:          envString("LOG_LEVEL", "info"),
		GSTRate:           gst,
		ExpiryAlertDays:   envPositiveInt("EXPIRY_ALERT_DAYS", 30),
		ReorderWindowDays: envPositiveInt("REORDER_WINDOW_DAYS", 30),
		RedisAddress:      os.Getenv("REDIS_ADDRESS"),
		AlertScanSchedule: envString("ALERT_SCAN_SCHEDULE", "0 9 * * *"),
		SeedCSV:           os.Getenv("SEED_CSV"),
	}
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("invalid %s value %q, defaulting to %t", key, raw, fallback)
		return fallback
	}
	return v
}

func envPositiveInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Printf("invalid %s value %q, defaulting to %d", key, raw, fallback)
		return fallback
	}
	return v
}
