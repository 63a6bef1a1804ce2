package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"SECRET", "HTTP_PORT", "DATABASE_DSN", "GST_RATE", "EXPIRY_ALERT_DAYS", "REORDER_WINDOW_DAYS", "REDIS_ADDRESS", "AUTH_DISABLED", "LOG_LEVEL", "ALERT_SCAN_SCHEDULE"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.HTTPPort != "8080" || cfg.Secret != "dev_secret" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.GSTRate.Equal(decimal.RequireFromString("0.18")) {
		t.Fatalf("GSTRate = %s", cfg.GSTRate)
	}
	if cfg.ExpiryAlertDays != 30 || cfg.ReorderWindowDays != 30 {
		t.Fatalf("windows = %d/%d", cfg.ExpiryAlertDays, cfg.ReorderWindowDays)
	}
	if cfg.AuthDisabled || cfg.RedisAddress != "" {
		t.Fatalf("unexpected flags: %+v", cfg)
	}
	if cfg.AlertScanSchedule != "0 9 * * *" {
		t.Fatalf("AlertScanSchedule = %q", cfg.AlertScanSchedule)
	}
}

func TestLoadOverridesAndBadValues(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-port")
	t.Setenv("GST_RATE", "0.12")
	t.Setenv("EXPIRY_ALERT_DAYS", "-4")
	t.Setenv("REORDER_WINDOW_DAYS", "14")
	t.Setenv("AUTH_DISABLED", "true")

	cfg := Load()
	if cfg.HTTPPort != "8080" {
		t.Fatalf("HTTPPort = %q, want fallback", cfg.HTTPPort)
	}
	if !cfg.GSTRate.Equal(decimal.RequireFromString("0.12")) {
		t.Fatalf("GSTRate = %s", cfg.GSTRate)
	}
	if cfg.ExpiryAlertDays != 30 {
		t.Fatalf("ExpiryAlertDays = %d, want fallback", cfg.ExpiryAlertDays)
	}
	if cfg.ReorderWindowDays != 14 || !cfg.AuthDisabled {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLogErrorWritesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("error", &buf)
	LogError(logger, "billing", "Finalize", "commit", map[string]int{"lines": 2}, errors.New("boom"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if entry["module"] != "billing" || entry["funcName"] != "Finalize" || entry["msg"] != "boom" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry["data"]; !ok {
		t.Fatal("data field missing")
	}
}
