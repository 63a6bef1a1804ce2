package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"

	"medstock/m/internal/inventory"
)

type fakeSource struct {
	alerts inventory.Alerts
	err    error
	days   int
}

func (f *fakeSource) Alerts(_ context.Context, days int) (inventory.Alerts, error) {
	f.days = days
	return f.alerts, f.err
}

func jsonLogger(buf *bytes.Buffer) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(buf)
	return l
}

func TestAlertScanLogsSummary(t *testing.T) {
	var buf bytes.Buffer
	src := &fakeSource{alerts: inventory.Alerts{Summary: inventory.AlertSummary{LowStockCount: 2, ExpiredCount: 1, TotalAlerts: 3}}}
	NewAlertScan(src, 45, jsonLogger(&buf)).Run()

	if src.days != 45 {
		t.Fatalf("days = %d, want 45", src.days)
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output %q: %v", buf.String(), err)
	}
	if entry["level"] != "warning" || entry["lowStock"] != float64(2) || entry["expired"] != float64(1) {
		t.Fatalf("log entry = %v", entry)
	}
}

func TestAlertScanLogsErrors(t *testing.T) {
	var buf bytes.Buffer
	NewAlertScan(&fakeSource{err: errors.New("db down")}, 30, jsonLogger(&buf)).Run()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["level"] != "error" || entry["module"] != "scheduler" || entry["msg"] != "db down" {
		t.Fatalf("log entry = %v", entry)
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	if _, err := Start("not a schedule", NewAlertScan(&fakeSource{}, 30, logrus.New())); err == nil {
		t.Fatal("Start() accepted an invalid spec")
	}
	c, err := Start("0 9 * * *", NewAlertScan(&fakeSource{}, 30, logrus.New()))
	if err != nil {
		t.Fatal(err)
	}
	<-c.Stop().Done()
}
