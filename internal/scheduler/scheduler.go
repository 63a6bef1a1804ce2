// Package scheduler runs background scans on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"medstock/m/internal/config"
	"medstock/m/internal/inventory"
)

type AlertSource interface {
	Alerts(ctx context.Context, days int) (inventory.Alerts, error)
}

// AlertScan logs the alert summary so stock problems surface without
// anyone opening the alerts page.
type AlertScan struct {
	source  AlertSource
	days    int
	timeout time.Duration
	logger  *logrus.Logger
}

func NewAlertScan(source AlertSource, days int, logger *logrus.Logger) *AlertScan {
	return &AlertScan{source: source, days: days, timeout: time.Minute, logger: logger}
}

// Run implements cron.Job.
func (s *AlertScan) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	alerts, err := s.source.Alerts(ctx, s.days)
	if err != nil {
		config.LogError(s.logger, "scheduler", "AlertScan.Run", "build alerts", s.days, err)
		return
	}
	entry := s.logger.WithFields(logrus.Fields{
		"lowStock":     alerts.Summary.LowStockCount,
		"outOfStock":   alerts.Summary.OutOfStockCount,
		"expired":      alerts.Summary.ExpiredCount,
		"expiringSoon": alerts.Summary.ExpiringSoonCount,
		"windowDays":   s.days,
	})
	if alerts.Summary.TotalAlerts > 0 {
		entry.Warn("stock alerts pending")
		return
	}
	entry.Info("stock alert scan clean")
}

// Start schedules job on spec and starts the cron runner. Callers stop it
// with Stop on shutdown.
func Start(spec string, job cron.Job) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddJob(spec, job); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
