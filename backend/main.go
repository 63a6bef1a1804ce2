package main

import (
	"context"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"medstock/m/internal/api"
	"medstock/m/internal/billing"
	"medstock/m/internal/config"
	"medstock/m/internal/database"
	"medstock/m/internal/inventory"
	"medstock/m/internal/ledger"
	"medstock/m/internal/lock"
	"medstock/m/internal/migrations"
	"medstock/m/internal/reorder"
	"medstock/m/internal/scheduler"
	"medstock/m/internal/seed"
	"medstock/m/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		logger.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		logger.WithError(err).Fatal("migrations failed")
	}

	stockStore := store.NewStockStore(db)
	invoiceStore := store.NewInvoiceStore(db)
	paymentStore := store.NewPaymentStore(db)

	var (
		locker   lock.Locker      = lock.NewLocal()
		sequence billing.Sequence = store.NewSQLSequence(db)
	)
	if cfg.RedisAddress != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
		defer client.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.WithError(err).WithField("address", cfg.RedisAddress).Fatal("redis unreachable")
		}
		locker = lock.NewRedis(client, logger)
		sequence = store.NewRedisSequence(client)
		logger.WithField("address", cfg.RedisAddress).Info("using redis for stock locks and invoice numbers")
	}

	if cfg.SeedCSV != "" {
		n, err := seed.LoadStock(context.Background(), db, stockStore, cfg.SeedCSV, logger)
		if err != nil {
			logger.WithError(err).Error("stock seed failed")
		} else if n > 0 {
			logger.WithField("items", n).Info("stock seeded")
		}
	}

	catalog := inventory.NewCatalog(stockStore, logger)
	guard := inventory.NewGuard(db, stockStore, locker, logger)
	reconciler := ledger.NewReconciler(invoiceStore, paymentStore, locker, logger)
	calculator := billing.NewCalculator(cfg.GSTRate, catalog, guard, invoiceStore, sequence, reconciler, logger)
	advisor := reorder.NewAdvisor(catalog, invoiceStore, logger)

	scan := scheduler.NewAlertScan(catalog, cfg.ExpiryAlertDays, logger)
	jobs, err := scheduler.Start(cfg.AlertScanSchedule, scan)
	if err != nil {
		logger.WithError(err).Fatal("alert scan schedule rejected")
	}
	defer jobs.Stop()

	handler := api.New(api.Dependencies{
		Catalog:    catalog,
		Billing:    calculator,
		Invoices:   invoiceStore,
		Ledger:     reconciler,
		Advisor:    advisor,
		Logger:     logger,
		Secret:     cfg.Secret,
		AuthOff:    cfg.AuthDisabled,
		AlertDays:  cfg.ExpiryAlertDays,
		WindowDays: cfg.ReorderWindowDays,
	})

	logger.WithFields(logrus.Fields{"port": cfg.HTTPPort}).Info("medstock server starting")
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		logger.WithError(err).Fatal("server error")
	}
}
