package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"medstock/m/internal/config"
	"medstock/m/internal/inventory"
	"medstock/m/internal/store"
)

var requiredColumns = []string{
	"name", "category", "manufacturer", "batchNumber", "unitsPerPack", "packsPerCarton",
	"quantityInCartons", "packCostPrice", "packSellingPrice", "manufacturingDate", "expiryDate",
}

// LoadStock imports the CSV into an empty catalog. A catalog that already
// holds items is left alone. Invalid rows are logged and skipped; the valid
// rows are inserted in one transaction.
func LoadStock(ctx context.Context, db *sqlx.DB, stock *store.StockStore, csvPath string, logger *logrus.Logger) (int, error) {
	n, err := stock.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.WithField("existing", n).Info("stock catalog already populated, skipping seed")
		return 0, nil
	}

	file, err := os.Open(csvPath)
	if err != nil {
		return 0, fmt.Errorf("open stock seed %s: %w", csvPath, err)
	}
	defer file.Close()

	return loadStock(ctx, db, stock, file, logger)
}

func loadStock(ctx context.Context, db *sqlx.DB, stock *store.StockStore, r io.Reader, logger *logrus.Logger) (int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read stock seed header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return 0, fmt.Errorf("stock seed is missing column %q", col)
		}
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin stock seed: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	rows := 0
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			config.LogError(logger, "seed", "LoadStock", fmt.Sprintf("read line %d", line), nil, err)
			continue
		}
		in, err := parseRow(record, index)
		if err != nil {
			config.LogError(logger, "seed", "LoadStock", fmt.Sprintf("parse line %d", line), record, err)
			continue
		}
		item, err := in.Item()
		if err != nil {
			config.LogError(logger, "seed", "LoadStock", fmt.Sprintf("validate line %d", line), in.Name, err)
			continue
		}
		item.ID = uuid.NewString()
		item.CreatedAt = now
		item.UpdatedAt = now
		if err := stock.CreateWith(ctx, tx, item); err != nil {
			return 0, err
		}
		rows++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit stock seed: %w", err)
	}
	logger.WithField("rows", rows).Info("seeded stock catalog")
	return rows, nil
}

func parseRow(record []string, index map[string]int) (inventory.StockInput, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	var in inventory.StockInput
	var err error
	in.Name = field("name")
	in.Category = field("category")
	in.Manufacturer = field("manufacturer")
	in.BatchNumber = field("batchNumber")
	in.ManufacturingDate = field("manufacturingDate")
	in.ExpiryDate = field("expiryDate")
	in.Location = field("location")
	if in.UnitsPerPack, err = strconv.ParseInt(field("unitsPerPack"), 10, 64); err != nil {
		return in, fmt.Errorf("unitsPerPack: %w", err)
	}
	if in.PacksPerCarton, err = strconv.ParseInt(field("packsPerCarton"), 10, 64); err != nil {
		return in, fmt.Errorf("packsPerCarton: %w", err)
	}
	if in.QuantityInCartons, err = strconv.ParseInt(field("quantityInCartons"), 10, 64); err != nil {
		return in, fmt.Errorf("quantityInCartons: %w", err)
	}
	if in.PackCostPrice, err = decimal.NewFromString(field("packCostPrice")); err != nil {
		return in, fmt.Errorf("packCostPrice: %w", err)
	}
	if in.PackSellingPrice, err = decimal.NewFromString(field("packSellingPrice")); err != nil {
		return in, fmt.Errorf("packSellingPrice: %w", err)
	}
	if v := field("reorderLevel"); v != "" {
		level, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return in, fmt.Errorf("reorderLevel: %w", err)
		}
		in.ReorderLevel = &level
	}
	return in, nil
}
