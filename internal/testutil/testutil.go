// Package testutil builds throwaway databases and fixtures for tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"medstock/m/domain"
	"medstock/m/internal/database"
	"medstock/m/internal/migrations"
)

// NewDB returns a migrated in-memory database closed at test cleanup.
func NewDB(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := database.Connect(":memory:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// StockItem returns a valid item expiring a year after now: 10 units per
// pack, 5 packs per carton, 20 cartons at 50 per pack.
func StockItem(name string, now time.Time) domain.StockItem {
	return domain.StockItem{
		ID:                uuid.NewString(),
		Name:              name,
		Category:          domain.CategoryMedicine,
		Manufacturer:      "Acme Pharma",
		BatchNumber:       "B-" + name,
		UnitsPerPack:      10,
		PacksPerCarton:    5,
		QuantityInCartons: 20,
		PackCostPrice:     decimal.NewFromInt(30),
		PackSellingPrice:  decimal.NewFromInt(50),
		ManufacturingDate: now.AddDate(-1, 0, 0),
		ExpiryDate:        now.AddDate(1, 0, 0),
		ReorderLevel:      domain.DefaultReorderLevel,
		Location:          domain.DefaultLocation,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// InsertStock writes items directly into stock_items.
func InsertStock(t testing.TB, db *sqlx.DB, items ...domain.StockItem) {
	t.Helper()
	for _, item := range items {
		_, err := db.NamedExecContext(context.Background(), `INSERT INTO stock_items (id, name, category, manufacturer,
                batch_number, units_per_pack, packs_per_carton, quantity_in_cartons, pack_cost_price, pack_selling_price,
                manufacturing_date, expiry_date, reorder_level, location, created_at, updated_at)
                VALUES (:id, :name, :category, :manufacturer, :batch_number, :units_per_pack, :packs_per_carton,
                :quantity_in_cartons, :pack_cost_price, :pack_selling_price, :manufacturing_date, :expiry_date,
                :reorder_level, :location, :created_at, :updated_at)`, map[string]any{
			"id":                  item.ID,
			"name":                item.Name,
			"category":            string(item.Category),
			"manufacturer":        item.Manufacturer,
			"batch_number":        item.BatchNumber,
			"units_per_pack":      item.UnitsPerPack,
			"packs_per_carton":    item.PacksPerCarton,
			"quantity_in_cartons": item.QuantityInCartons,
			"pack_cost_price":     item.PackCostPrice.String(),
			"pack_selling_price":  item.PackSellingPrice.String(),
			"manufacturing_date":  item.ManufacturingDate.UnixNano(),
			"expiry_date":         item.ExpiryDate.UnixNano(),
			"reorder_level":       item.ReorderLevel,
			"location":            item.Location,
			"created_at":          item.CreatedAt.UnixNano(),
			"updated_at":          item.UpdatedAt.UnixNano(),
		})
		if err != nil {
			t.Fatalf("insert stock %s: %v", item.Name, err)
		}
	}
}
