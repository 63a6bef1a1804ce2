package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryMedicine    Category = "Medicine"
	CategoryEquipment   Category = "Equipment"
	CategoryConsumables Category = "Consumables"
	CategorySurgical    Category = "Surgical"
	CategoryOther       Category = "Other"
)

var Categories = []Category{CategoryMedicine, CategoryEquipment, CategoryConsumables, CategorySurgical, CategoryOther}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

const (
	DefaultReorderLevel int64 = 2
	DefaultLocation           = "Main Storage"
)

// StockItem is one packaged product line. QuantityInCartons is the only
// stored stock figure; packs and carton prices are derived from it.
type StockItem struct {
	ID                string          `json:"_id"`
	Name              string          `json:"name"`
	Category          Category        `json:"category"`
	Manufacturer      string          `json:"manufacturer"`
	BatchNumber       string          `json:"batchNumber"`
	UnitsPerPack      int64           `json:"unitsPerPack"`
	PacksPerCarton    int64           `json:"packsPerCarton"`
	QuantityInCartons int64           `json:"quantityInCartons"`
	PackCostPrice     decimal.Decimal `json:"packCostPrice"`
	PackSellingPrice  decimal.Decimal `json:"packSellingPrice"`
	ManufacturingDate time.Time       `json:"manufacturingDate"`
	ExpiryDate        time.Time       `json:"expiryDate"`
	ReorderLevel      int64           `json:"reorderLevel"`
	Location          string          `json:"location"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

func (s StockItem) TotalPacks() int64 {
	return s.PacksPerCarton * s.QuantityInCartons
}

func (s StockItem) CartonSellingPrice() decimal.Decimal {
	return s.PackSellingPrice.Mul(decimal.NewFromInt(s.PacksPerCarton))
}

func (s StockItem) CartonCostPrice() decimal.Decimal {
	return s.PackCostPrice.Mul(decimal.NewFromInt(s.PacksPerCarton))
}

// Packaging renders the pack layout the way invoices print it, e.g. "10×5".
func (s StockItem) Packaging() string {
	return fmt.Sprintf("%d×%d", s.UnitsPerPack, s.PacksPerCarton)
}

type StockStatus string

const (
	StatusInStock    StockStatus = "In Stock"
	StatusLowStock   StockStatus = "Low Stock"
	StatusOutOfStock StockStatus = "Out of Stock"
	StatusExpired    StockStatus = "Expired"
)

func (s StockStatus) Valid() bool {
	switch s {
	case StatusInStock, StatusLowStock, StatusOutOfStock, StatusExpired:
		return true
	}
	return false
}

// Classify derives the stock status. The first matching rule wins: expiry,
// then an empty shelf, then the reorder threshold.
func Classify(item StockItem, now time.Time) StockStatus {
	switch {
	case item.ExpiryDate.Before(now):
		return StatusExpired
	case item.QuantityInCartons == 0:
		return StatusOutOfStock
	case item.QuantityInCartons <= item.ReorderLevel:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// ExpiringWithin reports whether a not-yet-expired item expires inside the
// next days days.
func ExpiringWithin(item StockItem, now time.Time, days int) bool {
	if item.ExpiryDate.Before(now) {
		return false
	}
	return !item.ExpiryDate.After(now.AddDate(0, 0, days))
}
