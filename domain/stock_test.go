package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestClassify(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.AddDate(1, 0, 0)

	tests := []struct {
		name string
		item StockItem
		want StockStatus
	}{
		{"expired wins over quantity", StockItem{QuantityInCartons: 50, ReorderLevel: 2, ExpiryDate: now.Add(-time.Second)}, StatusExpired},
		{"expired wins over empty shelf", StockItem{QuantityInCartons: 0, ExpiryDate: now.AddDate(0, 0, -1)}, StatusExpired},
		{"expiring exactly now is not expired", StockItem{QuantityInCartons: 10, ReorderLevel: 2, ExpiryDate: now}, StatusInStock},
		{"empty shelf", StockItem{QuantityInCartons: 0, ReorderLevel: 2, ExpiryDate: future}, StatusOutOfStock},
		{"empty shelf with zero reorder level", StockItem{QuantityInCartons: 0, ReorderLevel: 0, ExpiryDate: future}, StatusOutOfStock},
		{"at reorder level", StockItem{QuantityInCartons: 2, ReorderLevel: 2, ExpiryDate: future}, StatusLowStock},
		{"below reorder level", StockItem{QuantityInCartons: 1, ReorderLevel: 2, ExpiryDate: future}, StatusLowStock},
		{"one above reorder level", StockItem{QuantityInCartons: 3, ReorderLevel: 2, ExpiryDate: future}, StatusInStock},
		{"zero reorder level with stock", StockItem{QuantityInCartons: 1, ReorderLevel: 0, ExpiryDate: future}, StatusInStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.item, now); got != tt.want {
				t.Fatalf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpiringWithin(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		expiry time.Time
		want   bool
	}{
		{"already expired", now.AddDate(0, 0, -1), false},
		{"inside window", now.AddDate(0, 0, 10), true},
		{"on window edge", now.AddDate(0, 0, 30), true},
		{"past window", now.AddDate(0, 0, 31), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := StockItem{ExpiryDate: tt.expiry, QuantityInCartons: 5}
			if got := ExpiringWithin(item, now, 30); got != tt.want {
				t.Fatalf("ExpiringWithin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDerivedFields(t *testing.T) {
	item := StockItem{
		UnitsPerPack:      10,
		PacksPerCarton:    5,
		QuantityInCartons: 20,
		PackSellingPrice:  decimal.NewFromInt(50),
		PackCostPrice:     decimal.RequireFromString("32.50"),
	}
	if got := item.TotalPacks(); got != 100 {
		t.Fatalf("TotalPacks() = %d, want 100", got)
	}
	if got := item.CartonSellingPrice(); !got.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("CartonSellingPrice() = %s, want 250", got)
	}
	if got := item.CartonCostPrice(); !got.Equal(decimal.RequireFromString("162.5")) {
		t.Fatalf("CartonCostPrice() = %s, want 162.5", got)
	}
	if got := item.Packaging(); got != "10×5" {
		t.Fatalf("Packaging() = %q", got)
	}
}

func TestRoundMoneyIsBankers(t *testing.T) {
	cases := map[string]string{
		"2.345": "2.34",
		"2.355": "2.36",
		"135":   "135",
		"0.005": "0",
	}
	for in, want := range cases {
		if got := RoundMoney(decimal.RequireFromString(in)); !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("RoundMoney(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	ve := &ValidationError{}
	if ve.OrNil() != nil {
		t.Fatal("empty ValidationError should collapse to nil")
	}
	ve.Add("name", "is required")
	if !errors.Is(ve.OrNil(), ErrValidation) {
		t.Fatal("ValidationError should match ErrValidation")
	}

	var err error = &InsufficientStockError{StockID: "s1", Requested: 5, Available: 3}
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatal("InsufficientStockError should match ErrInsufficientStock")
	}

	cause := errors.New("disk full")
	err = &StorageError{Op: "insert invoice", Err: cause}
	if !errors.Is(err, ErrStorage) || !errors.Is(err, cause) {
		t.Fatal("StorageError should match ErrStorage and its cause")
	}
}
