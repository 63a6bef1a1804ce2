package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"medstock/m/domain"
	"medstock/m/internal/testutil"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func TestStockStoreRoundTrip(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewStockStore(db)
	ctx := context.Background()

	item := testutil.StockItem("Paracetamol", testNow)
	item.PackSellingPrice = decimal.RequireFromString("12.75")
	if err := s.Create(ctx, item); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := s.Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != item.Name || !got.PackSellingPrice.Equal(item.PackSellingPrice) {
		t.Fatalf("Get() = %+v", got)
	}
	if !got.ExpiryDate.Equal(item.ExpiryDate) {
		t.Fatalf("ExpiryDate = %v, want %v", got.ExpiryDate, item.ExpiryDate)
	}

	item.QuantityInCartons = 7
	item.Location = "Cold Room"
	if err := s.Replace(ctx, item); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	got, _ = s.Get(ctx, item.ID)
	if got.QuantityInCartons != 7 || got.Location != "Cold Room" {
		t.Fatalf("after Replace() = %+v", got)
	}

	if err := s.Delete(ctx, item.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, item.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, item.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestStockStoreListFilters(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewStockStore(db)
	ctx := context.Background()

	gloves := testutil.StockItem("Nitrile Gloves", testNow)
	gloves.Category = domain.CategoryConsumables
	gloves.QuantityInCartons = 0
	syringe := testutil.StockItem("Syringe 5ml", testNow)
	syringe.Category = domain.CategoryConsumables
	para := testutil.StockItem("Paracetamol", testNow)
	testutil.InsertStock(t, db, gloves, syringe, para)

	tests := []struct {
		name   string
		filter StockFilter
		want   []string
	}{
		{"all sorted by name", StockFilter{}, []string{"Nitrile Gloves", "Paracetamol", "Syringe 5ml"}},
		{"category", StockFilter{Category: domain.CategoryConsumables}, []string{"Nitrile Gloves", "Syringe 5ml"}},
		{"search is case insensitive", StockFilter{Search: "SYRINGE"}, []string{"Syringe 5ml"}},
		{"available only", StockFilter{Category: domain.CategoryConsumables, Available: true}, []string{"Syringe 5ml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := s.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(items) != len(tt.want) {
				t.Fatalf("List() returned %d items, want %d", len(items), len(tt.want))
			}
			for i, name := range tt.want {
				if items[i].Name != name {
					t.Fatalf("items[%d] = %q, want %q", i, items[i].Name, name)
				}
			}
		})
	}

	if n, err := s.Count(ctx); err != nil || n != 3 {
		t.Fatalf("Count() = %d, %v", n, err)
	}
}

func TestDecrementNeverGoesNegative(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewStockStore(db)
	ctx := context.Background()

	item := testutil.StockItem("Bandage", testNow)
	item.QuantityInCartons = 5
	testutil.InsertStock(t, db, item)

	ok, err := s.Decrement(ctx, db, item.ID, 3, testNow.UnixNano())
	if err != nil || !ok {
		t.Fatalf("Decrement(3) = %v, %v", ok, err)
	}
	ok, err = s.Decrement(ctx, db, item.ID, 3, testNow.UnixNano())
	if err != nil || ok {
		t.Fatalf("Decrement(3) with 2 left = %v, %v, want false", ok, err)
	}
	qty, name, err := s.Quantity(ctx, db, item.ID)
	if err != nil || qty != 2 || name != "Bandage" {
		t.Fatalf("Quantity() = %d, %q, %v", qty, name, err)
	}
	if _, _, err := s.Quantity(ctx, db, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Quantity(missing) error = %v", err)
	}
}

func TestInvoiceStore(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewInvoiceStore(db)
	ctx := context.Background()

	inv := domain.Invoice{
		ID:            uuid.NewString(),
		InvoiceNumber: "INV-000001",
		CustomerName:  "City Clinic",
		CustomerPhone: "9876543210",
		Items: []domain.InvoiceItem{
			{StockID: "s1", Name: "Gauze", Packaging: "10×5", CartonsOrdered: 3, PacksPerCarton: 5, PackPrice: decimal.NewFromInt(50), Total: decimal.NewFromInt(750)},
			{StockID: "s2", Name: "Saline", Packaging: "1×12", CartonsOrdered: 1, PacksPerCarton: 12, PackPrice: decimal.NewFromInt(20), Total: decimal.NewFromInt(240)},
		},
		Subtotal:      decimal.NewFromInt(990),
		GST:           decimal.RequireFromString("178.2"),
		Discount:      decimal.Zero,
		TotalAmount:   decimal.RequireFromString("1168.2"),
		PaymentMethod: domain.PaymentCash,
		PaymentStatus: domain.PaymentPending,
		CreatedAt:     testNow,
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Insert(ctx, tx, inv); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := s.SaveIdempotencyKey(ctx, tx, "key-1", inv.ID, testNow); err != nil {
		t.Fatalf("SaveIdempotencyKey() error = %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	for _, ref := range []string{inv.ID, inv.InvoiceNumber} {
		got, err := s.Get(ctx, ref)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", ref, err)
		}
		if len(got.Items) != 2 || got.Items[0].Name != "Gauze" || got.Items[1].Name != "Saline" {
			t.Fatalf("Get(%s) items = %+v", ref, got.Items)
		}
		if !got.TotalAmount.Equal(inv.TotalAmount) {
			t.Fatalf("TotalAmount = %s", got.TotalAmount)
		}
	}

	found, ok, err := s.FindByIdempotencyKey(ctx, "key-1")
	if err != nil || !ok || found.ID != inv.ID {
		t.Fatalf("FindByIdempotencyKey() = %v, %v, %v", found.ID, ok, err)
	}
	if _, ok, err := s.FindByIdempotencyKey(ctx, "key-2"); err != nil || ok {
		t.Fatalf("FindByIdempotencyKey(unknown) = %v, %v", ok, err)
	}

	tx, _ = db.BeginTxx(ctx, nil)
	err = s.SaveIdempotencyKey(ctx, tx, "key-1", inv.ID, testNow)
	_ = tx.Rollback()
	if !errors.Is(err, ErrDuplicate) || !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("duplicate SaveIdempotencyKey() error = %v", err)
	}

	if err := s.UpdatePaymentStatuses(ctx, map[string]domain.PaymentStatus{inv.ID: domain.PaymentPartial}); err != nil {
		t.Fatalf("UpdatePaymentStatuses() error = %v", err)
	}
	list, err := s.List(ctx, InvoiceFilter{Status: domain.PaymentPartial})
	if err != nil || len(list) != 1 {
		t.Fatalf("List(Partial) = %d, %v", len(list), err)
	}
	if list, _ := s.List(ctx, InvoiceFilter{Phone: "0000000000"}); len(list) != 0 {
		t.Fatalf("List(other phone) = %d", len(list))
	}
	if list, _ := s.List(ctx, InvoiceFilter{From: testNow.Add(time.Hour)}); len(list) != 0 {
		t.Fatalf("List(from later) = %d", len(list))
	}

	lines, err := s.SaleLines(ctx, "s1")
	if err != nil || len(lines) != 1 {
		t.Fatalf("SaleLines(s1) = %d, %v", len(lines), err)
	}
	if lines[0].InvoiceNumber != "INV-000001" || lines[0].CartonsOrdered != 3 || !lines[0].SoldAt.Equal(testNow) {
		t.Fatalf("SaleLines(s1)[0] = %+v", lines[0])
	}
	if all, _ := s.SaleLines(ctx, ""); len(all) != 2 {
		t.Fatalf("SaleLines(all) = %d", len(all))
	}
}

func TestPaymentStoreOrdersByTimeThenInsertion(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewPaymentStore(db)
	ctx := context.Background()

	later := domain.Payment{ID: uuid.NewString(), CustomerPhone: "9876543210", CustomerName: "A", AmountPaid: decimal.NewFromInt(1), PaymentMethod: domain.PaymentUPI, CreatedAt: testNow.Add(time.Minute)}
	first := domain.Payment{ID: uuid.NewString(), CustomerPhone: "9876543210", CustomerName: "A", AmountPaid: decimal.NewFromInt(2), PaymentMethod: domain.PaymentCash, CreatedAt: testNow}
	second := domain.Payment{ID: uuid.NewString(), CustomerPhone: "9876543210", CustomerName: "A", AmountPaid: decimal.NewFromInt(3), PaymentMethod: domain.PaymentCash, CreatedAt: testNow, Note: "cheque cleared"}
	other := domain.Payment{ID: uuid.NewString(), CustomerPhone: "9123456789", CustomerName: "B", AmountPaid: decimal.NewFromInt(4), PaymentMethod: domain.PaymentCard, CreatedAt: testNow}
	for _, p := range []domain.Payment{later, first, second, other} {
		if err := s.Create(ctx, p); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	got, err := s.List(ctx, "9876543210")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{first.ID, second.ID, later.ID}
	if len(got) != len(want) {
		t.Fatalf("List() returned %d payments", len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("payments[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
	if got[1].Note != "cheque cleared" {
		t.Fatalf("Note = %q", got[1].Note)
	}
	if all, _ := s.List(ctx, ""); len(all) != 4 {
		t.Fatalf("List(all) = %d", len(all))
	}
}

func TestSQLSequenceIsMonotonic(t *testing.T) {
	db := testutil.NewDB(t)
	seq := NewSQLSequence(db)
	for want := int64(1); want <= 3; want++ {
		got, err := seq.Next(context.Background())
		if err != nil || got != want {
			t.Fatalf("Next() = %d, %v, want %d", got, err, want)
		}
	}
}
