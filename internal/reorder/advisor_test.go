package reorder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"medstock/m/domain"
	"medstock/m/internal/config"
)

var testNow = time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)

func sale(stockID string, cartons int64, at time.Time) domain.SaleLine {
	return domain.SaleLine{
		StockID:        stockID,
		Name:           "Item " + stockID,
		InvoiceNumber:  "INV-" + at.Format("150405"),
		CustomerName:   "City Clinic",
		CustomerPhone:  "9876543210",
		CartonsOrdered: cartons,
		PacksPerCarton: 5,
		PackPrice:      decimal.NewFromInt(50),
		Total:          decimal.NewFromInt(250 * cartons),
		SoldAt:         at,
	}
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		name     string
		qty      int64
		history  []domain.SaleLine
		wantAvg  string
		wantQty  int64
		wantSold int64
	}{
		{"no sales means no suggestion", 0, nil, "0", 0, 0},
		{"one a day with five on hand", 5, []domain.SaleLine{sale("a", 30, testNow.AddDate(0, 0, -3))}, "1", 25, 30},
		{"stock already covers demand", 40, []domain.SaleLine{sale("a", 30, testNow.AddDate(0, 0, -3))}, "1", 0, 30},
		{"fractional velocity", 0, []domain.SaleLine{sale("a", 1, testNow.Add(-time.Hour))}, "0.03", 1, 1},
		{"window start is exclusive", 0, []domain.SaleLine{sale("a", 9, testNow.AddDate(0, 0, -30))}, "0", 0, 0},
		{"future sales ignored", 0, []domain.SaleLine{sale("a", 9, testNow.Add(time.Hour))}, "0", 0, 0},
		{"other items ignored", 0, []domain.SaleLine{sale("b", 9, testNow.Add(-time.Hour))}, "0", 0, 0},
		{"sums lines", 2, []domain.SaleLine{sale("a", 4, testNow.AddDate(0, 0, -1)), sale("a", 6, testNow.AddDate(0, 0, -29))}, "0.33", 8, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := domain.StockItem{ID: "a", QuantityInCartons: tt.qty}
			got := Suggest(item, tt.history, 30, testNow)
			if !got.AvgDailySales.Equal(decimal.RequireFromString(tt.wantAvg)) {
				t.Errorf("AvgDailySales = %s, want %s", got.AvgDailySales, tt.wantAvg)
			}
			if got.SuggestedReorderQty != tt.wantQty || got.CartonsSold != tt.wantSold {
				t.Errorf("Suggest() = %+v, want qty %d sold %d", got, tt.wantQty, tt.wantSold)
			}
		})
	}
}

type fakeCatalog struct {
	items []domain.StockItem
}

func (f fakeCatalog) Items(context.Context) ([]domain.StockItem, error) { return f.items, nil }

func (f fakeCatalog) Get(_ context.Context, id string) (domain.StockItem, error) {
	for _, item := range f.items {
		if item.ID == id {
			return item, nil
		}
	}
	return domain.StockItem{}, domain.ErrNotFound
}

type fakeSales []domain.SaleLine

func (f fakeSales) SaleLines(_ context.Context, stockID string) ([]domain.SaleLine, error) {
	var out []domain.SaleLine
	for _, l := range f {
		if stockID == "" || l.StockID == stockID {
			out = append(out, l)
		}
	}
	return out, nil
}

func newAdvisor(items []domain.StockItem, sales fakeSales) *Advisor {
	a := NewAdvisor(fakeCatalog{items: items}, sales, config.NewDiscardLogger())
	a.now = func() time.Time { return testNow }
	return a
}

func TestSuggestionsSortedAndFiltered(t *testing.T) {
	future := testNow.AddDate(1, 0, 0)
	items := []domain.StockItem{
		{ID: "a", Name: "Gauze", QuantityInCartons: 2, ReorderLevel: 2, ExpiryDate: future, Category: domain.CategorySurgical},
		{ID: "b", Name: "Saline", QuantityInCartons: 0, ReorderLevel: 2, ExpiryDate: future},
		{ID: "c", Name: "Masks", QuantityInCartons: 100, ExpiryDate: future},
		{ID: "d", Name: "Unsold", QuantityInCartons: 0, ExpiryDate: future},
	}
	sales := fakeSales{
		sale("a", 10, testNow.AddDate(0, 0, -2)),
		sale("b", 30, testNow.AddDate(0, 0, -5)),
		sale("c", 30, testNow.AddDate(0, 0, -5)),
	}
	got, err := newAdvisor(items, sales).Suggestions(context.Background(), 30)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Item.ID != "b" || got[1].Item.ID != "a" {
		t.Fatalf("Suggestions() = %+v", got)
	}
	if got[0].Analytics.SuggestedReorderQty != 30 || got[0].Item.Status != domain.StatusOutOfStock {
		t.Fatalf("Saline suggestion = %+v", got[0])
	}
	if got[1].Analytics.SuggestedReorderQty != 8 || got[1].Item.Status != domain.StatusLowStock {
		t.Fatalf("Gauze suggestion = %+v", got[1])
	}
}

func TestProductSummaryAndHistory(t *testing.T) {
	items := []domain.StockItem{{ID: "a", Name: "Gauze", Category: domain.CategorySurgical}, {ID: "idle", Name: "Idle"}}
	older := testNow.AddDate(0, 0, -10)
	sales := fakeSales{
		sale("a", 2, older),
		sale("gone", 10, testNow.AddDate(0, 0, -5)),
		sale("a", 3, testNow),
	}
	a := newAdvisor(items, sales)

	summary, err := a.ProductSummary(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(summary) != 2 || summary[0].ID != "gone" || summary[1].ID != "a" {
		t.Fatalf("ProductSummary() = %+v", summary)
	}
	gauze := summary[1]
	if gauze.Name != "Gauze" || gauze.Category != domain.CategorySurgical || gauze.TotalCartonsSold != 5 ||
		!gauze.TotalRevenue.Equal(decimal.NewFromInt(1250)) || !gauze.LastSoldDate.Equal(testNow) {
		t.Fatalf("gauze summary = %+v", gauze)
	}
	if summary[0].Name != "Item gone" {
		t.Fatalf("removed product name = %q", summary[0].Name)
	}

	history, err := a.ProductHistory(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 || !history[0].Date.Equal(testNow) || history[1].Quantity != 2 {
		t.Fatalf("ProductHistory() = %+v", history)
	}
	if !history[0].Rate.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("Rate = %s, want carton rate 250", history[0].Rate)
	}

	if rows, err := a.ProductHistory(context.Background(), "idle"); err != nil || len(rows) != 0 {
		t.Fatalf("ProductHistory(idle) = %+v, %v", rows, err)
	}
	if _, err := a.ProductHistory(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("ProductHistory(missing) error = %v", err)
	}
}
