// Package reorder sizes restocking from recent sales velocity and serves
// per-product sales reporting.
package reorder

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"medstock/m/domain"
	"medstock/m/internal/config"
)

// CoverageDays is the supply a suggestion aims to hold.
const CoverageDays = 30

const DefaultWindowDays = 30

type Analytics struct {
	CartonsSold         int64           `json:"cartonsSold"`
	WindowDays          int             `json:"windowDays"`
	AvgDailySales       decimal.Decimal `json:"avgDailySales"`
	SuggestedReorderQty int64           `json:"suggestedReorderQty"`
}

// Suggest computes velocity over the trailing window (now-windowDays, now]
// and the cartons needed to cover CoverageDays net of stock on hand. No
// sales in the window means no suggestion.
func Suggest(item domain.StockItem, history []domain.SaleLine, windowDays int, now time.Time) Analytics {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	start := now.AddDate(0, 0, -windowDays)
	var sold int64
	for _, line := range history {
		if line.StockID != item.ID || !line.SoldAt.After(start) || line.SoldAt.After(now) {
			continue
		}
		sold += line.CartonsOrdered
	}

	a := Analytics{CartonsSold: sold, WindowDays: windowDays, AvgDailySales: decimal.Zero}
	if sold == 0 {
		return a
	}
	window := decimal.NewFromInt(int64(windowDays))
	a.AvgDailySales = decimal.NewFromInt(sold).Div(window).Round(2)
	// Multiply before dividing so 10 sold over 30 days covers exactly 10.
	need := decimal.NewFromInt(sold * CoverageDays).Div(window).Round(0).IntPart()
	if need > item.QuantityInCartons {
		a.SuggestedReorderQty = need - item.QuantityInCartons
	}
	return a
}

type CatalogSource interface {
	Items(ctx context.Context) ([]domain.StockItem, error)
	Get(ctx context.Context, id string) (domain.StockItem, error)
}

type SalesSource interface {
	SaleLines(ctx context.Context, stockID string) ([]domain.SaleLine, error)
}

type SuggestionItem struct {
	ID           string             `json:"_id"`
	Name         string             `json:"name"`
	CurrentStock int64              `json:"currentStock"`
	Status       domain.StockStatus `json:"status"`
}

type Suggestion struct {
	Item      SuggestionItem `json:"item"`
	Analytics Analytics      `json:"analytics"`
}

type ProductSales struct {
	ID               string          `json:"_id"`
	Name             string          `json:"name"`
	Category         domain.Category `json:"category"`
	TotalCartonsSold int64           `json:"totalCartonsSold"`
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	LastSoldDate     time.Time       `json:"lastSoldDate"`
}

type HistoryRow struct {
	Date          time.Time       `json:"date"`
	InvoiceNumber string          `json:"invoiceNumber"`
	CustomerName  string          `json:"customerName"`
	CustomerPhone string          `json:"customerPhone"`
	Quantity      int64           `json:"quantity"`
	Rate          decimal.Decimal `json:"rate"`
	Total         decimal.Decimal `json:"total"`
}

type Advisor struct {
	catalog CatalogSource
	sales   SalesSource
	logger  *logrus.Logger
	now     func() time.Time
}

func NewAdvisor(catalog CatalogSource, sales SalesSource, logger *logrus.Logger) *Advisor {
	return &Advisor{catalog: catalog, sales: sales, logger: logger, now: time.Now}
}

// Suggestions runs Suggest over the catalog and keeps items that need
// restocking, largest suggestion first.
func (a *Advisor) Suggestions(ctx context.Context, windowDays int) ([]Suggestion, error) {
	items, err := a.catalog.Items(ctx)
	if err != nil {
		config.LogError(a.logger, "reorder", "Suggestions", "list stock", nil, err)
		return nil, err
	}
	lines, err := a.sales.SaleLines(ctx, "")
	if err != nil {
		config.LogError(a.logger, "reorder", "Suggestions", "list sale lines", nil, err)
		return nil, err
	}
	byItem := make(map[string][]domain.SaleLine)
	for _, l := range lines {
		byItem[l.StockID] = append(byItem[l.StockID], l)
	}

	now := a.now()
	out := []Suggestion{}
	for _, item := range items {
		analytics := Suggest(item, byItem[item.ID], windowDays, now)
		if analytics.SuggestedReorderQty <= 0 {
			continue
		}
		out = append(out, Suggestion{
			Item: SuggestionItem{
				ID:           item.ID,
				Name:         item.Name,
				CurrentStock: item.QuantityInCartons,
				Status:       domain.Classify(item, now),
			},
			Analytics: analytics,
		})
	}
	slices.SortStableFunc(out, func(x, y Suggestion) int {
		return cmp.Compare(y.Analytics.SuggestedReorderQty, x.Analytics.SuggestedReorderQty)
	})
	return out, nil
}

// ProductSummary totals sales per product, highest revenue first. Products
// since removed from the catalog keep the name printed on their invoices.
func (a *Advisor) ProductSummary(ctx context.Context) ([]ProductSales, error) {
	lines, err := a.sales.SaleLines(ctx, "")
	if err != nil {
		config.LogError(a.logger, "reorder", "ProductSummary", "list sale lines", nil, err)
		return nil, err
	}
	items, err := a.catalog.Items(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]domain.StockItem, len(items))
	for _, item := range items {
		known[item.ID] = item
	}

	byID := make(map[string]*ProductSales)
	for _, l := range lines {
		p, ok := byID[l.StockID]
		if !ok {
			p = &ProductSales{ID: l.StockID, Name: l.Name, TotalRevenue: decimal.Zero}
			if item, ok := known[l.StockID]; ok {
				p.Name, p.Category = item.Name, item.Category
			}
			byID[l.StockID] = p
		}
		p.TotalCartonsSold += l.CartonsOrdered
		p.TotalRevenue = p.TotalRevenue.Add(l.Total)
		if l.SoldAt.After(p.LastSoldDate) {
			p.LastSoldDate = l.SoldAt
		}
	}

	out := make([]ProductSales, 0, len(byID))
	for _, p := range byID {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(x, y ProductSales) int {
		if c := y.TotalRevenue.Cmp(x.TotalRevenue); c != 0 {
			return c
		}
		return strings.Compare(x.Name, y.Name)
	})
	return out, nil
}

// ProductHistory lists every sale of one product, newest first.
func (a *Advisor) ProductHistory(ctx context.Context, stockID string) ([]HistoryRow, error) {
	lines, err := a.sales.SaleLines(ctx, stockID)
	if err != nil {
		config.LogError(a.logger, "reorder", "ProductHistory", "list sale lines", stockID, err)
		return nil, err
	}
	if len(lines) == 0 {
		if _, err := a.catalog.Get(ctx, stockID); err != nil {
			return nil, err
		}
	}

	rows := make([]HistoryRow, len(lines))
	for i, l := range lines {
		rows[len(lines)-1-i] = HistoryRow{
			Date:          l.SoldAt,
			InvoiceNumber: l.InvoiceNumber,
			CustomerName:  l.CustomerName,
			CustomerPhone: l.CustomerPhone,
			Quantity:      l.CartonsOrdered,
			Rate:          l.PackPrice.Mul(decimal.NewFromInt(l.PacksPerCarton)),
			Total:         l.Total,
		}
	}
	return rows, nil
}
