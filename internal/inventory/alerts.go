package inventory

import (
	"slices"
	"time"

	"medstock/m/domain"
)

type AlertSummary struct {
	LowStockCount     int `json:"lowStockCount"`
	OutOfStockCount   int `json:"outOfStockCount"`
	ExpiredCount      int `json:"expiredCount"`
	ExpiringSoonCount int `json:"expiringSoonCount"`
	TotalAlerts       int `json:"totalAlerts"`
}

// Alerts buckets the catalog for the alerting screen. An item appears in
// exactly one status bucket and may additionally be expiring soon.
type Alerts struct {
	LowStock     []StockView  `json:"lowStock"`
	OutOfStock   []StockView  `json:"outOfStock"`
	Expired      []StockView  `json:"expired"`
	ExpiringSoon []StockView  `json:"expiringSoon"`
	Summary      AlertSummary `json:"summary"`
}

// BuildAlerts classifies items at now. Expiring soon means on hand, not yet
// expired and expiring within days; those are listed soonest first.
func BuildAlerts(items []domain.StockItem, now time.Time, days int) Alerts {
	a := Alerts{
		LowStock:     []StockView{},
		OutOfStock:   []StockView{},
		Expired:      []StockView{},
		ExpiringSoon: []StockView{},
	}
	for _, item := range items {
		v := View(item, now)
		switch v.Status {
		case domain.StatusLowStock:
			a.LowStock = append(a.LowStock, v)
		case domain.StatusOutOfStock:
			a.OutOfStock = append(a.OutOfStock, v)
		case domain.StatusExpired:
			a.Expired = append(a.Expired, v)
		}
		if item.QuantityInCartons > 0 && domain.ExpiringWithin(item, now, days) {
			a.ExpiringSoon = append(a.ExpiringSoon, v)
		}
	}
	slices.SortStableFunc(a.ExpiringSoon, func(x, y StockView) int {
		return x.ExpiryDate.Compare(y.ExpiryDate)
	})

	a.Summary = AlertSummary{
		LowStockCount:     len(a.LowStock),
		OutOfStockCount:   len(a.OutOfStock),
		ExpiredCount:      len(a.Expired),
		ExpiringSoonCount: len(a.ExpiringSoon),
	}
	a.Summary.TotalAlerts = a.Summary.LowStockCount + a.Summary.OutOfStockCount +
		a.Summary.ExpiredCount + a.Summary.ExpiringSoonCount
	return a
}
