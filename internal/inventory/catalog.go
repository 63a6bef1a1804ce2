// Package inventory serves the stock catalog: validated administrative
// writes, status-annotated reads, alert buckets and the atomic stock guard.
package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"medstock/m/domain"
	"medstock/m/internal/config"
	"medstock/m/internal/store"
	"medstock/m/internal/validation"
)

// StockInput is the create/replace payload. Dates accept "2006-01-02" or
// RFC 3339.
type StockInput struct {
	Name              string          `json:"name" validate:"required"`
	Category          string          `json:"category" validate:"required,category"`
	Manufacturer      string          `json:"manufacturer" validate:"required"`
	BatchNumber       string          `json:"batchNumber" validate:"required"`
	UnitsPerPack      int64           `json:"unitsPerPack" validate:"gte=1"`
	PacksPerCarton    int64           `json:"packsPerCarton" validate:"gte=1"`
	QuantityInCartons int64           `json:"quantityInCartons" validate:"gte=0"`
	PackCostPrice     decimal.Decimal `json:"packCostPrice" validate:"gte=0"`
	PackSellingPrice  decimal.Decimal `json:"packSellingPrice" validate:"gte=0"`
	ManufacturingDate string          `json:"manufacturingDate" validate:"required"`
	ExpiryDate        string          `json:"expiryDate" validate:"required"`
	ReorderLevel      *int64          `json:"reorderLevel" validate:"omitempty,gte=0"`
	Location          string          `json:"location"`
}

// StockView is a catalog item with its derived fields, as served to clients.
type StockView struct {
	domain.StockItem
	Status             domain.StockStatus `json:"status"`
	TotalPacks         int64              `json:"totalPacks"`
	CartonSellingPrice decimal.Decimal    `json:"cartonSellingPrice"`
}

func View(item domain.StockItem, now time.Time) StockView {
	return StockView{
		StockItem:          item,
		Status:             domain.Classify(item, now),
		TotalPacks:         item.TotalPacks(),
		CartonSellingPrice: item.CartonSellingPrice(),
	}
}

type ListFilter struct {
	store.StockFilter
	Status domain.StockStatus
}

// Catalog is the read and administrative write path over stock items.
type Catalog struct {
	stock  *store.StockStore
	logger *logrus.Logger
	now    func() time.Time
}

func NewCatalog(stock *store.StockStore, logger *logrus.Logger) *Catalog {
	return &Catalog{stock: stock, logger: logger, now: time.Now}
}

// List returns items matching f. The status filter is applied after
// classification since status is never stored.
func (c *Catalog) List(ctx context.Context, f ListFilter) ([]StockView, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, domain.NewValidationError("status", "must be one of In Stock, Low Stock, Out of Stock, Expired")
	}
	if f.Category != "" && !f.Category.Valid() {
		return nil, domain.NewValidationError("category", "must be one of Medicine, Equipment, Consumables, Surgical, Other")
	}
	items, err := c.stock.List(ctx, f.StockFilter)
	if err != nil {
		config.LogError(c.logger, "inventory", "Catalog.List", "list stock", f, err)
		return nil, err
	}
	now := c.now()
	views := make([]StockView, 0, len(items))
	for _, item := range items {
		v := View(item, now)
		if f.Status != "" && v.Status != f.Status {
			continue
		}
		views = append(views, v)
	}
	return views, nil
}

// Items returns the raw catalog for internal consumers.
func (c *Catalog) Items(ctx context.Context) ([]domain.StockItem, error) {
	return c.stock.List(ctx, store.StockFilter{})
}

// Alerts buckets the whole catalog at the current time.
func (c *Catalog) Alerts(ctx context.Context, days int) (Alerts, error) {
	items, err := c.stock.List(ctx, store.StockFilter{})
	if err != nil {
		config.LogError(c.logger, "inventory", "Catalog.Alerts", "list stock", days, err)
		return Alerts{}, err
	}
	return BuildAlerts(items, c.now(), days), nil
}

func (c *Catalog) Get(ctx context.Context, id string) (domain.StockItem, error) {
	return c.stock.Get(ctx, id)
}

func (c *Catalog) Create(ctx context.Context, in StockInput) (domain.StockItem, error) {
	now := c.now().UTC()
	item, err := in.Item()
	if err != nil {
		return domain.StockItem{}, err
	}
	item.ID = uuid.NewString()
	item.CreatedAt = now
	item.UpdatedAt = now
	if err := c.stock.Create(ctx, item); err != nil {
		config.LogError(c.logger, "inventory", "Catalog.Create", "insert stock", item.Name, err)
		return domain.StockItem{}, err
	}
	return item, nil
}

// Replace overwrites the whole record, keeping its id and creation time.
func (c *Catalog) Replace(ctx context.Context, id string, in StockInput) (domain.StockItem, error) {
	item, err := in.Item()
	if err != nil {
		return domain.StockItem{}, err
	}
	existing, err := c.stock.Get(ctx, id)
	if err != nil {
		return domain.StockItem{}, err
	}
	item.ID = existing.ID
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = c.now().UTC()
	if err := c.stock.Replace(ctx, item); err != nil {
		config.LogError(c.logger, "inventory", "Catalog.Replace", "replace stock", id, err)
		return domain.StockItem{}, err
	}
	return item, nil
}

func (c *Catalog) Delete(ctx context.Context, id string) error {
	return c.stock.Delete(ctx, id)
}

// Item validates the input and converts it to a stock item without id or
// timestamps.
func (in StockInput) Item() (domain.StockItem, error) {
	ve := &domain.ValidationError{}
	if err := validation.Struct(in); err != nil {
		if !errors.As(err, &ve) {
			return domain.StockItem{}, err
		}
	}

	mfg, mfgErr := parseDate(in.ManufacturingDate)
	if in.ManufacturingDate != "" && mfgErr != nil {
		ve.Add("manufacturingDate", "must be a date (YYYY-MM-DD)")
	}
	exp, expErr := parseDate(in.ExpiryDate)
	if in.ExpiryDate != "" && expErr != nil {
		ve.Add("expiryDate", "must be a date (YYYY-MM-DD)")
	}
	if mfgErr == nil && expErr == nil && mfg.After(exp) {
		ve.Add("expiryDate", "must not be before manufacturingDate")
	}
	if err := ve.OrNil(); err != nil {
		return domain.StockItem{}, err
	}

	reorder := domain.DefaultReorderLevel
	if in.ReorderLevel != nil {
		reorder = *in.ReorderLevel
	}
	location := strings.TrimSpace(in.Location)
	if location == "" {
		location = domain.DefaultLocation
	}
	return domain.StockItem{
		Name:              strings.TrimSpace(in.Name),
		Category:          domain.Category(in.Category),
		Manufacturer:      strings.TrimSpace(in.Manufacturer),
		BatchNumber:       strings.TrimSpace(in.BatchNumber),
		UnitsPerPack:      in.UnitsPerPack,
		PacksPerCarton:    in.PacksPerCarton,
		QuantityInCartons: in.QuantityInCartons,
		PackCostPrice:     domain.RoundMoney(in.PackCostPrice),
		PackSellingPrice:  domain.RoundMoney(in.PackSellingPrice),
		ManufacturingDate: mfg,
		ExpiryDate:        exp,
		ReorderLevel:      reorder,
		Location:          location,
	}, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
