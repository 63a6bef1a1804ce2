package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"medstock/m/domain"
	"medstock/m/internal/config"
	"medstock/m/internal/inventory"
	"medstock/m/internal/store"
	"medstock/m/internal/validation"
)

// DefaultGSTRate is the tax rate applied when none is configured.
var DefaultGSTRate = decimal.RequireFromString("0.18")

type Committer interface {
	CommitAll(ctx context.Context, reservations []inventory.Reservation, persist func(context.Context, *sqlx.Tx) error) error
}

type InvoiceRepository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, inv domain.Invoice) error
	FindByIdempotencyKey(ctx context.Context, key string) (domain.Invoice, bool, error)
	SaveIdempotencyKey(ctx context.Context, tx *sqlx.Tx, key, invoiceID string, at time.Time) error
}

// StatusRefresher re-derives stored payment statuses for a customer.
type StatusRefresher interface {
	RefreshStatuses(ctx context.Context, phone string) (map[string]domain.PaymentStatus, error)
}

type Sequence interface {
	Next(ctx context.Context) (int64, error)
}

type StockReader interface {
	Get(ctx context.Context, id string) (domain.StockItem, error)
}

// CustomerInfo is everything on an invoice besides its lines.
type CustomerInfo struct {
	CustomerName    string               `json:"customerName" validate:"required"`
	CustomerPhone   string               `json:"customerPhone" validate:"required"`
	CustomerAddress string               `json:"customerAddress"`
	PaymentMethod   domain.PaymentMethod `json:"paymentMethod" validate:"omitempty,paymentmethod"`
	Discount        decimal.Decimal      `json:"discount"`
}

type LineRequest struct {
	StockID        string `json:"stockId" validate:"required"`
	CartonsOrdered int64  `json:"cartonsOrdered" validate:"gte=1"`
}

// InvoiceRequest is the body of an invoice submission.
type InvoiceRequest struct {
	CustomerName    string               `json:"customerName" validate:"required"`
	CustomerPhone   string               `json:"customerPhone" validate:"required"`
	CustomerAddress string               `json:"customerAddress"`
	PaymentMethod   domain.PaymentMethod `json:"paymentMethod" validate:"omitempty,paymentmethod"`
	Discount        decimal.Decimal      `json:"discount"`
	Items           []LineRequest        `json:"items" validate:"dive"`
}

func (r InvoiceRequest) Customer() CustomerInfo {
	return CustomerInfo{
		CustomerName:    r.CustomerName,
		CustomerPhone:   r.CustomerPhone,
		CustomerAddress: r.CustomerAddress,
		PaymentMethod:   r.PaymentMethod,
		Discount:        r.Discount,
	}
}

// QuoteRequest prices lines without committing anything.
type QuoteRequest struct {
	Items    []LineRequest   `json:"items" validate:"dive"`
	Discount decimal.Decimal `json:"discount"`
}

type Totals struct {
	Items       []domain.InvoiceItem `json:"items"`
	Subtotal    decimal.Decimal      `json:"subtotal"`
	GST         decimal.Decimal      `json:"gst"`
	Discount    decimal.Decimal      `json:"discount"`
	TotalAmount decimal.Decimal      `json:"totalAmount"`
}

type Calculator struct {
	gstRate  decimal.Decimal
	catalog  StockReader
	guard    Committer
	invoices InvoiceRepository
	seq      Sequence
	statuses StatusRefresher
	logger   *logrus.Logger
	now      func() time.Time
}

// NewCalculator builds a Calculator. statuses may be nil, in which case new
// invoices keep the Pending status they are created with.
func NewCalculator(gstRate decimal.Decimal, catalog StockReader, guard Committer, invoices InvoiceRepository, seq Sequence, statuses StatusRefresher, logger *logrus.Logger) *Calculator {
	return &Calculator{
		gstRate:  gstRate,
		catalog:  catalog,
		guard:    guard,
		invoices: invoices,
		seq:      seq,
		statuses: statuses,
		logger:   logger,
		now:      time.Now,
	}
}

// BuildCart reads each requested item from the catalog and adds it to a new
// cart. Expired items cannot be sold.
func (c *Calculator) BuildCart(ctx context.Context, lines []LineRequest) (*Cart, error) {
	now := c.now()
	cart := NewCart()
	for i, l := range lines {
		item, err := c.catalog.Get(ctx, l.StockID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("stock item %s: %w", l.StockID, domain.ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		if domain.Classify(item, now) == domain.StatusExpired {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].stockId", i), "is expired")
		}
		if err := cart.AddLine(item, l.CartonsOrdered); err != nil {
			return nil, err
		}
	}
	return cart, nil
}

// Quote prices cart. The discount must lie within [0, subtotal+gst].
func (c *Calculator) Quote(cart *Cart, discount decimal.Decimal) (Totals, error) {
	if cart == nil || cart.Len() == 0 {
		return Totals{}, domain.ErrEmptyCart
	}
	// Sign is checked before rounding.
	if discount.IsNegative() {
		return Totals{}, fmt.Errorf("%w: discount must not be negative", domain.ErrInvalidDiscount)
	}

	lines := cart.Lines()
	items := make([]domain.InvoiceItem, len(lines))
	for i, l := range lines {
		items[i] = domain.InvoiceItem{
			StockID:        l.StockID,
			Name:           l.Name,
			Packaging:      l.Packaging,
			CartonsOrdered: l.CartonsOrdered,
			PacksPerCarton: l.PacksPerCarton,
			PackPrice:      l.PackPrice,
			Total:          LineTotal(l),
		}
	}
	subtotal := cart.Subtotal()
	gst := domain.RoundMoney(subtotal.Mul(c.gstRate))
	gross := subtotal.Add(gst)

	discount = domain.RoundMoney(discount)
	if discount.GreaterThan(gross) {
		return Totals{}, fmt.Errorf("%w: discount %s exceeds invoice amount %s", domain.ErrInvalidDiscount, discount.StringFixed(2), gross.StringFixed(2))
	}

	return Totals{
		Items:       items,
		Subtotal:    subtotal,
		GST:         gst,
		Discount:    discount,
		TotalAmount: gross.Sub(discount),
	}, nil
}

// Price builds a cart from req and quotes it.
func (c *Calculator) Price(ctx context.Context, req QuoteRequest) (Totals, error) {
	if len(req.Items) == 0 {
		return Totals{}, domain.ErrEmptyCart
	}
	if err := validation.Struct(req); err != nil {
		return Totals{}, err
	}
	cart, err := c.BuildCart(ctx, req.Items)
	if err != nil {
		return Totals{}, err
	}
	return c.Quote(cart, req.Discount)
}

// Submit builds a cart from req and finalizes it. A repeated idempotency key
// returns the invoice created the first time without touching stock.
func (c *Calculator) Submit(ctx context.Context, req InvoiceRequest, idempotencyKey string) (domain.Invoice, error) {
	if inv, ok, err := c.existing(ctx, idempotencyKey); err != nil || ok {
		return inv, err
	}
	if len(req.Items) == 0 {
		return domain.Invoice{}, domain.ErrEmptyCart
	}
	if err := validation.Struct(req); err != nil {
		return domain.Invoice{}, err
	}
	cart, err := c.BuildCart(ctx, req.Items)
	if err != nil {
		return domain.Invoice{}, err
	}
	return c.Finalize(ctx, cart, req.Customer(), idempotencyKey)
}

// Finalize prices cart, commits its stock and persists the invoice in one
// transaction. The invoice number is drawn before the transaction and is
// not reused if the commit fails.
func (c *Calculator) Finalize(ctx context.Context, cart *Cart, info CustomerInfo, idempotencyKey string) (domain.Invoice, error) {
	if cart == nil || cart.Len() == 0 {
		return domain.Invoice{}, domain.ErrEmptyCart
	}
	if inv, ok, err := c.existing(ctx, idempotencyKey); err != nil || ok {
		return inv, err
	}
	info, err := normalizeCustomer(info)
	if err != nil {
		return domain.Invoice{}, err
	}
	totals, err := c.Quote(cart, info.Discount)
	if err != nil {
		return domain.Invoice{}, err
	}

	n, err := c.seq.Next(ctx)
	if err != nil {
		config.LogError(c.logger, "billing", "Finalize", "allocate invoice number", nil, err)
		return domain.Invoice{}, err
	}
	inv := domain.Invoice{
		ID:              uuid.NewString(),
		InvoiceNumber:   FormatInvoiceNumber(n),
		CustomerName:    info.CustomerName,
		CustomerPhone:   info.CustomerPhone,
		CustomerAddress: info.CustomerAddress,
		Items:           totals.Items,
		Subtotal:        totals.Subtotal,
		GST:             totals.GST,
		Discount:        totals.Discount,
		TotalAmount:     totals.TotalAmount,
		PaymentMethod:   info.PaymentMethod,
		PaymentStatus:   domain.PaymentPending,
		CreatedAt:       c.now().UTC(),
	}

	reservations := make([]inventory.Reservation, len(inv.Items))
	for i, item := range inv.Items {
		reservations[i] = inventory.Reservation{StockID: item.StockID, Cartons: item.CartonsOrdered}
	}
	err = c.guard.CommitAll(ctx, reservations, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := c.invoices.Insert(ctx, tx, inv); err != nil {
			return err
		}
		if idempotencyKey != "" {
			return c.invoices.SaveIdempotencyKey(ctx, tx, idempotencyKey, inv.ID, inv.CreatedAt)
		}
		return nil
	})
	if err != nil {
		// A concurrent submission with the same key won the race.
		if idempotencyKey != "" && errors.Is(err, store.ErrDuplicate) {
			if prior, ok, lookupErr := c.existing(ctx, idempotencyKey); lookupErr == nil && ok {
				return prior, nil
			}
		}
		if !errors.Is(err, domain.ErrInsufficientStock) {
			config.LogError(c.logger, "billing", "Finalize", "commit invoice", inv.InvoiceNumber, err)
		}
		return domain.Invoice{}, err
	}

	// Advance payments may already cover the new invoice.
	if c.statuses != nil {
		statuses, err := c.statuses.RefreshStatuses(ctx, inv.CustomerPhone)
		if err != nil {
			config.LogError(c.logger, "billing", "Finalize", "refresh payment status", inv.InvoiceNumber, err)
		} else if s, ok := statuses[inv.ID]; ok {
			inv.PaymentStatus = s
		}
	}

	c.logger.WithFields(logrus.Fields{
		"invoiceNumber": inv.InvoiceNumber,
		"customerPhone": inv.CustomerPhone,
		"totalAmount":   inv.TotalAmount.StringFixed(2),
		"lines":         len(inv.Items),
		"paymentStatus": inv.PaymentStatus,
	}).Info("invoice created")
	return inv, nil
}

func (c *Calculator) existing(ctx context.Context, key string) (domain.Invoice, bool, error) {
	if key == "" {
		return domain.Invoice{}, false, nil
	}
	return c.invoices.FindByIdempotencyKey(ctx, key)
}

func normalizeCustomer(info CustomerInfo) (CustomerInfo, error) {
	info.CustomerName = strings.TrimSpace(info.CustomerName)
	info.CustomerAddress = strings.TrimSpace(info.CustomerAddress)
	ve := &domain.ValidationError{}
	if err := validation.Struct(info); err != nil && !errors.As(err, &ve) {
		return info, err
	}
	if info.CustomerPhone != "" {
		phone, err := validation.Phone(info.CustomerPhone)
		if err != nil {
			ve.Add("customerPhone", err.Error())
		}
		info.CustomerPhone = phone
	}
	if err := ve.OrNil(); err != nil {
		return info, err
	}
	if info.PaymentMethod == "" {
		info.PaymentMethod = domain.PaymentCash
	}
	return info, nil
}

// FormatInvoiceNumber renders the n-th invoice number, e.g. INV-000042.
func FormatInvoiceNumber(n int64) string {
	return fmt.Sprintf("INV-%06d", n)
}
