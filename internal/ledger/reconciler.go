package ledger

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"medstock/m/domain"
	"medstock/m/internal/config"
	"medstock/m/internal/lock"
	"medstock/m/internal/validation"
)

type InvoiceSource interface {
	Headers(ctx context.Context, phone string) ([]domain.Invoice, error)
	UpdatePaymentStatuses(ctx context.Context, statuses map[string]domain.PaymentStatus) error
}

type PaymentSource interface {
	Create(ctx context.Context, p domain.Payment) error
	List(ctx context.Context, phone string) ([]domain.Payment, error)
}

type PaymentInput struct {
	CustomerPhone string               `json:"customerPhone" validate:"required"`
	CustomerName  string               `json:"customerName" validate:"required"`
	AmountPaid    decimal.Decimal      `json:"amountPaid" validate:"gt=0"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod" validate:"omitempty,paymentmethod"`
	Note          string               `json:"note"`
}

type Reconciler struct {
	invoices InvoiceSource
	payments PaymentSource
	locker   lock.Locker
	logger   *logrus.Logger
	now      func() time.Time
}

func NewReconciler(invoices InvoiceSource, payments PaymentSource, locker lock.Locker, logger *logrus.Logger) *Reconciler {
	return &Reconciler{invoices: invoices, payments: payments, locker: locker, logger: logger, now: time.Now}
}

// BuildLedger returns the full history of one customer. A phone with no
// invoices and no payments is ErrNotFound.
func (r *Reconciler) BuildLedger(ctx context.Context, rawPhone string) (domain.Ledger, error) {
	phone, err := validation.Phone(rawPhone)
	if err != nil {
		return domain.Ledger{}, domain.NewValidationError("phone", err.Error())
	}
	invoices, err := r.invoices.Headers(ctx, phone)
	if err != nil {
		config.LogError(r.logger, "ledger", "BuildLedger", "load invoices", phone, err)
		return domain.Ledger{}, err
	}
	payments, err := r.payments.List(ctx, phone)
	if err != nil {
		config.LogError(r.logger, "ledger", "BuildLedger", "load payments", phone, err)
		return domain.Ledger{}, err
	}
	if len(invoices) == 0 && len(payments) == 0 {
		return domain.Ledger{}, domain.ErrNotFound
	}
	return Build(phone, invoices, payments), nil
}

// Customers aggregates totals per phone straight from the facts, without
// building entry-level ledgers. Search matches name or phone. The directory
// is ordered by most recent activity.
func (r *Reconciler) Customers(ctx context.Context, search string) ([]domain.Customer, error) {
	invoices, err := r.invoices.Headers(ctx, "")
	if err != nil {
		config.LogError(r.logger, "ledger", "Customers", "load invoices", nil, err)
		return nil, err
	}
	payments, err := r.payments.List(ctx, "")
	if err != nil {
		config.LogError(r.logger, "ledger", "Customers", "load payments", nil, err)
		return nil, err
	}

	byPhone := make(map[string]*domain.Customer)
	get := func(phone string) *domain.Customer {
		c, ok := byPhone[phone]
		if !ok {
			c = &domain.Customer{Phone: phone, TotalBilled: decimal.Zero, TotalPaid: decimal.Zero}
			byPhone[phone] = c
		}
		return c
	}
	named := make(map[string]time.Time)
	for _, inv := range invoices {
		c := get(inv.CustomerPhone)
		c.TotalBilled = c.TotalBilled.Add(inv.TotalAmount)
		c.InvoiceCount++
		if at, ok := named[c.Phone]; !ok || !inv.CreatedAt.Before(at) {
			c.Name = inv.CustomerName
			named[c.Phone] = inv.CreatedAt
		}
		if inv.CreatedAt.After(c.LastActivity) {
			c.LastActivity = inv.CreatedAt
		}
	}
	for _, p := range payments {
		c := get(p.CustomerPhone)
		c.TotalPaid = c.TotalPaid.Add(p.AmountPaid)
		c.PaymentCount++
		if c.InvoiceCount == 0 {
			c.Name = p.CustomerName
		}
		if p.CreatedAt.After(c.LastActivity) {
			c.LastActivity = p.CreatedAt
		}
	}

	search = strings.ToLower(strings.TrimSpace(search))
	customers := make([]domain.Customer, 0, len(byPhone))
	for _, c := range byPhone {
		if search != "" && !strings.Contains(strings.ToLower(c.Name), search) && !strings.Contains(c.Phone, search) {
			continue
		}
		c.Balance = c.TotalBilled.Sub(c.TotalPaid)
		customers = append(customers, *c)
	}
	slices.SortFunc(customers, func(a, b domain.Customer) int {
		if c := b.LastActivity.Compare(a.LastActivity); c != 0 {
			return c
		}
		return strings.Compare(a.Phone, b.Phone)
	})
	return customers, nil
}

// RecordPayment appends a payment and refreshes the payment status of the
// customer's invoices. A failed refresh is logged but does not undo the
// payment; the next invoice or payment recomputes every status anyway.
func (r *Reconciler) RecordPayment(ctx context.Context, in PaymentInput) (domain.Payment, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.Note = strings.TrimSpace(in.Note)
	ve := &domain.ValidationError{}
	if err := validation.Struct(in); err != nil && !errors.As(err, &ve) {
		return domain.Payment{}, err
	}
	phone := ""
	if in.CustomerPhone != "" {
		var err error
		if phone, err = validation.Phone(in.CustomerPhone); err != nil {
			ve.Add("customerPhone", err.Error())
		}
	}
	if err := ve.OrNil(); err != nil {
		return domain.Payment{}, err
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = domain.PaymentCash
	}

	p := domain.Payment{
		ID:            uuid.NewString(),
		CustomerPhone: phone,
		CustomerName:  in.CustomerName,
		AmountPaid:    domain.RoundMoney(in.AmountPaid),
		PaymentMethod: in.PaymentMethod,
		Note:          in.Note,
		CreatedAt:     r.now().UTC(),
	}
	if !p.AmountPaid.IsPositive() {
		return domain.Payment{}, domain.NewValidationError("amountPaid", "must be at least 0.01")
	}
	if err := r.payments.Create(ctx, p); err != nil {
		config.LogError(r.logger, "ledger", "RecordPayment", "insert payment", phone, err)
		return domain.Payment{}, err
	}

	if _, err := r.RefreshStatuses(ctx, phone); err != nil {
		config.LogError(r.logger, "ledger", "RecordPayment", "refresh payment status", phone, err)
	}
	r.logger.WithFields(logrus.Fields{
		"customerPhone": phone,
		"amountPaid":    p.AmountPaid.StringFixed(2),
		"paymentMethod": p.PaymentMethod,
	}).Info("payment recorded")
	return p, nil
}

// RefreshStatuses re-derives the payment status of every invoice for phone
// from its payments and stores the ones that changed. It returns the status
// of each invoice. Refreshes for one customer are serialised so a stale
// read never overwrites a newer result.
func (r *Reconciler) RefreshStatuses(ctx context.Context, phone string) (map[string]domain.PaymentStatus, error) {
	release, err := r.locker.Lock(ctx, "customer:"+phone)
	if err != nil {
		return nil, err
	}
	defer release()

	invoices, err := r.invoices.Headers(ctx, phone)
	if err != nil {
		return nil, err
	}
	payments, err := r.payments.List(ctx, phone)
	if err != nil {
		return nil, err
	}
	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.AmountPaid)
	}
	statuses := PaymentStatuses(invoices, paid)
	changed := make(map[string]domain.PaymentStatus)
	for _, inv := range invoices {
		if s := statuses[inv.ID]; s != inv.PaymentStatus {
			changed[inv.ID] = s
		}
	}
	if err := r.invoices.UpdatePaymentStatuses(ctx, changed); err != nil {
		return nil, err
	}
	return statuses, nil
}
