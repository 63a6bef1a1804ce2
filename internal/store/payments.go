package store

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"medstock/m/domain"
)

type paymentRow struct {
	Seq           int64           `db:"seq"`
	ID            string          `db:"id"`
	CustomerPhone string          `db:"customer_phone"`
	CustomerName  string          `db:"customer_name"`
	AmountPaid    decimal.Decimal `db:"amount_paid"`
	PaymentMethod string          `db:"payment_method"`
	Note          string          `db:"note"`
	CreatedAt     int64           `db:"created_at"`
}

// PaymentStore owns the append-only payments table.
type PaymentStore struct {
	db *sqlx.DB
}

func NewPaymentStore(db *sqlx.DB) *PaymentStore {
	return &PaymentStore{db: db}
}

func (s *PaymentStore) Create(ctx context.Context, p domain.Payment) error {
	row := paymentRow{
		ID:            p.ID,
		CustomerPhone: p.CustomerPhone,
		CustomerName:  p.CustomerName,
		AmountPaid:    p.AmountPaid,
		PaymentMethod: string(p.PaymentMethod),
		Note:          p.Note,
		CreatedAt:     toUnix(p.CreatedAt),
	}
	if _, err := s.db.NamedExecContext(ctx, `INSERT INTO payments (id, customer_phone, customer_name, amount_paid,
                payment_method, note, created_at)
                VALUES (:id, :customer_phone, :customer_name, :amount_paid, :payment_method, :note, :created_at)`, row); err != nil {
		return storageErr("insert payment", err)
	}
	return nil
}

// List returns payments oldest first. An empty phone returns every
// customer's payments.
func (s *PaymentStore) List(ctx context.Context, phone string) ([]domain.Payment, error) {
	query := `SELECT seq, id, customer_phone, customer_name, amount_paid, payment_method, note, created_at FROM payments`
	var args []any
	if phone != "" {
		query += ` WHERE customer_phone = ?`
		args = append(args, phone)
	}
	query += ` ORDER BY created_at ASC, seq ASC`

	var rows []paymentRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storageErr("list payments", err)
	}
	payments := make([]domain.Payment, len(rows))
	for i, r := range rows {
		payments[i] = domain.Payment{
			ID:            r.ID,
			CustomerPhone: r.CustomerPhone,
			CustomerName:  r.CustomerName,
			AmountPaid:    r.AmountPaid,
			PaymentMethod: domain.PaymentMethod(r.PaymentMethod),
			Note:          r.Note,
			CreatedAt:     fromUnix(r.CreatedAt),
		}
	}
	return payments, nil
}
