package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"medstock/m/domain"
)

type InvoiceFilter struct {
	Phone  string
	Status domain.PaymentStatus
	Method domain.PaymentMethod
	From   time.Time
	To     time.Time
}

type invoiceRow struct {
	Seq             int64           `db:"seq"`
	ID              string          `db:"id"`
	InvoiceNumber   string          `db:"invoice_number"`
	CustomerName    string          `db:"customer_name"`
	CustomerPhone   string          `db:"customer_phone"`
	CustomerAddress string          `db:"customer_address"`
	Subtotal        decimal.Decimal `db:"subtotal"`
	GST             decimal.Decimal `db:"gst"`
	Discount        decimal.Decimal `db:"discount"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	PaymentMethod   string          `db:"payment_method"`
	PaymentStatus   string          `db:"payment_status"`
	CreatedAt       int64           `db:"created_at"`
}

const invoiceColumns = `seq, id, invoice_number, customer_name, customer_phone, customer_address, subtotal, gst,
                discount, total_amount, payment_method, payment_status, created_at`

func (r invoiceRow) invoice() domain.Invoice {
	return domain.Invoice{
		ID:              r.ID,
		InvoiceNumber:   r.InvoiceNumber,
		CustomerName:    r.CustomerName,
		CustomerPhone:   r.CustomerPhone,
		CustomerAddress: r.CustomerAddress,
		Items:           []domain.InvoiceItem{},
		Subtotal:        r.Subtotal,
		GST:             r.GST,
		Discount:        r.Discount,
		TotalAmount:     r.TotalAmount,
		PaymentMethod:   domain.PaymentMethod(r.PaymentMethod),
		PaymentStatus:   domain.PaymentStatus(r.PaymentStatus),
		CreatedAt:       fromUnix(r.CreatedAt),
	}
}

type invoiceItemRow struct {
	InvoiceID      string          `db:"invoice_id"`
	Position       int             `db:"position"`
	StockID        string          `db:"stock_id"`
	Name           string          `db:"name"`
	Packaging      string          `db:"packaging"`
	CartonsOrdered int64           `db:"cartons_ordered"`
	PacksPerCarton int64           `db:"packs_per_carton"`
	PackPrice      decimal.Decimal `db:"pack_price"`
	Total          decimal.Decimal `db:"total"`
}

// InvoiceStore owns invoices, their line items and idempotency keys.
type InvoiceStore struct {
	db *sqlx.DB
}

func NewInvoiceStore(db *sqlx.DB) *InvoiceStore {
	return &InvoiceStore{db: db}
}

// Insert writes the invoice header and its items inside tx.
func (s *InvoiceStore) Insert(ctx context.Context, tx *sqlx.Tx, inv domain.Invoice) error {
	row := invoiceRow{
		ID:              inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		CustomerName:    inv.CustomerName,
		CustomerPhone:   inv.CustomerPhone,
		CustomerAddress: inv.CustomerAddress,
		Subtotal:        inv.Subtotal,
		GST:             inv.GST,
		Discount:        inv.Discount,
		TotalAmount:     inv.TotalAmount,
		PaymentMethod:   string(inv.PaymentMethod),
		PaymentStatus:   string(inv.PaymentStatus),
		CreatedAt:       toUnix(inv.CreatedAt),
	}
	if _, err := tx.NamedExecContext(ctx, `INSERT INTO invoices (id, invoice_number, customer_name, customer_phone,
                customer_address, subtotal, gst, discount, total_amount, payment_method, payment_status, created_at)
                VALUES (:id, :invoice_number, :customer_name, :customer_phone, :customer_address, :subtotal, :gst,
                :discount, :total_amount, :payment_method, :payment_status, :created_at)`, row); err != nil {
		return storageErr("insert invoice", err)
	}

	for i, item := range inv.Items {
		itemRow := invoiceItemRow{
			InvoiceID:      inv.ID,
			Position:       i,
			StockID:        item.StockID,
			Name:           item.Name,
			Packaging:      item.Packaging,
			CartonsOrdered: item.CartonsOrdered,
			PacksPerCarton: item.PacksPerCarton,
			PackPrice:      item.PackPrice,
			Total:          item.Total,
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO invoice_items (invoice_id, position, stock_id, name,
                packaging, cartons_ordered, packs_per_carton, pack_price, total)
                VALUES (:invoice_id, :position, :stock_id, :name, :packaging, :cartons_ordered, :packs_per_carton,
                :pack_price, :total)`, itemRow); err != nil {
			return storageErr("insert invoice item", err)
		}
	}
	return nil
}

// Get loads one invoice by id or invoice number.
func (s *InvoiceStore) Get(ctx context.Context, ref string) (domain.Invoice, error) {
	var row invoiceRow
	err := s.db.GetContext(ctx, &row, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ? OR invoice_number = ?`, ref, ref)
	if err != nil {
		return domain.Invoice{}, notFoundOr("get invoice", err)
	}
	invoices := []domain.Invoice{row.invoice()}
	if err := s.attachItems(ctx, invoices); err != nil {
		return domain.Invoice{}, err
	}
	return invoices[0], nil
}

// List returns invoices with items, newest first.
func (s *InvoiceStore) List(ctx context.Context, f InvoiceFilter) ([]domain.Invoice, error) {
	var (
		clauses []string
		args    []any
	)
	if f.Phone != "" {
		clauses = append(clauses, "customer_phone = ?")
		args = append(args, f.Phone)
	}
	if f.Status != "" {
		clauses = append(clauses, "payment_status = ?")
		args = append(args, string(f.Status))
	}
	if f.Method != "" {
		clauses = append(clauses, "payment_method = ?")
		args = append(args, string(f.Method))
	}
	if !f.From.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, toUnix(f.From))
	}
	if !f.To.IsZero() {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, toUnix(f.To))
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, seq DESC"

	var rows []invoiceRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storageErr("list invoices", err)
	}
	invoices := make([]domain.Invoice, len(rows))
	for i, r := range rows {
		invoices[i] = r.invoice()
	}
	if err := s.attachItems(ctx, invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

// Headers returns invoices without items in creation order, oldest first.
// An empty phone returns every customer's invoices.
func (s *InvoiceStore) Headers(ctx context.Context, phone string) ([]domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	var args []any
	if phone != "" {
		query += ` WHERE customer_phone = ?`
		args = append(args, phone)
	}
	query += ` ORDER BY created_at ASC, seq ASC`

	var rows []invoiceRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storageErr("list invoice headers", err)
	}
	invoices := make([]domain.Invoice, len(rows))
	for i, r := range rows {
		invoices[i] = r.invoice()
	}
	return invoices, nil
}

func (s *InvoiceStore) attachItems(ctx context.Context, invoices []domain.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}
	ids := make([]string, len(invoices))
	index := make(map[string]int, len(invoices))
	for i, inv := range invoices {
		ids[i] = inv.ID
		index[inv.ID] = i
	}

	query, args, err := sqlx.In(`SELECT invoice_id, position, stock_id, name, packaging, cartons_ordered,
                packs_per_carton, pack_price, total
                FROM invoice_items
                WHERE invoice_id IN (?)
                ORDER BY invoice_id, position`, ids)
	if err != nil {
		return storageErr("prepare invoice items query", err)
	}
	query = s.db.Rebind(query)

	var rows []invoiceItemRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return storageErr("load invoice items", err)
	}
	for _, r := range rows {
		i := index[r.InvoiceID]
		invoices[i].Items = append(invoices[i].Items, domain.InvoiceItem{
			StockID:        r.StockID,
			Name:           r.Name,
			Packaging:      r.Packaging,
			CartonsOrdered: r.CartonsOrdered,
			PacksPerCarton: r.PacksPerCarton,
			PackPrice:      r.PackPrice,
			Total:          r.Total,
		})
	}
	return nil
}

// UpdatePaymentStatuses writes the given statuses in one transaction. Money
// columns are never touched.
func (s *InvoiceStore) UpdatePaymentStatuses(ctx context.Context, statuses map[string]domain.PaymentStatus) error {
	if len(statuses) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr("begin payment status update", err)
	}
	defer tx.Rollback()

	for id, status := range statuses {
		if _, err := tx.ExecContext(ctx, `UPDATE invoices SET payment_status = ? WHERE id = ?`, string(status), id); err != nil {
			return storageErr("update payment status", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit payment status update", err)
	}
	return nil
}

// FindByIdempotencyKey returns the invoice created under key, if any.
func (s *InvoiceStore) FindByIdempotencyKey(ctx context.Context, key string) (domain.Invoice, bool, error) {
	var invoiceID string
	err := s.db.GetContext(ctx, &invoiceID, `SELECT invoice_id FROM idempotency_keys WHERE idem_key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Invoice{}, false, nil
	}
	if err != nil {
		return domain.Invoice{}, false, storageErr("find idempotency key", err)
	}
	inv, err := s.Get(ctx, invoiceID)
	if err != nil {
		return domain.Invoice{}, false, err
	}
	return inv, true, nil
}

// SaveIdempotencyKey records key inside tx. A key that already exists fails
// with an error matching ErrDuplicate.
func (s *InvoiceStore) SaveIdempotencyKey(ctx context.Context, tx *sqlx.Tx, key, invoiceID string, at time.Time) error {
	if _, err := tx.ExecContext(ctx, `INSERT INTO idempotency_keys (idem_key, invoice_id, created_at) VALUES (?, ?, ?)`,
		key, invoiceID, toUnix(at)); err != nil {
		return storageErr("save idempotency key", err)
	}
	return nil
}

type saleLineRow struct {
	StockID        string          `db:"stock_id"`
	Name           string          `db:"name"`
	InvoiceNumber  string          `db:"invoice_number"`
	CustomerName   string          `db:"customer_name"`
	CustomerPhone  string          `db:"customer_phone"`
	CartonsOrdered int64           `db:"cartons_ordered"`
	PacksPerCarton int64           `db:"packs_per_carton"`
	PackPrice      decimal.Decimal `db:"pack_price"`
	Total          decimal.Decimal `db:"total"`
	CreatedAt      int64           `db:"created_at"`
}

// SaleLines returns invoice items joined with their invoice, oldest first.
// An empty stockID returns lines for every product.
func (s *InvoiceStore) SaleLines(ctx context.Context, stockID string) ([]domain.SaleLine, error) {
	query := `SELECT ii.stock_id, ii.name, i.invoice_number, i.customer_name, i.customer_phone,
                ii.cartons_ordered, ii.packs_per_carton, ii.pack_price, ii.total, i.created_at
                FROM invoice_items ii
                JOIN invoices i ON i.id = ii.invoice_id`
	var args []any
	if stockID != "" {
		query += ` WHERE ii.stock_id = ?`
		args = append(args, stockID)
	}
	query += ` ORDER BY i.created_at ASC, i.seq ASC, ii.position ASC`

	var rows []saleLineRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storageErr("list sale lines", err)
	}
	lines := make([]domain.SaleLine, len(rows))
	for i, r := range rows {
		lines[i] = domain.SaleLine{
			StockID:        r.StockID,
			Name:           r.Name,
			InvoiceNumber:  r.InvoiceNumber,
			CustomerName:   r.CustomerName,
			CustomerPhone:  r.CustomerPhone,
			CartonsOrdered: r.CartonsOrdered,
			PacksPerCarton: r.PacksPerCarton,
			PackPrice:      r.PackPrice,
			Total:          r.Total,
			SoldAt:         fromUnix(r.CreatedAt),
		}
	}
	return lines, nil
}
