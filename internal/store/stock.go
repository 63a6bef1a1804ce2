package store

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"medstock/m/domain"
)

type StockFilter struct {
	Category domain.Category
	// Search matches name, manufacturer or batch number, case-insensitively.
	Search string
	// Available keeps only items with at least one carton on hand.
	Available bool
}

type stockRow struct {
	Seq               int64           `db:"seq"`
	ID                string          `db:"id"`
	Name              string          `db:"name"`
	Category          string          `db:"category"`
	Manufacturer      string          `db:"manufacturer"`
	BatchNumber       string          `db:"batch_number"`
	UnitsPerPack      int64           `db:"units_per_pack"`
	PacksPerCarton    int64           `db:"packs_per_carton"`
	QuantityInCartons int64           `db:"quantity_in_cartons"`
	PackCostPrice     decimal.Decimal `db:"pack_cost_price"`
	PackSellingPrice  decimal.Decimal `db:"pack_selling_price"`
	ManufacturingDate int64           `db:"manufacturing_date"`
	ExpiryDate        int64           `db:"expiry_date"`
	ReorderLevel      int64           `db:"reorder_level"`
	Location          string          `db:"location"`
	CreatedAt         int64           `db:"created_at"`
	UpdatedAt         int64           `db:"updated_at"`
}

const stockColumns = `seq, id, name, category, manufacturer, batch_number, units_per_pack, packs_per_carton,
                quantity_in_cartons, pack_cost_price, pack_selling_price, manufacturing_date, expiry_date,
                reorder_level, location, created_at, updated_at`

func (r stockRow) item() domain.StockItem {
	return domain.StockItem{
		ID:                r.ID,
		Name:              r.Name,
		Category:          domain.Category(r.Category),
		Manufacturer:      r.Manufacturer,
		BatchNumber:       r.BatchNumber,
		UnitsPerPack:      r.UnitsPerPack,
		PacksPerCarton:    r.PacksPerCarton,
		QuantityInCartons: r.QuantityInCartons,
		PackCostPrice:     r.PackCostPrice,
		PackSellingPrice:  r.PackSellingPrice,
		ManufacturingDate: fromUnix(r.ManufacturingDate),
		ExpiryDate:        fromUnix(r.ExpiryDate),
		ReorderLevel:      r.ReorderLevel,
		Location:          r.Location,
		CreatedAt:         fromUnix(r.CreatedAt),
		UpdatedAt:         fromUnix(r.UpdatedAt),
	}
}

func rowFromItem(s domain.StockItem) stockRow {
	return stockRow{
		ID:                s.ID,
		Name:              s.Name,
		Category:          string(s.Category),
		Manufacturer:      s.Manufacturer,
		BatchNumber:       s.BatchNumber,
		UnitsPerPack:      s.UnitsPerPack,
		PacksPerCarton:    s.PacksPerCarton,
		QuantityInCartons: s.QuantityInCartons,
		PackCostPrice:     s.PackCostPrice,
		PackSellingPrice:  s.PackSellingPrice,
		ManufacturingDate: toUnix(s.ManufacturingDate),
		ExpiryDate:        toUnix(s.ExpiryDate),
		ReorderLevel:      s.ReorderLevel,
		Location:          s.Location,
		CreatedAt:         toUnix(s.CreatedAt),
		UpdatedAt:         toUnix(s.UpdatedAt),
	}
}

// StockStore owns the stock_items table.
type StockStore struct {
	db *sqlx.DB
}

func NewStockStore(db *sqlx.DB) *StockStore {
	return &StockStore{db: db}
}

func (s *StockStore) List(ctx context.Context, f StockFilter) ([]domain.StockItem, error) {
	var (
		clauses []string
		args    []any
	)
	if f.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, string(f.Category))
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		clauses = append(clauses, "(LOWER(name) LIKE ? OR LOWER(manufacturer) LIKE ? OR LOWER(batch_number) LIKE ?)")
		args = append(args, like, like, like)
	}
	if f.Available {
		clauses = append(clauses, "quantity_in_cartons > 0")
	}

	query := `SELECT ` + stockColumns + ` FROM stock_items`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY name ASC, seq ASC"

	var rows []stockRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storageErr("list stock", err)
	}
	items := make([]domain.StockItem, len(rows))
	for i, r := range rows {
		items[i] = r.item()
	}
	return items, nil
}

func (s *StockStore) Get(ctx context.Context, id string) (domain.StockItem, error) {
	var row stockRow
	err := s.db.GetContext(ctx, &row, `SELECT `+stockColumns+` FROM stock_items WHERE id = ?`, id)
	if err != nil {
		return domain.StockItem{}, notFoundOr("get stock", err)
	}
	return row.item(), nil
}

func (s *StockStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM stock_items`); err != nil {
		return 0, storageErr("count stock", err)
	}
	return n, nil
}

const insertStock = `INSERT INTO stock_items (id, name, category, manufacturer, batch_number, units_per_pack,
                packs_per_carton, quantity_in_cartons, pack_cost_price, pack_selling_price, manufacturing_date,
                expiry_date, reorder_level, location, created_at, updated_at)
                VALUES (:id, :name, :category, :manufacturer, :batch_number, :units_per_pack, :packs_per_carton,
                :quantity_in_cartons, :pack_cost_price, :pack_selling_price, :manufacturing_date, :expiry_date,
                :reorder_level, :location, :created_at, :updated_at)`

// Create inserts item. The caller assigns the id and timestamps.
func (s *StockStore) Create(ctx context.Context, item domain.StockItem) error {
	return s.CreateWith(ctx, s.db, item)
}

// CreateWith inserts through ext, which may be a transaction.
func (s *StockStore) CreateWith(ctx context.Context, ext sqlx.ExtContext, item domain.StockItem) error {
	if _, err := sqlx.NamedExecContext(ctx, ext, insertStock, rowFromItem(item)); err != nil {
		return storageErr("insert stock", err)
	}
	return nil
}

// Replace overwrites every editable column of the item with the same id.
func (s *StockStore) Replace(ctx context.Context, item domain.StockItem) error {
	res, err := s.db.NamedExecContext(ctx, `UPDATE stock_items SET name = :name, category = :category,
                manufacturer = :manufacturer, batch_number = :batch_number, units_per_pack = :units_per_pack,
                packs_per_carton = :packs_per_carton, quantity_in_cartons = :quantity_in_cartons,
                pack_cost_price = :pack_cost_price, pack_selling_price = :pack_selling_price,
                manufacturing_date = :manufacturing_date, expiry_date = :expiry_date,
                reorder_level = :reorder_level, location = :location, updated_at = :updated_at
                WHERE id = :id`, rowFromItem(item))
	if err != nil {
		return storageErr("replace stock", err)
	}
	return requireOneRow("replace stock", res)
}

func (s *StockStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM stock_items WHERE id = ?`, id)
	if err != nil {
		return storageErr("delete stock", err)
	}
	return requireOneRow("delete stock", res)
}

// Decrement removes cartons from the item only if that many are on hand.
// It reports false when the guard condition did not match, leaving the row
// untouched.
func (s *StockStore) Decrement(ctx context.Context, ext sqlx.ExecerContext, id string, cartons int64, at int64) (bool, error) {
	res, err := ext.ExecContext(ctx, `UPDATE stock_items SET quantity_in_cartons = quantity_in_cartons - ?, updated_at = ?
                WHERE id = ? AND quantity_in_cartons >= ?`, cartons, at, id, cartons)
	if err != nil {
		return false, storageErr("decrement stock", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("decrement stock", err)
	}
	return n == 1, nil
}

// Quantity reads the current carton count and name of an item.
func (s *StockStore) Quantity(ctx context.Context, q sqlx.QueryerContext, id string) (int64, string, error) {
	var row struct {
		Name     string `db:"name"`
		Quantity int64  `db:"quantity_in_cartons"`
	}
	if err := sqlx.GetContext(ctx, q, &row, `SELECT name, quantity_in_cartons FROM stock_items WHERE id = ?`, id); err != nil {
		return 0, "", notFoundOr("read stock quantity", err)
	}
	return row.Quantity, row.Name, nil
}
