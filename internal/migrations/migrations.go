package migrations

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Run creates the database schema required for the billing backend.
// Timestamps are unix nanoseconds; money columns hold decimal strings.
func Run(db *sqlx.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS stock_items (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            id TEXT NOT NULL UNIQUE,
            name TEXT NOT NULL,
            category TEXT NOT NULL,
            manufacturer TEXT NOT NULL,
            batch_number TEXT NOT NULL,
            units_per_pack INTEGER NOT NULL CHECK (units_per_pack >= 1),
            packs_per_carton INTEGER NOT NULL CHECK (packs_per_carton >= 1),
            quantity_in_cartons INTEGER NOT NULL CHECK (quantity_in_cartons >= 0),
            pack_cost_price TEXT NOT NULL,
            pack_selling_price TEXT NOT NULL,
            manufacturing_date INTEGER NOT NULL,
            expiry_date INTEGER NOT NULL,
            reorder_level INTEGER NOT NULL DEFAULT 2,
            location TEXT NOT NULL DEFAULT 'Main Storage',
            created_at INTEGER NOT NULL,
            updated_at INTEGER NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_stock_items_name ON stock_items(name);`,
		`CREATE TABLE IF NOT EXISTS invoices (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            id TEXT NOT NULL UNIQUE,
            invoice_number TEXT NOT NULL UNIQUE,
            customer_name TEXT NOT NULL,
            customer_phone TEXT NOT NULL,
            customer_address TEXT NOT NULL DEFAULT '',
            subtotal TEXT NOT NULL,
            gst TEXT NOT NULL,
            discount TEXT NOT NULL,
            total_amount TEXT NOT NULL,
            payment_method TEXT NOT NULL,
            payment_status TEXT NOT NULL,
            created_at INTEGER NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_phone ON invoices(customer_phone, created_at);`,
		`CREATE TABLE IF NOT EXISTS invoice_items (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            invoice_id TEXT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
            position INTEGER NOT NULL,
            stock_id TEXT NOT NULL,
            name TEXT NOT NULL,
            packaging TEXT NOT NULL,
            cartons_ordered INTEGER NOT NULL CHECK (cartons_ordered >= 1),
            packs_per_carton INTEGER NOT NULL,
            pack_price TEXT NOT NULL,
            total TEXT NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_invoice_items_stock ON invoice_items(stock_id);`,
		`CREATE INDEX IF NOT EXISTS idx_invoice_items_invoice ON invoice_items(invoice_id);`,
		`CREATE TABLE IF NOT EXISTS payments (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            id TEXT NOT NULL UNIQUE,
            customer_phone TEXT NOT NULL,
            customer_name TEXT NOT NULL,
            amount_paid TEXT NOT NULL,
            payment_method TEXT NOT NULL,
            note TEXT NOT NULL DEFAULT '',
            created_at INTEGER NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_payments_phone ON payments(customer_phone, created_at);`,
		`CREATE TABLE IF NOT EXISTS invoice_sequence (
            name TEXT PRIMARY KEY,
            value INTEGER NOT NULL
        );`,
		`INSERT OR IGNORE INTO invoice_sequence (name, value) VALUES ('invoice', 0);`,
		`CREATE TABLE IF NOT EXISTS idempotency_keys (
            idem_key TEXT PRIMARY KEY,
            invoice_id TEXT NOT NULL REFERENCES invoices(id),
            created_at INTEGER NOT NULL
        );`,
	}

	for i, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
