package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryInvoice EntryType = "Invoice"
	EntryPayment EntryType = "Payment"
)

type LedgerEntry struct {
	Date        time.Time       `json:"date"`
	Type        EntryType       `json:"type"`
	Reference   string          `json:"reference"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

type Ledger struct {
	CustomerPhone  string          `json:"customerPhone"`
	CustomerName   string          `json:"customerName"`
	TotalBilled    decimal.Decimal `json:"totalBilled"`
	TotalPaid      decimal.Decimal `json:"totalPaid"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	History        []LedgerEntry   `json:"history"`
}

// Customer is the directory view of one phone key.
type Customer struct {
	Phone        string          `json:"phone"`
	Name         string          `json:"name"`
	TotalBilled  decimal.Decimal `json:"totalBilled"`
	TotalPaid    decimal.Decimal `json:"totalPaid"`
	Balance      decimal.Decimal `json:"balance"`
	InvoiceCount int             `json:"invoiceCount"`
	PaymentCount int             `json:"paymentCount"`
	LastActivity time.Time       `json:"lastActivity"`
}
