package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "Cash"
	PaymentCard       PaymentMethod = "Card"
	PaymentUPI        PaymentMethod = "UPI"
	PaymentNetBanking PaymentMethod = "Net Banking"
)

var PaymentMethods = []PaymentMethod{PaymentCash, PaymentCard, PaymentUPI, PaymentNetBanking}

func (m PaymentMethod) Valid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "Paid"
	PaymentPending PaymentStatus = "Pending"
	PaymentPartial PaymentStatus = "Partial"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPaid, PaymentPending, PaymentPartial:
		return true
	}
	return false
}

type InvoiceItem struct {
	StockID        string          `json:"stockId"`
	Name           string          `json:"name"`
	Packaging      string          `json:"packaging"`
	CartonsOrdered int64           `json:"cartonsOrdered"`
	PacksPerCarton int64           `json:"packsPerCarton"`
	PackPrice      decimal.Decimal `json:"packPrice"`
	Total          decimal.Decimal `json:"total"`
}

// Invoice is an append-only billing fact. Only PaymentStatus changes after
// creation.
type Invoice struct {
	ID              string          `json:"_id"`
	InvoiceNumber   string          `json:"invoiceNumber"`
	CustomerName    string          `json:"customerName"`
	CustomerPhone   string          `json:"customerPhone"`
	CustomerAddress string          `json:"customerAddress,omitempty"`
	Items           []InvoiceItem   `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	GST             decimal.Decimal `json:"gst"`
	Discount        decimal.Decimal `json:"discount"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// SaleLine is one invoice item joined with its invoice header, the unit of
// per-product sales reporting.
type SaleLine struct {
	StockID        string
	Name           string
	InvoiceNumber  string
	CustomerName   string
	CustomerPhone  string
	CartonsOrdered int64
	PacksPerCarton int64
	PackPrice      decimal.Decimal
	Total          decimal.Decimal
	SoldAt         time.Time
}
