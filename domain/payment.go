package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Payment struct {
	ID            string          `json:"_id"`
	CustomerPhone string          `json:"customerPhone"`
	CustomerName  string          `json:"customerName"`
	AmountPaid    decimal.Decimal `json:"amountPaid"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Note          string          `json:"note,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}
