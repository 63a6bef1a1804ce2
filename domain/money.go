package domain

import "github.com/shopspring/decimal"

func init() {
	// Collaborators read amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// RoundMoney rounds a currency amount to paise using round-half-to-even.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}
