// Package ledger projects a customer's invoices and payments into a running
// balance. Nothing here is stored; every read recomputes from the facts.
package ledger

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"medstock/m/domain"
)

// Merge orders invoices and payments into ledger entries and computes the
// running balance. Both inputs must be in creation order. Entries are sorted
// by time; on equal timestamps invoices precede payments and entries of one
// type keep their input order.
func Merge(invoices []domain.Invoice, payments []domain.Payment) []domain.LedgerEntry {
	entries := make([]domain.LedgerEntry, 0, len(invoices)+len(payments))
	for _, inv := range invoices {
		entries = append(entries, domain.LedgerEntry{
			Date:        inv.CreatedAt,
			Type:        domain.EntryInvoice,
			Reference:   inv.InvoiceNumber,
			Description: "Invoice " + inv.InvoiceNumber,
			Debit:       inv.TotalAmount,
			Credit:      decimal.Zero,
		})
	}
	for _, p := range payments {
		desc := "Payment via " + string(p.PaymentMethod)
		if p.Note != "" {
			desc += " (" + p.Note + ")"
		}
		entries = append(entries, domain.LedgerEntry{
			Date:        p.CreatedAt,
			Type:        domain.EntryPayment,
			Reference:   p.ID,
			Description: desc,
			Debit:       decimal.Zero,
			Credit:      p.AmountPaid,
		})
	}

	slices.SortStableFunc(entries, func(a, b domain.LedgerEntry) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return typeRank(a.Type) - typeRank(b.Type)
	})

	balance := decimal.Zero
	for i := range entries {
		balance = balance.Add(entries[i].Debit).Sub(entries[i].Credit)
		entries[i].Balance = balance
	}
	return entries
}

func typeRank(t domain.EntryType) int {
	if t == domain.EntryInvoice {
		return 0
	}
	return 1
}

// Build assembles the ledger for one phone key from its facts.
func Build(phone string, invoices []domain.Invoice, payments []domain.Payment) domain.Ledger {
	history := Merge(invoices, payments)
	l := domain.Ledger{
		CustomerPhone:  phone,
		CustomerName:   customerName(invoices, payments),
		TotalBilled:    decimal.Zero,
		TotalPaid:      decimal.Zero,
		CurrentBalance: decimal.Zero,
		History:        history,
	}
	for _, e := range history {
		l.TotalBilled = l.TotalBilled.Add(e.Debit)
		l.TotalPaid = l.TotalPaid.Add(e.Credit)
	}
	if n := len(history); n > 0 {
		l.CurrentBalance = history[n-1].Balance
	}
	return l
}

// customerName prefers the most recent invoice's name and falls back to the
// most recent payment's.
func customerName(invoices []domain.Invoice, payments []domain.Payment) string {
	var (
		name string
		at   time.Time
	)
	for i, inv := range invoices {
		if i == 0 || !inv.CreatedAt.Before(at) {
			name, at = inv.CustomerName, inv.CreatedAt
		}
	}
	if len(invoices) > 0 {
		return name
	}
	for i, p := range payments {
		if i == 0 || !p.CreatedAt.Before(at) {
			name, at = p.CustomerName, p.CreatedAt
		}
	}
	return name
}

// PaymentStatuses allocates paid against invoices oldest first. Fully
// covered invoices are Paid, the one the money runs out on is Partial and
// the rest stay Pending. Invoices must be in creation order.
func PaymentStatuses(invoices []domain.Invoice, paid decimal.Decimal) map[string]domain.PaymentStatus {
	ordered := slices.Clone(invoices)
	slices.SortStableFunc(ordered, func(a, b domain.Invoice) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	statuses := make(map[string]domain.PaymentStatus, len(ordered))
	remaining := paid
	for _, inv := range ordered {
		switch {
		case remaining.GreaterThanOrEqual(inv.TotalAmount):
			statuses[inv.ID] = domain.PaymentPaid
			remaining = remaining.Sub(inv.TotalAmount)
		case remaining.IsPositive():
			statuses[inv.ID] = domain.PaymentPartial
			remaining = decimal.Zero
		default:
			statuses[inv.ID] = domain.PaymentPending
		}
	}
	return statuses
}
