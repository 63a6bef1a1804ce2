package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"medstock/m/domain"
	"medstock/m/internal/billing"
	"medstock/m/internal/store"
	"medstock/m/internal/validation"
)

const idempotencyHeader = "Idempotency-Key"

// Billing handlers

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req billing.InvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badJSON(w, err)
		return
	}
	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	invoice, err := h.billing.Submit(r.Context(), req, key)
	if err != nil {
		h.respondErr(w, r, "createInvoice", err)
		return
	}
	respondData(w, http.StatusCreated, invoice)
}

func (h *Handler) quoteInvoice(w http.ResponseWriter, r *http.Request) {
	var req billing.QuoteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badJSON(w, err)
		return
	}
	totals, err := h.billing.Price(r.Context(), req)
	if err != nil {
		h.respondErr(w, r, "quoteInvoice", err)
		return
	}
	respondData(w, http.StatusOK, totals)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	filter, verr := invoiceFilter(r)
	if verr != nil {
		h.respondErr(w, r, "listInvoices", verr)
		return
	}
	invoices, err := h.invoices.List(r.Context(), filter)
	if err != nil {
		h.respondErr(w, r, "listInvoices", err)
		return
	}
	respondData(w, http.StatusOK, invoices)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	invoice, err := h.invoices.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, r, "getInvoice", err)
		return
	}
	respondData(w, http.StatusOK, invoice)
}

func invoiceFilter(r *http.Request) (store.InvoiceFilter, error) {
	q := r.URL.Query()
	verr := &domain.ValidationError{}
	var f store.InvoiceFilter

	if raw := q.Get("phone"); strings.TrimSpace(raw) != "" {
		phone, err := validation.Phone(raw)
		if err != nil {
			verr.Add("phone", err.Error())
		}
		f.Phone = phone
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		f.Status = domain.PaymentStatus(raw)
		if !f.Status.Valid() {
			verr.Add("status", "must be one of Paid, Partial, Pending")
		}
	}
	if raw := strings.TrimSpace(q.Get("method")); raw != "" {
		f.Method = domain.PaymentMethod(raw)
		if !f.Method.Valid() {
			verr.Add("method", "must be one of Cash, Card, UPI, Net Banking")
		}
	}
	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		from, _, err := parseBound(raw)
		if err != nil {
			verr.Add("from", "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
		}
		f.From = from
	}
	if raw := strings.TrimSpace(q.Get("to")); raw != "" {
		to, dateOnly, err := parseBound(raw)
		if err != nil {
			verr.Add("to", "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
		}
		// A bare date covers the whole day.
		if dateOnly {
			to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		f.To = to
	}
	return f, verr.OrNil()
}

func parseBound(raw string) (time.Time, bool, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), true, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	return t.UTC(), false, err
}

// Product sales reporting

func (h *Handler) productSalesSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.advisor.ProductSummary(r.Context())
	if err != nil {
		h.respondErr(w, r, "productSalesSummary", err)
		return
	}
	respondData(w, http.StatusOK, summary)
}

func (h *Handler) productHistory(w http.ResponseWriter, r *http.Request) {
	rows, err := h.advisor.ProductHistory(r.Context(), chi.URLParam(r, "stockId"))
	if err != nil {
		h.respondErr(w, r, "productHistory", err)
		return
	}
	respondData(w, http.StatusOK, rows)
}

func (h *Handler) reorderSuggestions(w http.ResponseWriter, r *http.Request) {
	days, ok := intParam(w, r, "days", h.windowDays)
	if !ok {
		return
	}
	suggestions, err := h.advisor.Suggestions(r.Context(), days)
	if err != nil {
		h.respondErr(w, r, "reorderSuggestions", err)
		return
	}
	respondData(w, http.StatusOK, suggestions)
}
