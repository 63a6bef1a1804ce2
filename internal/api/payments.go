package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"medstock/m/internal/ledger"
)

// Payment and ledger handlers

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var in ledger.PaymentInput
	if err := decodeJSON(r, &in); err != nil {
		h.badJSON(w, err)
		return
	}
	payment, err := h.ledger.RecordPayment(r.Context(), in)
	if err != nil {
		h.respondErr(w, r, "recordPayment", err)
		return
	}
	respondData(w, http.StatusCreated, payment)
}

func (h *Handler) customerLedger(w http.ResponseWriter, r *http.Request) {
	l, err := h.ledger.BuildLedger(r.Context(), chi.URLParam(r, "phone"))
	if err != nil {
		h.respondErr(w, r, "customerLedger", err)
		return
	}
	respondData(w, http.StatusOK, l)
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.ledger.Customers(r.Context(), strings.TrimSpace(r.URL.Query().Get("search")))
	if err != nil {
		h.respondErr(w, r, "listCustomers", err)
		return
	}
	respondData(w, http.StatusOK, customers)
}
