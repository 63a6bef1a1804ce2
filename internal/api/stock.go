package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"medstock/m/domain"
	"medstock/m/internal/inventory"
	"medstock/m/internal/store"
)

// Stock handlers

func (h *Handler) listStock(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := inventory.ListFilter{
		StockFilter: store.StockFilter{
			Category:  domain.Category(strings.TrimSpace(q.Get("category"))),
			Search:    strings.TrimSpace(q.Get("search")),
			Available: q.Get("available") == "true",
		},
		Status: domain.StockStatus(strings.TrimSpace(q.Get("status"))),
	}
	items, err := h.catalog.List(r.Context(), filter)
	if err != nil {
		h.respondErr(w, r, "listStock", err)
		return
	}
	respondData(w, http.StatusOK, items)
}

func (h *Handler) getStock(w http.ResponseWriter, r *http.Request) {
	item, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, r, "getStock", err)
		return
	}
	respondData(w, http.StatusOK, inventory.View(item, h.now()))
}

func (h *Handler) createStock(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, roleManager, roleAdmin) {
		return
	}
	var in inventory.StockInput
	if err := decodeJSON(r, &in); err != nil {
		h.badJSON(w, err)
		return
	}
	item, err := h.catalog.Create(r.Context(), in)
	if err != nil {
		h.respondErr(w, r, "createStock", err)
		return
	}
	respondData(w, http.StatusCreated, inventory.View(item, h.now()))
}

func (h *Handler) replaceStock(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, roleManager, roleAdmin) {
		return
	}
	var in inventory.StockInput
	if err := decodeJSON(r, &in); err != nil {
		h.badJSON(w, err)
		return
	}
	item, err := h.catalog.Replace(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.respondErr(w, r, "replaceStock", err)
		return
	}
	respondData(w, http.StatusOK, inventory.View(item, h.now()))
}

func (h *Handler) deleteStock(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, roleAdmin) {
		return
	}
	if err := h.catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondErr(w, r, "deleteStock", err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"id": chi.URLParam(r, "id")})
}

func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	days, ok := intParam(w, r, "days", h.alertDays)
	if !ok {
		return
	}
	alerts, err := h.catalog.Alerts(r.Context(), days)
	if err != nil {
		h.respondErr(w, r, "alerts", err)
		return
	}
	respondData(w, http.StatusOK, alerts)
}

// intParam reads a positive integer query parameter, falling back to def
// when absent.
func intParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		respondJSON(w, http.StatusBadRequest, errorBody{
			Message: domain.ErrValidation.Error(),
			Errors:  []domain.FieldError{{Field: name, Message: "must be a positive integer"}},
		})
		return 0, false
	}
	return n, true
}
