package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"medstock/m/domain"
	"medstock/m/internal/billing"
	"medstock/m/internal/config"
	"medstock/m/internal/inventory"
	"medstock/m/internal/ledger"
	"medstock/m/internal/reorder"
	"medstock/m/internal/store"
)

type ctxKey string

const (
	ctxUserID ctxKey = "userID"
	ctxRole   ctxKey = "role"
)

const (
	roleStaff   = "staff"
	roleManager = "manager"
	roleAdmin   = "admin"
)

// Dependencies are the services the HTTP layer delegates to.
type Dependencies struct {
	Catalog    *inventory.Catalog
	Billing    *billing.Calculator
	Invoices   *store.InvoiceStore
	Ledger     *ledger.Reconciler
	Advisor    *reorder.Advisor
	Logger     *logrus.Logger
	Secret     string
	AuthOff    bool
	AlertDays  int
	WindowDays int
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	catalog    *inventory.Catalog
	billing    *billing.Calculator
	invoices   *store.InvoiceStore
	ledger     *ledger.Reconciler
	advisor    *reorder.Advisor
	logger     *logrus.Logger
	secret     string
	authOff    bool
	alertDays  int
	windowDays int
	now        func() time.Time
}

// New constructs a Handler.
func New(deps Dependencies) *Handler {
	return &Handler{
		catalog:    deps.Catalog,
		billing:    deps.Billing,
		invoices:   deps.Invoices,
		ledger:     deps.Ledger,
		advisor:    deps.Advisor,
		logger:     deps.Logger,
		secret:     deps.Secret,
		authOff:    deps.AuthOff,
		alertDays:  deps.AlertDays,
		windowDays: deps.WindowDays,
		now:        time.Now,
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.authMiddleware)

		r.Route("/stock", func(r chi.Router) {
			r.Get("/", h.listStock)
			r.Post("/", h.createStock)
			r.Get("/{id}", h.getStock)
			r.Put("/{id}", h.replaceStock)
			r.Delete("/{id}", h.deleteStock)
		})

		r.Route("/billing", func(r chi.Router) {
			r.Post("/", h.createInvoice)
			r.Post("/quote", h.quoteInvoice)
			r.Get("/", h.listInvoices)
			r.Get("/product-sales/summary", h.productSalesSummary)
			r.Get("/product-history/{stockId}", h.productHistory)
			r.Get("/{id}", h.getInvoice)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", h.recordPayment)
			r.Get("/customers", h.listCustomers)
			r.Get("/customer/{phone}", h.customerLedger)
		})

		r.Get("/alerts", h.alerts)
		r.Get("/predictions/reorder-suggestions", h.reorderSuggestions)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Authentication helpers. Tokens are issued by the external auth service;
// this layer only verifies them.

type authClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.authOff {
			ctx := context.WithValue(r.Context(), ctxUserID, "local")
			ctx = context.WithValue(ctx, ctxRole, roleAdmin)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.secret), nil
		})
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		claims, ok := token.Claims.(*authClaims)
		if !ok {
			respondError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxRole, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) requireRole(w http.ResponseWriter, r *http.Request, allowed ...string) bool {
	role, _ := r.Context().Value(ctxRole).(string)
	if role == "" {
		respondError(w, http.StatusUnauthorized, "missing role")
		return false
	}
	for _, allowedRole := range allowed {
		if role == allowedRole {
			return true
		}
	}
	respondError(w, http.StatusForbidden, "insufficient permissions")
	return false
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.WithFields(logrus.Fields{
			"requestId": middleware.GetReqID(r.Context()),
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"bytes":     ww.BytesWritten(),
			"latency":   time.Since(start).String(),
		}).Info("request")
	})
}

// Helpers

type successBody struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorBody struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, successBody{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Message: message})
}

// respondErr maps core errors onto HTTP statuses.
func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, funcName string, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		respondJSON(w, http.StatusBadRequest, errorBody{Message: domain.ErrValidation.Error(), Errors: ve.Fields})
	case errors.Is(err, domain.ErrEmptyCart), errors.Is(err, domain.ErrInvalidDiscount):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrConcurrencyConflict):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		config.LogError(h.logger, "api", funcName, r.Method+" "+r.URL.Path, middleware.GetReqID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) badJSON(w http.ResponseWriter, err error) {
	respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
}
