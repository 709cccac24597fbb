package oldgold

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/jewelms/jewelms/internal/auth"
	"github.com/jewelms/jewelms/internal/platform/httpx"
	"github.com/jewelms/jewelms/internal/shared"
)

// Handler wires old-gold exchange HTTP endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	guard    auth.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, guard auth.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		guard:    guard,
	}
}

// MountRoutes registers old-gold routes. Buybacks happen at the POS
// counter, so staff may record them; edits need a manager.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin, auth.RoleManager, auth.RoleStaff))
		r.Post("/old-gold", h.create)
		r.Get("/old-gold", h.list)
		r.Get("/old-gold/{id}", h.get)
		r.Post("/old-gold/calculate", h.calculate)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin, auth.RoleManager))
		r.Patch("/old-gold/{id}", h.update)
	})
}

type createRequest struct {
	CustomerID  string          `json:"customer_id" validate:"omitempty,uuid"`
	InvoiceID   string          `json:"invoice_id" validate:"omitempty,uuid"`
	MetalType   string          `json:"metal_type"`
	Purity      decimal.Decimal `json:"purity"`
	WeightGrams decimal.Decimal `json:"weight_grams"`
	RatePerGram decimal.Decimal `json:"rate_per_gram"`
	Notes       string          `json:"notes"`
}

type updateRequest struct {
	InvoiceID   *string          `json:"invoice_id"`
	Purity      *decimal.Decimal `json:"purity"`
	WeightGrams *decimal.Decimal `json:"weight_grams"`
	RatePerGram *decimal.Decimal `json:"rate_per_gram"`
	Status      *string          `json:"status"`
	Notes       *string          `json:"notes"`
}

type calculateRequest struct {
	Purity      decimal.Decimal `json:"purity"`
	WeightGrams decimal.Decimal `json:"weight_grams"`
	RatePerGram decimal.Decimal `json:"rate_per_gram"`
}

type transactionResponse struct {
	ID            string          `json:"id"`
	CustomerID    string          `json:"customer_id,omitempty"`
	CustomerName  string          `json:"customer_name,omitempty"`
	CustomerPhone string          `json:"customer_phone,omitempty"`
	InvoiceID     string          `json:"invoice_id,omitempty"`
	MetalType     string          `json:"metal_type"`
	Purity        decimal.Decimal `json:"purity"`
	WeightGrams   decimal.Decimal `json:"weight_grams"`
	RatePerGram   decimal.Decimal `json:"rate_per_gram"`
	ExchangeValue string          `json:"exchange_value"`
	Status        string          `json:"status"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func transactionResponseFrom(tx Transaction) transactionResponse {
	return transactionResponse{
		ID:            tx.ID,
		CustomerID:    tx.CustomerID,
		CustomerName:  tx.CustomerName,
		CustomerPhone: tx.CustomerPhone,
		InvoiceID:     tx.InvoiceID,
		MetalType:     tx.MetalType,
		Purity:        tx.Purity,
		WeightGrams:   tx.WeightGrams,
		RatePerGram:   tx.RatePerGram,
		ExchangeValue: tx.ExchangeValue.Round(2).StringFixed(2),
		Status:        string(tx.Status),
		Notes:         tx.Notes,
		CreatedAt:     tx.CreatedAt,
		UpdatedAt:     tx.UpdatedAt,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Invalid("body", "malformed JSON payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	tx, err := h.service.Create(r.Context(), CreateInput{
		CustomerID:  req.CustomerID,
		InvoiceID:   req.InvoiceID,
		MetalType:   req.MetalType,
		Purity:      req.Purity,
		WeightGrams: req.WeightGrams,
		RatePerGram: req.RatePerGram,
		Notes:       req.Notes,
		ActorID:     shared.ActorID(r.Context()),
		ActorIP:     r.RemoteAddr,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("old gold received",
		slog.String("id", tx.ID),
		slog.String("exchange_value", tx.ExchangeValue.StringFixed(2)))
	httpx.JSON(w, http.StatusCreated, transactionResponseFrom(*tx))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	tx, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, transactionResponseFrom(*tx))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	txs, total, err := h.service.List(r.Context(), ListRequest{
		CustomerID: q.Get("customer_id"),
		Limit:      limit,
		Offset:     (page - 1) * limit,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionResponseFrom(tx))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transactions": out, "total": total})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Invalid("body", "malformed JSON payload"))
		return
	}
	upd := Update{
		InvoiceID:   req.InvoiceID,
		Purity:      req.Purity,
		WeightGrams: req.WeightGrams,
		RatePerGram: req.RatePerGram,
		Notes:       req.Notes,
	}
	if req.Status != nil {
		status := ExchangeStatus(*req.Status)
		upd.Status = &status
	}
	tx, err := h.service.UpdateTransaction(r.Context(), chi.URLParam(r, "id"), upd,
		shared.ActorID(r.Context()), r.RemoteAddr)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, transactionResponseFrom(*tx))
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Invalid("body", "malformed JSON payload"))
		return
	}
	value, err := ExchangeValue(req.WeightGrams, req.Purity, req.RatePerGram)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{
		"exchange_value": value.Round(2).StringFixed(2),
	})
}
