package inventory

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/jewelms/jewelms/internal/auth"
	"github.com/jewelms/jewelms/internal/platform/httpx"
	"github.com/jewelms/jewelms/internal/shared"
)

// Handler wires inventory HTTP endpoints.
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

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin, auth.RoleManager, auth.RoleStaff))
		r.Get("/inventory/transactions", h.list)
		r.Get("/inventory/low-stock", h.lowStock)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin, auth.RoleManager))
		r.Post("/inventory/adjustments", h.adjust)
		r.Get("/inventory/integrity", h.integrity)
	})
}

type adjustRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Delta     int64  `json:"delta"`
	Reason    string `json:"reason" validate:"required"`
}

type transactionResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id,omitempty"`
	ProductName   string    `json:"product_name,omitempty"`
	Type          string    `json:"type"`
	Quantity      int64     `json:"quantity"`
	ReferenceID   string    `json:"reference_id,omitempty"`
	ReferenceType string    `json:"reference_type,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedBy     string    `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func transactionResponseFrom(t Transaction) transactionResponse {
	return transactionResponse{
		ID: t.ID, ProductID: t.ProductID, ProductName: t.ProductName,
		Type: t.Type, Quantity: t.Quantity,
		ReferenceID: t.ReferenceID, ReferenceType: t.ReferenceType,
		Notes: t.Notes, CreatedBy: t.CreatedBy, CreatedAt: t.CreatedAt,
	}
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Invalid("body", "malformed JSON payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	t, err := h.service.Adjust(r.Context(), AdjustInput{
		ProductID: req.ProductID,
		Delta:     req.Delta,
		Reason:    req.Reason,
		ActorID:   shared.ActorID(r.Context()),
		ActorIP:   r.RemoteAddr,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("stock adjusted",
		slog.String("product_id", req.ProductID),
		slog.Int64("delta", req.Delta))
	httpx.JSON(w, http.StatusCreated, transactionResponseFrom(*t))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	transactions, total, err := h.service.List(r.Context(), ListRequest{
		ProductID: q.Get("product_id"),
		Type:      q.Get("type"),
		Limit:     limit,
		Offset:    (page - 1) * limit,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, transactionResponseFrom(t))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transactions": out, "total": total})
}

func (h *Handler) integrity(w http.ResponseWriter, r *http.Request) {
	discrepancies, err := h.service.CheckIntegrity(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	type row struct {
		ProductID   string `json:"product_id"`
		ProductName string `json:"product_name"`
		LedgerSum   int64  `json:"ledger_sum"`
		StockQty    int64  `json:"stock_qty"`
	}
	out := make([]row, 0, len(discrepancies))
	for _, d := range discrepancies {
		out = append(out, row(d))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"consistent":    len(out) == 0,
		"discrepancies": out,
	})
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.LowStock(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	type row struct {
		ProductID   string `json:"product_id"`
		ProductName string `json:"product_name"`
		SKU         string `json:"sku,omitempty"`
		StockQty    int64  `json:"stock_qty"`
		MinStock    int64  `json:"min_stock"`
	}
	out := make([]row, 0, len(items))
	for _, item := range items {
		out = append(out, row(item))
	}
	httpx.JSON(w, http.StatusOK, out)
}
