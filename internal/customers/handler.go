package customers

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

// Handler wires customer HTTP endpoints.
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

// MountRoutes registers customer routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin, auth.RoleManager, auth.RoleStaff))
		r.Post("/customers", h.create)
		r.Get("/customers", h.search)
		r.Get("/customers/{id}", h.get)
		r.Put("/customers/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin, auth.RoleManager))
		r.Delete("/customers/{id}", h.delete)
	})
}

type customerRequest struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address"`
	GSTIN   string `json:"gstin"`
	Notes   string `json:"notes"`
}

type customerResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone,omitempty"`
	Email          string          `json:"email,omitempty"`
	Address        string          `json:"address,omitempty"`
	GSTIN          string          `json:"gstin,omitempty"`
	TotalPurchases decimal.Decimal `json:"total_purchases"`
	LoyaltyPoints  int64           `json:"loyalty_points"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func customerResponseFrom(c Customer) customerResponse {
	return customerResponse{
		ID: c.ID, Name: c.Name, Phone: c.Phone, Email: c.Email,
		Address: c.Address, GSTIN: c.GSTIN,
		TotalPurchases: c.TotalPurchases, LoyaltyPoints: c.LoyaltyPoints,
		Notes: c.Notes, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

func (h *Handler) decode(r *http.Request, req *customerRequest) error {
	if err := httpx.DecodeJSON(r, req); err != nil {
		return shared.Invalid("body", "malformed JSON payload")
	}
	return h.validate.Struct(req)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Create(r.Context(), Input(req), shared.ActorID(r.Context()), r.RemoteAddr)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("customer created", slog.String("id", c.ID))
	httpx.JSON(w, http.StatusCreated, customerResponseFrom(*c))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), Input(req),
		shared.ActorID(r.Context()), r.RemoteAddr)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, customerResponseFrom(*c))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, customerResponseFrom(*c))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), chi.URLParam(r, "id"),
		shared.ActorID(r.Context()), r.RemoteAddr)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	customers, total, err := h.service.Search(r.Context(), SearchRequest{
		Query:  q.Get("search"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]customerResponse, 0, len(customers))
	for _, c := range customers {
		out = append(out, customerResponseFrom(c))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"customers": out, "total": total})
}
