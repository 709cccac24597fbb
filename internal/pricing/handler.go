package pricing

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/jewelms/jewelms/internal/auth"
	"github.com/jewelms/jewelms/internal/platform/httpx"
	"github.com/jewelms/jewelms/internal/shared"
)

// Handler exposes metal rate endpoints.
type Handler struct {
	logger *slog.Logger
	rates  *RateStore
	guard  auth.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, rates *RateStore, guard auth.Middleware) *Handler {
	return &Handler{logger: logger, rates: rates, guard: guard}
}

// MountRoutes registers pricing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin, auth.RoleManager, auth.RoleStaff))
		r.Get("/metal-rates/latest", h.latest)
		r.Get("/metal-rates/{metal}", h.history)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin, auth.RoleManager))
		r.Post("/metal-rates", h.publish)
	})
}

type rateResponse struct {
	ID            string          `json:"id"`
	MetalType     string          `json:"metal_type"`
	Purity        decimal.Decimal `json:"purity"`
	RatePerGram   decimal.Decimal `json:"rate_per_gram"`
	EffectiveDate string          `json:"effective_date"`
	CreatedAt     time.Time       `json:"created_at"`
}

func rateResponseFrom(rate MetalRate) rateResponse {
	return rateResponse{
		ID:            rate.ID,
		MetalType:     rate.MetalType,
		Purity:        rate.Purity,
		RatePerGram:   rate.RatePerGram,
		EffectiveDate: rate.EffectiveDate.Format("2006-01-02"),
		CreatedAt:     rate.CreatedAt,
	}
}

type publishRequest struct {
	MetalType     string          `json:"metal_type"`
	Purity        decimal.Decimal `json:"purity"`
	RatePerGram   decimal.Decimal `json:"rate_per_gram"`
	EffectiveDate string          `json:"effective_date"`
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Invalid("body", "malformed JSON payload"))
		return
	}
	date := time.Now().UTC()
	if req.EffectiveDate != "" {
		parsed, err := time.Parse("2006-01-02", req.EffectiveDate)
		if err != nil {
			httpx.RespondError(w, shared.Invalid("effective_date", "expected YYYY-MM-DD"))
			return
		}
		date = parsed
	}
	rate := &MetalRate{
		MetalType:     req.MetalType,
		Purity:        req.Purity,
		RatePerGram:   req.RatePerGram,
		EffectiveDate: date,
		CreatedBy:     shared.ActorID(r.Context()),
	}
	if err := h.rates.Publish(r.Context(), rate); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("metal rate published",
		slog.String("metal", rate.MetalType),
		slog.String("rate", rate.RatePerGram.String()))
	httpx.JSON(w, http.StatusCreated, rateResponseFrom(*rate))
}

func (h *Handler) latest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	metal := q.Get("metal")
	if metal == "" {
		httpx.RespondError(w, shared.Invalid("metal", "metal type required"))
		return
	}
	purity, err := decimal.NewFromString(q.Get("purity"))
	if err != nil {
		httpx.RespondError(w, shared.Invalid("purity", "numeric caratage required"))
		return
	}
	rate, err := h.rates.Latest(r.Context(), metal, purity, time.Now().UTC())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rateResponseFrom(*rate))
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rates, err := h.rates.History(r.Context(), chi.URLParam(r, "metal"), limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]rateResponse, 0, len(rates))
	for _, rate := range rates {
		out = append(out, rateResponseFrom(rate))
	}
	httpx.JSON(w, http.StatusOK, out)
}
