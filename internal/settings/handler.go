package settings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/jewelms/jewelms/internal/auth"
	"github.com/jewelms/jewelms/internal/platform/httpx"
	"github.com/jewelms/jewelms/internal/shared"
)

// Handler exposes the settings admin API.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   auth.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, guard auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers settings routes. Admin only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin))
		r.Get("/settings", h.list)
		r.Put("/settings/{key}", h.set)
		r.Put("/settings/billing-pin", h.setBillingPIN)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.All(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	// the PIN hash never leaves the server
	delete(all, KeyBillingPINHash)
	httpx.JSON(w, http.StatusOK, all)
}

type setRequest struct {
	Value string `json:"value"`
}

func (h *Handler) set(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var req setRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Invalid("body", "malformed JSON payload"))
		return
	}
	if key == KeyBillingPINHash {
		httpx.RespondError(w, shared.Invalid("key", "use the billing-pin endpoint"))
		return
	}
	if err := Validate(key, req.Value); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Set(r.Context(), key, req.Value); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("setting updated", slog.String("key", key))
	w.WriteHeader(http.StatusNoContent)
}

type pinRequest struct {
	PIN string `json:"pin"`
}

func (h *Handler) setBillingPIN(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Invalid("body", "malformed JSON payload"))
		return
	}
	if len(req.PIN) < 4 || len(req.PIN) > 12 {
		httpx.RespondError(w, shared.Invalid("pin", "must be 4-12 characters"))
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Set(r.Context(), KeyBillingPINHash, string(hash)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
