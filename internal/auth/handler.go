package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/jewelms/jewelms/internal/platform/httpx"
	"github.com/jewelms/jewelms/internal/shared"
)

// Handler wires HTTP endpoints for authentication and account admin.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	sessions *shared.SessionManager
	validate *validator.Validate
	guard    Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, guard Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		sessions: sessions,
		validate: validator.New(),
		guard:    guard,
	}
}

// MountRoutes registers auth and user-admin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/auth/login", h.login)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(RoleAdmin, RoleManager, RoleStaff))
		r.Post("/auth/logout", h.logout)
		r.Get("/auth/me", h.me)
		r.Post("/auth/verify-pin", h.verifyPIN)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(RoleAdmin))
		r.Post("/users", h.createUser)
		r.Get("/users", h.listUsers)
		r.Get("/users/{id}", h.getUser)
		r.Patch("/users/{id}", h.updateUser)
		r.Put("/users/{id}/password", h.changePassword)
	})
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func userResponseFrom(u User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Invalid("body", "malformed JSON payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	token, err := h.sessions.Create(r.Context(), shared.Session{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
	})
	if err != nil {
		h.logger.Error("create session", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("login", slog.String("user_id", user.ID))
	httpx.JSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  userResponseFrom(*user),
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.sessions.Destroy(r.Context(), sess.Token); err != nil {
			h.logger.Warn("destroy session", slog.Any("error", err))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	user, err := h.service.GetUser(r.Context(), sess.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, userResponseFrom(*user))
}

type pinRequest struct {
	PIN string `json:"pin" validate:"required"`
}

func (h *Handler) verifyPIN(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Invalid("body", "malformed JSON payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.VerifyBillingPIN(r.Context(), req.PIN); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"valid": true})
}

type createUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Invalid("body", "malformed JSON payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.CreateUser(r.Context(), CreateUserInput(req))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, userResponseFrom(*user))
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponseFrom(u))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, userResponseFrom(*user))
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Invalid("body", "malformed JSON payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.UpdateUser(r.Context(), chi.URLParam(r, "id"), UpdateUserInput(req))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, userResponseFrom(*user))
}

type changePasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Invalid("body", "malformed JSON payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.ChangePassword(r.Context(), chi.URLParam(r, "id"), req.Password); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
