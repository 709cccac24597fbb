package production

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/jewelms/jewelms/internal/auth"
	"github.com/jewelms/jewelms/internal/platform/httpx"
	"github.com/jewelms/jewelms/internal/shared"
)

// Handler wires production HTTP endpoints.
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

// MountRoutes registers production routes. Manager and up.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin, auth.RoleManager))
		r.Post("/production/jobs", h.createJob)
		r.Get("/production/jobs", h.listJobs)
		r.Get("/production/jobs/{id}", h.getJob)
		r.Post("/production/jobs/{id}/start", h.startJob)
		r.Post("/production/jobs/{id}/complete", h.completeJob)
		r.Post("/production/jobs/{id}/cancel", h.cancelJob)
	})
}

type componentPayload struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
}

type createJobRequest struct {
	OutputProductID string             `json:"output_product_id" validate:"required,uuid"`
	OutputQty       int64              `json:"output_qty" validate:"required,gt=0"`
	Notes           string             `json:"notes"`
	Components      []componentPayload `json:"components" validate:"required,min=1,dive"`
}

type componentResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id,omitempty"`
	ProductName string `json:"product_name,omitempty"`
	Quantity    int64  `json:"quantity"`
}

type jobResponse struct {
	ID              string              `json:"id"`
	JobNumber       string              `json:"job_number"`
	OutputProductID string              `json:"output_product_id,omitempty"`
	OutputName      string              `json:"output_name,omitempty"`
	OutputQty       int64               `json:"output_qty"`
	Status          string              `json:"status"`
	Notes           string              `json:"notes,omitempty"`
	StartedAt       *time.Time          `json:"started_at,omitempty"`
	CompletedAt     *time.Time          `json:"completed_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Components      []componentResponse `json:"components,omitempty"`
}

func jobResponseFrom(j Job) jobResponse {
	out := jobResponse{
		ID:              j.ID,
		JobNumber:       j.JobNumber,
		OutputProductID: j.OutputProductID,
		OutputName:      j.OutputName,
		OutputQty:       j.OutputQty,
		Status:          string(j.Status),
		Notes:           j.Notes,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
	}
	if !j.StartedAt.IsZero() {
		started := j.StartedAt
		out.StartedAt = &started
	}
	if !j.CompletedAt.IsZero() {
		completed := j.CompletedAt
		out.CompletedAt = &completed
	}
	for _, c := range j.Components {
		out.Components = append(out.Components, componentResponse{
			ID: c.ID, ProductID: c.ProductID, ProductName: c.ProductName, Quantity: c.Quantity,
		})
	}
	return out
}

func (h *Handler) createJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Invalid("body", "malformed JSON payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input := CreateJobInput{
		OutputProductID: req.OutputProductID,
		OutputQty:       req.OutputQty,
		Notes:           req.Notes,
		ActorID:         shared.ActorID(r.Context()),
		ActorIP:         r.RemoteAddr,
	}
	for _, c := range req.Components {
		input.Components = append(input.Components, ComponentInput(c))
	}
	job, err := h.service.CreateJob(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("production job created", slog.String("job_number", job.JobNumber))
	httpx.JSON(w, http.StatusCreated, jobResponseFrom(*job))
}

func (h *Handler) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.service.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, jobResponseFrom(*job))
}

func (h *Handler) listJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.ListJobs(r.Context(), JobStatus(r.URL.Query().Get("status")))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, jobResponseFrom(j))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) startJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.service.StartJob(r.Context(), chi.URLParam(r, "id"),
		shared.ActorID(r.Context()), r.RemoteAddr)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("production job started", slog.String("job_number", job.JobNumber))
	httpx.JSON(w, http.StatusOK, jobResponseFrom(*job))
}

func (h *Handler) completeJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.service.CompleteJob(r.Context(), chi.URLParam(r, "id"),
		shared.ActorID(r.Context()), r.RemoteAddr)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("production job completed", slog.String("job_number", job.JobNumber))
	httpx.JSON(w, http.StatusOK, jobResponseFrom(*job))
}

func (h *Handler) cancelJob(w http.ResponseWriter, r *http.Request) {
	err := h.service.CancelJob(r.Context(), chi.URLParam(r, "id"),
		shared.ActorID(r.Context()), r.RemoteAddr)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
