package repairs

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/jewelms/jewelms/internal/auth"
	"github.com/jewelms/jewelms/internal/platform/httpx"
	"github.com/jewelms/jewelms/internal/shared"
)

// Handler wires repair-desk HTTP endpoints.
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

// MountRoutes registers repair routes. The repair desk is staffed by
// everyone, so all three roles may operate it.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin, auth.RoleManager, auth.RoleStaff))
		r.Post("/repairs", h.createRepair)
		r.Get("/repairs", h.listRepairs)
		r.Get("/repairs/{id}", h.getRepair)
		r.Patch("/repairs/{id}", h.updateRepair)
		r.Post("/repairs/{id}/status", h.updateStatus)
	})
}

type createRepairRequest struct {
	CustomerID       string          `json:"customer_id" validate:"required,uuid"`
	ItemDescription  string          `json:"item_description" validate:"required"`
	IssueDescription string          `json:"issue_description" validate:"required"`
	ReceivedDate     string          `json:"received_date"`
	ExpectedDate     string          `json:"expected_date"`
	EstimatedCost    decimal.Decimal `json:"estimated_cost"`
	AdvancePaid      decimal.Decimal `json:"advance_paid"`
	AssignedTo       string          `json:"assigned_to" validate:"omitempty,uuid"`
	Notes            string          `json:"notes"`
}

type updateRepairRequest struct {
	ItemDescription  *string          `json:"item_description"`
	IssueDescription *string          `json:"issue_description"`
	ExpectedDate     *string          `json:"expected_date"`
	EstimatedCost    *decimal.Decimal `json:"estimated_cost"`
	FinalCost        *decimal.Decimal `json:"final_cost"`
	AdvancePaid      *decimal.Decimal `json:"advance_paid"`
	AssignedTo       *string          `json:"assigned_to"`
	Notes            *string          `json:"notes"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type repairResponse struct {
	ID               string          `json:"id"`
	RepairNumber     string          `json:"repair_number"`
	CustomerID       string          `json:"customer_id,omitempty"`
	CustomerName     string          `json:"customer_name,omitempty"`
	CustomerPhone    string          `json:"customer_phone,omitempty"`
	ItemDescription  string          `json:"item_description"`
	IssueDescription string          `json:"issue_description"`
	Status           string          `json:"status"`
	ReceivedDate     string          `json:"received_date"`
	ExpectedDate     string          `json:"expected_date,omitempty"`
	DeliveredDate    string          `json:"delivered_date,omitempty"`
	EstimatedCost    decimal.Decimal `json:"estimated_cost"`
	FinalCost        decimal.Decimal `json:"final_cost"`
	AdvancePaid      decimal.Decimal `json:"advance_paid"`
	AssignedTo       string          `json:"assigned_to,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

const dateLayout = "2006-01-02"

func repairResponseFrom(rep Repair) repairResponse {
	out := repairResponse{
		ID:               rep.ID,
		RepairNumber:     rep.RepairNumber,
		CustomerID:       rep.CustomerID,
		CustomerName:     rep.CustomerName,
		CustomerPhone:    rep.CustomerPhone,
		ItemDescription:  rep.ItemDescription,
		IssueDescription: rep.IssueDescription,
		Status:           string(rep.Status),
		ReceivedDate:     rep.ReceivedDate.Format(dateLayout),
		EstimatedCost:    rep.EstimatedCost,
		FinalCost:        rep.FinalCost,
		AdvancePaid:      rep.AdvancePaid,
		AssignedTo:       rep.AssignedTo,
		Notes:            rep.Notes,
		CreatedAt:        rep.CreatedAt,
		UpdatedAt:        rep.UpdatedAt,
	}
	if !rep.ExpectedDate.IsZero() {
		out.ExpectedDate = rep.ExpectedDate.Format(dateLayout)
	}
	if !rep.DeliveredDate.IsZero() {
		out.DeliveredDate = rep.DeliveredDate.Format(dateLayout)
	}
	return out
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, value)
}

func (h *Handler) createRepair(w http.ResponseWriter, r *http.Request) {
	var req createRepairRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Invalid("body", "malformed JSON payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	received, err := parseDate(req.ReceivedDate)
	if err != nil {
		httpx.RespondError(w, shared.Invalid("received_date", "expected YYYY-MM-DD"))
		return
	}
	expected, err := parseDate(req.ExpectedDate)
	if err != nil {
		httpx.RespondError(w, shared.Invalid("expected_date", "expected YYYY-MM-DD"))
		return
	}
	rep, err := h.service.CreateRepair(r.Context(), CreateRepairInput{
		CustomerID:       req.CustomerID,
		ItemDescription:  req.ItemDescription,
		IssueDescription: req.IssueDescription,
		ReceivedDate:     received,
		ExpectedDate:     expected,
		EstimatedCost:    req.EstimatedCost,
		AdvancePaid:      req.AdvancePaid,
		AssignedTo:       req.AssignedTo,
		Notes:            req.Notes,
		ActorID:          shared.ActorID(r.Context()),
		ActorIP:          r.RemoteAddr,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("repair created", slog.String("repair_number", rep.RepairNumber))
	httpx.JSON(w, http.StatusCreated, repairResponseFrom(*rep))
}

func (h *Handler) getRepair(w http.ResponseWriter, r *http.Request) {
	rep, err := h.service.GetRepair(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, repairResponseFrom(*rep))
}

func (h *Handler) listRepairs(w http.ResponseWriter, r *http.Request) {
	reps, err := h.service.ListRepairs(r.Context(), RepairStatus(r.URL.Query().Get("status")))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]repairResponse, 0, len(reps))
	for _, rep := range reps {
		out = append(out, repairResponseFrom(rep))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) updateRepair(w http.ResponseWriter, r *http.Request) {
	var req updateRepairRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Invalid("body", "malformed JSON payload"))
		return
	}
	upd := RepairUpdate{
		ItemDescription:  req.ItemDescription,
		IssueDescription: req.IssueDescription,
		EstimatedCost:    req.EstimatedCost,
		FinalCost:        req.FinalCost,
		AdvancePaid:      req.AdvancePaid,
		AssignedTo:       req.AssignedTo,
		Notes:            req.Notes,
	}
	if req.ExpectedDate != nil {
		expected, err := parseDate(*req.ExpectedDate)
		if err != nil {
			httpx.RespondError(w, shared.Invalid("expected_date", "expected YYYY-MM-DD"))
			return
		}
		upd.ExpectedDate = &expected
	}
	rep, err := h.service.UpdateRepair(r.Context(), chi.URLParam(r, "id"), upd,
		shared.ActorID(r.Context()), r.RemoteAddr)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, repairResponseFrom(*rep))
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Invalid("body", "malformed JSON payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	rep, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"),
		RepairStatus(req.Status), shared.ActorID(r.Context()), r.RemoteAddr)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("repair status changed",
		slog.String("repair_number", rep.RepairNumber),
		slog.String("status", string(rep.Status)))
	httpx.JSON(w, http.StatusOK, repairResponseFrom(*rep))
}
