package procurement

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

// Handler wires procurement HTTP endpoints.
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

// MountRoutes registers procurement routes. Manager and up.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin, auth.RoleManager))
		r.Post("/suppliers", h.createSupplier)
		r.Get("/suppliers", h.listSuppliers)
		r.Get("/suppliers/{id}", h.getSupplier)
		r.Put("/suppliers/{id}", h.updateSupplier)
		r.Delete("/suppliers/{id}", h.deleteSupplier)

		r.Post("/purchase-orders", h.createPO)
		r.Get("/purchase-orders", h.listPOs)
		r.Get("/purchase-orders/{id}", h.getPO)
		r.Post("/purchase-orders/{id}/receive", h.receive)
		r.Post("/purchase-orders/{id}/cancel", h.cancel)
	})
}

type supplierRequest struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address"`
	GSTIN   string `json:"gstin"`
	Notes   string `json:"notes"`
}

type supplierResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	GSTIN     string    `json:"gstin,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func supplierResponseFrom(s Supplier) supplierResponse {
	return supplierResponse{
		ID: s.ID, Name: s.Name, Phone: s.Phone, Email: s.Email,
		Address: s.Address, GSTIN: s.GSTIN, Notes: s.Notes,
		CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt,
	}
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Invalid("body", "malformed JSON payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sup, err := h.service.CreateSupplier(r.Context(), SupplierInput(req),
		shared.ActorID(r.Context()), r.RemoteAddr)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, supplierResponseFrom(*sup))
}

func (h *Handler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Invalid("body", "malformed JSON payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sup, err := h.service.UpdateSupplier(r.Context(), chi.URLParam(r, "id"), SupplierInput(req))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, supplierResponseFrom(*sup))
}

func (h *Handler) getSupplier(w http.ResponseWriter, r *http.Request) {
	sup, err := h.service.GetSupplier(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, supplierResponseFrom(*sup))
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.service.ListSuppliers(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]supplierResponse, 0, len(suppliers))
	for _, s := range suppliers {
		out = append(out, supplierResponseFrom(s))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSupplier(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type poItemPayload struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  int64           `json:"quantity" validate:"required,gt=0"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

type createPORequest struct {
	SupplierID   string          `json:"supplier_id" validate:"required,uuid"`
	OrderDate    string          `json:"order_date"`
	ExpectedDate string          `json:"expected_date"`
	Notes        string          `json:"notes"`
	Items        []poItemPayload `json:"items" validate:"required,min=1,dive"`
}

type poItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id,omitempty"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int64           `json:"quantity"`
	ReceivedQty int64           `json:"received_qty"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

type poResponse struct {
	ID           string           `json:"id"`
	PONumber     string           `json:"po_number"`
	SupplierID   string           `json:"supplier_id,omitempty"`
	SupplierName string           `json:"supplier_name,omitempty"`
	Status       string           `json:"status"`
	OrderDate    string           `json:"order_date"`
	ExpectedDate string           `json:"expected_date,omitempty"`
	TotalAmount  decimal.Decimal  `json:"total_amount"`
	Notes        string           `json:"notes,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Items        []poItemResponse `json:"items,omitempty"`
}

func poResponseFrom(po PurchaseOrder) poResponse {
	out := poResponse{
		ID: po.ID, PONumber: po.PONumber,
		SupplierID: po.SupplierID, SupplierName: po.SupplierName,
		Status:    string(po.Status),
		OrderDate: po.OrderDate.Format("2006-01-02"),
		TotalAmount: po.TotalAmount, Notes: po.Notes,
		CreatedAt: po.CreatedAt, UpdatedAt: po.UpdatedAt,
	}
	if !po.ExpectedDate.IsZero() {
		out.ExpectedDate = po.ExpectedDate.Format("2006-01-02")
	}
	for _, item := range po.Items {
		out.Items = append(out.Items, poItemResponse{
			ID: item.ID, ProductID: item.ProductID, ProductName: item.ProductName,
			Quantity: item.Quantity, ReceivedQty: item.ReceivedQty, UnitCost: item.UnitCost,
		})
	}
	return out
}

func (h *Handler) createPO(w http.ResponseWriter, r *http.Request) {
	var req createPORequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Invalid("body", "malformed JSON payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input := CreatePOInput{
		SupplierID: req.SupplierID,
		Notes:      req.Notes,
		ActorID:    shared.ActorID(r.Context()),
		ActorIP:    r.RemoteAddr,
	}
	if req.OrderDate != "" {
		date, err := time.Parse("2006-01-02", req.OrderDate)
		if err != nil {
			httpx.RespondError(w, shared.Invalid("order_date", "expected YYYY-MM-DD"))
			return
		}
		input.OrderDate = date
	}
	if req.ExpectedDate != "" {
		date, err := time.Parse("2006-01-02", req.ExpectedDate)
		if err != nil {
			httpx.RespondError(w, shared.Invalid("expected_date", "expected YYYY-MM-DD"))
			return
		}
		input.ExpectedDate = date
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, POItemInput(item))
	}
	po, err := h.service.CreatePO(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("purchase order created", slog.String("po_number", po.PONumber))
	httpx.JSON(w, http.StatusCreated, poResponseFrom(*po))
}

func (h *Handler) getPO(w http.ResponseWriter, r *http.Request) {
	po, err := h.service.GetPO(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, poResponseFrom(*po))
}

func (h *Handler) listPOs(w http.ResponseWriter, r *http.Request) {
	pos, err := h.service.ListPOs(r.Context(), POStatus(r.URL.Query().Get("status")))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]poResponse, 0, len(pos))
	for _, po := range pos {
		out = append(out, poResponseFrom(po))
	}
	httpx.JSON(w, http.StatusOK, out)
}

type receiveRequest struct {
	Lines []struct {
		ItemID   string `json:"item_id" validate:"required,uuid"`
		Quantity int64  `json:"quantity" validate:"required,gt=0"`
	} `json:"lines" validate:"required,min=1,dive"`
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	var req receiveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Invalid("body", "malformed JSON payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input := ReceiveInput{
		POID:    chi.URLParam(r, "id"),
		ActorID: shared.ActorID(r.Context()),
		ActorIP: r.RemoteAddr,
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, ReceiptLine{ItemID: line.ItemID, Quantity: line.Quantity})
	}
	po, err := h.service.Receive(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("purchase order receipt",
		slog.String("po_number", po.PONumber),
		slog.String("status", string(po.Status)))
	httpx.JSON(w, http.StatusOK, poResponseFrom(*po))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	err := h.service.CancelPO(r.Context(), chi.URLParam(r, "id"),
		shared.ActorID(r.Context()), r.RemoteAddr)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
