package billing

import (
	"context"
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

// PINVerifier checks the supervisor PIN that unlocks finalize and
// note issuance. A blank configured PIN verifies everything.
type PINVerifier interface {
	VerifyBillingPIN(ctx context.Context, pin string) error
}

// Handler wires HTTP endpoints for billing.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	pins     PINVerifier
	validate *validator.Validate
	guard    auth.Middleware
}

// NewHandler constructs a billing handler.
func NewHandler(logger *slog.Logger, service *Service, pins PINVerifier, guard auth.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		pins:     pins,
		validate: validator.New(),
		guard:    guard,
	}
}

// requirePIN enforces the supervisor PIN on routes that change sealed
// financial records. The PIN travels in a header so the JSON bodies
// stay free of credentials.
func (h *Handler) requirePIN(r *http.Request) error {
	if h.pins == nil {
		return nil
	}
	return h.pins.VerifyBillingPIN(r.Context(), r.Header.Get("X-Billing-PIN"))
}

// MountRoutes registers billing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin, auth.RoleManager, auth.RoleStaff))
		r.Post("/invoices", h.createInvoice)
		r.Get("/invoices", h.listInvoices)
		r.Get("/invoices/{id}", h.getInvoice)
		r.Patch("/invoices/{id}", h.updateInvoice)
		r.Post("/invoices/{id}/payments", h.recordPayment)
		r.Get("/invoices/{id}/credit-notes", h.listCreditNotes)
		r.Get("/invoices/{id}/debit-notes", h.listDebitNotes)
		r.Post("/pos/sale", h.completeSale)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin, auth.RoleManager))
		r.Post("/invoices/{id}/finalize", h.finalizeInvoice)
		r.Post("/invoices/{id}/credit-notes", h.issueCreditNote)
		r.Post("/invoices/{id}/debit-notes", h.issueDebitNote)
	})
}

type itemPayload struct {
	ProductID     string          `json:"product_id" validate:"required,uuid"`
	ProductName   string          `json:"product_name"`
	HSNCode       string          `json:"hsn_code"`
	Quantity      int64           `json:"quantity" validate:"required,gt=0"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	MakingCharges decimal.Decimal `json:"making_charges"`
	StoneCharges  decimal.Decimal `json:"stone_charges"`
	WastagePct    decimal.Decimal `json:"wastage_pct"`
	Discount      decimal.Decimal `json:"discount"`
	CGSTRate      decimal.Decimal `json:"cgst_rate"`
	SGSTRate      decimal.Decimal `json:"sgst_rate"`
	IGSTRate      decimal.Decimal `json:"igst_rate"`
}

type createInvoiceRequest struct {
	CustomerID     string          `json:"customer_id" validate:"omitempty,uuid"`
	InvoiceDate    string          `json:"invoice_date"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	PaymentMode    string          `json:"payment_mode"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	Notes          string          `json:"notes"`
	IdempotencyKey string          `json:"idempotency_key"`
	Items          []itemPayload   `json:"items" validate:"required,min=1,dive"`
}

type paymentRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	Mode            string          `json:"payment_mode" validate:"required"`
	PaymentDate     string          `json:"payment_date"`
	ReferenceNumber string          `json:"reference_number"`
	Notes           string          `json:"notes"`
}

type noteRequest struct {
	Reason string          `json:"reason" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
	CGST   decimal.Decimal `json:"cgst"`
	SGST   decimal.Decimal `json:"sgst"`
}

type updateInvoiceRequest struct {
	CustomerID     *string          `json:"customer_id"`
	InvoiceDate    *string          `json:"invoice_date"`
	DiscountAmount *decimal.Decimal `json:"discount_amount"`
	PaymentMode    *string          `json:"payment_mode"`
	Notes          *string          `json:"notes"`
}

func (h *Handler) decodeAndValidate(r *http.Request, target any) error {
	if err := httpx.DecodeJSON(r, target); err != nil {
		return shared.Invalid("body", "malformed JSON payload")
	}
	return h.validate.Struct(target)
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", value)
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input, err := h.buildCreateInput(r, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.CreateInvoice(r.Context(), input)
	if err != nil {
		h.logger.Error("create invoice", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("invoice created",
		slog.String("invoice_number", inv.InvoiceNumber),
		slog.String("id", inv.ID))
	httpx.JSON(w, http.StatusCreated, invoiceResponseFrom(*inv))
}

// completeSale is the POS fast path: invoice plus immediate payment in
// one transaction.
func (h *Handler) completeSale(w http.ResponseWriter, r *http.Request) {
	h.createInvoice(w, r)
}

func (h *Handler) buildCreateInput(r *http.Request, req createInvoiceRequest) (CreateInvoiceInput, error) {
	date, err := parseDate(req.InvoiceDate)
	if err != nil {
		return CreateInvoiceInput{}, shared.Invalid("invoice_date", "expected YYYY-MM-DD")
	}
	input := CreateInvoiceInput{
		CustomerID:     req.CustomerID,
		InvoiceDate:    date,
		DiscountAmount: req.DiscountAmount,
		PaymentMode:    req.PaymentMode,
		PaidAmount:     req.PaidAmount,
		Notes:          req.Notes,
		IdempotencyKey: req.IdempotencyKey,
		ActorID:        shared.ActorID(r.Context()),
		ActorIP:        r.RemoteAddr,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, ItemInput(item))
	}
	return input, nil
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ListInvoicesRequest{
		PaymentStatus: PaymentStatus(q.Get("payment_status")),
		Finalization:  FinalizationStatus(q.Get("finalization_status")),
		CustomerID:    q.Get("customer_id"),
		Search:        q.Get("search"),
	}
	if from, err := parseDate(q.Get("from")); err == nil {
		req.From = from
	}
	if to, err := parseDate(q.Get("to")); err == nil {
		req.To = to
	}
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	req.Limit = limit
	req.Offset = (page - 1) * limit

	invoices, total, err := h.service.ListInvoices(r.Context(), req)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]invoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, invoiceResponseFrom(inv))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": out, "total": total})
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetInvoiceDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detailResponseFrom(*detail))
}

func (h *Handler) updateInvoice(w http.ResponseWriter, r *http.Request) {
	var req updateInvoiceRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	upd := DraftInvoiceUpdate{
		CustomerID:     req.CustomerID,
		DiscountAmount: req.DiscountAmount,
		PaymentMode:    req.PaymentMode,
		Notes:          req.Notes,
	}
	if req.InvoiceDate != nil {
		date, err := parseDate(*req.InvoiceDate)
		if err != nil {
			httpx.RespondError(w, shared.Invalid("invoice_date", "expected YYYY-MM-DD"))
			return
		}
		upd.InvoiceDate = &date
	}
	inv, err := h.service.UpdateDraftInvoice(r.Context(), chi.URLParam(r, "id"), upd,
		shared.ActorID(r.Context()), r.RemoteAddr)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoiceResponseFrom(*inv))
}

func (h *Handler) finalizeInvoice(w http.ResponseWriter, r *http.Request) {
	if err := h.requirePIN(r); err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.FinalizeInvoice(r.Context(), chi.URLParam(r, "id"),
		shared.ActorID(r.Context()), r.RemoteAddr)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("invoice finalized",
		slog.String("invoice_number", inv.InvoiceNumber),
		slog.String("hash", inv.InvoiceHash))
	httpx.JSON(w, http.StatusOK, invoiceResponseFrom(*inv))
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	date, err := parseDate(req.PaymentDate)
	if err != nil {
		httpx.RespondError(w, shared.Invalid("payment_date", "expected YYYY-MM-DD"))
		return
	}
	inv, err := h.service.RecordPayment(r.Context(), PaymentInput{
		InvoiceID:       chi.URLParam(r, "id"),
		Amount:          req.Amount,
		Mode:            req.Mode,
		PaymentDate:     date,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
		ActorID:         shared.ActorID(r.Context()),
		ActorIP:         r.RemoteAddr,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoiceResponseFrom(*inv))
}

func (h *Handler) issueCreditNote(w http.ResponseWriter, r *http.Request) {
	h.issueNote(w, r, NoteKindCredit)
}

func (h *Handler) issueDebitNote(w http.ResponseWriter, r *http.Request) {
	h.issueNote(w, r, NoteKindDebit)
}

func (h *Handler) issueNote(w http.ResponseWriter, r *http.Request, kind NoteKind) {
	if err := h.requirePIN(r); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req noteRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input := NoteInput{
		InvoiceID: chi.URLParam(r, "id"),
		Reason:    req.Reason,
		Amount:    req.Amount,
		CGST:      req.CGST,
		SGST:      req.SGST,
		ActorID:   shared.ActorID(r.Context()),
		ActorIP:   r.RemoteAddr,
	}
	var note *CorrectionNote
	var err error
	if kind == NoteKindCredit {
		note, err = h.service.IssueCreditNote(r.Context(), input)
	} else {
		note, err = h.service.IssueDebitNote(r.Context(), input)
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, noteResponseFrom(*note))
}

func (h *Handler) listCreditNotes(w http.ResponseWriter, r *http.Request) {
	h.listNotes(w, r, NoteKindCredit)
}

func (h *Handler) listDebitNotes(w http.ResponseWriter, r *http.Request) {
	h.listNotes(w, r, NoteKindDebit)
}

func (h *Handler) listNotes(w http.ResponseWriter, r *http.Request, kind NoteKind) {
	notes, err := h.service.ListNotes(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, noteResponseFrom(n))
	}
	httpx.JSON(w, http.StatusOK, out)
}
