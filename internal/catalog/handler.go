package catalog

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

// Handler wires catalog HTTP endpoints.
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

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin, auth.RoleManager, auth.RoleStaff))
		r.Get("/categories", h.listCategories)
		r.Get("/products", h.searchProducts)
		r.Get("/products/{id}", h.getProduct)
		r.Get("/products/{id}/price", h.quotePrice)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin, auth.RoleManager))
		r.Post("/categories", h.createCategory)
		r.Put("/categories/{id}", h.updateCategory)
		r.Delete("/categories/{id}", h.deleteCategory)
		r.Post("/products", h.createProduct)
		r.Put("/products/{id}", h.updateProduct)
		r.Delete("/products/{id}", h.deleteProduct)
	})
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type categoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func categoryResponseFrom(c Category) categoryResponse {
	return categoryResponse{
		ID: c.ID, Name: c.Name, Description: c.Description,
		CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Invalid("body", "malformed JSON payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, categoryResponseFrom(*c))
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Invalid("body", "malformed JSON payload"))
		return
	}
	c, err := h.service.UpdateCategory(r.Context(), chi.URLParam(r, "id"), req.Name, req.Description)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, categoryResponseFrom(*c))
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponseFrom(c))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type productRequest struct {
	SKU           string          `json:"sku"`
	Barcode       string          `json:"barcode"`
	Name          string          `json:"name" validate:"required"`
	CategoryID    string          `json:"category_id" validate:"omitempty,uuid"`
	HSNCode       string          `json:"hsn_code"`
	MetalType     string          `json:"metal_type"`
	Purity        decimal.Decimal `json:"purity"`
	WeightGrams   decimal.Decimal `json:"weight_grams"`
	BasePrice     decimal.Decimal `json:"base_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	MakingCharges decimal.Decimal `json:"making_charges"`
	WastagePct    decimal.Decimal `json:"wastage_pct"`
	StoneCharges  decimal.Decimal `json:"stone_charges"`
	OpeningStock  int64           `json:"opening_stock"`
	MinStock      int64           `json:"min_stock"`
	IsActive      bool            `json:"is_active"`
}

type productResponse struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku,omitempty"`
	Barcode       string          `json:"barcode,omitempty"`
	Name          string          `json:"name"`
	CategoryID    string          `json:"category_id,omitempty"`
	HSNCode       string          `json:"hsn_code,omitempty"`
	MetalType     string          `json:"metal_type,omitempty"`
	Purity        decimal.Decimal `json:"purity"`
	WeightGrams   decimal.Decimal `json:"weight_grams"`
	BasePrice     decimal.Decimal `json:"base_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	MakingCharges decimal.Decimal `json:"making_charges"`
	WastagePct    decimal.Decimal `json:"wastage_pct"`
	StoneCharges  decimal.Decimal `json:"stone_charges"`
	StockQty      int64           `json:"stock_qty"`
	MinStock      int64           `json:"min_stock"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func productResponseFrom(p Product) productResponse {
	return productResponse{
		ID: p.ID, SKU: p.SKU, Barcode: p.Barcode, Name: p.Name,
		CategoryID: p.CategoryID, HSNCode: p.HSNCode,
		MetalType: p.MetalType, Purity: p.Purity, WeightGrams: p.WeightGrams,
		BasePrice: p.BasePrice, SellingPrice: p.SellingPrice,
		MakingCharges: p.MakingCharges, WastagePct: p.WastagePct, StoneCharges: p.StoneCharges,
		StockQty: p.StockQty, MinStock: p.MinStock, IsActive: p.IsActive,
		CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

func productInputFrom(req productRequest) ProductInput {
	return ProductInput{
		SKU:           req.SKU,
		Barcode:       req.Barcode,
		Name:          req.Name,
		CategoryID:    req.CategoryID,
		HSNCode:       req.HSNCode,
		MetalType:     req.MetalType,
		Purity:        req.Purity,
		WeightGrams:   req.WeightGrams,
		BasePrice:     req.BasePrice,
		SellingPrice:  req.SellingPrice,
		MakingCharges: req.MakingCharges,
		WastagePct:    req.WastagePct,
		StoneCharges:  req.StoneCharges,
		OpeningStock:  req.OpeningStock,
		MinStock:      req.MinStock,
		IsActive:      req.IsActive,
	}
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Invalid("body", "malformed JSON payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.CreateProduct(r.Context(), productInputFrom(req), shared.ActorID(r.Context()), r.RemoteAddr)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("product created", slog.String("id", p.ID), slog.String("name", p.Name))
	httpx.JSON(w, http.StatusCreated, productResponseFrom(*p))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Invalid("body", "malformed JSON payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), productInputFrom(req),
		shared.ActorID(r.Context()), r.RemoteAddr)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, productResponseFrom(*p))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, productResponseFrom(*p))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id"),
		shared.ActorID(r.Context()), r.RemoteAddr)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) quotePrice(w http.ResponseWriter, r *http.Request) {
	quote, err := h.service.QuotePrice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{
		"metal_value":    quote.MetalValue.StringFixed(2),
		"wastage_amount": quote.WastageAmount.StringFixed(2),
		"making_charge":  quote.MakingCharge.StringFixed(2),
		"stone_charges":  quote.StoneCharges.StringFixed(2),
		"total":          quote.Total.StringFixed(2),
	})
}

func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	req := SearchRequest{
		Query:      q.Get("search"),
		CategoryID: q.Get("category_id"),
		ActiveOnly: q.Get("active") == "true",
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}
	products, total, err := h.service.Search(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, productResponseFrom(p))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": out, "total": total})
}
