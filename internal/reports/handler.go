package reports

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/jewelms/jewelms/internal/auth"
	"github.com/jewelms/jewelms/internal/platform/httpx"
	"github.com/jewelms/jewelms/internal/shared"
)

// Handler exposes report endpoints. JSON by default, xlsx when the
// client asks for format=xlsx.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   auth.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, guard auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers report routes. Manager and up.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin, auth.RoleManager))
		r.Get("/reports/gst", h.gst)
		r.Get("/reports/sales", h.sales)
		r.Get("/reports/stock-valuation", h.valuation)
	})
}

func parsePeriod(r *http.Request) (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, shared.Invalid("from", "must be YYYY-MM-DD")
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, shared.Invalid("to", "must be YYYY-MM-DD")
	}
	return from, to, nil
}

func wantsXLSX(r *http.Request) bool {
	return r.URL.Query().Get("format") == "xlsx"
}

func (h *Handler) sendWorkbook(w http.ResponseWriter, f *excelize.File, filename string) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := f.Write(w); err != nil {
		h.logger.Error("workbook write failed", slog.String("error", err.Error()))
	}
	_ = f.Close()
}

type gstResponse struct {
	From          string `json:"from"`
	To            string `json:"to"`
	InvoiceCount  int64  `json:"invoice_count"`
	TaxableAmount string `json:"taxable_amount"`
	CGST          string `json:"cgst"`
	SGST          string `json:"sgst"`
	IGST          string `json:"igst"`
	CreditCGST    string `json:"credit_note_cgst"`
	CreditSGST    string `json:"credit_note_sgst"`
	DebitCGST     string `json:"debit_note_cgst"`
	DebitSGST     string `json:"debit_note_sgst"`
	NetCGST       string `json:"net_cgst"`
	NetSGST       string `json:"net_sgst"`
	NetIGST       string `json:"net_igst"`
	NetTax        string `json:"net_tax"`
}

func money(d decimal.Decimal) string { return d.Round(2).StringFixed(2) }

func (h *Handler) gst(w http.ResponseWriter, r *http.Request) {
	from, to, err := parsePeriod(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	s, err := h.service.GST(r.Context(), from, to)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if wantsXLSX(r) {
		f, err := GSTWorkbook(s)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		h.sendWorkbook(w, f, "gst-summary.xlsx")
		return
	}
	httpx.JSON(w, http.StatusOK, gstResponse{
		From:          s.From.Format("2006-01-02"),
		To:            s.To.Format("2006-01-02"),
		InvoiceCount:  s.InvoiceCount,
		TaxableAmount: money(s.TaxableAmount),
		CGST:          money(s.CGST),
		SGST:          money(s.SGST),
		IGST:          money(s.IGST),
		CreditCGST:    money(s.CreditCGST),
		CreditSGST:    money(s.CreditSGST),
		DebitCGST:     money(s.DebitCGST),
		DebitSGST:     money(s.DebitSGST),
		NetCGST:       money(s.NetCGST),
		NetSGST:       money(s.NetSGST),
		NetIGST:       money(s.NetIGST),
		NetTax:        money(s.NetTax),
	})
}

type dailySalesResponse struct {
	Date         string `json:"date"`
	InvoiceCount int64  `json:"invoice_count"`
	Revenue      string `json:"revenue"`
	TaxCollected string `json:"tax_collected"`
	Collected    string `json:"collected"`
}

func (h *Handler) sales(w http.ResponseWriter, r *http.Request) {
	from, to, err := parsePeriod(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	days, err := h.service.Sales(r.Context(), from, to)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if wantsXLSX(r) {
		f, err := SalesWorkbook(days)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		h.sendWorkbook(w, f, "sales-summary.xlsx")
		return
	}
	out := make([]dailySalesResponse, 0, len(days))
	for _, d := range days {
		out = append(out, dailySalesResponse{
			Date:         d.Date.Format("2006-01-02"),
			InvoiceCount: d.InvoiceCount,
			Revenue:      money(d.Revenue),
			TaxCollected: money(d.TaxCollected),
			Collected:    money(d.Collected),
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

type valuationResponse struct {
	CategoryID   string `json:"category_id,omitempty"`
	CategoryName string `json:"category_name"`
	ProductCount int64  `json:"product_count"`
	Units        int64  `json:"units"`
	Value        string `json:"value"`
}

func (h *Handler) valuation(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Valuation(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if wantsXLSX(r) {
		f, err := ValuationWorkbook(categories)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		h.sendWorkbook(w, f, "stock-valuation.xlsx")
		return
	}
	out := make([]valuationResponse, 0, len(categories))
	total := decimal.Zero
	for _, v := range categories {
		total = total.Add(v.Value)
		out = append(out, valuationResponse{
			CategoryID:   v.CategoryID,
			CategoryName: v.CategoryName,
			ProductCount: v.ProductCount,
			Units:        v.Units,
			Value:        money(v.Value),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"categories":  out,
		"total_value": money(total),
	})
}
