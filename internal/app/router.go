package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/jewelms/jewelms/internal/audit"
	"github.com/jewelms/jewelms/internal/auth"
	"github.com/jewelms/jewelms/internal/billing"
	"github.com/jewelms/jewelms/internal/catalog"
	"github.com/jewelms/jewelms/internal/customers"
	"github.com/jewelms/jewelms/internal/inventory"
	"github.com/jewelms/jewelms/internal/oldgold"
	"github.com/jewelms/jewelms/internal/pricing"
	"github.com/jewelms/jewelms/internal/procurement"
	"github.com/jewelms/jewelms/internal/production"
	"github.com/jewelms/jewelms/internal/repairs"
	"github.com/jewelms/jewelms/internal/reports"
	"github.com/jewelms/jewelms/internal/settings"
	"github.com/jewelms/jewelms/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	AuthMiddleware     auth.Middleware
	AuthHandler        *auth.Handler
	BillingHandler     *billing.Handler
	CatalogHandler     *catalog.Handler
	CustomersHandler   *customers.Handler
	InventoryHandler   *inventory.Handler
	PricingHandler     *pricing.Handler
	ProcurementHandler *procurement.Handler
	ProductionHandler  *production.Handler
	RepairsHandler     *repairs.Handler
	OldGoldHandler     *oldgold.Handler
	ReportsHandler     *reports.Handler
	SettingsHandler    *settings.Handler
	AuditHandler       *audit.Handler
	JobsHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router for the API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}
	r.Use(params.AuthMiddleware.Authenticate)
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)
		params.BillingHandler.MountRoutes(r)
		params.CatalogHandler.MountRoutes(r)
		params.CustomersHandler.MountRoutes(r)
		params.InventoryHandler.MountRoutes(r)
		params.PricingHandler.MountRoutes(r)
		params.ProcurementHandler.MountRoutes(r)
		params.ProductionHandler.MountRoutes(r)
		params.RepairsHandler.MountRoutes(r)
		params.OldGoldHandler.MountRoutes(r)
		params.ReportsHandler.MountRoutes(r)
		params.SettingsHandler.MountRoutes(r)
		if params.AuditHandler != nil {
			params.AuditHandler.MountRoutes(r)
		}
		if params.JobsHandler != nil {
			r.Group(func(r chi.Router) {
				r.Use(params.AuthMiddleware.RequireRole(auth.RoleAdmin))
				params.JobsHandler.MountRoutes(r)
			})
		}
	})

	return r
}
