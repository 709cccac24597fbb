package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/jewelms/jewelms/internal/app"
	"github.com/jewelms/jewelms/internal/audit"
	"github.com/jewelms/jewelms/internal/auth"
	"github.com/jewelms/jewelms/internal/billing"
	"github.com/jewelms/jewelms/internal/catalog"
	"github.com/jewelms/jewelms/internal/customers"
	"github.com/jewelms/jewelms/internal/inventory"
	"github.com/jewelms/jewelms/internal/oldgold"
	"github.com/jewelms/jewelms/internal/platform/cache"
	"github.com/jewelms/jewelms/internal/platform/db"
	"github.com/jewelms/jewelms/internal/pricing"
	"github.com/jewelms/jewelms/internal/procurement"
	"github.com/jewelms/jewelms/internal/production"
	"github.com/jewelms/jewelms/internal/repairs"
	"github.com/jewelms/jewelms/internal/reports"
	"github.com/jewelms/jewelms/internal/settings"
	"github.com/jewelms/jewelms/internal/shared"
	"github.com/jewelms/jewelms/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.CheckSchema(ctx, pool); err != nil {
		logger.Error("schema check", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessions := shared.NewSessionManager(redisClient, "jewelms_session", cfg.SessionTTL)
	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	settingsService := settings.NewService(pool, redisClient)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, settingsService)
	guard := auth.NewMiddleware(logger, sessions)
	authHandler := auth.NewHandler(logger, authService, sessions, guard)

	rateStore := pricing.NewRateStore(pool)
	pricingHandler := pricing.NewHandler(logger, rateStore, guard)

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo, rateStore, auditLogger)
	catalogHandler := catalog.NewHandler(logger, catalogService, guard)

	customersRepo := customers.NewRepository(pool)
	customersService := customers.NewService(customersRepo, auditLogger)
	customersHandler := customers.NewHandler(logger, customersService, guard)

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, auditLogger)
	inventoryHandler := inventory.NewHandler(logger, inventoryService, guard)

	billingRepo := billing.NewRepository(pool)
	billingService := billing.NewService(billingRepo, auditLogger, idempotencyStore, settingsService)
	billingHandler := billing.NewHandler(logger, billingService, authService, guard)

	procurementRepo := procurement.NewRepository(pool)
	procurementService := procurement.NewService(procurementRepo, auditLogger)
	procurementHandler := procurement.NewHandler(logger, procurementService, guard)

	productionRepo := production.NewRepository(pool)
	productionService := production.NewService(productionRepo, auditLogger)
	productionHandler := production.NewHandler(logger, productionService, guard)

	repairsRepo := repairs.NewRepository(pool)
	repairsService := repairs.NewService(repairsRepo, auditLogger)
	repairsHandler := repairs.NewHandler(logger, repairsService, guard)

	oldGoldRepo := oldgold.NewRepository(pool)
	oldGoldService := oldgold.NewService(oldGoldRepo, auditLogger)
	oldGoldHandler := oldgold.NewHandler(logger, oldGoldService, guard)

	reportsRepo := reports.NewRepository(pool)
	reportsService := reports.NewService(reportsRepo)
	reportsHandler := reports.NewHandler(logger, reportsService, guard)

	settingsHandler := settings.NewHandler(logger, settingsService, guard)

	auditStore := audit.NewStore(pool)
	auditHandler := audit.NewHandler(logger, auditStore, guard)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthMiddleware:     guard,
		AuthHandler:        authHandler,
		BillingHandler:     billingHandler,
		CatalogHandler:     catalogHandler,
		CustomersHandler:   customersHandler,
		InventoryHandler:   inventoryHandler,
		PricingHandler:     pricingHandler,
		ProcurementHandler: procurementHandler,
		ProductionHandler:  productionHandler,
		RepairsHandler:     repairsHandler,
		OldGoldHandler:     oldGoldHandler,
		ReportsHandler:     reportsHandler,
		SettingsHandler:    settingsHandler,
		AuditHandler:       auditHandler,
		JobsHandler:        jobsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
