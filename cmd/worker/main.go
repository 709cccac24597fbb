package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/jewelms/jewelms/internal/app"
	"github.com/jewelms/jewelms/internal/audit"
	"github.com/jewelms/jewelms/internal/inventory"
	"github.com/jewelms/jewelms/internal/platform/db"
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

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, nil)
	auditStore := audit.NewStore(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	auditTask, err := jobs.NewAuditCleanupTask(int(cfg.AuditRetention.Hours()))
	if err != nil {
		logger.Error("build audit cleanup task", slog.Any("error", err))
		os.Exit(1)
	}
	idemTask, err := jobs.NewIdempotencyCleanupTask(int(cfg.IdempotencyRetention.Hours()))
	if err != nil {
		logger.Error("build idempotency cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLowStockScan, Handler: jobs.NewLowStockScanHandler(logger, inventoryService)},
			{Type: jobs.TaskIntegrityCheck, Handler: jobs.NewIntegrityCheckHandler(logger, inventoryService)},
			{Type: jobs.TaskAuditCleanup, Handler: jobs.NewAuditCleanupHandler(logger, auditStore)},
			{Type: jobs.TaskIdempotencyCleanup, Handler: jobs.NewIdempotencyCleanupHandler(logger, idempotencyStore)},
			{Type: jobs.TaskBackupExport, Handler: jobs.NewBackupExportHandler(logger, pool, cfg.BackupDir)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 7 * * *", Task: jobs.NewLowStockScanTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 2 * * *", Task: jobs.NewIntegrityCheckTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 3 * * 0", Task: auditTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 4 * * *", Task: idemTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 1 * * *", Task: jobs.NewBackupExportTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
