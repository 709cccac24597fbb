package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jewelms/jewelms/internal/audit"
	"github.com/jewelms/jewelms/internal/shared"
)

// NewAuditCleanupHandler prunes audit rows older than the payload's
// retention window.
func NewAuditCleanupHandler(logger *slog.Logger, store *audit.Store) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload CleanupPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.RetentionHours <= 0 {
			return asynq.SkipRetry
		}
		cutoff := time.Now().UTC().Add(-time.Duration(payload.RetentionHours) * time.Hour)
		removed, err := store.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			return err
		}
		logger.Info("audit cleanup", slog.Int64("removed", removed))
		return nil
	}
}

// NewIdempotencyCleanupHandler prunes consumed idempotency keys.
func NewIdempotencyCleanupHandler(logger *slog.Logger, store *shared.IdempotencyStore) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload CleanupPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.RetentionHours <= 0 {
			return asynq.SkipRetry
		}
		removed, err := store.Cleanup(ctx, time.Duration(payload.RetentionHours)*time.Hour)
		if err != nil {
			return err
		}
		logger.Info("idempotency cleanup", slog.Int64("removed", removed))
		return nil
	}
}
