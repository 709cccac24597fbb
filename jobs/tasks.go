package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskLowStockScan flags products at or below their minimum level.
	TaskLowStockScan = "inventory:low_stock_scan"
	// TaskIntegrityCheck reconciles the stock ledger against stored
	// quantities.
	TaskIntegrityCheck = "inventory:integrity_check"
	// TaskAuditCleanup prunes audit rows past the retention window.
	TaskAuditCleanup = "audit:cleanup"
	// TaskIdempotencyCleanup prunes consumed idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
	// TaskBackupExport writes an xlsx snapshot of the core tables.
	TaskBackupExport = "backup:export"
)

// CleanupPayload carries the retention window in hours.
type CleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewLowStockScanTask constructs the low stock scan task.
func NewLowStockScanTask() *asynq.Task {
	return asynq.NewTask(TaskLowStockScan, nil)
}

// NewIntegrityCheckTask constructs the ledger integrity task.
func NewIntegrityCheckTask() *asynq.Task {
	return asynq.NewTask(TaskIntegrityCheck, nil)
}

// NewAuditCleanupTask constructs the audit retention task.
func NewAuditCleanupTask(retentionHours int) (*asynq.Task, error) {
	data, err := json.Marshal(CleanupPayload{RetentionHours: retentionHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditCleanup, data), nil
}

// NewIdempotencyCleanupTask constructs the idempotency key retention task.
func NewIdempotencyCleanupTask(retentionHours int) (*asynq.Task, error) {
	data, err := json.Marshal(CleanupPayload{RetentionHours: retentionHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}

// NewBackupExportTask constructs the backup snapshot task.
func NewBackupExportTask() *asynq.Task {
	return asynq.NewTask(TaskBackupExport, nil)
}
