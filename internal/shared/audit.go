package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog represents a record stored in audit_logs. OldValues and
// NewValues hold before/after snapshots of the affected row.
type AuditLog struct {
	ActorID   string
	Action    string
	TableName string
	RecordID  string
	OldValues any
	NewValues any
	IPAddress string
	At        time.Time
}

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the log entry. Failures are returned to the caller but
// must never abort the business transaction that produced the snapshot.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.TableName == "" || log.RecordID == "" {
		return errors.New("audit log requires action/table/record_id")
	}
	oldJSON, err := marshalNullable(log.OldValues)
	if err != nil {
		return err
	}
	newJSON, err := marshalNullable(log.NewValues)
	if err != nil {
		return err
	}
	at := log.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO audit_logs (user_id, action, table_name, record_id, old_values, new_values, ip_address, created_at)
		 VALUES (NULLIF($1,'')::uuid, $2, $3, $4, $5, $6, $7, $8)`,
		log.ActorID, log.Action, log.TableName, log.RecordID, oldJSON, newJSON, log.IPAddress, at)
	return err
}

func marshalNullable(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
