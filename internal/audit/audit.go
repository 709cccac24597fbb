package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one recorded mutation with its before/after snapshots.
type Entry struct {
	ID        int64
	ActorID   string
	ActorName string
	Action    string
	TableName string
	RecordID  string
	OldValues []byte
	NewValues []byte
	IPAddress string
	CreatedAt time.Time
}

// Query filters the audit trail.
type Query struct {
	ActorID   string
	Action    string
	TableName string
	RecordID  string
	From      time.Time
	To        time.Time
	Limit     int
	Offset    int
}

// Store reads the audit trail. The write path lives in internal/shared
// and is invoked by every core mutation.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Search returns matching audit entries, newest first, plus the total
// match count.
func (s *Store) Search(ctx context.Context, q Query) ([]Entry, int64, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argNum := 1

	if q.ActorID != "" {
		where += fmt.Sprintf(" AND a.user_id = $%d", argNum)
		args = append(args, q.ActorID)
		argNum++
	}
	if q.Action != "" {
		where += fmt.Sprintf(" AND a.action = $%d", argNum)
		args = append(args, q.Action)
		argNum++
	}
	if q.TableName != "" {
		where += fmt.Sprintf(" AND a.table_name = $%d", argNum)
		args = append(args, q.TableName)
		argNum++
	}
	if q.RecordID != "" {
		where += fmt.Sprintf(" AND a.record_id = $%d", argNum)
		args = append(args, q.RecordID)
		argNum++
	}
	if !q.From.IsZero() {
		where += fmt.Sprintf(" AND a.created_at >= $%d", argNum)
		args = append(args, q.From)
		argNum++
	}
	if !q.To.IsZero() {
		where += fmt.Sprintf(" AND a.created_at <= $%d", argNum)
		args = append(args, q.To)
		argNum++
	}

	var total int64
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM audit_logs a"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if q.Limit <= 0 {
		q.Limit = 50
	}
	if q.Limit > 500 {
		q.Limit = 500
	}
	query := `
		SELECT a.id, COALESCE(a.user_id::text, ''), COALESCE(u.name, ''),
			a.action, a.table_name, COALESCE(a.record_id::text, ''),
			COALESCE(a.old_values, 'null'::jsonb), COALESCE(a.new_values, 'null'::jsonb),
			COALESCE(a.ip_address, ''), a.created_at
		FROM audit_logs a
		LEFT JOIN users u ON u.id = a.user_id` + where +
		fmt.Sprintf(" ORDER BY a.created_at DESC LIMIT $%d", argNum)
	args = append(args, q.Limit)
	argNum++
	if q.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, q.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		err := rows.Scan(&e.ID, &e.ActorID, &e.ActorName,
			&e.Action, &e.TableName, &e.RecordID,
			&e.OldValues, &e.NewValues,
			&e.IPAddress, &e.CreatedAt)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// DeleteOlderThan prunes audit rows past the retention window and
// returns the number removed.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
