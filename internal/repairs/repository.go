package repairs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jewelms/jewelms/internal/shared"
)

// Repository provides PostgreSQL backed persistence for repairs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var timeZero time.Time

const selectRepair = `
	SELECT r.id, r.repair_number, COALESCE(r.customer_id::text, ''),
		COALESCE(c.name, ''), COALESCE(c.phone, ''),
		r.item_description, r.issue_description, r.status,
		r.received_date,
		COALESCE(r.expected_date, 'epoch'::date), COALESCE(r.delivered_date, 'epoch'::date),
		r.estimated_cost, COALESCE(r.final_cost, 0), r.advance_paid,
		COALESCE(r.assigned_to::text, ''), COALESCE(r.notes, ''),
		r.created_at, r.updated_at
	FROM repairs r
	LEFT JOIN customers c ON c.id = r.customer_id`

func scanRepair(row pgx.Row) (*Repair, error) {
	var rep Repair
	var status string
	err := row.Scan(&rep.ID, &rep.RepairNumber, &rep.CustomerID,
		&rep.CustomerName, &rep.CustomerPhone,
		&rep.ItemDescription, &rep.IssueDescription, &status,
		&rep.ReceivedDate,
		&rep.ExpectedDate, &rep.DeliveredDate,
		&rep.EstimatedCost, &rep.FinalCost, &rep.AdvancePaid,
		&rep.AssignedTo, &rep.Notes,
		&rep.CreatedAt, &rep.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("repair: %w", shared.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	rep.Status = RepairStatus(status)
	if rep.ExpectedDate.Unix() == 0 {
		rep.ExpectedDate = timeZero
	}
	if rep.DeliveredDate.Unix() == 0 {
		rep.DeliveredDate = timeZero
	}
	return &rep, nil
}

// CreateRepair inserts a repair.
func (r *Repository) CreateRepair(ctx context.Context, rep *Repair) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO repairs (
			id, repair_number, customer_id, item_description, issue_description,
			status, received_date, expected_date,
			estimated_cost, advance_paid, assigned_to, notes,
			created_at, updated_at
		) VALUES (
			$1, $2, NULLIF($3, '')::uuid, $4, $5,
			$6, $7, $8,
			$9, $10, NULLIF($11, '')::uuid, $12,
			$13, $14
		)`,
		rep.ID, rep.RepairNumber, rep.CustomerID, rep.ItemDescription, rep.IssueDescription,
		string(rep.Status), rep.ReceivedDate, dateOrNil(rep.ExpectedDate),
		rep.EstimatedCost, rep.AdvancePaid, rep.AssignedTo, rep.Notes,
		rep.CreatedAt, rep.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", shared.ErrConflict, pgErr.ConstraintName)
	}
	return err
}

// dateOrNil writes the zero time as NULL.
func dateOrNil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// GetRepair fetches one repair with its customer.
func (r *Repository) GetRepair(ctx context.Context, id string) (*Repair, error) {
	return scanRepair(r.pool.QueryRow(ctx, selectRepair+` WHERE r.id = $1`, id))
}

// ListRepairs returns repairs, newest first, optionally by status.
func (r *Repository) ListRepairs(ctx context.Context, status RepairStatus) ([]Repair, error) {
	query := selectRepair
	args := []any{}
	if status != "" {
		query += ` WHERE r.status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY r.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Repair
	for rows.Next() {
		rep, err := scanRepair(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rep)
	}
	return out, rows.Err()
}

// UpdateRepair persists intake details. Status and delivered_date are
// deliberately absent; UpdateStatus owns them.
func (r *Repository) UpdateRepair(ctx context.Context, rep *Repair) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE repairs
		SET item_description = $2, issue_description = $3,
			expected_date = $4,
			estimated_cost = $5, final_cost = $6, advance_paid = $7,
			assigned_to = NULLIF($8, '')::uuid, notes = $9, updated_at = $10
		WHERE id = $1`,
		rep.ID, rep.ItemDescription, rep.IssueDescription,
		dateOrNil(rep.ExpectedDate),
		rep.EstimatedCost, rep.FinalCost, rep.AdvancePaid,
		rep.AssignedTo, rep.Notes, rep.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repair: %w", shared.ErrNotFound)
	}
	return nil
}

// UpdateStatus changes the workflow state. Delivered repairs are
// immutable, so the guard excludes them.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status RepairStatus, deliveredAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE repairs
		SET status = $2,
			delivered_date = COALESCE($3::date, delivered_date),
			updated_at = NOW()
		WHERE id = $1 AND status <> 'delivered'`,
		id, string(status), dateOrNil(deliveredAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT TRUE FROM repairs WHERE id = $1`, id).Scan(&exists); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("repair: %w", shared.ErrNotFound)
			}
			return err
		}
		return fmt.Errorf("%w: repair already delivered", shared.ErrConflict)
	}
	return nil
}

// NextRepairNumber allocates the next sequential repair number.
func (r *Repository) NextRepairNumber(ctx context.Context) (string, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(CAST(SUBSTRING(repair_number FROM 'REP-(\d+)') AS bigint)), 0) + 1
		FROM repairs`).Scan(&n)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("REP-%04d", n), nil
}
