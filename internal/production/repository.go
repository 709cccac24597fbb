package production

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jewelms/jewelms/internal/platform/db"
	"github.com/jewelms/jewelms/internal/shared"
)

// Repository provides PostgreSQL backed persistence for production jobs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// timeZero replaces the epoch sentinel used for nullable timestamps.
var timeZero time.Time

const selectJob = `
	SELECT j.id, j.job_number, COALESCE(j.output_product_id::text, ''), COALESCE(p.name, ''),
		j.output_qty, j.status, COALESCE(j.notes, ''),
		COALESCE(j.started_at, 'epoch'::timestamptz), COALESCE(j.completed_at, 'epoch'::timestamptz),
		COALESCE(j.created_by::text, ''), j.created_at, j.updated_at
	FROM production_jobs j
	LEFT JOIN products p ON p.id = j.output_product_id`

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	var status string
	err := row.Scan(&j.ID, &j.JobNumber, &j.OutputProductID, &j.OutputName,
		&j.OutputQty, &status, &j.Notes,
		&j.StartedAt, &j.CompletedAt,
		&j.CreatedBy, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("production job: %w", shared.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	j.Status = JobStatus(status)
	if j.StartedAt.Unix() == 0 {
		j.StartedAt = timeZero
	}
	if j.CompletedAt.Unix() == 0 {
		j.CompletedAt = timeZero
	}
	return &j, nil
}

// CreateJob inserts a job with its BOM in one transaction.
func (r *Repository) CreateJob(ctx context.Context, j *Job) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return insertJob(ctx, tx, j)
	})
}

func insertJob(ctx context.Context, tx pgx.Tx, j *Job) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO production_jobs (
			id, job_number, output_product_id, output_qty, status,
			notes, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid, $8, $9)`,
		j.ID, j.JobNumber, j.OutputProductID, j.OutputQty, string(j.Status),
		j.Notes, j.CreatedBy, j.CreatedAt, j.UpdatedAt)
	if err != nil {
		return err
	}
	for i := range j.Components {
		c := &j.Components[i]
		_, err = tx.Exec(ctx, `
			INSERT INTO bom_items (id, job_id, product_id, quantity)
			VALUES ($1, $2, $3, $4)`, c.ID, j.ID, c.ProductID, c.Quantity)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetJob fetches a job with its BOM.
func (r *Repository) GetJob(ctx context.Context, id string) (*Job, error) {
	j, err := scanJob(r.pool.QueryRow(ctx, selectJob+` WHERE j.id = $1`, id))
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT b.id, b.job_id, COALESCE(b.product_id::text, ''), COALESCE(p.name, ''), b.quantity
		FROM bom_items b
		LEFT JOIN products p ON p.id = b.product_id
		WHERE b.job_id = $1
		ORDER BY b.id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c BOMItem
		if err := rows.Scan(&c.ID, &c.JobID, &c.ProductID, &c.ProductName, &c.Quantity); err != nil {
			return nil, err
		}
		j.Components = append(j.Components, c)
	}
	return j, rows.Err()
}

// ListJobs returns jobs, newest first, optionally by status.
func (r *Repository) ListJobs(ctx context.Context, status JobStatus) ([]Job, error) {
	query := selectJob
	args := []any{}
	if status != "" {
		query += ` WHERE j.status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY j.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

// StartJob moves pending -> in_progress and consumes the BOM components:
// stock decrements plus negative production ledger entries, atomically.
func (r *Repository) StartJob(ctx context.Context, id, actorID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, `
		UPDATE production_jobs
		SET status = 'in_progress', started_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: job is not pending", shared.ErrConflict)
	}

	rows, err := tx.Query(ctx, `
		SELECT COALESCE(product_id::text, ''), quantity FROM bom_items WHERE job_id = $1`, id)
	if err != nil {
		return err
	}
	type component struct {
		productID string
		qty       int64
	}
	var components []component
	for rows.Next() {
		var c component
		if err := rows.Scan(&c.productID, &c.qty); err != nil {
			rows.Close()
			return err
		}
		components = append(components, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, c := range components {
		tag, err := tx.Exec(ctx, `
			UPDATE products
			SET stock_qty = stock_qty - $2, updated_at = NOW()
			WHERE id = $1 AND deleted_at IS NULL AND stock_qty >= $2`, c.productID, c.qty)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var name string
			var available int64
			err := tx.QueryRow(ctx, `
				SELECT name, stock_qty FROM products
				WHERE id = $1 AND deleted_at IS NULL`, c.productID).Scan(&name, &available)
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("component %s: %w", c.productID, shared.ErrNotFound)
			}
			if err != nil {
				return err
			}
			return &shared.StockError{ProductID: c.productID, ProductName: name, Requested: c.qty, Available: available}
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO inventory_transactions (
				id, product_id, transaction_type, quantity,
				reference_id, reference_type, created_by, created_at
			) VALUES ($1, $2, 'production', $3, $4, 'production_job', NULLIF($5, '')::uuid, NOW())`,
			uuid.NewString(), c.productID, -c.qty, id, actorID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// CompleteJob moves in_progress -> completed and adds the finished
// product stock with a positive production ledger entry.
func (r *Repository) CompleteJob(ctx context.Context, id, actorID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var outputProductID string
	var outputQty int64
	err = tx.QueryRow(ctx, `
		UPDATE production_jobs
		SET status = 'completed', completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'in_progress'
		RETURNING COALESCE(output_product_id::text, ''), output_qty`, id).
		Scan(&outputProductID, &outputQty)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: job is not in progress", shared.ErrConflict)
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE products SET stock_qty = stock_qty + $2, updated_at = NOW()
		WHERE id = $1`, outputProductID, outputQty); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO inventory_transactions (
			id, product_id, transaction_type, quantity,
			reference_id, reference_type, created_by, created_at
		) VALUES ($1, $2, 'production', $3, $4, 'production_job', NULLIF($5, '')::uuid, NOW())`,
		uuid.NewString(), outputProductID, outputQty, id, actorID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CancelJob cancels a job that has not started.
func (r *Repository) CancelJob(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE production_jobs SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: only pending jobs can be cancelled", shared.ErrConflict)
	}
	return nil
}

// NextJobNumber allocates the next sequential job number.
func (r *Repository) NextJobNumber(ctx context.Context) (string, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(CAST(SUBSTRING(job_number FROM 'JOB-(\d+)') AS bigint)), 0) + 1
		FROM production_jobs`).Scan(&n)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("JOB-%05d", n), nil
}
