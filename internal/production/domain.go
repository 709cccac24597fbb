package production

import "time"

// Job status progresses pending -> in_progress -> completed; cancel is
// only allowed while pending.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
	JobCancelled  JobStatus = "cancelled"
)

// Job is one workshop production run: consume BOM components, produce a
// finished product.
type Job struct {
	ID              string
	JobNumber       string
	OutputProductID string
	OutputName      string
	OutputQty       int64
	Status          JobStatus
	Notes           string
	StartedAt       time.Time
	CompletedAt     time.Time
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Components      []BOMItem
}

// BOMItem is one component consumed per job. Quantity is the total for
// the whole run, not per output unit.
type BOMItem struct {
	ID          string
	JobID       string
	ProductID   string
	ProductName string
	Quantity    int64
}
