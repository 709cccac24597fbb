package repairs

import (
	"time"

	"github.com/shopspring/decimal"
)

// Repair status walks the counter flow: received -> diagnosing ->
// in_repair -> ready -> delivered. The bench may send a piece back a
// step, so transitions are not forced forward; delivered is terminal.
type RepairStatus string

const (
	RepairReceived   RepairStatus = "received"
	RepairDiagnosing RepairStatus = "diagnosing"
	RepairInRepair   RepairStatus = "in_repair"
	RepairReady      RepairStatus = "ready"
	RepairDelivered  RepairStatus = "delivered"
)

// ValidStatus reports whether s is a known repair status.
func ValidStatus(s RepairStatus) bool {
	switch s {
	case RepairReceived, RepairDiagnosing, RepairInRepair, RepairReady, RepairDelivered:
		return true
	}
	return false
}

// Repair is one customer piece taken in for service. The piece never
// enters tracked stock; only the job and its costs are recorded.
type Repair struct {
	ID               string
	RepairNumber     string
	CustomerID       string
	CustomerName     string
	CustomerPhone    string
	ItemDescription  string
	IssueDescription string
	Status           RepairStatus
	ReceivedDate     time.Time
	ExpectedDate     time.Time
	DeliveredDate    time.Time
	EstimatedCost    decimal.Decimal
	FinalCost        decimal.Decimal
	AdvancePaid      decimal.Decimal
	AssignedTo       string
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
