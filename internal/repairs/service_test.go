package repairs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jewelms/jewelms/internal/shared"
)

const customerAsha = "11111111-1111-1111-1111-111111111111"

type fakeRepairRepo struct {
	repairs map[string]*Repair
	serial  int64
}

func newFakeRepairRepo() *fakeRepairRepo {
	return &fakeRepairRepo{repairs: make(map[string]*Repair)}
}

func (f *fakeRepairRepo) CreateRepair(_ context.Context, rep *Repair) error {
	cp := *rep
	f.repairs[rep.ID] = &cp
	return nil
}

func (f *fakeRepairRepo) GetRepair(_ context.Context, id string) (*Repair, error) {
	rep, ok := f.repairs[id]
	if !ok {
		return nil, fmt.Errorf("repair: %w", shared.ErrNotFound)
	}
	cp := *rep
	return &cp, nil
}

func (f *fakeRepairRepo) ListRepairs(_ context.Context, status RepairStatus) ([]Repair, error) {
	var out []Repair
	for _, rep := range f.repairs {
		if status == "" || rep.Status == status {
			out = append(out, *rep)
		}
	}
	return out, nil
}

func (f *fakeRepairRepo) UpdateRepair(_ context.Context, rep *Repair) error {
	if _, ok := f.repairs[rep.ID]; !ok {
		return fmt.Errorf("repair: %w", shared.ErrNotFound)
	}
	cp := *rep
	f.repairs[rep.ID] = &cp
	return nil
}

func (f *fakeRepairRepo) UpdateStatus(_ context.Context, id string, status RepairStatus, deliveredAt time.Time) error {
	rep, ok := f.repairs[id]
	if !ok {
		return fmt.Errorf("repair: %w", shared.ErrNotFound)
	}
	if rep.Status == RepairDelivered {
		return fmt.Errorf("%w: repair already delivered", shared.ErrConflict)
	}
	rep.Status = status
	if !deliveredAt.IsZero() {
		rep.DeliveredDate = deliveredAt
	}
	return nil
}

func (f *fakeRepairRepo) NextRepairNumber(_ context.Context) (string, error) {
	f.serial++
	return fmt.Sprintf("REP-%04d", f.serial), nil
}

func newTestService() (*Service, *fakeRepairRepo) {
	repo := newFakeRepairRepo()
	svc := NewService(repo, nil)
	svc.now = func() time.Time {
		return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	}
	return svc, repo
}

func intake() CreateRepairInput {
	return CreateRepairInput{
		CustomerID:       customerAsha,
		ItemDescription:  "22K gold bangle",
		IssueDescription: "broken clasp",
		EstimatedCost:    decimal.NewFromInt(800),
		AdvancePaid:      decimal.NewFromInt(200),
	}
}

func TestCreateRepair(t *testing.T) {
	svc, _ := newTestService()

	rep, err := svc.CreateRepair(context.Background(), intake())
	require.NoError(t, err)
	require.Equal(t, "REP-0001", rep.RepairNumber)
	require.Equal(t, RepairReceived, rep.Status)
	require.Equal(t, "2025-06-15", rep.ReceivedDate.Format("2006-01-02"))

	second, err := svc.CreateRepair(context.Background(), intake())
	require.NoError(t, err)
	require.Equal(t, "REP-0002", second.RepairNumber)
}

func TestCreateRepairValidation(t *testing.T) {
	svc, _ := newTestService()

	in := intake()
	in.ItemDescription = ""
	_, err := svc.CreateRepair(context.Background(), in)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "item_description", verr.Field)

	in = intake()
	in.AdvancePaid = decimal.NewFromInt(-1)
	_, err = svc.CreateRepair(context.Background(), in)
	require.Error(t, err)
}

func TestDeliveredStampsDateAndSeals(t *testing.T) {
	svc, _ := newTestService()

	rep, err := svc.CreateRepair(context.Background(), intake())
	require.NoError(t, err)

	rep, err = svc.UpdateStatus(context.Background(), rep.ID, RepairReady, "user-1", "1.2.3.4")
	require.NoError(t, err)
	require.Equal(t, RepairReady, rep.Status)
	require.True(t, rep.DeliveredDate.IsZero())

	rep, err = svc.UpdateStatus(context.Background(), rep.ID, RepairDelivered, "user-1", "1.2.3.4")
	require.NoError(t, err)
	require.Equal(t, "2025-06-15", rep.DeliveredDate.Format("2006-01-02"))

	_, err = svc.UpdateStatus(context.Background(), rep.ID, RepairInRepair, "user-1", "1.2.3.4")
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestUpdateStatusRejectsUnknown(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.UpdateStatus(context.Background(), "any", "smelted", "user-1", "")
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestUpdateRepairPartial(t *testing.T) {
	svc, _ := newTestService()

	rep, err := svc.CreateRepair(context.Background(), intake())
	require.NoError(t, err)

	final := decimal.NewFromInt(950)
	notes := "replaced clasp with new lock"
	rep, err = svc.UpdateRepair(context.Background(), rep.ID, RepairUpdate{
		FinalCost: &final,
		Notes:     &notes,
	}, "user-1", "1.2.3.4")
	require.NoError(t, err)
	require.True(t, rep.FinalCost.Equal(final))
	require.Equal(t, notes, rep.Notes)
	require.Equal(t, "22K gold bangle", rep.ItemDescription)
}
