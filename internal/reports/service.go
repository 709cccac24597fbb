package reports

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jewelms/jewelms/internal/shared"
)

// RepositoryPort defines the aggregate queries the reports need.
type RepositoryPort interface {
	GSTSummary(ctx context.Context, from, to time.Time) (*GSTSummary, error)
	SalesByDay(ctx context.Context, from, to time.Time) ([]DailySales, error)
	StockValuation(ctx context.Context) ([]CategoryValuation, error)
}

// Service serves reports. Concurrent requests for the same report and
// period share a single underlying query.
type Service struct {
	repo  RepositoryPort
	group singleflight.Group
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func validPeriod(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return shared.Invalid("period", "from and to are required")
	}
	if to.Before(from) {
		return shared.Invalid("period", "to must not precede from")
	}
	return nil
}

// GST returns the tax summary for the period.
func (s *Service) GST(ctx context.Context, from, to time.Time) (*GSTSummary, error) {
	if err := validPeriod(from, to); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("gst:%s:%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.repo.GSTSummary(ctx, from, to)
	})
	if err != nil {
		return nil, err
	}
	return v.(*GSTSummary), nil
}

// Sales returns per-day revenue for the period.
func (s *Service) Sales(ctx context.Context, from, to time.Time) ([]DailySales, error) {
	if err := validPeriod(from, to); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("sales:%s:%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.repo.SalesByDay(ctx, from, to)
	})
	if err != nil {
		return nil, err
	}
	return v.([]DailySales), nil
}

// Valuation returns the current stock valuation by category.
func (s *Service) Valuation(ctx context.Context) ([]CategoryValuation, error) {
	v, err, _ := s.group.Do("valuation", func() (any, error) {
		return s.repo.StockValuation(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]CategoryValuation), nil
}
