package reserve

import (
	"context"
	"fmt"
	"time"

	"github.com/porflow/porflow/internal/domain"
	"github.com/shopspring/decimal"
)

// StaticSource returns a fixed configured reserve value. Selecting it is a
// configuration switch for demo mode, not a behavioral branch in the
// pipeline.
type StaticSource struct {
	value decimal.Decimal
}

// NewStaticSource creates a static reserve source from a decimal string.
func NewStaticSource(value string) (*StaticSource, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid static reserve value %q: %w", value, err)
	}
	return &StaticSource{value: d}, nil
}

// Snapshot returns the configured value stamped with the current time.
func (s *StaticSource) Snapshot(ctx context.Context) (*domain.ReserveSnapshot, error) {
	return &domain.ReserveSnapshot{
		TotalReserveValue: s.value,
		AsOf:              time.Now(),
	}, nil
}
