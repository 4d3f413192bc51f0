package reserve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/porflow/porflow/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HTTPSource fetches reserve snapshots from an attestation endpoint.
type HTTPSource struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// snapshotResponse is the endpoint's wire format. The total is accepted as
// either a JSON number or a decimal string.
type snapshotResponse struct {
	TotalReserveValue decimal.Decimal `json:"totalReserveValue"`
	AsOf              time.Time       `json:"asOf"`
}

// NewHTTPSource creates a reserve source backed by an HTTP endpoint.
func NewHTTPSource(endpoint string, timeout time.Duration, logger *zap.Logger) *HTTPSource {
	return &HTTPSource{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Snapshot fetches a fresh reserve snapshot.
func (s *HTTPSource) Snapshot(ctx context.Context) (*domain.ReserveSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build reserve request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reserve snapshot: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reserve endpoint returned status %d", resp.StatusCode)
	}

	var body snapshotResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode reserve snapshot: %w", err)
	}

	total := body.TotalReserveValue
	asOf := body.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	s.logger.Debug("reserve snapshot fetched",
		zap.String("total_reserve_value", total.String()),
		zap.Time("as_of", asOf))

	return &domain.ReserveSnapshot{
		TotalReserveValue: total,
		AsOf:              asOf,
	}, nil
}
