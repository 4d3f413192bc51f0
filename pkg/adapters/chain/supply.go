package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"
)

// SupplyClient reads the issued token supply from the ledger endpoint. Only
// the supply-aware reserve policy consults it.
type SupplyClient struct {
	endpoint string
	client   *http.Client
}

type supplyResponse struct {
	// TotalSupply is in integer base units, rendered as a string.
	TotalSupply string `json:"totalSupply"`
}

// NewSupplyClient creates a ledger supply client.
func NewSupplyClient(endpoint string, timeout time.Duration) *SupplyClient {
	return &SupplyClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// CurrentSupply fetches the issued supply in integer base units.
func (c *SupplyClient) CurrentSupply(ctx context.Context) (*big.Int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build supply request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch supply: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("supply endpoint returned status %d", resp.StatusCode)
	}

	var body supplyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode supply response: %w", err)
	}

	supply, ok := new(big.Int).SetString(body.TotalSupply, 10)
	if !ok {
		return nil, fmt.Errorf("invalid supply value %q", body.TotalSupply)
	}

	return supply, nil
}
