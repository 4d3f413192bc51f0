package pipeline

import (
	"context"
	"fmt"
	"math/big"

	"github.com/porflow/porflow/internal/domain"
	"github.com/porflow/porflow/internal/ports"
)

// ReservePolicy selects the reserve sufficiency rule.
type ReservePolicy string

const (
	// ReservePolicySimple requires reserves to cover the requested mint
	// only. This ignores already-issued supply; it is the documented
	// behavior of the original demo flow and stays the default on purpose.
	ReservePolicySimple ReservePolicy = "simple"

	// ReservePolicySupplyAware requires reserves to cover the issued
	// supply plus the requested mint, read from the token ledger.
	ReservePolicySupplyAware ReservePolicy = "supply-aware"
)

// ReserveValidator decides whether a reserve snapshot covers a requested
// mint. Given the same snapshot and amount it always returns the same
// decision; the only external read is the supply lookup in supply-aware mode.
type ReserveValidator struct {
	policy   ReservePolicy
	supply   ports.SupplyReader
	decimals int32
}

// NewReserveValidator creates a reserve validator. The supply reader may be
// nil when the policy is simple.
func NewReserveValidator(policy ReservePolicy, supply ports.SupplyReader, decimals int32) (*ReserveValidator, error) {
	if policy == ReservePolicySupplyAware && supply == nil {
		return nil, fmt.Errorf("supply-aware reserve policy requires a supply reader")
	}
	return &ReserveValidator{
		policy:   policy,
		supply:   supply,
		decimals: decimals,
	}, nil
}

// Validate compares the scaled reserve value against the requested mint
// amount, both in integer base units. A nil rejection means reserves are
// sufficient. The returned error is reserved for supply-read failures, never
// for the business decision itself.
func (v *ReserveValidator) Validate(ctx context.Context, snapshot *domain.ReserveSnapshot, mintAmount *big.Int) (*domain.ReserveRejection, error) {
	available := domain.ScaleValue(snapshot.TotalReserveValue, v.decimals)

	required := new(big.Int).Set(mintAmount)
	if v.policy == ReservePolicySupplyAware {
		supply, err := v.supply.CurrentSupply(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read current supply: %w", err)
		}
		required.Add(required, supply)
	}

	if available.Cmp(required) < 0 {
		return &domain.ReserveRejection{
			Available: available.String(),
			Requested: required.String(),
			AsOf:      snapshot.AsOf,
		}, nil
	}

	return nil, nil
}
