package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReserveSnapshot is an externally-sourced attestation of backing-asset
// value. It is fetched fresh per validation and discarded after the decision;
// the orchestrator never caches or persists it.
type ReserveSnapshot struct {
	TotalReserveValue decimal.Decimal `json:"total_reserve_value"`
	AsOf              time.Time       `json:"as_of"`
}

// ReserveRejection carries the detail of an insufficient-reserves decision.
// Available and Requested are in integer base units, rendered as strings.
type ReserveRejection struct {
	Available string    `json:"available"`
	Requested string    `json:"requested"`
	AsOf      time.Time `json:"as_of"`
}
