package domain

import (
	"fmt"
	"strings"
)

// Instruction is the inbound mint request, shaped like a bank transfer
// notification. TransactionID is caller-assigned and globally unique within
// the store's retention window.
type Instruction struct {
	TransactionID      string             `json:"transactionId"`
	BeneficiaryAccount string             `json:"beneficiaryAccount"`
	Amount             string             `json:"amount"`
	CurrencyCode       string             `json:"currencyCode"`
	BankReference      string             `json:"bankReference"`
	CrossChain         *CrossChainRequest `json:"crossChain,omitempty"`
}

// CrossChainRequest is the optional cross-chain leg of an instruction. When
// Enabled is true both the destination chain and beneficiary are mandatory;
// absence is a validation failure, never a silent skip.
type CrossChainRequest struct {
	Enabled                bool   `json:"enabled"`
	DestinationChainID     uint64 `json:"destinationChainId,omitempty"`
	DestinationBeneficiary string `json:"destinationBeneficiary,omitempty"`
}

// CrossChainEnabled reports whether the instruction carries a cross-chain leg.
func (i *Instruction) CrossChainEnabled() bool {
	return i.CrossChain != nil && i.CrossChain.Enabled
}

// Validate checks the instruction structurally. It does not parse the amount;
// amount scaling is a separate step so that the configured decimal count is
// applied exactly once.
func (i *Instruction) Validate() error {
	if i == nil {
		return &ValidationError{Field: "instruction", Reason: "instruction is nil"}
	}
	if strings.TrimSpace(i.TransactionID) == "" {
		return &ValidationError{Field: "transactionId", Reason: "transaction ID is required"}
	}
	if strings.TrimSpace(i.BeneficiaryAccount) == "" {
		return &ValidationError{Field: "beneficiaryAccount", Reason: "beneficiary account is required"}
	}
	if strings.TrimSpace(i.Amount) == "" {
		return &ValidationError{Field: "amount", Reason: "amount is required"}
	}
	if i.CrossChainEnabled() {
		if i.CrossChain.DestinationChainID == 0 {
			return &ValidationError{Field: "crossChain.destinationChainId", Reason: "destination chain is required when cross-chain is enabled"}
		}
		if strings.TrimSpace(i.CrossChain.DestinationBeneficiary) == "" {
			return &ValidationError{Field: "crossChain.destinationBeneficiary", Reason: "destination beneficiary is required when cross-chain is enabled"}
		}
	}
	return nil
}

// ValidationError reports a malformed instruction. It is returned before any
// stage is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid instruction: %s: %s", e.Field, e.Reason)
}
