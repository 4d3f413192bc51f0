package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validInstruction() *Instruction {
	return &Instruction{
		TransactionID:      "txn-001",
		BeneficiaryAccount: "acct-alice",
		Amount:             "100000",
		CurrencyCode:       "USD",
		BankReference:      "REF-2024-001",
	}
}

func TestInstructionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Instruction)
		wantErr bool
	}{
		{
			name:   "valid without cross-chain",
			mutate: func(i *Instruction) {},
		},
		{
			name: "valid with cross-chain",
			mutate: func(i *Instruction) {
				i.CrossChain = &CrossChainRequest{
					Enabled:                true,
					DestinationChainID:     16015286601757825753,
					DestinationBeneficiary: "acct-bob",
				}
			},
		},
		{
			name: "cross-chain disabled needs no destination",
			mutate: func(i *Instruction) {
				i.CrossChain = &CrossChainRequest{Enabled: false}
			},
		},
		{
			name:    "missing transaction ID",
			mutate:  func(i *Instruction) { i.TransactionID = " " },
			wantErr: true,
		},
		{
			name:    "missing beneficiary",
			mutate:  func(i *Instruction) { i.BeneficiaryAccount = "" },
			wantErr: true,
		},
		{
			name:    "missing amount",
			mutate:  func(i *Instruction) { i.Amount = "" },
			wantErr: true,
		},
		{
			name: "cross-chain enabled without destination chain",
			mutate: func(i *Instruction) {
				i.CrossChain = &CrossChainRequest{
					Enabled:                true,
					DestinationBeneficiary: "acct-bob",
				}
			},
			wantErr: true,
		},
		{
			name: "cross-chain enabled without destination beneficiary",
			mutate: func(i *Instruction) {
				i.CrossChain = &CrossChainRequest{
					Enabled:            true,
					DestinationChainID: 1,
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instr := validInstruction()
			tt.mutate(instr)

			err := instr.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCrossChainEnabled(t *testing.T) {
	instr := validInstruction()
	assert.False(t, instr.CrossChainEnabled())

	instr.CrossChain = &CrossChainRequest{Enabled: false}
	assert.False(t, instr.CrossChainEnabled())

	instr.CrossChain.Enabled = true
	assert.True(t, instr.CrossChainEnabled())
}
