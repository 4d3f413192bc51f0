package domain

import "math/big"

// Report encoding layout, version 1. Reports are signed and re-validated
// downstream, so the byte layout is fixed and versioned: identical inputs
// must always produce identical bytes.
const (
	ReportVersion1 byte = 0x01

	ReportKindMint     byte = 0x01
	ReportKindTransfer byte = 0x02

	// Width of each identity, amount and bank-reference field.
	reportFieldWidth = 32
)

// MintReport is the canonical record submitted by the mint stage. Recipient
// is the account that receives the minted value, which is the custody account
// when a cross-chain leg follows.
type MintReport struct {
	Recipient     string
	Amount        *big.Int
	BankReference string
}

// Encode renders the report as version-1 fixed-layout bytes:
// version | kind | recipient[32] | amount[32] | bankRef[32].
func (r *MintReport) Encode() []byte {
	buf := make([]byte, 0, 2+3*reportFieldWidth)
	buf = append(buf, ReportVersion1, ReportKindMint)
	buf = appendPadded(buf, r.Recipient)
	buf = appendAmount(buf, r.Amount)
	buf = appendPadded(buf, r.BankReference)
	return buf
}

// TransferReport is the canonical record submitted by the transfer stage.
// Sender is always the custody account that received funds in the mint stage.
type TransferReport struct {
	DestinationChainID     uint64
	Sender                 string
	DestinationBeneficiary string
	Amount                 *big.Int
	BankReference          string
}

// Encode renders the report as version-1 fixed-layout bytes:
// version | kind | chainID[8] | sender[32] | beneficiary[32] | amount[32] | bankRef[32].
func (r *TransferReport) Encode() []byte {
	buf := make([]byte, 0, 2+8+4*reportFieldWidth)
	buf = append(buf, ReportVersion1, ReportKindTransfer)
	buf = append(buf,
		byte(r.DestinationChainID>>56), byte(r.DestinationChainID>>48),
		byte(r.DestinationChainID>>40), byte(r.DestinationChainID>>32),
		byte(r.DestinationChainID>>24), byte(r.DestinationChainID>>16),
		byte(r.DestinationChainID>>8), byte(r.DestinationChainID),
	)
	buf = appendPadded(buf, r.Sender)
	buf = appendPadded(buf, r.DestinationBeneficiary)
	buf = appendAmount(buf, r.Amount)
	buf = appendPadded(buf, r.BankReference)
	return buf
}

// appendPadded appends s as a left-aligned, zero-padded field, truncated to
// the fixed width.
func appendPadded(buf []byte, s string) []byte {
	field := make([]byte, reportFieldWidth)
	copy(field, s)
	return append(buf, field...)
}

// appendAmount appends the amount as a 256-bit big-endian integer.
func appendAmount(buf []byte, amount *big.Int) []byte {
	field := make([]byte, reportFieldWidth)
	if amount != nil {
		amount.FillBytes(field)
	}
	return append(buf, field...)
}
