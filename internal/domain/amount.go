package domain

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a decimal-string amount and scales it to integer base
// units using the configured decimal count. The amount must be strictly
// positive and must not carry more fractional digits than the scale allows;
// both conditions are validation failures, not rounding opportunities.
func ParseAmount(amount string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, &ValidationError{Field: "amount", Reason: fmt.Sprintf("not a decimal: %q", amount)}
	}
	if !d.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "amount must be strictly positive"}
	}

	scaled := d.Shift(decimals)
	if !scaled.IsInteger() {
		return nil, &ValidationError{
			Field:  "amount",
			Reason: fmt.Sprintf("more than %d fractional digits", decimals),
		}
	}

	return scaled.BigInt(), nil
}

// ScaleValue scales an externally-sourced decimal value (such as a reserve
// snapshot total) to the same integer base as ParseAmount so that comparisons
// happen in integer space. Fractional dust beyond the scale is truncated
// toward zero, which only ever under-reports reserves.
func ScaleValue(value decimal.Decimal, decimals int32) *big.Int {
	return value.Shift(decimals).Truncate(0).BigInt()
}
