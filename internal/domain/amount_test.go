package domain

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int32
		want     string
		wantErr  bool
	}{
		{
			name:     "whole amount scaled by 18",
			amount:   "100000",
			decimals: 18,
			want:     "100000000000000000000000",
		},
		{
			name:     "fractional amount within scale",
			amount:   "1.5",
			decimals: 2,
			want:     "150",
		},
		{
			name:     "exact scale boundary",
			amount:   "0.01",
			decimals: 2,
			want:     "1",
		},
		{
			name:     "too many fractional digits",
			amount:   "0.001",
			decimals: 2,
			wantErr:  true,
		},
		{
			name:     "zero amount",
			amount:   "0",
			decimals: 18,
			wantErr:  true,
		},
		{
			name:     "negative amount",
			amount:   "-5",
			decimals: 18,
			wantErr:  true,
		},
		{
			name:     "not a number",
			amount:   "10k",
			decimals: 18,
			wantErr:  true,
		},
		{
			name:     "empty",
			amount:   "",
			decimals: 18,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.amount, tt.decimals)
			if tt.wantErr {
				require.Error(t, err)
				var validationErr *ValidationError
				assert.ErrorAs(t, err, &validationErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestScaleValue(t *testing.T) {
	reserves := decimal.RequireFromString("500000")
	scaled := ScaleValue(reserves, 18)

	want, _ := new(big.Int).SetString("500000000000000000000000", 10)
	assert.Equal(t, 0, scaled.Cmp(want))
}

func TestScaleValueTruncatesDust(t *testing.T) {
	// Dust below the scale must truncate toward zero, never round up.
	v := decimal.RequireFromString("1.005")
	assert.Equal(t, "100", ScaleValue(v, 2).String())
}
