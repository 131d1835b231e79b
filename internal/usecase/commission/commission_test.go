package commission

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name        string
		amountCents int64
		want        int64
	}{
		{name: "Zero", amountCents: 0, want: 0},
		{name: "One cent rounds down to zero", amountCents: 1, want: 0},
		{name: "0.33 rounds down", amountCents: 33, want: 0},
		{name: "0.34 rounds half up", amountCents: 34, want: 1},
		{name: "0.67 gives one cent", amountCents: 67, want: 1},
		{name: "1.00 gives two cents", amountCents: 100, want: 2},
		{name: "10.00 gives fifteen cents", amountCents: 1000, want: 15},
		{name: "20.00 gives thirty cents", amountCents: 2000, want: 30},
		{name: "100.00 gives 1.50", amountCents: 10000, want: 150},
		{name: "1e14 units", amountCents: 10000000000000000, want: 150000000000000},
		{name: "Largest int64", amountCents: math.MaxInt64, want: 138350580552821637},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calculate(tt.amountCents)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculate_Negative(t *testing.T) {
	_, err := Calculate(-1)
	assert.Error(t, err)
}

func TestCalculate_MatchesDecimalRounding(t *testing.T) {
	rate := decimal.New(RateNumerator, 0).Div(decimal.New(RateDenominator, 0))

	check := func(amountCents int64) {
		want := decimal.NewFromInt(amountCents).Mul(rate).Round(0).IntPart()

		got, err := Calculate(amountCents)
		require.NoError(t, err)
		assert.Equal(t, want, got, "amount %d", amountCents)
	}

	for amountCents := int64(0); amountCents <= 5000; amountCents++ {
		check(amountCents)
	}
	for _, amountCents := range []int64{123456789, 987654321012, math.MaxInt64 / 3, math.MaxInt64 - 1, math.MaxInt64} {
		check(amountCents)
	}
}
