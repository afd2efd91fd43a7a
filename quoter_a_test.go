package steamm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuoteLogInvariantScenarios(t *testing.T) {
	const (
		decimalsX = 9
		decimalsY = 6
		amplifier = 1
		reserveX  = 1_000_000_000_000
		reserveY  = 1_000_000_000
	)
	priceX := DecimalFromUint64(3)
	priceY := DecimalFromUint64(1)

	testcases := []struct {
		amountIn uint64
		x2y      bool
		wantOut  uint64
	}{
		{amountIn: 10_000_000, x2y: false, wantOut: 3_327_783_945},
		{amountIn: 100_000_000, x2y: false, wantOut: 32_783_899_517},
		{amountIn: 10_000_000_000, x2y: true, wantOut: 29_554_466},
		{amountIn: 100_000_000_000, x2y: true, wantOut: 259_181_779},
	}

	for _, tc := range testcases {
		got, err := quoteLogInvariant(tc.amountIn, reserveX, reserveY, priceX, priceY, decimalsX, decimalsY, amplifier, tc.x2y)
		require.NoError(t, err)
		require.Equal(t, tc.wantOut, got, "amountIn=%d x2y=%v", tc.amountIn, tc.x2y)
	}
}

func TestQuoteLogInvariantZeroIn(t *testing.T) {
	got, err := quoteLogInvariant(0, 1_000_000_000_000, 1_000_000_000, DecimalFromUint64(3), DecimalFromUint64(1), 9, 6, 1, false)
	require.NoError(t, err)
	require.Zero(t, got)
}

func TestQuoteLogInvariantNeverExceedsOppositeReserve(t *testing.T) {
	got, err := quoteLogInvariant(1_000_000_000_000_000, 1_000_000_000_000, 1_000_000_000, DecimalFromUint64(3), DecimalFromUint64(1), 9, 6, 1, false)
	require.NoError(t, err)
	require.LessOrEqual(t, got, uint64(1_000_000_000_000))
}
