package steamm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func onePointOhRatio() Decimal {
	return DecimalFromUint64(1)
}

func TestQuoteSwapZeroInZeroOut(t *testing.T) {
	pool := SteammPool{
		BTokenReserveX: 1_000_000_000_000,
		BTokenReserveY: 1_000_000_000,
		DecimalsX:      9,
		DecimalsY:      6,
		Amplifier:      1,
		SwapFeeBps:     30,
		QuoterType:     QuoterOmmv2Legacy,
	}

	quote, err := QuoteSwap(pool, 0, DecimalFromUint64(3), DecimalFromUint64(1), false, onePointOhRatio(), onePointOhRatio(), nil, nil)
	require.NoError(t, err)
	require.Zero(t, quote.AmountOut)
	require.Zero(t, quote.ProtocolFees)
	require.Zero(t, quote.PoolFees)
}

func TestQuoteSwapFeeDecomposition(t *testing.T) {
	protocolFees, poolFees, err := computeSwapFees(1_000_000, 30, nil)
	require.NoError(t, err)
	require.LessOrEqual(t, protocolFees, protocolFees+poolFees)

	totalFees, err := safeMulDivUp(1_000_000, 30, bpsScale)
	require.NoError(t, err)
	require.Equal(t, totalFees, protocolFees+poolFees)
}

func TestToUnderlyingToBTokenRoundDown(t *testing.T) {
	ratio := MustParseDecimal("1.000000019")

	underlying, err := toUnderlying(1_000, ratio)
	require.NoError(t, err)
	require.LessOrEqual(t, underlying, uint64(1_000))

	back, err := toBToken(underlying, ratio)
	require.NoError(t, err)
	require.LessOrEqual(t, back, uint64(1_000))
}

func TestQuoteSwapOmmv2LegacyEndToEnd(t *testing.T) {
	pool := SteammPool{
		BTokenReserveX: 1_000_000_000_000,
		BTokenReserveY: 1_000_000_000,
		DecimalsX:      9,
		DecimalsY:      6,
		Amplifier:      1,
		SwapFeeBps:     0,
		QuoterType:     QuoterOmmv2Legacy,
	}

	quote, err := QuoteSwap(pool, 10_000_000, DecimalFromUint64(3), DecimalFromUint64(1), false, onePointOhRatio(), onePointOhRatio(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(3_327_783_945), quote.AmountOut)
	require.False(t, quote.A2B)
}

func TestQuoteSwapOmmv2EndToEnd(t *testing.T) {
	pool := SteammPool{
		BTokenReserveX: 1_000_000_000_000,
		BTokenReserveY: 1_000_000_000,
		DecimalsX:      9,
		DecimalsY:      6,
		Amplifier:      1,
		SwapFeeBps:     0,
		QuoterType:     QuoterOmmv2,
	}

	// Expected output is the result of independently reimplementing
	// quoteCurveStable's §4.4 flow (SCALE and decimals included) in
	// arbitrary-precision arithmetic, matching quoter_b_test.go's
	// TestQuoteCurveStableScenarios row 1 (same pool shape, no fees).
	zero := zeroDecimal
	quote, err := QuoteSwap(pool, 10_000_000, DecimalFromUint64(3), DecimalFromUint64(1), false, onePointOhRatio(), onePointOhRatio(), &zero, &zero)
	require.NoError(t, err)
	require.Equal(t, uint64(6_078_291_737), quote.AmountOut)
}

func TestQuoteSwapOmmv2RequiresPriceConfidence(t *testing.T) {
	pool := SteammPool{
		BTokenReserveX: 1_000_000_000_000,
		BTokenReserveY: 1_000_000_000,
		DecimalsX:      9,
		DecimalsY:      6,
		Amplifier:      1,
		SwapFeeBps:     30,
		QuoterType:     QuoterOmmv2,
	}

	_, err := QuoteSwap(pool, 10_000_000, DecimalFromUint64(3), DecimalFromUint64(1), false, onePointOhRatio(), onePointOhRatio(), nil, nil)
	require.ErrorIs(t, err, ErrOutOfRange)
}
