package steamm

import "fmt"

const (
	bpsScale             = 10_000
	protocolFeeNumerator = 2_000
)

// QuoterType selects which swap-quoting algorithm a SteammPool uses.
// Ommv2Legacy is the original logarithmic-invariant Newton-Raphson
// solver; Ommv2 is the newer integer Curve-style stableswap solver,
// which additionally requires oracle price confidence for its fee
// override.
type QuoterType int

const (
	QuoterOmmv2Legacy QuoterType = iota
	QuoterOmmv2
)

// SteammPool holds the reserves and configuration needed to quote a
// swap; it carries no mutable state of its own.
type SteammPool struct {
	BTokenReserveX uint64
	BTokenReserveY uint64
	DecimalsX      uint32
	DecimalsY      uint32
	Amplifier      uint32
	SwapFeeBps     uint64
	QuoterType     QuoterType
}

// SwapQuote is the result of quoting a swap: AmountOut is net of both
// fee components.
type SwapQuote struct {
	AmountIn     uint64
	AmountOut    uint64
	ProtocolFees uint64
	PoolFees     uint64
	A2B          bool
}

// safeMulDivUp computes ceil(x*y/z) in 128-bit arithmetic, erroring on a
// zero divisor or a result that doesn't fit back into a uint64.
func safeMulDivUp(x, y, z uint64) (uint64, error) {
	if z == 0 {
		return 0, fmt.Errorf("safe_mul_div_up %d*%d/%d: %w", x, y, z, ErrZeroDivision)
	}

	xy, err := u128FromU64(x).Mul64(y)
	if err != nil {
		return 0, fmt.Errorf("safe_mul_div_up %d*%d/%d: %w", x, y, z, err)
	}

	q, r, err := xy.QuoRem(u128FromU64(z))
	if err != nil {
		return 0, fmt.Errorf("safe_mul_div_up %d*%d/%d: %w", x, y, z, err)
	}

	if !r.IsZero() {
		q, err = q.Add64(1)
		if err != nil {
			return 0, fmt.Errorf("safe_mul_div_up %d*%d/%d: %w", x, y, z, err)
		}
	}

	return q.toUint64()
}

// swapFeeOverrideWins reports whether overrideNum, as a fraction of
// BPS_SCALE, is strictly larger than swapFeeBps as a fraction of
// BPS_SCALE.
func swapFeeOverrideWins(overrideNum, swapFeeBps uint64) (bool, error) {
	lhs, err := u128FromU64(overrideNum).Mul64(bpsScale)
	if err != nil {
		return false, err
	}
	rhs, err := u128FromU64(swapFeeBps).Mul64(bpsScale)
	if err != nil {
		return false, err
	}
	return lhs.Cmp(rhs) > 0, nil
}

// computeSwapFees splits amount's fee into a protocol cut and a pool
// cut. When overrideNumerator is set and larger than swapFeeBps, it is
// used as the pool's fee rate in place of swapFeeBps.
func computeSwapFees(amount uint64, swapFeeBps uint64, overrideNumerator *uint64) (protocolFees, poolFees uint64, err error) {
	poolFeeNum, poolFeeDenom := swapFeeBps, uint64(bpsScale)

	if overrideNumerator != nil {
		wins, err := swapFeeOverrideWins(*overrideNumerator, swapFeeBps)
		if err != nil {
			return 0, 0, fmt.Errorf("compute_swap_fees: %w", err)
		}
		if wins {
			poolFeeNum, poolFeeDenom = *overrideNumerator, bpsScale
		}
	}

	totalFees, err := safeMulDivUp(amount, poolFeeNum, poolFeeDenom)
	if err != nil {
		return 0, 0, fmt.Errorf("compute_swap_fees: %w", err)
	}

	protocolFees, err = safeMulDivUp(totalFees, protocolFeeNumerator, bpsScale)
	if err != nil {
		return 0, 0, fmt.Errorf("compute_swap_fees: %w", err)
	}
	if protocolFees > totalFees {
		protocolFees = totalFees
	}

	return protocolFees, totalFees - protocolFees, nil
}

// newQuote wraps a raw amount_out into a SwapQuote, deducting protocol
// and pool fees (saturating, never going below zero).
func newQuote(amountIn, amountOut uint64, a2b bool, swapFeeBps uint64, overrideNumerator *uint64) (SwapQuote, error) {
	protocolFees, poolFees, err := computeSwapFees(amountOut, swapFeeBps, overrideNumerator)
	if err != nil {
		return SwapQuote{}, fmt.Errorf("get_quote: %w", err)
	}

	net := amountOut
	if protocolFees >= net {
		net = 0
	} else {
		net -= protocolFees
	}
	if poolFees >= net {
		net = 0
	} else {
		net -= poolFees
	}

	return SwapQuote{
		AmountIn:     amountIn,
		AmountOut:    net,
		ProtocolFees: protocolFees,
		PoolFees:     poolFees,
		A2B:          a2b,
	}, nil
}

// toUnderlying converts a b-token amount to its underlying amount using
// the b-token ratio, rounding down.
func toUnderlying(bTokenAmount uint64, bTokenRatio Decimal) (uint64, error) {
	amount, err := DecimalFromUint64(bTokenAmount).CheckedMul(bTokenRatio)
	if err != nil {
		return 0, fmt.Errorf("to_underlying: %w", err)
	}
	return amount.FloorUint64()
}

// toBToken converts an underlying amount to its b-token amount using the
// b-token ratio, rounding down.
func toBToken(amount uint64, bTokenRatio Decimal) (uint64, error) {
	bAmount, err := DecimalFromUint64(amount).CheckedDiv(bTokenRatio)
	if err != nil {
		return 0, fmt.Errorf("to_b_token: %w", err)
	}
	return bAmount.FloorUint64()
}

// confidenceRatio computes floor(confidence*BPS_SCALE/price).
func confidenceRatio(confidence, price Decimal) (uint64, error) {
	scaled, err := confidence.CheckedMul(DecimalFromUint64(bpsScale))
	if err != nil {
		return 0, fmt.Errorf("confidence ratio: %w", err)
	}

	ratio, err := scaled.CheckedDiv(price)
	if err != nil {
		return 0, fmt.Errorf("confidence ratio: %w", err)
	}

	return ratio.FloorUint64()
}

// priceConfidenceOverride computes the fee override numerator the Ommv2
// quoter derives from oracle price confidence: the larger of the two
// sides' confidence-to-price ratios, expressed in basis points.
func priceConfidenceOverride(confidenceX, confidenceY *Decimal, priceX, priceY Decimal) (uint64, error) {
	if confidenceX == nil || confidenceY == nil {
		return 0, fmt.Errorf("ommv2 quote: price confidence required: %w", ErrOutOfRange)
	}

	urX, err := confidenceRatio(*confidenceX, priceX)
	if err != nil {
		return 0, err
	}
	urY, err := confidenceRatio(*confidenceY, priceY)
	if err != nil {
		return 0, err
	}

	if urY > urX {
		return urY, nil
	}
	return urX, nil
}

// QuoteSwap quotes a swap of bTokenAmountIn against pool, in the
// direction x2y (true: paying in token X's b-tokens, receiving token
// Y's) or the reverse. priceConfidenceX/Y are required when pool's
// quoter is QuoterOmmv2 and ignored otherwise.
func QuoteSwap(
	pool SteammPool,
	bTokenAmountIn uint64,
	priceX, priceY Decimal,
	x2y bool,
	bTokenRatioX, bTokenRatioY Decimal,
	priceConfidenceX, priceConfidenceY *Decimal,
) (SwapQuote, error) {
	switch pool.QuoterType {
	case QuoterOmmv2Legacy:
		ratioIn, ratioOut := bTokenRatioX, bTokenRatioY
		if !x2y {
			ratioIn, ratioOut = bTokenRatioY, bTokenRatioX
		}

		underlyingIn, err := toUnderlying(bTokenAmountIn, ratioIn)
		if err != nil {
			return SwapQuote{}, err
		}

		underlyingReserveX, err := toUnderlying(pool.BTokenReserveX, bTokenRatioX)
		if err != nil {
			return SwapQuote{}, err
		}
		underlyingReserveY, err := toUnderlying(pool.BTokenReserveY, bTokenRatioY)
		if err != nil {
			return SwapQuote{}, err
		}

		underlyingOut, err := quoteLogInvariant(underlyingIn, underlyingReserveX, underlyingReserveY, priceX, priceY, pool.DecimalsX, pool.DecimalsY, pool.Amplifier, x2y)
		if err != nil {
			return SwapQuote{}, err
		}

		bTokenOut, err := toBToken(underlyingOut, ratioOut)
		if err != nil {
			return SwapQuote{}, err
		}

		return newQuote(bTokenAmountIn, bTokenOut, x2y, pool.SwapFeeBps, nil)

	case QuoterOmmv2:
		overrideNumerator, err := priceConfidenceOverride(priceConfidenceX, priceConfidenceY, priceX, priceY)
		if err != nil {
			return SwapQuote{}, err
		}

		bTokenOut, err := quoteCurveStable(bTokenAmountIn, pool.BTokenReserveX, pool.BTokenReserveY, priceX, priceY, pool.DecimalsX, pool.DecimalsY, pool.Amplifier, x2y)
		if err != nil {
			return SwapQuote{}, err
		}

		return newQuote(bTokenAmountIn, bTokenOut, x2y, pool.SwapFeeBps, &overrideNumerator)

	default:
		return SwapQuote{}, fmt.Errorf("quote swap: unknown quoter type %d: %w", pool.QuoterType, ErrOutOfRange)
	}
}
