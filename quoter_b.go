package steamm

import "fmt"

const (
	curveMaxIter = 255
	aPrecision   = 100
	curveScale   = 10_000_000_000
)

// splitPrice decomposes a Decimal price p into an integer part and, when
// p has a fractional part, the (rounded) reciprocal of that fractional
// part. The Curve-style solvers below work entirely in integer
// arithmetic; representing the fractional remainder as its own
// reciprocal lets to_usd/from_usd approximate a fractional multiply with
// only integer multiplication and division.
func splitPrice(p Decimal) (intPart uint64, invFrac uint64, hasFrac bool, err error) {
	q, r, err := p.raw.QuoRem(wad)
	if err != nil {
		return 0, 0, false, fmt.Errorf("split_price %s: %w", p, err)
	}

	whole128, err := q.toU128()
	if err != nil {
		return 0, 0, false, fmt.Errorf("split_price %s: %w", p, err)
	}
	whole, err := whole128.toUint64()
	if err != nil {
		return 0, 0, false, fmt.Errorf("split_price %s: %w", p, err)
	}

	if r.IsZero() {
		return whole, 0, false, nil
	}

	invWide, _, err := wad.QuoRem(r)
	if err != nil {
		return 0, 0, false, fmt.Errorf("split_price %s: %w", p, err)
	}

	inv128, err := invWide.toU128()
	if err != nil {
		return 0, 0, false, fmt.Errorf("split_price %s: %w", p, err)
	}

	inv, err := inv128.toUint64()
	if err != nil {
		return 0, 0, false, fmt.Errorf("split_price %s: %w", p, err)
	}

	return whole, inv, true, nil
}

// toUSD converts a b-token amount x into a common comparison unit using
// the decomposed price (intPart, invFrac): x*intPart exactly, plus
// x/invFrac approximating the fractional contribution x*frac.
func toUSD(x uint64, intPart, invFrac uint64, hasFrac bool) (uint64, error) {
	whole, err := u128FromU64(x).Mul64(intPart)
	if err != nil {
		return 0, fmt.Errorf("to_usd %d*%d: %w", x, intPart, err)
	}

	if !hasFrac {
		return whole.toUint64()
	}

	frac := x / invFrac
	total, err := whole.Add64(frac)
	if err != nil {
		return 0, fmt.Errorf("to_usd %d: %w", x, err)
	}

	return total.toUint64()
}

// fromUSD inverts toUSD: given usd = x*intPart + x/invFrac, it solves
// exactly for x = usd*invFrac/(intPart*invFrac + 1).
func fromUSD(usd uint64, intPart, invFrac uint64, hasFrac bool) (uint64, error) {
	if !hasFrac {
		if intPart == 0 {
			return 0, fmt.Errorf("from_usd %d: %w", usd, ErrZeroDivision)
		}
		return usd / intPart, nil
	}

	denom, err := u128FromU64(intPart).Mul64(invFrac)
	if err != nil {
		return 0, fmt.Errorf("from_usd %d: %w", usd, err)
	}
	denom, err = denom.Add64(1)
	if err != nil {
		return 0, fmt.Errorf("from_usd %d: %w", usd, err)
	}

	num, err := u128FromU64(usd).Mul64(invFrac)
	if err != nil {
		return 0, fmt.Errorf("from_usd %d: %w", usd, err)
	}

	q, _, err := num.QuoRem(denom)
	if err != nil {
		return 0, fmt.Errorf("from_usd %d: %w", usd, err)
	}

	return q.toUint64()
}

// pow10U128 returns 10^n, erroring if the result overflows 128 bits.
func pow10U128(n uint32) (u128, error) {
	result := u128FromU64(1)
	for i := uint32(0); i < n; i++ {
		var err error
		result, err = result.Mul64(10)
		if err != nil {
			return u128{}, fmt.Errorf("pow10 %d: %w", n, err)
		}
	}
	return result, nil
}

// scaledUSD computes to_usd(x*SCALE, intPart, invFrac)/10^decimals, the
// per-side USD normalization used to bring reserves and the input
// amount onto a common scale before the Curve solvers run.
func scaledUSD(x uint64, intPart, invFrac uint64, hasFrac bool, decimals uint32) (uint64, error) {
	xScaled, err := u128FromU64(x).Mul64(curveScale)
	if err != nil {
		return 0, fmt.Errorf("scaled_usd %d: %w", x, err)
	}

	whole, err := xScaled.Mul64(intPart)
	if err != nil {
		return 0, fmt.Errorf("scaled_usd %d: %w", x, err)
	}

	if hasFrac {
		frac, _, err := xScaled.QuoRem(u128FromU64(invFrac))
		if err != nil {
			return 0, fmt.Errorf("scaled_usd %d: %w", x, err)
		}
		whole, err = whole.Add(frac)
		if err != nil {
			return 0, fmt.Errorf("scaled_usd %d: %w", x, err)
		}
	}

	pow, err := pow10U128(decimals)
	if err != nil {
		return 0, fmt.Errorf("scaled_usd %d: %w", x, err)
	}

	result, _, err := whole.QuoRem(pow)
	if err != nil {
		return 0, fmt.Errorf("scaled_usd %d: %w", x, err)
	}

	return result.toUint64()
}

// descaleToken inverts scaledUSD's decimals/SCALE normalization on the
// output side: x*10^decimals/SCALE.
func descaleToken(x uint64, decimals uint32) (uint64, error) {
	pow, err := pow10U128(decimals)
	if err != nil {
		return 0, fmt.Errorf("descale_token %d: %w", x, err)
	}

	scaled, err := u128FromU64(x).Mul(pow)
	if err != nil {
		return 0, fmt.Errorf("descale_token %d: %w", x, err)
	}

	result, _, err := scaled.QuoRem(u128FromU64(curveScale))
	if err != nil {
		return 0, fmt.Errorf("descale_token %d: %w", x, err)
	}

	return result.toUint64()
}

// computeDP evaluates D*D/reserveA*D/reserveB/4, dividing between each
// multiplication (rather than computing D^3 outright) to keep every
// intermediate within 128 bits.
func computeDP(d, reserveA, reserveB u128) (u128, error) {
	if reserveA.IsZero() || reserveB.IsZero() {
		return u128{}, fmt.Errorf("get_d: zero reserve: %w", ErrZeroDivision)
	}

	dd, err := d.Mul(d)
	if err != nil {
		return u128{}, err
	}
	step1, _, err := dd.QuoRem(reserveA)
	if err != nil {
		return u128{}, err
	}

	step2, err := step1.Mul(d)
	if err != nil {
		return u128{}, err
	}
	step3, _, err := step2.QuoRem(reserveB)
	if err != nil {
		return u128{}, err
	}

	dp, _, err := step3.QuoRem(u128FromU64(4))
	if err != nil {
		return u128{}, err
	}

	return dp, nil
}

// getD solves the Curve StableSwap invariant for D given two reserves
// and the amplified A coefficient ann = 2*amplifier*A_PRECISION.
func getD(reserveA, reserveB uint64, ann uint64) (uint64, error) {
	ra := u128FromU64(reserveA)
	rb := u128FromU64(reserveB)
	annW := u128FromU64(ann)
	aPrec := u128FromU64(aPrecision)

	s, err := ra.Add(rb)
	if err != nil {
		return 0, fmt.Errorf("get_d: %w", err)
	}
	if s.IsZero() {
		return 0, nil
	}

	d := s
	for i := 0; i < curveMaxIter; i++ {
		dp, err := computeDP(d, ra, rb)
		if err != nil {
			return 0, fmt.Errorf("get_d: %w", err)
		}

		annS, err := annW.Mul(s)
		if err != nil {
			return 0, fmt.Errorf("get_d: %w", err)
		}
		annSOverPrec, _, err := annS.QuoRem(aPrec)
		if err != nil {
			return 0, fmt.Errorf("get_d: %w", err)
		}

		twoDp, err := dp.Mul64(2)
		if err != nil {
			return 0, fmt.Errorf("get_d: %w", err)
		}
		numInner, err := annSOverPrec.Add(twoDp)
		if err != nil {
			return 0, fmt.Errorf("get_d: %w", err)
		}
		num, err := numInner.Mul(d)
		if err != nil {
			return 0, fmt.Errorf("get_d: %w", err)
		}

		annMinusPrec, err := annW.Sub(aPrec)
		if err != nil {
			return 0, fmt.Errorf("get_d: %w", err)
		}
		denTerm1Num, err := annMinusPrec.Mul(d)
		if err != nil {
			return 0, fmt.Errorf("get_d: %w", err)
		}
		denTerm1, _, err := denTerm1Num.QuoRem(aPrec)
		if err != nil {
			return 0, fmt.Errorf("get_d: %w", err)
		}
		threeDp, err := dp.Mul64(3)
		if err != nil {
			return 0, fmt.Errorf("get_d: %w", err)
		}
		den, err := denTerm1.Add(threeDp)
		if err != nil {
			return 0, fmt.Errorf("get_d: %w", err)
		}
		if den.IsZero() {
			return 0, fmt.Errorf("get_d: %w", ErrZeroDivision)
		}

		dNext, _, err := num.QuoRem(den)
		if err != nil {
			return 0, fmt.Errorf("get_d: %w", err)
		}

		diff, err := absDiffU128(dNext, d)
		if err != nil {
			return 0, fmt.Errorf("get_d: %w", err)
		}

		d = dNext
		if diff.Cmp64(1) <= 0 {
			return d.toUint64()
		}
	}

	return 0, fmt.Errorf("get_d: %w", ErrConvergence)
}

// getY solves the StableSwap invariant for the new balance of the
// opposite reserve given the new balance reserveIn of one side.
func getY(reserveIn uint64, ann uint64, d uint64) (uint64, error) {
	rin := u128FromU64(reserveIn)
	annW := u128FromU64(ann)
	dW := u128FromU64(d)
	aPrec := u128FromU64(aPrecision)

	dd, err := dW.Mul(dW)
	if err != nil {
		return 0, fmt.Errorf("get_y: %w", err)
	}
	twoRin, err := rin.Mul64(2)
	if err != nil {
		return 0, fmt.Errorf("get_y: %w", err)
	}
	if twoRin.IsZero() {
		return 0, fmt.Errorf("get_y: %w", ErrZeroDivision)
	}
	c, _, err := dd.QuoRem(twoRin)
	if err != nil {
		return 0, fmt.Errorf("get_y: %w", err)
	}

	cD, err := c.Mul(dW)
	if err != nil {
		return 0, fmt.Errorf("get_y: %w", err)
	}
	cDPrec, err := cD.Mul(aPrec)
	if err != nil {
		return 0, fmt.Errorf("get_y: %w", err)
	}
	ann2, err := annW.Mul64(2)
	if err != nil {
		return 0, fmt.Errorf("get_y: %w", err)
	}
	if ann2.IsZero() {
		return 0, fmt.Errorf("get_y: %w", ErrZeroDivision)
	}
	c2, _, err := cDPrec.QuoRem(ann2)
	if err != nil {
		return 0, fmt.Errorf("get_y: %w", err)
	}

	dPrec, err := dW.Mul(aPrec)
	if err != nil {
		return 0, fmt.Errorf("get_y: %w", err)
	}
	dPrecOverAnn, _, err := dPrec.QuoRem(annW)
	if err != nil {
		return 0, fmt.Errorf("get_y: %w", err)
	}
	b, err := rin.Add(dPrecOverAnn)
	if err != nil {
		return 0, fmt.Errorf("get_y: %w", err)
	}

	y := dW
	for i := 0; i < curveMaxIter; i++ {
		y2, err := y.Mul(y)
		if err != nil {
			return 0, fmt.Errorf("get_y: %w", err)
		}
		num, err := y2.Add(c2)
		if err != nil {
			return 0, fmt.Errorf("get_y: %w", err)
		}

		twoY, err := y.Mul64(2)
		if err != nil {
			return 0, fmt.Errorf("get_y: %w", err)
		}
		denInner, err := twoY.Add(b)
		if err != nil {
			return 0, fmt.Errorf("get_y: %w", err)
		}
		den, err := denInner.Sub(dW)
		if err != nil {
			return 0, fmt.Errorf("get_y: %w", err)
		}
		if den.IsZero() {
			return 0, fmt.Errorf("get_y: %w", ErrZeroDivision)
		}

		yNext, _, err := num.QuoRem(den)
		if err != nil {
			return 0, fmt.Errorf("get_y: %w", err)
		}

		diff, err := absDiffU128(yNext, y)
		if err != nil {
			return 0, fmt.Errorf("get_y: %w", err)
		}

		y = yNext
		if diff.Cmp64(1) <= 0 {
			return y.toUint64()
		}
	}

	return 0, fmt.Errorf("get_y: %w", ErrConvergence)
}

func absDiffU128(a, b u128) (u128, error) {
	if a.Cmp(b) >= 0 {
		return a.Sub(b)
	}
	return b.Sub(a)
}

// quoteCurveStable is the "Ommv2" quoter: it normalizes both reserves
// and the input into a common USD*SCALE unit via the decomposed prices
// and each side's decimals, runs the integer Curve StableSwap solver,
// and converts the solved new output-side reserve back to b-token units.
// The output is the old output reserve minus that new reserve, reduced
// by one more unit as a rounding-safety margin, and is then checked
// against the destination reserve.
func quoteCurveStable(bAmountIn, bReserveX, bReserveY uint64, priceX, priceY Decimal, decimalsX, decimalsY uint32, amplifier uint32, x2y bool) (uint64, error) {
	if amplifier == 0 {
		return 0, fmt.Errorf("curve stable quote: amplifier must be positive: %w", ErrOutOfRange)
	}
	if bAmountIn == 0 {
		return 0, nil
	}

	ann := uint64(amplifier) * 2 * aPrecision

	intX, invX, hasX, err := splitPrice(priceX)
	if err != nil {
		return 0, err
	}
	intY, invY, hasY, err := splitPrice(priceY)
	if err != nil {
		return 0, err
	}

	usdReserveX, err := scaledUSD(bReserveX, intX, invX, hasX, decimalsX)
	if err != nil {
		return 0, err
	}
	usdReserveY, err := scaledUSD(bReserveY, intY, invY, hasY, decimalsY)
	if err != nil {
		return 0, err
	}

	d, err := getD(usdReserveX, usdReserveY, ann)
	if err != nil {
		return 0, err
	}

	var usdIn, reserveInUSD, reserveOutUSD, bReserveOut uint64
	var intOut, invOut uint64
	var hasOut bool
	var decimalsOut uint32

	if x2y {
		usdIn, err = scaledUSD(bAmountIn, intX, invX, hasX, decimalsX)
		reserveInUSD, reserveOutUSD = usdReserveX, usdReserveY
		intOut, invOut, hasOut = intY, invY, hasY
		decimalsOut = decimalsY
		bReserveOut = bReserveY
	} else {
		usdIn, err = scaledUSD(bAmountIn, intY, invY, hasY, decimalsY)
		reserveInUSD, reserveOutUSD = usdReserveY, usdReserveX
		intOut, invOut, hasOut = intX, invX, hasX
		decimalsOut = decimalsX
		bReserveOut = bReserveX
	}
	if err != nil {
		return 0, err
	}

	newReserveInUSD, err := u128FromU64(reserveInUSD).Add64(usdIn)
	if err != nil {
		return 0, err
	}
	newReserveInU64, err := newReserveInUSD.toUint64()
	if err != nil {
		return 0, err
	}

	yUSD, err := getY(newReserveInU64, ann, d)
	if err != nil {
		return 0, err
	}

	if yUSD >= reserveOutUSD {
		return 0, nil
	}

	newReserveOutScaled, err := fromUSD(yUSD, intOut, invOut, hasOut)
	if err != nil {
		return 0, err
	}

	newReserveOutBToken, err := descaleToken(newReserveOutScaled, decimalsOut)
	if err != nil {
		return 0, err
	}

	if newReserveOutBToken >= bReserveOut {
		return 0, nil
	}
	amountOutBToken := bReserveOut - newReserveOutBToken - 1

	if amountOutBToken > bReserveOut {
		return 0, nil
	}

	return amountOutBToken, nil
}
