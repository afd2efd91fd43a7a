package steamm

import "fmt"

const newtonMaxIter = 20

var (
	newtonTol  = mustFixedPointFromRational(1, 100_000_000_000_000)                   // 1e-14
	minZ       = mustFixedPointFromRational(1, 100_000)                               // 1e-5
	maxZ       = mustFixedPointFromRational(999_999_999_999_999_999, 1_000_000_000_000_000_000)
	derivFloor = mustFixedPointFromRational(1, 10_000_000_000)                        // 1e-10
)

func mustFixedPointFromRational(num, den uint64) FixedPoint64 {
	fp, err := FixedPointFromRational(num, den)
	if err != nil {
		panic(fmt.Sprintf("fixedpoint constant %d/%d: %v", num, den, err))
	}
	return fp
}

// decimalToFixedPoint64 converts d's raw WAD-scaled value into Q64.64 by
// rescaling raw*2^64/WAD. Decimal values used by the log-invariant quoter
// (prices, ratios) stay small enough that the intermediate raw<<64 never
// approaches the 256-bit ceiling.
func decimalToFixedPoint64(d Decimal) (FixedPoint64, error) {
	scaled := d.raw.Lsh(64)
	q, _, err := scaled.QuoRem(wad)
	if err != nil {
		return FixedPoint64{}, fmt.Errorf("decimal %s to fixedpoint64: %w", d, err)
	}

	raw, err := q.toU128()
	if err != nil {
		return FixedPoint64{}, fmt.Errorf("decimal %s to fixedpoint64: %w", d, err)
	}

	return FixedPoint64{raw: raw}, nil
}

// pow10FixedPoint returns 10^n as a FixedPoint64, used to carry a
// decimals_x/decimals_y mismatch through the invariant in raw-token units.
func pow10FixedPoint(n uint32) (FixedPoint64, error) {
	v := uint64(1)
	for i := uint32(0); i < n; i++ {
		next := v * 10
		if next/10 != v {
			return FixedPoint64{}, fmt.Errorf("pow10(%d): %w", n, ErrOverflow)
		}
		v = next
	}
	return FixedPointFrom(v), nil
}

// logInvariantK computes the log-invariant quoter's dimensionless swap
// size k: the naive (curve-free) output amount, expressed in the output
// token's raw units and divided by the output reserve. decimals_x and
// decimals_y need not match, so a power-of-ten factor carries raw amounts
// from the input token's decimal scale to the output token's.
func logInvariantK(amountIn, reserveX, reserveY uint64, priceX, priceY Decimal, decimalsX, decimalsY uint32, x2y bool) (FixedPoint64, error) {
	fpPriceX, err := decimalToFixedPoint64(priceX)
	if err != nil {
		return FixedPoint64{}, err
	}
	fpPriceY, err := decimalToFixedPoint64(priceY)
	if err != nil {
		return FixedPoint64{}, err
	}

	var decPow FixedPoint64
	numDec, denDec := false, false
	if decimalsX > decimalsY {
		decPow, err = pow10FixedPoint(decimalsX - decimalsY)
		numDec = true
	} else if decimalsY > decimalsX {
		decPow, err = pow10FixedPoint(decimalsY - decimalsX)
		denDec = true
	} else {
		decPow = fpOne
	}
	if err != nil {
		return FixedPoint64{}, err
	}

	numerators := []FixedPoint64{FixedPointFrom(amountIn)}
	var denominators []FixedPoint64

	if x2y {
		// input x, output y: k = amount_in * price_x/price_y * 10^(decimals_y-decimals_x) / reserve_y
		numerators = append(numerators, fpPriceX)
		denominators = append(denominators, fpPriceY, FixedPointFrom(reserveY))
		if denDec {
			numerators = append(numerators, decPow)
		} else if numDec {
			denominators = append(denominators, decPow)
		}
	} else {
		// input y, output x: k = amount_in * price_y/price_x * 10^(decimals_x-decimals_y) / reserve_x
		numerators = append(numerators, fpPriceY)
		denominators = append(denominators, fpPriceX, FixedPointFrom(reserveX))
		if numDec {
			numerators = append(numerators, decPow)
		} else if denDec {
			denominators = append(denominators, decPow)
		}
	}

	return multiplyDivide(numerators, denominators)
}

// logInvariantG evaluates g(z) = z*(1-1/A) + (1/A)*(-ln(1-z)), the
// curve side of the invariant equation g(z) = k. Both terms are
// non-negative for z in (0,1) and A >= 1, so this stays entirely in
// unsigned arithmetic; the caller compares g(z) against k directly
// instead of materializing a signed f(z) = g(z) - k.
func logInvariantG(z, invA, oneMinusInvA FixedPoint64) (FixedPoint64, error) {
	term1, err := z.Mul(oneMinusInvA)
	if err != nil {
		return FixedPoint64{}, err
	}

	oneMinusZ, err := fpOne.Sub(z)
	if err != nil {
		return FixedPoint64{}, err
	}

	sixtyFourLn2, err := FixedPointFrom(64).Mul(ln2Decl)
	if err != nil {
		return FixedPoint64{}, err
	}

	lnPlus, err := lnPlus64Ln2(oneMinusZ)
	if err != nil {
		return FixedPoint64{}, err
	}

	if lnPlus.Cmp(sixtyFourLn2) > 0 {
		return FixedPoint64{}, fmt.Errorf("log-invariant g(%s): ln_plus_64ln2 exceeds 64ln2: %w", z, ErrPrecisionLoss)
	}

	negLn, err := sixtyFourLn2.Sub(lnPlus) // -ln(1-z)
	if err != nil {
		return FixedPoint64{}, err
	}

	term2, err := invA.Mul(negLn)
	if err != nil {
		return FixedPoint64{}, err
	}

	return term1.Add(term2)
}

// logInvariantDeriv evaluates g'(z) = (1-1/A) + 1/(A*(1-z)).
func logInvariantDeriv(z, ampFP, oneMinusInvA FixedPoint64) (FixedPoint64, error) {
	oneMinusZ, err := fpOne.Sub(z)
	if err != nil {
		return FixedPoint64{}, err
	}

	aTimes1MinusZ, err := ampFP.Mul(oneMinusZ)
	if err != nil {
		return FixedPoint64{}, err
	}

	invTerm, err := fpOne.Div(aTimes1MinusZ)
	if err != nil {
		return FixedPoint64{}, err
	}

	return oneMinusInvA.Add(invTerm)
}

// tryStep applies a Newton step of the given size and direction, failing
// (returning ok=false) if it under/overflows z's domain of (0,1).
func tryStep(z, step FixedPoint64, decreasing bool) (next FixedPoint64, ok bool) {
	var err error
	if decreasing {
		next, err = z.Sub(step)
	} else {
		next, err = z.Add(step)
	}
	if err != nil {
		return FixedPoint64{}, false
	}
	if next.IsZero() || next.Cmp(fpOne) >= 0 {
		return FixedPoint64{}, false
	}
	return next, true
}

func clampFixedPoint(z, lo, hi FixedPoint64) FixedPoint64 {
	if z.Cmp(lo) < 0 {
		return lo
	}
	if z.Cmp(hi) > 0 {
		return hi
	}
	return z
}

// solveLogInvariantZ solves g(z) = k for z in (0,1) via damped
// Newton-Raphson, where g is logInvariantG.
func solveLogInvariantZ(k FixedPoint64, amplifier uint32) (FixedPoint64, error) {
	if amplifier == 0 {
		return FixedPoint64{}, fmt.Errorf("log-invariant solve: amplifier must be positive: %w", ErrOutOfRange)
	}

	ampFP := FixedPointFrom(uint64(amplifier))
	invA, err := FixedPointFromRational(1, uint64(amplifier))
	if err != nil {
		return FixedPoint64{}, err
	}
	oneMinusInvA, err := fpOne.Sub(invA)
	if err != nil {
		return FixedPoint64{}, err
	}

	z := k
	if z.Cmp(maxZ) >= 0 {
		z = maxZ
	}
	if z.IsZero() {
		z = minZ
	}

	for iter := 0; iter < newtonMaxIter; iter++ {
		g, err := logInvariantG(z, invA, oneMinusInvA)
		if err != nil {
			return FixedPoint64{}, err
		}

		decreasing := g.Cmp(k) > 0
		var diff FixedPoint64
		if decreasing {
			diff, err = g.Sub(k)
		} else {
			diff, err = k.Sub(g)
		}
		if err != nil {
			return FixedPoint64{}, err
		}

		if diff.Cmp(newtonTol) < 0 {
			return z, nil
		}

		deriv, err := logInvariantDeriv(z, ampFP, oneMinusInvA)
		if err != nil {
			return FixedPoint64{}, err
		}
		if deriv.Cmp(derivFloor) < 0 {
			return FixedPoint64{}, fmt.Errorf("log-invariant solve: derivative too small at z=%s: %w", z, ErrPrecisionLoss)
		}

		step, err := diff.Div(deriv)
		if err != nil {
			return FixedPoint64{}, err
		}
		if step.Cmp(fpOne) >= 0 {
			step = step.half()
		}

		next, ok := tryStep(z, step, decreasing)
		if !ok {
			step = step.half()
			next, ok = tryStep(z, step, decreasing)
			if !ok {
				bound := fpOne
				if decreasing {
					bound = fpZero
				}
				next = clampFixedPoint(bound, minZ, maxZ)
			}
		}

		var moved FixedPoint64
		if next.Cmp(z) >= 0 {
			moved, err = next.Sub(z)
		} else {
			moved, err = z.Sub(next)
		}
		if err != nil {
			return FixedPoint64{}, err
		}
		z = next
		if moved.Cmp(newtonTol) < 0 {
			return z, nil
		}
	}

	return FixedPoint64{}, fmt.Errorf("log-invariant solve: exceeded %d iterations: %w", newtonMaxIter, ErrConvergence)
}

// quoteLogInvariant is the "Ommv2Legacy" quoter: it solves the log-invariant
// curve for the fraction z of the output reserve to pay out, then
// converts z back into the output token's raw units. A result that would
// drain at least the entire opposing reserve is reported as zero rather
// than as an error: the pool simply has insufficient liquidity for the
// trade.
func quoteLogInvariant(amountIn, reserveX, reserveY uint64, priceX, priceY Decimal, decimalsX, decimalsY uint32, amplifier uint32, x2y bool) (uint64, error) {
	if amountIn == 0 {
		return 0, nil
	}

	k, err := logInvariantK(amountIn, reserveX, reserveY, priceX, priceY, decimalsX, decimalsY, x2y)
	if err != nil {
		return 0, err
	}

	z, err := solveLogInvariantZ(k, amplifier)
	if err != nil {
		return 0, err
	}

	outputReserve := reserveY
	if !x2y {
		outputReserve = reserveX
	}

	scaled, err := z.Mul(FixedPointFrom(outputReserve))
	if err != nil {
		return 0, err
	}

	amountOutWide := scaled.ToUint128Down()
	if amountOutWide.hi != 0 {
		return 0, fmt.Errorf("log-invariant quote: amount out overflows uint64: %w", ErrOverflow)
	}
	amountOut := amountOutWide.lo

	if amountOut >= outputReserve {
		return 0, nil
	}

	return amountOut, nil
}
