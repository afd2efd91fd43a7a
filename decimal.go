package steamm

import (
	"fmt"
	"strings"
)

const sqrtMaxIter = 100

// wad is the fixed scale (10^18) every Decimal is stored at.
var wad = u256FromUint64(1_000_000_000_000_000_000)
var halfWad = u256FromUint64(500_000_000_000_000_000)

// Decimal is a non-negative fixed-point number scaled by 10^18, backed by
// a checked 256-bit integer. It is not a general-purpose decimal type: it
// exists to carry token amounts and prices through the quoting math
// without losing precision.
type Decimal struct {
	raw u256
}

var (
	zeroDecimal = Decimal{}
	oneDecimal  = DecimalFromUint64(1)
	twoDecimal  = DecimalFromUint64(2)
)

// DecimalFromUint64 scales v up by the WAD to build a Decimal.
func DecimalFromUint64(v uint64) Decimal {
	raw, err := wad.Mul(u256FromUint64(v))
	if err != nil {
		panic("steamm: decimal from uint64 overflowed u256, which can't happen")
	}
	return Decimal{raw: raw}
}

// decimalFromRaw wraps an already WAD-scaled u256 value.
func decimalFromRaw(raw u256) Decimal {
	return Decimal{raw: raw}
}

// ParseDecimal parses a plain base-10 decimal literal such as "1.5" or
// "1000000". It does not support scientific notation.
func ParseDecimal(s string) (Decimal, error) {
	if s == "" {
		return Decimal{}, fmt.Errorf("decimal parse %q: %w", s, ErrOutOfRange)
	}

	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]
	if intPart == "" {
		intPart = "0"
	}

	fracPart := "0"
	if len(parts) > 1 {
		fracPart = parts[1]
	}
	if len(fracPart) > 18 {
		return Decimal{}, fmt.Errorf("decimal parse %q: more than 18 fractional digits: %w", s, ErrOutOfRange)
	}

	intVal, err := u256FromDecimalString(intPart)
	if err != nil {
		return Decimal{}, fmt.Errorf("decimal parse %q: %w", s, err)
	}

	intScaled, err := intVal.Mul(wad)
	if err != nil {
		return Decimal{}, fmt.Errorf("decimal parse %q: %w", s, err)
	}

	fracVal, err := u256FromDecimalString(fracPart)
	if err != nil {
		return Decimal{}, fmt.Errorf("decimal parse %q: %w", s, err)
	}

	scale := uint64(1)
	for range fracPart {
		scale *= 10
	}

	fracScaledUp, err := fracVal.Mul(wad)
	if err != nil {
		return Decimal{}, fmt.Errorf("decimal parse %q: %w", s, err)
	}

	fracScaled, _, err := fracScaledUp.QuoRem(u256FromUint64(scale))
	if err != nil {
		return Decimal{}, fmt.Errorf("decimal parse %q: %w", s, err)
	}

	total, err := intScaled.Add(fracScaled)
	if err != nil {
		return Decimal{}, fmt.Errorf("decimal parse %q: %w", s, err)
	}

	return Decimal{raw: total}, nil
}

// MustParseDecimal is ParseDecimal but panics on error. Intended for
// constructing constants from literals.
func MustParseDecimal(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Decimal) IsZero() bool {
	return d.raw.IsZero()
}

// Cmp compares d, other and returns -1, 0, or 1.
func (d Decimal) Cmp(other Decimal) int {
	return d.raw.Cmp(other.raw)
}

func (d Decimal) CheckedAdd(rhs Decimal) (Decimal, error) {
	raw, err := d.raw.Add(rhs.raw)
	if err != nil {
		return Decimal{}, fmt.Errorf("decimal add %s+%s: %w", d, rhs, err)
	}
	return Decimal{raw: raw}, nil
}

func (d Decimal) CheckedSub(rhs Decimal) (Decimal, error) {
	raw, err := d.raw.Sub(rhs.raw)
	if err != nil {
		return Decimal{}, fmt.Errorf("decimal sub %s-%s: %w", d, rhs, err)
	}
	return Decimal{raw: raw}, nil
}

// CheckedMul follows the teacher's overflow-fallback ladder: try scaling
// the full product down by the WAD directly, and if that product would
// overflow u256, pre-divide the larger operand by the WAD before
// multiplying so the intermediate stays in range.
func (d Decimal) CheckedMul(rhs Decimal) (Decimal, error) {
	if product, err := d.raw.Mul(rhs.raw); err == nil {
		q, _, err := product.QuoRem(wad)
		if err != nil {
			return Decimal{}, fmt.Errorf("decimal mul %s*%s: %w", d, rhs, err)
		}
		return Decimal{raw: q}, nil
	}

	var result u256
	var err error
	if d.raw.Cmp(rhs.raw) >= 0 {
		var dScaled u256
		dScaled, _, err = d.raw.QuoRem(wad)
		if err != nil {
			return Decimal{}, fmt.Errorf("decimal mul %s*%s: %w", d, rhs, err)
		}
		result, err = dScaled.Mul(rhs.raw)
	} else {
		var rhsScaled u256
		rhsScaled, _, err = rhs.raw.QuoRem(wad)
		if err != nil {
			return Decimal{}, fmt.Errorf("decimal mul %s*%s: %w", d, rhs, err)
		}
		result, err = rhsScaled.Mul(d.raw)
	}
	if err != nil {
		return Decimal{}, fmt.Errorf("decimal mul %s*%s: %w", d, rhs, err)
	}

	return Decimal{raw: result}, nil
}

// CheckedDiv mirrors CheckedMul's fallback ladder for division: scale the
// numerator up by the WAD first; if that overflows, divide the larger of
// the two raw values directly and rescale on the side that has headroom.
func (d Decimal) CheckedDiv(rhs Decimal) (Decimal, error) {
	if rhs.raw.IsZero() {
		return Decimal{}, fmt.Errorf("decimal div %s/%s: %w", d, rhs, ErrZeroDivision)
	}

	if scaled, err := d.raw.Mul(wad); err == nil {
		q, _, err := scaled.QuoRem(rhs.raw)
		if err != nil {
			return Decimal{}, fmt.Errorf("decimal div %s/%s: %w", d, rhs, err)
		}
		return Decimal{raw: q}, nil
	}

	if d.raw.Cmp(rhs.raw) >= 0 {
		q, _, err := d.raw.QuoRem(rhs.raw)
		if err != nil {
			return Decimal{}, fmt.Errorf("decimal div %s/%s: %w", d, rhs, err)
		}
		scaled, err := q.Mul(wad)
		if err != nil {
			return Decimal{}, fmt.Errorf("decimal div %s/%s: %w", d, rhs, err)
		}
		return Decimal{raw: scaled}, nil
	}

	rhsScaledDown, _, err := rhs.raw.QuoRem(wad)
	if err != nil {
		return Decimal{}, fmt.Errorf("decimal div %s/%s: %w", d, rhs, err)
	}
	if rhsScaledDown.IsZero() {
		return Decimal{}, fmt.Errorf("decimal div %s/%s: %w", d, rhs, ErrZeroDivision)
	}

	q, _, err := d.raw.QuoRem(rhsScaledDown)
	if err != nil {
		return Decimal{}, fmt.Errorf("decimal div %s/%s: %w", d, rhs, err)
	}

	return Decimal{raw: q}, nil
}

// CheckedPow raises d to an integer power via binary exponentiation.
func (d Decimal) CheckedPow(exp uint64) (Decimal, error) {
	base := d
	ret := oneDecimal
	if exp%2 != 0 {
		ret = base
	}

	for {
		exp /= 2
		if exp == 0 {
			break
		}

		var err error
		base, err = base.CheckedMul(base)
		if err != nil {
			return Decimal{}, err
		}

		if exp%2 != 0 {
			ret, err = ret.CheckedMul(base)
			if err != nil {
				return Decimal{}, err
			}
		}
	}

	return ret, nil
}

// CheckedRound rounds d to the nearest integer.
func (d Decimal) CheckedRound() (uint64, error) {
	shifted, err := d.raw.Add(halfWad)
	if err != nil {
		return 0, fmt.Errorf("decimal round %s: %w", d, err)
	}

	q, _, err := shifted.QuoRem(wad)
	if err != nil {
		return 0, fmt.Errorf("decimal round %s: %w", d, err)
	}

	v, err := q.toU128()
	if err != nil || v.hi != 0 {
		return 0, fmt.Errorf("decimal round %s: %w", d, ErrOverflow)
	}

	return v.lo, nil
}

// FloorUint64 truncates d towards zero.
func (d Decimal) FloorUint64() (uint64, error) {
	q, _, err := d.raw.QuoRem(wad)
	if err != nil {
		return 0, fmt.Errorf("decimal floor %s: %w", d, err)
	}

	v, err := q.toU128()
	if err != nil || v.hi != 0 {
		return 0, fmt.Errorf("decimal floor %s: %w", d, ErrOverflow)
	}

	return v.lo, nil
}

// CeilUint64 rounds d up towards the next integer.
func (d Decimal) CeilUint64() (uint64, error) {
	wadMinusOne, err := wad.Sub(u256FromUint64(1))
	if err != nil {
		return 0, err
	}

	num, err := wadMinusOne.Add(d.raw)
	if err != nil {
		return 0, fmt.Errorf("decimal ceil %s: %w", d, err)
	}

	q, _, err := num.QuoRem(wad)
	if err != nil {
		return 0, fmt.Errorf("decimal ceil %s: %w", d, err)
	}

	v, err := q.toU128()
	if err != nil || v.hi != 0 {
		return 0, fmt.Errorf("decimal ceil %s: %w", d, ErrOverflow)
	}

	return v.lo, nil
}

// CheckedSqrt approximates the square root of d with Heron's method (the
// n=2 specialization of Newton's root-finding iteration), capped at
// sqrtMaxIter steps and converging once two successive guesses agree to
// 3 decimal places.
func (d Decimal) CheckedSqrt() (Decimal, error) {
	if d.IsZero() {
		return zeroDecimal, nil
	}

	guess, err := d.CheckedAdd(oneDecimal)
	if err != nil {
		return Decimal{}, err
	}
	guess, err = guess.CheckedDiv(twoDecimal)
	if err != nil {
		return Decimal{}, err
	}

	last := guess
	for i := 0; i < sqrtMaxIter; i++ {
		secondTerm, err := d.CheckedDiv(guess)
		if err != nil {
			return Decimal{}, err
		}

		sum, err := guess.CheckedAdd(secondTerm)
		if err != nil {
			return Decimal{}, err
		}

		guess, err = sum.CheckedDiv(twoDecimal)
		if err != nil {
			return Decimal{}, err
		}

		if last.AlmostEq(guess, 3) {
			break
		}
		last = guess
	}

	return guess, nil
}

// AlmostEq reports whether d and other differ by less than 10^(18-precision)
// in raw scale, i.e. agree up to `precision` decimal places.
func (d Decimal) AlmostEq(other Decimal, precision uint32) bool {
	tol, err := u256FromUint64(10).Pow(uint64(18 - precision))
	if err != nil {
		return false
	}

	switch d.raw.Cmp(other.raw) {
	case 0:
		return true
	case -1:
		diff, _ := other.raw.Sub(d.raw)
		return diff.Cmp(tol) < 0
	default:
		diff, _ := d.raw.Sub(other.raw)
		return diff.Cmp(tol) < 0
	}
}

func (d Decimal) String() string {
	s := d.raw.String()
	if len(s) <= 18 {
		return "0." + strings.Repeat("0", 18-len(s)) + s
	}
	return s[:len(s)-18] + "." + s[len(s)-18:]
}
