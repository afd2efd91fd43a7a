package steamm

import (
	"fmt"
	"math/bits"
	"sort"
)

// ln2Raw is ln(2) in Q64.64.
const ln2Raw uint64 = 12_786_308_645_202_655_660

var (
	fpZero  = FixedPoint64{}
	fpOne   = FixedPoint64{raw: u128{hi: 1}}
	ln2Decl = FixedPoint64{raw: u128FromU64(ln2Raw)}
)

// FixedPoint64 is a non-negative rational raw/2^64, used by the
// logarithmic-invariant quoter where binary scaling is cheaper than the
// decimal scaling Decimal uses.
type FixedPoint64 struct {
	raw u128
}

// FixedPointFrom left-shifts n by 64.
func FixedPointFrom(n uint64) FixedPoint64 {
	return FixedPoint64{raw: u128{hi: n}}
}

// FixedPointFromRational computes (num<<64)/den, erroring on a zero
// denominator or on a nonzero numerator that underflows to zero.
func FixedPointFromRational(num, den uint64) (FixedPoint64, error) {
	if den == 0 {
		return FixedPoint64{}, fmt.Errorf("fixedpoint from_rational %d/%d: %w", num, den, ErrZeroDivision)
	}

	q, _ := u128{hi: num}.QuoRem64(den)
	if num != 0 && q.IsZero() {
		return FixedPoint64{}, fmt.Errorf("fixedpoint from_rational %d/%d: underflowed to zero: %w", num, den, ErrOutOfRange)
	}

	return FixedPoint64{raw: q}, nil
}

func (x FixedPoint64) IsZero() bool {
	return x.raw.IsZero()
}

// Cmp compares x, y and returns -1, 0, or 1.
func (x FixedPoint64) Cmp(y FixedPoint64) int {
	return x.raw.Cmp(y.raw)
}

// ToUint128Down truncates x towards zero.
func (x FixedPoint64) ToUint128Down() u128 {
	return x.raw.Rsh(64)
}

// ToUint128Up rounds x up towards the next integer.
func (x FixedPoint64) ToUint128Up() (u128, error) {
	sum, err := x.raw.Add(u128FromU64(^uint64(0)))
	if err != nil {
		return u128{}, fmt.Errorf("fixedpoint to_u128_up %s: %w", x, err)
	}
	return sum.Rsh(64), nil
}

// ToUint128Round rounds x to the nearest integer, ties rounding up.
func (x FixedPoint64) ToUint128Round() (u128, error) {
	sum, err := x.raw.Add(u128{lo: 1 << 63})
	if err != nil {
		return u128{}, fmt.Errorf("fixedpoint to_u128_round %s: %w", x, err)
	}
	return sum.Rsh(64), nil
}

func (x FixedPoint64) Add(y FixedPoint64) (FixedPoint64, error) {
	raw, err := x.raw.Add(y.raw)
	if err != nil {
		return FixedPoint64{}, fmt.Errorf("fixedpoint add %s+%s: %w", x, y, err)
	}
	return FixedPoint64{raw: raw}, nil
}

func (x FixedPoint64) Sub(y FixedPoint64) (FixedPoint64, error) {
	raw, err := x.raw.Sub(y.raw)
	if err != nil {
		return FixedPoint64{}, fmt.Errorf("fixedpoint sub %s-%s: %w", x, y, err)
	}
	return FixedPoint64{raw: raw}, nil
}

// Mul computes (x*y)>>64 by lifting both operands into u256 so the
// intermediate product never truncates before the shift.
func (x FixedPoint64) Mul(y FixedPoint64) (FixedPoint64, error) {
	wide := x.raw.mulToU256(y.raw)
	shifted := wide.Rsh(64)
	raw, err := shifted.toU128()
	if err != nil {
		return FixedPoint64{}, fmt.Errorf("fixedpoint mul %s*%s: %w", x, y, err)
	}
	return FixedPoint64{raw: raw}, nil
}

// Div computes (x<<64)/y.
func (x FixedPoint64) Div(y FixedPoint64) (FixedPoint64, error) {
	if y.IsZero() {
		return FixedPoint64{}, fmt.Errorf("fixedpoint div %s/%s: %w", x, y, ErrZeroDivision)
	}

	wide := x.raw.toU256().Lsh(64)
	q, _, err := wide.QuoRem(y.raw.toU256())
	if err != nil {
		return FixedPoint64{}, fmt.Errorf("fixedpoint div %s/%s: %w", x, y, err)
	}

	raw, err := q.toU128()
	if err != nil {
		return FixedPoint64{}, fmt.Errorf("fixedpoint div %s/%s: %w", x, y, err)
	}

	return FixedPoint64{raw: raw}, nil
}

// Pow raises x to an integer power via binary exponentiation, squaring
// (and right-shifting by 64) at every step.
func (x FixedPoint64) Pow(e uint32) (FixedPoint64, error) {
	result := fpOne
	base := x
	for e > 0 {
		if e&1 == 1 {
			var err error
			result, err = result.Mul(base)
			if err != nil {
				return FixedPoint64{}, err
			}
		}

		e >>= 1
		if e == 0 {
			break
		}

		var err error
		base, err = base.Mul(base)
		if err != nil {
			return FixedPoint64{}, err
		}
	}

	return result, nil
}

// Close reports whether x and y differ by at most maxULPDiff raw units,
// used to compare results that take different, individually-truncating
// paths to the same mathematical value.
func (x FixedPoint64) Close(y FixedPoint64, maxULPDiff uint64) bool {
	var diff u128
	if x.raw.Cmp(y.raw) >= 0 {
		diff, _ = x.raw.Sub(y.raw)
	} else {
		diff, _ = y.raw.Sub(x.raw)
	}
	return diff.Cmp64(maxULPDiff) <= 0
}

// half returns x/2, used by the Newton-Raphson damping step.
func (x FixedPoint64) half() FixedPoint64 {
	return FixedPoint64{raw: x.raw.Rsh(1)}
}

func (x FixedPoint64) String() string {
	return fmt.Sprintf("0x%x.%016x", x.raw.hi, x.raw.lo)
}

// floorLog2 returns the integer binary logarithm of u, erroring on zero.
func floorLog2(u u128) (uint32, error) {
	if u.IsZero() {
		return 0, fmt.Errorf("floor_log2: %w", ErrLogOfZero)
	}
	return uint32(u.bitLen() - 1), nil
}

// log2Plus64 returns log2(raw) as a Q64.64 value, treating raw as a plain
// unsigned integer rather than as the raw field of some logical FP value
// (hence "plus 64": when raw happens to be another FixedPoint64's raw
// field, this equals log2(that value) + 64). It normalizes raw's mantissa
// into [2^63, 2^64) and then extracts 64 fractional bits one at a time by
// repeated squaring, doubling the exponent range tested at each step and
// halving the mantissa back into range whenever it overflows past 2.
func log2Plus64(raw u128) (FixedPoint64, error) {
	n, err := floorLog2(raw)
	if err != nil {
		return FixedPoint64{}, err
	}

	var m uint64
	if n >= 63 {
		m = raw.Rsh(uint(n - 63)).lo
	} else {
		m = raw.Lsh(uint(63 - n)).lo
	}

	result := u128{hi: uint64(n)}

	if m == uint64(1)<<63 {
		return FixedPoint64{raw: result}, nil
	}

	var frac uint64
	for i := uint(0); i < 64; i++ {
		bit := uint64(1) << (63 - i)

		hi, lo := bits.Mul64(m, m)
		squared := u128{hi: hi, lo: lo}.Rsh(63)

		if squared.hi != 0 {
			frac |= bit
			squared = squared.Rsh(1)
		}
		m = squared.lo
	}

	result.lo = frac
	return FixedPoint64{raw: result}, nil
}

// lnPlus64Ln2 returns log2(x.raw)*ln(2), i.e. ln(x)+64ln2 when x is
// interpreted as a logical FixedPoint64 value.
func lnPlus64Ln2(x FixedPoint64) (FixedPoint64, error) {
	l2, err := log2Plus64(x.raw)
	if err != nil {
		return FixedPoint64{}, err
	}
	return l2.Mul(ln2Decl)
}

// multiplyDivide computes Π numerators / Π denominators, maximising
// precision by sorting both lists in descending order and switching to a
// division step whenever the next multiplication would overflow.
func multiplyDivide(numerators, denominators []FixedPoint64) (FixedPoint64, error) {
	if len(numerators) == 0 {
		return FixedPoint64{}, fmt.Errorf("multiply_divide: empty numerator list: %w", ErrOutOfRange)
	}

	nums := append([]FixedPoint64(nil), numerators...)
	dens := append([]FixedPoint64(nil), denominators...)
	sort.Slice(nums, func(i, j int) bool { return nums[i].raw.Cmp(nums[j].raw) > 0 })
	sort.Slice(dens, func(i, j int) bool { return dens[i].raw.Cmp(dens[j].raw) > 0 })

	result := fpOne
	ni, di := 0, 0
	for ni < len(nums) {
		candidate, err := result.Mul(nums[ni])
		if err == nil {
			result = candidate
			ni++
			continue
		}

		if di >= len(dens) {
			return FixedPoint64{}, fmt.Errorf("multiply_divide: overflow with no denominators left: %w", ErrOverflow)
		}
		if dens[di].IsZero() {
			return FixedPoint64{}, fmt.Errorf("multiply_divide: %w", ErrZeroDivision)
		}

		result, err = result.Div(dens[di])
		if err != nil {
			return FixedPoint64{}, fmt.Errorf("multiply_divide: %w", err)
		}
		di++
	}

	for ; di < len(dens); di++ {
		if dens[di].IsZero() {
			return FixedPoint64{}, fmt.Errorf("multiply_divide: %w", ErrZeroDivision)
		}

		var err error
		result, err = result.Div(dens[di])
		if err != nil {
			return FixedPoint64{}, fmt.Errorf("multiply_divide: %w", err)
		}
	}

	return result, nil
}
