package steamm

import (
	"fmt"
	"math/bits"
)

// u128 is a 128-bit unsigned integer represented by two 64-bit limbs.
// value = hi*2^64 + lo
type u128 struct {
	hi uint64
	lo uint64
}

func u128FromU64(v uint64) u128 {
	return u128{lo: v}
}

func u128FromHiLo(hi, lo uint64) u128 {
	return u128{hi: hi, lo: lo}
}

// bitLen returns the number of bits required to represent u.
func (u u128) bitLen() int {
	if u.hi != 0 {
		return bits.Len64(u.hi) + 64
	}

	return bits.Len64(u.lo)
}

// IsZero returns true if u is zero.
func (u u128) IsZero() bool {
	return u == u128{}
}

// Cmp compares u, v and returns:
//
//	-1 if u < v
//	0 if u == v
//	1 if u > v
func (u u128) Cmp(v u128) int {
	if u.hi < v.hi {
		return -1
	}

	if u.hi > v.hi {
		return 1
	}

	switch {
	case u.lo < v.lo:
		return -1
	case u.lo > v.lo:
		return 1
	default:
		return 0
	}
}

func (u u128) Cmp64(v uint64) int {
	if u.hi != 0 {
		return 1
	}

	switch {
	case u.lo < v:
		return -1
	case u.lo > v:
		return 1
	default:
		return 0
	}
}

func (u u128) LessThan(v u128) bool {
	return u.hi < v.hi || (u.hi == v.hi && u.lo < v.lo)
}

// Add returns u+v, erroring if the sum overflows 128 bits.
func (u u128) Add(v u128) (u128, error) {
	lo, carry := bits.Add64(u.lo, v.lo, 0)
	hi, carry := bits.Add64(u.hi, v.hi, carry)
	if carry != 0 {
		return u128{}, fmt.Errorf("u128 add %v+%v: %w", u, v, ErrOverflow)
	}

	return u128{hi: hi, lo: lo}, nil
}

// Add64 returns u+v.
func (u u128) Add64(v uint64) (u128, error) {
	lo, carry := bits.Add64(u.lo, v, 0)
	hi, carry := bits.Add64(u.hi, 0, carry)
	if carry != 0 {
		return u128{}, fmt.Errorf("u128 add64 %v+%d: %w", u, v, ErrOverflow)
	}

	return u128{hi: hi, lo: lo}, nil
}

// Sub returns u-v, erroring if v > u.
func (u u128) Sub(v u128) (u128, error) {
	lo, borrow := bits.Sub64(u.lo, v.lo, 0)
	hi, borrow := bits.Sub64(u.hi, v.hi, borrow)
	if borrow != 0 {
		return u128{}, fmt.Errorf("u128 sub %v-%v: %w", u, v, ErrNegativeResult)
	}

	return u128{hi: hi, lo: lo}, nil
}

// Sub64 returns u-v.
func (u u128) Sub64(v uint64) (u128, error) {
	lo, borrow := bits.Sub64(u.lo, v, 0)
	hi, borrow := bits.Sub64(u.hi, 0, borrow)
	if borrow != 0 {
		return u128{}, fmt.Errorf("u128 sub64 %v-%d: %w", u, v, ErrNegativeResult)
	}

	return u128{hi: hi, lo: lo}, nil
}

// Mul64 returns u*v, erroring if the product overflows 128 bits.
func (u u128) Mul64(v uint64) (u128, error) {
	hi, lo := bits.Mul64(u.lo, v)
	p0, p1 := bits.Mul64(u.hi, v)
	hi, c0 := bits.Add64(hi, p1, 0)
	if p0 != 0 || c0 != 0 {
		return u128{}, fmt.Errorf("u128 mul64 %v*%d: %w", u, v, ErrOverflow)
	}

	return u128{hi: hi, lo: lo}, nil
}

// Mul returns u*v, erroring if the product overflows 128 bits.
func (u u128) Mul(v u128) (u128, error) {
	wide := u.mulToU256(v)
	return wide.toU128()
}

// mulToU256 returns the full, unchecked 256-bit product of u and v.
// A 128x128 multiply always fits in 256 bits, so this never overflows.
func (u u128) mulToU256(v u128) u256 {
	full := mulFull(u.toU256(), v.toU256())
	return u256{w: [4]uint64{full[0], full[1], full[2], full[3]}}
}

// toU256 zero-extends u into a u256.
func (u u128) toU256() u256 {
	return u256{w: [4]uint64{u.lo, u.hi, 0, 0}}
}

// u128FromU256 narrows x to a u128, erroring if x doesn't fit.
func u128FromU256(x u256) (u128, error) {
	return x.toU128()
}

// QuoRem returns q = u/v and r = u%v.
func (u u128) QuoRem(v u128) (q, r u128, err error) {
	if v.IsZero() {
		return u128{}, u128{}, fmt.Errorf("u128 quorem %v/%v: %w", u, v, ErrZeroDivision)
	}

	if v.hi == 0 {
		var r64 uint64
		q, r64 = u.QuoRem64(v.lo)
		r = u128FromU64(r64)
		return q, r, nil
	}

	qw, rw, err := u.toU256().QuoRem(v.toU256())
	if err != nil {
		return u128{}, u128{}, err
	}

	q, err = qw.toU128()
	if err != nil {
		return u128{}, u128{}, err
	}

	r, err = rw.toU128()
	if err != nil {
		return u128{}, u128{}, err
	}

	return q, r, nil
}

// QuoRem64 returns q = u/v and r = u%v.
func (u u128) QuoRem64(v uint64) (q u128, r uint64) {
	if u.hi < v {
		q.lo, r = bits.Div64(u.hi, u.lo, v)
	} else {
		q.hi, r = bits.Div64(0, u.hi, v)
		q.lo, r = bits.Div64(r, u.lo, v)
	}
	return
}

// Lsh returns u<<n.
func (u u128) Lsh(n uint) (s u128) {
	if n >= 64 {
		s.lo = 0
		s.hi = u.lo << (n - 64)
	} else {
		s.lo = u.lo << n
		s.hi = u.hi<<n | u.lo>>(64-n)
	}
	return
}

// Rsh returns u>>n.
func (u u128) Rsh(n uint) (s u128) {
	if n >= 64 {
		s.lo = u.hi >> (n - 64)
		s.hi = 0
	} else {
		s.lo = u.lo>>n | u.hi<<(64-n)
		s.hi = u.hi >> n
	}
	return
}

// toUint64 narrows u to a uint64, erroring if u doesn't fit.
func (u u128) toUint64() (uint64, error) {
	if u.hi != 0 {
		return 0, fmt.Errorf("u128 %v to uint64: %w", u, ErrOverflow)
	}
	return u.lo, nil
}

func (u u128) String() string {
	if u.IsZero() {
		return "0"
	}

	buf := []byte("0000000000000000000000000000000000000000") // log10(2^128) < 40
	for i := len(buf); ; i -= 19 {
		q, r := u.QuoRem64(1e19) // largest power of 10 that fits in a uint64
		var n int
		for ; r != 0; r /= 10 {
			n++
			buf[i-n] += byte(r % 10)
		}
		if q.IsZero() {
			return string(buf[i-n:])
		}
		u = q
	}
}
