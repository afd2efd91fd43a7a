package steamm

import (
	"fmt"
	"math/bits"
)

// u256 is a 256-bit unsigned integer represented by four 64-bit limbs in
// little-endian order: w[0] is the least significant, w[3] the most.
type u256 struct {
	w [4]uint64
}

func u256FromUint64(v uint64) u256 {
	return u256{w: [4]uint64{v, 0, 0, 0}}
}

// u256FromDecimalString parses a base-10 digit string into a u256.
func u256FromDecimalString(s string) (u256, error) {
	if s == "" {
		return u256{}, fmt.Errorf("u256 parse %q: %w", s, ErrOutOfRange)
	}

	ten := u256FromUint64(10)
	acc := u256{}
	for _, c := range s {
		if c < '0' || c > '9' {
			return u256{}, fmt.Errorf("u256 parse %q: invalid digit %q: %w", s, c, ErrOutOfRange)
		}

		var err error
		acc, err = acc.Mul(ten)
		if err != nil {
			return u256{}, fmt.Errorf("u256 parse %q: %w", s, err)
		}

		acc, err = acc.Add(u256FromUint64(uint64(c - '0')))
		if err != nil {
			return u256{}, fmt.Errorf("u256 parse %q: %w", s, err)
		}
	}

	return acc, nil
}

// IsZero returns true if u is zero.
func (u u256) IsZero() bool {
	return u == u256{}
}

// Cmp compares u, v and returns -1, 0, or 1 for u<v, u==v, u>v.
func (u u256) Cmp(v u256) int {
	for i := 3; i >= 0; i-- {
		if u.w[i] > v.w[i] {
			return 1
		}
		if u.w[i] < v.w[i] {
			return -1
		}
	}
	return 0
}

// bitLen returns the number of bits required to represent u.
func (u u256) bitLen() int {
	for i := 3; i >= 0; i-- {
		if u.w[i] != 0 {
			return i*64 + bits.Len64(u.w[i])
		}
	}
	return 0
}

// bitAt returns the i-th bit of u (0 = least significant).
func (u u256) bitAt(i int) uint64 {
	return (u.w[i/64] >> uint(i%64)) & 1
}

// Add returns u+v, erroring if the sum overflows 256 bits.
func (u u256) Add(v u256) (u256, error) {
	var out u256
	var carry uint64
	out.w[0], carry = bits.Add64(u.w[0], v.w[0], 0)
	out.w[1], carry = bits.Add64(u.w[1], v.w[1], carry)
	out.w[2], carry = bits.Add64(u.w[2], v.w[2], carry)
	out.w[3], carry = bits.Add64(u.w[3], v.w[3], carry)
	if carry != 0 {
		return u256{}, fmt.Errorf("u256 add %v+%v: %w", u, v, ErrOverflow)
	}

	return out, nil
}

// Sub returns u-v, erroring if v > u.
func (u u256) Sub(v u256) (u256, error) {
	var out u256
	var borrow uint64
	out.w[0], borrow = bits.Sub64(u.w[0], v.w[0], 0)
	out.w[1], borrow = bits.Sub64(u.w[1], v.w[1], borrow)
	out.w[2], borrow = bits.Sub64(u.w[2], v.w[2], borrow)
	out.w[3], borrow = bits.Sub64(u.w[3], v.w[3], borrow)
	if borrow != 0 {
		return u256{}, fmt.Errorf("u256 sub %v-%v: %w", u, v, ErrNegativeResult)
	}

	return out, nil
}

// umulStep computes (z, carry) = z + (x * y) + carry.
func umulStep(z, x, y, carry uint64) (uint64, uint64) {
	ph, p := bits.Mul64(x, y)
	p, carry = bits.Add64(p, carry, 0)
	carry, _ = bits.Add64(ph, 0, carry)
	p, carry1 := bits.Add64(p, z, 0)
	carry, _ = bits.Add64(carry, 0, carry1)
	return p, carry
}

// mulFull computes the full, unchecked 256x256 -> 512-bit product of x, y.
func mulFull(x, y u256) [8]uint64 {
	var res [8]uint64
	for j := 0; j < 4; j++ {
		var carry uint64
		res[j+0], carry = umulStep(res[j+0], x.w[0], y.w[j], carry)
		res[j+1], carry = umulStep(res[j+1], x.w[1], y.w[j], carry)
		res[j+2], carry = umulStep(res[j+2], x.w[2], y.w[j], carry)
		res[j+3], carry = umulStep(res[j+3], x.w[3], y.w[j], carry)
		res[j+4] = carry
	}
	return res
}

// Mul returns u*v, erroring if the product overflows 256 bits.
func (u u256) Mul(v u256) (u256, error) {
	full := mulFull(u, v)
	for i := 4; i < 8; i++ {
		if full[i] != 0 {
			return u256{}, fmt.Errorf("u256 mul %v*%v: %w", u, v, ErrOverflow)
		}
	}

	return u256{w: [4]uint64{full[0], full[1], full[2], full[3]}}, nil
}

// Pow returns u**e, erroring on overflow.
func (u u256) Pow(e uint64) (u256, error) {
	result := u256FromUint64(1)
	base := u
	var err error
	for e > 0 {
		if e&1 == 1 {
			result, err = result.Mul(base)
			if err != nil {
				return u256{}, err
			}
		}

		e >>= 1
		if e == 0 {
			break
		}

		base, err = base.Mul(base)
		if err != nil {
			return u256{}, err
		}
	}

	return result, nil
}

// wideRem is a 320-bit working remainder used by QuoRem. A remainder is
// always < divisor <= 2^256-1 before a shift, so after shifting left by
// one bit and ORing in the next dividend bit it needs at most 257 bits;
// five 64-bit limbs give comfortable headroom without tracking a separate
// overflow flag.
type wideRem struct {
	w [5]uint64
}

func (r wideRem) shl1(bit uint64) wideRem {
	var out wideRem
	carry := bit
	for i := 0; i < 5; i++ {
		out.w[i] = (r.w[i] << 1) | carry
		carry = r.w[i] >> 63
	}
	return out
}

func (r wideRem) cmp(v u256) int {
	if r.w[4] != 0 {
		return 1
	}
	for i := 3; i >= 0; i-- {
		if r.w[i] > v.w[i] {
			return 1
		}
		if r.w[i] < v.w[i] {
			return -1
		}
	}
	return 0
}

func (r wideRem) sub(v u256) wideRem {
	var out wideRem
	var borrow uint64
	out.w[0], borrow = bits.Sub64(r.w[0], v.w[0], 0)
	out.w[1], borrow = bits.Sub64(r.w[1], v.w[1], borrow)
	out.w[2], borrow = bits.Sub64(r.w[2], v.w[2], borrow)
	out.w[3], borrow = bits.Sub64(r.w[3], v.w[3], borrow)
	out.w[4], _ = bits.Sub64(r.w[4], 0, borrow)
	return out
}

func (r wideRem) toU256() u256 {
	return u256{w: [4]uint64{r.w[0], r.w[1], r.w[2], r.w[3]}}
}

// QuoRem returns q = u/v and r = u%v via binary long division.
func (u u256) QuoRem(v u256) (q, r u256, err error) {
	if v.IsZero() {
		return u256{}, u256{}, fmt.Errorf("u256 quorem %v/%v: %w", u, v, ErrZeroDivision)
	}

	if u.Cmp(v) < 0 {
		return u256{}, u, nil
	}

	var rem wideRem
	var quot u256
	for i := 255; i >= 0; i-- {
		rem = rem.shl1(u.bitAt(i))
		if rem.cmp(v) >= 0 {
			rem = rem.sub(v)
			quot.w[i/64] |= uint64(1) << uint(i%64)
		}
	}

	return quot, rem.toU256(), nil
}

// QuoRem64 returns q = u/v and r = u%v for a uint64 divisor.
func (u u256) QuoRem64(v uint64) (q u256, r uint64) {
	qq, rr, _ := u.QuoRem(u256FromUint64(v))
	return qq, rr.w[0]
}

// Lsh returns u<<n, truncating bits shifted out past bit 255.
func (u u256) Lsh(n uint) u256 {
	if n == 0 {
		return u
	}

	var out u256
	wordShift := int(n / 64)
	bitShift := n % 64
	for i := 3; i >= 0; i-- {
		srcIdx := i - wordShift
		if srcIdx < 0 {
			continue
		}

		v := u.w[srcIdx] << bitShift
		if bitShift > 0 && srcIdx-1 >= 0 {
			v |= u.w[srcIdx-1] >> (64 - bitShift)
		}
		out.w[i] = v
	}

	return out
}

// Rsh returns u>>n.
func (u u256) Rsh(n uint) u256 {
	if n == 0 {
		return u
	}

	var out u256
	wordShift := int(n / 64)
	bitShift := n % 64
	for i := 0; i < 4; i++ {
		srcIdx := i + wordShift
		if srcIdx > 3 {
			continue
		}

		v := u.w[srcIdx] >> bitShift
		if bitShift > 0 && srcIdx+1 <= 3 {
			v |= u.w[srcIdx+1] << (64 - bitShift)
		}
		out.w[i] = v
	}

	return out
}

// toU128 narrows u to a u128, erroring if u doesn't fit.
func (u u256) toU128() (u128, error) {
	if u.w[2] != 0 || u.w[3] != 0 {
		return u128{}, fmt.Errorf("u256 %v to u128: %w", u, ErrOverflow)
	}

	return u128FromHiLo(u.w[1], u.w[0]), nil
}

func (u u256) String() string {
	if u.IsZero() {
		return "0"
	}

	buf := []byte("00000000000000000000000000000000000000000000000000000000000000000000000000000") // log10(2^256) < 78
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
