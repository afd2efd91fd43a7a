package steamm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestU256AddSub(t *testing.T) {
	max := u256{w: [4]uint64{^uint64(0), ^uint64(0), ^uint64(0), ^uint64(0)}}

	_, err := max.Add(u256FromUint64(1))
	require.ErrorIs(t, err, ErrOverflow)

	got, err := u256FromUint64(5).Add(u256FromUint64(3))
	require.NoError(t, err)
	require.Equal(t, u256FromUint64(8), got)

	_, err = u256FromUint64(1).Sub(u256FromUint64(2))
	require.ErrorIs(t, err, ErrNegativeResult)
}

func TestU256Mul(t *testing.T) {
	a := u256FromUint64(1_000_000_000_000)
	b := u256FromUint64(1_000_000_000_000)
	got, err := a.Mul(b)
	require.NoError(t, err)
	require.Equal(t, "1000000000000000000000000", got.String())

	max := u256{w: [4]uint64{^uint64(0), ^uint64(0), ^uint64(0), ^uint64(0)}}
	_, err = max.Mul(u256FromUint64(2))
	require.ErrorIs(t, err, ErrOverflow)
}

func TestU256QuoRem(t *testing.T) {
	testcases := []struct {
		u, v  uint64
		wantQ uint64
		wantR uint64
	}{
		{u: 1000, v: 7, wantQ: 142, wantR: 6},
		{u: 1_000_000_000_000, v: 3, wantQ: 333333333333, wantR: 1},
	}

	for _, tc := range testcases {
		q, r, err := u256FromUint64(tc.u).QuoRem(u256FromUint64(tc.v))
		require.NoError(t, err)
		require.Equal(t, u256FromUint64(tc.wantQ), q)
		require.Equal(t, u256FromUint64(tc.wantR), r)
	}
}

func TestU256QuoRemWide(t *testing.T) {
	// (2^200) / (2^100 + 1): checked against q*v+r == u, to exercise the
	// binary long division with a divisor wider than one 64-bit limb.
	u := u256FromUint64(1).Lsh(200)
	v, err := u256FromUint64(1).Lsh(100).Add(u256FromUint64(1))
	require.NoError(t, err)

	q, r, err := u.QuoRem(v)
	require.NoError(t, err)

	prod, err := q.Mul(v)
	require.NoError(t, err)
	sum, err := prod.Add(r)
	require.NoError(t, err)
	require.Equal(t, u, sum)
	require.Equal(t, -1, r.Cmp(v))
}

func TestU256ShiftRoundTrip(t *testing.T) {
	u := u256FromUint64(12345)
	require.Equal(t, u, u.Lsh(40).Rsh(40))
}

func TestU256Pow(t *testing.T) {
	got, err := u256FromUint64(10).Pow(18)
	require.NoError(t, err)
	require.Equal(t, wad, got)
}

func TestU256DecimalString(t *testing.T) {
	v, err := u256FromDecimalString("340282366920938463463374607431768211456") // 2^128
	require.NoError(t, err)
	require.Equal(t, u256FromUint64(1).Lsh(128), v)
	require.Equal(t, "340282366920938463463374607431768211456", v.String())
}
