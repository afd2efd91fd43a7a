package steamm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFixedPointFromRoundTrip(t *testing.T) {
	fp := FixedPointFrom(42)
	require.Equal(t, u128FromU64(42), fp.ToUint128Down())
}

func TestFixedPointFromRationalRoundTrip(t *testing.T) {
	testcases := []uint64{1, 7, 1000, 123456789}

	for _, den := range testcases {
		fp, err := FixedPointFromRational(den*3+1, den)
		require.NoError(t, err)

		back, err := fp.Mul(FixedPointFrom(den))
		require.NoError(t, err)

		got := back.ToUint128Down()
		want := den*3 + 1
		// truncation can lose at most one unit of the numerator.
		require.True(t, got.Cmp64(want) == 0 || got.Cmp64(want-1) == 0)
	}
}

func TestFixedPointFromRationalErrors(t *testing.T) {
	_, err := FixedPointFromRational(1, 0)
	require.ErrorIs(t, err, ErrZeroDivision)
}

func TestFixedPointMulDiv(t *testing.T) {
	two := FixedPointFrom(2)
	three := FixedPointFrom(3)

	product, err := two.Mul(three)
	require.NoError(t, err)
	require.Equal(t, FixedPointFrom(6), product)

	quotient, err := three.Div(two)
	require.NoError(t, err)
	require.Equal(t, uint64(1), quotient.ToUint128Down().lo)
}

func TestFixedPointPow(t *testing.T) {
	two := FixedPointFrom(2)
	got, err := two.Pow(10)
	require.NoError(t, err)
	require.Equal(t, FixedPointFrom(1024), got)
}

func TestFloorLog2(t *testing.T) {
	n, err := floorLog2(u128FromU64(1))
	require.NoError(t, err)
	require.Equal(t, uint32(0), n)

	n, err = floorLog2(u128FromU64(1024))
	require.NoError(t, err)
	require.Equal(t, uint32(10), n)

	_, err = floorLog2(u128{})
	require.ErrorIs(t, err, ErrLogOfZero)
}

func TestLog2Plus64ExactPowersOfTwo(t *testing.T) {
	for n := uint32(0); n < 100; n++ {
		raw := u128FromU64(1).Lsh(uint(n))
		got, err := log2Plus64(raw)
		require.NoError(t, err)
		require.Equal(t, FixedPointFrom(uint64(n)), got)
	}
}

func TestMultiplyDivideOrderIndependent(t *testing.T) {
	a := FixedPointFrom(7)
	b := FixedPointFrom(11)
	c := FixedPointFrom(3)
	d := FixedPointFrom(5)

	got1, err := multiplyDivide([]FixedPoint64{a, b}, []FixedPoint64{c, d})
	require.NoError(t, err)

	got2, err := multiplyDivide([]FixedPoint64{b, a}, []FixedPoint64{d, c})
	require.NoError(t, err)

	require.True(t, got1.Close(got2, 2))
}

func TestMultiplyDivideErrors(t *testing.T) {
	_, err := multiplyDivide(nil, nil)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = multiplyDivide([]FixedPoint64{FixedPointFrom(1)}, []FixedPoint64{FixedPointFrom(0)})
	require.ErrorIs(t, err, ErrZeroDivision)
}
