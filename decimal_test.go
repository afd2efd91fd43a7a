package steamm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	testcases := []struct {
		in   string
		want string
	}{
		{in: "0", want: "0.000000000000000000"},
		{in: "1", want: "1.000000000000000000"},
		{in: "123", want: "123.000000000000000000"},
		{in: "123.456", want: "123.456000000000000000"},
		{in: "123456789.123456789", want: "123456789.123456789000000000"},
	}

	for _, tc := range testcases {
		d, err := ParseDecimal(tc.in)
		require.NoError(t, err)
		require.Equal(t, tc.want, d.String())
	}
}

func TestParseDecimalErrors(t *testing.T) {
	_, err := ParseDecimal("")
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = ParseDecimal("1.2345678901234567890") // 19 fractional digits
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestDecimalAddSub(t *testing.T) {
	a := DecimalFromUint64(10)
	b := DecimalFromUint64(3)

	sum, err := a.CheckedAdd(b)
	require.NoError(t, err)
	require.Equal(t, DecimalFromUint64(13), sum)

	diff, err := a.CheckedSub(b)
	require.NoError(t, err)
	require.Equal(t, DecimalFromUint64(7), diff)

	_, err = b.CheckedSub(a)
	require.ErrorIs(t, err, ErrNegativeResult)
}

func TestDecimalMulDiv(t *testing.T) {
	half := MustParseDecimal("0.5")
	three := DecimalFromUint64(3)

	got, err := three.CheckedMul(half)
	require.NoError(t, err)
	require.Equal(t, MustParseDecimal("1.5"), got)

	got, err = three.CheckedDiv(half)
	require.NoError(t, err)
	require.Equal(t, DecimalFromUint64(6), got)

	_, err = three.CheckedDiv(zeroDecimal)
	require.ErrorIs(t, err, ErrZeroDivision)
}

func TestDecimalFloorCeilRound(t *testing.T) {
	d := MustParseDecimal("1.6")

	f, err := d.FloorUint64()
	require.NoError(t, err)
	require.Equal(t, uint64(1), f)

	c, err := d.CeilUint64()
	require.NoError(t, err)
	require.Equal(t, uint64(2), c)

	r, err := d.CheckedRound()
	require.NoError(t, err)
	require.Equal(t, uint64(2), r)
}

func TestDecimalSqrt(t *testing.T) {
	testcases := []struct {
		in   uint64
		want uint64
	}{
		{in: 4, want: 2},
		{in: 9, want: 3},
		{in: 1000000, want: 1000},
	}

	for _, tc := range testcases {
		got, err := DecimalFromUint64(tc.in).CheckedSqrt()
		require.NoError(t, err)

		rounded, err := got.CheckedRound()
		require.NoError(t, err)
		require.Equal(t, tc.want, rounded)
	}
}

func TestDecimalPow(t *testing.T) {
	got, err := DecimalFromUint64(2).CheckedPow(10)
	require.NoError(t, err)
	require.Equal(t, DecimalFromUint64(1024), got)
}

func TestDecimalAlmostEq(t *testing.T) {
	a := MustParseDecimal("1.000000000001")
	b := MustParseDecimal("1.000000000002")
	require.True(t, a.AlmostEq(b, 6))
	require.False(t, a.AlmostEq(b, 15))
}
