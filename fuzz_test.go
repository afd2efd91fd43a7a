package steamm

import (
	"testing"

	gv "github.com/govalues/decimal"
	ss "github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var fuzzCorpus = []struct{ a, b uint64 }{
	{0, 0},
	{1, 1},
	{1, 0},
	{1_000_000, 3},
	{123456789, 987654321},
	{999999999999, 7},
}

// FuzzDecimalAddSub cross-checks checked Decimal addition and subtraction
// against shopspring/decimal, an independent arbitrary-precision decimal
// implementation. Operands are whole numbers, so both sides of the
// comparison are exact: no rounding-mode ambiguity to paper over.
func FuzzDecimalAddSub(f *testing.F) {
	for _, c := range fuzzCorpus {
		f.Add(c.a, c.b)
	}

	f.Fuzz(func(t *testing.T, a, b uint64) {
		a %= 1_000_000_000_000
		b %= 1_000_000_000_000

		da := DecimalFromUint64(a)
		db := DecimalFromUint64(b)

		sum, err := da.CheckedAdd(db)
		require.NoError(t, err)

		want := ss.NewFromInt(int64(a)).Add(ss.NewFromInt(int64(b)))
		got, err := ss.NewFromString(sum.String())
		require.NoError(t, err)
		require.True(t, want.Equal(got), "want %s got %s", want, got)

		if a >= b {
			diff, err := da.CheckedSub(db)
			require.NoError(t, err)

			wantSub := ss.NewFromInt(int64(a)).Sub(ss.NewFromInt(int64(b)))
			gotSub, err := ss.NewFromString(diff.String())
			require.NoError(t, err)
			require.True(t, wantSub.Equal(gotSub), "want %s got %s", wantSub, gotSub)
		}
	})
}

// FuzzDecimalMul cross-checks checked Decimal multiplication against
// shopspring/decimal. Both operands are whole numbers, so the product is
// exact and representable at 18 decimal places without rounding.
func FuzzDecimalMul(f *testing.F) {
	for _, c := range fuzzCorpus {
		f.Add(c.a, c.b)
	}

	f.Fuzz(func(t *testing.T, a, b uint64) {
		a %= 1_000_000
		b %= 1_000_000

		da := DecimalFromUint64(a)
		db := DecimalFromUint64(b)

		product, err := da.CheckedMul(db)
		require.NoError(t, err)

		want := ss.NewFromInt(int64(a)).Mul(ss.NewFromInt(int64(b)))
		got, err := ss.NewFromString(product.String())
		require.NoError(t, err)
		require.True(t, want.Equal(got), "want %s got %s", want, got)
	})
}

// FuzzDecimalDivRoundTrip checks the floor-division invariant
// floor(a/b)*b <= a < floor(a/b)*b + b directly (CheckedDiv truncates,
// so there is no external oracle with matching rounding semantics to
// compare against for arbitrary operands).
func FuzzDecimalDivRoundTrip(f *testing.F) {
	for _, c := range fuzzCorpus {
		f.Add(c.a, c.b+1)
	}

	f.Fuzz(func(t *testing.T, a, b uint64) {
		a = a % 1_000_000
		b = b%1_000_000 + 1

		da := DecimalFromUint64(a)
		db := DecimalFromUint64(b)

		q, err := da.CheckedDiv(db)
		require.NoError(t, err)

		lower, err := q.CheckedMul(db)
		require.NoError(t, err)
		require.True(t, lower.Cmp(da) <= 0)

		upper, err := lower.CheckedAdd(db)
		require.NoError(t, err)
		require.True(t, da.Cmp(upper) < 0)
	})
}

// TestDecimalPowAgainstGovalues cross-checks checked Decimal exponentiation
// against govalues/decimal's exact integer-power implementation.
func TestDecimalPowAgainstGovalues(t *testing.T) {
	testcases := []struct {
		base uint64
		exp  uint64
	}{
		{base: 2, exp: 10},
		{base: 3, exp: 5},
		{base: 7, exp: 0},
		{base: 11, exp: 3},
	}

	for _, tc := range testcases {
		got, err := DecimalFromUint64(tc.base).CheckedPow(tc.exp)
		require.NoError(t, err)

		gotRounded, err := got.CheckedRound()
		require.NoError(t, err)

		base, err := gv.New(int64(tc.base), 0)
		require.NoError(t, err)

		want, err := base.Pow(int(tc.exp))
		require.NoError(t, err)

		wantFloat, ok := want.Float64()
		require.True(t, ok)
		require.InDelta(t, wantFloat, float64(gotRounded), 1e-6)
	}
}
