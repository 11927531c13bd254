package fixedpoint

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRoundToModes(t *testing.T) {
	cases := []struct {
		in   string
		mode RoundingMode
		want string
	}{
		{"1.5", ToZero, "1"},
		{"1.5", AwayFromZero, "2"},
		{"1.5", ToNegativeInfinity, "1"},
		{"1.5", ToPositiveInfinity, "2"},
		{"-1.5", ToZero, "-1"},
		{"-1.5", AwayFromZero, "-2"},
		{"-1.5", ToNegativeInfinity, "-2"},
		{"-1.5", ToPositiveInfinity, "-1"},
		{"2", ToPositiveInfinity, "2"},
	}
	for _, tc := range cases {
		t.Run(tc.in+"/"+tc.mode.String(), func(t *testing.T) {
			got := MustParse(tc.in).RoundTo(0, tc.mode)
			require.Equal(t, tc.want, got.String())
		})
	}
}

func TestQuoDirections(t *testing.T) {
	three := NewFromInt(3)
	require.Equal(t, "0.333333333333333333", One.Quo(three, ToZero).String())
	require.Equal(t, "0.333333333333333334", One.Quo(three, ToPositiveInfinity).String())
	require.Equal(t, "-0.333333333333333334", One.Neg().Quo(three, ToNegativeInfinity).String())
	require.Equal(t, "-0.333333333333333333", One.Neg().Quo(three, ToPositiveInfinity).String())
	require.Equal(t, "4", MustParse("0.8").Quo(MustParse("0.2"), ToZero).String())
}

func TestNewFromStringRejectsExtraDigits(t *testing.T) {
	_, err := NewFromString("0.0000000000000000001")
	require.ErrorIs(t, err, ErrPrecisionExceeded)

	d, err := NewFromString("1.500000000000000000000")
	require.NoError(t, err)
	require.Equal(t, "1.5", d.String())

	_, err = NewFromString("abc")
	require.ErrorIs(t, err, ErrInvalidDecimal)
}

func TestPreciseNarrowing(t *testing.T) {
	p := MustParsePrecise("0.123456789012345678901234567890123456")
	require.Equal(t, "0.123456789012345678", p.ToDecimal(ToNegativeInfinity).String())
	require.Equal(t, "0.123456789012345679", p.ToDecimal(ToPositiveInfinity).String())
	require.Equal(t, "0.12", p.RoundTo(2, ToZero).String())
	require.Equal(t, "1", p.RoundTo(0, AwayFromZero).String())
}

func TestSqrt(t *testing.T) {
	two, ok := NewPreciseFromInt(2).Sqrt()
	require.True(t, ok)
	require.Equal(t, "1.414213562373095048801688724209698078", two.String())

	four, ok := NewPreciseFromInt(4).Sqrt()
	require.True(t, ok)
	require.Equal(t, "2", four.String())

	small, ok := PreciseAtto.Sqrt()
	require.True(t, ok)
	require.Equal(t, "0.000000000000000001", small.String())

	_, ok = NewPreciseFromInt(-1).Sqrt()
	require.False(t, ok)
}

func TestPow(t *testing.T) {
	require.Equal(t, "0.5", Pow(MustParse("0.25"), MustParse("0.5"), ToNegativeInfinity).String())
	require.Equal(t, "0.3", Pow(MustParse("0.3"), One, ToNegativeInfinity).String())
	require.Equal(t, "1", Pow(MustParse("0.3"), Zero, ToNegativeInfinity).String())
	require.Equal(t, "0", Pow(Zero, MustParse("2"), ToNegativeInfinity).String())
	require.Equal(t, "0.999900008749312553", Pow(MustParse("0.999975001249937504"), NewFromInt(4), ToNegativeInfinity).String())
}

func TestLnExp(t *testing.T) {
	require.Equal(t, "0", PreciseOne.Ln(ToZero).String())
	require.Equal(t, "1", PreciseZero.Exp(ToZero).String())

	e := PreciseOne.Exp(ToZero)
	require.Equal(t, "2.718281828459045235360287471352662497", e.String())

	back := e.Ln(ToNegativeInfinity)
	diff := back.Sub(PreciseOne)
	require.True(t, diff.LessThan(MustParsePrecise("0.000000000000000000000000000000000010")))
	require.True(t, diff.GreaterThan(MustParsePrecise("-0.000000000000000000000000000000000010")))
}

func TestJSONRoundTrip(t *testing.T) {
	d := MustParse("12.34")
	raw, err := d.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `"12.34"`, string(raw))

	var back Decimal
	require.NoError(t, back.UnmarshalJSON(raw))
	require.True(t, back.Equal(d))

	require.NoError(t, back.UnmarshalJSON([]byte("7")))
	require.Equal(t, "7", back.String())
}

func TestRoundingBrackets(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		num := rapid.Int64Range(-1_000_000_000, 1_000_000_000).Draw(t, "num")
		den := rapid.Int64Range(1, 1_000_000).Draw(t, "den")
		places := rapid.IntRange(0, 18).Draw(t, "places")

		a := NewFromInt(num)
		b := NewFromInt(den)
		exact := a.Precise().Quo(b.Precise(), ToZero)

		floor := exact.RoundTo(uint8(places), ToNegativeInfinity)
		ceil := exact.RoundTo(uint8(places), ToPositiveInfinity)
		if floor.Precise().GreaterThan(exact) {
			t.Fatalf("floor %s above %s", floor, exact)
		}
		if ceil.Precise().LessThan(exact) {
			t.Fatalf("ceil %s below %s", ceil, exact)
		}
		if ceil.Sub(floor).GreaterThan(One) {
			t.Fatalf("bracket too wide: %s..%s", floor, ceil)
		}
	})
}

func TestSqrtIsFloor(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Int64Range(0, 1<<40).Draw(t, "n")
		p := NewPreciseFromInt(n).Quo(NewPreciseFromInt(1000), ToZero)
		root, ok := p.Sqrt()
		if !ok {
			t.Fatalf("sqrt(%s) failed", p)
		}
		if root.Mul(root, ToZero).GreaterThan(p) {
			t.Fatalf("sqrt(%s)=%s too large", p, root)
		}
		next := root.Add(PreciseAtto)
		sq := next.v.Mul(next.v)
		if sq.LessThanOrEqual(p.v) {
			t.Fatalf("sqrt(%s)=%s too small", p, root)
		}
	})
}
