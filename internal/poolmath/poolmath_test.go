package poolmath

import (
	"math/big"
	"testing"

	"github.com/ALTree/bigfloat"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"flexPool/internal/fixedpoint"
	"flexPool/internal/model"
)

func d(s string) fixedpoint.Decimal { return fixedpoint.MustParse(s) }

func TestInputAmountNet(t *testing.T) {
	cases := []struct {
		name                     string
		gross, rate, share       string
		div                      uint8
		net, lp, protocol, total string
	}{
		{"no fee", "10", "0", "0", 18, "10", "0", "0", "0"},
		{"lp only", "10", "0.02", "0", 18, "9.8", "0.2", "0", "0.2"},
		{"split", "10", "0.05", "0.25", 18, "9.5", "0.375", "0.125", "0.5"},
		{"total rounds up", "1", "0.001", "0", 2, "0.99", "0.01", "0", "0.01"},
		{"protocol rounds down", "1", "0.03", "0.25", 2, "0.97", "0.03", "0", "0.03"},
		{"zero gross", "0", "0.1", "0.25", 18, "0", "0", "0", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := InputAmountNet(d(tc.gross), d(tc.rate), d(tc.share), tc.div)
			require.True(t, got.Net.Equal(d(tc.net)), "net %s", got.Net)
			require.True(t, got.LP.Equal(d(tc.lp)), "lp %s", got.LP)
			require.True(t, got.Protocol.Equal(d(tc.protocol)), "protocol %s", got.Protocol)
			require.True(t, got.Total().Equal(d(tc.total)), "total %s", got.Total())
		})
	}
}

func TestInputAmountNetPanicsOnNegativeGross(t *testing.T) {
	require.PanicsWithValue(t,
		InvariantError{Op: "input amount net", Detail: "negative gross input -1"},
		func() { InputAmountNet(d("-1"), d("0.01"), fixedpoint.Zero, 18) },
	)
}

func TestBalancedOutput(t *testing.T) {
	cases := []struct {
		name                 string
		in, out, amount, fee string
		share                string
		swapType             model.SwapType
		want                 string
	}{
		{"sell x", "100000", "5000", "10", "0", "0", model.SellX, "0.499950004999500049"},
		{"buy x", "5000", "100000", "10", "0", "0", model.BuyX, "199.600798403193612774"},
		{"sell x with lp fee", "100000", "5000", "10", "0.02", "0", model.SellX, "0.489951984705498861"},
		{"sell x with protocol fee", "100000", "5000", "10", "0.05", "0.25", model.SellX, "0.474954879286467785"},
		{"small pool", "10", "10", "1", "0", "0", model.SellX, "0.90909090909090909"},
		{"uneven pool", "1", "2", "2", "0", "0", model.SellX, "1.333333333333333333"},
		{"tiny input", "100000", "5000", "1", "0", "0", model.SellX, "0.04999950000499995"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fees := InputAmountNet(d(tc.amount), d(tc.fee), d(tc.share), 18)
			got := OutputAmount(d(tc.in), d(tc.out), fees.Net, fixedpoint.One, tc.swapType, 18)
			require.Equal(t, tc.want, got.String())
		})
	}
}

func TestWeightedOutput(t *testing.T) {
	cases := []struct {
		name            string
		in, out, amount string
		ratio           string
		swapType        model.SwapType
		want            string
	}{
		{"sell x heavy x", "400000", "5000", "10", "4", model.SellX, "0.49996875156192"},
		{"sell x light x", "100000", "20000", "10", "0.25", model.SellX, "0.49996875234156"},
		{"buy x heavy x", "5000", "400000", "10", "4", model.BuyX, "199.7503743916192"},
		{"buy x light x", "20000", "100000", "10", "0.25", model.BuyX, "199.7502497814148"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := OutputAmount(d(tc.in), d(tc.out), d(tc.amount), d(tc.ratio), tc.swapType, 18)
			require.True(t, got.Equal(d(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

func TestOutputAmountRoundsToDivisibility(t *testing.T) {
	got := OutputAmount(d("100000"), d("5000"), d("10"), fixedpoint.One, model.SellX, 2)
	require.Equal(t, "0.49", got.String())

	got = OutputAmount(d("400000"), d("5000"), d("10"), d("4"), model.SellX, 0)
	require.True(t, got.IsZero())
}

func TestOutputAmountZeroInput(t *testing.T) {
	require.True(t, OutputAmount(d("10"), d("10"), fixedpoint.Zero, fixedpoint.One, model.SellX, 18).IsZero())
	require.True(t, OutputAmount(d("10"), d("10"), fixedpoint.Zero, d("4"), model.BuyX, 18).IsZero())
}

func TestOutputAmountPanicsOnNegativeInput(t *testing.T) {
	require.Panics(t, func() {
		OutputAmount(d("10"), d("10"), d("-1"), fixedpoint.One, model.SellX, 18)
	})
}

func TestPriceSqrt(t *testing.T) {
	cases := []struct {
		name        string
		x, y, ratio string
		want        string
	}{
		{"balanced", "100000", "5000", "1", "0.223606797749978969640917366873127623"},
		{"heavy x", "400000", "5000", "4", "0.223606797749978969640917366873127622"},
		{"light x", "100000", "20000", "0.25", "0.223606797749978969640917366873127623"},
		{"sqrt two", "1", "2", "1", "1.414213562373095048801688724209698078"},
		{"sqrt two scaled", "2", "4", "1", "1.414213562373095048801688724209698079"},
		{"after swap", "3", "0.666666666666666667", "1", "0.471404520791031683051747371600990613"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := PriceSqrt(d(tc.x), d(tc.y), d(tc.ratio))
			require.True(t, ok)
			require.Equal(t, tc.want, got.String())
		})
	}

	_, ok := PriceSqrt(fixedpoint.Zero, d("1"), fixedpoint.One)
	require.False(t, ok)
	_, ok = PriceSqrt(d("1"), fixedpoint.Zero, fixedpoint.One)
	require.False(t, ok)
}

func TestRatio(t *testing.T) {
	require.Equal(t, "1", Ratio(d("0.5")).String())
	require.Equal(t, "4", Ratio(d("0.8")).String())
	require.Equal(t, "0.25", Ratio(d("0.2")).String())
}

func amountGen(max int64) *rapid.Generator[fixedpoint.Decimal] {
	return rapid.Custom(func(t *rapid.T) fixedpoint.Decimal {
		milli := rapid.Int64Range(1, max).Draw(t, "milli")
		return fixedpoint.NewFromInt(milli).Mul(d("0.001"), fixedpoint.ToZero)
	})
}

func TestFeeSplitProperties(t *testing.T) {
	rates := []string{"0", "0.0001", "0.003", "0.01", "0.05", "0.1"}
	shares := []string{"0", "0.1", "0.2", "0.25"}
	rapid.Check(t, func(t *rapid.T) {
		gross := amountGen(1_000_000_000).Draw(t, "gross")
		rate := d(rapid.SampledFrom(rates).Draw(t, "rate"))
		share := d(rapid.SampledFrom(shares).Draw(t, "share"))
		div := uint8(rapid.IntRange(0, 18).Draw(t, "div"))

		fees := InputAmountNet(gross, rate, share, div)
		total := fees.Total()
		exact := gross.Precise().Mul(rate.Precise(), fixedpoint.ToZero)

		require.False(t, fees.Net.IsNegative())
		require.True(t, fees.Net.Add(total).Equal(gross))
		require.False(t, total.Precise().LessThan(exact))
		require.False(t, fees.Protocol.Precise().GreaterThan(total.Precise().Mul(share.Precise(), fixedpoint.ToZero)))
		require.False(t, fees.LP.IsNegative())
	})
}

func TestBalancedOutputKeepsProduct(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rin := amountGen(1_000_000_000).Draw(t, "inputReserve")
		rout := amountGen(1_000_000_000).Draw(t, "outputReserve")
		in := amountGen(100_000_000).Draw(t, "input")
		div := uint8(rapid.IntRange(0, 18).Draw(t, "div"))

		out := OutputAmount(rin, rout, in, fixedpoint.One, model.SellX, div)
		require.False(t, out.IsNegative())
		require.True(t, out.LessThan(rout))

		before := rin.Precise().Mul(rout.Precise(), fixedpoint.ToZero)
		after := rin.Add(in).Precise().Mul(rout.Sub(out).Precise(), fixedpoint.ToZero)
		require.False(t, after.LessThan(before), "product shrank: %s -> %s", before, after)
	})
}

func TestWeightedOutputBounded(t *testing.T) {
	ratios := []string{"0.0526", "0.25", "0.5", "2", "4", "19"}
	rapid.Check(t, func(t *rapid.T) {
		rin := amountGen(1_000_000_000).Draw(t, "inputReserve")
		rout := amountGen(1_000_000_000).Draw(t, "outputReserve")
		in := amountGen(100_000_000).Draw(t, "input")
		ratio := d(rapid.SampledFrom(ratios).Draw(t, "ratio"))
		swapType := rapid.SampledFrom([]model.SwapType{model.BuyX, model.SellX}).Draw(t, "swapType")

		out := OutputAmount(rin, rout, in, ratio, swapType, 18)
		require.False(t, out.IsNegative())
		require.True(t, out.LessThan(rout))
	})
}

func TestWeightedFormAtRatioOneNeverBeatsClosedForm(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rin := amountGen(1_000_000_000).Draw(t, "inputReserve")
		rout := amountGen(1_000_000_000).Draw(t, "outputReserve")
		in := amountGen(100_000_000).Draw(t, "input")

		weighted := weightedOutput(rin, rout, in, fixedpoint.One, model.SellX, 18)
		balanced := balancedOutput(rin, rout, in, 18)
		require.False(t, weighted.GreaterThan(balanced), "weighted %s > balanced %s", weighted, balanced)
	})
}

const refPrec = 512

func refFloat(d fixedpoint.Decimal) *big.Float {
	f, _, err := big.ParseFloat(d.String(), 10, refPrec, big.ToNearestEven)
	if err != nil {
		panic(err)
	}
	return f
}

// referenceOutput is Ro * (1 - (Ri / (Ri + in))^w) at 512 bits with no
// intermediate rounding.
func referenceOutput(rin, rout, in, weight fixedpoint.Decimal) *big.Float {
	sum := new(big.Float).SetPrec(refPrec).Add(refFloat(rin), refFloat(in))
	base := new(big.Float).SetPrec(refPrec).Quo(refFloat(rin), sum)
	p := bigfloat.Pow(base, refFloat(weight))
	rest := new(big.Float).SetPrec(refPrec).Sub(big.NewFloat(1).SetPrec(refPrec), p)
	return new(big.Float).SetPrec(refPrec).Mul(refFloat(rout), rest)
}

func TestWeightedOutputNeverOverpays(t *testing.T) {
	ratios := []string{"0.0526", "0.25", "0.5", "2", "4", "19"}
	slack := refFloat(d("0.0000000000000002"))
	dust := refFloat(d("0.00000000000000001"))
	rapid.Check(t, func(t *rapid.T) {
		rin := amountGen(1_000_000_000).Draw(t, "inputReserve")
		rout := amountGen(1_000_000_000).Draw(t, "outputReserve")
		in := amountGen(100_000_000).Draw(t, "input")
		ratio := d(rapid.SampledFrom(ratios).Draw(t, "ratio"))
		swapType := rapid.SampledFrom([]model.SwapType{model.BuyX, model.SellX}).Draw(t, "swapType")

		weight := ratio
		if swapType == model.BuyX {
			weight = fixedpoint.One.Quo(ratio, fixedpoint.ToZero)
		}
		out := refFloat(weightedOutput(rin, rout, in, ratio, swapType, 18))
		exact := referenceOutput(rin, rout, in, weight)
		require.True(t, out.Cmp(exact) <= 0, "output %s above exact %s", out.Text('g', 40), exact.Text('g', 40))

		// Small trades keep the rounded base within reach of the margin.
		if in.GreaterThan(rin) {
			return
		}
		gap := new(big.Float).SetPrec(refPrec).Sub(exact, out)
		bound := new(big.Float).SetPrec(refPrec).Mul(refFloat(rout), slack)
		bound.Add(bound, dust)
		require.True(t, gap.Cmp(bound) <= 0, "underpaid by %s, bound %s", gap.Text('g', 20), bound.Text('g', 20))
	})
}
