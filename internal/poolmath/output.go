package poolmath

import (
	"flexPool/internal/fixedpoint"
	"flexPool/internal/model"
)

// powMargin is added to the weighted power term to absorb pow approximation error.
var powMargin = fixedpoint.MustParse("0.0000000000000001")

// OutputAmount prices a swap of netInput against the reserves. ratio is the
// x_share / y_share weight ratio of the pool; 1 selects the constant product
// closed form.
func OutputAmount(
	inputReserve fixedpoint.Decimal,
	outputReserve fixedpoint.Decimal,
	netInput fixedpoint.Decimal,
	ratio fixedpoint.Decimal,
	swapType model.SwapType,
	outputDivisibility uint8,
) fixedpoint.Decimal {
	if netInput.IsNegative() {
		invariant("output amount", "negative net input %s", netInput)
	}
	if netInput.IsZero() {
		return fixedpoint.Zero
	}

	var out fixedpoint.Decimal
	if ratio.Equal(fixedpoint.One) {
		out = balancedOutput(inputReserve, outputReserve, netInput, outputDivisibility)
	} else {
		out = weightedOutput(inputReserve, outputReserve, netInput, ratio, swapType, outputDivisibility)
	}

	if out.IsNegative() {
		invariant("output amount", "negative output %s", out)
	}
	return out
}

func balancedOutput(inputReserve, outputReserve, netInput fixedpoint.Decimal, div uint8) fixedpoint.Decimal {
	num := outputReserve.Precise().Mul(netInput.Precise(), fixedpoint.ToZero)
	den := inputReserve.Add(netInput).Precise()
	return num.Quo(den, fixedpoint.ToZero).RoundTo(div, fixedpoint.ToNegativeInfinity)
}

// weightedOutput solves Ro * (1 - (Ri / (Ri + in))^w). The base is rounded up
// and the power down, then powMargin is added, so the output errs low.
func weightedOutput(
	inputReserve, outputReserve, netInput, ratio fixedpoint.Decimal,
	swapType model.SwapType,
	div uint8,
) fixedpoint.Decimal {
	share := inputReserve.Precise().
		Quo(inputReserve.Add(netInput).Precise(), fixedpoint.ToZero).
		Add(fixedpoint.PreciseAtto).
		ToDecimal(fixedpoint.AwayFromZero)

	weight := ratio
	if swapType == model.BuyX {
		weight = fixedpoint.One.Quo(ratio, fixedpoint.ToZero)
	}

	p := fixedpoint.Pow(share, weight, fixedpoint.ToNegativeInfinity)
	s := fixedpoint.Min(fixedpoint.One, p.Add(powMargin))

	return outputReserve.Precise().
		Mul(fixedpoint.One.Sub(s).Precise(), fixedpoint.ToZero).
		RoundTo(div, fixedpoint.ToNegativeInfinity)
}
