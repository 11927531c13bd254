package poolmath

import "flexPool/internal/fixedpoint"

// FeeSplit is the result of charging the input fee on a gross input.
type FeeSplit struct {
	Net      fixedpoint.Decimal
	LP       fixedpoint.Decimal
	Protocol fixedpoint.Decimal
}

// Total is the whole fee taken from the gross input.
func (f FeeSplit) Total() fixedpoint.Decimal {
	return f.LP.Add(f.Protocol)
}

// InputAmountNet charges feeRate on gross. The total fee rounds up to the
// input divisibility and the protocol part rounds down.
func InputAmountNet(gross, feeRate, protocolShare fixedpoint.Decimal, divisibility uint8) FeeSplit {
	if gross.IsNegative() {
		invariant("input amount net", "negative gross input %s", gross)
	}
	total := gross.Precise().Mul(feeRate.Precise(), fixedpoint.ToZero).
		RoundTo(divisibility, fixedpoint.ToPositiveInfinity)
	protocol := total.Precise().Mul(protocolShare.Precise(), fixedpoint.ToZero).
		RoundTo(divisibility, fixedpoint.ToNegativeInfinity)
	lp := total.Sub(protocol)
	net := gross.Sub(total)
	if net.IsNegative() {
		invariant("input amount net", "fee %s exceeds gross input %s", total, gross)
	}
	return FeeSplit{Net: net, LP: lp, Protocol: protocol}
}
