package fixedpoint

import (
	"math/big"

	"github.com/ALTree/bigfloat"
	"github.com/shopspring/decimal"
)

// floatPrec is the mantissa size used for transcendental functions.
const floatPrec = 256

// Sqrt returns floor(sqrt(p)) at 36 digits. It reports false for negative input.
func (p PreciseDecimal) Sqrt() (PreciseDecimal, bool) {
	if p.IsNegative() {
		return PreciseDecimal{}, false
	}
	if p.IsZero() {
		return PreciseZero, true
	}
	// sqrt(c * 10^e) * 10^36 = sqrt(c * 10^(e+72))
	n := p.v.Coefficient()
	shift := int64(p.v.Exponent()) + 2*PreciseScale
	switch {
	case shift > 0:
		n.Mul(n, pow10(int32(shift)))
	case shift < 0:
		n.Quo(n, pow10(int32(-shift)))
	}
	root := new(big.Int).Sqrt(n)
	return PreciseDecimal{v: decimal.NewFromBigInt(root, -PreciseScale)}, true
}

// Pow raises base to exponent. Both must be non-negative; the result is
// computed with a 256-bit mantissa and rounded to 18 digits with mode.
func Pow(base, exponent Decimal, mode RoundingMode) Decimal {
	if base.IsNegative() || exponent.IsNegative() {
		panic("fixedpoint: pow of negative operand")
	}
	if exponent.IsZero() {
		return One
	}
	if base.IsZero() {
		return Zero
	}
	r := bigfloat.Pow(base.bigFloat(floatPrec), exponent.bigFloat(floatPrec))
	return Decimal{v: fromBigFloat(r, DecimalScale, mode)}
}

// Ln returns the natural logarithm of a positive p at 36 digits.
func (p PreciseDecimal) Ln(mode RoundingMode) PreciseDecimal {
	if !p.IsPositive() {
		panic("fixedpoint: ln of non-positive value")
	}
	r := bigfloat.Log(p.bigFloat(floatPrec))
	return PreciseDecimal{v: fromBigFloat(r, PreciseScale, mode)}
}

// Exp returns e^p at 36 digits.
func (p PreciseDecimal) Exp(mode RoundingMode) PreciseDecimal {
	r := bigfloat.Exp(p.bigFloat(floatPrec))
	return PreciseDecimal{v: fromBigFloat(r, PreciseScale, mode)}
}
