package poolmath

import "flexPool/internal/fixedpoint"

// PriceSqrt returns sqrt(y / x * ratio) computed as sqrt(y) / sqrt(x) * sqrt(ratio)
// with every intermediate truncated to 36 digits. It reports false when either
// reserve is not positive.
func PriceSqrt(x, y, ratio fixedpoint.Decimal) (fixedpoint.PreciseDecimal, bool) {
	if !x.IsPositive() || !y.IsPositive() || !ratio.IsPositive() {
		return fixedpoint.PreciseDecimal{}, false
	}
	sx, _ := x.Precise().Sqrt()
	sy, _ := y.Precise().Sqrt()
	sr, _ := ratio.Precise().Sqrt()
	if sx.IsZero() {
		return fixedpoint.PreciseDecimal{}, false
	}
	return sy.Quo(sx, fixedpoint.ToZero).Mul(sr, fixedpoint.ToZero), true
}

// Ratio converts the x share into the x_share / y_share weight ratio, truncated.
func Ratio(xShare fixedpoint.Decimal) fixedpoint.Decimal {
	return xShare.Quo(fixedpoint.One.Sub(xShare), fixedpoint.ToZero)
}
