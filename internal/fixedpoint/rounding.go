package fixedpoint

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// RoundingMode selects the direction used whenever digits are dropped.
type RoundingMode int

const (
	ToZero RoundingMode = iota
	AwayFromZero
	ToNegativeInfinity
	ToPositiveInfinity
)

func (m RoundingMode) String() string {
	switch m {
	case ToZero:
		return "to_zero"
	case AwayFromZero:
		return "away_from_zero"
	case ToNegativeInfinity:
		return "to_negative_infinity"
	case ToPositiveInfinity:
		return "to_positive_infinity"
	default:
		return fmt.Sprintf("rounding_mode(%d)", int(m))
	}
}

func roundPlaces(d decimal.Decimal, places int32, mode RoundingMode) decimal.Decimal {
	switch mode {
	case ToZero:
		return d.RoundDown(places)
	case AwayFromZero:
		return d.RoundUp(places)
	case ToNegativeInfinity:
		return d.RoundFloor(places)
	case ToPositiveInfinity:
		return d.RoundCeil(places)
	default:
		panic(fmt.Sprintf("fixedpoint: unknown %s", mode))
	}
}

// quoPlaces divides a by b keeping places fractional digits.
func quoPlaces(a, b decimal.Decimal, places int32, mode RoundingMode) decimal.Decimal {
	if b.IsZero() {
		panic("fixedpoint: division by zero")
	}
	q, r := a.QuoRem(b, places)
	if r.IsZero() {
		return q
	}
	sign := a.Sign() * b.Sign()
	ulp := decimal.New(1, -places)
	switch mode {
	case ToZero:
		return q
	case AwayFromZero:
		if sign < 0 {
			return q.Sub(ulp)
		}
		return q.Add(ulp)
	case ToNegativeInfinity:
		if sign < 0 {
			return q.Sub(ulp)
		}
		return q
	case ToPositiveInfinity:
		if sign > 0 {
			return q.Add(ulp)
		}
		return q
	default:
		panic(fmt.Sprintf("fixedpoint: unknown %s", mode))
	}
}

// fromBigFloat converts f to a decimal with the given number of fractional
// digits. f is first printed with guard digits so binary representation error
// on exact decimal results does not leak into the directed rounding.
func fromBigFloat(f *big.Float, places int32, mode RoundingMode) decimal.Decimal {
	if f.IsInf() {
		panic("fixedpoint: infinite value")
	}
	d, err := decimal.NewFromString(f.Text('f', int(places)+guardDigits))
	if err != nil {
		panic(fmt.Sprintf("fixedpoint: %v", err))
	}
	return roundPlaces(d, places, mode)
}

func toBigFloat(d decimal.Decimal, prec uint) *big.Float {
	f := new(big.Float).SetPrec(prec).SetInt(d.Coefficient())
	exp := d.Exponent()
	switch {
	case exp > 0:
		f.Mul(f, new(big.Float).SetPrec(prec).SetInt(pow10(exp)))
	case exp < 0:
		f.Quo(f, new(big.Float).SetPrec(prec).SetInt(pow10(-exp)))
	}
	return f
}

const guardDigits = 24

func pow10(n int32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
