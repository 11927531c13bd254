package fixedpoint

import (
	"encoding/json"
	"math/big"

	"github.com/shopspring/decimal"
)

// PreciseDecimal is the wide intermediate with at most 36 fractional digits.
type PreciseDecimal struct {
	v decimal.Decimal
}

var (
	PreciseZero = PreciseDecimal{v: decimal.Zero}
	PreciseOne  = PreciseDecimal{v: decimal.New(1, 0)}
	// PreciseAtto is the smallest positive PreciseDecimal.
	PreciseAtto = PreciseDecimal{v: decimal.New(1, -PreciseScale)}
)

func NewPreciseFromInt(i int64) PreciseDecimal {
	return PreciseDecimal{v: decimal.NewFromInt(i)}
}

// NewPreciseFromString parses s and rejects values that need more than 36 fractional digits.
func NewPreciseFromString(s string) (PreciseDecimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return PreciseDecimal{}, ErrInvalidDecimal.Wrapf("%q: %v", s, err)
	}
	if r := d.RoundDown(PreciseScale); !r.Equal(d) {
		return PreciseDecimal{}, ErrPrecisionExceeded.Wrapf("%q has more than %d", s, PreciseScale)
	}
	return PreciseDecimal{v: d}, nil
}

func MustParsePrecise(s string) PreciseDecimal {
	d, err := NewPreciseFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (p PreciseDecimal) Add(o PreciseDecimal) PreciseDecimal { return PreciseDecimal{v: p.v.Add(o.v)} }
func (p PreciseDecimal) Sub(o PreciseDecimal) PreciseDecimal { return PreciseDecimal{v: p.v.Sub(o.v)} }
func (p PreciseDecimal) Neg() PreciseDecimal { return PreciseDecimal{v: p.v.Neg()} }

// Mul multiplies and rounds the product back to 36 digits.
func (p PreciseDecimal) Mul(o PreciseDecimal, mode RoundingMode) PreciseDecimal {
	return PreciseDecimal{v: roundPlaces(p.v.Mul(o.v), PreciseScale, mode)}
}

// Quo divides to 36 digits. It panics when o is zero.
func (p PreciseDecimal) Quo(o PreciseDecimal, mode RoundingMode) PreciseDecimal {
	return PreciseDecimal{v: quoPlaces(p.v, o.v, PreciseScale, mode)}
}

// MulInt multiplies by an integer, which is exact.
func (p PreciseDecimal) MulInt(i int64) PreciseDecimal {
	return PreciseDecimal{v: p.v.Mul(decimal.NewFromInt(i))}
}

// ToDecimal narrows to 18 digits.
func (p PreciseDecimal) ToDecimal(mode RoundingMode) Decimal {
	return Decimal{v: roundPlaces(p.v, DecimalScale, mode)}
}

// RoundTo narrows to an asset divisibility.
func (p PreciseDecimal) RoundTo(divisibility uint8, mode RoundingMode) Decimal {
	if divisibility > MaxDivisibility {
		divisibility = MaxDivisibility
	}
	return Decimal{v: roundPlaces(p.v, int32(divisibility), mode)}
}

func (p PreciseDecimal) Cmp(o PreciseDecimal) int { return p.v.Cmp(o.v) }
func (p PreciseDecimal) Equal(o PreciseDecimal) bool { return p.v.Cmp(o.v) == 0 }
func (p PreciseDecimal) LessThan(o PreciseDecimal) bool { return p.v.Cmp(o.v) < 0 }
func (p PreciseDecimal) GreaterThan(o PreciseDecimal) bool { return p.v.Cmp(o.v) > 0 }
func (p PreciseDecimal) Sign() int { return p.v.Sign() }
func (p PreciseDecimal) IsZero() bool { return p.v.Sign() == 0 }
func (p PreciseDecimal) IsPositive() bool { return p.v.Sign() > 0 }
func (p PreciseDecimal) IsNegative() bool { return p.v.Sign() < 0 }

func (p PreciseDecimal) String() string {
	return p.v.String()
}

func (p PreciseDecimal) Shopspring() decimal.Decimal {
	return p.v
}

func (p PreciseDecimal) Float64() float64 {
	f, _ := p.v.Float64()
	return f
}

func (p PreciseDecimal) bigFloat(prec uint) *big.Float {
	return toBigFloat(p.v, prec)
}

func (p PreciseDecimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.v.String())
}

func (p *PreciseDecimal) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidDecimal.Wrapf("%s", string(data))
	}
	parsed, err := NewPreciseFromString(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
