// Package fixedpoint provides the two decimal types used by pool math: Decimal
// with 18 fractional digits and PreciseDecimal with 36. Operations that may
// drop digits take an explicit RoundingMode.
package fixedpoint

import (
	"encoding/json"
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	DecimalScale = 18
	PreciseScale = 36
)

// MaxDivisibility is the largest number of fractional digits an asset may use.
const MaxDivisibility uint8 = DecimalScale

// Decimal is a fixed-point number with at most 18 fractional digits.
type Decimal struct {
	v decimal.Decimal
}

var (
	Zero = Decimal{v: decimal.Zero}
	One  = Decimal{v: decimal.New(1, 0)}
	// Atto is the smallest positive Decimal.
	Atto = Decimal{v: decimal.New(1, -DecimalScale)}
)

func NewFromInt(i int64) Decimal {
	return Decimal{v: decimal.NewFromInt(i)}
}

// NewFromString parses s and rejects values that need more than 18 fractional digits.
func NewFromString(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, ErrInvalidDecimal.Wrapf("%q: %v", s, err)
	}
	if r := d.RoundDown(DecimalScale); !r.Equal(d) {
		return Decimal{}, ErrPrecisionExceeded.Wrapf("%q has more than %d", s, DecimalScale)
	}
	return Decimal{v: d}, nil
}

// MustParse is NewFromString for literals known to be valid.
func MustParse(s string) Decimal {
	d, err := NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromShopspring narrows d to 18 digits using mode.
func FromShopspring(d decimal.Decimal, mode RoundingMode) Decimal {
	return Decimal{v: roundPlaces(d, DecimalScale, mode)}
}

func (d Decimal) Add(o Decimal) Decimal { return Decimal{v: d.v.Add(o.v)} }
func (d Decimal) Sub(o Decimal) Decimal { return Decimal{v: d.v.Sub(o.v)} }
func (d Decimal) Neg() Decimal { return Decimal{v: d.v.Neg()} }
func (d Decimal) Abs() Decimal { return Decimal{v: d.v.Abs()} }

// Mul multiplies and rounds the product back to 18 digits.
func (d Decimal) Mul(o Decimal, mode RoundingMode) Decimal {
	return Decimal{v: roundPlaces(d.v.Mul(o.v), DecimalScale, mode)}
}

// Quo divides to 18 digits. It panics when o is zero.
func (d Decimal) Quo(o Decimal, mode RoundingMode) Decimal {
	return Decimal{v: quoPlaces(d.v, o.v, DecimalScale, mode)}
}

// RoundTo keeps divisibility fractional digits.
func (d Decimal) RoundTo(divisibility uint8, mode RoundingMode) Decimal {
	if divisibility > MaxDivisibility {
		divisibility = MaxDivisibility
	}
	return Decimal{v: roundPlaces(d.v, int32(divisibility), mode)}
}

// Precise widens d without loss.
func (d Decimal) Precise() PreciseDecimal {
	return PreciseDecimal{v: d.v}
}

func (d Decimal) Cmp(o Decimal) int { return d.v.Cmp(o.v) }
func (d Decimal) Equal(o Decimal) bool { return d.v.Cmp(o.v) == 0 }
func (d Decimal) LessThan(o Decimal) bool { return d.v.Cmp(o.v) < 0 }
func (d Decimal) LessThanOrEqual(o Decimal) bool { return d.v.Cmp(o.v) <= 0 }
func (d Decimal) GreaterThan(o Decimal) bool { return d.v.Cmp(o.v) > 0 }
func (d Decimal) GreaterThanOrEqual(o Decimal) bool { return d.v.Cmp(o.v) >= 0 }
func (d Decimal) Sign() int { return d.v.Sign() }
func (d Decimal) IsZero() bool { return d.v.Sign() == 0 }
func (d Decimal) IsPositive() bool { return d.v.Sign() > 0 }
func (d Decimal) IsNegative() bool { return d.v.Sign() < 0 }

// Clamp limits d to [lo, hi].
func (d Decimal) Clamp(lo, hi Decimal) Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}

// Fractional reports how many fractional digits d actually uses.
func (d Decimal) Fractional() uint8 {
	for places := int32(0); places < DecimalScale; places++ {
		if d.v.RoundDown(places).Equal(d.v) {
			return uint8(places)
		}
	}
	return DecimalScale
}

func (d Decimal) String() string {
	return d.v.String()
}

// Shopspring exposes the underlying value for formatting and storage.
func (d Decimal) Shopspring() decimal.Decimal {
	return d.v
}

// Float64 is lossy and only meant for metrics.
func (d Decimal) Float64() float64 {
	f, _ := d.v.Float64()
	return f
}

func (d Decimal) bigFloat(prec uint) *big.Float {
	return toBigFloat(d.v, prec)
}

func (d Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.v.String())
}

func (d *Decimal) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n json.Number
		if errNum := json.Unmarshal(data, &n); errNum != nil {
			return ErrInvalidDecimal.Wrapf("%s", string(data))
		}
		s = n.String()
	}
	parsed, err := NewFromString(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Decimal) MarshalText() ([]byte, error) {
	return []byte(d.v.String()), nil
}

func (d *Decimal) UnmarshalText(text []byte) error {
	parsed, err := NewFromString(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Min returns the smaller of a and b.
func Min(a, b Decimal) Decimal {
	if a.LessThanOrEqual(b) {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b Decimal) Decimal {
	if a.GreaterThanOrEqual(b) {
		return a
	}
	return b
}

// CheckDivisibility rejects divisibilities above 18.
func CheckDivisibility(divisibility uint8) error {
	if divisibility > MaxDivisibility {
		return ErrInvalidDivisibility.Wrapf("got %d", divisibility)
	}
	return nil
}
