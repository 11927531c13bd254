package model

import "flexPool/internal/fixedpoint"

// Bucket is an amount of a single asset in transit between caller, pool and hooks.
type Bucket struct {
	Asset  Asset              `json:"asset"`
	Amount fixedpoint.Decimal `json:"amount"`
}

func NewBucket(asset Asset, amount fixedpoint.Decimal) Bucket {
	return Bucket{Asset: asset, Amount: amount}
}

// Take splits amount off b and returns the taken part and the rest.
func (b Bucket) Take(amount fixedpoint.Decimal) (Bucket, Bucket, error) {
	if amount.IsNegative() {
		return Bucket{}, b, ErrNegativeAmount.Wrapf("take %s", amount)
	}
	if amount.GreaterThan(b.Amount) {
		return Bucket{}, b, ErrInsufficientFunds.Wrapf("take %s of %s %s", amount, b.Amount, b.Asset.Hex())
	}
	return NewBucket(b.Asset, amount), NewBucket(b.Asset, b.Amount.Sub(amount)), nil
}

// Validate rejects negative amounts.
func (b Bucket) Validate() error {
	if b.Amount.IsNegative() {
		return ErrNegativeAmount.Wrapf("%s %s", b.Amount, b.Asset.Hex())
	}
	return nil
}
