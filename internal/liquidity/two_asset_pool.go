package liquidity

import (
	"flexPool/internal/fixedpoint"
	"flexPool/internal/model"
	"flexPool/internal/txn"
)

// TwoAssetPool is an in-memory Vault. LP amounts use 18 fractional digits.
type TwoAssetPool struct {
	x, y       model.Asset
	xDiv, yDiv uint8
	lp         model.Asset

	xReserve fixedpoint.Decimal
	yReserve fixedpoint.Decimal
	supply   fixedpoint.Decimal
}

var _ Vault = (*TwoAssetPool)(nil)

func NewTwoAssetPool(x, y model.Asset, xDiv, yDiv uint8, lp model.Asset) (*TwoAssetPool, error) {
	if err := fixedpoint.CheckDivisibility(xDiv); err != nil {
		return nil, err
	}
	if err := fixedpoint.CheckDivisibility(yDiv); err != nil {
		return nil, err
	}
	if x == y {
		return nil, model.ErrIdenticalAssets.Wrapf("%s", x.Hex())
	}
	return &TwoAssetPool{
		x:        x,
		y:        y,
		xDiv:     xDiv,
		yDiv:     yDiv,
		lp:       lp,
		xReserve: fixedpoint.Zero,
		yReserve: fixedpoint.Zero,
		supply:   fixedpoint.Zero,
	}, nil
}

// order maps a and b onto (X, Y).
func (p *TwoAssetPool) order(a, b model.Bucket) (model.Bucket, model.Bucket, error) {
	switch {
	case a.Asset == p.x && b.Asset == p.y:
		return a, b, nil
	case a.Asset == p.y && b.Asset == p.x:
		return b, a, nil
	default:
		return model.Bucket{}, model.Bucket{}, ErrForeignAsset.Wrapf("(%s, %s)", a.Asset.Hex(), b.Asset.Hex())
	}
}

func (p *TwoAssetPool) Contribute(a, b model.Bucket) (model.Bucket, *model.Bucket, error) {
	x, y, err := p.order(a, b)
	if err != nil {
		return model.Bucket{}, nil, err
	}
	if err := x.Validate(); err != nil {
		return model.Bucket{}, nil, err
	}
	if err := y.Validate(); err != nil {
		return model.Bucket{}, nil, err
	}

	if p.supply.IsZero() || (p.xReserve.IsZero() && p.yReserve.IsZero()) {
		minted, err := initialSupply(x.Amount, y.Amount)
		if err != nil {
			return model.Bucket{}, nil, err
		}
		p.xReserve = p.xReserve.Add(x.Amount)
		p.yReserve = p.yReserve.Add(y.Amount)
		p.supply = p.supply.Add(minted)
		return model.NewBucket(p.lp, minted), nil, nil
	}

	ratio, limit, ok := p.minRatio(x.Amount, y.Amount)
	if !ok || ratio.IsZero() {
		return model.Bucket{}, nil, ErrEmptyContribution.Wrapf("x %s, y %s", x.Amount, y.Amount)
	}

	// the limiting side goes in whole, the other side in proportion
	xUsed, yUsed := x.Amount, y.Amount
	if limit != sideX {
		xUsed = fixedpoint.Min(x.Amount, p.xReserve.Precise().Mul(ratio, fixedpoint.ToZero).RoundTo(p.xDiv, fixedpoint.ToZero))
	}
	if limit != sideY {
		yUsed = fixedpoint.Min(y.Amount, p.yReserve.Precise().Mul(ratio, fixedpoint.ToZero).RoundTo(p.yDiv, fixedpoint.ToZero))
	}
	minted := p.supply.Precise().Mul(ratio, fixedpoint.ToZero).ToDecimal(fixedpoint.ToZero)
	if minted.IsZero() {
		return model.Bucket{}, nil, ErrEmptyContribution.Wrapf("x %s, y %s", x.Amount, y.Amount)
	}

	p.xReserve = p.xReserve.Add(xUsed)
	p.yReserve = p.yReserve.Add(yUsed)
	p.supply = p.supply.Add(minted)

	var remainder *model.Bucket
	switch {
	case x.Amount.GreaterThan(xUsed):
		r := model.NewBucket(p.x, x.Amount.Sub(xUsed))
		remainder = &r
	case y.Amount.GreaterThan(yUsed):
		r := model.NewBucket(p.y, y.Amount.Sub(yUsed))
		remainder = &r
	}
	return model.NewBucket(p.lp, minted), remainder, nil
}

// initialSupply is ceil(sqrt(x * y)) at 18 digits, or the non-zero amount
// when one side is empty.
func initialSupply(x, y fixedpoint.Decimal) (fixedpoint.Decimal, error) {
	if x.IsZero() && y.IsZero() {
		return fixedpoint.Zero, ErrEmptyContribution.Wrapf("both amounts are zero")
	}
	product := x.Precise().Mul(y.Precise(), fixedpoint.ToZero)
	root, _ := product.Sqrt()
	minted := root.ToDecimal(fixedpoint.AwayFromZero)
	if minted.IsZero() {
		minted = fixedpoint.Max(x, y)
	}
	return minted, nil
}

const (
	sideX = iota
	sideY
)

// minRatio is the smallest amount/reserve over the sides with a non-empty
// reserve, together with the side it came from.
func (p *TwoAssetPool) minRatio(x, y fixedpoint.Decimal) (fixedpoint.PreciseDecimal, int, bool) {
	var (
		ratio fixedpoint.PreciseDecimal
		limit int
		found bool
	)
	for i, side := range []struct{ amount, reserve fixedpoint.Decimal }{
		sideX: {x, p.xReserve},
		sideY: {y, p.yReserve},
	} {
		if side.reserve.IsZero() {
			continue
		}
		r := side.amount.Precise().Quo(side.reserve.Precise(), fixedpoint.ToZero)
		if !found || r.LessThan(ratio) {
			ratio, limit, found = r, i, true
		}
	}
	return ratio, limit, found
}

func (p *TwoAssetPool) Redeem(lp model.Bucket) (model.Bucket, model.Bucket, error) {
	if lp.Asset != p.lp {
		return model.Bucket{}, model.Bucket{}, ErrWrongLPAsset.Wrapf("%s", lp.Asset.Hex())
	}
	x, y, err := p.RedemptionValue(lp.Amount)
	if err != nil {
		return model.Bucket{}, model.Bucket{}, err
	}
	p.xReserve = p.xReserve.Sub(x)
	p.yReserve = p.yReserve.Sub(y)
	p.supply = p.supply.Sub(lp.Amount)
	return model.NewBucket(p.x, x), model.NewBucket(p.y, y), nil
}

// RedemptionValue previews Redeem without changing state.
func (p *TwoAssetPool) RedemptionValue(lp fixedpoint.Decimal) (fixedpoint.Decimal, fixedpoint.Decimal, error) {
	if lp.IsNegative() {
		return fixedpoint.Zero, fixedpoint.Zero, model.ErrNegativeAmount.Wrapf("lp %s", lp)
	}
	if lp.GreaterThan(p.supply) {
		return fixedpoint.Zero, fixedpoint.Zero, ErrInsufficientSupply.Wrapf("%s of %s", lp, p.supply)
	}
	if lp.IsZero() {
		return fixedpoint.Zero, fixedpoint.Zero, nil
	}
	share := func(reserve fixedpoint.Decimal, div uint8) fixedpoint.Decimal {
		return reserve.Precise().
			Mul(lp.Precise(), fixedpoint.ToZero).
			Quo(p.supply.Precise(), fixedpoint.ToZero).
			RoundTo(div, fixedpoint.ToZero)
	}
	return share(p.xReserve, p.xDiv), share(p.yReserve, p.yDiv), nil
}

func (p *TwoAssetPool) ProtectedWithdraw(asset model.Asset, amount fixedpoint.Decimal, mode fixedpoint.RoundingMode) (model.Bucket, error) {
	reserve, div, err := p.side(asset)
	if err != nil {
		return model.Bucket{}, err
	}
	if amount.IsNegative() {
		return model.Bucket{}, model.ErrNegativeAmount.Wrapf("withdraw %s", amount)
	}
	amount = amount.RoundTo(div, mode)
	if amount.GreaterThan(*reserve) {
		return model.Bucket{}, ErrInsufficientReserves.Wrapf("withdraw %s of %s %s", amount, *reserve, asset.Hex())
	}
	*reserve = reserve.Sub(amount)
	return model.NewBucket(asset, amount), nil
}

func (p *TwoAssetPool) ProtectedDeposit(bucket model.Bucket) error {
	reserve, _, err := p.side(bucket.Asset)
	if err != nil {
		return err
	}
	if err := bucket.Validate(); err != nil {
		return err
	}
	*reserve = reserve.Add(bucket.Amount)
	return nil
}

func (p *TwoAssetPool) side(asset model.Asset) (*fixedpoint.Decimal, uint8, error) {
	switch asset {
	case p.x:
		return &p.xReserve, p.xDiv, nil
	case p.y:
		return &p.yReserve, p.yDiv, nil
	default:
		return nil, 0, ErrForeignAsset.Wrapf("%s", asset.Hex())
	}
}

func (p *TwoAssetPool) VaultAmounts() (fixedpoint.Decimal, fixedpoint.Decimal) {
	return p.xReserve, p.yReserve
}

func (p *TwoAssetPool) TotalSupply() fixedpoint.Decimal {
	return p.supply
}

func (p *TwoAssetPool) LPAsset() model.Asset {
	return p.lp
}

// Savepoint snapshots reserves and supply. Decimal values are immutable, so a
// struct copy is enough.
func (p *TwoAssetPool) Savepoint() txn.Savepoint {
	return txn.Snapshot(p)
}
