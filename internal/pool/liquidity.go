package pool

import (
	"context"

	"go.uber.org/zap"

	"flexPool/internal/model"
)

// AddLiquidity contributes a and b in its own transaction and returns the LP
// minted plus any unused remainder.
func (p *Pool) AddLiquidity(ctx context.Context, a, b model.Bucket) (model.Bucket, *model.Bucket, error) {
	var (
		lp        model.Bucket
		remainder *model.Bucket
	)
	err := p.Transact(ctx, func(tx *Tx) error {
		var err error
		lp, remainder, err = tx.AddLiquidity(a, b)
		return err
	})
	if err != nil {
		return model.Bucket{}, nil, err
	}
	return lp, remainder, nil
}

// RemoveLiquidity redeems lp in its own transaction.
func (p *Pool) RemoveLiquidity(ctx context.Context, lp model.Bucket) (model.Bucket, model.Bucket, error) {
	var x, y model.Bucket
	err := p.Transact(ctx, func(tx *Tx) error {
		var err error
		x, y, err = tx.RemoveLiquidity(lp)
		return err
	})
	if err != nil {
		return model.Bucket{}, model.Bucket{}, err
	}
	return x, y, nil
}

func (tx *Tx) AddLiquidity(a, b model.Bucket) (model.Bucket, *model.Bucket, error) {
	if err := tx.check(); err != nil {
		return model.Bucket{}, nil, err
	}
	p := tx.pool
	for _, bucket := range []model.Bucket{a, b} {
		if _, err := p.checkAmount(bucket); err != nil {
			return model.Bucket{}, nil, err
		}
	}

	lp, remainder, err := p.vault.Contribute(a, b)
	if err != nil {
		return model.Bucket{}, nil, err
	}

	xIn, yIn := a.Amount, b.Amount
	if a.Asset == p.y {
		xIn, yIn = b.Amount, a.Amount
	}
	if remainder != nil {
		if remainder.Asset == p.x {
			xIn = xIn.Sub(remainder.Amount)
		} else {
			yIn = yIn.Sub(remainder.Amount)
		}
	}

	tx.emit(model.EventLiquidityAdded, model.LiquidityAddedEvent{
		XAmount:   xIn,
		YAmount:   yIn,
		LPMinted:  lp.Amount,
		Remainder: remainder,
	})
	p.logger.Debug("liquidity added",
		zap.Stringer("x", xIn),
		zap.Stringer("y", yIn),
		zap.Stringer("lp", lp.Amount),
	)
	return lp, remainder, nil
}

func (tx *Tx) RemoveLiquidity(lp model.Bucket) (model.Bucket, model.Bucket, error) {
	if err := tx.check(); err != nil {
		return model.Bucket{}, model.Bucket{}, err
	}
	p := tx.pool
	x, y, err := p.vault.Redeem(lp)
	if err != nil {
		return model.Bucket{}, model.Bucket{}, err
	}

	tx.emit(model.EventLiquidityRemoved, model.LiquidityRemovedEvent{
		LPBurned: lp.Amount,
		XAmount:  x.Amount,
		YAmount:  y.Amount,
	})
	p.logger.Debug("liquidity removed",
		zap.Stringer("lp", lp.Amount),
		zap.Stringer("x", x.Amount),
		zap.Stringer("y", y.Amount),
	)
	return x, y, nil
}
