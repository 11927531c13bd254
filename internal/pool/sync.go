package pool

import (
	"context"

	"go.uber.org/zap"

	"flexPool/internal/fixedpoint"
	"flexPool/internal/model"
)

// SyncRegistry hands the accrued protocol fees to the registry once
// next_sync_time has passed. It reports whether a sync happened.
func (p *Pool) SyncRegistry(ctx context.Context) (bool, error) {
	var synced bool
	err := p.Transact(ctx, func(tx *Tx) error {
		before := p.st.nextSyncTime
		if err := tx.syncRegistry(); err != nil {
			return err
		}
		synced = tx.now >= before
		return nil
	})
	return synced, err
}

func (tx *Tx) SyncRegistry() error {
	if err := tx.check(); err != nil {
		return err
	}
	return tx.syncRegistry()
}

func (tx *Tx) syncRegistry() error {
	p := tx.pool
	if tx.now < p.st.nextSyncTime {
		return nil
	}

	xFees := model.NewBucket(p.x, p.st.xProtocolFees)
	yFees := model.NewBucket(p.y, p.st.yProtocolFees)
	share, next, err := p.registry.Sync(tx.ctx, p.id, xFees, yFees)
	if err != nil {
		return err
	}
	p.st.xProtocolFees = fixedpoint.Zero
	p.st.yProtocolFees = fixedpoint.Zero
	p.st.feeProtocolShare = share.Clamp(fixedpoint.Zero, FeeProtocolShareMax)
	p.st.nextSyncTime = next

	tx.emit(model.EventRegistrySynced, model.RegistrySyncedEvent{
		XProtocolFees:    xFees.Amount,
		YProtocolFees:    yFees.Amount,
		FeeProtocolShare: p.st.feeProtocolShare,
		NextSyncTime:     next,
	})
	tx.afterCommit(func() { p.metrics.ObserveSync(p.id.Hex()) })
	p.logger.Info("registry synced",
		zap.Stringer("x_fees", xFees.Amount),
		zap.Stringer("y_fees", yFees.Amount),
		zap.Stringer("fee_protocol_share", p.st.feeProtocolShare),
		zap.Uint64("next_sync_time", next),
	)
	return nil
}
