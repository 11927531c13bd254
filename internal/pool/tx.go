package pool

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"flexPool/internal/model"
	"flexPool/internal/registry"
	"flexPool/internal/txn"
)

// Tx is the handle passed to Transact. It is only valid inside the callback.
type Tx struct {
	ctx      context.Context
	pool     *Pool
	now      uint64
	events   []model.EventRecord
	onCommit []func()
	closed   bool
}

// Now is the clock reading taken when the transaction started.
func (tx *Tx) Now() uint64 { return tx.now }

func (tx *Tx) check() error {
	if tx.closed {
		return ErrTxClosed
	}
	return nil
}

func (tx *Tx) emit(name string, payload interface{}) {
	tx.events = append(tx.events, tx.pool.newRecord(tx.now, name, payload))
}

func (tx *Tx) afterCommit(fn func()) {
	tx.onCommit = append(tx.onCommit, fn)
}

// Transact runs fn as one atomic unit. When fn fails or panics, or leaves a
// flash loan unpaid, or the events cannot be published, every change fn made
// to the pool, its vault, its oracle, its registry and checkpointing hooks is
// rolled back. Panics are re-raised after the rollback.
func (p *Pool) Transact(ctx context.Context, fn func(tx *Tx) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	now, err := p.clock.Now(ctx)
	if err != nil {
		return ErrClock.Wrapf("%v", err)
	}

	g := txn.Begin(p, p.vault, p.oracle, p.pipeline)
	switch r := p.registry.(type) {
	case registry.PoolCheckpointer:
		g.Add(r.SavepointFor(p.id))
	case txn.Checkpointer:
		g.Add(r.Savepoint())
	}

	tx := &Tx{ctx: ctx, pool: p, now: now}
	defer func() {
		tx.closed = true
		if r := recover(); r != nil {
			g.Rollback()
			p.metrics.ObserveRollback(p.id.Hex(), "panic")
			p.logger.Warn("transaction panicked, rolled back", zap.Any("panic", r))
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		p.rollback(g, "error", err)
		return err
	}
	if n := len(p.st.loans); n > 0 {
		err := ErrUnsettledLoan.Wrapf("%d outstanding", n)
		p.rollback(g, "unsettled_loan", err)
		return err
	}
	if err := p.publish(ctx, tx.events); err != nil {
		p.rollback(g, "publish", err)
		return fmt.Errorf("commit: %w", err)
	}

	g.Release()
	for _, f := range tx.onCommit {
		f()
	}
	p.recordState()
	return nil
}

func (p *Pool) rollback(g txn.Group, reason string, err error) {
	g.Rollback()
	p.metrics.ObserveRollback(p.id.Hex(), reason)
	p.logger.Warn("transaction rolled back", zap.String("reason", reason), zap.Error(err))
}

func (p *Pool) recordState() {
	if p.metrics == nil {
		return
	}
	x, y := p.vault.VaultAmounts()
	price, _ := p.priceSqrt()
	p.metrics.SetState(p.id.Hex(), p.x.Hex(), p.y.Hex(),
		x.Float64(), y.Float64(), p.vault.TotalSupply().Float64(), price.Float64())
}
