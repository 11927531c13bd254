// Package registry collects protocol fees from pools and tells each pool its
// protocol fee share and when to sync next.
package registry

import (
	"context"
	"encoding/binary"
	"sort"
	"sync"

	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"flexPool/internal/fixedpoint"
	"flexPool/internal/model"
	"flexPool/internal/oracle"
	"flexPool/internal/txn"
)

// Syncer is the registry side of the pool fee handshake.
type Syncer interface {
	Sync(ctx context.Context, poolID model.PoolID, xFees, yFees model.Bucket) (share fixedpoint.Decimal, nextSyncTime uint64, err error)
}

// PoolCheckpointer is implemented by syncers that can undo the syncs of one
// pool without touching the others.
type PoolCheckpointer interface {
	SavepointFor(poolID model.PoolID) txn.Savepoint
}

type Config struct {
	FeeProtocolShare fixedpoint.Decimal
	SyncPeriod       uint64
	SyncSlots        uint64
}

func (c Config) Validate() error {
	if c.FeeProtocolShare.IsNegative() || c.FeeProtocolShare.GreaterThan(fixedpoint.One) {
		return ErrInvalidConfig.Wrapf("fee protocol share %s not in [0, 1]", c.FeeProtocolShare)
	}
	if c.SyncPeriod == 0 {
		return ErrInvalidConfig.Wrap("sync period must be positive")
	}
	if c.SyncSlots == 0 || c.SyncSlots > c.SyncPeriod {
		return ErrInvalidConfig.Wrapf("sync slots %d not in [1, %d]", c.SyncSlots, c.SyncPeriod)
	}
	return nil
}

// SlotOf spreads pools over the sync slots by hashing their id.
func SlotOf(poolID model.PoolID, slots uint64) uint64 {
	sum := blake3.Sum256(poolID.Bytes())
	return binary.BigEndian.Uint64(sum[:8]) % slots
}

type Option func(*Registry)

// WithSlotFunc overrides the slot assignment.
func WithSlotFunc(fn func(model.PoolID, uint64) uint64) Option {
	return func(r *Registry) { r.slotOf = fn }
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

type feeDelta struct {
	asset  model.Asset
	amount fixedpoint.Decimal
}

// journal records the syncs of one pool while it has open savepoints.
type journal struct {
	depth  int
	deltas []feeDelta
	syncs  uint64
}

// Registry is an in-memory Syncer that accumulates fees per asset.
type Registry struct {
	mu       sync.Mutex
	cfg      Config
	clock    oracle.Clock
	fees     map[model.Asset]fixedpoint.Decimal
	syncs    uint64
	journals map[model.PoolID]*journal
	slotOf   func(model.PoolID, uint64) uint64
	logger   *zap.Logger
}

var (
	_ Syncer           = (*Registry)(nil)
	_ PoolCheckpointer = (*Registry)(nil)
)

func New(cfg Config, clock oracle.Clock, opts ...Option) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Registry{
		cfg:      cfg,
		clock:    clock,
		fees:     make(map[model.Asset]fixedpoint.Decimal),
		journals: make(map[model.PoolID]*journal),
		slotOf:   SlotOf,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Sync takes the fee buckets and returns the share and the next sync time
// (now / period + 1) * period + slot * (period / slots).
func (r *Registry) Sync(ctx context.Context, poolID model.PoolID, xFees, yFees model.Bucket) (fixedpoint.Decimal, uint64, error) {
	now, err := r.clock.Now(ctx)
	if err != nil {
		return fixedpoint.Zero, 0, ErrClock.Wrapf("%v", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range []model.Bucket{xFees, yFees} {
		if err := b.Validate(); err != nil {
			return fixedpoint.Zero, 0, err
		}
	}
	j := r.journals[poolID]
	for _, b := range []model.Bucket{xFees, yFees} {
		r.fees[b.Asset] = r.balance(b.Asset).Add(b.Amount)
		if j != nil {
			j.deltas = append(j.deltas, feeDelta{asset: b.Asset, amount: b.Amount})
		}
	}
	r.syncs++
	if j != nil {
		j.syncs++
	}

	period := r.cfg.SyncPeriod
	slot := r.slotOf(poolID, r.cfg.SyncSlots)
	next := (now/period+1)*period + slot*(period/r.cfg.SyncSlots)

	r.logger.Debug("pool synced",
		zap.String("pool", poolID.Hex()),
		zap.Stringer("x_fees", xFees.Amount),
		zap.Stringer("y_fees", yFees.Amount),
		zap.Uint64("next_sync_time", next),
	)
	return r.cfg.FeeProtocolShare, next, nil
}

func (r *Registry) balance(asset model.Asset) fixedpoint.Decimal {
	if v, ok := r.fees[asset]; ok {
		return v
	}
	return fixedpoint.Zero
}

// Fees returns the accumulated fees of asset.
func (r *Registry) Fees(asset model.Asset) fixedpoint.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balance(asset)
}

// SyncCount is the number of completed Sync calls.
func (r *Registry) SyncCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.syncs
}

func (r *Registry) Config() Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

func (r *Registry) UpdateConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()
	r.logger.Info("registry config updated",
		zap.Stringer("fee_protocol_share", cfg.FeeProtocolShare),
		zap.Uint64("sync_period", cfg.SyncPeriod),
		zap.Uint64("sync_slots", cfg.SyncSlots),
	)
	return nil
}

// WithdrawProtocolFees drains the fees of the given assets. An empty list
// drains every asset, in address order.
func (r *Registry) WithdrawProtocolFees(assets ...model.Asset) []model.Bucket {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(assets) == 0 {
		for asset := range r.fees {
			assets = append(assets, asset)
		}
		sort.Slice(assets, func(i, j int) bool { return model.CompareAssets(assets[i], assets[j]) < 0 })
	}
	out := make([]model.Bucket, 0, len(assets))
	for _, asset := range assets {
		out = append(out, model.NewBucket(asset, r.balance(asset)))
		delete(r.fees, asset)
	}
	return out
}

// SavepointFor undoes, on rollback, every sync poolID makes after this call.
// Syncs of other pools are left alone.
func (r *Registry) SavepointFor(poolID model.PoolID) txn.Savepoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.journals[poolID]
	if !ok {
		j = &journal{}
		r.journals[poolID] = j
	}
	j.depth++
	mark, syncs := len(j.deltas), j.syncs

	return txn.New(
		func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			for _, d := range j.deltas[mark:] {
				r.fees[d.asset] = r.balance(d.asset).Sub(d.amount)
			}
			r.syncs -= j.syncs - syncs
			j.deltas, j.syncs = j.deltas[:mark], syncs
			r.closeJournal(poolID, j)
		},
		func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.closeJournal(poolID, j)
		},
	)
}

func (r *Registry) closeJournal(poolID model.PoolID, j *journal) {
	j.depth--
	if j.depth == 0 {
		delete(r.journals, poolID)
	}
}
