package hooks

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"flexPool/internal/fixedpoint"
	"flexPool/internal/model"
	"flexPool/internal/txn"
)

// MinRetention is the smallest fraction of a swap bucket hooks must hand back.
var MinRetention = fixedpoint.MustParse("0.9")

// Pipeline holds the hooks of one pool and dispatches pool events to them.
type Pipeline struct {
	registrations []Registration
	lookup        map[Key]Hook
	calls         map[Call][]Registration
	logger        *zap.Logger
}

// NewPipeline validates regs and orders them per call. When allowedOrigins is
// non-empty every registration must come from one of them.
func NewPipeline(regs []Registration, allowedOrigins []common.Address, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[common.Address]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	p := &Pipeline{
		lookup: make(map[Key]Hook, len(regs)),
		calls:  make(map[Call][]Registration),
		logger: logger,
	}
	for _, reg := range regs {
		if reg.Hook == nil {
			return nil, ErrNilHook.Wrapf("%s", reg.Key)
		}
		if len(allowed) > 0 {
			if _, ok := allowed[reg.Key.Origin]; !ok {
				logger.Warn("hook origin rejected", zap.String("hook", reg.Key.String()))
				return nil, ErrHookNotApproved.Wrapf("%s", reg.Key)
			}
		}

		seen := make(map[Call]bool)
		for _, call := range reg.Hook.Calls() {
			if seen[call] {
				continue
			}
			seen[call] = true
			if !implements(reg.Hook, call) {
				return nil, ErrHookMissingCall.Wrapf("%s declares %s", reg.Key, call)
			}
			p.calls[call] = append(p.calls[call], reg)
		}

		if _, exists := p.lookup[reg.Key]; !exists {
			p.lookup[reg.Key] = reg.Hook
		}
		p.registrations = append(p.registrations, reg)
	}
	return p, nil
}

// Lookup returns the first hook registered under key.
func (p *Pipeline) Lookup(key Key) (Hook, bool) {
	h, ok := p.lookup[key]
	return h, ok
}

// Keys lists registration keys in order, duplicates included.
func (p *Pipeline) Keys() []Key {
	keys := make([]Key, 0, len(p.registrations))
	for _, reg := range p.registrations {
		keys = append(keys, reg.Key)
	}
	return keys
}

// Has reports whether any hook subscribed to call.
func (p *Pipeline) Has(call Call) bool {
	return len(p.calls[call]) > 0
}

func (p *Pipeline) RunBeforeInstantiate(ctx context.Context, state BeforeInstantiateState) (BeforeInstantiateState, error) {
	for _, reg := range p.calls[BeforeInstantiate] {
		next, err := reg.Hook.(BeforeInstantiateHook).BeforeInstantiate(ctx, reg.Badge, state)
		if err != nil {
			return state, errorsmod.Wrapf(err, "%s hook %s", BeforeInstantiate, reg.Key)
		}
		state = next
	}
	return state, nil
}

func (p *Pipeline) RunAfterInstantiate(ctx context.Context, state AfterInstantiateState) (AfterInstantiateState, error) {
	for _, reg := range p.calls[AfterInstantiate] {
		next, err := reg.Hook.(AfterInstantiateHook).AfterInstantiate(ctx, reg.Badge, state)
		if err != nil {
			return state, errorsmod.Wrapf(err, "%s hook %s", AfterInstantiate, reg.Key)
		}
		state = next
	}
	return state, nil
}

// RunBeforeSwap folds state and the input bucket through every before-swap
// hook, then checks the returned bucket against the original.
func (p *Pipeline) RunBeforeSwap(ctx context.Context, state BeforeSwapState, input model.Bucket) (BeforeSwapState, model.Bucket, error) {
	bucket := input
	for _, reg := range p.calls[BeforeSwap] {
		var err error
		state, bucket, err = reg.Hook.(BeforeSwapHook).BeforeSwap(ctx, reg.Badge, state, bucket)
		if err != nil {
			return state, input, errorsmod.Wrapf(err, "%s hook %s", BeforeSwap, reg.Key)
		}
	}
	if err := p.checkRetention(BeforeSwap, input, bucket); err != nil {
		return state, input, err
	}
	return state, bucket, nil
}

// RunAfterSwap folds state and the output bucket through every after-swap hook.
func (p *Pipeline) RunAfterSwap(ctx context.Context, state AfterSwapState, output model.Bucket) (AfterSwapState, model.Bucket, error) {
	bucket := output
	for _, reg := range p.calls[AfterSwap] {
		var err error
		state, bucket, err = reg.Hook.(AfterSwapHook).AfterSwap(ctx, reg.Badge, state, bucket)
		if err != nil {
			return state, output, errorsmod.Wrapf(err, "%s hook %s", AfterSwap, reg.Key)
		}
	}
	if err := p.checkRetention(AfterSwap, output, bucket); err != nil {
		return state, output, err
	}
	return state, bucket, nil
}

func (p *Pipeline) checkRetention(call Call, original, returned model.Bucket) error {
	if returned.Asset != original.Asset {
		p.logger.Warn("hooks returned a different asset",
			zap.Stringer("call", call),
			zap.String("expected", original.Asset.Hex()),
			zap.String("got", returned.Asset.Hex()),
		)
		return ErrAssetMismatch.Wrapf("%s: expected %s, got %s", call, original.Asset.Hex(), returned.Asset.Hex())
	}
	minimum := original.Amount.Mul(MinRetention, fixedpoint.ToZero)
	if returned.Amount.LessThan(minimum) {
		p.logger.Warn("hooks kept too much of the bucket",
			zap.Stringer("call", call),
			zap.Stringer("original", original.Amount),
			zap.Stringer("returned", returned.Amount),
		)
		return ErrRetentionBelowThreshold.Wrapf("%s: returned %s of %s", call, returned.Amount, original.Amount)
	}
	return nil
}

// Savepoint covers every registered hook that keeps transactional state. A
// hook registered twice is checkpointed twice, which restores the same state.
func (p *Pipeline) Savepoint() txn.Savepoint {
	var cps []txn.Checkpointer
	for _, reg := range p.registrations {
		if cp, ok := reg.Hook.(txn.Checkpointer); ok {
			cps = append(cps, cp)
		}
	}
	g := txn.Begin(cps...)
	return txn.New(g.Rollback, g.Release)
}
