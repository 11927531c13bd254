// Package pool implements a two-asset weighted AMM pool with fee accrual,
// registry sync, flash loans, hooks and a price oracle.
package pool

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"flexPool/internal/fixedpoint"
	"flexPool/internal/hooks"
	"flexPool/internal/liquidity"
	"flexPool/internal/metrics"
	"flexPool/internal/model"
	"flexPool/internal/oracle"
	"flexPool/internal/poolmath"
	"flexPool/internal/registry"
	"flexPool/internal/token"
	"flexPool/internal/txn"
)

// state is everything a transaction may change outside the collaborators.
type state struct {
	inputFeeRate     fixedpoint.Decimal
	feeProtocolShare fixedpoint.Decimal
	xProtocolFees    fixedpoint.Decimal
	yProtocolFees    fixedpoint.Decimal
	nextSyncTime     uint64
	loans            map[uuid.UUID]model.LoanTicket
	seq              uint64
}

func (s state) clone() state {
	loans := make(map[uuid.UUID]model.LoanTicket, len(s.loans))
	for id, t := range s.loans {
		loans[id] = t
	}
	s.loans = loans
	return s
}

type Pool struct {
	mu sync.Mutex

	id               model.PoolID
	x, y             model.Asset
	xDiv, yDiv       uint8
	xShare           fixedpoint.Decimal
	ratio            fixedpoint.Decimal
	flashLoanFeeRate fixedpoint.Decimal
	ticketAsset      model.Asset
	name             string
	lpName           string

	pipeline *hooks.Pipeline
	vault    *liquidity.TwoAssetPool
	oracle   *oracle.Oracle
	registry registry.Syncer
	clock    oracle.Clock
	sinks    []EventSink
	metrics  *metrics.PoolMetrics
	logger   *zap.Logger

	st state
}

// New validates params, runs the instantiate hooks and returns an empty pool.
func New(ctx context.Context, params Params, deps Deps) (*Pool, error) {
	if deps.Registry == nil || deps.Clock == nil {
		return nil, ErrMissingDependency.Wrap("registry and clock are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	x, y, err := model.SortAssets(params.A, params.B)
	if err != nil {
		return nil, ErrIdenticalAssets.Wrapf("%s", params.A.Hex())
	}
	if err := checkShare(params.AShare); err != nil {
		return nil, err
	}
	if err := checkInputFeeRate(params.InputFeeRate); err != nil {
		return nil, err
	}
	if err := checkFlashLoanFeeRate(params.FlashLoanFeeRate); err != nil {
		return nil, err
	}

	xMeta, err := resolveMeta(ctx, deps.Tokens, x)
	if err != nil {
		return nil, err
	}
	yMeta, err := resolveMeta(ctx, deps.Tokens, y)
	if err != nil {
		return nil, err
	}

	xShare := params.AShare
	if x != params.A {
		xShare = fixedpoint.One.Sub(params.AShare)
	}

	pipeline, err := hooks.NewPipeline(params.Hooks, params.AllowedHookOrigins, logger)
	if err != nil {
		return nil, err
	}
	if _, err := pipeline.RunBeforeInstantiate(ctx, hooks.BeforeInstantiateState{
		XAddress:         x,
		YAddress:         y,
		InputFeeRate:     params.InputFeeRate,
		FlashLoanFeeRate: params.FlashLoanFeeRate,
		XShare:           xShare,
	}); err != nil {
		return nil, err
	}

	nonce := uuid.New()
	id := model.DeriveAddress("flexpool/pool", x.Bytes(), y.Bytes(), nonce[:])
	lp := model.DeriveAddress("flexpool/lp", id.Bytes())

	vault, err := liquidity.NewTwoAssetPool(x, y, xMeta.Divisibility, yMeta.Divisibility, lp)
	if err != nil {
		return nil, ErrInvalidDivisibility.Wrapf("%v", err)
	}

	capacity := params.OracleCapacity
	if capacity == 0 {
		capacity = oracle.DefaultCapacity
	}
	orc, err := oracle.New(capacity)
	if err != nil {
		return nil, err
	}

	p := &Pool{
		id:               id,
		x:                x,
		y:                y,
		xDiv:             xMeta.Divisibility,
		yDiv:             yMeta.Divisibility,
		xShare:           xShare,
		ratio:            poolmath.Ratio(xShare),
		flashLoanFeeRate: params.FlashLoanFeeRate,
		ticketAsset:      model.DeriveAddress("flexpool/flash-loan", id.Bytes()),
		name:             poolName(xMeta.Symbol, yMeta.Symbol),
		lpName:           lpName(xMeta.Symbol, yMeta.Symbol),
		pipeline:         pipeline,
		vault:            vault,
		oracle:           orc,
		registry:         deps.Registry,
		clock:            deps.Clock,
		sinks:            deps.Sinks,
		metrics:          deps.Metrics,
		logger:           logger.With(zap.String("pool", id.Hex())),
		st: state{
			inputFeeRate:     params.InputFeeRate,
			feeProtocolShare: fixedpoint.Zero,
			xProtocolFees:    fixedpoint.Zero,
			yProtocolFees:    fixedpoint.Zero,
			loans:            make(map[uuid.UUID]model.LoanTicket),
		},
	}

	if _, err := pipeline.RunAfterInstantiate(ctx, hooks.AfterInstantiateState{
		PoolAddress:      id,
		XAddress:         x,
		YAddress:         y,
		InputFeeRate:     params.InputFeeRate,
		FlashLoanFeeRate: params.FlashLoanFeeRate,
		XShare:           xShare,
	}); err != nil {
		return nil, err
	}

	now, err := p.clock.Now(ctx)
	if err != nil {
		return nil, ErrClock.Wrapf("%v", err)
	}
	hookNames := make([]string, 0)
	for _, key := range pipeline.Keys() {
		hookNames = append(hookNames, key.String())
	}
	created := p.newRecord(now, model.EventPoolCreated, model.PoolCreatedEvent{
		PoolAddress:      id,
		LPAddress:        lp,
		XAddress:         x,
		YAddress:         y,
		XShare:           xShare,
		InputFeeRate:     params.InputFeeRate,
		FlashLoanFeeRate: params.FlashLoanFeeRate,
		Hooks:            hookNames,
	})
	if err := p.publish(ctx, []model.EventRecord{created}); err != nil {
		return nil, err
	}

	p.logger.Info("pool created",
		zap.String("name", p.name),
		zap.String("x", x.Hex()),
		zap.String("y", y.Hex()),
		zap.Stringer("x_share", xShare),
		zap.Int("hooks", len(hookNames)),
	)
	return p, nil
}

// NewWithLiquidity creates a pool and contributes a and b as its first
// liquidity.
func NewWithLiquidity(ctx context.Context, params Params, deps Deps, a, b model.Bucket) (*Pool, model.Bucket, error) {
	p, err := New(ctx, params, deps)
	if err != nil {
		return nil, model.Bucket{}, err
	}
	lp, _, err := p.AddLiquidity(ctx, a, b)
	if err != nil {
		return nil, model.Bucket{}, err
	}
	return p, lp, nil
}

func resolveMeta(ctx context.Context, resolver token.Resolver, asset model.Asset) (token.Meta, error) {
	if resolver == nil {
		return token.NewMeta(asset, "", fixedpoint.MaxDivisibility), nil
	}
	meta, err := resolver.Resolve(ctx, asset)
	if err != nil {
		return token.Meta{}, fmt.Errorf("resolve %s: %w", asset.Hex(), err)
	}
	if err := fixedpoint.CheckDivisibility(meta.Divisibility); err != nil {
		return token.Meta{}, ErrInvalidDivisibility.Wrapf("%s: %v", asset.Hex(), err)
	}
	return meta, nil
}

func poolName(xSymbol, ySymbol string) string {
	if xSymbol == "" || ySymbol == "" {
		return "Flex Pool"
	}
	return fmt.Sprintf("Flex Pool %s/%s", xSymbol, ySymbol)
}

func lpName(xSymbol, ySymbol string) string {
	if xSymbol == "" || ySymbol == "" {
		return "LP"
	}
	return fmt.Sprintf("LP %s/%s", xSymbol, ySymbol)
}

// Savepoint covers the pool's own fields.
func (p *Pool) Savepoint() txn.Savepoint {
	saved := p.st.clone()
	return txn.New(func() { p.st = saved }, nil)
}

func (p *Pool) divisibility(asset model.Asset) (uint8, error) {
	switch asset {
	case p.x:
		return p.xDiv, nil
	case p.y:
		return p.yDiv, nil
	default:
		return 0, ErrForeignAsset.Wrapf("%s", asset.Hex())
	}
}

// checkAmount returns the divisibility of the bucket's asset. It rejects
// negative amounts and amounts with more fractional digits than the asset holds.
func (p *Pool) checkAmount(bucket model.Bucket) (uint8, error) {
	div, err := p.divisibility(bucket.Asset)
	if err != nil {
		return 0, err
	}
	if err := bucket.Validate(); err != nil {
		return 0, err
	}
	if !bucket.Amount.RoundTo(div, fixedpoint.ToZero).Equal(bucket.Amount) {
		return 0, ErrAmountPrecision.Wrapf("%s of %s, divisibility %d", bucket.Amount, bucket.Asset.Hex(), div)
	}
	return div, nil
}

func (p *Pool) priceSqrt() (fixedpoint.PreciseDecimal, bool) {
	x, y := p.vault.VaultAmounts()
	return poolmath.PriceSqrt(x, y, p.ratio)
}

func (p *Pool) ID() model.PoolID { return p.id }
func (p *Pool) Name() string { return p.name }
func (p *Pool) LPName() string { return p.lpName }
func (p *Pool) XAddress() model.Asset { return p.x }
func (p *Pool) YAddress() model.Asset { return p.y }
func (p *Pool) XDivisibility() uint8 { return p.xDiv }
func (p *Pool) YDivisibility() uint8 { return p.yDiv }
func (p *Pool) XShare() fixedpoint.Decimal { return p.xShare }
func (p *Pool) YShare() fixedpoint.Decimal { return fixedpoint.One.Sub(p.xShare) }
func (p *Pool) Ratio() fixedpoint.Decimal { return p.ratio }
func (p *Pool) LPAddress() model.Asset { return p.vault.LPAsset() }
func (p *Pool) FlashLoanAddress() model.Asset { return p.ticketAsset }
func (p *Pool) Registry() registry.Syncer { return p.registry }

func (p *Pool) FlashLoanFeeRate() fixedpoint.Decimal { return p.flashLoanFeeRate }

// Vault exposes the reserve vault. Mutating it outside a transaction bypasses
// the pool's accounting.
func (p *Pool) Vault() liquidity.Vault { return p.vault }

func (p *Pool) InputFeeRate() fixedpoint.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.st.inputFeeRate
}

func (p *Pool) FeeProtocolShare() fixedpoint.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.st.feeProtocolShare
}

func (p *Pool) NextSyncTime() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.st.nextSyncTime
}

// ProtocolFees returns the fees accrued since the last registry sync.
func (p *Pool) ProtocolFees() (fixedpoint.Decimal, fixedpoint.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.st.xProtocolFees, p.st.yProtocolFees
}

// Reserves returns the X and Y vault amounts.
func (p *Pool) Reserves() (fixedpoint.Decimal, fixedpoint.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vault.VaultAmounts()
}

func (p *Pool) LPSupply() fixedpoint.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vault.TotalSupply()
}

// PriceSqrt reports false while either reserve is empty.
func (p *Pool) PriceSqrt() (fixedpoint.PreciseDecimal, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.priceSqrt()
}

func (p *Pool) Hook(key hooks.Key) (hooks.Hook, bool) {
	return p.pipeline.Lookup(key)
}

// RemovableLiquidity returns what redeeming lp would pay out.
func (p *Pool) RemovableLiquidity(lp fixedpoint.Decimal) (fixedpoint.Decimal, fixedpoint.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vault.RedemptionValue(lp)
}

// OutstandingLoans counts tickets minted and not yet repaid.
func (p *Pool) OutstandingLoans() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.st.loans)
}

func (p *Pool) Observation(ctx context.Context, timestamp uint64) (oracle.AccumulatedObservation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now, err := p.clock.Now(ctx)
	if err != nil {
		return oracle.AccumulatedObservation{}, ErrClock.Wrapf("%v", err)
	}
	return p.oracle.Observation(now, timestamp)
}

func (p *Pool) ObservationIntervals(ctx context.Context, intervals [][2]uint64) ([]oracle.ObservationInterval, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now, err := p.clock.Now(ctx)
	if err != nil {
		return nil, ErrClock.Wrapf("%v", err)
	}
	return p.oracle.ObservationIntervals(now, intervals)
}

func (p *Pool) ObservationsLimit() uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.oracle.Limit()
}

func (p *Pool) ObservationsStored() uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.oracle.Count()
}

func (p *Pool) OldestObservationAt() (uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.oracle.OldestTimestamp()
}

func (p *Pool) LastObservationIndex() (uint16, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.oracle.LastIndex()
}

// LastObservedPriceSqrt is the price the oracle will accumulate into its next
// observation. It reports false before the first swap.
func (p *Pool) LastObservedPriceSqrt() (fixedpoint.PreciseDecimal, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.oracle.LastPrice()
}
