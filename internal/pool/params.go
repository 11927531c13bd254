package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"flexPool/internal/fixedpoint"
	"flexPool/internal/hooks"
	"flexPool/internal/metrics"
	"flexPool/internal/model"
	"flexPool/internal/oracle"
	"flexPool/internal/registry"
	"flexPool/internal/token"
)

var (
	InputFeeRateMax     = fixedpoint.MustParse("0.1")
	FlashLoanFeeRateMax = fixedpoint.MustParse("0.1")
	FeeProtocolShareMax = fixedpoint.MustParse("0.25")
	MinimumShare        = fixedpoint.MustParse("0.05")
	MaximumShare        = fixedpoint.MustParse("0.95")
)

// Params are the immutable settings of a pool.
type Params struct {
	A                  model.Asset
	B                  model.Asset
	AShare             fixedpoint.Decimal
	InputFeeRate       fixedpoint.Decimal
	FlashLoanFeeRate   fixedpoint.Decimal
	Hooks              []hooks.Registration
	AllowedHookOrigins []common.Address
	// OracleCapacity defaults to oracle.DefaultCapacity when zero.
	OracleCapacity uint16
}

// Deps are the collaborators a pool talks to.
type Deps struct {
	Registry registry.Syncer
	Clock    oracle.Clock
	// Tokens supplies divisibility and symbols. Without it both assets use
	// 18 fractional digits and the pool gets a generic name.
	Tokens  token.Resolver
	Sinks   []EventSink
	Metrics *metrics.PoolMetrics
	Logger  *zap.Logger
}

func checkInputFeeRate(rate fixedpoint.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(InputFeeRateMax) {
		return ErrFeeRateOutOfRange.Wrapf("input fee rate %s not in [0, %s]", rate, InputFeeRateMax)
	}
	return nil
}

func checkFlashLoanFeeRate(rate fixedpoint.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(FlashLoanFeeRateMax) {
		return ErrFeeRateOutOfRange.Wrapf("flash loan fee rate %s not in [0, %s]", rate, FlashLoanFeeRateMax)
	}
	return nil
}

func checkShare(share fixedpoint.Decimal) error {
	if share.LessThan(MinimumShare) || share.GreaterThan(MaximumShare) {
		return ErrShareOutOfRange.Wrapf("%s not in [%s, %s]", share, MinimumShare, MaximumShare)
	}
	return nil
}
