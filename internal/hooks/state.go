package hooks

import (
	"flexPool/internal/fixedpoint"
	"flexPool/internal/model"
)

type BeforeInstantiateState struct {
	XAddress         model.Asset
	YAddress         model.Asset
	InputFeeRate     fixedpoint.Decimal
	FlashLoanFeeRate fixedpoint.Decimal
	XShare           fixedpoint.Decimal
}

type AfterInstantiateState struct {
	PoolAddress      model.PoolID
	XAddress         model.Asset
	YAddress         model.Asset
	InputFeeRate     fixedpoint.Decimal
	FlashLoanFeeRate fixedpoint.Decimal
	XShare           fixedpoint.Decimal
}

// BeforeSwapState is handed to before-swap hooks together with the input
// bucket. Hooks may change InputFeeRate.
type BeforeSwapState struct {
	PoolAddress      model.PoolID
	SwapType         model.SwapType
	PriceSqrt        fixedpoint.PreciseDecimal
	InputFeeRate     fixedpoint.Decimal
	FeeProtocolShare fixedpoint.Decimal
}

// AfterSwapState describes a completed swap. InputAmount is net of fees.
type AfterSwapState struct {
	PoolAddress      model.PoolID
	SwapType         model.SwapType
	PriceSqrt        fixedpoint.PreciseDecimal
	InputFeeRate     fixedpoint.Decimal
	FeeProtocolShare fixedpoint.Decimal
	InputAddress     model.Asset
	InputAmount      fixedpoint.Decimal
	OutputAddress    model.Asset
	OutputAmount     fixedpoint.Decimal
	InputFeeLP       fixedpoint.Decimal
	InputFeeProtocol fixedpoint.Decimal
}
