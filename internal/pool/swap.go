package pool

import (
	"context"

	"go.uber.org/zap"

	"flexPool/internal/fixedpoint"
	"flexPool/internal/hooks"
	"flexPool/internal/model"
	"flexPool/internal/poolmath"
)

// Quote is the outcome of pricing a swap against the current reserves.
type Quote struct {
	SwapType       model.SwapType
	OutputAsset    model.Asset
	Output         fixedpoint.Decimal
	Fees           poolmath.FeeSplit
	PriceSqrtAfter fixedpoint.PreciseDecimal
}

// Swap exchanges input for the other pool asset in its own transaction.
func (p *Pool) Swap(ctx context.Context, input model.Bucket) (model.Bucket, error) {
	var out model.Bucket
	err := p.Transact(ctx, func(tx *Tx) error {
		var err error
		out, err = tx.Swap(input)
		return err
	})
	if err != nil {
		p.metrics.ObserveSwap(p.id.Hex(), p.directionOf(input.Asset), "failed")
		return model.Bucket{}, err
	}
	return out, nil
}

func (p *Pool) directionOf(asset model.Asset) string {
	if asset == p.x {
		return model.SellX.String()
	}
	return model.BuyX.String()
}

// Swap prices input, settles fees, runs the swap hooks and returns the
// output bucket.
func (tx *Tx) Swap(input model.Bucket) (model.Bucket, error) {
	if err := tx.check(); err != nil {
		return model.Bucket{}, err
	}
	p := tx.pool
	inputDiv, err := p.checkAmount(input)
	if err != nil {
		return model.Bucket{}, err
	}

	if err := tx.syncRegistry(); err != nil {
		return model.Bucket{}, err
	}

	swapType := model.BuyX
	if input.Asset == p.x {
		swapType = model.SellX
	}

	xVault, yVault := p.vault.VaultAmounts()
	if !xVault.IsPositive() || !yVault.IsPositive() {
		return model.Bucket{}, ErrEmptyReserves.Wrapf("x %s, y %s", xVault, yVault)
	}

	inputAddress, inputGross := input.Asset, input.Amount
	bucket := input
	if p.pipeline.Has(hooks.BeforeSwap) {
		price, ok := poolmath.PriceSqrt(xVault, yVault, p.ratio)
		if !ok {
			return model.Bucket{}, ErrInvalidPrice
		}
		st, returned, err := p.pipeline.RunBeforeSwap(tx.ctx, hooks.BeforeSwapState{
			PoolAddress:      p.id,
			SwapType:         swapType,
			PriceSqrt:        price,
			InputFeeRate:     p.st.inputFeeRate,
			FeeProtocolShare: p.st.feeProtocolShare,
		}, bucket)
		if err != nil {
			return model.Bucket{}, err
		}
		if err := checkInputFeeRate(st.InputFeeRate); err != nil {
			return model.Bucket{}, err
		}
		if _, err := p.checkAmount(returned); err != nil {
			return model.Bucket{}, err
		}
		p.st.inputFeeRate = st.InputFeeRate
		bucket = returned
	}

	fees := poolmath.InputAmountNet(bucket.Amount, p.st.inputFeeRate, p.st.feeProtocolShare, inputDiv)
	protocolFee, deposit, err := bucket.Take(fees.Protocol)
	if err != nil {
		return model.Bucket{}, err
	}
	p.accrueProtocolFee(protocolFee.Asset, protocolFee.Amount)

	inputVault, outputAddress, outputVault := xVault, p.y, yVault
	if swapType == model.BuyX {
		inputVault, outputAddress, outputVault = yVault, p.x, xVault
	}
	outputDiv, _ := p.divisibility(outputAddress)
	outputAmount := poolmath.OutputAmount(inputVault, outputVault, fees.Net, p.ratio, swapType, outputDiv)

	output, err := p.vault.ProtectedWithdraw(outputAddress, outputAmount, fixedpoint.ToZero)
	if err != nil {
		return model.Bucket{}, err
	}
	if err := p.vault.ProtectedDeposit(deposit); err != nil {
		return model.Bucket{}, err
	}

	priceAfter, ok := p.priceSqrt()
	if !ok {
		return model.Bucket{}, ErrInvalidPrice
	}

	if p.pipeline.Has(hooks.AfterSwap) {
		st, returned, err := p.pipeline.RunAfterSwap(tx.ctx, hooks.AfterSwapState{
			PoolAddress:      p.id,
			SwapType:         swapType,
			PriceSqrt:        priceAfter,
			InputFeeRate:     p.st.inputFeeRate,
			FeeProtocolShare: p.st.feeProtocolShare,
			InputAddress:     inputAddress,
			InputAmount:      fees.Net,
			OutputAddress:    outputAddress,
			OutputAmount:     output.Amount,
			InputFeeLP:       fees.LP,
			InputFeeProtocol: fees.Protocol,
		}, output)
		if err != nil {
			return model.Bucket{}, err
		}
		if err := checkInputFeeRate(st.InputFeeRate); err != nil {
			return model.Bucket{}, err
		}
		if _, err := p.checkAmount(returned); err != nil {
			return model.Bucket{}, err
		}
		p.st.inputFeeRate = st.InputFeeRate
		output = returned
	}

	if err := p.oracle.Observe(tx.now, priceAfter); err != nil {
		return model.Bucket{}, err
	}

	tx.emit(model.EventSwapExecuted, model.SwapExecutedEvent{
		InputAddress:       inputAddress,
		InputGrossAmount:   inputGross,
		InputAmount:        fees.Net,
		OutputAddress:      outputAddress,
		OutputAmount:       outputAmount,
		OutputReturnAmount: output.Amount,
		InputFeeLP:         fees.LP,
		InputFeeProtocol:   fees.Protocol,
		PriceSqrt:          priceAfter,
	})

	pool := p.id.Hex()
	tx.afterCommit(func() {
		p.metrics.ObserveSwap(pool, swapType.String(), "ok")
		p.metrics.AddVolume(pool, inputAddress.Hex(), inputGross.Float64())
		p.metrics.AddFee(pool, inputAddress.Hex(), "lp", fees.LP.Float64())
		p.metrics.AddFee(pool, inputAddress.Hex(), "protocol", fees.Protocol.Float64())
	})
	p.logger.Debug("swap",
		zap.Stringer("type", swapType),
		zap.Stringer("input", inputGross),
		zap.Stringer("net", fees.Net),
		zap.Stringer("output", outputAmount),
		zap.Stringer("returned", output.Amount),
		zap.Stringer("price_sqrt", priceAfter),
	)
	return output, nil
}

// Quote prices a swap of input without hooks, registry sync or any state
// change.
func (p *Pool) Quote(input model.Bucket) (Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	inputDiv, err := p.checkAmount(input)
	if err != nil {
		return Quote{}, err
	}
	xVault, yVault := p.vault.VaultAmounts()
	if !xVault.IsPositive() || !yVault.IsPositive() {
		return Quote{}, ErrEmptyReserves.Wrapf("x %s, y %s", xVault, yVault)
	}

	q := Quote{SwapType: model.BuyX, OutputAsset: p.x}
	inputVault, outputVault := yVault, xVault
	if input.Asset == p.x {
		q.SwapType, q.OutputAsset = model.SellX, p.y
		inputVault, outputVault = xVault, yVault
	}
	outputDiv, _ := p.divisibility(q.OutputAsset)

	q.Fees = poolmath.InputAmountNet(input.Amount, p.st.inputFeeRate, p.st.feeProtocolShare, inputDiv)
	q.Output = poolmath.OutputAmount(inputVault, outputVault, q.Fees.Net, p.ratio, q.SwapType, outputDiv)

	newInput := inputVault.Add(input.Amount).Sub(q.Fees.Protocol)
	newOutput := outputVault.Sub(q.Output)
	x, y := newInput, newOutput
	if q.SwapType == model.BuyX {
		x, y = newOutput, newInput
	}
	price, ok := poolmath.PriceSqrt(x, y, p.ratio)
	if !ok {
		return Quote{}, ErrInvalidPrice
	}
	q.PriceSqrtAfter = price
	return q, nil
}

func (p *Pool) accrueProtocolFee(asset model.Asset, amount fixedpoint.Decimal) {
	if asset == p.x {
		p.st.xProtocolFees = p.st.xProtocolFees.Add(amount)
		return
	}
	p.st.yProtocolFees = p.st.yProtocolFees.Add(amount)
}
