package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"flexPool/internal/config"
	"flexPool/internal/fixedpoint"
	"flexPool/internal/model"
	"flexPool/internal/oracle"
	"flexPool/internal/pool"
	"flexPool/internal/registry"
	"flexPool/internal/token"
)

type quoteOutput struct {
	SwapType       model.SwapType            `json:"swap_type"`
	OutputAddress  model.Asset               `json:"output_address"`
	OutputAmount   fixedpoint.Decimal        `json:"output_amount"`
	InputAmountNet fixedpoint.Decimal        `json:"input_amount_net"`
	InputFeeLP     fixedpoint.Decimal        `json:"input_fee_lp"`
	InputFeeProto  fixedpoint.Decimal        `json:"input_fee_protocol"`
	PriceSqrtAfter fixedpoint.PreciseDecimal `json:"price_sqrt_after"`
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	params, err := poolParams(cfg)
	if err != nil {
		return err
	}
	values := map[string]fixedpoint.Decimal{}
	for _, name := range []string{"x-reserve", "y-reserve", "amount", "fee-protocol-share"} {
		raw, _ := cmd.Flags().GetString(name)
		d, err := fixedpoint.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		values[name] = d
	}
	rawInput, _ := cmd.Flags().GetString("input")
	input, err := model.ParseAsset(rawInput)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}

	ctx := context.Background()
	clock := oracle.NewManualClock(0)
	reg, err := registry.New(registry.Config{
		FeeProtocolShare: values["fee-protocol-share"],
		SyncPeriod:       1,
		SyncSlots:        1,
	}, clock)
	if err != nil {
		return err
	}

	p, err := pool.New(ctx, params, pool.Deps{
		Registry: reg,
		Clock:    clock,
		Tokens:   token.NewStaticResolver(cfg.Assets...),
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}
	if _, _, err := p.AddLiquidity(ctx,
		model.NewBucket(p.XAddress(), values["x-reserve"]),
		model.NewBucket(p.YAddress(), values["y-reserve"]),
	); err != nil {
		return fmt.Errorf("seed reserves: %w", err)
	}
	if _, err := p.SyncRegistry(ctx); err != nil {
		return fmt.Errorf("load fee share: %w", err)
	}

	q, err := p.Quote(model.NewBucket(input, values["amount"]))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(quoteOutput{
		SwapType:       q.SwapType,
		OutputAddress:  q.OutputAsset,
		OutputAmount:   q.Output,
		InputAmountNet: q.Fees.Net,
		InputFeeLP:     q.Fees.LP,
		InputFeeProto:  q.Fees.Protocol,
		PriceSqrtAfter: q.PriceSqrtAfter,
	})
}
