package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flexPool/internal/config"
	"flexPool/internal/fixedpoint"
	"flexPool/internal/model"
	"flexPool/internal/oracle"
	"flexPool/internal/pool"
)

// operation is one line of a run script.
type operation struct {
	Op string `json:"op"`
	// At moves the manual clock before the operation. Ignored with a block clock.
	At     uint64             `json:"at,omitempty"`
	Asset  string             `json:"asset,omitempty"`
	Amount fixedpoint.Decimal `json:"amount"`
	X      fixedpoint.Decimal `json:"x"`
	Y      fixedpoint.Decimal `json:"y"`
	Repay  fixedpoint.Decimal `json:"repay"`
}

const (
	opAddLiquidity    = "add_liquidity"
	opRemoveLiquidity = "remove_liquidity"
	opSwap            = "swap"
	opFlashLoan       = "flash_loan"
	opSyncRegistry    = "sync_registry"
)

func runScript(cmd *cobra.Command, _ []string) error {
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

	if cfg.Script == "" {
		return fmt.Errorf("script path is required")
	}
	params, err := poolParams(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := buildEnv(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer e.Close()

	p, err := pool.New(ctx, params, pool.Deps{
		Registry: e.registry,
		Clock:    e.clock,
		Tokens:   e.tokens,
		Sinks:    e.sinks,
		Metrics:  e.metrics,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}

	file, err := os.Open(cfg.Script)
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	defer file.Close()

	logger.Info("run start",
		zap.String("pool", p.ID().Hex()),
		zap.String("name", p.Name()),
		zap.String("script", cfg.Script),
		zap.String("out", cfg.Out),
		zap.Bool("postgres", cfg.PGDSN != ""),
		zap.Bool("block_clock", cfg.BlockClock),
	)

	total, failed, err := replay(ctx, p, e.manual, file, logger)
	if err != nil {
		return err
	}

	x, y := p.Reserves()
	logger.Info("run done",
		zap.Int("operations", total),
		zap.Int("failed", failed),
		zap.Stringer("x_reserve", x),
		zap.Stringer("y_reserve", y),
		zap.Stringer("lp_supply", p.LPSupply()),
	)
	return nil
}

// replay applies every script line to p. A failing operation is logged and
// counted; the pool has already rolled it back.
func replay(ctx context.Context, p *pool.Pool, clock *oracle.ManualClock, r io.Reader, logger *zap.Logger) (int, int, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var total, failed, line int
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return total, failed, err
		}
		total++

		var op operation
		if err := json.Unmarshal(raw, &op); err != nil {
			failed++
			logger.Warn("bad operation", zap.Int("line", line), zap.Error(err))
			continue
		}
		if clock != nil && op.At > 0 {
			clock.Set(op.At)
		}
		if err := apply(ctx, p, op, logger); err != nil {
			failed++
			logger.Warn("operation failed", zap.Int("line", line), zap.String("op", op.Op), zap.Error(err))
		}
	}
	if err := scanner.Err(); err != nil {
		return total, failed, fmt.Errorf("read script: %w", err)
	}
	return total, failed, nil
}

func apply(ctx context.Context, p *pool.Pool, op operation, logger *zap.Logger) error {
	switch op.Op {
	case opAddLiquidity:
		lp, remainder, err := p.AddLiquidity(ctx, model.NewBucket(p.XAddress(), op.X), model.NewBucket(p.YAddress(), op.Y))
		if err != nil {
			return err
		}
		fields := []zap.Field{zap.Stringer("lp", lp.Amount)}
		if remainder != nil {
			fields = append(fields, zap.String("remainder_asset", remainder.Asset.Hex()), zap.Stringer("remainder", remainder.Amount))
		}
		logger.Info("liquidity added", fields...)

	case opRemoveLiquidity:
		x, y, err := p.RemoveLiquidity(ctx, model.NewBucket(p.LPAddress(), op.Amount))
		if err != nil {
			return err
		}
		logger.Info("liquidity removed", zap.Stringer("x", x.Amount), zap.Stringer("y", y.Amount))

	case opSwap:
		asset, err := model.ParseAsset(op.Asset)
		if err != nil {
			return err
		}
		out, err := p.Swap(ctx, model.NewBucket(asset, op.Amount))
		if err != nil {
			return err
		}
		logger.Info("swapped",
			zap.Stringer("input", op.Amount),
			zap.String("output_asset", out.Asset.Hex()),
			zap.Stringer("output", out.Amount),
		)

	case opFlashLoan:
		asset, err := model.ParseAsset(op.Asset)
		if err != nil {
			return err
		}
		var remainder model.Bucket
		err = p.Transact(ctx, func(tx *pool.Tx) error {
			_, ticket, err := tx.FlashLoan(asset, op.Amount)
			if err != nil {
				return err
			}
			remainder, err = tx.RepayLoan(model.NewBucket(asset, op.Repay), ticket)
			return err
		})
		if err != nil {
			return err
		}
		logger.Info("flash loan settled", zap.Stringer("amount", op.Amount), zap.Stringer("remainder", remainder.Amount))

	case opSyncRegistry:
		synced, err := p.SyncRegistry(ctx)
		if err != nil {
			return err
		}
		logger.Info("registry sync", zap.Bool("synced", synced), zap.Uint64("next_sync_time", p.NextSyncTime()))

	default:
		return fmt.Errorf("unknown op %q", op.Op)
	}
	return nil
}
