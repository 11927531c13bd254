package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"flexPool/internal/chain"
	"flexPool/internal/config"
	"flexPool/internal/metrics"
	"flexPool/internal/oracle"
	"flexPool/internal/pool"
	"flexPool/internal/registry"
	"flexPool/internal/storage"
	"flexPool/internal/storage/postgres"
	"flexPool/internal/token"
)

// env holds the collaborators built from config for one command run.
type env struct {
	clock    oracle.Clock
	manual   *oracle.ManualClock
	registry *registry.Registry
	tokens   token.Resolver
	sinks    []pool.EventSink
	metrics  *metrics.PoolMetrics
	closers  []func()
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

func buildEnv(ctx context.Context, cfg config.Config, logger *zap.Logger) (*env, error) {
	e := &env{}
	static := token.NewStaticResolver(cfg.Assets...)
	e.tokens = static

	var client *chain.Client
	if cfg.RPCURL != "" {
		c, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("connect rpc: %w", err)
		}
		client = c
		e.closers = append(e.closers, c.Close)
		e.tokens = token.Chain{static, token.NewChainResolver(c, cfg.MaxRetries, cfg.RetryBackoff, logger)}
	}

	if cfg.BlockClock {
		if client == nil {
			e.Close()
			return nil, fmt.Errorf("block clock requires an rpc url")
		}
		e.clock = chain.NewBlockClock(client, cfg.MaxRetries, cfg.RetryBackoff, logger)
	} else {
		e.manual = oracle.NewManualClock(uint64(time.Now().Unix()))
		e.clock = e.manual
	}

	reg, err := registry.New(registry.Config{
		FeeProtocolShare: cfg.Registry.FeeProtocolShare,
		SyncPeriod:       cfg.Registry.SyncPeriod,
		SyncSlots:        cfg.Registry.SyncSlots,
	}, e.clock, registry.WithLogger(logger))
	if err != nil {
		e.Close()
		return nil, err
	}
	e.registry = reg

	if cfg.Out != "" {
		e.sinks = append(e.sinks, storage.NewJsonlStorage(cfg.Out))
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN, postgres.Options{
			BatchSize:    cfg.PGBatchSize,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
			Logger:       logger,
		})
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		e.closers = append(e.closers, store.Close)
		e.sinks = append(e.sinks, store)
	}

	if cfg.MetricsAddr != "" {
		e.metrics = metrics.NewPoolMetrics()
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server", zap.Error(err))
			}
		}()
		e.closers = append(e.closers, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		})
		logger.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
	}
	return e, nil
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func poolParams(cfg config.Config) (pool.Params, error) {
	if cfg.Pool.A == cfg.Pool.B {
		return pool.Params{}, fmt.Errorf("pool.a and pool.b are required and must differ")
	}
	return pool.Params{
		A:                  cfg.Pool.A,
		B:                  cfg.Pool.B,
		AShare:             cfg.Pool.AShare,
		InputFeeRate:       cfg.Pool.InputFeeRate,
		FlashLoanFeeRate:   cfg.Pool.FlashLoanFeeRate,
		AllowedHookOrigins: cfg.HookOrigins,
		OracleCapacity:     cfg.Pool.OracleCapacity,
	}, nil
}
