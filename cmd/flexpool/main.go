package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "flexpool",
		Short:        "Weighted two-asset AMM pool engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Replay an operation script against a configured pool",
		RunE:  runScript,
	}
	addPoolFlags(runCmd)
	runCmd.Flags().String("script", "", "operation script JSONL")
	runCmd.Flags().String("out", "./data/events.jsonl", "events JSONL path, empty to disable")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN for the event store")
	runCmd.Flags().Int("pg-batch-size", 500, "events per Postgres batch")
	runCmd.Flags().String("metrics-addr", "", "serve Prometheus /metrics on this address")
	runCmd.Flags().String("rpc", "", "RPC URL for token metadata and block time")
	runCmd.Flags().Bool("block-clock", false, "use the latest block timestamp as pool time")
	runCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a single swap against given reserves",
		RunE:  runQuote,
	}
	addPoolFlags(quoteCmd)
	quoteCmd.Flags().String("x-reserve", "", "X reserve")
	quoteCmd.Flags().String("y-reserve", "", "Y reserve")
	quoteCmd.Flags().String("input", "", "input asset address")
	quoteCmd.Flags().String("amount", "", "input amount")
	quoteCmd.Flags().String("fee-protocol-share", "0", "protocol share of the input fee")
	quoteCmd.Flags().String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres event schema",
		RunE:  runMigrate,
	}
	migrateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	migrateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(migrateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addPoolFlags(cmd *cobra.Command) {
	cmd.Flags().StringArray("assets", nil, "asset as address,symbol,divisibility (repeatable)")
	cmd.Flags().String("pool.a", "", "first pool asset")
	cmd.Flags().String("pool.b", "", "second pool asset")
	cmd.Flags().String("pool.a-share", "0.5", "weight of the first asset")
	cmd.Flags().String("pool.input-fee-rate", "0.003", "swap input fee rate")
	cmd.Flags().String("pool.flash-loan-fee-rate", "0.009", "flash loan fee rate")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
