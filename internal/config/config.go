package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"flexPool/internal/fixedpoint"
	"flexPool/internal/model"
	"flexPool/internal/token"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	LogLevel string
	Assets   []token.Meta
	Pool     PoolConfig
	Registry RegistryConfig

	HookOrigins []model.Asset

	RPCURL     string
	BlockClock bool

	Script      string
	Out         string
	PGDSN       string
	PGBatchSize int
	MetricsAddr string

	MaxRetries   int
	RetryBackoff time.Duration
}

type PoolConfig struct {
	A                model.Asset
	B                model.Asset
	AShare           fixedpoint.Decimal
	InputFeeRate     fixedpoint.Decimal
	FlashLoanFeeRate fixedpoint.Decimal
	OracleCapacity   uint16
}

type RegistryConfig struct {
	FeeProtocolShare fixedpoint.Decimal
	SyncPeriod       uint64
	SyncSlots        uint64
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FLEXPOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	v.SetDefault("pool.a-share", "0.5")
	v.SetDefault("pool.input-fee-rate", "0.003")
	v.SetDefault("pool.flash-loan-fee-rate", "0.009")
	v.SetDefault("pool.oracle-capacity", 65535)
	v.SetDefault("registry.fee-protocol-share", "0")
	v.SetDefault("registry.sync-period", uint64(3600))
	v.SetDefault("registry.sync-slots", uint64(60))
	v.SetDefault("block-clock", false)
	v.SetDefault("out", "./data/events.jsonl")
	v.SetDefault("pg-batch-size", 500)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		LogLevel:     v.GetString("log-level"),
		RPCURL:       v.GetString("rpc"),
		BlockClock:   v.GetBool("block-clock"),
		Script:       v.GetString("script"),
		Out:          v.GetString("out"),
		PGDSN:        v.GetString("pg-dsn"),
		PGBatchSize:  v.GetInt("pg-batch-size"),
		MetricsAddr:  v.GetString("metrics-addr"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		Registry: RegistryConfig{
			SyncPeriod: v.GetUint64("registry.sync-period"),
			SyncSlots:  v.GetUint64("registry.sync-slots"),
		},
	}

	var err error
	if cfg.Assets, err = parseAssets(getEntries(v, "assets")); err != nil {
		return Config{}, err
	}
	for _, raw := range getStringSlice(v, "hooks.allowed-origins") {
		origin, err := model.ParseAsset(raw)
		if err != nil {
			return Config{}, fmt.Errorf("hooks.allowed-origins: %w", err)
		}
		cfg.HookOrigins = append(cfg.HookOrigins, origin)
	}

	if raw := v.GetString("pool.a"); raw != "" {
		if cfg.Pool.A, err = model.ParseAsset(raw); err != nil {
			return Config{}, fmt.Errorf("pool.a: %w", err)
		}
	}
	if raw := v.GetString("pool.b"); raw != "" {
		if cfg.Pool.B, err = model.ParseAsset(raw); err != nil {
			return Config{}, fmt.Errorf("pool.b: %w", err)
		}
	}

	capacity := v.GetUint64("pool.oracle-capacity")
	if capacity == 0 || capacity > 65535 {
		return Config{}, fmt.Errorf("pool.oracle-capacity %d not in [1, 65535]", capacity)
	}
	cfg.Pool.OracleCapacity = uint16(capacity)

	decimals := []struct {
		key string
		dst *fixedpoint.Decimal
	}{
		{"pool.a-share", &cfg.Pool.AShare},
		{"pool.input-fee-rate", &cfg.Pool.InputFeeRate},
		{"pool.flash-loan-fee-rate", &cfg.Pool.FlashLoanFeeRate},
		{"registry.fee-protocol-share", &cfg.Registry.FeeProtocolShare},
	}
	for _, d := range decimals {
		parsed, err := fixedpoint.NewFromString(v.GetString(d.key))
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	return cfg, nil
}

// parseAssets reads entries of the form address,symbol,divisibility.
func parseAssets(entries []string) ([]token.Meta, error) {
	metas := make([]token.Meta, 0, len(entries))
	for _, entry := range entries {
		parts := cleanStrings(strings.Split(entry, ","))
		if len(parts) != 3 {
			return nil, fmt.Errorf("asset %q: want address,symbol,divisibility", entry)
		}
		address, err := model.ParseAsset(parts[0])
		if err != nil {
			return nil, fmt.Errorf("asset %q: %w", entry, err)
		}
		div, err := strconv.ParseUint(parts[2], 10, 8)
		if err != nil {
			return nil, fmt.Errorf("asset %q divisibility: %w", entry, err)
		}
		if err := fixedpoint.CheckDivisibility(uint8(div)); err != nil {
			return nil, fmt.Errorf("asset %q: %w", entry, err)
		}
		metas = append(metas, token.NewMeta(address, parts[1], uint8(div)))
	}
	return metas, nil
}

// getEntries reads a list whose items may contain commas. A plain string is
// split on semicolons.
func getEntries(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}
	switch typed := v.Get(key).(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return cleanStrings(strings.Split(typed, ";"))
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
