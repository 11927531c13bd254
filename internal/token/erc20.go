package token

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"go.uber.org/zap"

	"flexPool/internal/chain"
	"flexPool/internal/model"
)

// Caller performs read-only contract calls. *chain.Client implements it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// ChainResolver reads ERC20 metadata and caches it per address.
type ChainResolver struct {
	caller     Caller
	cache      *Cache
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

func NewChainResolver(caller Caller, maxRetries int, backoff time.Duration, logger *zap.Logger) *ChainResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChainResolver{
		caller:     caller,
		cache:      NewCache(),
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger,
	}
}

func (r *ChainResolver) Resolve(ctx context.Context, asset model.Asset) (Meta, error) {
	if meta, ok := r.cache.Get(asset); ok {
		return meta, nil
	}
	meta, err := r.fetch(ctx, asset)
	if err != nil {
		return Meta{}, err
	}
	r.cache.Set(asset, meta)
	return meta, nil
}

func (r *ChainResolver) fetch(ctx context.Context, asset model.Asset) (Meta, error) {
	if r.caller == nil {
		return Meta{}, fmt.Errorf("chain caller is nil")
	}
	stringABI, err := erc20StringABI()
	if err != nil {
		return Meta{}, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20Bytes32ABI()
	if err != nil {
		return Meta{}, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	call := func(method string, parsed abi.ABI) ([]interface{}, error) {
		data, err := parsed.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		var resp []byte
		err = chain.Retry(ctx, r.maxRetries, r.backoff, r.logger, "erc20 "+method, func(ctx context.Context) error {
			out, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &asset, Data: data}, nil)
			if err != nil {
				return err
			}
			resp = out
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		values, err := parsed.Unpack(method, resp)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", method, err)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("unpack %s: empty result", method)
		}
		return values, nil
	}

	values, err := call("decimals", stringABI)
	if err != nil {
		return Meta{}, err
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return Meta{}, fmt.Errorf("decimals: unsupported type %T", values[0])
	}

	var symbol string
	if values, err := call("symbol", stringABI); err == nil {
		symbol, _ = values[0].(string)
	} else if values, err := call("symbol", bytes32ABI); err == nil {
		symbol, _ = bytes32ToString(values[0])
	} else {
		r.logger.Debug("symbol call failed", zap.String("token", asset.Hex()), zap.Error(err))
	}

	meta := NewMeta(asset, symbol, decimals)
	if values, err := call("name", stringABI); err == nil {
		meta.Name, _ = values[0].(string)
	} else if values, err := call("name", bytes32ABI); err == nil {
		meta.Name, _ = bytes32ToString(values[0])
	}
	return meta, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}
