package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// HeaderSource is the part of Client the block clock needs.
type HeaderSource interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

var _ HeaderSource = (*Client)(nil)

// BlockClock reports the timestamp of the latest block. It never goes
// backwards, even if the node returns an older head after a reorg.
type BlockClock struct {
	source     HeaderSource
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger

	mu   sync.Mutex
	last uint64
}

func NewBlockClock(source HeaderSource, maxRetries int, backoff time.Duration, logger *zap.Logger) *BlockClock {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlockClock{source: source, maxRetries: maxRetries, backoff: backoff, logger: logger}
}

func (c *BlockClock) Now(ctx context.Context) (uint64, error) {
	var header *types.Header
	err := Retry(ctx, c.maxRetries, c.backoff, c.logger, "latest header", func(ctx context.Context) error {
		h, err := c.source.HeaderByNumber(ctx, nil)
		if err != nil {
			return err
		}
		header = h
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("fetch latest header: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if header.Time > c.last {
		c.last = header.Time
	} else if header.Time < c.last {
		c.logger.Warn("head timestamp went backwards",
			zap.Uint64("head", header.Time),
			zap.Uint64("last", c.last),
		)
	}
	return c.last, nil
}
