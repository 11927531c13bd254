package oracle

import (
	"context"
	"sync"
	"time"
)

// Clock supplies the current time in unix seconds.
type Clock interface {
	Now(ctx context.Context) (uint64, error)
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now(context.Context) (uint64, error) {
	return uint64(time.Now().Unix()), nil
}

// ManualClock is a settable clock for replays and tests.
type ManualClock struct {
	mu  sync.Mutex
	now uint64
}

func NewManualClock(now uint64) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Now(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now, nil
}

// Set jumps to ts. Moving backwards is allowed; the oracle rejects it on use.
func (c *ManualClock) Set(ts uint64) {
	c.mu.Lock()
	c.now = ts
	c.mu.Unlock()
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += uint64(d / time.Second)
	c.mu.Unlock()
}
