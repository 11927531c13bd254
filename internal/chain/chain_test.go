package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
)

type fakeHeaders struct {
	times []uint64
	fails int
	calls int
}

func (f *fakeHeaders) HeaderByNumber(_ context.Context, number *big.Int) (*types.Header, error) {
	f.calls++
	if number != nil {
		return nil, errors.New("only latest supported")
	}
	if f.fails > 0 {
		f.fails--
		return nil, errors.New("temporary")
	}
	ts := f.times[0]
	if len(f.times) > 1 {
		f.times = f.times[1:]
	}
	return &types.Header{Number: big.NewInt(1), Time: ts}, nil
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), 3, time.Millisecond, nil, "test", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("boom")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryGivesUp(t *testing.T) {
	want := errors.New("boom")
	attempts := 0
	err := Retry(context.Background(), 2, time.Millisecond, nil, "test", func(context.Context) error {
		attempts++
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 5, time.Hour, nil, "test", func(context.Context) error {
		return errors.New("boom")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBlockClockIsMonotonic(t *testing.T) {
	src := &fakeHeaders{times: []uint64{100, 160, 120, 200}, fails: 1}
	clock := NewBlockClock(src, 2, time.Millisecond, nil)

	want := []uint64{100, 160, 160, 200}
	for i, w := range want {
		got, err := clock.Now(context.Background())
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if got != w {
			t.Fatalf("call %d: expected %d, got %d", i, w, got)
		}
	}
	if src.calls != 5 {
		t.Fatalf("expected 5 header calls, got %d", src.calls)
	}
}

func TestBlockClockFailure(t *testing.T) {
	src := &fakeHeaders{times: []uint64{1}, fails: 10}
	clock := NewBlockClock(src, 1, time.Millisecond, nil)
	if _, err := clock.Now(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}
