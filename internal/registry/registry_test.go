package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"flexPool/internal/fixedpoint"
	"flexPool/internal/model"
	"flexPool/internal/oracle"
)

var (
	poolID = common.HexToAddress("0x00000000000000000000000000000000000000cc")
	assetX = common.HexToAddress("0x0000000000000000000000000000000000000001")
	assetY = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

func testConfig() Config {
	return Config{
		FeeProtocolShare: fixedpoint.MustParse("0.25"),
		SyncPeriod:       3041,
		SyncSlots:        32,
	}
}

func fixedSlot(slot uint64) Option {
	return WithSlotFunc(func(model.PoolID, uint64) uint64 { return slot })
}

func fees(x, y string) (model.Bucket, model.Bucket) {
	return model.NewBucket(assetX, fixedpoint.MustParse(x)), model.NewBucket(assetY, fixedpoint.MustParse(y))
}

func TestSyncNextTime(t *testing.T) {
	clock := oracle.NewManualClock(0)
	r, err := New(testConfig(), clock, fixedSlot(31))
	require.NoError(t, err)

	cases := []struct {
		now  uint64
		next uint64
	}{
		{0, 5986},
		{5986, 9027},
		{9027, 12068},
		{3040, 5986},
		{3041, 9027},
	}
	for _, tc := range cases {
		clock.Set(tc.now)
		x, y := fees("0", "0")
		share, next, err := r.Sync(context.Background(), poolID, x, y)
		require.NoError(t, err)
		require.Equal(t, "0.25", share.String())
		require.Equal(t, tc.next, next, "now %d", tc.now)
	}
	require.Equal(t, uint64(len(cases)), r.SyncCount())
}

func TestSyncAccumulatesAndWithdraws(t *testing.T) {
	r, err := New(testConfig(), oracle.NewManualClock(10), fixedSlot(0))
	require.NoError(t, err)

	x, y := fees("0.025", "0.125")
	_, _, err = r.Sync(context.Background(), poolID, x, y)
	require.NoError(t, err)
	x, y = fees("0", "0.1")
	_, _, err = r.Sync(context.Background(), poolID, x, y)
	require.NoError(t, err)

	require.Equal(t, "0.225", r.Fees(assetY).String())

	out := r.WithdrawProtocolFees(assetY)
	require.Len(t, out, 1)
	require.Equal(t, "0.225", out[0].Amount.String())
	require.True(t, r.Fees(assetY).IsZero())

	out = r.WithdrawProtocolFees()
	require.Len(t, out, 1)
	require.Equal(t, assetX, out[0].Asset)
	require.Equal(t, "0.025", out[0].Amount.String())
}

func TestSyncRejectsNegativeFees(t *testing.T) {
	r, err := New(testConfig(), oracle.NewManualClock(0))
	require.NoError(t, err)
	x, y := fees("-1", "0")
	_, _, err = r.Sync(context.Background(), poolID, x, y)
	require.ErrorIs(t, err, model.ErrNegativeAmount)
}

type brokenClock struct{}

func (brokenClock) Now(context.Context) (uint64, error) { return 0, errors.New("rpc down") }

func TestSyncClockFailure(t *testing.T) {
	r, err := New(testConfig(), brokenClock{})
	require.NoError(t, err)
	x, y := fees("0", "0")
	_, _, err = r.Sync(context.Background(), poolID, x, y)
	require.ErrorIs(t, err, ErrClock)
}

func TestConfigValidate(t *testing.T) {
	bad := []Config{
		{FeeProtocolShare: fixedpoint.MustParse("-0.1"), SyncPeriod: 10, SyncSlots: 1},
		{FeeProtocolShare: fixedpoint.MustParse("1.1"), SyncPeriod: 10, SyncSlots: 1},
		{FeeProtocolShare: fixedpoint.Zero, SyncPeriod: 0, SyncSlots: 1},
		{FeeProtocolShare: fixedpoint.Zero, SyncPeriod: 10, SyncSlots: 0},
		{FeeProtocolShare: fixedpoint.Zero, SyncPeriod: 10, SyncSlots: 11},
	}
	for _, cfg := range bad {
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	}

	r, err := New(testConfig(), oracle.NewManualClock(0))
	require.NoError(t, err)
	require.ErrorIs(t, r.UpdateConfig(bad[0]), ErrInvalidConfig)

	updated := testConfig()
	updated.FeeProtocolShare = fixedpoint.MustParse("0.1")
	require.NoError(t, r.UpdateConfig(updated))
	require.Equal(t, "0.1", r.Config().FeeProtocolShare.String())
}

func TestSlotOf(t *testing.T) {
	a := SlotOf(poolID, 32)
	require.Equal(t, a, SlotOf(poolID, 32))
	require.Less(t, a, uint64(32))
	require.Equal(t, uint64(0), SlotOf(poolID, 1))
}

func TestSavepointForRollsBackOnePool(t *testing.T) {
	other := common.HexToAddress("0x00000000000000000000000000000000000000dd")
	r, err := New(testConfig(), oracle.NewManualClock(0))
	require.NoError(t, err)
	x, y := fees("1", "2")
	_, _, err = r.Sync(context.Background(), poolID, x, y)
	require.NoError(t, err)

	sp := r.SavepointFor(poolID)
	_, _, err = r.Sync(context.Background(), poolID, x, y)
	require.NoError(t, err)
	_, _, err = r.Sync(context.Background(), other, x, y)
	require.NoError(t, err)
	require.Equal(t, "3", r.Fees(assetX).String())
	sp.Rollback()

	require.Equal(t, "2", r.Fees(assetX).String())
	require.Equal(t, "4", r.Fees(assetY).String())
	require.Equal(t, uint64(2), r.SyncCount())
	require.Empty(t, r.journals)

	sp = r.SavepointFor(poolID)
	_, _, err = r.Sync(context.Background(), poolID, x, y)
	require.NoError(t, err)
	sp.Release()
	require.Equal(t, "3", r.Fees(assetX).String())
	require.Empty(t, r.journals)
}
