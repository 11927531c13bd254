package liquidity

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"flexPool/internal/fixedpoint"
	"flexPool/internal/model"
)

var (
	assetX  = common.HexToAddress("0x0000000000000000000000000000000000000001")
	assetY  = common.HexToAddress("0x0000000000000000000000000000000000000002")
	lpAsset = common.HexToAddress("0x00000000000000000000000000000000000000f0")
)

func d(s string) fixedpoint.Decimal { return fixedpoint.MustParse(s) }

func newPool(t require.TestingT, xDiv, yDiv uint8) *TwoAssetPool {
	p, err := NewTwoAssetPool(assetX, assetY, xDiv, yDiv, lpAsset)
	require.NoError(t, err)
	return p
}

func contribute(t require.TestingT, p *TwoAssetPool, x, y string) (model.Bucket, *model.Bucket) {
	lp, rem, err := p.Contribute(model.NewBucket(assetX, d(x)), model.NewBucket(assetY, d(y)))
	require.NoError(t, err)
	return lp, rem
}

func TestInitialContribution(t *testing.T) {
	cases := []struct {
		x, y string
		want string
	}{
		{"100000", "5000", "22360.679774997896964092"},
		{"400000", "5000", "44721.359549995793928184"},
		{"10", "10", "10"},
		{"0", "0.000000000000000001", "0.000000000000000001"},
		{"7", "0", "7"},
	}
	for _, tc := range cases {
		t.Run(tc.x+"x"+tc.y, func(t *testing.T) {
			p := newPool(t, 18, 18)
			lp, rem := contribute(t, p, tc.x, tc.y)
			require.Nil(t, rem)
			require.Equal(t, lpAsset, lp.Asset)
			require.Equal(t, tc.want, lp.Amount.String())
			require.True(t, p.TotalSupply().Equal(lp.Amount))
		})
	}
}

func TestContributeRejectsEmpty(t *testing.T) {
	p := newPool(t, 18, 18)
	_, _, err := p.Contribute(model.NewBucket(assetX, fixedpoint.Zero), model.NewBucket(assetY, fixedpoint.Zero))
	require.ErrorIs(t, err, ErrEmptyContribution)

	contribute(t, p, "1", "1")
	_, _, err = p.Contribute(model.NewBucket(assetX, fixedpoint.Zero), model.NewBucket(assetY, d("5")))
	require.ErrorIs(t, err, ErrEmptyContribution)
}

func TestContributeForeignAsset(t *testing.T) {
	p := newPool(t, 18, 18)
	_, _, err := p.Contribute(model.NewBucket(assetX, d("1")), model.NewBucket(lpAsset, d("1")))
	require.ErrorIs(t, err, ErrForeignAsset)
}

func TestContributeAcceptsEitherOrder(t *testing.T) {
	p := newPool(t, 18, 18)
	lp, _, err := p.Contribute(model.NewBucket(assetY, d("4")), model.NewBucket(assetX, d("1")))
	require.NoError(t, err)
	require.Equal(t, "2", lp.Amount.String())
	x, y := p.VaultAmounts()
	require.Equal(t, "1", x.String())
	require.Equal(t, "4", y.String())
}

func TestLaterContributionReturnsRemainder(t *testing.T) {
	p := newPool(t, 18, 18)
	contribute(t, p, "1", "1")

	lp, rem := contribute(t, p, "3", "2")
	require.Equal(t, "2", lp.Amount.String())
	require.NotNil(t, rem)
	require.Equal(t, assetX, rem.Asset)
	require.Equal(t, "1", rem.Amount.String())

	x, y := p.VaultAmounts()
	require.Equal(t, "3", x.String())
	require.Equal(t, "3", y.String())
	require.Equal(t, "3", p.TotalSupply().String())
}

func TestLimitingSideUsedInFull(t *testing.T) {
	p := newPool(t, 18, 18)
	contribute(t, p, "3", "3")

	_, rem := contribute(t, p, "1", "5")
	require.NotNil(t, rem)
	require.Equal(t, assetY, rem.Asset)

	x, _ := p.VaultAmounts()
	require.Equal(t, "4", x.String())
}

func TestRedeemAfterSwap(t *testing.T) {
	p := newPool(t, 18, 18)
	contribute(t, p, "10", "10")

	require.NoError(t, p.ProtectedDeposit(model.NewBucket(assetX, d("1"))))
	out, err := p.ProtectedWithdraw(assetY, d("0.90909090909090909"), fixedpoint.ToNegativeInfinity)
	require.NoError(t, err)
	require.Equal(t, "0.90909090909090909", out.Amount.String())

	x, y, err := p.RedemptionValue(d("1"))
	require.NoError(t, err)
	require.Equal(t, "1.1", x.String())
	require.Equal(t, "0.909090909090909091", y.String())

	bx, by, err := p.Redeem(model.NewBucket(lpAsset, d("1")))
	require.NoError(t, err)
	require.True(t, bx.Amount.Equal(x))
	require.True(t, by.Amount.Equal(y))
	require.Equal(t, "9", p.TotalSupply().String())
}

func TestRedeemErrors(t *testing.T) {
	p := newPool(t, 18, 18)
	contribute(t, p, "10", "10")

	_, _, err := p.Redeem(model.NewBucket(assetX, d("1")))
	require.ErrorIs(t, err, ErrWrongLPAsset)

	_, _, err = p.Redeem(model.NewBucket(lpAsset, d("11")))
	require.ErrorIs(t, err, ErrInsufficientSupply)
}

func TestProtectedWithdraw(t *testing.T) {
	p := newPool(t, 2, 18)
	contribute(t, p, "10", "10")

	out, err := p.ProtectedWithdraw(assetX, d("1.239"), fixedpoint.ToNegativeInfinity)
	require.NoError(t, err)
	require.Equal(t, "1.23", out.Amount.String())

	_, err = p.ProtectedWithdraw(assetX, d("100"), fixedpoint.ToNegativeInfinity)
	require.ErrorIs(t, err, ErrInsufficientReserves)

	_, err = p.ProtectedWithdraw(lpAsset, d("1"), fixedpoint.ToZero)
	require.ErrorIs(t, err, ErrForeignAsset)
}

func TestSavepoint(t *testing.T) {
	p := newPool(t, 18, 18)
	contribute(t, p, "10", "10")

	sp := p.Savepoint()
	contribute(t, p, "5", "5")
	_, err := p.ProtectedWithdraw(assetX, d("1"), fixedpoint.ToZero)
	require.NoError(t, err)
	sp.Rollback()

	x, y := p.VaultAmounts()
	require.Equal(t, "10", x.String())
	require.Equal(t, "10", y.String())
	require.Equal(t, "10", p.TotalSupply().String())
}

func TestNewTwoAssetPoolValidates(t *testing.T) {
	_, err := NewTwoAssetPool(assetX, assetY, 19, 18, lpAsset)
	require.ErrorIs(t, err, fixedpoint.ErrInvalidDivisibility)

	_, err = NewTwoAssetPool(assetX, assetX, 18, 18, lpAsset)
	require.ErrorIs(t, err, model.ErrIdenticalAssets)
}

func TestAddRemoveRoundTrip(t *testing.T) {
	amount := func(label string) *rapid.Generator[fixedpoint.Decimal] {
		return rapid.Custom(func(t *rapid.T) fixedpoint.Decimal {
			micro := rapid.Int64Range(1, 1_000_000_000_000).Draw(t, label)
			return fixedpoint.NewFromInt(micro).Mul(d("0.000001"), fixedpoint.ToZero)
		})
	}

	rapid.Check(t, func(t *rapid.T) {
		p := newPool(t, 18, 18)
		seedX, seedY := amount("seedX").Draw(t, "seedX"), amount("seedY").Draw(t, "seedY")
		lp, _, err := p.Contribute(model.NewBucket(assetX, seedX), model.NewBucket(assetY, seedY))
		require.NoError(t, err)

		if rapid.Bool().Draw(t, "initialOnly") {
			x, y, err := p.Redeem(lp)
			require.NoError(t, err)
			require.True(t, x.Amount.Equal(seedX))
			require.True(t, y.Amount.Equal(seedY))
			return
		}

		inX, inY := amount("inX").Draw(t, "inX"), amount("inY").Draw(t, "inY")
		minted, _, err := p.Contribute(model.NewBucket(assetX, inX), model.NewBucket(assetY, inY))
		if err != nil {
			require.ErrorIs(t, err, ErrEmptyContribution)
			return
		}
		x, y, err := p.Redeem(minted)
		require.NoError(t, err)
		require.True(t, x.Amount.LessThanOrEqual(inX), "x %s > %s", x.Amount, inX)
		require.True(t, y.Amount.LessThanOrEqual(inY), "y %s > %s", y.Amount, inY)
	})
}
