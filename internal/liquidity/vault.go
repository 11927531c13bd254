// Package liquidity holds the reserves and LP accounting behind a pool.
package liquidity

import (
	"flexPool/internal/fixedpoint"
	"flexPool/internal/model"
	"flexPool/internal/txn"
)

// Vault is the two-asset reserve a pool trades against.
type Vault interface {
	txn.Checkpointer

	// Contribute adds liquidity and returns the minted LP bucket and, when
	// the amounts were not in reserve proportion, the unused part.
	Contribute(a, b model.Bucket) (model.Bucket, *model.Bucket, error)
	// Redeem burns lp and returns the X and Y share it represents.
	Redeem(lp model.Bucket) (model.Bucket, model.Bucket, error)
	VaultAmounts() (x, y fixedpoint.Decimal)
	RedemptionValue(lp fixedpoint.Decimal) (x, y fixedpoint.Decimal, err error)
	ProtectedWithdraw(asset model.Asset, amount fixedpoint.Decimal, mode fixedpoint.RoundingMode) (model.Bucket, error)
	ProtectedDeposit(bucket model.Bucket) error
	TotalSupply() fixedpoint.Decimal
	LPAsset() model.Asset
}
