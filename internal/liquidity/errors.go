package liquidity

import "cosmossdk.io/errors"

const codespace = "liquidity"

var (
	ErrWrongLPAsset         = errors.Register(codespace, 2, "bucket does not hold the pool lp asset")
	ErrInsufficientReserves = errors.Register(codespace, 3, "insufficient reserves")
	ErrEmptyContribution    = errors.Register(codespace, 4, "contribution mints no liquidity")
	ErrForeignAsset         = errors.Register(codespace, 5, "asset does not belong to the pool")
	ErrInsufficientSupply   = errors.Register(codespace, 6, "redeemed amount exceeds lp supply")
)
