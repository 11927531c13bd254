package model

import "cosmossdk.io/errors"

const codespace = "model"

var (
	ErrIdenticalAssets   = errors.Register(codespace, 2, "assets must differ")
	ErrInvalidAsset      = errors.Register(codespace, 3, "invalid asset address")
	ErrInsufficientFunds = errors.Register(codespace, 4, "insufficient funds in bucket")
	ErrNegativeAmount    = errors.Register(codespace, 5, "amount cannot be negative")
)
