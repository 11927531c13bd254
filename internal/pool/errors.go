package pool

import "cosmossdk.io/errors"

const codespace = "pool"

var (
	// configuration
	ErrIdenticalAssets     = errors.Register(codespace, 2, "pool assets must differ")
	ErrShareOutOfRange     = errors.Register(codespace, 3, "asset share out of range")
	ErrFeeRateOutOfRange   = errors.Register(codespace, 4, "fee rate out of range")
	ErrInvalidDivisibility = errors.Register(codespace, 5, "invalid asset divisibility")
	ErrMissingDependency   = errors.Register(codespace, 6, "missing pool dependency")

	// operations
	ErrEmptyReserves         = errors.Register(codespace, 10, "pool reserves are empty")
	ErrForeignAsset          = errors.Register(codespace, 11, "asset does not belong to the pool")
	ErrWrongLoanAsset        = errors.Register(codespace, 12, "repayment asset differs from loan asset")
	ErrInsufficientRepayment = errors.Register(codespace, 13, "repayment below due amount")
	ErrUnknownLoanTicket     = errors.Register(codespace, 14, "unknown or already repaid loan ticket")
	ErrUnsettledLoan         = errors.Register(codespace, 15, "flash loan not repaid before commit")
	ErrInvalidPrice          = errors.Register(codespace, 16, "pool price is undefined")
	ErrTxClosed              = errors.Register(codespace, 17, "transaction already finished")
	ErrPublish               = errors.Register(codespace, 18, "publish events")
	ErrClock                 = errors.Register(codespace, 19, "read clock")
	ErrAmountPrecision       = errors.Register(codespace, 20, "amount finer than asset divisibility")
)
