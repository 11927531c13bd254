package fixedpoint

import "cosmossdk.io/errors"

const codespace = "fixedpoint"

var (
	ErrInvalidDecimal      = errors.Register(codespace, 2, "invalid decimal")
	ErrPrecisionExceeded   = errors.Register(codespace, 3, "too many fractional digits")
	ErrInvalidDivisibility = errors.Register(codespace, 4, "divisibility must be between 0 and 18")
)
