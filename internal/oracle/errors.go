package oracle

import "cosmossdk.io/errors"

const codespace = "oracle"

var (
	ErrObservationOutOfRange = errors.Register(codespace, 2, "observation timestamp out of range")
	ErrInvalidInterval       = errors.Register(codespace, 3, "interval end must be after start")
	ErrClockRegression       = errors.Register(codespace, 4, "clock moved backwards")
	ErrInvalidPrice          = errors.Register(codespace, 5, "price sqrt must be positive")
	ErrInvalidCapacity       = errors.Register(codespace, 6, "oracle capacity must be positive")
)
