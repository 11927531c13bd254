package registry

import "cosmossdk.io/errors"

const codespace = "registry"

var (
	ErrInvalidConfig = errors.Register(codespace, 2, "invalid registry config")
	ErrClock         = errors.Register(codespace, 3, "registry clock unavailable")
)
