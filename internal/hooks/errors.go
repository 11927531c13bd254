package hooks

import "cosmossdk.io/errors"

const codespace = "hooks"

var (
	ErrHookMissingCall         = errors.Register(codespace, 2, "hook does not implement a declared call")
	ErrHookNotApproved         = errors.Register(codespace, 3, "hook origin is not approved")
	ErrRetentionBelowThreshold = errors.Register(codespace, 4, "hooks took more than the allowed share of the bucket")
	ErrAssetMismatch           = errors.Register(codespace, 5, "hooks returned a different asset")
	ErrNilHook                 = errors.Register(codespace, 6, "hook is nil")
)
