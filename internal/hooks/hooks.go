// Package hooks runs externally supplied code around pool instantiation and
// swaps. Hooks are called in registration order and each receives the state
// returned by the previous one.
package hooks

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"flexPool/internal/model"
)

// Call names a pool event a hook can subscribe to.
type Call int

const (
	BeforeInstantiate Call = iota
	AfterInstantiate
	BeforeSwap
	AfterSwap
)

func (c Call) String() string {
	switch c {
	case BeforeInstantiate:
		return "before_instantiate"
	case AfterInstantiate:
		return "after_instantiate"
	case BeforeSwap:
		return "before_swap"
	case AfterSwap:
		return "after_swap"
	default:
		return fmt.Sprintf("call(%d)", int(c))
	}
}

// Key identifies a hook by the origin that published it and its name.
type Key struct {
	Origin common.Address
	Name   string
}

func (k Key) String() string {
	return k.Origin.Hex() + "/" + k.Name
}

// Badge is the credential a pool presents to a hook on every call.
type Badge uuid.UUID

func NewBadge() Badge {
	return Badge(uuid.New())
}

func (b Badge) String() string {
	return uuid.UUID(b).String()
}

// Hook declares the calls it wants. For each declared call it must also
// implement the matching interface below.
type Hook interface {
	Calls() []Call
}

type BeforeInstantiateHook interface {
	BeforeInstantiate(ctx context.Context, badge Badge, state BeforeInstantiateState) (BeforeInstantiateState, error)
}

type AfterInstantiateHook interface {
	AfterInstantiate(ctx context.Context, badge Badge, state AfterInstantiateState) (AfterInstantiateState, error)
}

type BeforeSwapHook interface {
	BeforeSwap(ctx context.Context, badge Badge, state BeforeSwapState, input model.Bucket) (BeforeSwapState, model.Bucket, error)
}

type AfterSwapHook interface {
	AfterSwap(ctx context.Context, badge Badge, state AfterSwapState, output model.Bucket) (AfterSwapState, model.Bucket, error)
}

// Registration binds a hook to its key and badge.
type Registration struct {
	Key   Key
	Hook  Hook
	Badge Badge
}

// NewRegistration issues a fresh badge for hook.
func NewRegistration(origin common.Address, name string, hook Hook) Registration {
	return Registration{Key: Key{Origin: origin, Name: name}, Hook: hook, Badge: NewBadge()}
}

func implements(h Hook, c Call) bool {
	switch c {
	case BeforeInstantiate:
		_, ok := h.(BeforeInstantiateHook)
		return ok
	case AfterInstantiate:
		_, ok := h.(AfterInstantiateHook)
		return ok
	case BeforeSwap:
		_, ok := h.(BeforeSwapHook)
		return ok
	case AfterSwap:
		_, ok := h.(AfterSwapHook)
		return ok
	}
	return false
}
