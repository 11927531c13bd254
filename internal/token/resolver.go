// Package token resolves the symbol and divisibility of pool assets, either
// from configuration or from ERC20 contracts over RPC.
package token

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"flexPool/internal/fixedpoint"
	"flexPool/internal/model"
)

// ErrUnknownToken is returned when no resolver knows an asset.
var ErrUnknownToken = errors.New("unknown token")

// Meta describes a fungible asset.
type Meta struct {
	Address      model.Asset `json:"address"`
	Symbol       string      `json:"symbol"`
	Name         string      `json:"name"`
	Decimals     uint8       `json:"decimals"`
	Divisibility uint8       `json:"divisibility"`
}

// NewMeta derives the divisibility from decimals, capped at 18.
func NewMeta(address model.Asset, symbol string, decimals uint8) Meta {
	div := decimals
	if div > fixedpoint.MaxDivisibility {
		div = fixedpoint.MaxDivisibility
	}
	return Meta{Address: address, Symbol: symbol, Decimals: decimals, Divisibility: div}
}

type Resolver interface {
	Resolve(ctx context.Context, asset model.Asset) (Meta, error)
}

// Cache stores resolved metadata by address.
type Cache struct {
	mu   sync.RWMutex
	data map[model.Asset]Meta
}

func NewCache() *Cache {
	return &Cache{data: make(map[model.Asset]Meta)}
}

func (c *Cache) Get(asset model.Asset) (Meta, bool) {
	c.mu.RLock()
	meta, ok := c.data[asset]
	c.mu.RUnlock()
	return meta, ok
}

func (c *Cache) Set(asset model.Asset, meta Meta) {
	c.mu.Lock()
	c.data[asset] = meta
	c.mu.Unlock()
}

// StaticResolver serves metadata from configuration.
type StaticResolver struct {
	cache *Cache
}

func NewStaticResolver(metas ...Meta) *StaticResolver {
	r := &StaticResolver{cache: NewCache()}
	for _, m := range metas {
		r.cache.Set(m.Address, m)
	}
	return r
}

func (r *StaticResolver) Resolve(_ context.Context, asset model.Asset) (Meta, error) {
	if meta, ok := r.cache.Get(asset); ok {
		return meta, nil
	}
	return Meta{}, fmt.Errorf("%w: %s", ErrUnknownToken, asset.Hex())
}

// Assets lists configured assets in address order.
func (r *StaticResolver) Assets() []model.Asset {
	r.cache.mu.RLock()
	defer r.cache.mu.RUnlock()
	out := make([]model.Asset, 0, len(r.cache.data))
	for a := range r.cache.data {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return model.CompareAssets(out[i], out[j]) < 0 })
	return out
}

// Chain tries resolvers in order and returns the first hit.
type Chain []Resolver

func (c Chain) Resolve(ctx context.Context, asset model.Asset) (Meta, error) {
	var errs []error
	for _, r := range c {
		if r == nil {
			continue
		}
		meta, err := r.Resolve(ctx, asset)
		if err == nil {
			return meta, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return Meta{}, fmt.Errorf("%w: %s", ErrUnknownToken, asset.Hex())
	}
	return Meta{}, errors.Join(errs...)
}
