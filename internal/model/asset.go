package model

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	"github.com/zeebo/blake3"
)

// Asset identifies a fungible resource.
type Asset = common.Address

// PoolID identifies a pool instance.
type PoolID = common.Address

// CompareAssets orders assets by their raw bytes.
func CompareAssets(a, b Asset) int {
	return bytes.Compare(a.Bytes(), b.Bytes())
}

// SortAssets returns the pair in canonical (X, Y) order.
func SortAssets(a, b Asset) (Asset, Asset, error) {
	switch CompareAssets(a, b) {
	case 0:
		return Asset{}, Asset{}, ErrIdenticalAssets.Wrapf("%s", a.Hex())
	case -1:
		return a, b, nil
	default:
		return b, a, nil
	}
}

// ParseAsset parses a hex address.
func ParseAsset(s string) (Asset, error) {
	if !common.IsHexAddress(s) {
		return Asset{}, ErrInvalidAsset.Wrapf("%q", s)
	}
	return common.HexToAddress(s), nil
}

// DeriveAddress hashes a domain tag and parts into a stable address.
func DeriveAddress(tag string, parts ...[]byte) common.Address {
	h := blake3.New()
	_, _ = h.Write([]byte(tag))
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	sum := h.Sum(nil)
	return common.BytesToAddress(sum[len(sum)-common.AddressLength:])
}
