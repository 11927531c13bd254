package model

// SwapType tells whether a swap sells or buys the X asset.
type SwapType int

const (
	BuyX SwapType = iota
	SellX
)

func (s SwapType) String() string {
	if s == SellX {
		return "sell_x"
	}
	return "buy_x"
}

func (s SwapType) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
