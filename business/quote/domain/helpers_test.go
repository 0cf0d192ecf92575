package domain

import (
	"math/big"
	"testing"

	"github.com/fd1az/trading-sdk/internal/asset"
	"github.com/shopspring/decimal"
)

func bi(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad big.Int literal " + s)
	}
	return n
}

func btcUsdc() Market {
	return Market{
		ID:    "BTC-USDC",
		Base:  asset.BTC,
		Quote: asset.USDC,
		Type:  MarketTypeClob,
	}
}

func level(price, size string) PriceLevel {
	return PriceLevel{Price: price, Size: decimal.RequireFromString(size)}
}

// twoLevelBook has bids at 60000 x 0.5 and 59900 x 1, asks at 60100 x 0.5 and
// 60300 x 1. Asks are stored worst-first.
func twoLevelBook() *OrderBook {
	return &OrderBook{
		Buy:  []PriceLevel{level("60000", "0.5"), level("59900", "1")},
		Sell: []PriceLevel{level("60300", "1"), level("60100", "0.5")},
	}
}

func assertBig(t *testing.T, name string, got *big.Int, ok bool, want string) {
	t.Helper()
	if want == "" {
		if ok {
			t.Errorf("%s = %s, want none", name, got)
		}
		return
	}
	if !ok {
		t.Fatalf("%s: got none, want %s", name, want)
	}
	if got.Cmp(bi(want)) != 0 {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}
