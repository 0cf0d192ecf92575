package domain

import (
	"math/big"
	"time"

	"github.com/fd1az/trading-sdk/internal/asset"
	"github.com/shopspring/decimal"
)

// PriceLevel is one rung of the book in human units: price in quote per whole
// base, size in whole base.
type PriceLevel struct {
	Price string
	Size  decimal.Decimal
}

// LastTrade marks the most recent fill.
type LastTrade struct {
	Price     string
	Size      decimal.Decimal
	Side      Side
	Timestamp time.Time
}

// OrderBook is a snapshot replaced wholesale on every update.
//
// Buy holds bids best-first (highest price at index 0). Sell holds asks
// worst-first, so the best ask is the last element. Both sides are consumed
// best price first: bids from the front, asks from the back.
type OrderBook struct {
	Buy  []PriceLevel
	Sell []PriceLevel
	Last *LastTrade
}

// scaledLevel is a PriceLevel converted to fixed point.
type scaledLevel struct {
	price *big.Int // quote units per whole base
	size  *big.Int // base units
}

// scale converts a level, reporting false for unparsable or non-positive levels.
func (l PriceLevel) scale(baseDecimals, quoteDecimals uint8) (scaledLevel, bool) {
	p, err := decimal.NewFromString(l.Price)
	if err != nil || !p.IsPositive() || !l.Size.IsPositive() {
		return scaledLevel{}, false
	}
	price := asset.ScaledDecimalToBigInt(p, quoteDecimals, false)
	size := asset.ScaledDecimalToBigInt(l.Size, baseDecimals, false)
	if price.Sign() <= 0 || size.Sign() <= 0 {
		return scaledLevel{}, false
	}
	return scaledLevel{price: price, size: size}, true
}

// bids returns the usable bid levels, best first.
func (b *OrderBook) bids(m Market) []scaledLevel {
	if b == nil {
		return nil
	}
	out := make([]scaledLevel, 0, len(b.Buy))
	for _, l := range b.Buy {
		if s, ok := l.scale(m.Base.Decimals(), m.Quote.Decimals()); ok {
			out = append(out, s)
		}
	}
	return out
}

// asks returns the usable ask levels, best first.
func (b *OrderBook) asks(m Market) []scaledLevel {
	if b == nil {
		return nil
	}
	out := make([]scaledLevel, 0, len(b.Sell))
	for i := len(b.Sell) - 1; i >= 0; i-- {
		if s, ok := b.Sell[i].scale(m.Base.Decimals(), m.Quote.Decimals()); ok {
			out = append(out, s)
		}
	}
	return out
}

// BestBid returns the highest bid price, if any.
func (b *OrderBook) BestBid() (decimal.Decimal, bool) {
	if b == nil {
		return decimal.Zero, false
	}
	for _, l := range b.Buy {
		if p, err := decimal.NewFromString(l.Price); err == nil && p.IsPositive() && l.Size.IsPositive() {
			return p, true
		}
	}
	return decimal.Zero, false
}

// BestAsk returns the lowest ask price, if any.
func (b *OrderBook) BestAsk() (decimal.Decimal, bool) {
	if b == nil {
		return decimal.Zero, false
	}
	for i := len(b.Sell) - 1; i >= 0; i-- {
		l := b.Sell[i]
		if p, err := decimal.NewFromString(l.Price); err == nil && p.IsPositive() && l.Size.IsPositive() {
			return p, true
		}
	}
	return decimal.Zero, false
}

// Clone returns a deep copy so callers can hand out snapshots safely.
func (b *OrderBook) Clone() *OrderBook {
	if b == nil {
		return nil
	}
	out := &OrderBook{
		Buy:  append([]PriceLevel(nil), b.Buy...),
		Sell: append([]PriceLevel(nil), b.Sell...),
	}
	if b.Last != nil {
		last := *b.Last
		out.Last = &last
	}
	return out
}
