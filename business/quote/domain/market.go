// Package domain contains the quote engine: fee arithmetic, order-book walking,
// AMM pricing and the value types they share. Everything here is pure; callers
// pass a consistent snapshot per call and no state survives between calls.
package domain

import (
	"fmt"
	"math/big"

	"github.com/fd1az/trading-sdk/internal/asset"
	"github.com/shopspring/decimal"
)

// MarketType selects which liquidity mechanism prices a market.
type MarketType string

const (
	MarketTypeClob         MarketType = "Clob"
	MarketTypeBondingCurve MarketType = "BondingCurve"
	MarketTypeAmm          MarketType = "Amm"
)

// Valid reports whether t is a known market type.
func (t MarketType) Valid() bool {
	switch t {
	case MarketTypeClob, MarketTypeBondingCurve, MarketTypeAmm:
		return true
	default:
		return false
	}
}

// Side is the taker's direction relative to the market's base asset.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Market pairs a base and quote asset with the mechanism that prices it.
type Market struct {
	ID       string
	Base     *asset.Asset
	Quote    *asset.Asset
	Type     MarketType
	FeeRate  decimal.Decimal // taker fee as a fraction, informational for CLOB markets
	MinFee   *big.Int        // quote units
	TickSize decimal.Decimal
}

// Symbol returns e.g. "BTC-USDC".
func (m Market) Symbol() string {
	if m.Base == nil || m.Quote == nil {
		return m.ID
	}
	return m.Base.Symbol() + "-" + m.Quote.Symbol()
}

// Validate checks the fields every engine relies on.
func (m Market) Validate() error {
	if m.Base == nil || m.Quote == nil {
		return fmt.Errorf("market %q: base and quote assets are required", m.ID)
	}
	if !m.Type.Valid() {
		return fmt.Errorf("market %q: unknown type %q", m.ID, m.Type)
	}
	if m.FeeRate.IsNegative() || m.FeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("market %q: fee rate %s out of range", m.ID, m.FeeRate)
	}
	return nil
}

// FeeRates holds maker and taker fees in pips (1,000,000 = 100%).
type FeeRates struct {
	Maker int64
	Taker int64
}

// Validate checks both rates are in [0, FeeRatePipsMax).
func (f FeeRates) Validate() error {
	if f.Maker < 0 || f.Maker >= FeeRatePipsMax {
		return fmt.Errorf("maker fee %d pips out of range", f.Maker)
	}
	if f.Taker < 0 || f.Taker >= FeeRatePipsMax {
		return fmt.Errorf("taker fee %d pips out of range", f.Taker)
	}
	return nil
}
