package domain

import (
	"fmt"
	"math/big"
)

// AmmState is a closed set of liquidity models: *BondingCurveAmmState and
// *ConstantProductAmmState. The unexported method keeps other packages from
// adding variants; every switch below panics on an unknown one.
type AmmState interface {
	isAmmState()
}

// AmmKind names the variant, mostly for logs and metrics.
func AmmKind(s AmmState) string {
	switch s.(type) {
	case *BondingCurveAmmState:
		return "bonding_curve"
	case *ConstantProductAmmState:
		return "constant_product"
	default:
		panic(unknownAmmState(s))
	}
}

// MatchesMarketType reports whether s can price a market of type t.
func MatchesMarketType(s AmmState, t MarketType) bool {
	switch s.(type) {
	case *BondingCurveAmmState:
		return t == MarketTypeBondingCurve
	case *ConstantProductAmmState:
		return t == MarketTypeAmm
	default:
		panic(unknownAmmState(s))
	}
}

// AmmQuoteToBuy returns the cost, fee included, of buying baseAmount.
func AmmQuoteToBuy(s AmmState, baseAmount *big.Int) (*big.Int, bool) {
	switch st := s.(type) {
	case *BondingCurveAmmState:
		return BondingCurveQuoteToBuy(st, baseAmount)
	case *ConstantProductAmmState:
		return ConstantProductQuoteToBuy(st, baseAmount)
	default:
		panic(unknownAmmState(s))
	}
}

// AmmFillableBase returns how much of a buy for baseAmount the state can fill.
// Bonding curves clamp to their real reserves; pools fill all or nothing.
func AmmFillableBase(s AmmState, baseAmount *big.Int) *big.Int {
	switch st := s.(type) {
	case *BondingCurveAmmState:
		if st.RealBaseReserves == nil {
			return new(big.Int)
		}
		return minBig(baseAmount, st.RealBaseReserves)
	case *ConstantProductAmmState:
		return new(big.Int).Set(baseAmount)
	default:
		panic(unknownAmmState(s))
	}
}

// AmmQuoteFromSell returns the proceeds, net of fee, of selling baseAmount.
func AmmQuoteFromSell(s AmmState, baseAmount *big.Int) (*big.Int, bool) {
	switch st := s.(type) {
	case *BondingCurveAmmState:
		return BondingCurveQuoteFromSell(st, baseAmount)
	case *ConstantProductAmmState:
		return ConstantProductQuoteFromSell(st, baseAmount)
	default:
		panic(unknownAmmState(s))
	}
}

// AmmBaseForQuote returns the base that quoteAmount, fee included, buys.
func AmmBaseForQuote(s AmmState, quoteAmount *big.Int) (*big.Int, bool) {
	switch st := s.(type) {
	case *BondingCurveAmmState:
		return BondingCurveBaseForQuote(st, quoteAmount)
	case *ConstantProductAmmState:
		return ConstantProductBaseForQuote(st, quoteAmount)
	default:
		panic(unknownAmmState(s))
	}
}

// CloneAmmState deep-copies s so the copy can be handed out while the
// original stays in a shared snapshot.
func CloneAmmState(s AmmState) AmmState {
	switch st := s.(type) {
	case *BondingCurveAmmState:
		if st == nil {
			return st
		}
		c := *st
		c.VirtualBaseReserves = cloneBig(st.VirtualBaseReserves)
		c.VirtualQuoteReserves = cloneBig(st.VirtualQuoteReserves)
		c.RealBaseReserves = cloneBig(st.RealBaseReserves)
		return &c
	case *ConstantProductAmmState:
		if st == nil {
			return st
		}
		c := &ConstantProductAmmState{Pools: make([]LiquidityPoolState, len(st.Pools))}
		for i, p := range st.Pools {
			p.BaseLiquidity = cloneBig(p.BaseLiquidity)
			p.QuoteLiquidity = cloneBig(p.QuoteLiquidity)
			c.Pools[i] = p
		}
		return c
	default:
		panic(unknownAmmState(s))
	}
}

func cloneBig(x *big.Int) *big.Int {
	if x == nil {
		return nil
	}
	return new(big.Int).Set(x)
}

func unknownAmmState(s AmmState) string {
	return fmt.Sprintf("quote: unknown amm state %T", s)
}
