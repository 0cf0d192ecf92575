package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// LiquidityPoolState is one constant-product pool. The fee is charged on top
// of the pool's quote delta and never enters the reserves.
type LiquidityPoolState struct {
	ID             string
	BaseLiquidity  *big.Int
	QuoteLiquidity *big.Int
	FeeRate        decimal.Decimal
}

func (p LiquidityPoolState) active() bool {
	return p.BaseLiquidity != nil && p.BaseLiquidity.Sign() > 0 &&
		p.QuoteLiquidity != nil && p.QuoteLiquidity.Sign() > 0
}

// ConstantProductAmmState is the set of parallel pools backing a market.
// A trade is routed whole to the single best pool.
type ConstantProductAmmState struct {
	Pools []LiquidityPoolState
}

func (*ConstantProductAmmState) isAmmState() {}

// PoolAdjustment is the effect of moving a pool's base reserves by a delta.
type PoolAdjustment struct {
	Pool              LiquidityPoolState
	NewBaseLiquidity  *big.Int
	NewQuoteLiquidity *big.Int
	QuoteDelta        *big.Int // newQuote − quote + 1; positive when base is removed
	Notional          *big.Int // |QuoteDelta|
	Fee               *big.Int
}

// EstimatePoolBaseLiquidityAdjustment applies baseDelta to the pool's base
// reserves and derives the quote side from the constant product. Negative
// deltas remove base (a buy), positive deltas add it (a sell).
func EstimatePoolBaseLiquidityAdjustment(pool LiquidityPoolState, baseDelta *big.Int) (PoolAdjustment, bool) {
	if !pool.active() {
		return PoolAdjustment{}, false
	}
	newBase := new(big.Int).Add(pool.BaseLiquidity, baseDelta)
	if newBase.Sign() <= 0 {
		return PoolAdjustment{}, false
	}

	newQuote := new(big.Int).Mul(pool.BaseLiquidity, pool.QuoteLiquidity)
	newQuote.Div(newQuote, newBase)
	if newQuote.Sign() == 0 {
		return PoolAdjustment{}, false
	}

	quoteDelta := new(big.Int).Sub(newQuote, pool.QuoteLiquidity)
	quoteDelta.Add(quoteDelta, big.NewInt(1))
	notional := new(big.Int).Abs(quoteDelta)

	return PoolAdjustment{
		Pool:              pool,
		NewBaseLiquidity:  newBase,
		NewQuoteLiquidity: newQuote,
		QuoteDelta:        quoteDelta,
		Notional:          notional,
		Fee:               CalculateFeeFromRate(notional, pool.FeeRate),
	}, true
}

// ConstantProductQuoteToBuy returns the cheapest total cost, fee included, of
// removing baseAmount from any single pool.
func ConstantProductQuoteToBuy(s *ConstantProductAmmState, baseAmount *big.Int) (*big.Int, bool) {
	if s == nil || baseAmount.Sign() <= 0 {
		return nil, false
	}
	delta := new(big.Int).Neg(baseAmount)

	var best *big.Int
	for _, pool := range s.Pools {
		adj, ok := EstimatePoolBaseLiquidityAdjustment(pool, delta)
		if !ok {
			continue
		}
		total := new(big.Int).Add(adj.Notional, adj.Fee)
		if best == nil || total.Cmp(best) < 0 {
			best = total
		}
	}
	return best, best != nil
}

// ConstantProductQuoteFromSell returns the largest proceeds, net of fee, from
// adding baseAmount to any single pool.
func ConstantProductQuoteFromSell(s *ConstantProductAmmState, baseAmount *big.Int) (*big.Int, bool) {
	if s == nil || baseAmount.Sign() <= 0 {
		return nil, false
	}

	var best *big.Int
	for _, pool := range s.Pools {
		adj, ok := EstimatePoolBaseLiquidityAdjustment(pool, baseAmount)
		if !ok {
			continue
		}
		net := new(big.Int).Sub(adj.Notional, adj.Fee)
		if best == nil || net.Cmp(best) > 0 {
			best = net
		}
	}
	if best == nil || best.Sign() <= 0 {
		return nil, false
	}
	return best, true
}

// ConstantProductBaseForQuote returns the most base quoteAmount (fee included)
// can buy from any single pool.
func ConstantProductBaseForQuote(s *ConstantProductAmmState, quoteAmount *big.Int) (*big.Int, bool) {
	if s == nil || quoteAmount.Sign() <= 0 {
		return nil, false
	}

	var best *big.Int
	for _, pool := range s.Pools {
		target := AdjustQuoteToExcludeFee(quoteAmount, FeeRatePipsFromDecimal(pool.FeeRate))
		b, ok := maxBaseForQuoteDelta(pool, target)
		if !ok {
			continue
		}
		if best == nil || b.Cmp(best) > 0 {
			best = b
		}
	}
	return best, best != nil
}

// maxBaseForQuoteDelta finds the largest base removal whose quote delta does
// not exceed target. Rounding and the +1 bias make the relation non-invertible,
// so the closed-form estimate only bounds a bisection.
func maxBaseForQuoteDelta(pool LiquidityPoolState, target *big.Int) (*big.Int, bool) {
	if !pool.active() || target.Sign() <= 0 {
		return nil, false
	}

	// Without rounding, removing b costs base×quote/(base−b) − quote, so the
	// answer cannot exceed base×T/(quote+T), nor base−1.
	estimate := new(big.Int).Mul(pool.BaseLiquidity, target)
	estimate.Div(estimate, new(big.Int).Add(pool.QuoteLiquidity, target))
	hi := minBig(estimate, new(big.Int).Sub(pool.BaseLiquidity, big.NewInt(1)))
	if hi.Sign() <= 0 {
		return nil, false
	}

	fits := func(b *big.Int) bool {
		adj, ok := EstimatePoolBaseLiquidityAdjustment(pool, new(big.Int).Neg(b))
		return ok && adj.QuoteDelta.Cmp(target) <= 0
	}
	if fits(hi) {
		return hi, true
	}

	// Invariant: lo fits (or is zero), hi does not. Each step halves hi − lo.
	lo := new(big.Int)
	mid := new(big.Int)
	one := big.NewInt(1)
	for new(big.Int).Sub(hi, lo).Cmp(one) > 0 {
		mid.Add(lo, hi).Rsh(mid, 1)
		if fits(mid) {
			lo.Set(mid)
		} else {
			hi.Set(mid)
		}
	}

	if lo.Sign() <= 0 {
		return nil, false
	}
	return lo, true
}
