package domain

import (
	"math/big"

	"github.com/fd1az/trading-sdk/internal/asset"
	"github.com/shopspring/decimal"
)

// Rounding selects how an average price is fitted to the quote asset's precision.
type Rounding int

const (
	RoundHalfUp Rounding = iota
	RoundDown
	RoundUp
)

// Every function below returns ok=false when the book cannot fill the request.
// That is the expected insufficient-liquidity outcome, not an error.

// BaseAmountToSellToGetQuoteAmount returns how much base must be sold into the
// bids to net at least quoteAmount after the taker fee. The last level is
// rounded up so the seller never falls short.
func BaseAmountToSellToGetQuoteAmount(quoteAmount *big.Int, m Market, book *OrderBook, fees FeeRates) (*big.Int, bool) {
	target := AdjustQuoteToIncludeFee(quoteAmount, fees.Taker)
	return baseForNotional(target, book.bids(m), m.Base.Decimals(), true)
}

// BaseAmountToGetForQuoteAmount returns how much base quoteAmount buys from the
// asks once the taker fee is taken out. The last level is rounded down so the
// buyer is never promised more than the funds cover.
func BaseAmountToGetForQuoteAmount(quoteAmount *big.Int, m Market, book *OrderBook, fees FeeRates) (*big.Int, bool) {
	target := AdjustQuoteToExcludeFee(quoteAmount, fees.Taker)
	return baseForNotional(target, book.asks(m), m.Base.Decimals(), false)
}

// QuoteAmountToGetFromSellingBaseAmount returns the net proceeds of selling
// baseAmount into the bids.
func QuoteAmountToGetFromSellingBaseAmount(baseAmount *big.Int, m Market, book *OrderBook, fees FeeRates) (*big.Int, bool) {
	gross, ok := notionalForBase(baseAmount, book.bids(m), m.Base.Decimals(), false)
	if !ok {
		return nil, false
	}
	return gross.Sub(gross, CalculateFee(gross, fees.Taker)), true
}

// QuoteAmountToSpendToBuyBaseAmount returns the total cost, fee included, of
// buying baseAmount from the asks. Per-level notionals round up.
func QuoteAmountToSpendToBuyBaseAmount(baseAmount *big.Int, m Market, book *OrderBook, fees FeeRates) (*big.Int, bool) {
	gross, ok := notionalForBase(baseAmount, book.asks(m), m.Base.Decimals(), true)
	if !ok {
		return nil, false
	}
	return gross.Add(gross, CalculateFee(gross, fees.Taker)), true
}

// GetMarketPriceForSell is the average net price for selling baseAmount,
// in human units rounded to the quote asset's precision.
func GetMarketPriceForSell(baseAmount *big.Int, m Market, book *OrderBook, fees FeeRates, r Rounding) (decimal.Decimal, bool) {
	quote, ok := QuoteAmountToGetFromSellingBaseAmount(baseAmount, m, book, fees)
	if !ok {
		return decimal.Zero, false
	}
	return averagePrice(quote, baseAmount, m, r)
}

// GetMarketPriceForBuy is the average net price paid when spending quoteAmount,
// in human units rounded to the quote asset's precision.
func GetMarketPriceForBuy(quoteAmount *big.Int, m Market, book *OrderBook, fees FeeRates, r Rounding) (decimal.Decimal, bool) {
	base, ok := BaseAmountToGetForQuoteAmount(quoteAmount, m, book, fees)
	if !ok {
		return decimal.Zero, false
	}
	return averagePrice(quoteAmount, base, m, r)
}

// baseForNotional consumes levels until target notional is reached.
func baseForNotional(target *big.Int, levels []scaledLevel, baseDecimals uint8, roundUp bool) (*big.Int, bool) {
	remaining := new(big.Int).Set(target)
	base := new(big.Int)

	for _, l := range levels {
		// target met is checked before running out of levels, so an exact
		// match with total depth resolves.
		if remaining.Sign() <= 0 {
			break
		}
		levelNotional := asset.CalculateNotional(l.price, l.size, baseDecimals)
		if levelNotional.Cmp(remaining) >= 0 {
			base.Add(base, asset.BaseAmountFromNotionalAndPrice(remaining, l.price, baseDecimals, roundUp))
			remaining.SetInt64(0)
			break
		}
		base.Add(base, l.size)
		remaining.Sub(remaining, levelNotional)
	}

	if remaining.Sign() > 0 {
		return nil, false
	}
	return base, true
}

// notionalForBase consumes baseAmount across levels and sums the notional.
func notionalForBase(baseAmount *big.Int, levels []scaledLevel, baseDecimals uint8, roundUp bool) (*big.Int, bool) {
	remaining := new(big.Int).Set(baseAmount)
	total := new(big.Int)

	for _, l := range levels {
		if remaining.Sign() <= 0 {
			break
		}
		take := l.size
		if remaining.Cmp(take) < 0 {
			take = remaining
		}
		n := asset.CalculateNotional(l.price, take, baseDecimals)
		if roundUp && !divides(l.price, take, baseDecimals) {
			n.Add(n, big.NewInt(1))
		}
		total.Add(total, n)
		remaining = new(big.Int).Sub(remaining, take)
	}

	if remaining.Sign() > 0 {
		return nil, false
	}
	return total, true
}

// divides reports whether price × size is an exact multiple of 10^decimals.
func divides(price, size *big.Int, decimals uint8) bool {
	p := new(big.Int).Mul(price, size)
	return p.Mod(p, asset.Pow10(decimals)).Sign() == 0
}

// averagePrice returns quote/base in human units at the quote precision.
func averagePrice(quote, base *big.Int, m Market, r Rounding) (decimal.Decimal, bool) {
	if base.Sign() <= 0 {
		return decimal.Zero, false
	}
	// quote units per whole base, exact up to the final division
	num := new(big.Int).Mul(quote, asset.Pow10(m.Base.Decimals()))
	q, rem := new(big.Int).DivMod(num, base, new(big.Int))

	switch r {
	case RoundDown:
	case RoundUp:
		if rem.Sign() != 0 {
			q.Add(q, big.NewInt(1))
		}
	default:
		if new(big.Int).Lsh(rem, 1).Cmp(base) >= 0 {
			q.Add(q, big.NewInt(1))
		}
	}
	return asset.BigIntToScaledDecimal(q, m.Quote.Decimals()), true
}
