package asset

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// pow10Cache holds 10^n for the decimal counts assets actually use.
var pow10Cache = func() [37]*big.Int {
	var out [37]*big.Int
	ten := big.NewInt(10)
	out[0] = big.NewInt(1)
	for i := 1; i < len(out); i++ {
		out[i] = new(big.Int).Mul(out[i-1], ten)
	}
	return out
}()

// Pow10 returns 10^n. The result must not be mutated.
func Pow10(n uint8) *big.Int {
	if int(n) < len(pow10Cache) {
		return pow10Cache[n]
	}
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// BigIntToScaledDecimal returns amount / 10^decimals. The conversion is exact.
func BigIntToScaledDecimal(amount *big.Int, decimals uint8) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -int32(decimals))
}

// ScaledDecimalToBigInt returns value × 10^decimals as an integer.
// With round=false the fractional part is truncated toward zero; with round=true
// it is rounded to the nearest integer, halves away from zero.
func ScaledDecimalToBigInt(value decimal.Decimal, decimals uint8, round bool) *big.Int {
	shifted := value.Shift(int32(decimals))
	if round {
		return shifted.Round(0).BigInt()
	}
	return shifted.Truncate(0).BigInt()
}

// CalculateNotional returns floor(price × baseAmount / 10^baseDecimals).
// price is the quote-scaled price of one whole base unit.
func CalculateNotional(price, baseAmount *big.Int, baseDecimals uint8) *big.Int {
	n := new(big.Int).Mul(price, baseAmount)
	return n.Div(n, Pow10(baseDecimals))
}

// BaseAmountFromNotionalAndPrice returns notional × 10^baseDecimals / price,
// rounded down or up. price must be positive.
func BaseAmountFromNotionalAndPrice(notional, price *big.Int, baseDecimals uint8, roundUp bool) *big.Int {
	n := new(big.Int).Mul(notional, Pow10(baseDecimals))
	q, m := new(big.Int).DivMod(n, price, new(big.Int))
	if roundUp && m.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}
