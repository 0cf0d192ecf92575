package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// GraduationStatus tracks a curve's migration to full AMM trading.
type GraduationStatus string

const (
	GraduationStatusActive     GraduationStatus = "Active"
	GraduationStatusGraduating GraduationStatus = "Graduating"
	GraduationStatusGraduated  GraduationStatus = "Graduated"
)

// BondingCurveAmmState is a virtual-reserve constant-product curve. Buys are
// capped by RealBaseReserves, the base actually held by the curve.
type BondingCurveAmmState struct {
	VirtualBaseReserves  *big.Int
	VirtualQuoteReserves *big.Int
	RealBaseReserves     *big.Int
	FeeRate              decimal.Decimal
	GraduationStatus     GraduationStatus
}

func (*BondingCurveAmmState) isAmmState() {}

// Tradable reports whether the curve can be priced at all.
func (s *BondingCurveAmmState) Tradable() bool {
	return s != nil &&
		s.GraduationStatus != GraduationStatusGraduated &&
		s.VirtualBaseReserves != nil && s.VirtualBaseReserves.Sign() > 0 &&
		s.VirtualQuoteReserves != nil && s.VirtualQuoteReserves.Sign() > 0 &&
		s.RealBaseReserves != nil && s.RealBaseReserves.Sign() >= 0
}

// BondingCurveCost prices a signed base delta against the curve:
// |Δ| × vQ / (vB − Δ) + 1. Positive Δ buys base out of the curve, negative Δ
// sells into it. The +1 applies even when the division is exact.
func BondingCurveCost(s *BondingCurveAmmState, delta *big.Int) (*big.Int, bool) {
	denom := new(big.Int).Sub(s.VirtualBaseReserves, delta)
	if denom.Sign() <= 0 {
		return nil, false
	}
	cost := new(big.Int).Abs(delta)
	cost.Mul(cost, s.VirtualQuoteReserves)
	cost.Div(cost, denom)
	return cost.Add(cost, big.NewInt(1)), true
}

// BondingCurveQuoteToBuy returns the cost including fee of buying baseAmount,
// after clamping it to the real reserves.
func BondingCurveQuoteToBuy(s *BondingCurveAmmState, baseAmount *big.Int) (*big.Int, bool) {
	if !s.Tradable() {
		return nil, false
	}
	delta := minBig(baseAmount, s.RealBaseReserves)
	if delta.Sign() <= 0 {
		return nil, false
	}
	cost, ok := BondingCurveCost(s, delta)
	if !ok {
		return nil, false
	}
	return cost.Add(cost, CalculateFeeFromRate(cost, s.FeeRate)), true
}

// BondingCurveQuoteFromSell returns the proceeds net of fee for selling baseAmount.
func BondingCurveQuoteFromSell(s *BondingCurveAmmState, baseAmount *big.Int) (*big.Int, bool) {
	if !s.Tradable() || baseAmount.Sign() <= 0 {
		return nil, false
	}
	proceeds, ok := BondingCurveCost(s, new(big.Int).Neg(baseAmount))
	if !ok {
		return nil, false
	}
	return proceeds.Sub(proceeds, CalculateFeeFromRate(proceeds, s.FeeRate)), true
}

// BondingCurveBaseForQuote returns the base that quoteAmount (fee included) buys,
// solving vQ × vB = (vQ + q) × newBase in closed form and clamping to the real reserves.
func BondingCurveBaseForQuote(s *BondingCurveAmmState, quoteAmount *big.Int) (*big.Int, bool) {
	if !s.Tradable() {
		return nil, false
	}
	q := AdjustQuoteToExcludeFee(quoteAmount, FeeRatePipsFromDecimal(s.FeeRate))
	if q.Sign() <= 0 {
		return nil, false
	}

	k := new(big.Int).Mul(s.VirtualQuoteReserves, s.VirtualBaseReserves)
	newBase := k.Div(k, new(big.Int).Add(s.VirtualQuoteReserves, q))

	delta := new(big.Int).Sub(s.VirtualBaseReserves, newBase)
	delta = minBig(delta, s.RealBaseReserves)
	if delta.Sign() <= 0 {
		return nil, false
	}
	return delta, true
}

func minBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}
