package domain

import (
	"fmt"
	"math/big"

	"github.com/fd1az/trading-sdk/internal/apperror"
	"github.com/shopspring/decimal"
)

// FeeRatePipsMax is 100% expressed in pips.
const FeeRatePipsMax int64 = 1_000_000

var (
	pipsMaxBig = big.NewInt(FeeRatePipsMax)
	pipsMaxDec = decimal.NewFromInt(FeeRatePipsMax)
)

// FeeRatePipsFromDecimal converts a fractional rate to pips, flooring.
func FeeRatePipsFromDecimal(rate decimal.Decimal) int64 {
	return rate.Mul(pipsMaxDec).Floor().IntPart()
}

// CalculateFee returns floor(notional × pips / 1,000,000).
func CalculateFee(notional *big.Int, feeRatePips int64) *big.Int {
	fee := new(big.Int).Mul(notional, big.NewInt(feeRatePips))
	return fee.Div(fee, pipsMaxBig)
}

// CalculateFeeFromRate is CalculateFee for a fractional rate.
func CalculateFeeFromRate(notional *big.Int, rate decimal.Decimal) *big.Int {
	return CalculateFee(notional, FeeRatePipsFromDecimal(rate))
}

// AdjustQuoteToExcludeFee backs the fee out of a fee-inclusive amount:
// floor(n × 1,000,000 / (1,000,000 + pips)).
func AdjustQuoteToExcludeFee(notionalIncludingFee *big.Int, feeRatePips int64) *big.Int {
	if feeRatePips < 0 {
		panic(invalidFee(feeRatePips))
	}
	n := new(big.Int).Mul(notionalIncludingFee, pipsMaxBig)
	return n.Div(n, big.NewInt(FeeRatePipsMax+feeRatePips))
}

// AdjustQuoteToIncludeFee returns the gross amount that nets notional after
// the fee: floor(n × 1,000,000 / (1,000,000 − pips)).
// It panics when pips is outside [0, 1,000,000): that is misconfiguration, not
// a market condition.
func AdjustQuoteToIncludeFee(notional *big.Int, feeRatePips int64) *big.Int {
	if feeRatePips < 0 || feeRatePips >= FeeRatePipsMax {
		panic(invalidFee(feeRatePips))
	}
	n := new(big.Int).Mul(notional, pipsMaxBig)
	return n.Div(n, big.NewInt(FeeRatePipsMax-feeRatePips))
}

func invalidFee(pips int64) *apperror.AppError {
	if pips < 0 {
		return apperror.New(apperror.CodeInvalidFeeConfiguration,
			apperror.WithMessage("Fee rate must not be negative"),
			apperror.WithContext(fmt.Sprintf("negative fee rate %d pips", pips)))
	}
	return apperror.New(apperror.CodeInvalidFeeConfiguration,
		apperror.WithContext(fmt.Sprintf("fee rate %d pips", pips)))
}
