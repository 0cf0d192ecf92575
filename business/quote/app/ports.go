// Package app contains the quote composer, the quote service and the ports
// they read market data through.
package app

import (
	"context"

	"github.com/fd1az/trading-sdk/business/quote/domain"
)

// MarketDataSource supplies the snapshots a quote is computed against.
// Implementations return copies; callers may hold them without locking.
type MarketDataSource interface {
	// GetMarket resolves a market descriptor by id.
	GetMarket(ctx context.Context, marketID string) (*domain.Market, error)

	// GetOrderBook returns the current book for a CLOB market.
	GetOrderBook(ctx context.Context, marketID string) (*domain.OrderBook, error)

	// GetAmmState returns the current liquidity state for an AMM or bonding-curve market.
	GetAmmState(ctx context.Context, marketID string) (domain.AmmState, error)

	// GetFeeRates returns the caller's maker/taker fees on a market.
	GetFeeRates(ctx context.Context, marketID string) (*domain.FeeRates, error)
}

// MarketLister is implemented by sources that can enumerate markets.
type MarketLister interface {
	ListMarkets(ctx context.Context) ([]domain.Market, error)
}
