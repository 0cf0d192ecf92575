// Package di contains dependency injection tokens for the quote context.
package di

import (
	"github.com/fd1az/trading-sdk/business/quote/app"
	"github.com/fd1az/trading-sdk/business/quote/infra/api"
	"github.com/fd1az/trading-sdk/business/quote/infra/stream"
	"github.com/fd1az/trading-sdk/internal/di"
)

// Public service tokens - exposed to other modules
var (
	QuoteService = di.NewToken[*app.QuoteService]("quote.QuoteService")
	MarketClient = di.NewToken[*api.Client]("quote.MarketClient")
)

// Private dependency tokens - internal to quote module
var (
	// Store resolves to nil when streaming is disabled.
	Store            = di.NewToken[*stream.Store]("quote:store")
	MarketDataSource = di.NewToken[app.MarketDataSource]("quote:marketDataSource")
)

// Helper functions for type-safe access
func GetQuoteService(c di.ServiceRegistry) *app.QuoteService {
	return di.GetToken(c, QuoteService)
}

func GetMarketClient(c di.ServiceRegistry) *api.Client {
	return di.GetToken(c, MarketClient)
}

func GetStore(c di.ServiceRegistry) *stream.Store {
	return di.GetToken(c, Store)
}

func GetMarketDataSource(c di.ServiceRegistry) app.MarketDataSource {
	return di.GetToken(c, MarketDataSource)
}
