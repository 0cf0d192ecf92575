// Package quote implements the quote bounded context: market discovery,
// snapshot sourcing and the quote engine.
package quote

import (
	"context"

	authDI "github.com/fd1az/trading-sdk/business/auth/di"
	"github.com/fd1az/trading-sdk/business/quote/app"
	quoteDI "github.com/fd1az/trading-sdk/business/quote/di"
	"github.com/fd1az/trading-sdk/business/quote/domain"
	"github.com/fd1az/trading-sdk/business/quote/infra/api"
	"github.com/fd1az/trading-sdk/business/quote/infra/stream"
	"github.com/fd1az/trading-sdk/internal/asset"
	"github.com/fd1az/trading-sdk/internal/config"
	"github.com/fd1az/trading-sdk/internal/di"
	"github.com/fd1az/trading-sdk/internal/httpclient"
	"github.com/fd1az/trading-sdk/internal/logger"
	"github.com/fd1az/trading-sdk/internal/monolith"
)

// Module implements the quote bounded context. It depends on the auth
// module for bearer tokens.
type Module struct{}

// RegisterServices registers all quote services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, quoteDI.MarketClient, func(sr di.ServiceRegistry) *api.Client {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		client, err := api.NewClient(api.Config{
			BaseURL:           cfg.API.BaseURL,
			Timeout:           cfg.API.Timeout,
			RequestsPerMinute: cfg.API.RequestsPerMinute,
			CacheTTL:          cfg.API.CacheTTL,
			InvalidateToken:   tokenInvalidator(sr),
		}, tokenSource(sr), registry, log)
		if err != nil {
			panic("failed to create market client: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, quoteDI.Store, func(sr di.ServiceRegistry) *stream.Store {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		if !cfg.Stream.Enabled {
			return nil
		}

		streamCfg := stream.DefaultConfig(cfg.API.WebSocketURL, cfg.Stream.Markets)
		if cfg.Stream.StaleTimeout > 0 {
			streamCfg.StaleTimeout = cfg.Stream.StaleTimeout
		}
		if cfg.Stream.InitialBackoff > 0 {
			streamCfg.InitialBackoff = cfg.Stream.InitialBackoff
		}
		if cfg.Stream.MaxBackoff > 0 {
			streamCfg.MaxBackoff = cfg.Stream.MaxBackoff
		}
		streamCfg.MaxReconnects = cfg.Stream.MaxReconnects

		store, err := stream.NewStore(streamCfg, quoteDI.GetMarketClient(sr), tokenSource(sr), log)
		if err != nil {
			panic("failed to create stream store: " + err.Error())
		}
		return store
	})

	di.RegisterToken(c, quoteDI.MarketDataSource, func(sr di.ServiceRegistry) app.MarketDataSource {
		if store := quoteDI.GetStore(sr); store != nil {
			return store
		}
		return quoteDI.GetMarketClient(sr)
	})

	di.RegisterToken(c, quoteDI.QuoteService, func(sr di.ServiceRegistry) *app.QuoteService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		svc, err := app.NewQuoteService(quoteDI.GetMarketDataSource(sr), app.ServiceConfig{
			Composer: app.ComposerConfig{
				DefaultFeeRates: domain.FeeRates{
					Maker: cfg.Quote.DefaultMakerFeePips,
					Taker: cfg.Quote.DefaultTakerFeePips,
				},
			},
			Adapters: cfg.Quote.AdapterMap(),
		}, log)
		if err != nil {
			panic("failed to create quote service: " + err.Error())
		}
		return svc
	})

	return nil
}

// tokenInvalidator drops the auth module's cached session, or is nil
// alongside tokenSource.
func tokenInvalidator(sr di.ServiceRegistry) func() {
	if !sr.Has(authDI.AuthService.Name()) {
		return nil
	}
	if svc := authDI.GetAuthService(sr); svc != nil {
		return svc.Invalidate
	}
	return nil
}

// tokenSource returns the auth module's token source, or nil when there is
// no signer or no auth module.
func tokenSource(sr di.ServiceRegistry) httpclient.TokenSource {
	if !sr.Has(authDI.AuthService.Name()) {
		return nil
	}
	if svc := authDI.GetAuthService(sr); svc != nil {
		return svc.TokenSource()
	}
	return nil
}

// Startup initializes the quote module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	client := quoteDI.GetMarketClient(mono.Services())
	mono.AddCleanup(func() error {
		client.Close()
		return nil
	})

	if store := quoteDI.GetStore(mono.Services()); store != nil {
		mono.AddCleanup(store.Close)

		// Reads fall back to REST until the feed is up.
		go func() {
			if err := store.Start(ctx); err != nil {
				log.Warn(ctx, "stream did not connect", "error", err)
			}
		}()
	}

	log.Info(ctx, "quote module started", "streaming", mono.Config().Stream.Enabled)
	return nil
}
