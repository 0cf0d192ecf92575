package app

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/trading-sdk/business/quote/domain"
	"github.com/fd1az/trading-sdk/internal/apperror"
	"github.com/fd1az/trading-sdk/internal/asset"
	"github.com/fd1az/trading-sdk/internal/logger"
)

const (
	tracerName = "quote"
	meterName  = "quote"
)

// QuoteOptions tune a single QuoteService call.
type QuoteOptions struct {
	// AdapterMarketID routes through this order-book market, overriding config.
	AdapterMarketID string
	// Direct skips any configured adapter.
	Direct bool
}

// ServiceConfig wires the quote service.
type ServiceConfig struct {
	Composer ComposerConfig
	// Adapters maps a primary market id to the adapter market used by default.
	Adapters map[string]string
}

type serviceMetrics struct {
	quotesTotal  metric.Int64Counter
	quoteLatency metric.Float64Histogram
}

// QuoteService fetches a consistent snapshot and hands it to the Composer.
type QuoteService struct {
	source   MarketDataSource
	composer *Composer
	adapters map[string]string
	logger   logger.LoggerInterface

	tracer  trace.Tracer
	metrics *serviceMetrics
}

// NewQuoteService creates a QuoteService reading from source.
func NewQuoteService(source MarketDataSource, cfg ServiceConfig, log logger.LoggerInterface) (*QuoteService, error) {
	adapters := make(map[string]string, len(cfg.Adapters))
	for k, v := range cfg.Adapters {
		adapters[k] = v
	}

	s := &QuoteService{
		source:   source,
		composer: NewComposer(cfg.Composer, log),
		adapters: adapters,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}
	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return s, nil
}

func (s *QuoteService) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &serviceMetrics{}

	s.metrics.quotesTotal, err = meter.Int64Counter(
		"quotes_total",
		metric.WithDescription("Total quote requests by side, market type and result"),
	)
	if err != nil {
		return err
	}

	s.metrics.quoteLatency, err = meter.Float64Histogram(
		"quote_latency_ms",
		metric.WithDescription("Quote latency including snapshot fetch in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Composer exposes the underlying composer for callers that bring their own snapshots.
func (s *QuoteService) Composer() *Composer {
	return s.composer
}

// Quote prices amount on marketID. amount is base for buy and sell, and
// quote (or adapter base) for inverse.
func (s *QuoteService) Quote(ctx context.Context, marketID string, kind Kind, amount *big.Int, opts QuoteOptions) (*domain.Quote, error) {
	ctx, span := s.tracer.Start(ctx, "quote.quote",
		trace.WithAttributes(
			attribute.String("market", marketID),
			attribute.String("side", string(kind)),
			attribute.String("amount", amount.String()),
		),
	)
	defer span.End()

	start := time.Now()
	marketType := "unknown"
	result := "ok"
	defer func() {
		attrs := metric.WithAttributes(
			attribute.String("side", string(kind)),
			attribute.String("market_type", marketType),
			attribute.String("result", result),
		)
		s.metrics.quotesTotal.Add(ctx, 1, attrs)
		s.metrics.quoteLatency.Record(ctx, millis(time.Since(start)), attrs)
	}()

	req, err := s.snapshot(ctx, marketID, opts)
	if err != nil {
		result = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot failed")
		return nil, err
	}
	req.Amount = amount
	marketType = string(req.Market.Type)

	q, err := s.composer.Quote(ctx, kind, req)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientLiquidity) {
			result = "insufficient_liquidity"
			span.SetStatus(codes.Error, "insufficient liquidity")
		} else {
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, "quote failed")
		}
		return nil, err
	}

	span.SetAttributes(
		attribute.String("quote", q.Quote.String()),
		attribute.StringSlice("route", q.Route),
	)
	span.SetStatus(codes.Ok, "quote computed")

	s.logger.Debug(ctx, "quote computed",
		"market", marketID,
		"side", string(kind),
		"amount", q.Amount.String(),
		"quote", q.Quote.String(),
		"route", q.Route,
	)
	return q, nil
}

// InputAsset resolves the asset a Quote amount is denominated in, so callers
// can parse human amounts: base for buy and sell, quote or adapter base for
// inverse.
func (s *QuoteService) InputAsset(ctx context.Context, marketID string, kind Kind, opts QuoteOptions) (*asset.Asset, error) {
	m, err := s.source.GetMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if kind != KindInverse {
		return m.Base, nil
	}

	adapterID := opts.AdapterMarketID
	if adapterID == "" && !opts.Direct {
		adapterID = s.adapters[marketID]
	}
	if adapterID == "" {
		return m.Quote, nil
	}
	a, err := s.source.GetMarket(ctx, adapterID)
	if err != nil {
		return nil, err
	}
	return a.Base, nil
}

// snapshot fetches everything one quote needs. The primary market and the
// adapter are fetched concurrently.
func (s *QuoteService) snapshot(ctx context.Context, marketID string, opts QuoteOptions) (QuoteRequest, error) {
	var req QuoteRequest

	adapterID := opts.AdapterMarketID
	if adapterID == "" && !opts.Direct {
		adapterID = s.adapters[marketID]
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.source.GetMarket(gctx, marketID)
		if err != nil {
			return err
		}
		req.Market = *m

		switch m.Type {
		case domain.MarketTypeClob:
			book, fees, err := s.bookAndFees(gctx, marketID)
			if err != nil {
				return err
			}
			req.OrderBook, req.FeeRates = book, fees
		case domain.MarketTypeBondingCurve, domain.MarketTypeAmm:
			st, err := s.source.GetAmmState(gctx, marketID)
			if err != nil {
				return err
			}
			req.AmmState = st
		default:
			return apperror.Validation(apperror.CodeUnsupportedMarketType, string(m.Type))
		}
		return nil
	})

	if adapterID != "" {
		g.Go(func() error {
			m, err := s.source.GetMarket(gctx, adapterID)
			if err != nil {
				return err
			}
			book, fees, err := s.bookAndFees(gctx, adapterID)
			if err != nil {
				return err
			}
			req.Adapter = &AdapterMarketState{Market: *m, OrderBook: book, FeeRates: fees}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return QuoteRequest{}, err
	}
	return req, nil
}

func (s *QuoteService) bookAndFees(ctx context.Context, marketID string) (*domain.OrderBook, *domain.FeeRates, error) {
	book, err := s.source.GetOrderBook(ctx, marketID)
	if err != nil {
		return nil, nil, err
	}
	fees, err := s.source.GetFeeRates(ctx, marketID)
	if err != nil {
		// fall back to the configured defaults
		s.logger.Warn(ctx, "fee rates unavailable, using defaults", "market", marketID, "error", err)
		return book, nil, nil
	}
	return book, fees, nil
}

// millis converts d to fractional milliseconds, keeping microseconds.
func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
