// Package api is the REST client for market discovery and market data
// snapshots. It implements the quote service's MarketDataSource.
package api

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/trading-sdk/business/quote/app"
	"github.com/fd1az/trading-sdk/business/quote/domain"
	"github.com/fd1az/trading-sdk/internal/apperror"
	"github.com/fd1az/trading-sdk/internal/asset"
	"github.com/fd1az/trading-sdk/internal/circuitbreaker"
	"github.com/fd1az/trading-sdk/internal/httpclient"
	"github.com/fd1az/trading-sdk/internal/logger"
	"github.com/fd1az/trading-sdk/internal/ratelimit"
)

var (
	_ app.MarketDataSource = (*Client)(nil)
	_ app.MarketLister     = (*Client)(nil)
)

const (
	tracerName = "quote.api"

	defaultTimeout = 10 * time.Second

	// RequestIDHeader correlates a call with backend logs.
	RequestIDHeader = "X-Request-ID"
)

// Config holds REST client settings.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int           // <= 0 disables limiting
	CacheTTL          time.Duration // market descriptors; 0 disables caching
	Breaker           *circuitbreaker.Config

	// InvalidateToken drops the cached session token. When set, an
	// authenticated call answered with 401 or 403 is retried once.
	InvalidateToken func()
}

// Client talks to the trading backend's market endpoints.
type Client struct {
	http     httpclient.Client
	limiter  *ratelimit.Limiter
	breaker  *circuitbreaker.CircuitBreaker[*httpclient.Response]
	markets    *ttlcache.Cache[string, domain.Market]
	closeOnce  sync.Once
	invalidate func()
	registry   *asset.Registry
	logger   logger.LoggerInterface
	tracer   trace.Tracer
}

// NewClient builds a client. tokens may be nil when only public endpoints
// are used; GetFeeRates needs it.
func NewClient(cfg Config, tokens httpclient.TokenSource, registry *asset.Registry, log logger.LoggerInterface, opts ...httpclient.ClientOption) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("api: base url is required"))
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	if registry == nil {
		registry = asset.DefaultRegistry()
	}

	tracer := otel.Tracer(tracerName)

	clientOpts := []httpclient.ClientOption{
		httpclient.WithProviderName("trading-api"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithTraceOptions(tracer),
	}
	if tokens != nil {
		clientOpts = append(clientOpts, httpclient.WithTokenSource(tokens))
	}
	hc, err := httpclient.NewInstrumentedClient(append(clientOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	breakerCfg := circuitbreaker.DefaultConfig("trading-api")
	if cfg.Breaker != nil {
		breakerCfg = *cfg.Breaker
	}
	breakerCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit breaker state changed",
			"breaker", name,
			"from", from.String(),
			"to", to.String())
	}

	c := &Client{
		http:       hc,
		limiter:    ratelimit.New(cfg.RequestsPerMinute),
		breaker:    circuitbreaker.New[*httpclient.Response](breakerCfg),
		invalidate: cfg.InvalidateToken,
		registry:   registry,
		logger:     log,
		tracer:     tracer,
	}
	if cfg.CacheTTL > 0 {
		c.markets = ttlcache.New[string, domain.Market](
			ttlcache.WithTTL[string, domain.Market](cfg.CacheTTL),
			ttlcache.WithDisableTouchOnHit[string, domain.Market](),
		)
		go c.markets.Start()
	}
	return c, nil
}

// Close stops the market cache's expiry loop. It is idempotent.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		if c.markets != nil {
			c.markets.Stop()
		}
	})
}

// Registry returns the asset registry markets are resolved against.
func (c *Client) Registry() *asset.Registry {
	return c.registry
}

// BreakerState reports the circuit breaker state, for health checks.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// get runs one GET through the limiter and breaker and returns the raw body.
func (c *Client) get(ctx context.Context, endpoint, path string, auth bool) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	opts := []httpclient.RequestOption{
		httpclient.WithLabels(httpclient.NewLabel("endpoint", endpoint)),
	}
	if !auth {
		opts = append(opts, httpclient.WithoutAuth())
	}

	resp, err := c.do(ctx, path, opts)
	if err != nil && auth && c.invalidate != nil && apperror.GetCode(err) == apperror.CodeAPIUnauthorized {
		// The cached session was rejected; log in again on the retry.
		c.logger.Warn(ctx, "session token rejected, re-authenticating", "endpoint", endpoint)
		c.invalidate()
		if err = c.limiter.Wait(ctx); err == nil {
			resp, err = c.do(ctx, path, opts)
		}
	}
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

func (c *Client) do(ctx context.Context, path string, opts []httpclient.RequestOption) (*httpclient.Response, error) {
	return c.breaker.Execute(func() (*httpclient.Response, error) {
		return c.http.NewRequest(opts...).
			SetHeader(RequestIDHeader, uuid.NewString()).
			Get(ctx, path)
	})
}

func marketPath(marketID string, suffix string) string {
	p := "/markets/" + url.PathEscape(marketID)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}

// notFound maps a 404 on a market path to MARKET_NOT_FOUND.
func notFound(err error, marketID string) error {
	if apperror.GetCode(err) == apperror.CodeNotFound {
		return apperror.New(apperror.CodeMarketNotFound, apperror.WithCause(err), apperror.WithContext(marketID))
	}
	return err
}

func (c *Client) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// ListMarkets returns every market the backend lists. Descriptors are cached.
func (c *Client) ListMarkets(ctx context.Context) ([]domain.Market, error) {
	ctx, span := c.tracer.Start(ctx, "api.list_markets")
	defer span.End()

	body, err := c.get(ctx, "markets", "/markets", false)
	if err != nil {
		return nil, c.fail(span, err)
	}

	var resp MarketsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, c.fail(span, apperror.New(apperror.CodeInvalidResponse, apperror.WithCause(err), apperror.WithContext("markets")))
	}

	markets := make([]domain.Market, 0, len(resp.Markets))
	for _, dto := range resp.Markets {
		m, err := dto.ToDomain(c.registry)
		if err != nil {
			// One bad descriptor should not hide the rest.
			c.logger.Warn(ctx, "skipping invalid market", "market", dto.ID, "error", err)
			continue
		}
		c.remember(m)
		markets = append(markets, m)
	}

	span.SetAttributes(attribute.Int("markets", len(markets)))
	return markets, nil
}

// GetMarket resolves one market descriptor.
func (c *Client) GetMarket(ctx context.Context, marketID string) (*domain.Market, error) {
	if c.markets != nil {
		if item := c.markets.Get(marketID); item != nil {
			m := item.Value()
			return &m, nil
		}
	}

	ctx, span := c.tracer.Start(ctx, "api.get_market", trace.WithAttributes(attribute.String("market", marketID)))
	defer span.End()

	body, err := c.get(ctx, "market", marketPath(marketID, ""), false)
	if err != nil {
		return nil, c.fail(span, notFound(err, marketID))
	}

	var dto MarketDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, c.fail(span, apperror.New(apperror.CodeInvalidResponse, apperror.WithCause(err), apperror.WithContext(marketID)))
	}
	m, err := dto.ToDomain(c.registry)
	if err != nil {
		return nil, c.fail(span, apperror.New(apperror.CodeInvalidResponse, apperror.WithCause(err), apperror.WithContext(marketID)))
	}
	c.remember(m)
	return &m, nil
}

func (c *Client) remember(m domain.Market) {
	if c.markets != nil {
		c.markets.Set(m.ID, m, ttlcache.DefaultTTL)
	}
}

// GetOrderBook fetches a full book snapshot.
func (c *Client) GetOrderBook(ctx context.Context, marketID string) (*domain.OrderBook, error) {
	ctx, span := c.tracer.Start(ctx, "api.get_orderbook", trace.WithAttributes(attribute.String("market", marketID)))
	defer span.End()

	body, err := c.get(ctx, "orderbook", marketPath(marketID, "orderbook"), false)
	if err != nil {
		return nil, c.fail(span, apperror.New(apperror.CodeOrderbookFetchFailed, apperror.WithCause(notFound(err, marketID)), apperror.WithContext(marketID)))
	}

	var dto OrderBookDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, c.fail(span, apperror.New(apperror.CodeInvalidOrderbook, apperror.WithCause(err), apperror.WithContext(marketID)))
	}

	span.SetAttributes(
		attribute.Int("bids", len(dto.Buy)),
		attribute.Int("asks", len(dto.Sell)),
	)
	return dto.ToDomain(), nil
}

// GetAmmState fetches the liquidity state of an AMM or bonding-curve market.
func (c *Client) GetAmmState(ctx context.Context, marketID string) (domain.AmmState, error) {
	ctx, span := c.tracer.Start(ctx, "api.get_amm_state", trace.WithAttributes(attribute.String("market", marketID)))
	defer span.End()

	body, err := c.get(ctx, "amm", marketPath(marketID, "amm"), false)
	if err != nil {
		return nil, c.fail(span, apperror.New(apperror.CodeAmmStateFetchFailed, apperror.WithCause(notFound(err, marketID)), apperror.WithContext(marketID)))
	}

	state, err := DecodeAmmState(body)
	if err != nil {
		return nil, c.fail(span, apperror.New(apperror.CodeInvalidAmmState, apperror.WithCause(err), apperror.WithContext(marketID)))
	}
	span.SetAttributes(attribute.String("amm.kind", domain.AmmKind(state)))
	return state, nil
}

// GetFeeRates fetches the authenticated caller's fees on a market.
func (c *Client) GetFeeRates(ctx context.Context, marketID string) (*domain.FeeRates, error) {
	ctx, span := c.tracer.Start(ctx, "api.get_fee_rates", trace.WithAttributes(attribute.String("market", marketID)))
	defer span.End()

	body, err := c.get(ctx, "fees", marketPath(marketID, "fees"), true)
	if err != nil {
		return nil, c.fail(span, apperror.New(apperror.CodeFeeRatesFetchFailed, apperror.WithCause(err), apperror.WithContext(marketID)))
	}

	var dto FeeRatesDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, c.fail(span, apperror.New(apperror.CodeInvalidResponse, apperror.WithCause(err), apperror.WithContext(marketID)))
	}
	fees, err := dto.ToDomain()
	if err != nil {
		return nil, c.fail(span, apperror.New(apperror.CodeInvalidResponse, apperror.WithCause(err), apperror.WithContext(marketID)))
	}
	return fees, nil
}
