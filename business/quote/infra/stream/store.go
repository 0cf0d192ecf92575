// Package stream keeps realtime market snapshots fed over WebSocket and
// serves them through the quote service's MarketDataSource port. Snapshots
// that are missing or stale are fetched from the REST fallback instead.
package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/trading-sdk/business/quote/app"
	"github.com/fd1az/trading-sdk/business/quote/domain"
	"github.com/fd1az/trading-sdk/business/quote/infra/api"
	"github.com/fd1az/trading-sdk/internal/apperror"
	"github.com/fd1az/trading-sdk/internal/httpclient"
	"github.com/fd1az/trading-sdk/internal/logger"
	"github.com/fd1az/trading-sdk/internal/wsconn"
)

var _ app.MarketDataSource = (*Store)(nil)

const (
	tracerName = "quote.stream"
	meterName  = "quote.stream"

	feeStaleFactor = 10

	sourceWebSocket = "websocket"
	sourceFallback  = "http_fallback"
)

// Config holds stream settings.
type Config struct {
	URL            string
	Markets        []string
	StaleTimeout   time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url string, markets []string) Config {
	return Config{
		URL:            url,
		Markets:        markets,
		StaleTimeout:   5 * time.Second,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

type snapshot[T any] struct {
	value T
	at    time.Time
}

// marketState holds the latest snapshot per channel. Snapshots are replaced
// wholesale, never patched.
type marketState struct {
	book *snapshot[*domain.OrderBook]
	amm  *snapshot[domain.AmmState]
	fees *snapshot[*domain.FeeRates]
}

type storeMetrics struct {
	messages    metric.Int64Counter
	parseErrors metric.Int64Counter
	reads       metric.Int64Counter
}

// Store is a MarketDataSource backed by a WebSocket feed.
type Store struct {
	config   Config
	fallback app.MarketDataSource
	tokens   httpclient.TokenSource
	logger   logger.LoggerInterface

	conn *wsconn.Client

	markets map[string]*marketState
	mu      sync.RWMutex

	now     func() time.Time
	tracer  trace.Tracer
	metrics *storeMetrics
}

// NewStore creates a store. fallback serves market descriptors and any
// snapshot the feed has not delivered recently; it may be nil, in which case
// stale reads fail with SNAPSHOT_STALE. tokens authenticates the fees channel.
func NewStore(cfg Config, fallback app.MarketDataSource, tokens httpclient.TokenSource, log logger.LoggerInterface) (*Store, error) {
	if cfg.StaleTimeout <= 0 {
		cfg.StaleTimeout = 5 * time.Second
	}

	wsCfg := wsconn.DefaultConfig(cfg.URL, "quote-stream")
	if cfg.InitialBackoff > 0 {
		wsCfg.InitialBackoff = cfg.InitialBackoff
	}
	if cfg.MaxBackoff > 0 {
		wsCfg.MaxBackoff = cfg.MaxBackoff
	}
	wsCfg.MaxReconnects = cfg.MaxReconnects

	conn, err := wsconn.New(wsCfg)
	if err != nil {
		return nil, err
	}

	s := &Store{
		config:   cfg,
		fallback: fallback,
		tokens:   tokens,
		logger:   log,
		conn:     conn,
		markets:  make(map[string]*marketState, len(cfg.Markets)),
		now:      time.Now,
		tracer:   otel.Tracer(tracerName),
	}
	for _, id := range cfg.Markets {
		s.markets[id] = &marketState{}
	}
	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	conn.OnMessage(s.handleMessage)
	conn.OnConnect(s.subscribe)
	conn.OnStateChange(func(state wsconn.State, err error) {
		if err != nil {
			s.logger.Warn(context.Background(), "stream state changed", "state", string(state), "error", err)
			return
		}
		s.logger.Info(context.Background(), "stream state changed", "state", string(state))
	})

	return s, nil
}

func (s *Store) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error
	s.metrics = &storeMetrics{}

	s.metrics.messages, err = meter.Int64Counter(
		"stream_messages_total",
		metric.WithDescription("Snapshot messages received, by channel"),
	)
	if err != nil {
		return err
	}

	s.metrics.parseErrors, err = meter.Int64Counter(
		"stream_parse_errors_total",
		metric.WithDescription("Messages that could not be decoded"),
	)
	if err != nil {
		return err
	}

	s.metrics.reads, err = meter.Int64Counter(
		"stream_snapshot_reads_total",
		metric.WithDescription("Snapshot reads, by channel and source"),
	)
	return err
}

// Start connects and subscribes, retrying with backoff until ctx ends.
func (s *Store) Start(ctx context.Context) error {
	return s.conn.ConnectWithRetry(ctx)
}

// Close stops the feed.
func (s *Store) Close() error {
	return s.conn.Close()
}

// IsConnected reports whether the feed is up.
func (s *Store) IsConnected() bool {
	return s.conn.IsConnected()
}

// State returns the connection state.
func (s *Store) State() wsconn.State {
	return s.conn.State()
}

func (s *Store) subscribe(ctx context.Context) error {
	topics := make([]string, 0, len(s.config.Markets)*len(Channels))
	for _, id := range s.config.Markets {
		for _, ch := range Channels {
			topics = append(topics, Topic(ch, id))
		}
	}
	if len(topics) == 0 {
		return nil
	}

	req := SubscribeRequest{ID: uuid.NewString(), Method: "subscribe", Topics: topics}
	if s.tokens != nil {
		token, err := s.tokens(ctx)
		if err != nil {
			// Public channels still work without a token.
			s.logger.Warn(ctx, "subscribing without token", "error", err)
		}
		req.Token = token
	}

	s.logger.Debug(ctx, "subscribing", "id", req.ID, "topics", topics)
	return s.conn.SendJSON(ctx, req)
}

func (s *Store) handleMessage(ctx context.Context, msg []byte) {
	env, ok := parseEnvelope(msg)
	if !ok {
		s.metrics.parseErrors.Add(ctx, 1)
		s.logger.Debug(ctx, "dropping malformed message", "data", string(msg[:min(len(msg), 200)]))
		return
	}

	switch env.Type {
	case "subscribed":
		s.logger.Debug(ctx, "subscription confirmed", "id", env.ID)
		return
	case "error":
		s.logger.Warn(ctx, "stream error", "id", env.ID, "message", env.Message)
		return
	}

	if env.Market == "" || env.Data == nil {
		s.metrics.parseErrors.Add(ctx, 1)
		return
	}
	s.metrics.messages.Add(ctx, 1, metric.WithAttributes(attribute.String("channel", env.Channel)))

	if err := s.apply(env); err != nil {
		s.metrics.parseErrors.Add(ctx, 1)
		s.logger.Warn(ctx, "failed to apply snapshot",
			"channel", env.Channel,
			"market", env.Market,
			"error", err)
	}
}

func (s *Store) apply(env envelope) error {
	at := s.now()

	switch env.Channel {
	case ChannelOrderBook:
		var dto api.OrderBookDTO
		if err := json.Unmarshal(env.Data, &dto); err != nil {
			return err
		}
		book := dto.ToDomain()
		s.update(env.Market, func(m *marketState) { m.book = &snapshot[*domain.OrderBook]{book, at} })

	case ChannelAmm:
		state, err := api.DecodeAmmState(env.Data)
		if err != nil {
			return err
		}
		s.update(env.Market, func(m *marketState) { m.amm = &snapshot[domain.AmmState]{state, at} })

	case ChannelFees:
		var dto api.FeeRatesDTO
		if err := json.Unmarshal(env.Data, &dto); err != nil {
			return err
		}
		fees, err := dto.ToDomain()
		if err != nil {
			return err
		}
		s.update(env.Market, func(m *marketState) { m.fees = &snapshot[*domain.FeeRates]{fees, at} })

	default:
		return fmt.Errorf("unknown channel %q", env.Channel)
	}
	return nil
}

func (s *Store) update(marketID string, fn func(*marketState)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.markets[marketID]
	if !ok {
		m = &marketState{}
		s.markets[marketID] = m
	}
	fn(m)
}

func (s *Store) fresh(at time.Time) bool {
	return s.now().Sub(at) <= s.config.StaleTimeout
}

func (s *Store) recordRead(ctx context.Context, channel, source string) {
	s.metrics.reads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", channel),
		attribute.String("source", source),
	))
}

func (s *Store) stale(channel, marketID string) error {
	return apperror.New(apperror.CodeSnapshotStale,
		apperror.WithContext(fmt.Sprintf("%s snapshot for %s", channel, marketID)))
}

// GetMarket delegates to the fallback; descriptors are not streamed.
func (s *Store) GetMarket(ctx context.Context, marketID string) (*domain.Market, error) {
	if s.fallback == nil {
		return nil, apperror.New(apperror.CodeMarketNotFound, apperror.WithContext(marketID))
	}
	return s.fallback.GetMarket(ctx, marketID)
}

// GetOrderBook returns a copy of the streamed book, or the fallback's when
// the stream has nothing fresh.
func (s *Store) GetOrderBook(ctx context.Context, marketID string) (*domain.OrderBook, error) {
	ctx, span := s.tracer.Start(ctx, "stream.get_orderbook", trace.WithAttributes(attribute.String("market", marketID)))
	defer span.End()

	s.mu.RLock()
	var snap *snapshot[*domain.OrderBook]
	if m, ok := s.markets[marketID]; ok {
		snap = m.book
	}
	s.mu.RUnlock()

	if snap != nil && s.fresh(snap.at) {
		span.SetAttributes(attribute.String("source", sourceWebSocket))
		s.recordRead(ctx, ChannelOrderBook, sourceWebSocket)
		return snap.value.Clone(), nil
	}

	span.SetAttributes(attribute.Bool("stale", snap != nil))
	if s.fallback == nil {
		return nil, s.stale(ChannelOrderBook, marketID)
	}

	s.logger.Debug(ctx, "orderbook stale, using HTTP fallback", "market", marketID)
	book, err := s.fallback.GetOrderBook(ctx, marketID)
	if err != nil {
		return nil, err
	}
	s.update(marketID, func(m *marketState) {
		// A message may have landed while the fallback was in flight.
		if m.book == nil || !s.fresh(m.book.at) {
			m.book = &snapshot[*domain.OrderBook]{book.Clone(), s.now()}
		}
	})
	span.SetAttributes(attribute.String("source", sourceFallback))
	s.recordRead(ctx, ChannelOrderBook, sourceFallback)
	return book, nil
}

// GetAmmState returns a copy of the streamed AMM state, or the fallback's.
func (s *Store) GetAmmState(ctx context.Context, marketID string) (domain.AmmState, error) {
	ctx, span := s.tracer.Start(ctx, "stream.get_amm_state", trace.WithAttributes(attribute.String("market", marketID)))
	defer span.End()

	s.mu.RLock()
	var snap *snapshot[domain.AmmState]
	if m, ok := s.markets[marketID]; ok {
		snap = m.amm
	}
	s.mu.RUnlock()

	if snap != nil && s.fresh(snap.at) {
		span.SetAttributes(attribute.String("source", sourceWebSocket))
		s.recordRead(ctx, ChannelAmm, sourceWebSocket)
		return domain.CloneAmmState(snap.value), nil
	}

	span.SetAttributes(attribute.Bool("stale", snap != nil))
	if s.fallback == nil {
		return nil, s.stale(ChannelAmm, marketID)
	}

	s.logger.Debug(ctx, "amm state stale, using HTTP fallback", "market", marketID)
	state, err := s.fallback.GetAmmState(ctx, marketID)
	if err != nil {
		return nil, err
	}
	s.update(marketID, func(m *marketState) {
		if m.amm == nil || !s.fresh(m.amm.at) {
			m.amm = &snapshot[domain.AmmState]{domain.CloneAmmState(state), s.now()}
		}
	})
	span.SetAttributes(attribute.String("source", sourceFallback))
	s.recordRead(ctx, ChannelAmm, sourceFallback)
	return state, nil
}

// GetFeeRates returns the streamed fee table, or the fallback's. A fee table
// stays fresh for ten stale timeouts.
func (s *Store) GetFeeRates(ctx context.Context, marketID string) (*domain.FeeRates, error) {
	s.mu.RLock()
	var snap *snapshot[*domain.FeeRates]
	if m, ok := s.markets[marketID]; ok {
		snap = m.fees
	}
	s.mu.RUnlock()

	if snap != nil && s.now().Sub(snap.at) <= feeStaleFactor*s.config.StaleTimeout {
		s.recordRead(ctx, ChannelFees, sourceWebSocket)
		fees := *snap.value
		return &fees, nil
	}
	if s.fallback == nil {
		return nil, s.stale(ChannelFees, marketID)
	}

	fees, err := s.fallback.GetFeeRates(ctx, marketID)
	if err != nil {
		return nil, err
	}
	cp := *fees
	s.update(marketID, func(m *marketState) { m.fees = &snapshot[*domain.FeeRates]{&cp, s.now()} })
	s.recordRead(ctx, ChannelFees, sourceFallback)
	return fees, nil
}
