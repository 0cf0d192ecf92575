package api

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/fd1az/trading-sdk/business/quote/domain"
	"github.com/fd1az/trading-sdk/internal/apperror"
	"github.com/fd1az/trading-sdk/internal/asset"
	"github.com/fd1az/trading-sdk/internal/circuitbreaker"
	"github.com/fd1az/trading-sdk/internal/logger"
)

const btcUsdcJSON = `{
	"id": "BTC-USDC",
	"type": "Clob",
	"baseAsset": {"id": "bitcoin:BTC", "symbol": "BTC", "decimals": 8},
	"quoteAsset": {"id": "ethereum:0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "symbol": "USDC", "decimals": 6},
	"feeRate": "0.001",
	"minFee": "1000",
	"tickSize": "0.01"
}`

const pepeJSON = `{
	"id": "PEPE-USDC",
	"type": "BondingCurve",
	"baseAsset": {"id": "bitcoin:PEPE", "symbol": "PEPE", "name": "Pepe Rune", "decimals": 6},
	"quoteAsset": {"id": "ethereum:0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "symbol": "USDC", "decimals": 6},
	"feeRate": "0.01",
	"tickSize": "0.000001"
}`

func newTestServer(t *testing.T, mux *http.ServeMux) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string, cfg Config, tokens func(context.Context) (string, error)) *Client {
	t.Helper()
	cfg.BaseURL = baseURL
	c, err := NewClient(cfg, tokens, asset.DefaultRegistry(), logger.Discard())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{}, nil, nil, logger.Discard())
	if apperror.GetCode(err) != apperror.CodeConfigurationError {
		t.Fatalf("NewClient() code = %v, want %v", apperror.GetCode(err), apperror.CodeConfigurationError)
	}
}

func TestClient_GetMarket(t *testing.T) {
	var hits atomic.Int32
	var requestID atomic.Value

	mux := http.NewServeMux()
	mux.HandleFunc("GET /markets/BTC-USDC", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		requestID.Store(r.Header.Get(RequestIDHeader))
		w.Write([]byte(btcUsdcJSON))
	})
	srv := newTestServer(t, mux)
	c := newTestClient(t, srv.URL, Config{CacheTTL: time.Minute}, nil)

	ctx := context.Background()
	m, err := c.GetMarket(ctx, "BTC-USDC")
	if err != nil {
		t.Fatalf("GetMarket() error = %v", err)
	}

	if m.Type != domain.MarketTypeClob {
		t.Errorf("Type = %s, want Clob", m.Type)
	}
	if m.Base != asset.BTC {
		t.Errorf("Base = %v, want the registered BTC asset", m.Base)
	}
	if m.Quote != asset.USDC {
		t.Errorf("Quote = %v, want the registered USDC asset", m.Quote)
	}
	if m.MinFee.Cmp(big.NewInt(1000)) != 0 {
		t.Errorf("MinFee = %s, want 1000", m.MinFee)
	}
	if _, err := uuid.Parse(requestID.Load().(string)); err != nil {
		t.Errorf("%s header is not a uuid: %v", RequestIDHeader, err)
	}

	// Second lookup is served from cache.
	if _, err := c.GetMarket(ctx, "BTC-USDC"); err != nil {
		t.Fatalf("GetMarket() cached error = %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}
}

func TestClient_GetMarket_CacheExpires(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /markets/BTC-USDC", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(btcUsdcJSON))
	})
	srv := newTestServer(t, mux)
	c := newTestClient(t, srv.URL, Config{CacheTTL: 20 * time.Millisecond}, nil)
	ctx := context.Background()

	if _, err := c.GetMarket(ctx, "BTC-USDC"); err != nil {
		t.Fatalf("GetMarket() error = %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if _, err := c.GetMarket(ctx, "BTC-USDC"); err != nil {
		t.Fatalf("GetMarket() error = %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("server hits = %d, want 2 after expiry", got)
	}
	c.Close()
	c.Close()
}

func TestClient_GetMarket_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /markets/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unknown market"}`, http.StatusNotFound)
	})
	srv := newTestServer(t, mux)
	c := newTestClient(t, srv.URL, Config{}, nil)

	_, err := c.GetMarket(context.Background(), "NOPE-USDC")
	if !errors.Is(err, apperror.New(apperror.CodeMarketNotFound)) {
		t.Fatalf("GetMarket() error = %v, want MARKET_NOT_FOUND", err)
	}
}

func TestClient_ListMarkets_RegistersAssets(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /markets", func(w http.ResponseWriter, r *http.Request) {
		// The third market has a malformed asset id and is skipped.
		w.Write([]byte(`{"markets": [` + btcUsdcJSON + `,` + pepeJSON + `,
			{"id": "BAD", "type": "Clob", "baseAsset": {"id": "nonsense"}, "quoteAsset": {"id": "bitcoin:BTC", "decimals": 8}}
		]}`))
	})
	srv := newTestServer(t, mux)
	c := newTestClient(t, srv.URL, Config{}, nil)

	markets, err := c.ListMarkets(context.Background())
	if err != nil {
		t.Fatalf("ListMarkets() error = %v", err)
	}
	if len(markets) != 2 {
		t.Fatalf("len(markets) = %d, want 2", len(markets))
	}

	pepe, ok := c.Registry().GetBySymbolAndNetwork("PEPE", asset.NetworkBitcoin)
	if !ok {
		t.Fatal("PEPE was not registered")
	}
	if pepe.Decimals() != 6 || pepe.Name() != "Pepe Rune" {
		t.Errorf("PEPE = %d decimals, name %q", pepe.Decimals(), pepe.Name())
	}
	if markets[1].Base != pepe {
		t.Error("market base should be the registered asset")
	}
}

func TestClient_ListMarkets_SkipsMalformedAssets(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /markets", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"markets": [` + btcUsdcJSON + `,
			{"id": "NOSYM-USDC", "type": "Clob", "feeRate": "0.001",
			 "baseAsset": {"id": "bitcoin:NOSYM", "decimals": 8},
			 "quoteAsset": {"id": "ethereum:0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "symbol": "USDC", "decimals": 6}},
			{"id": "WIDE-USDC", "type": "Clob", "feeRate": "0.001",
			 "baseAsset": {"id": "bitcoin:WIDE", "symbol": "WIDE", "decimals": 40},
			 "quoteAsset": {"id": "ethereum:0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "symbol": "USDC", "decimals": 6}}
		]}`))
	})
	srv := newTestServer(t, mux)
	c := newTestClient(t, srv.URL, Config{}, nil)

	markets, err := c.ListMarkets(context.Background())
	if err != nil {
		t.Fatalf("ListMarkets() error = %v", err)
	}
	if len(markets) != 1 || markets[0].ID != "BTC-USDC" {
		t.Fatalf("markets = %v, want only BTC-USDC", markets)
	}
	if _, ok := c.Registry().GetBySymbolAndNetwork("WIDE", asset.NetworkBitcoin); ok {
		t.Error("WIDE should not have been registered")
	}
}

func TestClient_ListMarkets_DecimalsConflict(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /markets/BTC-USDC", func(w http.ResponseWriter, r *http.Request) {
		// BTC is registered with 8 decimals.
		w.Write([]byte(`{"id": "BTC-USDC", "type": "Clob",
			"baseAsset": {"id": "bitcoin:BTC", "symbol": "BTC", "decimals": 18},
			"quoteAsset": {"id": "ethereum:0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "symbol": "USDC", "decimals": 6}}`))
	})
	srv := newTestServer(t, mux)
	c := newTestClient(t, srv.URL, Config{}, nil)

	_, err := c.GetMarket(context.Background(), "BTC-USDC")
	if apperror.GetCode(err) != apperror.CodeInvalidResponse {
		t.Fatalf("GetMarket() code = %v, want %v", apperror.GetCode(err), apperror.CodeInvalidResponse)
	}
}

func TestClient_GetOrderBook(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /markets/BTC-USDC/orderbook", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"buy":  [{"price": "60000", "size": "0.5"}, {"price": "59900", "size": "1"}],
			"sell": [{"price": "60300", "size": "1"}, {"price": "60100", "size": "0.5"}],
			"lastTrade": {"price": "60050", "size": "0.1", "side": "buy", "timestamp": "2026-01-02T03:04:05Z"}
		}`))
	})
	srv := newTestServer(t, mux)
	c := newTestClient(t, srv.URL, Config{}, nil)

	book, err := c.GetOrderBook(context.Background(), "BTC-USDC")
	if err != nil {
		t.Fatalf("GetOrderBook() error = %v", err)
	}
	if len(book.Buy) != 2 || len(book.Sell) != 2 {
		t.Fatalf("book sizes = %d/%d, want 2/2", len(book.Buy), len(book.Sell))
	}
	if book.Sell[1].Price != "60100" {
		t.Errorf("best ask should stay last, got %s", book.Sell[1].Price)
	}
	if book.Last == nil || book.Last.Side != domain.SideBuy {
		t.Errorf("Last = %+v, want a buy", book.Last)
	}

	// The snapshot feeds straight into the book walker.
	m := domain.Market{ID: "BTC-USDC", Base: asset.BTC, Quote: asset.USDC, Type: domain.MarketTypeClob}
	got, ok := domain.QuoteAmountToGetFromSellingBaseAmount(big.NewInt(50_000_000), m, book, domain.FeeRates{})
	if !ok || got.Cmp(big.NewInt(30_000_000_000)) != 0 {
		t.Errorf("selling 0.5 BTC = %v (%v), want 30000000000", got, ok)
	}
}

func TestClient_GetOrderBook_Errors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /markets/GONE/orderbook", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("GET /markets/GARBLED/orderbook", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"buy": "nope"}`))
	})
	srv := newTestServer(t, mux)
	c := newTestClient(t, srv.URL, Config{}, nil)
	ctx := context.Background()

	_, err := c.GetOrderBook(ctx, "GONE")
	if apperror.GetCode(err) != apperror.CodeOrderbookFetchFailed {
		t.Errorf("GONE code = %v, want %v", apperror.GetCode(err), apperror.CodeOrderbookFetchFailed)
	}
	if !errors.Is(err, apperror.New(apperror.CodeMarketNotFound)) {
		t.Errorf("GONE should wrap MARKET_NOT_FOUND: %v", err)
	}

	_, err = c.GetOrderBook(ctx, "GARBLED")
	if apperror.GetCode(err) != apperror.CodeInvalidOrderbook {
		t.Errorf("GARBLED code = %v, want %v", apperror.GetCode(err), apperror.CodeInvalidOrderbook)
	}
}

func TestClient_GetAmmState(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /markets/PEPE-USDC/amm", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type": "bondingCurve", "virtualBaseReserves": "1000", "virtualQuoteReserves": "1000",
			"realBaseReserves": "500", "feeRate": "0", "graduationStatus": "Active"}`))
	})
	mux.HandleFunc("GET /markets/ETH-USDC/amm", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type": "constantProduct", "pools": [
			{"id": "p1", "baseLiquidity": "1000000", "quoteLiquidity": "1000000", "feeRate": "0"}
		]}`))
	})
	mux.HandleFunc("GET /markets/ODD/amm", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type": "orderbook"}`))
	})
	srv := newTestServer(t, mux)
	c := newTestClient(t, srv.URL, Config{}, nil)
	ctx := context.Background()

	curve, err := c.GetAmmState(ctx, "PEPE-USDC")
	if err != nil {
		t.Fatalf("GetAmmState(curve) error = %v", err)
	}
	if got, ok := domain.AmmQuoteToBuy(curve, big.NewInt(100)); !ok || got.Cmp(big.NewInt(112)) != 0 {
		t.Errorf("curve buy 100 = %v (%v), want 112", got, ok)
	}

	pool, err := c.GetAmmState(ctx, "ETH-USDC")
	if err != nil {
		t.Fatalf("GetAmmState(pool) error = %v", err)
	}
	if got, ok := domain.AmmQuoteToBuy(pool, big.NewInt(100_000)); !ok || got.Cmp(big.NewInt(111_112)) != 0 {
		t.Errorf("pool buy 100000 = %v (%v), want 111112", got, ok)
	}

	_, err = c.GetAmmState(ctx, "ODD")
	if apperror.GetCode(err) != apperror.CodeInvalidAmmState {
		t.Errorf("ODD code = %v, want %v", apperror.GetCode(err), apperror.CodeInvalidAmmState)
	}
}

func TestClient_GetFeeRates_UsesToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /markets/BTC-USDC/fees", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"maker": 200, "taker": 700}`))
	})
	mux.HandleFunc("GET /markets/BTC-USDC", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("public endpoint should not carry a token")
		}
		w.Write([]byte(btcUsdcJSON))
	})
	srv := newTestServer(t, mux)
	c := newTestClient(t, srv.URL, Config{}, func(context.Context) (string, error) { return "tok-1", nil })
	ctx := context.Background()

	fees, err := c.GetFeeRates(ctx, "BTC-USDC")
	if err != nil {
		t.Fatalf("GetFeeRates() error = %v", err)
	}
	if fees.Maker != 200 || fees.Taker != 700 {
		t.Errorf("fees = %+v, want 200/700", fees)
	}

	if _, err := c.GetMarket(ctx, "BTC-USDC"); err != nil {
		t.Fatalf("GetMarket() error = %v", err)
	}
}

func TestClient_GetFeeRates_ReauthenticatesOnce(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantErr     bool
		wantCalls   int32
		wantDropped int32
	}{
		{"stale token replaced", 0, false, 2, 1},
		{"still rejected", http.StatusForbidden, true, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls, dropped, issued atomic.Int32
			mux := http.NewServeMux()
			mux.HandleFunc("GET /markets/BTC-USDC/fees", func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				if r.Header.Get("Authorization") != "Bearer tok-2" || tt.status != 0 {
					w.WriteHeader(cmp.Or(tt.status, http.StatusUnauthorized))
					return
				}
				w.Write([]byte(`{"maker": 100, "taker": 300}`))
			})
			srv := newTestServer(t, mux)

			tokens := func(context.Context) (string, error) {
				return fmt.Sprintf("tok-%d", issued.Add(1)), nil
			}
			c := newTestClient(t, srv.URL, Config{InvalidateToken: func() { dropped.Add(1) }}, tokens)

			fees, err := c.GetFeeRates(context.Background(), "BTC-USDC")
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetFeeRates() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && (fees.Maker != 100 || fees.Taker != 300) {
				t.Errorf("fees = %+v, want 100/300", fees)
			}
			if err != nil && !errors.Is(err, apperror.New(apperror.CodeAPIUnauthorized)) {
				t.Errorf("error = %v, want API_UNAUTHORIZED in chain", err)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("server calls = %d, want %d", got, tt.wantCalls)
			}
			if got := dropped.Load(); got != tt.wantDropped {
				t.Errorf("invalidations = %d, want %d", got, tt.wantDropped)
			}
		})
	}
}

func TestClient_PublicUnauthorizedIsNotRetried(t *testing.T) {
	var calls, dropped atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /markets/BTC-USDC", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := newTestServer(t, mux)
	c := newTestClient(t, srv.URL, Config{InvalidateToken: func() { dropped.Add(1) }}, nil)

	if _, err := c.GetMarket(context.Background(), "BTC-USDC"); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 || dropped.Load() != 0 {
		t.Errorf("calls = %d, invalidations = %d, want 1 and 0", calls.Load(), dropped.Load())
	}
}

func TestClient_GetFeeRates_RejectsFullFee(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /markets/BTC-USDC/fees", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"maker": 0, "taker": 1000000}`))
	})
	srv := newTestServer(t, mux)
	c := newTestClient(t, srv.URL, Config{}, nil)

	_, err := c.GetFeeRates(context.Background(), "BTC-USDC")
	if apperror.GetCode(err) != apperror.CodeInvalidResponse {
		t.Fatalf("GetFeeRates() code = %v, want %v", apperror.GetCode(err), apperror.CodeInvalidResponse)
	}
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /markets/BTC-USDC/orderbook", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	srv := newTestServer(t, mux)

	breaker := circuitbreaker.DefaultConfig("test")
	breaker.ConsecutiveFailures = 2
	breaker.Timeout = time.Minute
	c := newTestClient(t, srv.URL, Config{Breaker: &breaker}, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := c.GetOrderBook(ctx, "BTC-USDC"); err == nil {
			t.Fatal("expected error from 502")
		}
	}
	if c.BreakerState() != gobreaker.StateOpen {
		t.Fatalf("breaker state = %v, want open", c.BreakerState())
	}

	_, err := c.GetOrderBook(ctx, "BTC-USDC")
	if !errors.Is(err, apperror.New(apperror.CodeCircuitOpen)) {
		t.Errorf("error = %v, want CIRCUIT_OPEN in chain", err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("server hits = %d, want 2", got)
	}
}

func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /markets/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := newTestServer(t, mux)

	breaker := circuitbreaker.DefaultConfig("test")
	breaker.ConsecutiveFailures = 2
	c := newTestClient(t, srv.URL, Config{Breaker: &breaker}, nil)

	for i := 0; i < 5; i++ {
		c.GetMarket(context.Background(), "NOPE")
	}
	if c.BreakerState() != gobreaker.StateClosed {
		t.Errorf("breaker state = %v, want closed", c.BreakerState())
	}
}

func TestDecodeAmmState_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing type", `{"pools": []}`},
		{"bad integer", `{"type": "bondingCurve", "virtualBaseReserves": "1e9"}`},
		{"negative liquidity", `{"type": "constantProduct", "pools": [{"id": "p", "baseLiquidity": "-1"}]}`},
		{"bad status", `{"type": "bondingCurve", "graduationStatus": "Done"}`},
		{"missing reserves", `{"type": "bondingCurve", "graduationStatus": "Active"}`},
		{"pool without id", `{"type": "constantProduct", "pools": [{"baseLiquidity": "1", "quoteLiquidity": "1"}]}`},
		{"non-numeric liquidity", `{"type": "constantProduct", "pools": [{"id": "p", "baseLiquidity": "lots"}]}`},
		{"negative pool fee", `{"type": "constantProduct", "pools": [{"id": "p", "baseLiquidity": "1", "quoteLiquidity": "1", "feeRate": "-0.01"}]}`},
		{"full pool fee", `{"type": "constantProduct", "pools": [{"id": "p", "baseLiquidity": "1", "quoteLiquidity": "1", "feeRate": "1"}]}`},
		{"full curve fee", `{"type": "bondingCurve", "virtualBaseReserves": "10", "virtualQuoteReserves": "10", "feeRate": "1"}`},
		{"negative curve fee", `{"type": "bondingCurve", "virtualBaseReserves": "10", "virtualQuoteReserves": "10", "feeRate": "-0.5"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeAmmState([]byte(tt.raw)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDecodeAmmState_DefaultsToActive(t *testing.T) {
	s, err := DecodeAmmState([]byte(`{"type": "bondingCurve", "virtualBaseReserves": "10", "virtualQuoteReserves": "10", "realBaseReserves": "5"}`))
	if err != nil {
		t.Fatalf("DecodeAmmState() error = %v", err)
	}
	curve := s.(*domain.BondingCurveAmmState)
	if curve.GraduationStatus != domain.GraduationStatusActive {
		t.Errorf("GraduationStatus = %q, want Active", curve.GraduationStatus)
	}
}

func TestMarketDTO_ToDomain_RequiresIdentity(t *testing.T) {
	usdc := AssetDTO{ID: "ethereum:0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Symbol: "USDC", Decimals: 6}
	tests := []struct {
		name string
		dto  MarketDTO
	}{
		{"no id", MarketDTO{Type: "Clob", BaseAsset: AssetDTO{ID: "bitcoin:BTC", Symbol: "BTC", Decimals: 8}, QuoteAsset: usdc}},
		{"no type", MarketDTO{ID: "BTC-USDC", BaseAsset: AssetDTO{ID: "bitcoin:BTC", Symbol: "BTC", Decimals: 8}, QuoteAsset: usdc}},
		{"no base asset id", MarketDTO{ID: "BTC-USDC", Type: "Clob", BaseAsset: AssetDTO{Symbol: "BTC"}, QuoteAsset: usdc}},
		{"no base symbol", MarketDTO{ID: "X-USDC", Type: "Clob", BaseAsset: AssetDTO{ID: "bitcoin:X", Decimals: 8}, QuoteAsset: usdc}},
		{"too many decimals", MarketDTO{ID: "Y-USDC", Type: "Clob", BaseAsset: AssetDTO{ID: "bitcoin:Y", Symbol: "Y", Decimals: 40}, QuoteAsset: usdc}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.dto.ToDomain(asset.NewRegistry()); err == nil {
				t.Error("expected error")
			}
		})
	}
}
