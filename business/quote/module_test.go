package quote_test

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fd1az/trading-sdk/business/auth"
	authDI "github.com/fd1az/trading-sdk/business/auth/di"
	"github.com/fd1az/trading-sdk/business/auth/infra/evm"
	"github.com/fd1az/trading-sdk/business/quote"
	"github.com/fd1az/trading-sdk/business/quote/app"
	quoteDI "github.com/fd1az/trading-sdk/business/quote/di"
	"github.com/fd1az/trading-sdk/internal/config"
	"github.com/fd1az/trading-sdk/internal/logger"
	"github.com/fd1az/trading-sdk/internal/monolith"
)

const (
	devKey    = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	signInMsg = "Sign in to trading"
)

const btcUsdc = `{
	"id": "BTC-USDC",
	"type": "Clob",
	"baseAsset": {"id": "bitcoin:BTC", "symbol": "BTC", "decimals": 8},
	"quoteAsset": {"id": "ethereum:0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "symbol": "USDC", "decimals": 6},
	"feeRate": "0.001",
	"tickSize": "0.01"
}`

// backend serves one order-book market whose fee endpoint only answers a
// logged-in wallet.
func backend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/challenge", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message": "` + signInMsg + `", "nonce": "1"}`))
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Address   string `json:"address"`
			Signature string `json:"signature"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		addr, err := evm.RecoverAddress(signInMsg, req.Signature)
		if err != nil || addr.Hex() != req.Address {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"token": "session-token", "expiresAt": "2030-01-01T00:00:00Z"}`))
	})

	mux.HandleFunc("GET /markets/BTC-USDC", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(btcUsdc))
	})
	mux.HandleFunc("GET /markets/BTC-USDC/orderbook", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"buy": [{"price": "60000", "size": "1"}], "sell": [{"price": "60100", "size": "1"}]}`))
	})
	mux.HandleFunc("GET /markets/BTC-USDC/fees", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer session-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"maker": 0, "taker": 0}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func start(t *testing.T, cfg *config.Config) (*app.QuoteService, func() error) {
	svc, _, closeFn := startMono(t, cfg)
	return svc, closeFn
}

func startMono(t *testing.T, cfg *config.Config) (*app.QuoteService, monolith.Monolith, func() error) {
	t.Helper()
	mono := monolith.New(cfg, logger.Discard())
	modules := []monolith.Module{&auth.Module{}, &quote.Module{}}

	if err := mono.RegisterModules(modules...); err != nil {
		t.Fatalf("RegisterModules() error = %v", err)
	}
	if err := mono.StartModules(context.Background(), modules...); err != nil {
		t.Fatalf("StartModules() error = %v", err)
	}
	if cfg.Wallet.PrivateKey != "" && authDI.GetAuthService(mono.Services()) == nil {
		t.Fatal("auth service should exist with a key configured")
	}
	return quoteDI.GetQuoteService(mono.Services()), mono, mono.Close
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "trading-sdk-test"},
		API: config.APIConfig{BaseURL: baseURL, Timeout: 2 * time.Second},
		Quote: config.QuoteConfig{
			DefaultTakerFeePips: 1000,
			DefaultMakerFeePips: 500,
		},
		Wallet: config.WalletConfig{Network: "evm"},
	}
}

func TestModule_QuotesWithAuthenticatedFees(t *testing.T) {
	srv := backend(t)
	cfg := testConfig(srv.URL)
	cfg.Wallet.PrivateKey = devKey

	svc, closeFn := start(t, cfg)
	defer closeFn()

	q, err := svc.Quote(context.Background(), "BTC-USDC", app.KindSell, big.NewInt(50_000_000), app.QuoteOptions{})
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	// The wallet's 0-pip taker fee applies, not the 1000-pip default.
	if q.Quote.Cmp(big.NewInt(30_000_000_000)) != 0 {
		t.Errorf("Quote = %s, want 30000000000", q.Quote)
	}
}

func TestModule_RevokedSessionLogsInAgain(t *testing.T) {
	var issued, valid atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/challenge", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message": "` + signInMsg + `", "nonce": "1"}`))
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		n := issued.Add(1)
		w.Write([]byte(`{"token": "session-` + strconv.Itoa(int(n)) + `", "expiresAt": "2030-01-01T00:00:00Z"}`))
	})
	mux.HandleFunc("GET /markets/BTC-USDC", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(btcUsdc))
	})
	mux.HandleFunc("GET /markets/BTC-USDC/orderbook", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"buy": [{"price": "60000", "size": "1"}], "sell": [{"price": "60100", "size": "1"}]}`))
	})
	mux.HandleFunc("GET /markets/BTC-USDC/fees", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer session-"+strconv.Itoa(int(valid.Load())) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"maker": 0, "taker": 0}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Wallet.PrivateKey = devKey
	svc, closeFn := start(t, cfg)
	defer closeFn()

	// Startup logged in with session-1. The backend revokes it; only the
	// next one issued is accepted.
	if got := issued.Load(); got != 1 {
		t.Fatalf("logins after startup = %d, want 1", got)
	}
	valid.Store(2)
	ctx := context.Background()

	q, err := svc.Quote(ctx, "BTC-USDC", app.KindSell, big.NewInt(50_000_000), app.QuoteOptions{})
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	if q.Quote.Cmp(big.NewInt(30_000_000_000)) != 0 {
		t.Errorf("Quote = %s, want 30000000000 at the wallet's 0-pip fee", q.Quote)
	}
	if got := issued.Load(); got != 2 {
		t.Errorf("logins = %d, want 2", got)
	}
}

func TestModule_AnonymousUsesDefaultFees(t *testing.T) {
	srv := backend(t)
	svc, closeFn := start(t, testConfig(srv.URL))
	defer closeFn()

	q, err := svc.Quote(context.Background(), "BTC-USDC", app.KindSell, big.NewInt(50_000_000), app.QuoteOptions{})
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	// 30000 USDC less the default 0.1% taker fee.
	if q.Quote.Cmp(big.NewInt(29_970_000_000)) != 0 {
		t.Errorf("Quote = %s, want 29970000000", q.Quote)
	}
}

func TestModule_HealthChecks(t *testing.T) {
	srv := backend(t)
	_, mono, closeFn := startMono(t, testConfig(srv.URL))
	defer closeFn()

	checks := quote.HealthChecks(mono.Services())
	if _, ok := checks["stream"]; ok {
		t.Error("stream check should be absent when streaming is off")
	}
	healthy, msg := checks["api_breaker"](context.Background())
	if !healthy || msg != "closed" {
		t.Errorf("api_breaker = %v %q, want healthy closed", healthy, msg)
	}
}
