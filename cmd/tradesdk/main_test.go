package main

import (
	"bytes"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/fd1az/trading-sdk/business/quote/app"
	"github.com/fd1az/trading-sdk/business/quote/domain"
	"github.com/fd1az/trading-sdk/internal/apperror"
	"github.com/fd1az/trading-sdk/internal/asset"
	"github.com/fd1az/trading-sdk/internal/config"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr string
	}{
		{
			name: "sell",
			args: []string{"-market", "BTC-USDC", "-side", "SELL", "-amount", "0.5"},
			want: options{market: "BTC-USDC", side: app.KindSell, amount: "0.5"},
		},
		{
			name: "inverse through adapter",
			args: []string{"-market", "PEPE-USDC", "-side", "inverse", "-amount", "0.01", "-adapter", "BTC-USDC", "-stream"},
			want: options{market: "PEPE-USDC", side: app.KindInverse, amount: "0.01", adapter: "BTC-USDC", stream: true},
		},
		{name: "list needs nothing else", args: []string{"-list"}, want: options{list: true}},
		{name: "unknown side", args: []string{"-market", "X", "-side", "short", "-amount", "1"}, wantErr: "unknown quote side"},
		{name: "missing market", args: []string{"-amount", "1"}, wantErr: "-market is required"},
		{name: "missing amount", args: []string{"-market", "X"}, wantErr: "-amount is required"},
		{name: "adapter and direct", args: []string{"-market", "X", "-amount", "1", "-adapter", "Y", "-direct"}, wantErr: "mutually exclusive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := parseFlags(tt.args, &bytes.Buffer{})
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseFlags() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("parseFlags() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseFlags_Version(t *testing.T) {
	_, showVersion, err := parseFlags([]string{"-version"}, &bytes.Buffer{})
	if err != nil || !showVersion {
		t.Errorf("parseFlags(-version) = %v, %v", showVersion, err)
	}
}

func TestStreamMarkets(t *testing.T) {
	cfg := &config.Config{Quote: config.QuoteConfig{Adapters: []config.AdapterRoute{{Market: "PEPE-USDC", Adapter: "BTC-USDC"}}}}

	if got := streamMarkets(cfg, options{market: "PEPE-USDC"}); len(got) != 2 || got[1] != "BTC-USDC" {
		t.Errorf("configured adapter: %v", got)
	}
	if got := streamMarkets(cfg, options{market: "PEPE-USDC", direct: true}); len(got) != 1 {
		t.Errorf("direct: %v", got)
	}
	if got := streamMarkets(cfg, options{market: "ETH-USDC", adapter: "BTC-USDT"}); len(got) != 2 || got[1] != "BTC-USDT" {
		t.Errorf("flag adapter: %v", got)
	}
}

func TestPrintQuote(t *testing.T) {
	var buf bytes.Buffer
	printQuote(&buf, &domain.Quote{
		Market:   "BTC-USDC",
		Side:     domain.SideSell,
		Amount:   big.NewInt(50_000_000),
		Quote:    big.NewInt(30_000_000_000),
		InAsset:  asset.BTC,
		OutAsset: asset.USDC,
		Route:    domain.Route{"BTC-USDC"},
	})

	want := "BTC-USDC sell 0.5 BTC -> 30000 USDC  route=BTC-USDC\n"
	if buf.String() != want {
		t.Errorf("printQuote() = %q, want %q", buf.String(), want)
	}
}

func TestKeepWatching(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"book too thin", apperror.New(apperror.CodeInsufficientLiquidity), true},
		{"breaker open", apperror.New(apperror.CodeCircuitOpen), true},
		{"stale stream", apperror.New(apperror.CodeSnapshotStale), true},
		{"unknown market", apperror.New(apperror.CodeMarketNotFound), false},
		{"graduated curve", apperror.New(apperror.CodeCurveGraduated), false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		if got := keepWatching(tt.err); got != tt.want {
			t.Errorf("%s: keepWatching() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
