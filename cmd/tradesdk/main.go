// Package main is the command-line entry point of the trading SDK: it prices
// a trade on one market, optionally through an adapter market.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fd1az/trading-sdk/business/auth"
	"github.com/fd1az/trading-sdk/business/quote"
	"github.com/fd1az/trading-sdk/business/quote/app"
	quoteDI "github.com/fd1az/trading-sdk/business/quote/di"
	"github.com/fd1az/trading-sdk/business/quote/domain"
	"github.com/fd1az/trading-sdk/internal/apm"
	"github.com/fd1az/trading-sdk/internal/apperror"
	"github.com/fd1az/trading-sdk/internal/asset"
	"github.com/fd1az/trading-sdk/internal/config"
	"github.com/fd1az/trading-sdk/internal/health"
	"github.com/fd1az/trading-sdk/internal/logger"
	"github.com/fd1az/trading-sdk/internal/metrics"
	"github.com/fd1az/trading-sdk/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// options are the parsed command-line flags.
type options struct {
	configPath string
	market     string
	side       app.Kind
	amount     string
	adapter    string
	direct     bool
	stream     bool
	list       bool
	watch      time.Duration
}

func parseFlags(args []string, stderr io.Writer) (options, bool, error) {
	fs := flag.NewFlagSet("tradesdk", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	var side string
	fs.StringVar(&o.configPath, "config", "", "Path to configuration file")
	fs.StringVar(&o.market, "market", "", "Market to quote, e.g. BTC-USDC")
	fs.StringVar(&side, "side", "buy", "buy, sell or inverse")
	fs.StringVar(&o.amount, "amount", "", "Amount in human units: base for buy/sell, quote (or adapter base) for inverse")
	fs.StringVar(&o.adapter, "adapter", "", "Route through this order-book market")
	fs.BoolVar(&o.direct, "direct", false, "Ignore any configured adapter")
	fs.BoolVar(&o.stream, "stream", false, "Read snapshots from the WebSocket feed")
	fs.BoolVar(&o.list, "list", false, "List markets and exit")
	fs.DurationVar(&o.watch, "watch", 0, "Re-quote at this interval until interrupted")
	showVersion := fs.Bool("version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return o, false, err
	}
	if *showVersion {
		return o, true, nil
	}
	if o.list {
		return o, false, nil
	}

	kind, err := app.ParseKind(strings.ToLower(side))
	if err != nil {
		return o, false, err
	}
	o.side = kind

	if o.market == "" {
		return o, false, errors.New("-market is required")
	}
	if o.amount == "" {
		return o, false, errors.New("-amount is required")
	}
	if o.adapter != "" && o.direct {
		return o, false, errors.New("-adapter and -direct are mutually exclusive")
	}
	if o.watch < 0 {
		return o, false, errors.New("-watch must be positive")
	}
	return o, false, nil
}

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	opts, showVersion, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	if showVersion {
		fmt.Printf("tradesdk %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.stream {
		cfg.Stream.Enabled = true
		if len(cfg.Stream.Markets) == 0 && opts.market != "" {
			cfg.Stream.Markets = streamMarkets(cfg, opts)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}

	level := logger.ParseLevel(cfg.App.LogLevel)
	var log *logger.Logger
	if cfg.App.IsDevelopment() {
		log = logger.NewConsole(os.Stderr, level, cfg.App.Name)
	} else {
		log = logger.New(os.Stderr, level, cfg.App.Name, nil)
	}
	log.Debug(ctx, "starting trading SDK", "version", version, "environment", cfg.App.Environment)

	stopTelemetry, err := setupTelemetry(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stopTelemetry()

	mono := monolith.New(cfg, log)
	defer mono.Close()

	// Auth first: quote reads its token source.
	modules := []monolith.Module{
		&auth.Module{},
		&quote.Module{},
	}
	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	if cfg.Telemetry.Enabled {
		healthServer := health.NewServer(cfg.Telemetry.HealthPort, version, log)
		for name, check := range quote.HealthChecks(mono.Services()) {
			healthServer.RegisterCheck(name, check)
		}
		if err := healthServer.Start(); err != nil {
			log.Warn(ctx, "failed to start health server", "error", err)
		} else {
			log.Info(ctx, "health server started", "addr", healthServer.Addr())
			defer healthServer.Stop(context.Background())
		}
	}

	if opts.list {
		markets, err := quoteDI.GetMarketClient(mono.Services()).ListMarkets(ctx)
		if err != nil {
			return fmt.Errorf("failed to list markets: %w", err)
		}
		printMarkets(out, markets)
		return nil
	}

	svc := quoteDI.GetQuoteService(mono.Services())
	qopts := app.QuoteOptions{AdapterMarketID: opts.adapter, Direct: opts.direct}

	in, err := svc.InputAsset(ctx, opts.market, opts.side, qopts)
	if err != nil {
		return fmt.Errorf("failed to resolve market: %w", err)
	}
	amount, err := asset.ParseString(in, opts.amount)
	if err != nil {
		return fmt.Errorf("invalid -amount for %s: %w", in.Symbol(), err)
	}

	quoteOnce := func() error {
		q, err := svc.Quote(ctx, opts.market, opts.side, amount.Raw(), qopts)
		if err != nil {
			return err
		}
		printQuote(out, q)
		return nil
	}

	if err := quoteOnce(); err != nil {
		return err
	}
	if opts.watch == 0 {
		return nil
	}

	ticker := time.NewTicker(opts.watch)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := quoteOnce(); err != nil {
				if !keepWatching(err) {
					return err
				}
				log.Warn(ctx, "quote failed", "market", opts.market, "error", err)
			}
		}
	}
}

// keepWatching reports whether a failed re-quote may succeed on a later tick.
func keepWatching(err error) bool {
	return apperror.Retryable(err) || apperror.GetCode(err) == apperror.CodeInsufficientLiquidity
}

func streamMarkets(cfg *config.Config, opts options) []string {
	markets := []string{opts.market}
	adapter := opts.adapter
	if adapter == "" && !opts.direct {
		adapter = cfg.Quote.AdapterMap()[opts.market]
	}
	if adapter != "" {
		markets = append(markets, adapter)
	}
	return markets
}

// setupTelemetry installs tracing and metrics when enabled and returns the
// matching shutdown.
func setupTelemetry(ctx context.Context, cfg *config.Config, log *logger.Logger) (func(), error) {
	if !cfg.Telemetry.Enabled {
		return func() {}, nil
	}

	tp, err := apm.NewTraceProvider(apm.Config{
		ServiceName: cfg.Telemetry.ServiceName,
		Exporter:    apm.Exporter(cfg.Telemetry.Exporter),
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Headers:     cfg.Telemetry.Headers(),
		Writer:      os.Stderr,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}

	mp, err := metrics.NewMetricProvider(
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithProviderConfig(metrics.NewPrometheusConfig(nil)),
	)
	if err != nil {
		tp.Stop()
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	port := cfg.Telemetry.PrometheusPort
	if port == 0 {
		port = 9090
	}
	promServer, err := metrics.ServePrometheusMetrics(log, metrics.WithPort(strconv.Itoa(port)))
	if err != nil {
		log.Warn(ctx, "failed to start metrics server", "error", err)
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if promServer != nil {
			promServer.Shutdown(shutdownCtx)
		}
		mp.Shutdown(shutdownCtx)
		tp.Stop()
	}, nil
}

func printMarkets(w io.Writer, markets []domain.Market) {
	for _, m := range markets {
		fmt.Fprintf(w, "%-16s %-13s %s/%s\n", m.ID, m.Type, m.Base.Symbol(), m.Quote.Symbol())
	}
}

func printQuote(w io.Writer, q *domain.Quote) {
	fmt.Fprintf(w, "%s  route=%s\n", q, strings.Join(q.Route, " -> "))
}
