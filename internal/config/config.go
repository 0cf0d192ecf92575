// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Config holds all SDK configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	API       APIConfig       `mapstructure:"api"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Quote     QuoteConfig     `mapstructure:"quote"`
	Stream    StreamConfig    `mapstructure:"stream"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// IsDevelopment reports whether logs should go to the console writer.
func (c AppConfig) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// APIConfig holds the trading backend endpoints.
type APIConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	WebSocketURL      string        `mapstructure:"websocket_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

// WalletConfig identifies the signing wallet.
type WalletConfig struct {
	Network    string `mapstructure:"network"`
	Address    string `mapstructure:"address"`
	PrivateKey string `mapstructure:"private_key"`
}

// AddressHex returns the wallet address as common.Address.
func (c *WalletConfig) AddressHex() common.Address {
	return common.HexToAddress(c.Address)
}

// HasSigner reports whether a key is configured for authenticated calls.
func (c *WalletConfig) HasSigner() bool {
	return c.PrivateKey != ""
}

// QuoteConfig holds quote engine defaults.
type QuoteConfig struct {
	DefaultTakerFeePips int64          `mapstructure:"default_taker_fee_pips"`
	DefaultMakerFeePips int64          `mapstructure:"default_maker_fee_pips"`
	Adapters            []AdapterRoute `mapstructure:"adapters"`
}

// AdapterRoute sends quotes for Market through the Adapter order book.
// It is a list rather than a map because viper lowercases map keys.
type AdapterRoute struct {
	Market  string `mapstructure:"market"`
	Adapter string `mapstructure:"adapter"`
}

// AdapterMap returns the routes keyed by market ID.
func (c *QuoteConfig) AdapterMap() map[string]string {
	m := make(map[string]string, len(c.Adapters))
	for _, r := range c.Adapters {
		m[r.Market] = r.Adapter
	}
	return m
}

// StreamConfig holds realtime snapshot settings.
type StreamConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Markets        []string      `mapstructure:"markets"`
	StaleTimeout   time.Duration `mapstructure:"stale_timeout"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	Exporter       string `mapstructure:"exporter"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
	HealthPort     int    `mapstructure:"health_port"`
}

// Headers parses OTLPHeaders ("k1=v1,k2=v2"). Malformed pairs are skipped.
func (c *TelemetryConfig) Headers() map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(c.OTLPHeaders, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" {
			continue
		}
		headers[k] = v
	}
	return headers
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("TSDK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "TSDK_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "TSDK_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "TSDK_LOG_LEVEL", "LOG_LEVEL")

	// API
	v.BindEnv("api.base_url", "TSDK_API_URL")
	v.BindEnv("api.websocket_url", "TSDK_WS_URL")
	v.BindEnv("api.requests_per_minute", "TSDK_REQUESTS_PER_MINUTE")

	// Wallet
	v.BindEnv("wallet.network", "TSDK_WALLET_NETWORK")
	v.BindEnv("wallet.address", "TSDK_WALLET_ADDRESS")
	v.BindEnv("wallet.private_key", "TSDK_WALLET_PRIVATE_KEY")

	// Stream
	v.BindEnv("stream.enabled", "TSDK_STREAM_ENABLED")
	v.BindEnv("stream.markets", "TSDK_STREAM_MARKETS")

	// Telemetry
	v.BindEnv("telemetry.enabled", "TSDK_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "TSDK_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.exporter", "TSDK_OTEL_EXPORTER")
	v.BindEnv("telemetry.otlp_endpoint", "TSDK_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "TSDK_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "trading-sdk")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("api.base_url", "https://api.testnet.example-exchange.io/v1")
	v.SetDefault("api.websocket_url", "wss://api.testnet.example-exchange.io/ws")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("api.requests_per_minute", 600)
	v.SetDefault("api.cache_ttl", "30s")

	v.SetDefault("wallet.network", "evm")

	// 0.1% taker, 0.05% maker
	v.SetDefault("quote.default_taker_fee_pips", 1000)
	v.SetDefault("quote.default_maker_fee_pips", 500)

	v.SetDefault("stream.enabled", false)
	v.SetDefault("stream.stale_timeout", "5s")
	v.SetDefault("stream.initial_backoff", "1s")
	v.SetDefault("stream.max_backoff", "30s")
	v.SetDefault("stream.max_reconnects", 0) // infinite

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "trading-sdk")
	v.SetDefault("telemetry.exporter", "console")
	v.SetDefault("telemetry.prometheus_port", 9090)
	v.SetDefault("telemetry.health_port", 8081)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validateURL("api.base_url", c.API.BaseURL, "http", "https"); err != nil {
		return err
	}
	if c.Stream.Enabled {
		if err := validateURL("api.websocket_url", c.API.WebSocketURL, "ws", "wss"); err != nil {
			return err
		}
	}
	switch c.Wallet.Network {
	case "evm":
		if c.Wallet.Address != "" && !common.IsHexAddress(c.Wallet.Address) {
			return fmt.Errorf("invalid wallet.address: %s", c.Wallet.Address)
		}
	case "bitcoin":
		if c.Wallet.PrivateKey != "" {
			return fmt.Errorf("wallet.private_key is only supported on evm; bitcoin signs externally")
		}
	default:
		return fmt.Errorf("unsupported wallet.network: %q", c.Wallet.Network)
	}
	if err := validateFeePips("quote.default_taker_fee_pips", c.Quote.DefaultTakerFeePips); err != nil {
		return err
	}
	if err := validateFeePips("quote.default_maker_fee_pips", c.Quote.DefaultMakerFeePips); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Quote.Adapters))
	for _, r := range c.Quote.Adapters {
		if r.Market == "" || r.Adapter == "" {
			return fmt.Errorf("quote.adapters: market and adapter are required")
		}
		if r.Market == r.Adapter {
			return fmt.Errorf("quote.adapters: market %s cannot adapt through itself", r.Market)
		}
		if seen[r.Market] {
			return fmt.Errorf("quote.adapters: duplicate route for %s", r.Market)
		}
		seen[r.Market] = true
	}
	if c.Telemetry.Enabled {
		switch c.Telemetry.Exporter {
		case "console", "zipkin", "otlp-grpc", "otlp-http", "none":
		default:
			return fmt.Errorf("unsupported telemetry.exporter: %q", c.Telemetry.Exporter)
		}
	}
	return nil
}

func validateURL(key, raw string, schemes ...string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("invalid %s: scheme must be one of %v", key, schemes)
}

// Fee pips are millionths; one million would take the whole trade.
func validateFeePips(key string, pips int64) error {
	if pips < 0 || pips >= 1_000_000 {
		return fmt.Errorf("%s must be in [0, 1000000), got %d", key, pips)
	}
	return nil
}
