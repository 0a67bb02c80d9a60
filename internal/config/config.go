package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"perp-trader/internal/domain"
	"perp-trader/internal/provider"
	"perp-trader/internal/strategy"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel  string
	LogFormat string
	LogFile   string

	HTTPPort    string
	CORSOrigins []string

	TelegramBotToken string

	CacheBackend string
	RedisURL     string
	CachePrefix  string
	CacheTTL     time.Duration

	GatewayMode     string
	GatewayBackoff  time.Duration
	SyntheticAnchor float64

	BreakerThreshold   int
	BreakerCooldown    time.Duration
	BreakerGeoCooldown time.Duration

	StrategyInterval string
	StrategyLookback int

	MCPTransport          string
	MCPHTTPEnabled        bool
	MCPHTTPBind           string
	MCPHTTPPort           int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int
	MCPRateLimitPerMin    int

	Trading   strategy.Params
	Endpoints provider.Endpoints

	// Warnings collects non-fatal problems found while loading so the caller
	// can log them once a logger exists.
	Warnings []string
}

// fileConfig is the optional YAML document named by CONFIG_FILE.
type fileConfig struct {
	Trading   strategy.Params    `yaml:"trading"`
	Endpoints provider.Endpoints `yaml:"endpoints"`
	Gateway   struct {
		Mode            string  `yaml:"mode"`
		BackoffMillis   int     `yaml:"backoff_ms"`
		SyntheticAnchor float64 `yaml:"synthetic_anchor"`
	} `yaml:"gateway"`
	Strategy struct {
		Interval string `yaml:"interval"`
		Lookback int    `yaml:"lookback"`
	} `yaml:"strategy"`
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		MCPAuthToken:     os.Getenv("MCP_AUTH_TOKEN"),
		LogFile:          strings.TrimSpace(os.Getenv("LOG_FILE")),
		Trading:          strategy.DefaultParams(),
		Endpoints:        provider.DefaultEndpoints(),
		GatewayBackoff:   500 * time.Millisecond,
		StrategyInterval: domain.DefaultInterval,
		StrategyLookback: domain.DefaultLookback,
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			cfg.warn("%v", err)
		}
	}

	if cfg.TelegramBotToken == "" {
		cfg.warn("TELEGRAM_BOT_TOKEN not set, telegram bot disabled")
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	if cfg.LogFormat != "json" {
		cfg.LogFormat = "console"
	}

	cfg.HTTPPort = strings.TrimSpace(os.Getenv("PORT"))
	if cfg.HTTPPort == "" {
		cfg.HTTPPort = "8080"
	}
	cfg.CORSOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(os.Getenv("CACHE_BACKEND")))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "memory"
	}
	if cfg.CacheBackend != "memory" && cfg.CacheBackend != "redis" {
		cfg.warn("unsupported CACHE_BACKEND=%q, defaulting to memory", cfg.CacheBackend)
		cfg.CacheBackend = "memory"
	}
	if cfg.CacheBackend == "redis" && cfg.RedisURL == "" {
		cfg.warn("REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	cfg.CachePrefix = strings.TrimSpace(os.Getenv("CACHE_PREFIX"))
	if cfg.CachePrefix == "" {
		cfg.CachePrefix = "perp-trader"
	}
	cfg.CacheTTL = time.Duration(positiveInt("CACHE_TTL_SECS", 60)) * time.Second

	if v := strings.ToLower(strings.TrimSpace(os.Getenv("GATEWAY_MODE"))); v != "" {
		cfg.GatewayMode = v
	}
	switch cfg.GatewayMode {
	case "":
		cfg.GatewayMode = "sequential"
	case "sequential", "race":
	default:
		cfg.warn("unsupported GATEWAY_MODE=%q, defaulting to sequential", cfg.GatewayMode)
		cfg.GatewayMode = "sequential"
	}
	if v := strings.TrimSpace(os.Getenv("GATEWAY_BACKOFF_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.GatewayBackoff = time.Duration(n) * time.Millisecond
		}
	}

	cfg.BreakerThreshold = positiveInt("BREAKER_THRESHOLD", 3)
	cfg.BreakerCooldown = time.Duration(positiveInt("BREAKER_COOLDOWN_SECS", 300)) * time.Second
	cfg.BreakerGeoCooldown = time.Duration(positiveInt("BREAKER_GEO_COOLDOWN_SECS", 3600)) * time.Second

	if v := strings.TrimSpace(os.Getenv("STRATEGY_INTERVAL")); v != "" {
		cfg.StrategyInterval = v
	}
	if !domain.IsSupportedInterval(cfg.StrategyInterval) {
		cfg.warn("unsupported strategy interval %q, defaulting to %s", cfg.StrategyInterval, domain.DefaultInterval)
		cfg.StrategyInterval = domain.DefaultInterval
	}
	cfg.StrategyLookback = positiveInt("STRATEGY_LOOKBACK", cfg.StrategyLookback)

	cfg.Trading.Capital = positiveFloat("TRADING_CAPITAL", cfg.Trading.Capital)
	cfg.Trading.RiskPerTrade = positiveFloat("TRADING_RISK_PER_TRADE", cfg.Trading.RiskPerTrade)
	cfg.Trading.MaxLeverage = positiveFloat("TRADING_MAX_LEVERAGE", cfg.Trading.MaxLeverage)

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		cfg.warn("unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPHTTPEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("MCP_HTTP_ENABLED")), "true")

	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}
	cfg.MCPHTTPPort = positiveInt("MCP_HTTP_PORT", 8090)
	cfg.MCPRequestTimeoutSecs = positiveInt("MCP_REQUEST_TIMEOUT_SECS", 30)
	cfg.MCPRateLimitPerMin = positiveInt("MCP_RATE_LIMIT_PER_MIN", 60)

	return cfg
}

// applyFile overlays the YAML document onto cfg. Environment variables are
// read afterwards and win.
func (cfg *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Trading.Capital > 0 {
		cfg.Trading.Capital = fc.Trading.Capital
	}
	if fc.Trading.RiskPerTrade > 0 {
		cfg.Trading.RiskPerTrade = fc.Trading.RiskPerTrade
	}
	if fc.Trading.MaxLeverage >= 1 {
		cfg.Trading.MaxLeverage = fc.Trading.MaxLeverage
	}
	if fc.Trading.MaintenanceMargin > 0 {
		cfg.Trading.MaintenanceMargin = fc.Trading.MaintenanceMargin
	}

	e := fc.Endpoints
	override := func(dst *string, v string) {
		if v = strings.TrimRight(strings.TrimSpace(v), "/"); v != "" {
			*dst = v
		}
	}
	override(&cfg.Endpoints.CoinPaprika, e.CoinPaprika)
	override(&cfg.Endpoints.Kraken, e.Kraken)
	override(&cfg.Endpoints.Coinbase, e.Coinbase)
	override(&cfg.Endpoints.CryptoCompare, e.CryptoCompare)
	override(&cfg.Endpoints.CoinCap, e.CoinCap)
	override(&cfg.Endpoints.CoinGecko, e.CoinGecko)
	override(&cfg.Endpoints.CoinGlass, e.CoinGlass)
	override(&cfg.Endpoints.BinanceSpot, e.BinanceSpot)
	override(&cfg.Endpoints.BinanceFutures, e.BinanceFutures)

	cfg.GatewayMode = strings.ToLower(strings.TrimSpace(fc.Gateway.Mode))
	if fc.Gateway.BackoffMillis > 0 {
		cfg.GatewayBackoff = time.Duration(fc.Gateway.BackoffMillis) * time.Millisecond
	}
	if fc.Gateway.SyntheticAnchor > 0 {
		cfg.SyntheticAnchor = fc.Gateway.SyntheticAnchor
	}
	if fc.Strategy.Interval != "" {
		cfg.StrategyInterval = fc.Strategy.Interval
	}
	if fc.Strategy.Lookback > 0 {
		cfg.StrategyLookback = fc.Strategy.Lookback
	}
	return nil
}

func (cfg *Config) warn(format string, args ...any) {
	cfg.Warnings = append(cfg.Warnings, fmt.Sprintf(format, args...))
}

// HTTPAddr returns the listen address for PORT, accepting both "9090" and ":9090".
func (cfg *Config) HTTPAddr() string {
	if strings.HasPrefix(cfg.HTTPPort, ":") {
		return cfg.HTTPPort
	}
	return ":" + cfg.HTTPPort
}

func positiveInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func positiveFloat(key string, fallback float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
