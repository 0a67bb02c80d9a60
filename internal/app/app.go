// Package app assembles the market data stack shared by the HTTP server and
// the MCP server.
package app

import (
	"context"
	"net/http"
	"time"

	"perp-trader/internal/breaker"
	"perp-trader/internal/cache"
	"perp-trader/internal/config"
	"perp-trader/internal/gateway"
	"perp-trader/internal/provider"
	"perp-trader/internal/service"
	"perp-trader/internal/strategy"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Stack holds the wired components. Close releases the shared cache client.
type Stack struct {
	Service *service.MarketService
	Gateway *gateway.Gateway
	Breaker *breaker.Registry
	Cache   cache.Store

	redis *redis.Client
}

func (s *Stack) Close() error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Close()
}

// Options overrides the outbound transport and clock, mostly for tests.
type Options struct {
	Transport http.RoundTripper
	Now       func() time.Time
}

var newRedisClient = cache.NewRedisClient

// Build wires cache, breaker, adapters, gateway and strategy engine behind a
// MarketService. A Redis backend that cannot be reached falls back to the
// in-memory cache.
func Build(ctx context.Context, cfg *config.Config, tracer trace.Tracer, logger *zap.Logger, opts Options) *Stack {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tracer == nil {
		tracer = otel.Tracer("perp-trader")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	stack := &Stack{}
	stack.Cache = cache.NewMemoryWithClock(cfg.CacheTTL, now)
	if cfg.CacheBackend == "redis" {
		client, err := newRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, using in-memory cache", zap.Error(err))
		} else {
			stack.redis = client
			stack.Cache = cache.NewRedis(client, cfg.CachePrefix, cfg.CacheTTL, logger.Named("cache"))
		}
	}

	stack.Breaker = breaker.NewRegistry(
		breaker.WithThreshold(cfg.BreakerThreshold),
		breaker.WithCooldown(cfg.BreakerCooldown),
		breaker.WithGeoCooldown(cfg.BreakerGeoCooldown),
		breaker.WithClock(now),
	)

	client := provider.NewClient(opts.Transport)
	adapters := provider.NewAdapters(client, cfg.Endpoints, now)

	gwCfg := gateway.DefaultConfig()
	gwCfg.Mode = gateway.Mode(cfg.GatewayMode)
	gwCfg.Backoff = cfg.GatewayBackoff
	gwCfg.SyntheticAnchor = cfg.SyntheticAnchor

	stack.Gateway = gateway.New(adapters, stack.Cache, stack.Breaker, gwCfg,
		gateway.WithLogger(logger.Named("gateway")),
		gateway.WithTracer(tracer),
		gateway.WithClock(now),
	)

	engine := strategy.NewEngine(cfg.Trading, now)
	stack.Service = service.NewMarketService(tracer, stack.Gateway, engine,
		service.WithLogger(logger.Named("service")),
		service.WithSeries(cfg.StrategyInterval, cfg.StrategyLookback),
		service.WithClock(now),
	)

	logger.Info("market stack ready",
		zap.String("cache", cfg.CacheBackend),
		zap.String("gateway_mode", cfg.GatewayMode),
		zap.Int("providers", len(adapters)),
	)
	return stack
}
