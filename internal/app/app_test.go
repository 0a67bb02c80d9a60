package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"perp-trader/internal/cache"
	"perp-trader/internal/config"
	"perp-trader/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	for _, key := range []string{"CONFIG_FILE", "CACHE_BACKEND", "REDIS_URL", "GATEWAY_MODE", "GATEWAY_BACKOFF_MS"} {
		t.Setenv(key, "")
	}
	t.Setenv("GATEWAY_BACKOFF_MS", "0")
	return config.Load()
}

// pointEndpoints routes every provider at one httptest server.
func pointEndpoints(cfg *config.Config, url string) {
	cfg.Endpoints.CoinPaprika = url
	cfg.Endpoints.Kraken = url
	cfg.Endpoints.Coinbase = url
	cfg.Endpoints.CryptoCompare = url
	cfg.Endpoints.CoinCap = url
	cfg.Endpoints.CoinGecko = url
	cfg.Endpoints.CoinGlass = url
	cfg.Endpoints.BinanceSpot = url
	cfg.Endpoints.BinanceFutures = url
}

func TestBuildServesSnapshotFromFirstProvider(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if strings.HasPrefix(r.URL.Path, "/v1/tickers/btc-bitcoin") {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"quotes": map[string]any{
					"USD": map[string]any{"price": 101000.0, "volume_24h": 3.2e10, "percent_change_24h": 1.5},
				},
			})
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig(t)
	pointEndpoints(cfg, srv.URL)
	stack := Build(context.Background(), cfg, nil, zap.NewNop(), Options{Now: func() time.Time { return fixedNow }})
	defer stack.Close()

	snap, err := stack.Service.GetMarketSnapshot(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Price != 101000 || snap.PriceSource != domain.ProviderCoinPaprika {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.Quality != domain.QualityEstimated {
		t.Fatalf("expected estimated funding when funding providers fail, got %s", snap.Quality)
	}
	if len(stack.Breaker.Snapshot()) == 0 {
		t.Fatal("expected funding provider failures to be tracked")
	}
	if len(paths) == 0 {
		t.Fatal("expected outbound requests")
	}
}

func TestBuildUsesRedisWhenConfigured(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.CacheBackend = "redis"
	cfg.RedisURL = mr.Addr()

	stack := Build(context.Background(), cfg, nil, zap.NewNop(), Options{})
	defer stack.Close()

	if _, ok := stack.Cache.(*cache.Redis); !ok {
		t.Fatalf("expected redis cache, got %T", stack.Cache)
	}
}

func TestBuildFallsBackToMemoryWhenRedisDown(t *testing.T) {
	orig := newRedisClient
	newRedisClient = func(context.Context, string) (*redis.Client, error) {
		return nil, errors.New("connection refused")
	}
	defer func() { newRedisClient = orig }()

	core, logs := observer.New(zap.WarnLevel)
	cfg := testConfig(t)
	cfg.CacheBackend = "redis"

	stack := Build(context.Background(), cfg, nil, zap.New(core), Options{})
	if _, ok := stack.Cache.(*cache.Memory); !ok {
		t.Fatalf("expected memory cache, got %T", stack.Cache)
	}
	if logs.FilterMessage("redis unavailable, using in-memory cache").Len() != 1 {
		t.Fatal("expected redis fallback warning")
	}
	if err := stack.Close(); err != nil {
		t.Fatalf("close without redis: %v", err)
	}
}
