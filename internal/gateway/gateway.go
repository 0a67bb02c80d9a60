package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"perp-trader/internal/cache"
	"perp-trader/internal/domain"
	"perp-trader/internal/provider"
)

// ErrNoData is returned when every provider for a capability was skipped or
// failed and no estimate may be substituted.
var ErrNoData = errors.New("no market data available")

type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeRace       Mode = "race"
)

const DefaultBackoff = 500 * time.Millisecond

var (
	DefaultPriceOrder = []domain.ProviderID{
		domain.ProviderCoinPaprika,
		domain.ProviderKraken,
		domain.ProviderCoinbase,
		domain.ProviderCryptoCompare,
		domain.ProviderCoinCap,
		domain.ProviderCoinGecko,
		domain.ProviderBinance,
	}
	DefaultFundingOrder = []domain.ProviderID{
		domain.ProviderCoinGlass,
		domain.ProviderBinance,
	}
	DefaultCandleOrder = []domain.ProviderID{
		domain.ProviderCoinPaprika,
		domain.ProviderKraken,
		domain.ProviderCoinGecko,
		domain.ProviderBinance,
		domain.ProviderCryptoCompare,
	}
)

// Breaker is the subset of the circuit breaker registry the gateway needs.
type Breaker interface {
	IsAvailable(key string) bool
	RecordSuccess(key string)
	RecordFailure(key string)
	RecordGeoRestriction(key string)
	Snapshot() []domain.ProviderHealth
}

type Config struct {
	Mode            Mode
	Backoff         time.Duration
	PriceOrder      []domain.ProviderID
	FundingOrder    []domain.ProviderID
	CandleOrder     []domain.ProviderID
	SyntheticAnchor float64
}

func DefaultConfig() Config {
	return Config{
		Mode:            ModeSequential,
		Backoff:         DefaultBackoff,
		PriceOrder:      DefaultPriceOrder,
		FundingOrder:    DefaultFundingOrder,
		CandleOrder:     DefaultCandleOrder,
		SyntheticAnchor: defaultSyntheticAnchor,
	}
}

// Gateway resolves market data through an ordered list of providers. It owns
// the cache and the breaker registry it is given.
type Gateway struct {
	adapters map[domain.ProviderID]provider.Adapter
	cache    cache.Store
	breaker  Breaker
	cfg      Config
	logger   *zap.Logger
	tracer   trace.Tracer
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error

	randMu sync.Mutex
	rand   *rand.Rand

	group    singleflight.Group
	flightMu sync.Mutex
	flights  map[string]*flight
}

type Option func(*Gateway)

func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(g *Gateway) {
		if t != nil {
			g.tracer = t
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(g *Gateway) {
		if sleep != nil {
			g.sleep = sleep
		}
	}
}

func WithRand(r *rand.Rand) Option {
	return func(g *Gateway) {
		if r != nil {
			g.rand = r
		}
	}
}

func New(adapters map[domain.ProviderID]provider.Adapter, store cache.Store, breaker Breaker, cfg Config, opts ...Option) *Gateway {
	def := DefaultConfig()
	if cfg.Mode == "" {
		cfg.Mode = def.Mode
	}
	if cfg.Backoff < 0 {
		cfg.Backoff = 0
	}
	if cfg.PriceOrder == nil {
		cfg.PriceOrder = def.PriceOrder
	}
	if cfg.FundingOrder == nil {
		cfg.FundingOrder = def.FundingOrder
	}
	if cfg.CandleOrder == nil {
		cfg.CandleOrder = def.CandleOrder
	}
	if cfg.SyntheticAnchor <= 0 {
		cfg.SyntheticAnchor = def.SyntheticAnchor
	}

	g := &Gateway{
		adapters: adapters,
		cache:    store,
		breaker:  breaker,
		cfg:      cfg,
		logger:   zap.NewNop(),
		tracer:   otel.Tracer("perp-trader/gateway"),
		now:      time.Now,
		sleep:    sleepContext,
		rand:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
		flights:  make(map[string]*flight),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (g *Gateway) Mode() Mode {
	return g.cfg.Mode
}

// ProviderHealth reports the breaker state of every provider capability that
// has failed recently.
func (g *Gateway) ProviderHealth() []domain.ProviderHealth {
	return g.breaker.Snapshot()
}

func BreakerKey(id domain.ProviderID, capability domain.Capability) string {
	return string(id) + ":" + string(capability)
}

func priceKey(symbol string) string   { return "price:" + symbol }
func fundingKey(symbol string) string { return "funding:" + symbol }
func candlesKey(symbol, interval string, limit int) string {
	return fmt.Sprintf("candles:%s:%s:%d", symbol, interval, limit)
}

// FetchPrice returns a validated price or an error wrapping ErrNoData. A
// price is never estimated.
func (g *Gateway) FetchPrice(ctx context.Context, asset domain.Asset) (domain.PriceQuote, error) {
	ctx, span := g.tracer.Start(ctx, "gateway.FetchPrice", trace.WithAttributes(attribute.String("symbol", asset.Symbol)))
	defer span.End()

	key := priceKey(asset.Symbol)
	quote, err := shared(ctx, g, key, func(ctx context.Context) (domain.PriceQuote, error) {
		var cached domain.PriceQuote
		if g.cacheGet(ctx, key, &cached) {
			trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("cache_hit", true))
			return cached, nil
		}
		quote, id, err := fetchFirst(ctx, g, domain.CapabilityPrice, g.cfg.PriceOrder,
			func(ctx context.Context, a provider.Adapter) (domain.PriceQuote, error) {
				return a.FetchPrice(ctx, asset)
			},
			validatePrice,
		)
		if err != nil {
			return domain.PriceQuote{}, err
		}
		quote.Symbol = asset.Symbol
		quote.Source = id
		g.cacheSet(ctx, key, quote)
		return quote, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.PriceQuote{}, err
	}
	span.SetAttributes(attribute.String("source", string(quote.Source)))
	return quote, nil
}

// FetchFunding never fails for a known asset: when every provider is down it
// returns an estimate derived from the cached 24h price change.
func (g *Gateway) FetchFunding(ctx context.Context, asset domain.Asset) (domain.FundingInfo, error) {
	ctx, span := g.tracer.Start(ctx, "gateway.FetchFunding", trace.WithAttributes(attribute.String("symbol", asset.Symbol)))
	defer span.End()

	key := fundingKey(asset.Symbol)
	info, err := shared(ctx, g, key, func(ctx context.Context) (domain.FundingInfo, error) {
		var cached domain.FundingInfo
		if g.cacheGet(ctx, key, &cached) {
			trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("cache_hit", true))
			return cached, nil
		}
		info, id, err := fetchFirst(ctx, g, domain.CapabilityFunding, g.cfg.FundingOrder,
			func(ctx context.Context, a provider.Adapter) (domain.FundingInfo, error) {
				return a.FetchFunding(ctx, asset)
			},
			validateFunding,
		)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return domain.FundingInfo{}, ctxErr
			}
			g.logger.Warn("all funding providers failed, using estimate",
				zap.String("symbol", asset.Symbol), zap.Error(err))
			info = g.estimateFunding(ctx, asset)
		} else {
			info.Symbol = asset.Symbol
			info.Source = id
			info.Quality = domain.QualityLive
		}
		g.cacheSet(ctx, key, info)
		return info, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.FundingInfo{}, err
	}
	span.SetAttributes(attribute.String("source", string(info.Source)), attribute.String("quality", string(info.Quality)))
	return info, nil
}

// FetchCandles never fails for a known asset: when every provider is down it
// returns a synthetic series, which is not cached.
func (g *Gateway) FetchCandles(ctx context.Context, asset domain.Asset, interval string, limit int) (domain.CandleSeries, error) {
	ctx, span := g.tracer.Start(ctx, "gateway.FetchCandles", trace.WithAttributes(
		attribute.String("symbol", asset.Symbol),
		attribute.String("interval", interval),
		attribute.Int("limit", limit),
	))
	defer span.End()

	if limit <= 0 {
		limit = domain.DefaultLookback
	}
	key := candlesKey(asset.Symbol, interval, limit)
	series, err := shared(ctx, g, key, func(ctx context.Context) (domain.CandleSeries, error) {
		var cached domain.CandleSeries
		if g.cacheGet(ctx, key, &cached) {
			trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("cache_hit", true))
			return cached, nil
		}
		series, _, err := fetchFirst(ctx, g, domain.CapabilityCandles, g.cfg.CandleOrder,
			func(ctx context.Context, a provider.Adapter) (domain.CandleSeries, error) {
				candles, err := a.FetchCandles(ctx, asset, interval, limit)
				if err != nil {
					return domain.CandleSeries{}, err
				}
				return domain.NewCandleSeries(asset.Symbol, interval, a.ID(), domain.QualityLive, candles), nil
			},
			validateSeries,
		)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return domain.CandleSeries{}, ctxErr
			}
			g.logger.Warn("all candle providers failed, using synthetic series",
				zap.String("symbol", asset.Symbol), zap.String("interval", interval), zap.Error(err))
			return g.syntheticCandles(ctx, asset, interval, limit), nil
		}
		g.cacheSet(ctx, key, series)
		return series, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.CandleSeries{}, err
	}
	span.SetAttributes(attribute.String("source", string(series.Source)), attribute.Int("candles", series.Len()))
	return series, nil
}

// GetMarketSnapshot composes price and funding into one snapshot. It fails
// only when no provider can supply a price.
func (g *Gateway) GetMarketSnapshot(ctx context.Context, asset domain.Asset) (domain.MarketSnapshot, error) {
	quote, err := g.FetchPrice(ctx, asset)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}
	funding, err := g.FetchFunding(ctx, asset)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}
	return domain.NewMarketSnapshot(quote, funding, g.now()), nil
}

func validatePrice(q domain.PriceQuote) error {
	if !(q.Price > 0) || math.IsInf(q.Price, 0) {
		return fmt.Errorf("invalid price %v", q.Price)
	}
	return nil
}

func validateFunding(f domain.FundingInfo) error {
	if math.IsNaN(f.Rate) || math.IsInf(f.Rate, 0) {
		return fmt.Errorf("invalid funding rate %v", f.Rate)
	}
	return nil
}

func validateSeries(s domain.CandleSeries) error {
	if !s.Viable() {
		return fmt.Errorf("insufficient candles: got %d, need %d", s.Len(), domain.MinSeriesLength)
	}
	return nil
}

func (g *Gateway) cacheGet(ctx context.Context, key string, out any) bool {
	raw, ok := g.cache.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		g.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (g *Gateway) cacheSet(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		g.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	g.cache.Set(ctx, key, raw)
}
