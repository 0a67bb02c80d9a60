package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"perp-trader/internal/domain"
	"perp-trader/internal/strategy"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var ErrUnsupportedSymbol = errors.New("unsupported symbol")

type MarketGateway interface {
	GetMarketSnapshot(ctx context.Context, asset domain.Asset) (domain.MarketSnapshot, error)
	FetchCandles(ctx context.Context, asset domain.Asset, interval string, limit int) (domain.CandleSeries, error)
	ProviderHealth() []domain.ProviderHealth
}

type StrategyRunner interface {
	Run(series domain.CandleSeries, snap domain.MarketSnapshot) map[string]domain.TradingSignal
}

type MarketService struct {
	tracer   trace.Tracer
	gateway  MarketGateway
	engine   StrategyRunner
	logger   *zap.Logger
	interval string
	lookback int
	now      func() time.Time
	newRunID func() string
}

type Option func(*MarketService)

func WithLogger(l *zap.Logger) Option {
	return func(s *MarketService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSeries sets the candle interval and lookback fed to the strategies.
// Unsupported intervals and non-positive lookbacks keep the defaults.
func WithSeries(interval string, lookback int) Option {
	return func(s *MarketService) {
		if domain.IsSupportedInterval(interval) {
			s.interval = interval
		}
		if lookback > 0 {
			s.lookback = lookback
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *MarketService) {
		if now != nil {
			s.now = now
		}
	}
}

func WithRunIDs(next func() string) Option {
	return func(s *MarketService) {
		if next != nil {
			s.newRunID = next
		}
	}
}

func NewMarketService(tracer trace.Tracer, gateway MarketGateway, engine StrategyRunner, opts ...Option) *MarketService {
	s := &MarketService{
		tracer:   tracer,
		gateway:  gateway,
		engine:   engine,
		logger:   zap.NewNop(),
		interval: domain.DefaultInterval,
		lookback: domain.DefaultLookback,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func resolveAsset(symbol string) (domain.Asset, error) {
	normalized, ok := domain.NormalizeSymbol(symbol)
	if !ok {
		return domain.Asset{}, fmt.Errorf("%w: %s", ErrUnsupportedSymbol, symbol)
	}
	return domain.Assets[normalized], nil
}

// GetMarketSnapshot returns the freshest snapshot the gateway can assemble.
// It fails only when no provider can supply a price.
func (s *MarketService) GetMarketSnapshot(ctx context.Context, symbol string) (domain.MarketSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.get-market-snapshot")
	defer span.End()

	asset, err := resolveAsset(symbol)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}
	span.SetAttributes(attribute.String("symbol", asset.Symbol))

	snap, err := s.gateway.GetMarketSnapshot(ctx, asset)
	if err != nil {
		span.RecordError(err)
		return domain.MarketSnapshot{}, fmt.Errorf("snapshot %s: %w", asset.Symbol, err)
	}
	span.SetAttributes(attribute.String("quality", string(snap.Quality)))
	return snap, nil
}

// RunStrategies evaluates every strategy against one snapshot and one
// historical series and selects the best actionable signal.
func (s *MarketService) RunStrategies(ctx context.Context, symbol string) (domain.StrategyReport, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.run-strategies")
	defer span.End()

	asset, err := resolveAsset(symbol)
	if err != nil {
		return domain.StrategyReport{}, err
	}
	runID := s.newRunID()
	span.SetAttributes(attribute.String("symbol", asset.Symbol), attribute.String("run_id", runID))

	snap, err := s.gateway.GetMarketSnapshot(ctx, asset)
	if err != nil {
		span.RecordError(err)
		return domain.StrategyReport{}, fmt.Errorf("snapshot %s: %w", asset.Symbol, err)
	}

	series, err := s.gateway.FetchCandles(ctx, asset, s.interval, s.lookback)
	if err != nil {
		span.RecordError(err)
		return domain.StrategyReport{}, fmt.Errorf("candles %s %s: %w", asset.Symbol, s.interval, err)
	}

	signals := s.engine.Run(series, snap)
	bestKey, best := strategy.SelectBest(signals, strategy.Keys)

	report := domain.StrategyReport{
		RunID:         runID,
		Symbol:        asset.Symbol,
		Snapshot:      snap,
		SeriesQuality: series.Quality,
		SeriesSource:  series.Source,
		Signals:       signals,
		Order:         append([]string(nil), strategy.Keys...),
		BestKey:       bestKey,
		Best:          best,
		GeneratedAt:   s.now().UTC(),
	}

	span.SetAttributes(
		attribute.String("best", bestKey),
		attribute.String("action", string(best.Action)),
		attribute.Bool("degraded", report.Degraded()),
	)
	s.logger.Info("strategies evaluated",
		zap.String("run_id", runID),
		zap.String("symbol", asset.Symbol),
		zap.String("best", bestKey),
		zap.String("action", string(best.Action)),
		zap.Float64("confidence", best.Confidence),
		zap.Bool("degraded", report.Degraded()),
	)
	return report, nil
}

// Providers reports the breaker state of every tracked provider capability.
func (s *MarketService) Providers(ctx context.Context) []domain.ProviderHealth {
	_, span := s.tracer.Start(ctx, "market-service.providers")
	defer span.End()
	return s.gateway.ProviderHealth()
}
