package mcp

import (
	"context"

	"perp-trader/internal/domain"
)

// Markets exposes the market snapshot and strategy entry points.
type Markets interface {
	GetMarketSnapshot(ctx context.Context, symbol string) (domain.MarketSnapshot, error)
	RunStrategies(ctx context.Context, symbol string) (domain.StrategyReport, error)
	Providers(ctx context.Context) []domain.ProviderHealth
}
