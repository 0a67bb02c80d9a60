package mcp

import (
	"context"
	"fmt"

	"perp-trader/internal/domain"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *mcp.Server, markets Markets) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "market_snapshot",
		Description: "Get price, funding rate, funding countdown and open interest for a perpetual contract",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in marketSnapshotInput) (*mcp.CallToolResult, marketSnapshotOutput, error) {
		if markets == nil {
			return nil, marketSnapshotOutput{}, fmt.Errorf("market service unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, marketSnapshotOutput{}, err
		}
		snap, err := markets.GetMarketSnapshot(ctx, symbol)
		if err != nil {
			return nil, marketSnapshotOutput{}, err
		}
		return nil, marketSnapshotOutput{Snapshot: snap, Degraded: snap.Quality.Degraded()}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_strategies",
		Description: "Run momentum, mean reversion, funding arbitrage and liquidation hunt strategies and return every signal plus the best one. Advisory only.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in runStrategiesInput) (*mcp.CallToolResult, runStrategiesOutput, error) {
		if markets == nil {
			return nil, runStrategiesOutput{}, fmt.Errorf("market service unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, runStrategiesOutput{}, err
		}
		report, err := markets.RunStrategies(ctx, symbol)
		if err != nil {
			return nil, runStrategiesOutput{}, err
		}
		return nil, runStrategiesOutput{Report: normalizeReport(report), Degraded: report.Degraded()}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "provider_health",
		Description: "List data providers currently tracked by the circuit breaker",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ providerHealthInput) (*mcp.CallToolResult, providerHealthOutput, error) {
		if markets == nil {
			return nil, providerHealthOutput{}, fmt.Errorf("market service unavailable")
		}
		providers := markets.Providers(ctx)
		if providers == nil {
			providers = []domain.ProviderHealth{}
		}
		return nil, providerHealthOutput{Providers: providers}, nil
	})
}
