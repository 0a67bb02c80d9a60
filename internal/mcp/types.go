package mcp

import (
	"fmt"
	"strings"

	"perp-trader/internal/domain"
	"perp-trader/internal/strategy"
)

type marketSnapshotInput struct {
	Symbol string `json:"symbol" jsonschema:"asset symbol (BTC, ETH, SOL; BTCUSDT form accepted)"`
}

type marketSnapshotOutput struct {
	Snapshot domain.MarketSnapshot `json:"snapshot"`
	Degraded bool                  `json:"degraded"`
}

type runStrategiesInput struct {
	Symbol string `json:"symbol" jsonschema:"asset symbol (BTC, ETH, SOL; BTCUSDT form accepted)"`
}

type runStrategiesOutput struct {
	Report   domain.StrategyReport `json:"report"`
	Degraded bool                  `json:"degraded"`
}

type providerHealthInput struct{}

type providerHealthOutput struct {
	Providers []domain.ProviderHealth `json:"providers"`
}

type strategyInfo struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

func normalizeSymbol(symbol string) (string, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return "", fmt.Errorf("symbol is required")
	}
	normalized, ok := domain.NormalizeSymbol(symbol)
	if !ok {
		return "", fmt.Errorf("unsupported symbol: %s", symbol)
	}
	return normalized, nil
}

func strategyCatalog() []strategyInfo {
	out := make([]strategyInfo, 0, len(strategy.Keys))
	for _, key := range strategy.Keys {
		out = append(out, strategyInfo{Key: key, Name: strategy.Name(key)})
	}
	return out
}

// normalizeReport replaces nil maps and slices with empty ones; the output
// schema types them as object and array, never null.
func normalizeReport(r domain.StrategyReport) domain.StrategyReport {
	signals := make(map[string]domain.TradingSignal, len(r.Signals))
	for k, sig := range r.Signals {
		signals[k] = normalizeSignal(sig)
	}
	r.Signals = signals
	if r.Order == nil {
		r.Order = []string{}
	}
	r.Best = normalizeSignal(r.Best)
	return r
}

func normalizeSignal(sig domain.TradingSignal) domain.TradingSignal {
	if sig.TakeProfits == nil {
		sig.TakeProfits = []float64{}
	}
	if sig.Reasoning == nil {
		sig.Reasoning = []string{}
	}
	return sig
}
