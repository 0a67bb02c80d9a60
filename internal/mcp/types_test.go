package mcp

import (
	"testing"

	"perp-trader/internal/domain"
	"perp-trader/internal/strategy"
)

func TestNormalizeSymbol(t *testing.T) {
	cases := map[string]string{" btc ": "BTC", "ETH-USDT": "ETH", "solusd": "SOL"}
	for in, want := range cases {
		got, err := normalizeSymbol(in)
		if err != nil {
			t.Fatalf("normalizeSymbol(%q) unexpected error: %v", in, err)
		}
		if got != want {
			t.Fatalf("normalizeSymbol(%q) = %s, want %s", in, got, want)
		}
	}

	if _, err := normalizeSymbol("fake"); err == nil {
		t.Fatal("expected unsupported symbol error")
	}
	if _, err := normalizeSymbol("  "); err == nil {
		t.Fatal("expected required symbol error")
	}
}

func TestStrategyCatalogFollowsKeys(t *testing.T) {
	catalog := strategyCatalog()
	if len(catalog) != len(strategy.Keys) {
		t.Fatalf("expected %d entries, got %d", len(strategy.Keys), len(catalog))
	}
	for i, key := range strategy.Keys {
		if catalog[i].Key != key || catalog[i].Name == "" {
			t.Fatalf("unexpected entry %d: %+v", i, catalog[i])
		}
	}
}

func TestNormalizeReportReplacesNilCollections(t *testing.T) {
	in := domain.StrategyReport{
		Signals: map[string]domain.TradingSignal{strategy.KeyMomentum: {Action: domain.ActionHold}},
	}
	out := normalizeReport(in)
	if out.Order == nil || out.Best.TakeProfits == nil || out.Best.Reasoning == nil {
		t.Fatalf("expected empty slices, got %+v", out)
	}
	sig := out.Signals[strategy.KeyMomentum]
	if sig.TakeProfits == nil || sig.Reasoning == nil {
		t.Fatalf("expected signal slices filled, got %+v", sig)
	}
	if in.Signals[strategy.KeyMomentum].Reasoning != nil {
		t.Fatal("input report must not be modified")
	}

	if got := normalizeReport(domain.StrategyReport{}); got.Signals == nil {
		t.Fatal("expected empty signals map")
	}
}
