package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"perp-trader/internal/domain"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type stubMarkets struct {
	snap   domain.MarketSnapshot
	report domain.StrategyReport
	health []domain.ProviderHealth
	err    error

	lastSymbol string
}

func (s *stubMarkets) GetMarketSnapshot(_ context.Context, symbol string) (domain.MarketSnapshot, error) {
	s.lastSymbol = symbol
	return s.snap, s.err
}

func (s *stubMarkets) RunStrategies(_ context.Context, symbol string) (domain.StrategyReport, error) {
	s.lastSymbol = symbol
	return s.report, s.err
}

func (s *stubMarkets) Providers(context.Context) []domain.ProviderHealth {
	return append([]domain.ProviderHealth(nil), s.health...)
}

func testServer() (*sdkmcp.Server, *stubMarkets) {
	best := domain.TradingSignal{
		Strategy: "Momentum Breakout", Action: domain.ActionLong, Confidence: 0.8,
		TakeProfits: []float64{104000}, Reasoning: []string{"Strong 1-period momentum"},
	}
	markets := &stubMarkets{
		snap: domain.MarketSnapshot{
			Symbol: "BTC", Price: 101000, FundingRate: 0.0001, Quality: domain.QualityLive,
			Timestamp: time.Unix(0, 0).UTC(),
		},
		report: domain.StrategyReport{
			RunID:   "run-1",
			Symbol:  "BTC",
			Signals: map[string]domain.TradingSignal{"momentum": best},
			Order:   []string{"momentum"},
			BestKey: "momentum",
			Best:    best,
		},
		health: []domain.ProviderHealth{{Key: "binance:funding", Failures: 999, Kind: domain.FailureGeoRestricted}},
	}
	srv := NewServer(nil, markets, ServerConfig{RequestTimeout: time.Second})
	return srv, markets
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

type authRoundTripper struct {
	token string
	base  http.RoundTripper
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.token)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}
