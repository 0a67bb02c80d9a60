package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"perp-trader/internal/domain"
	"perp-trader/internal/gateway"
	"perp-trader/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubMarkets struct {
	snap      domain.MarketSnapshot
	report    domain.StrategyReport
	health    []domain.ProviderHealth
	err       error
	lastInput string
}

func (s *stubMarkets) GetMarketSnapshot(_ context.Context, symbol string) (domain.MarketSnapshot, error) {
	s.lastInput = symbol
	return s.snap, s.err
}

func (s *stubMarkets) RunStrategies(_ context.Context, symbol string) (domain.StrategyReport, error) {
	s.lastInput = symbol
	return s.report, s.err
}

func (s *stubMarkets) Providers(context.Context) []domain.ProviderHealth { return s.health }

func newTestRouter(markets MarketService) *gin.Engine {
	h := New(trace.NewNoopTracerProvider().Tracer("handler-test"), markets)
	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func serve(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	w := serve(newTestRouter(&stubMarkets{}), "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGetSnapshotSuccess(t *testing.T) {
	markets := &stubMarkets{snap: domain.MarketSnapshot{Symbol: "BTC", Price: 101000, Quality: domain.QualityLive}}
	w := serve(newTestRouter(markets), "/api/snapshot/btcusdt")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var snap domain.MarketSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if snap.Symbol != "BTC" || snap.Price != 101000 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if markets.lastInput != "btcusdt" {
		t.Fatalf("expected raw symbol passed through, got %q", markets.lastInput)
	}
	if w.Header().Get("X-Data-Quality") != "" {
		t.Fatal("live data must not carry a quality header")
	}
}

func TestGetSnapshotEstimatedSetsHeader(t *testing.T) {
	markets := &stubMarkets{snap: domain.MarketSnapshot{Symbol: "BTC", Price: 1, Quality: domain.QualityEstimated}}
	w := serve(newTestRouter(markets), "/api/snapshot/BTC")
	if got := w.Header().Get("X-Data-Quality"); got != "estimated" {
		t.Fatalf("expected estimated header, got %q", got)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{name: "unsupported", err: fmt.Errorf("%w: DOGE", service.ErrUnsupportedSymbol), code: http.StatusBadRequest},
		{name: "no data", err: fmt.Errorf("snapshot BTC: %w", gateway.ErrNoData), code: http.StatusServiceUnavailable},
		{name: "timeout", err: context.DeadlineExceeded, code: http.StatusGatewayTimeout},
		{name: "other", err: errors.New("boom"), code: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&stubMarkets{err: tc.err})
			for _, path := range []string{"/api/snapshot/BTC", "/api/strategies/BTC"} {
				if w := serve(r, path); w.Code != tc.code {
					t.Fatalf("%s: expected %d, got %d", path, tc.code, w.Code)
				}
			}
		})
	}
}

func TestUnsupportedSymbolListsSupported(t *testing.T) {
	r := newTestRouter(&stubMarkets{err: service.ErrUnsupportedSymbol})
	w := serve(r, "/api/snapshot/DOGE")

	var resp struct {
		Supported []string `json:"supported_symbols"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(resp.Supported) != len(domain.SupportedSymbols) {
		t.Fatalf("expected supported symbols, got %v", resp.Supported)
	}
}

func TestRunStrategiesSuccess(t *testing.T) {
	report := domain.StrategyReport{
		RunID:         "run-1",
		Symbol:        "ETH",
		SeriesQuality: domain.QualitySynthetic,
		BestKey:       "momentum",
		Best:          domain.TradingSignal{Strategy: "Momentum Breakout", Action: domain.ActionHold},
	}
	w := serve(newTestRouter(&stubMarkets{report: report}), "/api/strategies/ETH")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Report   domain.StrategyReport `json:"report"`
		Degraded bool                  `json:"degraded"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if resp.Report.RunID != "run-1" || !resp.Degraded {
		t.Fatalf("unexpected payload %+v", resp)
	}
}

func TestGetProviders(t *testing.T) {
	markets := &stubMarkets{health: []domain.ProviderHealth{{Key: "binance:funding", Kind: domain.FailureGeoRestricted}}}
	w := serve(newTestRouter(markets), "/api/providers")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Providers []domain.ProviderHealth `json:"providers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(resp.Providers) != 1 || resp.Providers[0].Kind != domain.FailureGeoRestricted {
		t.Fatalf("unexpected providers %+v", resp.Providers)
	}
}

func TestNilServiceUnavailable(t *testing.T) {
	h := New(trace.NewNoopTracerProvider().Tracer("handler-test"), nil)
	r := gin.New()
	h.RegisterRoutes(r)
	if w := serve(r, "/api/snapshot/BTC"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}
