package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"perp-trader/internal/domain"
	"perp-trader/internal/gateway"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestToolsListAndInvoke(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, markets := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	tools, err := session.ListTools(ctx, &sdkmcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("list tools failed: %v", err)
	}
	if len(tools.Tools) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(tools.Tools))
	}

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "market_snapshot", Arguments: map[string]any{"symbol": "btcusdt"}})
	if err != nil {
		t.Fatalf("call tool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}
	if markets.lastSymbol != "BTC" {
		t.Fatalf("expected normalized symbol BTC, got %s", markets.lastSymbol)
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "run_strategies", Arguments: map[string]any{"symbol": "ETH"}})
	if err != nil {
		t.Fatalf("run_strategies failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected run_strategies error: %+v", res.Content)
	}
	var out runStrategiesOutput
	raw, _ := json.Marshal(res.StructuredContent)
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode structured content: %v", err)
	}
	if out.Report.RunID != "run-1" || out.Report.BestKey != "momentum" {
		t.Fatalf("unexpected report %+v", out.Report)
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "provider_health", Arguments: map[string]any{}})
	if err != nil || res.IsError {
		t.Fatalf("provider_health failed: %v %+v", err, res)
	}
}

func TestRunStrategiesToolFillsEmptyCollections(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, markets := testServer()
	markets.report = domain.StrategyReport{RunID: "run-2", Symbol: "SOL"}
	markets.health = nil
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "run_strategies", Arguments: map[string]any{"symbol": "SOL"}})
	if err != nil {
		t.Fatalf("run_strategies failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected run_strategies error: %+v", res.Content)
	}
	raw, _ := json.Marshal(res.StructuredContent)
	var out struct {
		Report map[string]any `json:"report"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode structured content: %v", err)
	}
	if _, ok := out.Report["signals"].(map[string]any); !ok {
		t.Fatalf("expected signals object, got %#v", out.Report["signals"])
	}
	if _, ok := out.Report["order"].([]any); !ok {
		t.Fatalf("expected order array, got %#v", out.Report["order"])
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "provider_health", Arguments: map[string]any{}})
	if err != nil || res.IsError {
		t.Fatalf("provider_health with no tracked providers failed: %v %+v", err, res)
	}
}

func TestToolsValidationFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, _ := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "run_strategies",
		Arguments: map[string]any{"symbol": "FAKE"},
	})
	if err != nil {
		t.Fatalf("unexpected protocol error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool-level validation error")
	}
}

func TestToolsSurfaceNoData(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, markets := testServer()
	markets.err = gateway.ErrNoData
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "market_snapshot", Arguments: map[string]any{"symbol": "SOL"}})
	if err != nil {
		t.Fatalf("unexpected protocol error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool error when no data is available")
	}
}

func TestHTTPTransportRequiresBearerToken(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	srv, _ := testServer()
	ts := httptest.NewServer(NewHTTPTransportHandler(srv, HTTPHandlerConfig{AuthToken: "secret", RateLimitPerMin: 600}))
	defer ts.Close()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-http-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.URL,
		HTTPClient: &http.Client{Transport: &authRoundTripper{token: "secret"}},
	}, nil)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer session.Close()

	tools, err := session.ListTools(ctx, &sdkmcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("list tools failed: %v", err)
	}
	if len(tools.Tools) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(tools.Tools))
	}

	resp, err := http.Post(ts.URL, "application/json", nil)
	if err != nil {
		t.Fatalf("raw post failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
}
