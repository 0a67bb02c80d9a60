package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"perp-trader/internal/domain"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerResources(server *mcp.Server, markets Markets) {
	server.AddResource(&mcp.Resource{
		URI:         "market://supported-symbols",
		Name:        "supported-symbols",
		Description: "List of symbols supported by the service",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return jsonResource(req.Params.URI, domain.SupportedSymbols)
	})

	server.AddResource(&mcp.Resource{
		URI:         "market://strategies",
		Name:        "strategies",
		Description: "Strategy keys and names in evaluation order",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return jsonResource(req.Params.URI, strategyCatalog())
	})

	server.AddResource(&mcp.Resource{
		URI:         "providers://health",
		Name:        "provider-health",
		Description: "Circuit breaker state for every tracked provider capability",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if markets == nil {
			return nil, fmt.Errorf("market service unavailable")
		}
		return jsonResource(req.Params.URI, providerHealthOutput{Providers: markets.Providers(ctx)})
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "snapshot://symbol/{symbol}",
		Name:        "snapshot-by-symbol",
		Description: "Latest market snapshot for a specific symbol",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if markets == nil {
			return nil, fmt.Errorf("market service unavailable")
		}

		parsed, err := url.Parse(req.Params.URI)
		if err != nil {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if parsed.Scheme != "snapshot" || parsed.Host != "symbol" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		symbol, err := normalizeSymbol(strings.Trim(strings.TrimSpace(parsed.Path), "/"))
		if err != nil {
			return nil, err
		}
		snap, err := markets.GetMarketSnapshot(ctx, symbol)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, marketSnapshotOutput{Snapshot: snap, Degraded: snap.Quality.Degraded()})
	})
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		}},
	}, nil
}
