package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"perp-trader/internal/domain"
)

type Coinbase struct {
	client  *Client
	baseURL string
}

func NewCoinbase(client *Client, baseURL string) *Coinbase {
	return &Coinbase{client: client, baseURL: baseURL}
}

func (c *Coinbase) ID() domain.ProviderID { return domain.ProviderCoinbase }

type coinbaseTicker struct {
	Price  number `json:"price"`
	Volume number `json:"volume"`
}

func (c *Coinbase) FetchPrice(ctx context.Context, asset domain.Asset) (domain.PriceQuote, error) {
	var t coinbaseTicker
	endpoint := fmt.Sprintf("%s/products/%s/ticker", c.baseURL, url.PathEscape(asset.CoinbaseProduct))
	if err := c.client.getJSON(ctx, c.ID(), domain.CapabilityPrice, PriceTimeout, endpoint, nil, &t); err != nil {
		return domain.PriceQuote{}, err
	}
	if t.Price <= 0 {
		return domain.PriceQuote{}, transient(c.ID(), domain.CapabilityPrice, errors.New("missing price"))
	}
	return domain.PriceQuote{
		Symbol:    asset.Symbol,
		Price:     float64(t.Price),
		Volume24h: float64(t.Volume) * float64(t.Price),
		Source:    c.ID(),
	}, nil
}

func (c *Coinbase) FetchFunding(context.Context, domain.Asset) (domain.FundingInfo, error) {
	return domain.FundingInfo{}, unsupported(c.ID(), domain.CapabilityFunding)
}

func (c *Coinbase) FetchCandles(context.Context, domain.Asset, string, int) ([]domain.Candle, error) {
	return nil, unsupported(c.ID(), domain.CapabilityCandles)
}
