package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"perp-trader/internal/domain"
)

type CoinCap struct {
	client  *Client
	baseURL string
}

func NewCoinCap(client *Client, baseURL string) *CoinCap {
	return &CoinCap{client: client, baseURL: baseURL}
}

func (c *CoinCap) ID() domain.ProviderID { return domain.ProviderCoinCap }

type coinCapAsset struct {
	Data *struct {
		PriceUSD          number `json:"priceUsd"`
		VolumeUSD24Hr     number `json:"volumeUsd24Hr"`
		ChangePercent24Hr number `json:"changePercent24Hr"`
	} `json:"data"`
}

func (c *CoinCap) FetchPrice(ctx context.Context, asset domain.Asset) (domain.PriceQuote, error) {
	var body coinCapAsset
	endpoint := fmt.Sprintf("%s/v2/assets/%s", c.baseURL, url.PathEscape(asset.CoinCapID))
	if err := c.client.getJSON(ctx, c.ID(), domain.CapabilityPrice, PriceTimeout, endpoint, nil, &body); err != nil {
		return domain.PriceQuote{}, err
	}
	if body.Data == nil || body.Data.PriceUSD <= 0 {
		return domain.PriceQuote{}, transient(c.ID(), domain.CapabilityPrice, errors.New("missing asset data"))
	}
	return domain.PriceQuote{
		Symbol:         asset.Symbol,
		Price:          float64(body.Data.PriceUSD),
		Volume24h:      float64(body.Data.VolumeUSD24Hr),
		PriceChange24h: float64(body.Data.ChangePercent24Hr),
		Source:         c.ID(),
	}, nil
}

func (c *CoinCap) FetchFunding(context.Context, domain.Asset) (domain.FundingInfo, error) {
	return domain.FundingInfo{}, unsupported(c.ID(), domain.CapabilityFunding)
}

func (c *CoinCap) FetchCandles(context.Context, domain.Asset, string, int) ([]domain.Candle, error) {
	return nil, unsupported(c.ID(), domain.CapabilityCandles)
}
