package provider

import (
	"context"
	"errors"
	"net/url"
	"time"

	"perp-trader/internal/domain"
)

type CoinGlass struct {
	client  *Client
	baseURL string
	now     func() time.Time
}

func NewCoinGlass(client *Client, baseURL string, now func() time.Time) *CoinGlass {
	return &CoinGlass{client: client, baseURL: baseURL, now: now}
}

func (g *CoinGlass) ID() domain.ProviderID { return domain.ProviderCoinGlass }

func (g *CoinGlass) FetchPrice(context.Context, domain.Asset) (domain.PriceQuote, error) {
	return domain.PriceQuote{}, unsupported(g.ID(), domain.CapabilityPrice)
}

type coinGlassFunding struct {
	Msg  string `json:"msg"`
	Data []struct {
		FundingRate  *number `json:"fundingRate"`
		OpenInterest number  `json:"openInterest"`
	} `json:"data"`
}

func (g *CoinGlass) FetchFunding(ctx context.Context, asset domain.Asset) (domain.FundingInfo, error) {
	q := url.Values{}
	q.Set("symbol", asset.Symbol)
	q.Set("exchange", "Binance")

	var body coinGlassFunding
	if err := g.client.getJSON(ctx, g.ID(), domain.CapabilityFunding, FundingTimeout, g.baseURL+"/public/v2/funding", q, &body); err != nil {
		return domain.FundingInfo{}, err
	}
	if len(body.Data) == 0 || body.Data[0].FundingRate == nil {
		msg := "missing funding rate"
		if body.Msg != "" {
			msg += ": " + body.Msg
		}
		kind := KindTransient
		if LooksGeoRestricted(0, body.Msg) {
			kind = KindGeoRestricted
		}
		return domain.FundingInfo{}, &Error{Provider: g.ID(), Capability: domain.CapabilityFunding, Kind: kind, Err: errors.New(msg)}
	}

	now := g.now()
	latest := body.Data[0]
	return domain.FundingInfo{
		Symbol:          asset.Symbol,
		Rate:            float64(*latest.FundingRate),
		CountdownMillis: nextFundingTime(now).Sub(now).Milliseconds(),
		OpenInterest:    float64(latest.OpenInterest),
		Source:          g.ID(),
		Quality:         domain.QualityLive,
	}, nil
}

func (g *CoinGlass) FetchCandles(context.Context, domain.Asset, string, int) ([]domain.Candle, error) {
	return nil, unsupported(g.ID(), domain.CapabilityCandles)
}
