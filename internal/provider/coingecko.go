package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"perp-trader/internal/domain"
)

// CoinGecko switches market_chart to hourly granularity between 2 and 90 days.
const coinGeckoMaxDays = 90

type CoinGecko struct {
	client  *Client
	baseURL string
}

func NewCoinGecko(client *Client, baseURL string) *CoinGecko {
	return &CoinGecko{client: client, baseURL: baseURL}
}

func (g *CoinGecko) ID() domain.ProviderID { return domain.ProviderCoinGecko }

type coinGeckoSimplePrice map[string]struct {
	USD       number `json:"usd"`
	USDVol    number `json:"usd_24h_vol"`
	USDChange number `json:"usd_24h_change"`
}

func (g *CoinGecko) FetchPrice(ctx context.Context, asset domain.Asset) (domain.PriceQuote, error) {
	q := url.Values{}
	q.Set("ids", asset.CoinGeckoID)
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_vol", "true")
	q.Set("include_24hr_change", "true")

	var body coinGeckoSimplePrice
	if err := g.client.getJSON(ctx, g.ID(), domain.CapabilityPrice, PriceTimeout, g.baseURL+"/api/v3/simple/price", q, &body); err != nil {
		return domain.PriceQuote{}, err
	}
	coin, ok := body[asset.CoinGeckoID]
	if !ok || coin.USD <= 0 {
		return domain.PriceQuote{}, transient(g.ID(), domain.CapabilityPrice, errors.New("missing usd price"))
	}
	return domain.PriceQuote{
		Symbol:         asset.Symbol,
		Price:          float64(coin.USD),
		Volume24h:      float64(coin.USDVol),
		PriceChange24h: float64(coin.USDChange),
		Source:         g.ID(),
	}, nil
}

func (g *CoinGecko) FetchFunding(context.Context, domain.Asset) (domain.FundingInfo, error) {
	return domain.FundingInfo{}, unsupported(g.ID(), domain.CapabilityFunding)
}

type coinGeckoMarketChart struct {
	Prices       [][2]float64 `json:"prices"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

func (g *CoinGecko) FetchCandles(ctx context.Context, asset domain.Asset, interval string, limit int) ([]domain.Candle, error) {
	if interval != "1h" {
		return nil, unsupported(g.ID(), domain.CapabilityCandles)
	}
	days := min(max(limit/24+2, 2), coinGeckoMaxDays)
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("days", strconv.Itoa(days))

	var body coinGeckoMarketChart
	endpoint := fmt.Sprintf("%s/api/v3/coins/%s/market_chart", g.baseURL, url.PathEscape(asset.CoinGeckoID))
	if err := g.client.getJSON(ctx, g.ID(), domain.CapabilityCandles, CandlesTimeout, endpoint, q, &body); err != nil {
		return nil, err
	}

	candles := make([]domain.Candle, 0, len(body.Prices))
	for i, p := range body.Prices {
		c := domain.Candle{
			OpenTime: time.UnixMilli(int64(p[0])).UTC(),
			Close:    p[1],
		}
		if i < len(body.TotalVolumes) {
			c.Volume = body.TotalVolumes[i][1]
		}
		candles = append(candles, c)
	}
	interpolateOHLC(candles)
	return tail(candles, limit), nil
}
