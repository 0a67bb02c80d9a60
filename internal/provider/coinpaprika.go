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

var coinPaprikaIntervals = map[string]string{
	"5m":  "5m",
	"15m": "15m",
	"1h":  "1h",
	"1d":  "1d",
}

type CoinPaprika struct {
	client  *Client
	baseURL string
	now     func() time.Time
}

func NewCoinPaprika(client *Client, baseURL string, now func() time.Time) *CoinPaprika {
	return &CoinPaprika{client: client, baseURL: baseURL, now: now}
}

func (p *CoinPaprika) ID() domain.ProviderID { return domain.ProviderCoinPaprika }

type paprikaTicker struct {
	Quotes map[string]struct {
		Price            number `json:"price"`
		Volume24h        number `json:"volume_24h"`
		PercentChange24h number `json:"percent_change_24h"`
	} `json:"quotes"`
}

func (p *CoinPaprika) FetchPrice(ctx context.Context, asset domain.Asset) (domain.PriceQuote, error) {
	var body paprikaTicker
	endpoint := fmt.Sprintf("%s/v1/tickers/%s", p.baseURL, url.PathEscape(asset.CoinPaprikaID))
	if err := p.client.getJSON(ctx, p.ID(), domain.CapabilityPrice, PriceTimeout, endpoint, nil, &body); err != nil {
		return domain.PriceQuote{}, err
	}
	usd, ok := body.Quotes["USD"]
	if !ok || usd.Price <= 0 {
		return domain.PriceQuote{}, transient(p.ID(), domain.CapabilityPrice, errors.New("missing USD quote"))
	}
	return domain.PriceQuote{
		Symbol:         asset.Symbol,
		Price:          float64(usd.Price),
		Volume24h:      float64(usd.Volume24h),
		PriceChange24h: float64(usd.PercentChange24h),
		Source:         p.ID(),
	}, nil
}

func (p *CoinPaprika) FetchFunding(context.Context, domain.Asset) (domain.FundingInfo, error) {
	return domain.FundingInfo{}, unsupported(p.ID(), domain.CapabilityFunding)
}

type paprikaHistoricalPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     number    `json:"price"`
	Volume24h number    `json:"volume_24h"`
}

func (p *CoinPaprika) FetchCandles(ctx context.Context, asset domain.Asset, interval string, limit int) ([]domain.Candle, error) {
	paprikaInterval, ok := coinPaprikaIntervals[interval]
	if !ok {
		return nil, unsupported(p.ID(), domain.CapabilityCandles)
	}
	step, _ := domain.IntervalDuration(interval)
	start := p.now().Add(-time.Duration(limit) * step)

	q := url.Values{}
	q.Set("start", strconv.FormatInt(start.Unix(), 10))
	q.Set("interval", paprikaInterval)
	q.Set("limit", strconv.Itoa(limit))

	var points []paprikaHistoricalPoint
	endpoint := fmt.Sprintf("%s/v1/tickers/%s/historical", p.baseURL, url.PathEscape(asset.CoinPaprikaID))
	if err := p.client.getJSON(ctx, p.ID(), domain.CapabilityCandles, CandlesTimeout, endpoint, q, &points); err != nil {
		return nil, err
	}

	candles := make([]domain.Candle, 0, len(points))
	for _, pt := range points {
		candles = append(candles, domain.Candle{
			OpenTime: pt.Timestamp.UTC(),
			Close:    float64(pt.Price),
			Volume:   float64(pt.Volume24h),
		})
	}
	interpolateOHLC(candles)
	return tail(candles, limit), nil
}
