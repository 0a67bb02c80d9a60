package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"

	"perp-trader/internal/domain"
)

// Binance reads spot prices from the spot API and funding, open interest and
// klines from the USD-M futures API. Both hosts are geo-blocked in several
// regions, so the gateway tracks them under separate breaker keys.
type Binance struct {
	client  *Client
	spot    *binance.Client
	futures *futures.Client
	now     func() time.Time
}

func NewBinance(client *Client, spotURL, futuresURL string, now func() time.Time) *Binance {
	httpClient := client.HTTPClient(domain.ProviderBinance)

	spot := binance.NewClient("", "")
	spot.HTTPClient = httpClient
	if spotURL != "" {
		spot.BaseURL = spotURL
	}

	fut := futures.NewClient("", "")
	fut.HTTPClient = httpClient
	if futuresURL != "" {
		fut.BaseURL = futuresURL
	}

	return &Binance{client: client, spot: spot, futures: fut, now: now}
}

func (b *Binance) ID() domain.ProviderID { return domain.ProviderBinance }

func (b *Binance) classify(capability domain.Capability, err error) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) && LooksGeoRestricted(0, apiErr.Message) {
		return &Error{Provider: b.ID(), Capability: capability, Kind: KindGeoRestricted, Err: err}
	}
	return classify(b.ID(), capability, err)
}

func (b *Binance) FetchPrice(ctx context.Context, asset domain.Asset) (domain.PriceQuote, error) {
	ctx, cancel := context.WithTimeout(ctx, PriceTimeout)
	defer cancel()
	if err := b.client.Wait(ctx, b.ID()); err != nil {
		return domain.PriceQuote{}, transient(b.ID(), domain.CapabilityPrice, err)
	}

	stats, err := b.spot.NewListPriceChangeStatsService().Symbol(asset.BinanceSymbol).Do(ctx)
	if err != nil {
		return domain.PriceQuote{}, b.classify(domain.CapabilityPrice, err)
	}
	if len(stats) == 0 || stats[0].LastPrice == "" {
		return domain.PriceQuote{}, transient(b.ID(), domain.CapabilityPrice, errors.New("missing ticker"))
	}

	s := stats[0]
	price, err := parseFloat(s.LastPrice)
	if err != nil {
		return domain.PriceQuote{}, transient(b.ID(), domain.CapabilityPrice, err)
	}
	quoteVolume, err := parseFloat(s.QuoteVolume)
	if err != nil {
		return domain.PriceQuote{}, transient(b.ID(), domain.CapabilityPrice, err)
	}
	change, err := parseFloat(s.PriceChangePercent)
	if err != nil {
		return domain.PriceQuote{}, transient(b.ID(), domain.CapabilityPrice, err)
	}
	return domain.PriceQuote{
		Symbol:         asset.Symbol,
		Price:          price,
		Volume24h:      quoteVolume,
		PriceChange24h: change,
		Source:         b.ID(),
	}, nil
}

// FetchFunding combines the premium index with open interest. Open interest
// is reported in contracts and converted to USD at the mark price.
func (b *Binance) FetchFunding(ctx context.Context, asset domain.Asset) (domain.FundingInfo, error) {
	fctx, cancel := context.WithTimeout(ctx, FundingTimeout)
	defer cancel()
	if err := b.client.Wait(fctx, b.ID()); err != nil {
		return domain.FundingInfo{}, transient(b.ID(), domain.CapabilityFunding, err)
	}

	indexes, err := b.futures.NewPremiumIndexService().Symbol(asset.BinanceSymbol).Do(fctx)
	if err != nil {
		return domain.FundingInfo{}, b.classify(domain.CapabilityFunding, err)
	}
	if len(indexes) == 0 || indexes[0].LastFundingRate == "" {
		return domain.FundingInfo{}, transient(b.ID(), domain.CapabilityFunding, errors.New("missing funding rate"))
	}
	idx := indexes[0]
	rate, err := parseFloat(idx.LastFundingRate)
	if err != nil {
		return domain.FundingInfo{}, transient(b.ID(), domain.CapabilityFunding, err)
	}
	markPrice, err := parseFloat(idx.MarkPrice)
	if err != nil {
		return domain.FundingInfo{}, transient(b.ID(), domain.CapabilityFunding, err)
	}

	openInterest, err := b.openInterest(ctx, asset)
	if err != nil {
		return domain.FundingInfo{}, err
	}

	countdown := idx.NextFundingTime - b.now().UnixMilli()
	if countdown < 0 {
		countdown = 0
	}
	return domain.FundingInfo{
		Symbol:          asset.Symbol,
		Rate:            rate,
		CountdownMillis: countdown,
		OpenInterest:    openInterest * markPrice,
		Source:          b.ID(),
		Quality:         domain.QualityLive,
	}, nil
}

func (b *Binance) openInterest(ctx context.Context, asset domain.Asset) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, OpenInterestTimeout)
	defer cancel()
	if err := b.client.Wait(ctx, b.ID()); err != nil {
		return 0, transient(b.ID(), domain.CapabilityFunding, err)
	}

	oi, err := b.futures.NewGetOpenInterestService().Symbol(asset.BinanceSymbol).Do(ctx)
	if err != nil {
		return 0, b.classify(domain.CapabilityFunding, fmt.Errorf("open interest: %w", err))
	}
	if oi == nil || oi.OpenInterest == "" {
		return 0, transient(b.ID(), domain.CapabilityFunding, errors.New("missing open interest"))
	}
	v, err := parseFloat(oi.OpenInterest)
	if err != nil {
		return 0, transient(b.ID(), domain.CapabilityFunding, err)
	}
	return v, nil
}

func (b *Binance) FetchCandles(ctx context.Context, asset domain.Asset, interval string, limit int) ([]domain.Candle, error) {
	ctx, cancel := context.WithTimeout(ctx, CandlesTimeout)
	defer cancel()
	if err := b.client.Wait(ctx, b.ID()); err != nil {
		return nil, transient(b.ID(), domain.CapabilityCandles, err)
	}

	klines, err := b.futures.NewKlinesService().
		Symbol(asset.BinanceSymbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, b.classify(domain.CapabilityCandles, err)
	}

	candles := make([]domain.Candle, 0, len(klines))
	for _, k := range klines {
		c, err := klineToCandle(k)
		if err != nil {
			return nil, transient(b.ID(), domain.CapabilityCandles, err)
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func klineToCandle(k *futures.Kline) (domain.Candle, error) {
	var vals [5]float64
	for i, s := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		v, err := parseFloat(s)
		if err != nil {
			return domain.Candle{}, err
		}
		vals[i] = v
	}
	return domain.Candle{
		OpenTime: time.UnixMilli(k.OpenTime).UTC(),
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
	}, nil
}
