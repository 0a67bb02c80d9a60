package provider

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"time"

	"perp-trader/internal/domain"
)

type CryptoCompare struct {
	client  *Client
	baseURL string
}

func NewCryptoCompare(client *Client, baseURL string) *CryptoCompare {
	return &CryptoCompare{client: client, baseURL: baseURL}
}

func (c *CryptoCompare) ID() domain.ProviderID { return domain.ProviderCryptoCompare }

// CryptoCompare reports failures in-band as {"Response":"Error"}.
type cryptoCompareStatus struct {
	Response string `json:"Response"`
	Message  string `json:"Message"`
}

func (c *CryptoCompare) checkStatus(capability domain.Capability, st cryptoCompareStatus) error {
	if st.Response != "Error" {
		return nil
	}
	kind := KindTransient
	if LooksGeoRestricted(0, st.Message) {
		kind = KindGeoRestricted
	}
	return &Error{Provider: c.ID(), Capability: capability, Kind: kind, Err: errors.New(st.Message)}
}

type cryptoCompareFull struct {
	cryptoCompareStatus
	Raw map[string]map[string]struct {
		Price        number `json:"PRICE"`
		Volume24hTo  number `json:"VOLUME24HOURTO"`
		ChangePct24h number `json:"CHANGEPCT24HOUR"`
	} `json:"RAW"`
}

func (c *CryptoCompare) FetchPrice(ctx context.Context, asset domain.Asset) (domain.PriceQuote, error) {
	q := url.Values{}
	q.Set("fsyms", asset.Symbol)
	q.Set("tsyms", "USD")
	q.Set("relaxedValidation", "true")

	var body cryptoCompareFull
	if err := c.client.getJSON(ctx, c.ID(), domain.CapabilityPrice, PriceTimeout, c.baseURL+"/data/pricemultifull", q, &body); err != nil {
		return domain.PriceQuote{}, err
	}
	if err := c.checkStatus(domain.CapabilityPrice, body.cryptoCompareStatus); err != nil {
		return domain.PriceQuote{}, err
	}
	usd, ok := body.Raw[asset.Symbol]["USD"]
	if !ok || usd.Price <= 0 {
		return domain.PriceQuote{}, transient(c.ID(), domain.CapabilityPrice, errors.New("missing USD quote"))
	}
	return domain.PriceQuote{
		Symbol:         asset.Symbol,
		Price:          float64(usd.Price),
		Volume24h:      float64(usd.Volume24hTo),
		PriceChange24h: float64(usd.ChangePct24h),
		Source:         c.ID(),
	}, nil
}

func (c *CryptoCompare) FetchFunding(context.Context, domain.Asset) (domain.FundingInfo, error) {
	return domain.FundingInfo{}, unsupported(c.ID(), domain.CapabilityFunding)
}

type cryptoCompareHisto struct {
	cryptoCompareStatus
	Data struct {
		Data []struct {
			Time     int64  `json:"time"`
			Open     number `json:"open"`
			High     number `json:"high"`
			Low      number `json:"low"`
			Close    number `json:"close"`
			VolumeTo number `json:"volumeto"`
		} `json:"Data"`
	} `json:"Data"`
}

func (c *CryptoCompare) FetchCandles(ctx context.Context, asset domain.Asset, interval string, limit int) ([]domain.Candle, error) {
	if interval != "1h" {
		return nil, unsupported(c.ID(), domain.CapabilityCandles)
	}
	q := url.Values{}
	q.Set("fsym", asset.Symbol)
	q.Set("tsym", "USD")
	q.Set("limit", strconv.Itoa(limit))

	var body cryptoCompareHisto
	if err := c.client.getJSON(ctx, c.ID(), domain.CapabilityCandles, CandlesTimeout, c.baseURL+"/data/v2/histohour", q, &body); err != nil {
		return nil, err
	}
	if err := c.checkStatus(domain.CapabilityCandles, body.cryptoCompareStatus); err != nil {
		return nil, err
	}

	candles := make([]domain.Candle, 0, len(body.Data.Data))
	for _, row := range body.Data.Data {
		candles = append(candles, domain.Candle{
			OpenTime: time.Unix(row.Time, 0).UTC(),
			Open:     float64(row.Open),
			High:     float64(row.High),
			Low:      float64(row.Low),
			Close:    float64(row.Close),
			Volume:   float64(row.VolumeTo),
		})
	}
	return tail(candles, limit), nil
}
