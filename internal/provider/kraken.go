package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"perp-trader/internal/domain"
)

var krakenIntervals = map[string]int{
	"5m":  5,
	"15m": 15,
	"1h":  60,
	"4h":  240,
	"1d":  1440,
}

type Kraken struct {
	client  *Client
	baseURL string
}

func NewKraken(client *Client, baseURL string) *Kraken {
	return &Kraken{client: client, baseURL: baseURL}
}

func (k *Kraken) ID() domain.ProviderID { return domain.ProviderKraken }

type krakenEnvelope struct {
	Error  []string                   `json:"error"`
	Result map[string]json.RawMessage `json:"result"`
}

// Kraken reports failures in-band with HTTP 200.
func (k *Kraken) checkEnvelope(capability domain.Capability, env krakenEnvelope) error {
	if len(env.Error) == 0 {
		return nil
	}
	msg := strings.Join(env.Error, "; ")
	kind := KindTransient
	if LooksGeoRestricted(0, msg) {
		kind = KindGeoRestricted
	}
	return &Error{Provider: k.ID(), Capability: capability, Kind: kind, Err: errors.New(msg)}
}

type krakenTicker struct {
	C []string `json:"c"`
	V []string `json:"v"`
}

func (k *Kraken) FetchPrice(ctx context.Context, asset domain.Asset) (domain.PriceQuote, error) {
	q := url.Values{}
	q.Set("pair", asset.KrakenPair)

	var env krakenEnvelope
	if err := k.client.getJSON(ctx, k.ID(), domain.CapabilityPrice, PriceTimeout, k.baseURL+"/0/public/Ticker", q, &env); err != nil {
		return domain.PriceQuote{}, err
	}
	if err := k.checkEnvelope(domain.CapabilityPrice, env); err != nil {
		return domain.PriceQuote{}, err
	}

	for _, raw := range env.Result {
		var t krakenTicker
		if err := json.Unmarshal(raw, &t); err != nil {
			return domain.PriceQuote{}, transient(k.ID(), domain.CapabilityPrice, fmt.Errorf("decode ticker: %w", err))
		}
		if len(t.C) == 0 || len(t.V) < 2 {
			break
		}
		price, err := parseFloat(t.C[0])
		if err != nil {
			return domain.PriceQuote{}, transient(k.ID(), domain.CapabilityPrice, err)
		}
		baseVolume, err := parseFloat(t.V[1])
		if err != nil {
			return domain.PriceQuote{}, transient(k.ID(), domain.CapabilityPrice, err)
		}
		return domain.PriceQuote{
			Symbol:    asset.Symbol,
			Price:     price,
			Volume24h: baseVolume * price,
			Source:    k.ID(),
		}, nil
	}
	return domain.PriceQuote{}, transient(k.ID(), domain.CapabilityPrice, errors.New("missing ticker"))
}

func (k *Kraken) FetchFunding(context.Context, domain.Asset) (domain.FundingInfo, error) {
	return domain.FundingInfo{}, unsupported(k.ID(), domain.CapabilityFunding)
}

func (k *Kraken) FetchCandles(ctx context.Context, asset domain.Asset, interval string, limit int) ([]domain.Candle, error) {
	minutes, ok := krakenIntervals[interval]
	if !ok {
		return nil, unsupported(k.ID(), domain.CapabilityCandles)
	}
	q := url.Values{}
	q.Set("pair", asset.KrakenPair)
	q.Set("interval", strconv.Itoa(minutes))

	var env krakenEnvelope
	if err := k.client.getJSON(ctx, k.ID(), domain.CapabilityCandles, CandlesTimeout, k.baseURL+"/0/public/OHLC", q, &env); err != nil {
		return nil, err
	}
	if err := k.checkEnvelope(domain.CapabilityCandles, env); err != nil {
		return nil, err
	}

	for key, raw := range env.Result {
		if key == "last" {
			continue
		}
		var rows [][]any
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, transient(k.ID(), domain.CapabilityCandles, fmt.Errorf("decode ohlc: %w", err))
		}
		candles := make([]domain.Candle, 0, len(rows))
		for _, row := range rows {
			c, err := parseKrakenRow(row)
			if err != nil {
				return nil, transient(k.ID(), domain.CapabilityCandles, err)
			}
			candles = append(candles, c)
		}
		return tail(candles, limit), nil
	}
	return nil, transient(k.ID(), domain.CapabilityCandles, errors.New("missing ohlc result"))
}

// parseKrakenRow decodes [time, open, high, low, close, vwap, volume, count].
func parseKrakenRow(row []any) (domain.Candle, error) {
	if len(row) < 7 {
		return domain.Candle{}, fmt.Errorf("short ohlc row of %d fields", len(row))
	}
	ts, ok := row[0].(float64)
	if !ok {
		return domain.Candle{}, fmt.Errorf("invalid ohlc time %v", row[0])
	}
	var vals [5]float64
	for i, idx := range []int{1, 2, 3, 4, 6} {
		s, ok := row[idx].(string)
		if !ok {
			return domain.Candle{}, fmt.Errorf("invalid ohlc field %v", row[idx])
		}
		v, err := parseFloat(s)
		if err != nil {
			return domain.Candle{}, err
		}
		vals[i] = v
	}
	return domain.Candle{
		OpenTime: time.Unix(int64(ts), 0).UTC(),
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
	}, nil
}
