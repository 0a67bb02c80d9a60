package provider

import (
	"context"
	"time"

	"perp-trader/internal/domain"
)

// Adapter is implemented once per data source. Capabilities a source does
// not offer fail with an error for which IsUnsupported is true.
type Adapter interface {
	ID() domain.ProviderID
	FetchPrice(ctx context.Context, asset domain.Asset) (domain.PriceQuote, error)
	FetchFunding(ctx context.Context, asset domain.Asset) (domain.FundingInfo, error)
	FetchCandles(ctx context.Context, asset domain.Asset, interval string, limit int) ([]domain.Candle, error)
}

// Endpoints holds the base URL of every provider. Zero values fall back to
// the public production hosts.
type Endpoints struct {
	CoinPaprika    string `yaml:"coinpaprika"`
	Kraken         string `yaml:"kraken"`
	Coinbase       string `yaml:"coinbase"`
	CryptoCompare  string `yaml:"cryptocompare"`
	CoinCap        string `yaml:"coincap"`
	CoinGecko      string `yaml:"coingecko"`
	CoinGlass      string `yaml:"coinglass"`
	BinanceSpot    string `yaml:"binance_spot"`
	BinanceFutures string `yaml:"binance_futures"`
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		CoinPaprika:    "https://api.coinpaprika.com",
		Kraken:         "https://api.kraken.com",
		Coinbase:       "https://api.exchange.coinbase.com",
		CryptoCompare:  "https://min-api.cryptocompare.com",
		CoinCap:        "https://api.coincap.io",
		CoinGecko:      "https://api.coingecko.com",
		CoinGlass:      "https://open-api.coinglass.com",
		BinanceSpot:    "https://api.binance.com",
		BinanceFutures: "https://fapi.binance.com",
	}
}

func (e Endpoints) withDefaults() Endpoints {
	d := DefaultEndpoints()
	pick := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}
	return Endpoints{
		CoinPaprika:    pick(e.CoinPaprika, d.CoinPaprika),
		Kraken:         pick(e.Kraken, d.Kraken),
		Coinbase:       pick(e.Coinbase, d.Coinbase),
		CryptoCompare:  pick(e.CryptoCompare, d.CryptoCompare),
		CoinCap:        pick(e.CoinCap, d.CoinCap),
		CoinGecko:      pick(e.CoinGecko, d.CoinGecko),
		CoinGlass:      pick(e.CoinGlass, d.CoinGlass),
		BinanceSpot:    pick(e.BinanceSpot, d.BinanceSpot),
		BinanceFutures: pick(e.BinanceFutures, d.BinanceFutures),
	}
}

// NewAdapters builds one adapter per known provider, keyed by id.
func NewAdapters(client *Client, endpoints Endpoints, now func() time.Time) map[domain.ProviderID]Adapter {
	if now == nil {
		now = time.Now
	}
	e := endpoints.withDefaults()
	all := []Adapter{
		NewCoinPaprika(client, e.CoinPaprika, now),
		NewKraken(client, e.Kraken),
		NewCoinbase(client, e.Coinbase),
		NewCryptoCompare(client, e.CryptoCompare),
		NewCoinCap(client, e.CoinCap),
		NewCoinGecko(client, e.CoinGecko),
		NewCoinGlass(client, e.CoinGlass, now),
		NewBinance(client, e.BinanceSpot, e.BinanceFutures, now),
	}
	out := make(map[domain.ProviderID]Adapter, len(all))
	for _, a := range all {
		out[a.ID()] = a
	}
	return out
}

// nextFundingTime returns the next 8h settlement boundary (00:00, 08:00,
// 16:00 UTC) strictly after now.
func nextFundingTime(now time.Time) time.Time {
	return now.UTC().Truncate(8 * time.Hour).Add(8 * time.Hour)
}
