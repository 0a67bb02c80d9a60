package domain

import (
	"sort"
	"strings"
	"time"
)

// Asset maps a tradable symbol onto the identifier each provider uses for it.
type Asset struct {
	Symbol          string
	Name            string
	CoinPaprikaID   string
	KrakenPair      string
	CoinbaseProduct string
	CoinCapID       string
	CoinGeckoID     string
	BinanceSymbol   string
}

var Assets = map[string]Asset{
	"BTC": {
		Symbol:          "BTC",
		Name:            "Bitcoin",
		CoinPaprikaID:   "btc-bitcoin",
		KrakenPair:      "XBTUSD",
		CoinbaseProduct: "BTC-USD",
		CoinCapID:       "bitcoin",
		CoinGeckoID:     "bitcoin",
		BinanceSymbol:   "BTCUSDT",
	},
	"ETH": {
		Symbol:          "ETH",
		Name:            "Ethereum",
		CoinPaprikaID:   "eth-ethereum",
		KrakenPair:      "ETHUSD",
		CoinbaseProduct: "ETH-USD",
		CoinCapID:       "ethereum",
		CoinGeckoID:     "ethereum",
		BinanceSymbol:   "ETHUSDT",
	},
	"SOL": {
		Symbol:          "SOL",
		Name:            "Solana",
		CoinPaprikaID:   "sol-solana",
		KrakenPair:      "SOLUSD",
		CoinbaseProduct: "SOL-USD",
		CoinCapID:       "solana",
		CoinGeckoID:     "solana",
		BinanceSymbol:   "SOLUSDT",
	},
}

var SupportedSymbols = supportedSymbols()

var SupportedIntervals = []string{"5m", "15m", "1h", "4h", "1d"}

const (
	DefaultSymbol   = "BTC"
	DefaultInterval = "1h"
	DefaultLookback = 200
)

func supportedSymbols() []string {
	out := make([]string, 0, len(Assets))
	for symbol := range Assets {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}

// NormalizeSymbol accepts "btc", "BTCUSDT" or "BTC-USD" style input and
// returns the canonical asset symbol.
func NormalizeSymbol(raw string) (string, bool) {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	symbol = strings.ReplaceAll(symbol, "-", "")
	symbol = strings.ReplaceAll(symbol, "/", "")
	for _, quote := range []string{"USDT", "USD"} {
		if trimmed := strings.TrimSuffix(symbol, quote); trimmed != "" && trimmed != symbol {
			symbol = trimmed
			break
		}
	}
	if _, ok := Assets[symbol]; !ok {
		return "", false
	}
	return symbol, true
}

var intervalDurations = map[string]time.Duration{
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
}

func IsSupportedInterval(interval string) bool {
	_, ok := intervalDurations[interval]
	return ok
}

func IntervalDuration(interval string) (time.Duration, bool) {
	d, ok := intervalDurations[interval]
	return d, ok
}

type ProviderID string

const (
	ProviderCoinPaprika   ProviderID = "coinpaprika"
	ProviderKraken        ProviderID = "kraken"
	ProviderCoinbase      ProviderID = "coinbase"
	ProviderCryptoCompare ProviderID = "cryptocompare"
	ProviderCoinCap       ProviderID = "coincap"
	ProviderCoinGecko     ProviderID = "coingecko"
	ProviderBinance       ProviderID = "binance"
	ProviderCoinGlass     ProviderID = "coinglass"

	// ProviderEstimate marks values the gateway derived itself after every
	// provider failed.
	ProviderEstimate ProviderID = "estimate"
)

type Capability string

const (
	CapabilityPrice   Capability = "price"
	CapabilityFunding Capability = "funding"
	CapabilityCandles Capability = "candles"
)

// DataQuality tells callers whether a value came from a provider or was
// derived locally after every provider failed.
type DataQuality string

const (
	QualityLive      DataQuality = "live"
	QualityEstimated DataQuality = "estimated"
	QualitySynthetic DataQuality = "synthetic"
)

func (q DataQuality) Degraded() bool {
	return q == QualityEstimated || q == QualitySynthetic
}
