package domain

import (
	"sort"
	"time"
)

const MinSeriesLength = 50

// PriceQuote is the price fragment returned by a provider.
type PriceQuote struct {
	Symbol         string     `json:"symbol"`
	Price          float64    `json:"price"`
	Volume24h      float64    `json:"volume_24h"`
	PriceChange24h float64    `json:"price_change_24h"`
	Source         ProviderID `json:"source"`
}

// FundingInfo is the perpetual-futures fragment returned by a provider.
type FundingInfo struct {
	Symbol          string      `json:"symbol"`
	Rate            float64     `json:"rate"`
	CountdownMillis int64       `json:"countdown_ms"`
	OpenInterest    float64     `json:"open_interest"`
	Source          ProviderID  `json:"source"`
	Quality         DataQuality `json:"quality"`
}

// MarketSnapshot is the immutable view of one symbol at one point in time.
type MarketSnapshot struct {
	Symbol           string      `json:"symbol"`
	Price            float64     `json:"price"`
	FundingRate      float64     `json:"funding_rate"`
	FundingCountdown int64       `json:"funding_countdown_ms"`
	OpenInterest     float64     `json:"open_interest"`
	Volume24h        float64     `json:"volume_24h"`
	PriceChange24h   float64     `json:"price_change_24h"`
	PriceSource      ProviderID  `json:"price_source"`
	FundingSource    ProviderID  `json:"funding_source"`
	Quality          DataQuality `json:"quality"`
	Timestamp        time.Time   `json:"timestamp"`
}

func NewMarketSnapshot(quote PriceQuote, funding FundingInfo, ts time.Time) MarketSnapshot {
	quality := QualityLive
	if funding.Quality.Degraded() {
		quality = funding.Quality
	}
	return MarketSnapshot{
		Symbol:           quote.Symbol,
		Price:            quote.Price,
		FundingRate:      funding.Rate,
		FundingCountdown: funding.CountdownMillis,
		OpenInterest:     funding.OpenInterest,
		Volume24h:        quote.Volume24h,
		PriceChange24h:   quote.PriceChange24h,
		PriceSource:      quote.Source,
		FundingSource:    funding.Source,
		Quality:          quality,
		Timestamp:        ts.UTC(),
	}
}

// AnnualizedFunding converts the 8h funding rate into a yearly fraction.
func (s MarketSnapshot) AnnualizedFunding() float64 {
	return s.FundingRate * 365 * 3
}

type Candle struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// CandleSeries is ordered oldest to newest with strictly increasing open times.
type CandleSeries struct {
	Symbol   string      `json:"symbol"`
	Interval string      `json:"interval"`
	Source   ProviderID  `json:"source"`
	Quality  DataQuality `json:"quality"`
	Candles  []Candle    `json:"candles"`
}

// NewCandleSeries sorts the candles, keeps the last candle seen for a
// duplicated open time and drops candles without a usable close.
func NewCandleSeries(symbol, interval string, source ProviderID, quality DataQuality, candles []Candle) CandleSeries {
	cleaned := make([]Candle, 0, len(candles))
	for _, c := range candles {
		if c.Close <= 0 || c.OpenTime.IsZero() {
			continue
		}
		cleaned = append(cleaned, c)
	}
	sort.SliceStable(cleaned, func(i, j int) bool {
		return cleaned[i].OpenTime.Before(cleaned[j].OpenTime)
	})

	out := cleaned[:0]
	for _, c := range cleaned {
		if n := len(out); n > 0 && out[n-1].OpenTime.Equal(c.OpenTime) {
			out[n-1] = c
			continue
		}
		out = append(out, c)
	}

	return CandleSeries{
		Symbol:   symbol,
		Interval: interval,
		Source:   source,
		Quality:  quality,
		Candles:  out,
	}
}

func (s CandleSeries) Len() int {
	return len(s.Candles)
}

func (s CandleSeries) Viable() bool {
	return len(s.Candles) >= MinSeriesLength
}

func (s CandleSeries) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i := range s.Candles {
		out[i] = s.Candles[i].Close
	}
	return out
}

func (s CandleSeries) Volumes() []float64 {
	out := make([]float64, len(s.Candles))
	for i := range s.Candles {
		out[i] = s.Candles[i].Volume
	}
	return out
}

// Tail returns the last n candles, or the whole series when it is shorter.
func (s CandleSeries) Tail(n int) CandleSeries {
	if n <= 0 || n >= len(s.Candles) {
		return s
	}
	out := s
	out.Candles = append([]Candle(nil), s.Candles[len(s.Candles)-n:]...)
	return out
}
