package domain

import (
	"testing"
	"time"
)

func TestNormalizeSymbol(t *testing.T) {
	cases := map[string]string{
		"btc":      "BTC",
		"BTCUSDT":  "BTC",
		"eth-usd":  "ETH",
		" SOL ":    "SOL",
		"sol/usdt": "SOL",
	}
	for in, want := range cases {
		got, ok := NormalizeSymbol(in)
		if !ok || got != want {
			t.Errorf("NormalizeSymbol(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	for _, in := range []string{"", "DOGE", "USDT", "USD"} {
		if got, ok := NormalizeSymbol(in); ok {
			t.Errorf("NormalizeSymbol(%q) accepted as %q", in, got)
		}
	}
}

func TestSupportedSymbolsSorted(t *testing.T) {
	if len(SupportedSymbols) != 3 || SupportedSymbols[0] != "BTC" || SupportedSymbols[2] != "SOL" {
		t.Fatalf("unexpected supported symbols: %v", SupportedSymbols)
	}
}

func TestAssetFields(t *testing.T) {
	a := Assets["BTC"]
	if a.CoinPaprikaID != "btc-bitcoin" || a.KrakenPair != "XBTUSD" || a.BinanceSymbol != "BTCUSDT" {
		t.Errorf("Asset fields not set correctly: %+v", a)
	}
}

func TestIsSupportedInterval(t *testing.T) {
	if !IsSupportedInterval("1h") || IsSupportedInterval("2h") {
		t.Fatal("interval validation mismatch")
	}
}

func TestNewCandleSeriesOrdersAndDeduplicates(t *testing.T) {
	base := time.Unix(1_700_000_000, 0).UTC()
	candles := []Candle{
		{OpenTime: base.Add(2 * time.Hour), Close: 3},
		{OpenTime: base, Close: 1},
		{OpenTime: base.Add(time.Hour), Close: 2},
		{OpenTime: base.Add(time.Hour), Close: 22},
		{OpenTime: base.Add(3 * time.Hour), Close: 0},
	}
	s := NewCandleSeries("BTC", "1h", ProviderKraken, QualityLive, candles)
	if s.Len() != 3 {
		t.Fatalf("expected 3 candles, got %d", s.Len())
	}
	closes := s.Closes()
	if closes[0] != 1 || closes[1] != 22 || closes[2] != 3 {
		t.Errorf("unexpected closes: %v", closes)
	}
	for i := 1; i < s.Len(); i++ {
		if !s.Candles[i].OpenTime.After(s.Candles[i-1].OpenTime) {
			t.Fatalf("timestamps not strictly increasing at %d", i)
		}
	}
	if s.Viable() {
		t.Error("3 candles should not be viable")
	}
}

func TestCandleSeriesTail(t *testing.T) {
	base := time.Unix(0, 0).UTC()
	var candles []Candle
	for i := 0; i < 10; i++ {
		candles = append(candles, Candle{OpenTime: base.Add(time.Duration(i) * time.Hour), Close: float64(i + 1)})
	}
	s := NewCandleSeries("BTC", "1h", ProviderKraken, QualityLive, candles)
	tail := s.Tail(3)
	if tail.Len() != 3 || tail.Candles[0].Close != 8 {
		t.Errorf("unexpected tail: %+v", tail.Candles)
	}
	if s.Tail(50).Len() != 10 {
		t.Error("tail longer than series should return whole series")
	}
}

func TestNewMarketSnapshotQuality(t *testing.T) {
	ts := time.Unix(1234567890, 0)
	quote := PriceQuote{Symbol: "BTC", Price: 100000, Source: ProviderKraken}
	live := NewMarketSnapshot(quote, FundingInfo{Rate: 0.0001, Source: ProviderCoinGlass, Quality: QualityLive}, ts)
	if live.Quality != QualityLive || live.PriceSource != ProviderKraken || live.FundingSource != ProviderCoinGlass {
		t.Errorf("snapshot fields not set correctly: %+v", live)
	}
	est := NewMarketSnapshot(quote, FundingInfo{Rate: 0.0001, Source: ProviderEstimate, Quality: QualityEstimated}, ts)
	if est.Quality != QualityEstimated {
		t.Errorf("expected estimated quality, got %s", est.Quality)
	}
	if got := live.AnnualizedFunding(); got < 0.1094 || got > 0.1096 {
		t.Errorf("annualized funding = %f", got)
	}
}

func TestStrategyReportDegraded(t *testing.T) {
	r := StrategyReport{Snapshot: MarketSnapshot{Quality: QualityLive}, SeriesQuality: QualityLive}
	if r.Degraded() {
		t.Fatal("live report should not be degraded")
	}
	r.SeriesQuality = QualitySynthetic
	if !r.Degraded() {
		t.Fatal("synthetic series should degrade the report")
	}
}

func TestActionActionable(t *testing.T) {
	if !ActionLong.Actionable() || !ActionShort.Actionable() || ActionHold.Actionable() {
		t.Fatal("actionable mismatch")
	}
}

func TestIntervalDuration(t *testing.T) {
	if d, ok := IntervalDuration("4h"); !ok || d != 4*time.Hour {
		t.Fatalf("IntervalDuration(4h) = %s, %v", d, ok)
	}
	if _, ok := IntervalDuration("3h"); ok {
		t.Fatal("unexpected interval accepted")
	}
}
