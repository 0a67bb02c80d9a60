package provider

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"
)

func newBinanceServer(t *testing.T) string {
	t.Helper()
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v3/ticker/24hr":
			_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","lastPrice":"100500.00","priceChangePercent":"3.20","volume":"100","quoteVolume":"10050000"}`))
		case "/fapi/v1/premiumIndex":
			next := fixedNow().Add(3 * time.Hour).UnixMilli()
			_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","markPrice":"100000","lastFundingRate":"0.00010000","nextFundingTime":` + strconv.FormatInt(next, 10) + `,"time":1}`))
		case "/fapi/v1/openInterest":
			_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","openInterest":"80000.5","time":1}`))
		case "/fapi/v1/klines":
			_, _ = w.Write([]byte(`[[1717200000000,"100","110","95","105","12.5",1717203599999,"0",10,"0","0","0"],
				[1717203600000,"105","107","101","106","8",1717207199999,"0",10,"0","0","0"]]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	return srv.URL
}

func TestBinancePrice(t *testing.T) {
	base := newBinanceServer(t)
	b := NewBinance(NewClient(nil), base, base, fixedNow)
	q, err := b.FetchPrice(context.Background(), btc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Price != 100500 || q.Volume24h != 10050000 || q.PriceChange24h != 3.2 {
		t.Errorf("quote not parsed correctly: %+v", q)
	}
}

func TestBinanceFunding(t *testing.T) {
	base := newBinanceServer(t)
	b := NewBinance(NewClient(nil), base, base, fixedNow)
	f, err := b.FetchFunding(context.Background(), btc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Rate != 0.0001 {
		t.Errorf("unexpected rate %f", f.Rate)
	}
	if f.OpenInterest != 80000.5*100000 {
		t.Errorf("open interest should be converted to USD, got %f", f.OpenInterest)
	}
	if f.CountdownMillis != (3 * time.Hour).Milliseconds() {
		t.Errorf("unexpected countdown %d", f.CountdownMillis)
	}
}

func TestBinanceCandles(t *testing.T) {
	base := newBinanceServer(t)
	b := NewBinance(NewClient(nil), base, base, fixedNow)
	candles, err := b.FetchCandles(context.Background(), btc, "1h", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 2 || candles[0].High != 110 || candles[0].Volume != 12.5 || candles[1].Close != 106 {
		t.Errorf("candles not parsed correctly: %+v", candles)
	}
}

func TestBinanceGeoBlocked(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnavailableForLegalReasons)
		_, _ = w.Write([]byte(`{"code":0,"msg":"Service unavailable from a restricted location"}`))
	})
	b := NewBinance(NewClient(nil), srv.URL, srv.URL, fixedNow)
	if _, err := b.FetchFunding(context.Background(), btc); !IsGeoRestricted(err) {
		t.Fatalf("expected geo restriction, got %v", err)
	}
	if _, err := b.FetchPrice(context.Background(), btc); !IsGeoRestricted(err) {
		t.Fatalf("expected geo restriction, got %v", err)
	}
}

func TestBinanceOpenInterestFailureFailsFunding(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fapi/v1/premiumIndex" {
			_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","markPrice":"100000","lastFundingRate":"0.0001","nextFundingTime":0}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"code":-1,"msg":"upstream"}`))
	})
	b := NewBinance(NewClient(nil), srv.URL, srv.URL, fixedNow)
	_, err := b.FetchFunding(context.Background(), btc)
	assertKind(t, err, KindTransient)
}
