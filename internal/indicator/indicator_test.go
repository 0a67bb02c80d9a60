package indicator

import (
	"math"
	"testing"
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func geometric(n int, start, growth float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start * math.Pow(1+growth, float64(i))
	}
	return out
}

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestRSIFlatSeriesIsFifty(t *testing.T) {
	if got := RSI(flat(30, 100), RSIPeriod); got != 50 {
		t.Fatalf("expected RSI 50 for flat prices, got %f", got)
	}
}

func TestRSIInsufficientHistory(t *testing.T) {
	if got := RSI(flat(14, 100), RSIPeriod); !math.IsNaN(got) {
		t.Fatalf("expected NaN with 14 prices, got %f", got)
	}
}

func TestRSIBounds(t *testing.T) {
	if got := RSI(geometric(30, 100, 0.01), RSIPeriod); got != 100 {
		t.Errorf("expected 100 for rising prices, got %f", got)
	}
	if got := RSI(geometric(30, 100, -0.01), RSIPeriod); got != 0 {
		t.Errorf("expected 0 for falling prices, got %f", got)
	}
}

func TestRSISimpleAverage(t *testing.T) {
	// 15 prices: seven +2 moves and seven -1 moves.
	prices := []float64{100}
	for i := 0; i < 7; i++ {
		prices = append(prices, prices[len(prices)-1]+2, prices[len(prices)-1]+2-1)
	}
	got := RSI(prices, RSIPeriod)
	want := 100 - 100/(1+2.0)
	if !approx(got, want, 1e-9) {
		t.Fatalf("RSI = %f, want %f", got, want)
	}
}

func TestBollinger(t *testing.T) {
	prices := append(flat(30, 0), 1, 2, 3, 4, 5)
	bands, ok := Bollinger(prices, 5, 2)
	if !ok {
		t.Fatal("expected bands")
	}
	// population std of 1..5 is sqrt(2)
	if !approx(bands.Middle, 3, 1e-9) || !approx(bands.Upper, 3+2*math.Sqrt2, 1e-6) || !approx(bands.Lower, 3-2*math.Sqrt2, 1e-6) {
		t.Fatalf("unexpected bands %+v", bands)
	}
	if !approx(bands.Position(bands.Upper), 1, 1e-9) || !approx(bands.Position(bands.Lower), 0, 1e-9) {
		t.Fatal("position should map lower to 0 and upper to 1")
	}
	if _, ok := Bollinger(prices[:3], 5, 2); ok {
		t.Fatal("expected insufficient data")
	}
}

func TestBandsPositionZeroWidth(t *testing.T) {
	b := Bands{Upper: 10, Middle: 10, Lower: 10}
	if b.Position(11) != 0.5 {
		t.Fatal("zero-width bands should report 0.5")
	}
}

func TestMomentum(t *testing.T) {
	prices := []float64{100, 110, 121}
	if m, ok := Momentum(prices, 1); !ok || !approx(m, 0.1, 1e-12) {
		t.Errorf("Momentum(1) = %f, %v", m, ok)
	}
	if m, ok := Momentum(prices, 2); !ok || !approx(m, 0.21, 1e-12) {
		t.Errorf("Momentum(2) = %f, %v", m, ok)
	}
	if _, ok := Momentum(prices, 3); ok {
		t.Error("expected insufficient history")
	}
}

func TestVolatility(t *testing.T) {
	if v, ok := Volatility(flat(30, 5), 12); !ok || v != 0 {
		t.Errorf("flat series volatility = %f, %v", v, ok)
	}
	prices := []float64{100, 110, 99}
	// returns 0.1 and -0.1, sample std sqrt(0.02)
	v, ok := Volatility(prices, 2)
	if !ok || !approx(v, math.Sqrt(0.02)*math.Sqrt2, 1e-12) {
		t.Errorf("Volatility = %f, %v", v, ok)
	}
	if _, ok := Volatility(prices, 3); ok {
		t.Error("expected insufficient history")
	}
}

func TestZScore(t *testing.T) {
	history := []float64{1, 2, 3, 4, 5}
	// sample std of 1..5 is sqrt(2.5)
	z, ok := ZScore(history, 8, 5)
	if !ok || !approx(z, 5/math.Sqrt(2.5), 1e-12) {
		t.Fatalf("ZScore = %f, %v", z, ok)
	}
	if z, ok := ZScore(flat(24, 3), 10, 24); !ok || z != 0 {
		t.Fatalf("zero dispersion should give 0, got %f", z)
	}
	if _, ok := ZScore(history, 1, 24); ok {
		t.Fatal("expected insufficient history")
	}
}

func TestVolumeRatio(t *testing.T) {
	volumes := append(flat(23, 1), 25)
	r, ok := VolumeRatio(volumes, 1, 24)
	if !ok || !approx(r, 25/(48.0/24), 1e-12) {
		t.Fatalf("VolumeRatio = %f, %v", r, ok)
	}
	if r, _ := VolumeRatio(flat(24, 0), 6, 24); r != 1 {
		t.Fatalf("zero baseline should give 1, got %f", r)
	}
}

func TestMean(t *testing.T) {
	if Mean(nil) != 0 || Mean([]float64{1, 2, 3}) != 2 {
		t.Fatal("unexpected mean")
	}
}
