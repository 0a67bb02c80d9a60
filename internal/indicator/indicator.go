// Package indicator holds stateless technical indicators over price series
// ordered oldest to newest.
package indicator

import (
	"math"

	talib "github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

const (
	RSIPeriod       = 14
	BollingerPeriod = 20
	BollingerK      = 2.0
	ZScoreWindow    = 24
)

// RSI is the simple-average relative strength index of the last period
// changes. It is NaN until period+1 prices are available and 50 for a
// perfectly flat window.
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return math.NaN()
	}
	window := prices[len(prices)-period-1:]
	gains := make([]float64, period)
	losses := make([]float64, period)
	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta > 0 {
			gains[i-1] = delta
		} else {
			losses[i-1] = -delta
		}
	}
	avgGain := last(talib.Sma(gains, period))
	avgLoss := last(talib.Sma(losses, period))

	switch {
	case avgGain == 0 && avgLoss == 0:
		return 50
	case avgLoss == 0:
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// Bands is one Bollinger Bands reading.
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Position locates price inside the bands: 0 at the lower band, 1 at the
// upper band. A zero-width band reports 0.5.
func (b Bands) Position(price float64) float64 {
	width := b.Upper - b.Lower
	if width == 0 {
		return 0.5
	}
	return (price - b.Lower) / width
}

// Bollinger returns the latest bands: mean of the last period prices plus or
// minus k population standard deviations.
func Bollinger(prices []float64, period int, k float64) (Bands, bool) {
	if period <= 1 || len(prices) < period {
		return Bands{}, false
	}
	upper, middle, lower := talib.BBands(prices[len(prices)-period:], period, k, k, talib.SMA)
	return Bands{Upper: last(upper), Middle: last(middle), Lower: last(lower)}, true
}

// Momentum is price[t]/price[t-h] - 1.
func Momentum(prices []float64, h int) (float64, bool) {
	n := len(prices)
	if h <= 0 || n <= h || prices[n-1-h] == 0 {
		return 0, false
	}
	return prices[n-1]/prices[n-1-h] - 1, true
}

// Returns converts prices into fractional period-over-period changes.
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, prices[i]/prices[i-1]-1)
	}
	return out
}

// Volatility is the sample standard deviation of the last window returns
// scaled by sqrt(window).
func Volatility(prices []float64, window int) (float64, bool) {
	if window < 2 || len(prices) < window+1 {
		return 0, false
	}
	returns := Returns(prices[len(prices)-window-1:])
	return stat.StdDev(returns, nil) * math.Sqrt(float64(window)), true
}

// MeanStd returns the mean and sample standard deviation of the last window
// values.
func MeanStd(values []float64, window int) (mean, std float64, ok bool) {
	if window < 2 || len(values) < window {
		return 0, 0, false
	}
	mean, std = stat.MeanStdDev(values[len(values)-window:], nil)
	return mean, std, true
}

// ZScore measures current against the trailing window of history. It is 0
// when the window has no dispersion.
func ZScore(history []float64, current float64, window int) (float64, bool) {
	mean, std, ok := MeanStd(history, window)
	if !ok {
		return 0, false
	}
	if std == 0 {
		return 0, true
	}
	return (current - mean) / std, true
}

func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// VolumeRatio compares the mean of the last recent volumes with the mean of
// the last base volumes. A zero baseline reports 1.
func VolumeRatio(volumes []float64, recent, base int) (float64, bool) {
	if recent <= 0 || base <= 0 || len(volumes) < max(recent, base) {
		return 0, false
	}
	baseline := Mean(volumes[len(volumes)-base:])
	if baseline <= 0 {
		return 1, true
	}
	return Mean(volumes[len(volumes)-recent:]) / baseline, true
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}
