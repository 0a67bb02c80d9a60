package strategy

import (
	"fmt"
	"math"

	"perp-trader/internal/domain"
	"perp-trader/internal/indicator"
)

const (
	momentumMinCandles      = 50
	meanReversionMinCandles = 100
	liquidationMinCandles   = 50

	clusterProximity = 0.04
)

// LiquidationTiers are the leverage levels whose liquidation prices are
// assumed to cluster.
var LiquidationTiers = []float64{3, 5, 10, 20, 50}

// decide averages the collected sub-signals and maps the mean to an action.
func decide(signals []float64, reasoning []string, threshold, maxConfidence float64, weakReason string) verdict {
	mean := indicator.Mean(signals)
	switch {
	case mean > threshold:
		return verdict{action: domain.ActionLong, confidence: math.Min(math.Abs(mean), maxConfidence), reasoning: reasoning}
	case mean < -threshold:
		return verdict{action: domain.ActionShort, confidence: math.Min(math.Abs(mean), maxConfidence), reasoning: reasoning}
	default:
		return hold(weakReason)
	}
}

func momentumBreakout(series domain.CandleSeries, snap domain.MarketSnapshot) verdict {
	if series.Len() < momentumMinCandles {
		return hold("Insufficient data")
	}
	closes := series.Closes()
	price := snap.Price

	var signals []float64
	var reasoning []string

	if bands, ok := indicator.Bollinger(closes, indicator.BollingerPeriod, indicator.BollingerK); ok {
		if price > bands.Upper {
			signals = append(signals, 0.7)
			reasoning = append(reasoning, fmt.Sprintf("Price broke above Bollinger upper band %.2f", bands.Upper))
		} else if price < bands.Lower {
			signals = append(signals, -0.7)
			reasoning = append(reasoning, fmt.Sprintf("Price broke below Bollinger lower band %.2f", bands.Lower))
		}
	}

	rsi := indicator.RSI(closes, indicator.RSIPeriod)
	m1, _ := indicator.Momentum(closes, 1)
	m4, _ := indicator.Momentum(closes, 4)
	m12, _ := indicator.Momentum(closes, 12)

	if rsi < 30 && m1 > 0.01 {
		signals = append(signals, 0.6)
		reasoning = append(reasoning, fmt.Sprintf("RSI oversold (%.1f) with bullish momentum", rsi))
	} else if rsi > 70 && m1 < -0.01 {
		signals = append(signals, -0.6)
		reasoning = append(reasoning, fmt.Sprintf("RSI overbought (%.1f) with bearish momentum", rsi))
	}

	if m1 > 0.02 && m4 > 0.04 && m12 > 0.06 {
		signals = append(signals, 0.8)
		reasoning = append(reasoning, "Strong bullish momentum across 1/4/12 candle horizons")
	} else if m1 < -0.02 && m4 < -0.04 && m12 < -0.06 {
		signals = append(signals, -0.8)
		reasoning = append(reasoning, "Strong bearish momentum across 1/4/12 candle horizons")
	}

	volumeRatio, ok := indicator.VolumeRatio(series.Volumes(), 1, 24)
	if ok && volumeRatio > 2 {
		if len(signals) > 0 {
			signals = append(signals, signals[len(signals)-1]*0.3)
		}
		reasoning = append(reasoning, fmt.Sprintf("High volume confirmation: %.1fx", volumeRatio))
	}

	if len(signals) == 0 {
		return hold("No momentum signals")
	}
	return decide(signals, reasoning, 0.4, 0.95, "Weak momentum")
}

func meanReversion(series domain.CandleSeries, snap domain.MarketSnapshot) verdict {
	if series.Len() < meanReversionMinCandles {
		return hold("Insufficient data for mean reversion")
	}
	closes := series.Closes()
	price := snap.Price

	var signals []float64
	var reasoning []string

	z, _ := indicator.ZScore(closes, price, indicator.ZScoreWindow)
	switch {
	case z > 2.5:
		signals = append(signals, -0.8)
		reasoning = append(reasoning, fmt.Sprintf("Extreme high z-score: %.2f", z))
	case z < -2.5:
		signals = append(signals, 0.8)
		reasoning = append(reasoning, fmt.Sprintf("Extreme low z-score: %.2f", z))
	case math.Abs(z) > 1.8:
		strength := 0.5
		if z > 0 {
			strength = -0.5
		}
		signals = append(signals, strength)
		reasoning = append(reasoning, fmt.Sprintf("Moderate z-score: %.2f", z))
	}

	rsi := indicator.RSI(closes, indicator.RSIPeriod)
	if rsi > 85 {
		signals = append(signals, -0.7)
		reasoning = append(reasoning, fmt.Sprintf("RSI extremely overbought: %.1f", rsi))
	} else if rsi < 15 {
		signals = append(signals, 0.7)
		reasoning = append(reasoning, fmt.Sprintf("RSI extremely oversold: %.1f", rsi))
	}

	if bands, ok := indicator.Bollinger(closes, indicator.BollingerPeriod, indicator.BollingerK); ok {
		pos := bands.Position(price)
		if pos > 0.98 {
			signals = append(signals, -0.5)
			reasoning = append(reasoning, "Price at Bollinger upper extreme")
		} else if pos < 0.02 {
			signals = append(signals, 0.5)
			reasoning = append(reasoning, "Price at Bollinger lower extreme")
		}
	}

	if len(signals) == 0 {
		return hold("No mean reversion opportunity")
	}
	return decide(signals, reasoning, 0.3, 0.9, "Weak reversion signals")
}

func fundingArbitrage(_ domain.CandleSeries, snap domain.MarketSnapshot) verdict {
	rate := snap.FundingRate
	annual := snap.AnnualizedFunding()

	if math.Abs(annual) < 0.15 {
		return hold("Funding rate not significant")
	}

	switch {
	case rate > 0.008:
		return verdict{
			action:     domain.ActionShort,
			confidence: math.Min(rate*80, 0.9),
			reasoning: []string{
				fmt.Sprintf("Extremely high funding: %.4f (%.1f%% annually)", rate, annual*100),
				"Shorts receive funding from longs",
			},
		}
	case rate < -0.008:
		return verdict{
			action:     domain.ActionLong,
			confidence: math.Min(math.Abs(rate)*80, 0.9),
			reasoning: []string{
				fmt.Sprintf("Negative funding: %.4f (%.1f%% annually)", rate, annual*100),
				"Longs receive funding from shorts",
			},
		}
	case math.Abs(rate) > 0.004:
		action := domain.ActionLong
		if rate > 0 {
			action = domain.ActionShort
		}
		return verdict{
			action:     action,
			confidence: math.Min(math.Abs(rate)*100, 0.7),
			reasoning:  []string{fmt.Sprintf("Moderate funding opportunity: %.4f", rate)},
		}
	}
	return hold("Funding rate not extreme enough")
}

// Cluster is an estimated liquidation price for one leverage tier.
type Cluster struct {
	Leverage float64
	Price    float64
}

// LiquidationClusters places long liquidations below and short liquidations
// above anchor, one per tier.
func LiquidationClusters(anchor float64) (longs, shorts []Cluster) {
	for _, lev := range LiquidationTiers {
		longs = append(longs, Cluster{Leverage: lev, Price: anchor * (1 - 1/lev)})
		shorts = append(shorts, Cluster{Leverage: lev, Price: anchor * (1 + 1/lev)})
	}
	return longs, shorts
}

// nearestBelow returns the long cluster with the smallest positive distance
// under price, as a fraction of price.
func nearestBelow(clusters []Cluster, price float64) (Cluster, float64, bool) {
	best, bestDist, found := Cluster{}, math.Inf(1), false
	for _, c := range clusters {
		d := (price - c.Price) / price
		if d > 0 && d < bestDist {
			best, bestDist, found = c, d, true
		}
	}
	return best, bestDist, found
}

func nearestAbove(clusters []Cluster, price float64) (Cluster, float64, bool) {
	best, bestDist, found := Cluster{}, math.Inf(1), false
	for _, c := range clusters {
		d := (c.Price - price) / price
		if d > 0 && d < bestDist {
			best, bestDist, found = c, d, true
		}
	}
	return best, bestDist, found
}

// liquidationHunt places the clusters at fixed 1/leverage distances from the
// live price, so the nearest tiers on both sides sit equally far away.
func liquidationHunt(series domain.CandleSeries, snap domain.MarketSnapshot) verdict {
	if series.Len() < liquidationMinCandles {
		return hold("Insufficient data for liquidation analysis")
	}
	closes := series.Closes()
	price := snap.Price
	longs, shorts := LiquidationClusters(price)

	var signals []float64
	var reasoning []string

	if c, d, ok := nearestBelow(longs, price); ok && d < clusterProximity {
		signals = append(signals, -0.6)
		reasoning = append(reasoning, fmt.Sprintf("Near %.0fx long liquidations at %.0f", c.Leverage, c.Price))
	}
	if c, d, ok := nearestAbove(shorts, price); ok && d < clusterProximity {
		signals = append(signals, 0.6)
		reasoning = append(reasoning, fmt.Sprintf("Near %.0fx short liquidations at %.0f", c.Leverage, c.Price))
	}

	if spike, ok := indicator.VolumeRatio(series.Volumes(), 6, 24); ok && spike > 1.8 && len(signals) > 0 {
		signals = append(signals, signals[len(signals)-1]*0.4)
		reasoning = append(reasoning, fmt.Sprintf("Volume spike: %.1fx", spike))
	}
	if vol, ok := indicator.Volatility(closes, 12); ok && vol > 0.08 && len(signals) > 0 {
		signals = append(signals, signals[len(signals)-1]*0.3)
		reasoning = append(reasoning, fmt.Sprintf("High volatility: %.1f%%", vol*100))
	}

	if len(signals) == 0 {
		return hold("No liquidation opportunity")
	}
	return decide(signals, reasoning, 0.4, 0.85, "Weak liquidation signals")
}
