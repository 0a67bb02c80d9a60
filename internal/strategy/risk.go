package strategy

import (
	"math"

	"perp-trader/internal/domain"
	"perp-trader/internal/indicator"
)

const (
	leveragePerConfidence = 8.0
	minVolatilityFactor   = 0.3
	volatilityPenalty     = 3.0
	leverageVolWindow     = 24
	fundingPeriodHours    = 8.0
)

// tradeSignal prices an actionable verdict: leverage, exits, size and costs.
// Entry is always the live snapshot price.
func (e *Engine) tradeSignal(def definition, v verdict, series domain.CandleSeries, snap domain.MarketSnapshot) domain.TradingSignal {
	entry := snap.Price

	leverage := e.leverage(def, v.confidence, series.Closes())

	stop, targets := exits(def.exits, v.action, entry)
	riskAmount := e.params.Capital * e.params.RiskPerTrade
	riskPerUnit := math.Abs(entry - stop)

	var size, rr float64
	if riskPerUnit > 0 {
		size = (riskAmount / riskPerUnit) / leverage
		rr = math.Abs(targets[0]-entry) / riskPerUnit
	}

	fundingCost := math.Abs(snap.FundingRate) * def.hold.Hours() / fundingPeriodHours
	if def.key == KeyFundingArbitrage {
		fundingCost = -fundingCost
	}

	return domain.TradingSignal{
		Strategy:         def.name,
		Action:           v.action,
		Confidence:       v.confidence,
		EntryPrice:       entry,
		Leverage:         leverage,
		PositionSize:     size,
		StopLoss:         stop,
		TakeProfits:      targets,
		LiquidationPrice: LiquidationPrice(entry, leverage, e.params.MaintenanceMargin, v.action),
		RiskReward:       rr,
		MaxRisk:          riskAmount,
		FundingCost:      fundingCost,
		HoldTime:         def.hold,
		Reasoning:        v.reasoning,
		Timestamp:        e.now().UTC(),
	}
}

func (e *Engine) leverage(def definition, confidence float64, closes []float64) float64 {
	if def.leverage > 0 {
		return math.Min(def.leverage, e.params.MaxLeverage)
	}
	vol, ok := indicator.Volatility(closes, leverageVolWindow)
	if !ok || math.IsNaN(vol) {
		vol = 0
	}
	return DynamicLeverage(confidence, vol, e.params.MaxLeverage)
}

// DynamicLeverage scales leverage with confidence and cuts it as volatility
// rises, clamped to [1, maxLeverage].
func DynamicLeverage(confidence, volatility, maxLeverage float64) float64 {
	adj := math.Max(minVolatilityFactor, 1-volatility*volatilityPenalty)
	return math.Max(1, math.Min(confidence*leveragePerConfidence*adj, maxLeverage))
}

func LiquidationPrice(entry, leverage, maintenance float64, action domain.Action) float64 {
	if action == domain.ActionShort {
		return entry * (1 + 1/leverage - maintenance)
	}
	return entry * (1 - 1/leverage + maintenance)
}

func exits(p exitProfile, action domain.Action, entry float64) (float64, []float64) {
	targets := make([]float64, len(p.targets))
	if action == domain.ActionShort {
		for i, t := range p.targets {
			targets[i] = entry * (1 - t)
		}
		return entry * (1 + p.stop), targets
	}
	for i, t := range p.targets {
		targets[i] = entry * (1 + t)
	}
	return entry * (1 - p.stop), targets
}
