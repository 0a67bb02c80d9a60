package strategy

import (
	"math"

	"perp-trader/internal/domain"
)

// Score ranks an actionable signal. HOLD signals score 0.
func Score(key string, s domain.TradingSignal) float64 {
	if !s.Action.Actionable() {
		return 0
	}
	score := s.Confidence*0.5 + math.Min(s.RiskReward/3, 1)*0.3
	switch {
	case key == KeyFundingArbitrage && math.Abs(s.FundingCost) > 50:
		score += 0.2
	case key == KeyLiquidationHunt && s.Confidence > 0.7:
		score += 0.15
	}
	return score
}

// SelectBest returns the key and signal with the highest score, visiting keys
// in order so ties go to the earlier strategy. When every signal holds, the
// first key present in signals is returned.
func SelectBest(signals map[string]domain.TradingSignal, order []string) (string, domain.TradingSignal) {
	bestKey, bestScore := "", 0.0
	for _, key := range order {
		s, ok := signals[key]
		if !ok {
			continue
		}
		if score := Score(key, s); score > bestScore {
			bestKey, bestScore = key, score
		}
	}
	if bestKey != "" {
		return bestKey, signals[bestKey]
	}
	for _, key := range order {
		if s, ok := signals[key]; ok {
			return key, s
		}
	}
	return "", domain.TradingSignal{}
}
