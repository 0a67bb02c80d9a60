package strategy

import (
	"time"

	"perp-trader/internal/domain"
)

const (
	KeyMomentum         = "momentum"
	KeyMeanReversion    = "mean_reversion"
	KeyFundingArbitrage = "funding_arbitrage"
	KeyLiquidationHunt  = "liquidation_hunt"

	holdConfidence = 0.1
)

// Keys lists the strategies in evaluation order. The first entry is the
// fallback when every strategy holds.
var Keys = []string{KeyMomentum, KeyMeanReversion, KeyFundingArbitrage, KeyLiquidationHunt}

// Params are the account-level inputs of the risk step.
type Params struct {
	Capital           float64 `yaml:"capital"`
	RiskPerTrade      float64 `yaml:"risk_per_trade"`
	MaxLeverage       float64 `yaml:"max_leverage"`
	MaintenanceMargin float64 `yaml:"maintenance_margin"`
}

func DefaultParams() Params {
	return Params{
		Capital:           10000,
		RiskPerTrade:      0.02,
		MaxLeverage:       10,
		MaintenanceMargin: 0.005,
	}
}

type exitProfile struct {
	stop    float64
	targets []float64
}

var (
	standardExits = exitProfile{stop: 0.04, targets: []float64{0.03, 0.06, 0.10}}
	tightExits    = exitProfile{stop: 0.015, targets: []float64{0.02, 0.04, 0.06}}
)

// verdict is what a strategy decides before the risk step prices it.
type verdict struct {
	action     domain.Action
	confidence float64
	reasoning  []string
}

func hold(reason string) verdict {
	return verdict{action: domain.ActionHold, reasoning: []string{reason}}
}

type definition struct {
	key  string
	name string
	// leverage of 0 means confidence and volatility decide.
	leverage float64
	hold     time.Duration
	exits    exitProfile
	evaluate func(series domain.CandleSeries, snap domain.MarketSnapshot) verdict
}

var definitions = map[string]definition{
	KeyMomentum: {
		key:      KeyMomentum,
		name:     "Momentum Breakout",
		hold:     12 * time.Hour,
		exits:    standardExits,
		evaluate: momentumBreakout,
	},
	KeyMeanReversion: {
		key:      KeyMeanReversion,
		name:     "Mean Reversion",
		hold:     6 * time.Hour,
		exits:    tightExits,
		evaluate: meanReversion,
	},
	KeyFundingArbitrage: {
		key:      KeyFundingArbitrage,
		name:     "Funding Arbitrage",
		leverage: 5,
		hold:     24 * time.Hour,
		exits:    standardExits,
		evaluate: fundingArbitrage,
	},
	KeyLiquidationHunt: {
		key:      KeyLiquidationHunt,
		name:     "Liquidation Hunt",
		leverage: 8,
		hold:     2 * time.Hour,
		exits:    standardExits,
		evaluate: liquidationHunt,
	},
}

func Name(key string) string {
	return definitions[key].name
}

type Engine struct {
	params Params
	now    func() time.Time
}

func NewEngine(params Params, now func() time.Time) *Engine {
	def := DefaultParams()
	if params.Capital <= 0 {
		params.Capital = def.Capital
	}
	if params.RiskPerTrade <= 0 {
		params.RiskPerTrade = def.RiskPerTrade
	}
	if params.MaxLeverage < 1 {
		params.MaxLeverage = def.MaxLeverage
	}
	if params.MaintenanceMargin <= 0 {
		params.MaintenanceMargin = def.MaintenanceMargin
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{params: params, now: now}
}

func (e *Engine) Params() Params {
	return e.params
}

// Run evaluates every strategy against the same inputs.
func (e *Engine) Run(series domain.CandleSeries, snap domain.MarketSnapshot) map[string]domain.TradingSignal {
	out := make(map[string]domain.TradingSignal, len(Keys))
	for _, key := range Keys {
		out[key] = e.Evaluate(key, series, snap)
	}
	return out
}

// Evaluate runs one strategy. Unknown keys hold.
func (e *Engine) Evaluate(key string, series domain.CandleSeries, snap domain.MarketSnapshot) domain.TradingSignal {
	def, ok := definitions[key]
	if !ok {
		return e.holdSignal(key, "Unknown strategy", snap)
	}
	v := def.evaluate(series, snap)
	if !v.action.Actionable() {
		reason := "No signal"
		if len(v.reasoning) > 0 {
			reason = v.reasoning[0]
		}
		return e.holdSignal(def.name, reason, snap)
	}
	return e.tradeSignal(def, v, series, snap)
}

func (e *Engine) holdSignal(name, reason string, snap domain.MarketSnapshot) domain.TradingSignal {
	return domain.TradingSignal{
		Strategy:    name,
		Action:      domain.ActionHold,
		Confidence:  holdConfidence,
		EntryPrice:  snap.Price,
		Leverage:    1,
		TakeProfits: []float64{},
		Reasoning:   []string{reason},
		Timestamp:   e.now().UTC(),
	}
}
