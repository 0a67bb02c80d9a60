package domain

import "time"

type Action string

const (
	ActionLong  Action = "LONG"
	ActionShort Action = "SHORT"
	ActionHold  Action = "HOLD"
)

func (a Action) Actionable() bool {
	return a == ActionLong || a == ActionShort
}

// TradingSignal is the advisory output of one strategy evaluation. Values are
// never mutated once returned.
type TradingSignal struct {
	Strategy         string        `json:"strategy"`
	Action           Action        `json:"action"`
	Confidence       float64       `json:"confidence"`
	EntryPrice       float64       `json:"entry_price"`
	Leverage         float64       `json:"leverage"`
	PositionSize     float64       `json:"position_size"`
	StopLoss         float64       `json:"stop_loss"`
	TakeProfits      []float64     `json:"take_profits"`
	LiquidationPrice float64       `json:"liquidation_price"`
	RiskReward       float64       `json:"risk_reward"`
	MaxRisk          float64       `json:"max_risk"`
	FundingCost      float64       `json:"funding_cost"`
	HoldTime         time.Duration `json:"hold_time"`
	Reasoning        []string      `json:"reasoning"`
	Timestamp        time.Time     `json:"timestamp"`
}

// StrategyReport bundles one strategy run over a single snapshot.
type StrategyReport struct {
	RunID         string                   `json:"run_id"`
	Symbol        string                   `json:"symbol"`
	Snapshot      MarketSnapshot           `json:"snapshot"`
	SeriesQuality DataQuality              `json:"series_quality"`
	SeriesSource  ProviderID               `json:"series_source"`
	Signals       map[string]TradingSignal `json:"signals"`
	Order         []string                 `json:"order"`
	BestKey       string                   `json:"best_key"`
	Best          TradingSignal            `json:"best"`
	GeneratedAt   time.Time                `json:"generated_at"`
}

// Degraded reports whether any input to the run was estimated or synthetic.
func (r StrategyReport) Degraded() bool {
	return r.Snapshot.Quality.Degraded() || r.SeriesQuality.Degraded()
}

type FailureKind string

const (
	FailureTransient     FailureKind = "transient"
	FailureGeoRestricted FailureKind = "geo_restricted"
)

// ProviderHealth is the breaker view of one provider capability.
type ProviderHealth struct {
	Key         string      `json:"key"`
	Failures    int         `json:"failures"`
	LastFailure time.Time   `json:"last_failure"`
	Kind        FailureKind `json:"kind"`
	Available   bool        `json:"available"`
}
