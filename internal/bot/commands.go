package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"perp-trader/internal/domain"
	"perp-trader/internal/gateway"
	"perp-trader/internal/service"
)

var helpText = strings.Join([]string{
	"Perpetual futures signal bot",
	"",
	"/price BTC - spot price, 24h volume and change",
	"/funding BTC - funding rate, countdown and open interest",
	"/analysis BTC - run all strategies and show the best signal",
	"/providers - data provider circuit breaker status",
	"",
	"Supported: " + strings.Join(domain.SupportedSymbols, ", "),
	"Signals are advisory only.",
}, "\n")

// Commands renders replies for each bot command. It is independent of the
// Telegram transport.
type Commands struct {
	markets Markets
}

func NewCommands(markets Markets) *Commands {
	return &Commands{markets: markets}
}

func symbolArg(args []string) string {
	if len(args) == 0 {
		return domain.DefaultSymbol
	}
	return strings.TrimSpace(args[0])
}

func describeError(symbol string, err error) string {
	switch {
	case errors.Is(err, service.ErrUnsupportedSymbol):
		return fmt.Sprintf("Unknown symbol: %s\nSupported: %s", symbol, strings.Join(domain.SupportedSymbols, ", "))
	case errors.Is(err, gateway.ErrNoData):
		return fmt.Sprintf("No market data available for %s right now. All providers failed, try again shortly.", strings.ToUpper(symbol))
	default:
		return fmt.Sprintf("Error fetching %s: %v", strings.ToUpper(symbol), err)
	}
}

func (c *Commands) Price(ctx context.Context, args []string) string {
	symbol := symbolArg(args)
	snap, err := c.markets.GetMarketSnapshot(ctx, symbol)
	if err != nil {
		return describeError(symbol, err)
	}
	return FormatPrice(snap)
}

func (c *Commands) Funding(ctx context.Context, args []string) string {
	symbol := symbolArg(args)
	snap, err := c.markets.GetMarketSnapshot(ctx, symbol)
	if err != nil {
		return describeError(symbol, err)
	}
	return FormatFunding(snap)
}

func (c *Commands) Analysis(ctx context.Context, args []string) string {
	symbol := symbolArg(args)
	report, err := c.markets.RunStrategies(ctx, symbol)
	if err != nil {
		return describeError(symbol, err)
	}
	return FormatReport(report)
}

func (c *Commands) ProviderStatus(ctx context.Context, _ []string) string {
	return FormatProviders(c.markets.Providers(ctx))
}

var (
	analysisKeywords = []string{"analyze", "analysis", "signal", "should i buy", "should i sell", "trade", "trading", "strategy", "recommendation"}
	priceKeywords    = []string{"price", "btc", "bitcoin"}
	fundingKeywords  = []string{"funding", "arbitrage"}
)

const fallbackText = "I didn't understand that. Try:\n" +
	"/analysis for a complete analysis\n" +
	"/price for the current price\n" +
	"/help for all commands\n" +
	"Or just type 'analyze' for a quick analysis."

// Route answers a free-text message. Analysis keywords win over price, and
// price over funding. A supported symbol anywhere in the text selects the
// market, otherwise BTC is used.
func (c *Commands) Route(ctx context.Context, text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return fallbackText
	}
	args := mentionedSymbol(lower)
	switch {
	case containsAny(lower, analysisKeywords):
		return c.Analysis(ctx, args)
	case containsAny(lower, priceKeywords):
		return c.Price(ctx, args)
	case containsAny(lower, fundingKeywords):
		return c.Funding(ctx, args)
	default:
		return fallbackText
	}
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func mentionedSymbol(text string) []string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	for _, w := range words {
		for _, sym := range domain.SupportedSymbols {
			if strings.EqualFold(w, sym) {
				return []string{sym}
			}
		}
	}
	return nil
}

func FormatPrice(s domain.MarketSnapshot) string {
	return fmt.Sprintf(
		"%s\nPrice: $%s\n24h Change: %+.2f%%\n24h Volume: $%s\nSource: %s",
		s.Symbol, formatMoney(s.Price), s.PriceChange24h, formatCompact(s.Volume24h), s.PriceSource,
	)
}

func FormatFunding(s domain.MarketSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s perpetual\n", s.Symbol)
	fmt.Fprintf(&b, "Funding: %.4f%% per 8h (%.1f%% annualized)\n", s.FundingRate*100, s.AnnualizedFunding()*100)
	fmt.Fprintf(&b, "Next funding in: %s\n", formatCountdown(s.FundingCountdown))
	fmt.Fprintf(&b, "Open interest: $%s\n", formatCompact(s.OpenInterest))
	fmt.Fprintf(&b, "Source: %s", s.FundingSource)
	if s.Quality.Degraded() {
		fmt.Fprintf(&b, "\nWarning: funding data is %s, providers unavailable", s.Quality)
	}
	return b.String()
}

func FormatReport(r domain.StrategyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s analysis @ $%s\n", r.Symbol, formatMoney(r.Snapshot.Price))
	if r.Degraded() {
		fmt.Fprintf(&b, "Warning: degraded inputs (snapshot %s, candles %s)\n", r.Snapshot.Quality, r.SeriesQuality)
	}

	best := r.Best
	b.WriteString("\n")
	if best.Action.Actionable() {
		fmt.Fprintf(&b, "Best: %s %s (confidence %.0f%%)\n", best.Strategy, best.Action, best.Confidence*100)
		fmt.Fprintf(&b, "Entry: $%s  Leverage: %.1fx\n", formatMoney(best.EntryPrice), best.Leverage)
		fmt.Fprintf(&b, "Stop: $%s  Liquidation: $%s\n", formatMoney(best.StopLoss), formatMoney(best.LiquidationPrice))
		targets := make([]string, len(best.TakeProfits))
		for i, tp := range best.TakeProfits {
			targets[i] = "$" + formatMoney(tp)
		}
		fmt.Fprintf(&b, "Targets: %s\n", strings.Join(targets, ", "))
		fmt.Fprintf(&b, "Size: %.4f  R/R: %.2f  Max risk: $%.0f\n", best.PositionSize, best.RiskReward, best.MaxRisk)
		fmt.Fprintf(&b, "Hold: %s  Funding cost: %.4f%%\n", formatHold(best.HoldTime), best.FundingCost*100)
	} else {
		b.WriteString("No actionable signal, all strategies HOLD\n")
	}
	for _, reason := range best.Reasoning {
		fmt.Fprintf(&b, "- %s\n", reason)
	}

	b.WriteString("\nStrategies:\n")
	for _, key := range r.Order {
		s, ok := r.Signals[key]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s: %s %.0f%%\n", s.Strategy, s.Action, s.Confidence*100)
	}
	fmt.Fprintf(&b, "\nRun %s", r.RunID)
	return b.String()
}

func FormatProviders(health []domain.ProviderHealth) string {
	if len(health) == 0 {
		return "All providers healthy."
	}
	var b strings.Builder
	b.WriteString("Provider status:\n")
	for _, h := range health {
		state := "up"
		if !h.Available {
			state = "down"
		}
		if h.Kind == domain.FailureGeoRestricted {
			fmt.Fprintf(&b, "%s: %s (geo-restricted)\n", h.Key, state)
			continue
		}
		fmt.Fprintf(&b, "%s: %s (%d failures)\n", h.Key, state, h.Failures)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatMoney(v float64) string {
	if v >= 100 {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.4f", v)
}

func formatCompact(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

func formatCountdown(ms int64) string {
	d := (time.Duration(ms) * time.Millisecond).Round(time.Minute)
	return fmt.Sprintf("%dh %02dm", int(d.Hours()), int(d.Minutes())%60)
}

func formatHold(d time.Duration) string {
	return fmt.Sprintf("%dh", int(d.Hours()))
}
