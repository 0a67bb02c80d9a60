package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"perp-trader/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const commandTimeout = 45 * time.Second

type Markets interface {
	GetMarketSnapshot(ctx context.Context, symbol string) (domain.MarketSnapshot, error)
	RunStrategies(ctx context.Context, symbol string) (domain.StrategyReport, error)
	Providers(ctx context.Context) []domain.ProviderHealth
}

// StartTelegramBot registers the command handlers and starts long polling in
// the background. An empty token disables the bot.
func StartTelegramBot(token string, markets Markets, logger *zap.Logger) (*tele.Bot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if token == "" {
		logger.Info("telegram token not set, skipping bot startup")
		return nil, nil
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			logger.Error("telegram handler failed", zap.Error(err))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	cmds := NewCommands(markets)
	reply := func(run func(ctx context.Context, args []string) string) tele.HandlerFunc {
		return func(c tele.Context) error {
			_ = c.Notify(tele.Typing)
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()
			return c.Send(run(ctx, c.Args()))
		}
	}

	b.Handle("/start", func(c tele.Context) error { return c.Send(helpText) })
	b.Handle("/help", func(c tele.Context) error { return c.Send(helpText) })
	b.Handle("/price", reply(cmds.Price))
	b.Handle("/funding", reply(cmds.Funding))
	b.Handle("/analysis", reply(cmds.Analysis))
	b.Handle("/providers", reply(cmds.ProviderStatus))
	b.Handle(tele.OnText, func(c tele.Context) error {
		text := strings.TrimSpace(c.Text())
		if text == "" {
			return nil
		}
		_ = c.Notify(tele.Typing)
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return c.Send(cmds.Route(ctx, text))
	})

	logger.Info("telegram bot started")
	go b.Start()
	return b, nil
}
