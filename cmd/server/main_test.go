package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"perp-trader/internal/bot"
	"perp-trader/internal/config"
	"perp-trader/pkg/logger"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router, restore := stubServerDeps(t)
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	(*router).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected health 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("expected CORS origin header, got %q", got)
	}

	rec = httptest.NewRecorder()
	(*router).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected swagger doc 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "Perp Trader API") || !strings.Contains(body, "/api/strategies/{symbol}") {
		t.Fatalf("unexpected swagger doc: %.200s", body)
	}
}

func TestMainStartsTelegramWithConfiguredToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, restore := stubServerDeps(t)
	defer restore()

	var gotToken string
	var gotMarkets bot.Markets
	startTelegramBotFunc = func(token string, markets bot.Markets, _ *zap.Logger) (*tele.Bot, error) {
		gotToken = token
		gotMarkets = markets
		return nil, nil
	}
	inner := loadConfigFunc
	loadConfigFunc = func() *config.Config {
		cfg := inner()
		cfg.TelegramBotToken = "tg-token"
		return cfg
	}

	main()

	if gotToken != "tg-token" {
		t.Fatalf("expected token to be forwarded, got %q", gotToken)
	}
	if gotMarkets == nil {
		t.Fatal("expected market service to be passed to the bot")
	}
}

func stubServerDeps(t *testing.T) (**gin.Engine, func()) {
	t.Helper()
	for _, key := range []string{"CONFIG_FILE", "CACHE_BACKEND", "REDIS_URL", "PORT", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origNewLogger := newLoggerFunc
	origInitTracer := initTracerFunc
	origStartTelegram := startTelegramBotFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	router := new(*gin.Engine)

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		cfg := config.Load()
		cfg.CORSOrigins = []string{"http://localhost:3000"}
		return cfg
	}
	newLoggerFunc = func(logger.Options) (*zap.Logger, error) { return zap.NewNop(), nil }
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	startTelegramBotFunc = func(string, bot.Markets, *zap.Logger) (*tele.Bot, error) { return nil, nil }
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine {
		*router = gin.New()
		return *router
	}
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	return router, func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		newLoggerFunc = origNewLogger
		initTracerFunc = origInitTracer
		startTelegramBotFunc = origStartTelegram
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	}
}
