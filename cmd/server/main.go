package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"perp-trader/internal/app"
	"perp-trader/internal/bot"
	"perp-trader/internal/config"
	"perp-trader/internal/handler"
	"perp-trader/pkg/logger"
	"perp-trader/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	_ "perp-trader/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	newLoggerFunc          = logger.New
	initTracerFunc         = tracing.InitTracer
	buildStackFunc         = app.Build
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Perp Trader API
// @version         1.0
// @description     Perpetual futures market snapshots and advisory strategy signals.

// @host      localhost:8080
// @BasePath  /
func main() {
	_ = loadEnvFunc()

	cfg := loadConfigFunc()

	zlog, err := newLoggerFunc(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()
	for _, w := range cfg.Warnings {
		zlog.Warn("config", zap.String("warning", w))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		zlog.Fatal("failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			zlog.Warn("error shutting down tracer provider", zap.Error(err))
		}
	}()

	stack := buildStackFunc(ctx, cfg, tracer, zlog, app.Options{})
	defer func() {
		if err := stack.Close(); err != nil {
			zlog.Warn("error closing market stack", zap.Error(err))
		}
	}()

	tgBot, err := startTelegramBotFunc(cfg.TelegramBotToken, stack.Service, zlog)
	if err != nil {
		zlog.Error("telegram bot disabled", zap.Error(err))
	}

	h := newHandlerFunc(tracer, stack.Service)

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))
	if len(cfg.CORSOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = cfg.CORSOrigins
		corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
		corsConfig.ExposeHeaders = []string{"Content-Length", "X-Data-Quality"}
		r.Use(cors.New(corsConfig))
	}
	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("listen failed", zap.String("addr", srv.Addr), zap.Error(err))
		}
	}()
	zlog.Info("http server listening", zap.String("addr", srv.Addr))

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	zlog.Info("shutting down server")

	cancel()
	if tgBot != nil {
		tgBot.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
		return
	}

	zlog.Info("server exiting")
}
