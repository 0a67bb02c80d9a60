package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	ossignal "os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"perp-trader/internal/app"
	"perp-trader/internal/config"
	mcpserver "perp-trader/internal/mcp"
	"perp-trader/pkg/logger"
	"perp-trader/pkg/tracing"

	"github.com/joho/godotenv"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const defaultMCPHTTPMaxBodyBytes int64 = 1 << 20 // 1MiB

var (
	loadEnvFunc       = godotenv.Load
	loadConfigFunc    = config.Load
	newLoggerFunc     = logger.New
	initTracerFunc    = tracing.InitTracer
	buildStackFunc    = app.Build
	newMCPServerFunc  = mcpserver.NewServer
	newMCPHandlerFunc = mcpserver.NewHTTPTransportHandler
	runStdioFunc      = func(ctx context.Context, server *sdkmcp.Server) error {
		return server.Run(ctx, &sdkmcp.StdioTransport{})
	}
	startHTTPServerFunc  = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFn = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify    = ossignal.Notify
	waitForSignalFunc    = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()

	// stdout belongs to the stdio transport.
	zlog, err := newLoggerFunc(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile, Stderr: true})
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

	mcpSrv := newMCPServerFunc(tracer, stack.Service, mcpserver.ServerConfig{
		RequestTimeout: time.Duration(cfg.MCPRequestTimeoutSecs) * time.Second,
		Logger:         slog.New(slog.NewTextHandler(os.Stderr, nil)),
	})

	switch cfg.MCPTransport {
	case "", "stdio":
		zlog.Info("mcp server running on stdio")
		if err := runStdioFunc(ctx, mcpSrv); err != nil {
			zlog.Error("mcp stdio server failed", zap.Error(err))
		}
	case "http":
		if err := runHTTPMode(ctx, cancel, cfg, mcpSrv, zlog); err != nil {
			zlog.Error("mcp http server failed", zap.Error(err))
		}
	default:
		zlog.Error("unsupported MCP_TRANSPORT", zap.String("transport", cfg.MCPTransport))
	}
}

func runHTTPMode(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, mcpSrv *sdkmcp.Server, zlog *zap.Logger) error {
	if !cfg.MCPHTTPEnabled {
		return fmt.Errorf("MCP_HTTP_ENABLED must be true when MCP_TRANSPORT=http")
	}
	if strings.TrimSpace(cfg.MCPAuthToken) == "" {
		return fmt.Errorf("MCP_AUTH_TOKEN is required when MCP_TRANSPORT=http")
	}

	handler := newMCPHandlerFunc(mcpSrv, mcpserver.HTTPHandlerConfig{
		AuthToken:       cfg.MCPAuthToken,
		RateLimitPerMin: cfg.MCPRateLimitPerMin,
		MaxBodyBytes:    defaultMCPHTTPMaxBodyBytes,
	})

	addr := net.JoinHostPort(cfg.MCPHTTPBind, strconv.Itoa(cfg.MCPHTTPPort))
	srv := &http.Server{
		Addr:        addr,
		Handler:     handler,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error("mcp http listener failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	zlog.Info("mcp http server listening", zap.String("addr", addr))

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFn(srv, shutdownCtx); err != nil {
		return fmt.Errorf("mcp server forced to shutdown: %w", err)
	}
	return nil
}
