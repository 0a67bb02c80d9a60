package handler

import (
	"context"
	"errors"
	"net/http"

	"perp-trader/internal/domain"
	"perp-trader/internal/gateway"
	"perp-trader/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type MarketService interface {
	GetMarketSnapshot(ctx context.Context, symbol string) (domain.MarketSnapshot, error)
	RunStrategies(ctx context.Context, symbol string) (domain.StrategyReport, error)
	Providers(ctx context.Context) []domain.ProviderHealth
}

type Handler struct {
	tracer  trace.Tracer
	markets MarketService
}

func New(tracer trace.Tracer, markets MarketService) *Handler {
	return &Handler{tracer: tracer, markets: markets}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/snapshot/:symbol", h.GetSnapshot)
	r.GET("/api/strategies/:symbol", h.RunStrategies)
	r.GET("/api/providers", h.GetProviders)
}

// Health godoc
// @Summary  Liveness check
// @Tags     health
// @Produce  json
// @Success  200  {object}  map[string]string
// @Router   /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError maps service errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnsupportedSymbol):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             err.Error(),
			"supported_symbols": domain.SupportedSymbols,
		})
	case errors.Is(err, gateway.ErrNoData):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
