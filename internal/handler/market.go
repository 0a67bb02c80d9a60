package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetSnapshot godoc
// @Summary      Get market snapshot
// @Description  Returns price, funding and open interest for a perpetual contract
// @Tags         market
// @Produce      json
// @Param        symbol  path  string  true  "Asset symbol (BTC, ETH, SOL or BTCUSDT form)"
// @Success      200  {object}  domain.MarketSnapshot
// @Failure      400  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /api/snapshot/{symbol} [get]
func (h *Handler) GetSnapshot(c *gin.Context) {
	if h.markets == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "market service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-snapshot")
	defer span.End()

	symbol := strings.TrimSpace(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	snap, err := h.markets.GetMarketSnapshot(ctx, symbol)
	if err != nil {
		writeError(c, err)
		return
	}
	if snap.Quality.Degraded() {
		c.Header("X-Data-Quality", string(snap.Quality))
	}
	c.JSON(http.StatusOK, snap)
}

// RunStrategies godoc
// @Summary      Run trading strategies
// @Description  Evaluates every strategy for the symbol and returns all signals plus the best one
// @Tags         strategies
// @Produce      json
// @Param        symbol  path  string  true  "Asset symbol"
// @Success      200  {object}  domain.StrategyReport
// @Failure      400  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /api/strategies/{symbol} [get]
func (h *Handler) RunStrategies(c *gin.Context) {
	if h.markets == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "market service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.run-strategies")
	defer span.End()

	symbol := strings.TrimSpace(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	report, err := h.markets.RunStrategies(ctx, symbol)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"report":   report,
		"degraded": report.Degraded(),
	})
}

// GetProviders godoc
// @Summary  Provider circuit breaker state
// @Tags     providers
// @Produce  json
// @Success  200  {object}  map[string]interface{}
// @Router   /api/providers [get]
func (h *Handler) GetProviders(c *gin.Context) {
	if h.markets == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "market service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-providers")
	defer span.End()

	c.JSON(http.StatusOK, gin.H{"providers": h.markets.Providers(ctx)})
}
