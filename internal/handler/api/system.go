package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"TransWatcher/internal/service/ratelimit"
	xhttp "TransWatcher/pkg/http"
	xlogger "TransWatcher/pkg/logger"
)

const (
	serviceName    = "TransWatcher OKX candle service"
	serviceVersion = "2.0.0"
)

// SystemHandler serves the welcome, health and info endpoints.
type SystemHandler struct {
	logger  *xlogger.Logger
	limiter ratelimit.Limiter
}

func NewSystemHandler(logger *xlogger.Logger, limiter ratelimit.Limiter) *SystemHandler {
	return &SystemHandler{logger: logger, limiter: limiter}
}

func (h *SystemHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)
	e.GET("/info", h.Info, h.rateLimit)
}

func (h *SystemHandler) Root(c echo.Context) error {
	return xhttp.JSONResponse(c, http.StatusOK, map[string]interface{}{
		"message": "Welcome to TransWatcher with OKX Integration!",
		"version": serviceVersion,
		"features": []string{
			"Basic CRUD operations",
			"OKX cryptocurrency API integration",
			"Candle data storage",
			"Real-time market data",
		},
		"metrics": "/metrics",
	})
}

func (h *SystemHandler) Health(c echo.Context) error {
	return xhttp.JSONResponse(c, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": time.Now(),
	})
}

type endpointInfo struct {
	Description string `json:"description"`
	BasePath    string `json:"base_path"`
}

func (h *SystemHandler) Info(c echo.Context) error {
	return xhttp.JSONResponse(c, http.StatusOK, map[string]interface{}{
		"name":        serviceName,
		"version":     serviceVersion,
		"description": "OKX candle ingestion and query service",
		"endpoints": map[string]endpointInfo{
			"items":   {Description: "Basic CRUD operations", BasePath: "/items"},
			"okex":    {Description: "OKX cryptocurrency API integration", BasePath: "/okex"},
			"candles": {Description: "Stored candle data operations", BasePath: "/candles"},
		},
		"technologies": []string{"Go", "Echo", "OKX REST v5", "MongoDB", "ClickHouse", "Redis", "Kafka"},
	})
}

// rateLimit rejects clients over the info budget with 429. Limiter failures let the request through.
func (h *SystemHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter == nil {
			return next(c)
		}
		ok, err := h.limiter.Allow(c.Request().Context(), c.RealIP())
		if err != nil {
			h.logger.Warn("rate limiter unavailable", xlogger.Error(err))
			return next(c)
		}
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("Too many requests, slow down"))
		}
		return next(c)
	}
}
