package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"TransWatcher/internal/domain/models"
	"TransWatcher/internal/usecase"
	xhttp "TransWatcher/pkg/http"
	xlogger "TransWatcher/pkg/logger"
)

// CandlesHandler serves stored candles.
type CandlesHandler struct {
	logger   *xlogger.Logger
	query    *usecase.CandleQuery
	ingestor *usecase.CandleIngestor
}

func NewCandlesHandler(logger *xlogger.Logger, query *usecase.CandleQuery, ingestor *usecase.CandleIngestor) *CandlesHandler {
	return &CandlesHandler{logger: logger, query: query, ingestor: ingestor}
}

func (h *CandlesHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/candles")
	g.GET("/symbols", h.Symbols)
	g.GET("/symbols/", h.Symbols)
	g.GET("/:symbol", h.Query)
	g.GET("/:symbol/latest", h.Latest)
	g.POST("/collect/:symbol", h.Collect)
}

type candlesResponse struct {
	Success bool                `json:"success"`
	Symbol  string              `json:"symbol"`
	Count   int                 `json:"count"`
	Candles []models.CandleView `json:"candles"`
}

type latestResponse struct {
	Success      bool              `json:"success"`
	Symbol       string            `json:"symbol"`
	LatestCandle models.CandleView `json:"latest_candle"`
}

type symbolsResponse struct {
	Success bool     `json:"success"`
	Symbols []string `json:"symbols"`
	Count   int      `json:"count"`
}

func (h *CandlesHandler) Query(c echo.Context) error {
	symbol := c.Param("symbol")
	candles, err := h.query.Query(c.Request().Context(), symbol,
		c.QueryParam("limit"), c.QueryParam("start_time"), c.QueryParam("end_time"))
	if err != nil {
		return fail(c, h.logger, "query candles", err)
	}
	views := models.Views(candles)
	return xhttp.JSONResponse(c, http.StatusOK, candlesResponse{
		Success: true,
		Symbol:  symbol,
		Count:   len(views),
		Candles: views,
	})
}

func (h *CandlesHandler) Latest(c echo.Context) error {
	symbol := c.Param("symbol")
	candle, err := h.query.Latest(c.Request().Context(), symbol)
	if err != nil {
		return fail(c, h.logger, "latest candle", err)
	}
	return xhttp.JSONResponse(c, http.StatusOK, latestResponse{
		Success:      true,
		Symbol:       symbol,
		LatestCandle: candle.View(),
	})
}

func (h *CandlesHandler) Symbols(c echo.Context) error {
	symbols, err := h.query.Symbols(c.Request().Context())
	if err != nil {
		return fail(c, h.logger, "list symbols", err)
	}
	return xhttp.JSONResponse(c, http.StatusOK, symbolsResponse{
		Success: true,
		Symbols: symbols,
		Count:   len(symbols),
	})
}

// Collect ingests the path symbol. The binder reads it from the path before the body.
func (h *CandlesHandler) Collect(c echo.Context) error {
	req := &models.CandleRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return collect(c, h.logger, h.ingestor, req)
}
