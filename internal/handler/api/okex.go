package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"TransWatcher/internal/domain/models"
	domrepo "TransWatcher/internal/domain/repository"
	"TransWatcher/internal/usecase"
	xhttp "TransWatcher/pkg/http"
	xlogger "TransWatcher/pkg/logger"
)

// OKXHandler proxies OKX market data and triggers candle collection.
type OKXHandler struct {
	logger   *xlogger.Logger
	market   domrepo.MarketData
	ingestor *usecase.CandleIngestor
}

func NewOKXHandler(logger *xlogger.Logger, market domrepo.MarketData, ingestor *usecase.CandleIngestor) *OKXHandler {
	return &OKXHandler{logger: logger, market: market, ingestor: ingestor}
}

func (h *OKXHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/okex")
	g.GET("/ticker/:symbol", h.Ticker)
	g.GET("/instruments", h.Instruments)
	g.GET("/orderbook/:symbol", h.OrderBook)
	g.GET("/status", h.Status)
	g.GET("/trading-pairs", h.TradingPairs)
	g.POST("/collect-candles", h.CollectCandles)
	g.POST("/collect-candles-bulk", h.CollectCandlesBulk)
}

type marketResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	TotalCount *int        `json:"total_count,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

type statusResponse struct {
	Success bool `json:"success"`
	*models.SystemStatus
}

type collectResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	*models.IngestResult
}

func (h *OKXHandler) Ticker(c echo.Context) error {
	t, err := h.market.Ticker(c.Request().Context(), c.Param("symbol"))
	if err != nil {
		return fail(c, h.logger, "ticker", err)
	}
	return xhttp.JSONResponse(c, http.StatusOK, marketResponse{Success: true, Data: t, Timestamp: time.Now()})
}

func (h *OKXHandler) Instruments(c echo.Context) error {
	instType := c.QueryParam("instType")
	if instType == "" {
		instType = "SWAP"
	}
	res, err := h.market.Instruments(c.Request().Context(), instType)
	if err != nil {
		return fail(c, h.logger, "instruments", err)
	}
	total := res.TotalCount
	return xhttp.JSONResponse(c, http.StatusOK, marketResponse{
		Success:    true,
		Data:       res.Data,
		TotalCount: &total,
		Timestamp:  time.Now(),
	})
}

func (h *OKXHandler) OrderBook(c echo.Context) error {
	size := xhttp.QueryInt(c, "sz", 20)
	ob, err := h.market.OrderBook(c.Request().Context(), c.Param("symbol"), size)
	if err != nil {
		return fail(c, h.logger, "order book", err)
	}
	return xhttp.JSONResponse(c, http.StatusOK, marketResponse{Success: true, Data: ob, Timestamp: time.Now()})
}

// Status reports 503 whenever OKX cannot be reached or answers with an error.
func (h *OKXHandler) Status(c echo.Context) error {
	st, err := h.market.SystemStatus(c.Request().Context())
	if err != nil {
		h.logger.Warn("okx status check failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError(models.MessageOf(err)).WithError(err))
	}
	return xhttp.JSONResponse(c, http.StatusOK, statusResponse{Success: true, SystemStatus: st})
}

func (h *OKXHandler) TradingPairs(c echo.Context) error {
	pairs, err := h.market.PopularPairs(c.Request().Context())
	if err != nil {
		return fail(c, h.logger, "trading pairs", err)
	}
	return xhttp.JSONResponse(c, http.StatusOK, marketResponse{Success: true, Data: pairs, Timestamp: time.Now()})
}

func (h *OKXHandler) CollectCandles(c echo.Context) error {
	req := &models.CandleRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return collect(c, h.logger, h.ingestor, req)
}

func (h *OKXHandler) CollectCandlesBulk(c echo.Context) error {
	req := &models.BulkCandleRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res := h.ingestor.CollectBulk(c.Request().Context(), req.Symbols, req.Bar, req.Limit)
	return xhttp.JSONResponse(c, http.StatusOK, res)
}

func collect(c echo.Context, l *xlogger.Logger, ingestor *usecase.CandleIngestor, req *models.CandleRequest) error {
	res, err := ingestor.Collect(c.Request().Context(), req.Symbol, req.Bar, req.Limit)
	if err != nil && res != nil {
		// Part of the batch was written; report the counts with the failure status.
		appErr := toAppError(err)
		l.Error("collect candles partially failed",
			xlogger.String("symbol", res.Symbol),
			xlogger.Int("saved", res.Saved),
			xlogger.Int("failed", res.Failed),
			xlogger.Error(err),
		)
		return xhttp.JSONResponse(c, appErr.Status, collectResponse{Success: false, Error: appErr.Message, IngestResult: res})
	}
	if err != nil {
		return fail(c, l, "collect candles", err)
	}
	return xhttp.JSONResponse(c, http.StatusOK, collectResponse{Success: true, IngestResult: res})
}
