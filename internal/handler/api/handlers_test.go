package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TransWatcher/internal/domain/models"
	domrepo "TransWatcher/internal/domain/repository"
	"TransWatcher/internal/repository"
	"TransWatcher/internal/service/ratelimit"
	"TransWatcher/internal/usecase"
	xhttp "TransWatcher/pkg/http"
	xlogger "TransWatcher/pkg/logger"
)

type stubMarket struct {
	rows      map[string][]models.RawRow
	statusErr error
}

func (m *stubMarket) FetchCandles(_ context.Context, symbol string, bar domrepo.Bar, _ int) (*models.CandleFetch, error) {
	if symbol == "DOWN-USDT" {
		return nil, models.TransportError("stub fetch", errors.New("connection refused"))
	}
	rows, ok := m.rows[symbol]
	if !ok {
		return nil, models.UpstreamError("stub fetch", "Candlestick data not found for "+symbol, models.ErrNoData)
	}
	return &models.CandleFetch{Symbol: symbol, Bar: bar.String(), Rows: rows}, nil
}

func (m *stubMarket) Ticker(_ context.Context, symbol string) (*models.Ticker, error) {
	if symbol != "BTC-USDT" {
		return nil, models.UpstreamError("stub ticker", "Ticker data not found for "+symbol, models.ErrNoData)
	}
	return &models.Ticker{InstID: symbol, Last: "42000"}, nil
}

func (m *stubMarket) OrderBook(_ context.Context, _ string, _ int) (*models.OrderBook, error) {
	return &models.OrderBook{Asks: [][]string{{"1", "2"}}, Bids: [][]string{{"0.9", "3"}}, Ts: "1"}, nil
}

func (m *stubMarket) Instruments(_ context.Context, _ string) (*models.Instruments, error) {
	return &models.Instruments{Data: []json.RawMessage{json.RawMessage(`{"instId":"BTC-USDT-SWAP"}`)}, TotalCount: 42}, nil
}

func (m *stubMarket) SystemStatus(context.Context) (*models.SystemStatus, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	return &models.SystemStatus{OKXTime: "1700000000000", LocalTime: time.Now(), Status: "Connected to OKEx API"}, nil
}

func (m *stubMarket) PopularPairs(context.Context) ([]models.TradingPair, error) {
	return []models.TradingPair{{Symbol: "BTC-USDT", Price: "42000"}}, nil
}

func rawRow(ts string, closePrice string) models.RawRow {
	return models.RawRow{ts, "1", "2", "0.5", closePrice, "10", "100", "1000", "1"}
}

func newTestEcho(t *testing.T, market *stubMarket) *echo.Echo {
	t.Helper()
	return newTestEchoWithStore(t, market, repository.NewMemoryCandleStore())
}

func newTestEchoWithStore(t *testing.T, market *stubMarket, store domrepo.CandleStore) *echo.Echo {
	t.Helper()
	l := xlogger.Nop()
	ingestor := usecase.NewCandleIngestor(market, store, nil, nil, 2, l)

	e := echo.New()
	xhttp.Handlers{
		NewSystemHandler(l, ratelimit.NewTokenBucket(2, 5*time.Second)),
		NewItemsHandler(l, usecase.NewItemService(repository.NewMemoryItemStore())),
		NewOKXHandler(l, market, ingestor),
		NewCandlesHandler(l, usecase.NewCandleQuery(store), ingestor),
	}.RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestCollectThenQuery(t *testing.T) {
	market := &stubMarket{rows: map[string][]models.RawRow{
		"BTC-USDT": {rawRow("1700007200000", "3"), rawRow("1700003600000", "2"), rawRow("1700000000000", "1")},
	}}
	e := newTestEcho(t, market)

	rec := do(e, http.MethodPost, "/okex/collect-candles", `{"symbol":"BTC-USDT","limit":3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "1H", body["bar"])
	assert.Equal(t, float64(3), body["total_candles"])
	assert.Equal(t, float64(3), body["candles_saved"])
	assert.Equal(t, float64(0), body["matched_count"])

	rec = do(e, http.MethodGet, "/candles/BTC-USDT?start_time=1700003600000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, float64(2), body["count"])
	candles := body["candles"].([]interface{})
	first := candles[0].(map[string]interface{})
	assert.Equal(t, float64(1700007200000), first["timestamp"])
	assert.Equal(t, "2023-11-15T00:13:20Z", first["datetime"])

	rec = do(e, http.MethodGet, "/candles/BTC-USDT/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)
	latest := decode(t, rec)["latest_candle"].(map[string]interface{})
	assert.Equal(t, float64(3), latest["close"])

	rec = do(e, http.MethodGet, "/candles/symbols", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, []interface{}{"BTC-USDT"}, body["symbols"])
	assert.Equal(t, float64(1), body["count"])
}

func TestCandleQueryErrors(t *testing.T) {
	e := newTestEcho(t, &stubMarket{})

	rec := do(e, http.MethodGet, "/candles/BTC-USDT?start_time=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid timestamp format")

	for _, limit := range []string{"-5", "abc", "0"} {
		rec = do(e, http.MethodGet, "/candles/BTC-USDT?limit="+limit, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, limit)
		assert.Contains(t, rec.Body.String(), "Invalid limit", limit)
	}

	rec = do(e, http.MethodGet, "/candles/BTC-USDT", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode(t, rec)["count"])

	rec = do(e, http.MethodGet, "/candles/BTC-USDT/latest", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "No candles found for BTC-USDT")
}

func TestCollectErrors(t *testing.T) {
	e := newTestEcho(t, &stubMarket{rows: map[string][]models.RawRow{}})

	rec := do(e, http.MethodPost, "/okex/collect-candles", `{"symbol":"BTC-USDT","bar":"7x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/okex/collect-candles", `{"symbol":"BTC-USDT","limit":500}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/okex/collect-candles", `{"symbol":"NOPE-USDT"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodPost, "/okex/collect-candles", `{"symbol":"DOWN-USDT"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// lastRowFails drops the last candle of every batch and reports it as failed.
type lastRowFails struct {
	*repository.MemoryCandleStore
}

func (s lastRowFails) UpsertBatch(ctx context.Context, symbol string, candles []models.Candle) (*models.UpsertResult, error) {
	res, err := s.MemoryCandleStore.UpsertBatch(ctx, symbol, candles[:len(candles)-1])
	if err != nil {
		return nil, err
	}
	res.Total++
	res.Failed++
	return res, models.StoreError("upsert", errors.New("write conflict"))
}

func TestCollectPartialFailureReportsCounts(t *testing.T) {
	market := &stubMarket{rows: map[string][]models.RawRow{
		"BTC-USDT": {rawRow("1700007200000", "3"), rawRow("1700003600000", "2"), rawRow("1700000000000", "1")},
	}}
	e := newTestEchoWithStore(t, market, lastRowFails{repository.NewMemoryCandleStore()})

	for _, target := range []string{"/okex/collect-candles", "/candles/collect/BTC-USDT"} {
		rec := do(e, http.MethodPost, target, `{"symbol":"BTC-USDT","limit":3}`)
		require.Equal(t, http.StatusInternalServerError, rec.Code, target)
		body := decode(t, rec)
		assert.Equal(t, false, body["success"], target)
		assert.Equal(t, "Something went wrong", body["error"], target)
		assert.Equal(t, float64(3), body["total_candles"], target)
		assert.Equal(t, float64(1), body["failed_count"], target)
	}

	rec := do(e, http.MethodPost, "/okex/collect-candles-bulk", `{"symbols":["BTC-USDT"],"bar":"1H","limit":3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode(t, rec)["results"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, false, result["success"])
	assert.Equal(t, "store operation failed", result["error"])
	assert.Equal(t, float64(1), result["candles_failed"])
	assert.Contains(t, result, "candles_saved")
}

func TestCollectPathSymbol(t *testing.T) {
	e := newTestEcho(t, &stubMarket{rows: map[string][]models.RawRow{
		"ETH-USDT": {rawRow("1700000000000", "1")},
	}})

	rec := do(e, http.MethodPost, "/candles/collect/ETH-USDT", `{"bar":"1m","limit":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "ETH-USDT", body["symbol"])
	assert.Equal(t, "1m", body["bar"])
}

func TestCollectBulk(t *testing.T) {
	e := newTestEcho(t, &stubMarket{rows: map[string][]models.RawRow{
		"BTC-USDT": {rawRow("1700000000000", "1")},
	}})

	rec := do(e, http.MethodPost, "/okex/collect-candles-bulk", `{"symbols":["BTC-USDT","NOPE-USDT"],"bar":"1D","limit":5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, float64(2), body["processed_symbols"])
	assert.Equal(t, "1D", body["bar"])
	results := body["results"].([]interface{})
	require.Len(t, results, 2)
	ok := results[0].(map[string]interface{})
	assert.Equal(t, true, ok["success"])
	assert.Equal(t, float64(1), ok["candles_saved"])
	bad := results[1].(map[string]interface{})
	assert.Equal(t, false, bad["success"])
	assert.Equal(t, "Candlestick data not found for NOPE-USDT", bad["error"])
	assert.NotContains(t, bad, "candles_saved")

	rec = do(e, http.MethodPost, "/okex/collect-candles-bulk", `{"symbols":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOKXProxy(t *testing.T) {
	market := &stubMarket{}
	e := newTestEcho(t, market)

	rec := do(e, http.MethodGet, "/okex/ticker/BTC-USDT", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "42000", body["data"].(map[string]interface{})["last"])

	rec = do(e, http.MethodGet, "/okex/ticker/NOPE", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodGet, "/okex/instruments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(42), decode(t, rec)["total_count"])

	rec = do(e, http.MethodGet, "/okex/orderbook/BTC-USDT?sz=5", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/okex/trading-pairs", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/okex/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Connected to OKEx API", decode(t, rec)["status"])

	market.statusErr = models.UpstreamError("stub status", "Unable to connect to OKEx API", models.ErrNoData)
	rec = do(e, http.MethodGet, "/okex/status", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestItemsCRUD(t *testing.T) {
	e := newTestEcho(t, &stubMarket{})

	rec := do(e, http.MethodPost, "/items/", `{"name":"Laptop","price":999.99}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	item := decode(t, rec)
	assert.Equal(t, float64(1), item["id"])
	assert.Equal(t, true, item["is_available"])
	assert.Nil(t, item["description"])

	rec = do(e, http.MethodPost, "/items/", `{"price":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPut, "/items/1", `{"name":"Gaming Laptop","price":1200,"is_available":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["is_available"])

	rec = do(e, http.MethodGet, "/items/search/gaming", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Gaming Laptop")

	rec = do(e, http.MethodDelete, "/items/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Item 1 deleted successfully", decode(t, rec)["message"])

	rec = do(e, http.MethodGet, "/items/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Item not found")

	rec = do(e, http.MethodGet, "/items", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestInfoIsRateLimited(t *testing.T) {
	e := newTestEcho(t, &stubMarket{})

	for i := 0; i < 2; i++ {
		rec := do(e, http.MethodGet, "/info", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := do(e, http.MethodGet, "/info", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = do(e, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
}
