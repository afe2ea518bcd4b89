package okx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"TransWatcher/internal/domain/models"
	"TransWatcher/internal/domain/repository"
	pkghttp "TransWatcher/pkg/http"
	"TransWatcher/pkg/logger"
)

const (
	pathCandles     = "/api/v5/market/candles"
	pathTicker      = "/api/v5/market/ticker"
	pathBooks       = "/api/v5/market/books"
	pathInstruments = "/api/v5/public/instruments"
	pathTime        = "/api/v5/public/time"

	maxCandleLimit   = 300
	instrumentsShown = 10
	defaultBookSize  = 20
	defaultInstType  = "SWAP"
	statusConnected  = "Connected to OKEx API"
	simulatedTrading = "x-simulated-trading"
)

// Client reads public OKX market data over REST.
type Client struct {
	http    *pkghttp.Client
	baseURL string
	limiter *rate.Limiter
	popular []string
	l       *logger.Logger
}

var _ repository.MarketData = (*Client)(nil)

func New(opts ...Option) *Client {
	cfg := &Config{
		BaseURL:      DefaultBaseURL,
		Flag:         "0",
		RateLimit:    10,
		Burst:        10,
		PopularPairs: DefaultPopularPairs,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	httpOpts := []pkghttp.ClientOption{pkghttp.WithTimeout(cfg.Timeout)}
	if cfg.Flag == "1" {
		httpOpts = append(httpOpts, pkghttp.WithHeader(simulatedTrading, "1"))
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		http:    pkghttp.NewClient(httpOpts...),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		limiter: limiter,
		popular: cfg.PopularPairs,
		l:       cfg.Logger,
	}
}

type envelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// get performs one paced request and unwraps the OKX envelope into dest.
// A non-"0" code is reported with notFound as the message.
func (c *Client) get(ctx context.Context, op, path string, query map[string][]string, notFound string, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.TransportError(op, err)
	}

	var env envelope
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:      pkghttp.MethodGet,
		URL:         c.baseURL + path,
		QueryParams: query,
	}, &env)
	if err != nil {
		// OKX answers some rejections with a 4xx that still carries an envelope.
		var se *pkghttp.StatusError
		if errors.As(err, &se) && se.StatusCode < 500 && json.Unmarshal([]byte(se.Body), &env) == nil && env.Code != "" {
			return models.UpstreamError(op, notFound, fmt.Errorf("okx code %s: %s", env.Code, env.Msg))
		}
		return models.TransportError(op, err)
	}
	if env.Code != "0" {
		return models.UpstreamError(op, notFound, fmt.Errorf("okx code %s: %s", env.Code, env.Msg))
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return models.UpstreamError(op, notFound, models.ErrNoData)
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return models.TransportError(op, fmt.Errorf("decode data: %w", err))
	}
	return nil
}

// FetchCandles returns the raw candle rows for symbol, most recent first.
func (c *Client) FetchCandles(ctx context.Context, symbol string, bar repository.Bar, limit int) (*models.CandleFetch, error) {
	const op = "okx fetch candles"
	if symbol == "" {
		return nil, models.InputError(op, "symbol is required", nil)
	}
	if limit < 1 || limit > maxCandleLimit {
		return nil, models.InputError(op, fmt.Sprintf("limit must be between 1 and %d", maxCandleLimit), nil)
	}

	var rows []models.RawRow
	err := c.get(ctx, op, pathCandles, map[string][]string{
		"instId": {symbol},
		"bar":    {bar.String()},
		"limit":  {strconv.Itoa(limit)},
	}, fmt.Sprintf("Candlestick data not found for %s", symbol), &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, models.UpstreamError(op, fmt.Sprintf("Candlestick data not found for %s", symbol), models.ErrNoData)
	}

	return &models.CandleFetch{
		Symbol:    symbol,
		Bar:       bar.String(),
		Rows:      rows,
		FetchedAt: time.Now().UTC(),
	}, nil
}

func (c *Client) Ticker(ctx context.Context, symbol string) (*models.Ticker, error) {
	const op = "okx ticker"
	notFound := fmt.Sprintf("Ticker data not found for %s", symbol)

	var data []models.Ticker
	if err := c.get(ctx, op, pathTicker, map[string][]string{"instId": {symbol}}, notFound, &data); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, models.UpstreamError(op, notFound, models.ErrNoData)
	}
	return &data[0], nil
}

func (c *Client) OrderBook(ctx context.Context, symbol string, size int) (*models.OrderBook, error) {
	const op = "okx order book"
	if size <= 0 {
		size = defaultBookSize
	}
	notFound := fmt.Sprintf("Order book data not found for %s", symbol)

	var data []models.OrderBook
	err := c.get(ctx, op, pathBooks, map[string][]string{
		"instId": {symbol},
		"sz":     {strconv.Itoa(size)},
	}, notFound, &data)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, models.UpstreamError(op, notFound, models.ErrNoData)
	}
	return &data[0], nil
}

// Instruments returns the first few instruments of instType plus the total count.
func (c *Client) Instruments(ctx context.Context, instType string) (*models.Instruments, error) {
	const op = "okx instruments"
	if instType == "" {
		instType = defaultInstType
	}

	var data []json.RawMessage
	err := c.get(ctx, op, pathInstruments, map[string][]string{"instType": {instType}}, "Instruments data not found", &data)
	if err != nil {
		return nil, err
	}

	shown := data
	if len(shown) > instrumentsShown {
		shown = shown[:instrumentsShown]
	}
	return &models.Instruments{Data: shown, TotalCount: len(data)}, nil
}

func (c *Client) SystemStatus(ctx context.Context) (*models.SystemStatus, error) {
	const op = "okx system status"
	const unreachable = "Unable to connect to OKEx API"

	var data []struct {
		Ts string `json:"ts"`
	}
	if err := c.get(ctx, op, pathTime, nil, unreachable, &data); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, models.UpstreamError(op, unreachable, models.ErrNoData)
	}
	return &models.SystemStatus{
		OKXTime:   data[0].Ts,
		LocalTime: time.Now(),
		Status:    statusConnected,
	}, nil
}

// PopularSymbols lists the instruments reported by PopularPairs.
func (c *Client) PopularSymbols() []string { return c.popular }

// PopularPairs summarizes the configured popular instruments. Pairs whose ticker
// cannot be read are left out.
func (c *Client) PopularPairs(ctx context.Context) ([]models.TradingPair, error) {
	return popularPairs(ctx, c.popular, c.Ticker, c.l)
}

func popularPairs(
	ctx context.Context,
	symbols []string,
	ticker func(context.Context, string) (*models.Ticker, error),
	l *logger.Logger,
) ([]models.TradingPair, error) {
	out := make([]models.TradingPair, 0, len(symbols))
	for _, pair := range symbols {
		t, err := ticker(ctx, pair)
		if err != nil {
			if ctx.Err() != nil {
				return nil, models.TransportError("okx popular pairs", ctx.Err())
			}
			l.Debug("skip trading pair", logger.String("symbol", pair), logger.Error(err))
			continue
		}
		out = append(out, models.TradingPair{
			Symbol:    pair,
			Price:     t.Last,
			Change24h: t.Open24h,
			Volume24h: t.Vol24h,
			High24h:   t.High24h,
			Low24h:    t.Low24h,
		})
	}
	return out, nil
}
