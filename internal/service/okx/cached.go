package okx

import (
	"context"
	"errors"
	"time"

	"TransWatcher/internal/domain/models"
	"TransWatcher/internal/domain/repository"
	"TransWatcher/pkg/cache"
	"TransWatcher/pkg/logger"
)

// CachedMarketData serves ticker and instrument lookups from a short-lived cache.
// Popular pairs are assembled from cached tickers.
// Candles, order books and status always go upstream.
type CachedMarketData struct {
	repository.MarketData
	cache          cache.Service
	tickerTTL      time.Duration
	instrumentsTTL time.Duration
	l              *logger.Logger
}

var _ repository.MarketData = (*CachedMarketData)(nil)

func NewCachedMarketData(next repository.MarketData, c cache.Service, tickerTTL, instrumentsTTL time.Duration, l *logger.Logger) *CachedMarketData {
	if l == nil {
		l = logger.Nop()
	}
	return &CachedMarketData{
		MarketData:     next,
		cache:          c,
		tickerTTL:      tickerTTL,
		instrumentsTTL: instrumentsTTL,
		l:              l,
	}
}

func (c *CachedMarketData) Ticker(ctx context.Context, symbol string) (*models.Ticker, error) {
	if c.tickerTTL <= 0 {
		return c.MarketData.Ticker(ctx, symbol)
	}
	key := cache.Key("okx", "ticker", symbol)
	var t models.Ticker
	if c.load(ctx, key, &t) {
		return &t, nil
	}
	res, err := c.MarketData.Ticker(ctx, symbol)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, res, c.tickerTTL)
	return res, nil
}

func (c *CachedMarketData) Instruments(ctx context.Context, instType string) (*models.Instruments, error) {
	if c.instrumentsTTL <= 0 {
		return c.MarketData.Instruments(ctx, instType)
	}
	if instType == "" {
		instType = defaultInstType
	}
	key := cache.Key("okx", "instruments", instType)
	var in models.Instruments
	if c.load(ctx, key, &in) {
		return &in, nil
	}
	res, err := c.MarketData.Instruments(ctx, instType)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, res, c.instrumentsTTL)
	return res, nil
}

// PopularPairs reads each pair through the ticker cache when the wrapped source names its pairs.
func (c *CachedMarketData) PopularPairs(ctx context.Context) ([]models.TradingPair, error) {
	src, ok := c.MarketData.(interface{ PopularSymbols() []string })
	if !ok {
		return c.MarketData.PopularPairs(ctx)
	}
	return popularPairs(ctx, src.PopularSymbols(), c.Ticker, c.l)
}

// load reports a hit. Cache failures degrade to a miss.
func (c *CachedMarketData) load(ctx context.Context, key string, dest interface{}) bool {
	err := c.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		c.l.Warn("cache read failed", logger.String("key", key), logger.Error(err))
	}
	return false
}

func (c *CachedMarketData) store(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if err := c.cache.Set(ctx, key, v, ttl); err != nil {
		c.l.Warn("cache write failed", logger.String("key", key), logger.Error(err))
	}
}
