package repository

import (
	"context"

	"TransWatcher/internal/domain/models"
)

// MarketData is the read-only upstream exchange API.
type MarketData interface {
	FetchCandles(ctx context.Context, symbol string, bar Bar, limit int) (*models.CandleFetch, error)
	Ticker(ctx context.Context, symbol string) (*models.Ticker, error)
	OrderBook(ctx context.Context, symbol string, size int) (*models.OrderBook, error)
	Instruments(ctx context.Context, instType string) (*models.Instruments, error)
	SystemStatus(ctx context.Context) (*models.SystemStatus, error)
	PopularPairs(ctx context.Context) ([]models.TradingPair, error)
}

// CandleStore persists candles keyed by (symbol, timestamp).
type CandleStore interface {
	Backend() string
	Connect(ctx context.Context) error
	EnsureIndexes(ctx context.Context) error
	UpsertBatch(ctx context.Context, symbol string, candles []models.Candle) (*models.UpsertResult, error)
	QueryRange(ctx context.Context, q models.CandleQuery) ([]models.Candle, error)
	Latest(ctx context.Context, symbol string) (*models.Candle, error)
	Symbols(ctx context.Context) ([]string, error)
	Health(ctx context.Context) error
	Close(ctx context.Context) error
}

// CandleStream pushes live candle rows until ctx is done.
type CandleStream interface {
	Run(ctx context.Context, onRow func(symbol string, bar Bar, row models.RawRow)) error
	Close() error
}

type EventPublisher interface {
	PublishIngested(ctx context.Context, ev *models.IngestEvent) error
	Close() error
}

type ItemStore interface {
	List(ctx context.Context) ([]models.Item, error)
	Get(ctx context.Context, id int) (*models.Item, error)
	Create(ctx context.Context, in models.ItemInput) (*models.Item, error)
	Update(ctx context.Context, id int, in models.ItemInput) (*models.Item, error)
	Delete(ctx context.Context, id int) (*models.Item, error)
	Search(ctx context.Context, query string) ([]models.Item, error)
}

type Metrics interface {
	RecordFetch(symbol, result string)
	RecordUpsert(backend string, res *models.UpsertResult)
	RecordSkippedRows(symbol string, n int)
	RecordStreamRow(symbol string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
