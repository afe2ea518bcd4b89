package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"TransWatcher/internal/domain/models"
	domrepo "TransWatcher/internal/domain/repository"
	"TransWatcher/internal/repository"
)

type fakeMarket struct {
	mu    sync.Mutex
	rows  map[string][]models.RawRow
	errs  map[string]error
	calls []string
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{rows: map[string][]models.RawRow{}, errs: map[string]error{}}
}

func row(ts int64, closePrice float64) models.RawRow {
	c := strconv.FormatFloat(closePrice, 'f', -1, 64)
	return models.RawRow{strconv.FormatInt(ts, 10), "1", "2", "0.5", c, "10", "100", "1000", "1"}
}

func (m *fakeMarket) FetchCandles(ctx context.Context, symbol string, bar domrepo.Bar, limit int) (*models.CandleFetch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, fmt.Sprintf("%s/%s/%d", symbol, bar, limit))
	if err := m.errs[symbol]; err != nil {
		return nil, err
	}
	rows, ok := m.rows[symbol]
	if !ok {
		return nil, models.UpstreamError("fake fetch", "Candlestick data not found for "+symbol, models.ErrNoData)
	}
	return &models.CandleFetch{Symbol: symbol, Bar: bar.String(), Rows: rows}, nil
}

func (m *fakeMarket) Ticker(context.Context, string) (*models.Ticker, error) { return nil, nil }

func (m *fakeMarket) OrderBook(context.Context, string, int) (*models.OrderBook, error) {
	return nil, nil
}

func (m *fakeMarket) Instruments(context.Context, string) (*models.Instruments, error) {
	return nil, nil
}

func (m *fakeMarket) SystemStatus(context.Context) (*models.SystemStatus, error) { return nil, nil }

func (m *fakeMarket) PopularPairs(context.Context) ([]models.TradingPair, error) { return nil, nil }

type recordingPublisher struct {
	mu     sync.Mutex
	events []*models.IngestEvent
}

func (p *recordingPublisher) PublishIngested(_ context.Context, ev *models.IngestEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Events() []*models.IngestEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*models.IngestEvent(nil), p.events...)
}

// partialStore writes every candle but the last and reports that one as failed.
type partialStore struct {
	*repository.MemoryCandleStore
}

func (s partialStore) UpsertBatch(ctx context.Context, symbol string, candles []models.Candle) (*models.UpsertResult, error) {
	if len(candles) < 2 {
		return s.MemoryCandleStore.UpsertBatch(ctx, symbol, candles)
	}
	res, err := s.MemoryCandleStore.UpsertBatch(ctx, symbol, candles[:len(candles)-1])
	if err != nil {
		return nil, err
	}
	res.Total++
	res.Failed++
	return res, models.StoreError("partial upsert", errors.New("write conflict"))
}
