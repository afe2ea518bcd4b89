package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TransWatcher/internal/domain/models"
	"TransWatcher/internal/repository"
)

func newIngestor(m *fakeMarket, concurrency int) (*CandleIngestor, *repository.MemoryCandleStore, *recordingPublisher) {
	store := repository.NewMemoryCandleStore()
	pub := &recordingPublisher{}
	return NewCandleIngestor(m, store, pub, nil, concurrency, nil), store, pub
}

func TestCollectUpsertsAndReportsCounts(t *testing.T) {
	ctx := context.Background()
	m := newFakeMarket()
	m.rows["BTC-USDT"] = []models.RawRow{row(300, 3), row(200, 2), row(100, 1)}
	uc, store, pub := newIngestor(m, 1)

	res, err := uc.Collect(ctx, "BTC-USDT", "1h", 3)
	require.NoError(t, err)
	assert.Equal(t, "1H", res.Bar)
	assert.Equal(t, 3, res.TotalCandles)
	assert.Equal(t, 3, res.Saved)
	assert.Equal(t, 0, res.Replaced)
	assert.Equal(t, []string{"BTC-USDT/1H/3"}, m.calls)

	m.rows["BTC-USDT"] = []models.RawRow{row(400, 4), row(300, 3.5)}
	res, err = uc.Collect(ctx, "BTC-USDT", "1H", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Saved)
	assert.Equal(t, 1, res.Replaced)
	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, 1, res.Modified)

	stored, err := store.QueryRange(ctx, models.CandleQuery{Symbol: "BTC-USDT", Limit: 10})
	require.NoError(t, err)
	require.Len(t, stored, 4)
	assert.Equal(t, 3.5, stored[1].Close)

	events := pub.Events()
	require.Len(t, events, 2)
	assert.Equal(t, int64(100), events[0].FirstTs)
	assert.Equal(t, int64(300), events[0].LastTs)
	assert.Equal(t, "rest", events[0].Source)
}

func TestCollectSkipsMalformedRows(t *testing.T) {
	m := newFakeMarket()
	m.rows["ETH-USDT"] = []models.RawRow{row(200, 2), {"100", "1"}, {"x", "1", "2", "3", "4", "5"}}
	uc, _, _ := newIngestor(m, 1)

	res, err := uc.Collect(context.Background(), "ETH-USDT", "1m", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalCandles)
	assert.Equal(t, 2, res.SkippedRows)
	assert.Equal(t, 1, res.Saved)
}

func TestCollectAllRowsMalformedIsEmptyBatch(t *testing.T) {
	m := newFakeMarket()
	m.rows["ETH-USDT"] = []models.RawRow{{"100", "1"}}
	uc, _, pub := newIngestor(m, 1)

	_, err := uc.Collect(context.Background(), "ETH-USDT", "1m", 1)
	assert.Equal(t, models.KindEmptyBatch, models.KindOf(err))
	assert.Empty(t, pub.Events())
}

func TestCollectValidatesBeforeFetching(t *testing.T) {
	m := newFakeMarket()
	uc, _, _ := newIngestor(m, 1)
	ctx := context.Background()

	tests := []struct {
		symbol string
		bar    string
		limit  int
	}{
		{"", "1h", 10},
		{"BTC-USDT", "7m", 10},
		{"BTC-USDT", "1h", 0},
		{"BTC-USDT", "1h", 301},
	}
	for _, tt := range tests {
		_, err := uc.Collect(ctx, tt.symbol, tt.bar, tt.limit)
		assert.Equal(t, models.KindInput, models.KindOf(err), "%+v", tt)
	}
	assert.Empty(t, m.calls)
}

func TestCollectPropagatesUpstreamError(t *testing.T) {
	m := newFakeMarket()
	m.errs["BTC-USDT"] = models.TransportError("fake fetch", errors.New("connection refused"))
	uc, store, _ := newIngestor(m, 1)

	_, err := uc.Collect(context.Background(), "BTC-USDT", "1h", 10)
	assert.True(t, models.IsTransport(err))

	symbols, err := store.Symbols(context.Background())
	require.NoError(t, err)
	assert.Empty(t, symbols)
}

func TestCollectBulkIsolatesFailures(t *testing.T) {
	for _, concurrency := range []int{1, 4} {
		m := newFakeMarket()
		m.rows["BTC-USDT"] = []models.RawRow{row(100, 1), row(200, 2)}
		m.rows["SOL-USDT"] = []models.RawRow{row(100, 1)}
		uc, store, _ := newIngestor(m, concurrency)

		res := uc.CollectBulk(context.Background(), []string{"BTC-USDT", "NOPE-USDT", "SOL-USDT"}, "1h", 50)
		assert.True(t, res.Success)
		assert.Equal(t, 3, res.ProcessedSymbols)
		assert.Equal(t, "1h", res.Bar)
		assert.Equal(t, 50, res.Limit)
		require.Len(t, res.Results, 3)

		assert.Equal(t, "BTC-USDT", res.Results[0].Symbol)
		assert.True(t, res.Results[0].Success)
		require.NotNil(t, res.Results[0].CandlesSaved)
		assert.Equal(t, 2, *res.Results[0].CandlesSaved)

		assert.Equal(t, "NOPE-USDT", res.Results[1].Symbol)
		assert.False(t, res.Results[1].Success)
		assert.Equal(t, "Candlestick data not found for NOPE-USDT", res.Results[1].Error)
		assert.Nil(t, res.Results[1].CandlesSaved)

		assert.Equal(t, "SOL-USDT", res.Results[2].Symbol)
		assert.True(t, res.Results[2].Success)

		symbols, err := store.Symbols(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"BTC-USDT", "SOL-USDT"}, symbols)
	}
}

func TestCollectBulkEmpty(t *testing.T) {
	uc, _, _ := newIngestor(newFakeMarket(), 1)
	res := uc.CollectBulk(context.Background(), nil, "1h", 10)
	assert.Equal(t, 0, res.ProcessedSymbols)
	assert.NotNil(t, res.Results)
	assert.Empty(t, res.Results)
}

func TestCollectPartialStoreFailureKeepsCounts(t *testing.T) {
	m := newFakeMarket()
	m.rows["BTC-USDT"] = []models.RawRow{row(300, 3), row(200, 2), row(100, 1)}
	m.rows["SOL-USDT"] = []models.RawRow{row(100, 1)}
	store := partialStore{repository.NewMemoryCandleStore()}
	pub := &recordingPublisher{}
	uc := NewCandleIngestor(m, store, pub, nil, 1, nil)

	res, err := uc.Collect(context.Background(), "BTC-USDT", "1h", 3)
	assert.Equal(t, models.KindStore, models.KindOf(err))
	require.NotNil(t, res)
	assert.Equal(t, 2, res.Saved)
	assert.Equal(t, 1, res.Failed)
	assert.Empty(t, pub.Events())

	bulk := uc.CollectBulk(context.Background(), []string{"BTC-USDT", "SOL-USDT"}, "1h", 3)
	require.Len(t, bulk.Results, 2)

	partial := bulk.Results[0]
	assert.False(t, partial.Success)
	assert.Equal(t, "store operation failed", partial.Error)
	require.NotNil(t, partial.CandlesSaved)
	require.NotNil(t, partial.CandlesFailed)
	// The first Collect already inserted two rows, so they are replaced this time.
	assert.Equal(t, 0, *partial.CandlesSaved)
	assert.Equal(t, 1, *partial.CandlesFailed)

	ok := bulk.Results[1]
	assert.True(t, ok.Success)
	require.NotNil(t, ok.CandlesSaved)
	assert.Equal(t, 1, *ok.CandlesSaved)
	assert.Nil(t, ok.CandlesFailed)
}
