package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TransWatcher/internal/domain/models"
)

func candle(ts int64, closePrice float64) models.Candle {
	return models.Candle{
		Timestamp: ts,
		Datetime:  time.UnixMilli(ts).UTC(),
		Open:      1,
		High:      2,
		Low:       0.5,
		Close:     closePrice,
		Volume:    10,
		Confirmed: 1,
	}
}

func TestMemoryUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCandleStore()
	batch := []models.Candle{candle(100, 1), candle(200, 2), candle(300, 3)}

	first, err := store.UpsertBatch(ctx, "BTC-USDT", batch)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Inserted)
	assert.Equal(t, 0, first.Replaced)

	second, err := store.UpsertBatch(ctx, "BTC-USDT", batch)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 3, second.Replaced)
	assert.Equal(t, 3, second.Matched)
	assert.Equal(t, 0, second.Modified)

	got, err := store.QueryRange(ctx, models.CandleQuery{Symbol: "BTC-USDT"})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestMemoryUpsertReplacesWholeDocument(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCandleStore()

	_, err := store.UpsertBatch(ctx, "BTC-USDT", []models.Candle{{Timestamp: 100, Close: 1, VolumeCurrency: 7, Confirmed: 0}})
	require.NoError(t, err)

	res, err := store.UpsertBatch(ctx, "BTC-USDT", []models.Candle{{Timestamp: 100, Close: 9, Confirmed: 1}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Replaced)
	assert.Equal(t, 1, res.Modified)

	latest, err := store.Latest(ctx, "BTC-USDT")
	require.NoError(t, err)
	assert.Equal(t, 9.0, latest.Close)
	assert.Equal(t, 0.0, latest.VolumeCurrency, "fields absent from the new document are not merged")
	assert.Equal(t, 1, latest.Confirmed)
}

func TestMemoryUpsertCountsAreExhaustive(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCandleStore()

	_, err := store.UpsertBatch(ctx, "BTC-USDT", []models.Candle{candle(100, 1), candle(200, 2)})
	require.NoError(t, err)

	res, err := store.UpsertBatch(ctx, "BTC-USDT", []models.Candle{candle(200, 2), candle(300, 3), candle(400, 4)})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Replaced)
	assert.Equal(t, res.Total, res.Inserted+res.Replaced+res.Failed)
}

func TestMemoryUpsertCollapsesDuplicateKeys(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCandleStore()

	res, err := store.UpsertBatch(ctx, "BTC-USDT", []models.Candle{candle(100, 1), candle(100, 5)})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.Inserted)

	latest, err := store.Latest(ctx, "BTC-USDT")
	require.NoError(t, err)
	assert.Equal(t, 5.0, latest.Close)
}

func TestMemoryUpsertPinsSymbol(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCandleStore()

	c := candle(100, 1)
	c.Symbol = "OTHER"
	_, err := store.UpsertBatch(ctx, "BTC-USDT", []models.Candle{c})
	require.NoError(t, err)

	symbols, err := store.Symbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC-USDT"}, symbols)
}

func TestMemoryUpsertEmptyBatch(t *testing.T) {
	store := NewMemoryCandleStore()

	res, err := store.UpsertBatch(context.Background(), "BTC-USDT", nil)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, models.ErrEmptyBatch)
	assert.Equal(t, models.KindEmptyBatch, models.KindOf(err))
}

func TestMemoryQueryRange(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCandleStore()
	_, err := store.UpsertBatch(ctx, "BTC-USDT", []models.Candle{candle(100, 1), candle(200, 2), candle(300, 3)})
	require.NoError(t, err)
	_, err = store.UpsertBatch(ctx, "ETH-USDT", []models.Candle{candle(250, 9)})
	require.NoError(t, err)

	start := int64(150)
	got, err := store.QueryRange(ctx, models.CandleQuery{Symbol: "BTC-USDT", Limit: 10, StartTs: &start})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(300), got[0].Timestamp)
	assert.Equal(t, int64(200), got[1].Timestamp)

	end := int64(200)
	got, err = store.QueryRange(ctx, models.CandleQuery{Symbol: "BTC-USDT", StartTs: &end, EndTs: &end})
	require.NoError(t, err)
	require.Len(t, got, 1, "bounds are inclusive")
	assert.Equal(t, int64(200), got[0].Timestamp)

	got, err = store.QueryRange(ctx, models.CandleQuery{Symbol: "BTC-USDT", Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(300), got[0].Timestamp)
}

func TestMemoryQueryRangeNoMatch(t *testing.T) {
	got, err := NewMemoryCandleStore().QueryRange(context.Background(), models.CandleQuery{Symbol: "NOPE"})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMemoryLatest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCandleStore()

	_, err := store.Latest(ctx, "BTC-USDT")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = store.UpsertBatch(ctx, "BTC-USDT", []models.Candle{candle(200, 2), candle(300, 3), candle(100, 1)})
	require.NoError(t, err)

	latest, err := store.Latest(ctx, "BTC-USDT")
	require.NoError(t, err)
	assert.Equal(t, int64(300), latest.Timestamp)
	assert.False(t, latest.InsertedAt.IsZero())
}

func TestQueryLimitDefault(t *testing.T) {
	assert.Equal(t, models.DefaultCandleLimit, queryLimit(0))
	assert.Equal(t, 7, queryLimit(7))
}
