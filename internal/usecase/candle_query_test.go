package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TransWatcher/internal/domain/models"
	domrepo "TransWatcher/internal/domain/repository"
	"TransWatcher/internal/repository"
)

func seededQuery(t *testing.T) *CandleQuery {
	t.Helper()
	store := repository.NewMemoryCandleStore()
	var batch []models.Candle
	for _, ts := range []int64{100, 200, 300, 400} {
		c, err := domrepo.Normalize("BTC-USDT", row(ts, float64(ts)))
		require.NoError(t, err)
		batch = append(batch, c)
	}
	_, err := store.UpsertBatch(context.Background(), "BTC-USDT", batch)
	require.NoError(t, err)
	return NewCandleQuery(store)
}

func TestQueryRangeAndLimit(t *testing.T) {
	q := seededQuery(t)
	ctx := context.Background()

	got, err := q.Query(ctx, "BTC-USDT", "", "200", "400")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(400), got[0].Timestamp)
	assert.Equal(t, int64(200), got[2].Timestamp)

	got, err = q.Query(ctx, "BTC-USDT", "2", "", "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(400), got[0].Timestamp)
}

func TestQueryEmptyIsNotAnError(t *testing.T) {
	q := seededQuery(t)
	got, err := q.Query(context.Background(), "ETH-USDT", "10", "", "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQueryRejectsBadTimestamp(t *testing.T) {
	q := seededQuery(t)
	_, err := q.Query(context.Background(), "BTC-USDT", "10", "yesterday", "")
	assert.Equal(t, models.KindInput, models.KindOf(err))
	assert.True(t, errors.Is(err, models.ErrInvalidTimestamp))
	assert.Equal(t, "Invalid timestamp format", models.MessageOf(err))
}

func TestQueryRejectsBadLimit(t *testing.T) {
	q := seededQuery(t)
	for _, limit := range []string{"0", "-5", "abc", "1.5"} {
		got, err := q.Query(context.Background(), "BTC-USDT", limit, "", "")
		assert.Nil(t, got, limit)
		assert.Equal(t, models.KindInput, models.KindOf(err), limit)
		assert.ErrorIs(t, err, models.ErrInvalidLimit, limit)
	}
}

func TestLatestAndSymbols(t *testing.T) {
	q := seededQuery(t)
	ctx := context.Background()

	c, err := q.Latest(ctx, "BTC-USDT")
	require.NoError(t, err)
	assert.Equal(t, int64(400), c.Timestamp)

	_, err = q.Latest(ctx, "ETH-USDT")
	assert.Equal(t, models.KindNotFound, models.KindOf(err))

	symbols, err := q.Symbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC-USDT"}, symbols)
}
