package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"TransWatcher/internal/domain/models"
)

func TestRangeQuery(t *testing.T) {
	q, args := rangeQuery("okex_data.candles", models.CandleQuery{Symbol: "BTC-USDT"})
	assert.Equal(t, "SELECT "+candleColumns+" FROM okex_data.candles FINAL WHERE symbol = ? ORDER BY timestamp DESC LIMIT ?", q)
	assert.Equal(t, []interface{}{"BTC-USDT", 100}, args)

	start, end := int64(100), int64(300)
	q, args = rangeQuery("okex_data.candles", models.CandleQuery{Symbol: "BTC-USDT", Limit: 5, StartTs: &start, EndTs: &end})
	assert.Contains(t, q, "AND timestamp >= ? AND timestamp <= ? ORDER BY timestamp DESC")
	assert.Equal(t, []interface{}{"BTC-USDT", int64(100), int64(300), 5}, args)
}

func TestInsertStatement(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	chunk := prepareBatch("BTC-USDT", []models.Candle{candle(100, 1), candle(200, 2)}, now)

	q, args := insertStatement("okex_data.candles", chunk)
	assert.True(t, strings.HasPrefix(q, "INSERT INTO okex_data.candles ("+candleColumns+") VALUES "))
	assert.Equal(t, 2, strings.Count(q, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"))
	assert.Len(t, args, 24)
	assert.Equal(t, "BTC-USDT", args[0])
	assert.Equal(t, uint8(1), args[10])
	assert.Equal(t, now, args[11])
}
