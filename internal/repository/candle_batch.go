package repository

import (
	"time"

	"TransWatcher/internal/domain/models"
)

// prepareBatch pins every candle to symbol, stamps InsertedAt and collapses
// duplicate timestamps so that the last occurrence wins.
func prepareBatch(symbol string, candles []models.Candle, now time.Time) []models.Candle {
	out := make([]models.Candle, 0, len(candles))
	pos := make(map[int64]int, len(candles))
	for _, c := range candles {
		c.Symbol = symbol
		c.InsertedAt = now
		if i, ok := pos[c.Timestamp]; ok {
			out[i] = c
			continue
		}
		pos[c.Timestamp] = len(out)
		out = append(out, c)
	}
	return out
}

func queryLimit(limit int) int {
	if limit <= 0 {
		return models.DefaultCandleLimit
	}
	return limit
}

// sameContent compares everything but InsertedAt.
func sameContent(a, b models.Candle) bool {
	a.InsertedAt, b.InsertedAt = time.Time{}, time.Time{}
	return a.Symbol == b.Symbol &&
		a.Timestamp == b.Timestamp &&
		a.Datetime.Equal(b.Datetime) &&
		a.Open == b.Open && a.High == b.High && a.Low == b.Low && a.Close == b.Close &&
		a.Volume == b.Volume &&
		a.VolumeCurrency == b.VolumeCurrency &&
		a.VolumeCurrencyQuote == b.VolumeCurrencyQuote &&
		a.Confirmed == b.Confirmed
}
