package usecase

import (
	"context"
	"strconv"
	"strings"

	"TransWatcher/internal/domain/models"
	domrepo "TransWatcher/internal/domain/repository"
	"TransWatcher/pkg/util"
)

// CandleQuery serves stored candles.
type CandleQuery struct {
	store domrepo.CandleStore
}

func NewCandleQuery(store domrepo.CandleStore) *CandleQuery {
	return &CandleQuery{store: store}
}

// Query returns candles for symbol, newest first. limit, startTime and endTime are the raw
// query values; an empty limit means 100 and the epoch-millisecond bounds are inclusive.
func (uc *CandleQuery) Query(ctx context.Context, symbol, limit, startTime, endTime string) ([]models.Candle, error) {
	const op = "query candles"

	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, models.InputError(op, "symbol is required", nil)
	}
	n, err := parseLimit(limit)
	if err != nil {
		return nil, models.InputError(op, "Invalid limit, must be a positive integer", err)
	}
	start, err := util.ParseMillis(startTime)
	if err != nil {
		return nil, models.InputError(op, "Invalid timestamp format", models.ErrInvalidTimestamp)
	}
	end, err := util.ParseMillis(endTime)
	if err != nil {
		return nil, models.InputError(op, "Invalid timestamp format", models.ErrInvalidTimestamp)
	}
	return uc.store.QueryRange(ctx, models.CandleQuery{
		Symbol:  symbol,
		Limit:   n,
		StartTs: start,
		EndTs:   end,
	})
}

func parseLimit(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.DefaultCandleLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, models.ErrInvalidLimit
	}
	return n, nil
}

func (uc *CandleQuery) Latest(ctx context.Context, symbol string) (*models.Candle, error) {
	return uc.store.Latest(ctx, strings.TrimSpace(symbol))
}

func (uc *CandleQuery) Symbols(ctx context.Context) ([]string, error) {
	return uc.store.Symbols(ctx)
}
