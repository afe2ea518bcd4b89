package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"TransWatcher/internal/domain/models"
	"TransWatcher/internal/domain/repository"
)

// MemoryCandleStore keeps candles in process memory. Used for local runs and tests.
type MemoryCandleStore struct {
	mu      sync.RWMutex
	candles map[string]map[int64]models.Candle
	now     func() time.Time
}

var _ repository.CandleStore = (*MemoryCandleStore)(nil)

func NewMemoryCandleStore() *MemoryCandleStore {
	return &MemoryCandleStore{
		candles: make(map[string]map[int64]models.Candle),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryCandleStore) Backend() string { return "memory" }

func (s *MemoryCandleStore) Connect(ctx context.Context) error { return nil }

func (s *MemoryCandleStore) EnsureIndexes(ctx context.Context) error { return nil }

func (s *MemoryCandleStore) Health(ctx context.Context) error { return nil }

func (s *MemoryCandleStore) Close(ctx context.Context) error { return nil }

func (s *MemoryCandleStore) UpsertBatch(ctx context.Context, symbol string, candles []models.Candle) (*models.UpsertResult, error) {
	if len(candles) == 0 {
		return nil, models.EmptyBatchError("memory upsert")
	}
	if err := ctx.Err(); err != nil {
		return nil, models.StoreError("memory upsert", err)
	}

	batch := prepareBatch(symbol, candles, s.now())
	res := &models.UpsertResult{Total: len(batch)}

	s.mu.Lock()
	defer s.mu.Unlock()

	bySymbol, ok := s.candles[symbol]
	if !ok {
		bySymbol = make(map[int64]models.Candle, len(batch))
		s.candles[symbol] = bySymbol
	}
	for _, c := range batch {
		if old, exists := bySymbol[c.Timestamp]; exists {
			res.Matched++
			res.Replaced++
			if !sameContent(old, c) {
				res.Modified++
			}
		} else {
			res.Inserted++
		}
		bySymbol[c.Timestamp] = c
	}
	return res, nil
}

func (s *MemoryCandleStore) QueryRange(ctx context.Context, q models.CandleQuery) ([]models.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Candle, 0)
	for ts, c := range s.candles[q.Symbol] {
		if q.StartTs != nil && ts < *q.StartTs {
			continue
		}
		if q.EndTs != nil && ts > *q.EndTs {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })

	if limit := queryLimit(q.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryCandleStore) Latest(ctx context.Context, symbol string) (*models.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		latest models.Candle
		found  bool
	)
	for ts, c := range s.candles[symbol] {
		if !found || ts > latest.Timestamp {
			latest, found = c, true
		}
	}
	if !found {
		return nil, models.NotFoundError("memory latest", fmt.Sprintf("No candles found for %s", symbol))
	}
	return &latest, nil
}

func (s *MemoryCandleStore) Symbols(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.candles))
	for symbol, bySymbol := range s.candles {
		if len(bySymbol) > 0 {
			out = append(out, symbol)
		}
	}
	sort.Strings(out)
	return out, nil
}
