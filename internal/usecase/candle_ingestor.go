package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"TransWatcher/internal/domain/models"
	domrepo "TransWatcher/internal/domain/repository"
	"TransWatcher/pkg/logger"
)

const (
	minCandleLimit = 1
	maxCandleLimit = 300
)

// CandleIngestor fetches candles upstream, normalizes them and upserts them into the store.
type CandleIngestor struct {
	market      domrepo.MarketData
	store       domrepo.CandleStore
	events      domrepo.EventPublisher
	metrics     domrepo.Metrics
	concurrency int
	l           *logger.Logger
}

// NewCandleIngestor creates an ingestor. concurrency bounds CollectBulk; 1 runs symbols in order.
func NewCandleIngestor(
	market domrepo.MarketData,
	store domrepo.CandleStore,
	events domrepo.EventPublisher,
	metrics domrepo.Metrics,
	concurrency int,
	l *logger.Logger,
) *CandleIngestor {
	if concurrency < 1 {
		concurrency = 1
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if l == nil {
		l = logger.Nop()
	}
	return &CandleIngestor{
		market:      market,
		store:       store,
		events:      events,
		metrics:     metrics,
		concurrency: concurrency,
		l:           l,
	}
}

// Collect runs fetch, normalize and upsert for one symbol.
// On a partial store failure the counts so far are returned together with the error.
func (uc *CandleIngestor) Collect(ctx context.Context, symbol, bar string, limit int) (*models.IngestResult, error) {
	return uc.collect(ctx, symbol, bar, limit, "rest")
}

func (uc *CandleIngestor) collect(ctx context.Context, symbol, bar string, limit int, source string) (*models.IngestResult, error) {
	const op = "collect candles"

	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, models.InputError(op, "symbol is required", nil)
	}
	b, err := domrepo.ParseBar(bar)
	if err != nil {
		return nil, models.InputError(op, fmt.Sprintf("unsupported bar %q", bar), err)
	}
	if limit < minCandleLimit || limit > maxCandleLimit {
		return nil, models.InputError(op, fmt.Sprintf("limit must be between %d and %d", minCandleLimit, maxCandleLimit), nil)
	}

	start := time.Now()
	fetch, err := uc.market.FetchCandles(ctx, symbol, b, limit)
	uc.metrics.RecordLatency("okx_fetch_seconds", time.Since(start).Seconds())
	if err != nil {
		uc.metrics.RecordFetch(symbol, "error")
		uc.metrics.RecordError(string(models.KindOf(err)))
		return nil, err
	}
	uc.metrics.RecordFetch(symbol, "ok")

	candles, skipped := uc.normalize(symbol, fetch.Rows)

	// The write outlives request cancellation so a client disconnect does not tear a batch.
	writeCtx := context.WithoutCancel(ctx)
	start = time.Now()
	res, err := uc.store.UpsertBatch(writeCtx, symbol, candles)
	uc.metrics.RecordLatency("store_upsert_seconds", time.Since(start).Seconds())
	if res != nil {
		uc.metrics.RecordUpsert(uc.store.Backend(), res)
	}

	out := &models.IngestResult{
		Symbol:       symbol,
		Bar:          b.String(),
		TotalCandles: len(fetch.Rows),
		SkippedRows:  skipped,
		Timestamp:    time.Now().UTC(),
	}
	if res != nil {
		out.Saved = res.Inserted
		out.Replaced = res.Replaced
		out.Modified = res.Modified
		out.Matched = res.Matched
		out.Failed = res.Failed
	}
	if err != nil {
		uc.metrics.RecordError(string(models.KindOf(err)))
		uc.l.Error("candle upsert failed",
			logger.String("symbol", symbol),
			logger.String("bar", b.String()),
			logger.Int("failed", out.Failed),
			logger.Error(err),
		)
		if res == nil {
			return nil, err
		}
		return out, err
	}

	uc.l.Info("candles collected",
		logger.String("symbol", symbol),
		logger.String("bar", b.String()),
		logger.Int("total", out.TotalCandles),
		logger.Int("inserted", out.Saved),
		logger.Int("replaced", out.Replaced),
		logger.Int("modified", out.Modified),
		logger.Int("skipped", skipped),
	)
	uc.publish(writeCtx, source, b, candles, res)
	return out, nil
}

// normalize converts raw rows, skipping and counting malformed ones.
func (uc *CandleIngestor) normalize(symbol string, rows []models.RawRow) ([]models.Candle, int) {
	candles := make([]models.Candle, 0, len(rows))
	skipped := 0
	for i, row := range rows {
		c, err := domrepo.Normalize(symbol, row)
		if err != nil {
			skipped++
			uc.l.Warn("skip malformed candle row",
				logger.String("symbol", symbol),
				logger.Int("index", i),
				logger.Error(err),
			)
			continue
		}
		candles = append(candles, c)
	}
	uc.metrics.RecordSkippedRows(symbol, skipped)
	return candles, skipped
}

func (uc *CandleIngestor) publish(ctx context.Context, source string, bar domrepo.Bar, candles []models.Candle, res *models.UpsertResult) {
	if uc.events == nil || len(candles) == 0 {
		return
	}
	first, last := candles[0].Timestamp, candles[0].Timestamp
	for _, c := range candles[1:] {
		first = min(first, c.Timestamp)
		last = max(last, c.Timestamp)
	}
	ev := &models.IngestEvent{
		ID:        uuid.NewString(),
		Source:    source,
		Symbol:    candles[0].Symbol,
		Bar:       bar.String(),
		FirstTs:   first,
		LastTs:    last,
		Inserted:  res.Inserted,
		Replaced:  res.Replaced,
		Modified:  res.Modified,
		Timestamp: time.Now().UTC(),
	}
	if err := uc.events.PublishIngested(ctx, ev); err != nil {
		uc.metrics.RecordError("publish")
		uc.l.Warn("publish ingest event failed", logger.String("symbol", ev.Symbol), logger.Error(err))
	}
}

// CollectBulk ingests each symbol independently. A failing symbol never aborts the others,
// and results keep the request order.
func (uc *CandleIngestor) CollectBulk(ctx context.Context, symbols []string, bar string, limit int) *models.BulkIngestResult {
	results := make([]models.CollectionResult, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)
	for i, sym := range symbols {
		g.Go(func() error {
			results[i] = uc.collectOne(gctx, sym, bar, limit)
			return nil
		})
	}
	_ = g.Wait()

	return &models.BulkIngestResult{
		Success:          true,
		Results:          results,
		ProcessedSymbols: len(symbols),
		Bar:              bar,
		Limit:            limit,
	}
}

func (uc *CandleIngestor) collectOne(ctx context.Context, symbol, bar string, limit int) models.CollectionResult {
	res, err := uc.collect(ctx, symbol, bar, limit, "rest")
	out := models.CollectionResult{Symbol: symbol, Success: err == nil}
	if err != nil {
		out.Error = models.MessageOf(err)
	}
	if res != nil {
		saved, modified := res.Saved, res.Modified
		out.CandlesSaved = &saved
		out.CandlesModified = &modified
		if res.Failed > 0 {
			failed := res.Failed
			out.CandlesFailed = &failed
		}
	}
	return out
}

type nopMetrics struct{}

func (nopMetrics) RecordFetch(string, string)                {}
func (nopMetrics) RecordUpsert(string, *models.UpsertResult) {}
func (nopMetrics) RecordSkippedRows(string, int)             {}
func (nopMetrics) RecordStreamRow(string)                    {}
func (nopMetrics) RecordError(string)                        {}
func (nopMetrics) RecordLatency(string, float64)             {}
