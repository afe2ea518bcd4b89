package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"TransWatcher/internal/domain/models"
	domrepo "TransWatcher/internal/domain/repository"
	"TransWatcher/pkg/logger"
)

// CandleStreamCollector upserts every live candle row pushed by the stream.
// The in-progress bar is rewritten on each push; an ingest event is published once it is confirmed.
type CandleStreamCollector struct {
	stream  domrepo.CandleStream
	store   domrepo.CandleStore
	events  domrepo.EventPublisher
	metrics domrepo.Metrics
	l       *logger.Logger

	wg sync.WaitGroup
}

func NewCandleStreamCollector(
	stream domrepo.CandleStream,
	store domrepo.CandleStore,
	events domrepo.EventPublisher,
	metrics domrepo.Metrics,
	l *logger.Logger,
) *CandleStreamCollector {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if l == nil {
		l = logger.Nop()
	}
	return &CandleStreamCollector{stream: stream, store: store, events: events, metrics: metrics, l: l}
}

// Start runs the stream in the background until ctx is done or Stop is called.
func (c *CandleStreamCollector) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.stream.Run(ctx, func(symbol string, bar domrepo.Bar, row models.RawRow) {
			c.handleRow(ctx, symbol, bar, row)
		}); err != nil {
			c.l.Error("candle stream stopped", logger.Error(err))
		}
	}()
}

func (c *CandleStreamCollector) handleRow(ctx context.Context, symbol string, bar domrepo.Bar, row models.RawRow) {
	candle, err := domrepo.Normalize(symbol, row)
	if err != nil {
		c.metrics.RecordSkippedRows(symbol, 1)
		c.l.Warn("skip malformed stream row", logger.String("symbol", symbol), logger.Error(err))
		return
	}
	c.metrics.RecordStreamRow(symbol)

	res, err := c.store.UpsertBatch(context.WithoutCancel(ctx), symbol, []models.Candle{candle})
	if err != nil {
		c.metrics.RecordError(string(models.KindOf(err)))
		c.l.Error("stream upsert failed", logger.String("symbol", symbol), logger.Error(err))
		return
	}
	c.metrics.RecordUpsert(c.store.Backend(), res)

	if candle.Confirmed != 1 || c.events == nil {
		return
	}
	ev := &models.IngestEvent{
		ID:        uuid.NewString(),
		Source:    "stream",
		Symbol:    symbol,
		Bar:       bar.String(),
		FirstTs:   candle.Timestamp,
		LastTs:    candle.Timestamp,
		Inserted:  res.Inserted,
		Replaced:  res.Replaced,
		Modified:  res.Modified,
		Timestamp: time.Now().UTC(),
	}
	if err := c.events.PublishIngested(ctx, ev); err != nil {
		c.metrics.RecordError("publish")
		c.l.Warn("publish stream event failed", logger.String("symbol", symbol), logger.Error(err))
	}
}

// Stop closes the stream and waits for the run loop to exit.
func (c *CandleStreamCollector) Stop() error {
	err := c.stream.Close()
	c.wg.Wait()
	return err
}
