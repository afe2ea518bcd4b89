package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"TransWatcher/internal/domain/models"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	fetches     *prometheus.CounterVec
	candles     *prometheus.CounterVec
	skippedRows *prometheus.CounterVec
	streamRows  *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

var (
	shared     *Recorder
	sharedOnce sync.Once
)

// New returns the process-wide recorder; collectors register once with the default registry.
func New() *Recorder {
	sharedOnce.Do(func() {
		shared = newRecorder(promauto.With(prometheus.DefaultRegisterer))
	})
	return shared
}

// NewWithRegistry builds a recorder on reg, mostly for tests.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	return newRecorder(promauto.With(reg))
}

func newRecorder(f promauto.Factory) *Recorder {
	return &Recorder{
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transwatcher_upstream_fetches_total",
				Help: "Upstream candle fetches by result",
			},
			[]string{"symbol", "result"},
		),
		candles: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transwatcher_candles_written_total",
				Help: "Candles written to the store by outcome",
			},
			[]string{"backend", "outcome"},
		),
		skippedRows: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transwatcher_malformed_rows_total",
				Help: "Raw rows skipped during normalization",
			},
			[]string{"symbol"},
		),
		streamRows: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transwatcher_stream_rows_total",
				Help: "Candle rows received on the live stream",
			},
			[]string{"symbol"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transwatcher_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transwatcher_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch records an upstream candle fetch.
func (r *Recorder) RecordFetch(symbol, result string) {
	r.fetches.WithLabelValues(symbol, result).Inc()
}

// RecordUpsert records the outcome counts of a batch upsert.
func (r *Recorder) RecordUpsert(backend string, res *models.UpsertResult) {
	if res == nil {
		return
	}
	r.candles.WithLabelValues(backend, "inserted").Add(float64(res.Inserted))
	r.candles.WithLabelValues(backend, "replaced").Add(float64(res.Replaced))
	r.candles.WithLabelValues(backend, "failed").Add(float64(res.Failed))
}

func (r *Recorder) RecordSkippedRows(symbol string, n int) {
	if n > 0 {
		r.skippedRows.WithLabelValues(symbol).Add(float64(n))
	}
}

func (r *Recorder) RecordStreamRow(symbol string) {
	r.streamRows.WithLabelValues(symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
