package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"TransWatcher/internal/domain/models"
	"TransWatcher/internal/domain/repository"
	pkgch "TransWatcher/pkg/clickhouse"
	applogger "TransWatcher/pkg/logger"
)

// CHCandleStore keeps candles in a ReplacingMergeTree ordered by (symbol, timestamp).
// Rows with the same key collapse to the newest inserted_at; reads use FINAL.
type CHCandleStore struct {
	ch    *pkgch.Client
	table string
	l     *applogger.Logger
}

var _ repository.CandleStore = (*CHCandleStore)(nil)

func NewCHCandleStore(ch *pkgch.Client, table string) *CHCandleStore {
	return &CHCandleStore{ch: ch, table: table, l: applogger.Nop()}
}

func (s *CHCandleStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHCandleStore) Backend() string { return "clickhouse" }

func (s *CHCandleStore) Connect(ctx context.Context) error {
	if err := s.ch.Connect(ctx); err != nil {
		return models.StoreError("clickhouse connect", err)
	}
	return nil
}

func (s *CHCandleStore) qualified() string {
	return s.ch.Database() + "." + s.table
}

func (s *CHCandleStore) schema() []string {
	t := s.qualified()
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	symbol LowCardinality(String),
	timestamp Int64,
	datetime DateTime64(3, 'UTC'),
	open Float64,
	high Float64,
	low Float64,
	close Float64,
	volume Float64,
	volume_currency Float64,
	volume_currency_quote Float64,
	confirmed UInt8,
	inserted_at DateTime64(3, 'UTC')
) ENGINE = ReplacingMergeTree(inserted_at)
ORDER BY (symbol, timestamp)`, t),
		fmt.Sprintf("ALTER TABLE %s ADD INDEX IF NOT EXISTS idx_timestamp timestamp TYPE minmax GRANULARITY 4", t),
	}
}

// EnsureIndexes creates the table; its sorting key is the unique (symbol, timestamp) key.
func (s *CHCandleStore) EnsureIndexes(ctx context.Context) error {
	if err := s.ch.InitSchema(ctx, s.schema()); err != nil {
		return models.StoreError("clickhouse ensure schema", err)
	}
	return nil
}

func (s *CHCandleStore) db(op string) (*sql.DB, error) {
	db := s.ch.DB()
	if db == nil {
		return nil, models.StoreError(op, errors.New("clickhouse: not connected"))
	}
	return db, nil
}

const chInsertChunk = 2000

func (s *CHCandleStore) UpsertBatch(ctx context.Context, symbol string, candles []models.Candle) (*models.UpsertResult, error) {
	if len(candles) == 0 {
		return nil, models.EmptyBatchError("clickhouse upsert")
	}
	db, err := s.db("clickhouse upsert")
	if err != nil {
		return nil, err
	}

	batch := prepareBatch(symbol, candles, time.Now().UTC())
	res := &models.UpsertResult{Total: len(batch)}

	existing, err := s.existing(ctx, db, symbol, batch)
	if err != nil {
		return nil, models.StoreError("clickhouse upsert", err)
	}

	var firstErr error
	for start := 0; start < len(batch); start += chInsertChunk {
		end := min(start+chInsertChunk, len(batch))
		chunk := batch[start:end]

		q, args := insertStatement(s.qualified(), chunk)
		if _, err := db.ExecContext(ctx, q, args...); err != nil {
			res.Failed += len(chunk)
			if firstErr == nil {
				firstErr = err
			}
			s.l.Error("clickhouse insert chunk failed",
				applogger.String("symbol", symbol),
				applogger.Int("rows", len(chunk)),
				applogger.Error(err),
			)
			continue
		}
		for _, c := range chunk {
			old, ok := existing[c.Timestamp]
			if !ok {
				res.Inserted++
				continue
			}
			res.Matched++
			res.Replaced++
			if !sameContent(old, c) {
				res.Modified++
			}
		}
	}

	if firstErr != nil {
		return res, models.StoreError("clickhouse upsert", firstErr)
	}
	return res, nil
}

// existing loads the current rows for the batch keys so inserts can be told apart from replaces.
func (s *CHCandleStore) existing(ctx context.Context, db *sql.DB, symbol string, batch []models.Candle) (map[int64]models.Candle, error) {
	keys := make([]string, len(batch))
	for i, c := range batch {
		keys[i] = strconv.FormatInt(c.Timestamp, 10)
	}
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE symbol = ? AND timestamp IN (%s)",
		candleColumns, s.qualified(), strings.Join(keys, ","))

	rows, err := db.QueryContext(ctx, q, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]models.Candle, len(batch))
	for rows.Next() {
		c, err := scanCandle(rows)
		if err != nil {
			return nil, err
		}
		out[c.Timestamp] = c
	}
	return out, rows.Err()
}

const candleColumns = "symbol, timestamp, datetime, open, high, low, close, volume, volume_currency, volume_currency_quote, confirmed, inserted_at"

func insertStatement(table string, chunk []models.Candle) (string, []interface{}) {
	values := make([]string, 0, len(chunk))
	args := make([]interface{}, 0, len(chunk)*12)
	for _, c := range chunk {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			c.Symbol,
			c.Timestamp,
			c.Datetime,
			c.Open,
			c.High,
			c.Low,
			c.Close,
			c.Volume,
			c.VolumeCurrency,
			c.VolumeCurrencyQuote,
			uint8(c.Confirmed),
			c.InsertedAt,
		)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, candleColumns, strings.Join(values, ","))
	return q, args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCandle(r rowScanner) (models.Candle, error) {
	var (
		c         models.Candle
		confirmed uint8
	)
	err := r.Scan(&c.Symbol, &c.Timestamp, &c.Datetime, &c.Open, &c.High, &c.Low, &c.Close,
		&c.Volume, &c.VolumeCurrency, &c.VolumeCurrencyQuote, &confirmed, &c.InsertedAt)
	c.Confirmed = int(confirmed)
	c.Datetime = c.Datetime.UTC()
	c.InsertedAt = c.InsertedAt.UTC()
	return c, err
}

func rangeQuery(table string, q models.CandleQuery) (string, []interface{}) {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s FINAL WHERE symbol = ?", candleColumns, table)
	args := []interface{}{q.Symbol}
	if q.StartTs != nil {
		b.WriteString(" AND timestamp >= ?")
		args = append(args, *q.StartTs)
	}
	if q.EndTs != nil {
		b.WriteString(" AND timestamp <= ?")
		args = append(args, *q.EndTs)
	}
	b.WriteString(" ORDER BY timestamp DESC LIMIT ?")
	args = append(args, queryLimit(q.Limit))
	return b.String(), args
}

func (s *CHCandleStore) QueryRange(ctx context.Context, q models.CandleQuery) ([]models.Candle, error) {
	db, err := s.db("clickhouse query")
	if err != nil {
		return nil, err
	}

	stmt, args := rangeQuery(s.qualified(), q)
	rows, err := db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, models.StoreError("clickhouse query", err)
	}
	defer rows.Close()

	out := make([]models.Candle, 0)
	for rows.Next() {
		c, err := scanCandle(rows)
		if err != nil {
			return nil, models.StoreError("clickhouse query", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StoreError("clickhouse query", err)
	}
	return out, nil
}

func (s *CHCandleStore) Latest(ctx context.Context, symbol string) (*models.Candle, error) {
	candles, err := s.QueryRange(ctx, models.CandleQuery{Symbol: symbol, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, models.NotFoundError("clickhouse latest", fmt.Sprintf("No candles found for %s", symbol))
	}
	return &candles[0], nil
}

func (s *CHCandleStore) Symbols(ctx context.Context) ([]string, error) {
	db, err := s.db("clickhouse symbols")
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT DISTINCT symbol FROM %s", s.qualified()))
	if err != nil {
		return nil, models.StoreError("clickhouse symbols", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, models.StoreError("clickhouse symbols", err)
		}
		out = append(out, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StoreError("clickhouse symbols", err)
	}
	sort.Strings(out)
	return out, nil
}

func (s *CHCandleStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *CHCandleStore) Close(ctx context.Context) error {
	return s.ch.Close()
}
