package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"TransWatcher/internal/domain/models"
	"TransWatcher/internal/domain/repository"
	applogger "TransWatcher/pkg/logger"
	pkgmongo "TransWatcher/pkg/mongo"
)

// MongoCandleStore stores one document per (symbol, timestamp) in a MongoDB collection.
type MongoCandleStore struct {
	client   *pkgmongo.Client
	collName string
	l        *applogger.Logger

	mu   sync.RWMutex
	coll *mongo.Collection
}

var _ repository.CandleStore = (*MongoCandleStore)(nil)

func NewMongoCandleStore(client *pkgmongo.Client, collection string) *MongoCandleStore {
	return &MongoCandleStore{client: client, collName: collection, l: applogger.Nop()}
}

// newMongoCandleStoreWithCollection skips Connect; tests hand in a mock collection.
func newMongoCandleStoreWithCollection(coll *mongo.Collection) *MongoCandleStore {
	return &MongoCandleStore{coll: coll, collName: coll.Name(), l: applogger.Nop()}
}

func (s *MongoCandleStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *MongoCandleStore) Backend() string { return "mongo" }

// Connect establishes the client and binds the collection. Repeated calls are no-ops.
func (s *MongoCandleStore) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coll != nil {
		return nil
	}
	if err := s.client.Connect(ctx); err != nil {
		return models.StoreError("mongo connect", err)
	}
	coll, err := s.client.Collection(s.collName)
	if err != nil {
		return models.StoreError("mongo connect", err)
	}
	s.coll = coll
	s.l.Info("mongo candle store connected",
		applogger.String("database", coll.Database().Name()),
		applogger.String("collection", s.collName),
	)
	return nil
}

func (s *MongoCandleStore) collection(op string) (*mongo.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.coll == nil {
		return nil, models.StoreError(op, pkgmongo.ErrNotConnected)
	}
	return s.coll, nil
}

// EnsureIndexes creates the unique key index and the read indexes. Uses default
// index names so existing indexes with the same keys are accepted.
func (s *MongoCandleStore) EnsureIndexes(ctx context.Context) error {
	coll, err := s.collection("mongo ensure indexes")
	if err != nil {
		return err
	}
	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "symbol", Value: 1}, {Key: "timestamp", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "symbol", Value: 1}}},
	})
	if err != nil {
		return models.StoreError("mongo ensure indexes", err)
	}
	return nil
}

// UpsertBatch replaces each candle matched by (symbol, timestamp) or inserts it.
// The bulk write is unordered: one failing document does not stop the others.
func (s *MongoCandleStore) UpsertBatch(ctx context.Context, symbol string, candles []models.Candle) (*models.UpsertResult, error) {
	if len(candles) == 0 {
		return nil, models.EmptyBatchError("mongo upsert")
	}
	coll, err := s.collection("mongo upsert")
	if err != nil {
		return nil, err
	}

	batch := prepareBatch(symbol, candles, time.Now().UTC())
	writes := make([]mongo.WriteModel, 0, len(batch))
	for _, c := range batch {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "symbol", Value: symbol}, {Key: "timestamp", Value: c.Timestamp}}).
			SetReplacement(c).
			SetUpsert(true))
	}

	bw, err := coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	res := &models.UpsertResult{Total: len(batch)}
	if bw != nil {
		res.Inserted = int(bw.UpsertedCount)
		res.Matched = int(bw.MatchedCount)
		res.Replaced = int(bw.MatchedCount)
		res.Modified = int(bw.ModifiedCount)
	}
	if err != nil {
		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) {
			res.Failed = len(bwe.WriteErrors)
		} else if bw == nil {
			res.Failed = res.Total
		}
		s.l.Error("mongo bulk upsert failed",
			applogger.String("symbol", symbol),
			applogger.Int("total", res.Total),
			applogger.Int("failed", res.Failed),
			applogger.Error(err),
		)
		return res, models.StoreError("mongo upsert", err)
	}
	return res, nil
}

func (s *MongoCandleStore) QueryRange(ctx context.Context, q models.CandleQuery) ([]models.Candle, error) {
	coll, err := s.collection("mongo query")
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(queryLimit(q.Limit)))
	cur, err := coll.Find(ctx, rangeFilter(q), opts)
	if err != nil {
		return nil, models.StoreError("mongo query", err)
	}
	defer cur.Close(ctx)

	out := make([]models.Candle, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, models.StoreError("mongo query", err)
	}
	return out, nil
}

func rangeFilter(q models.CandleQuery) bson.D {
	filter := bson.D{{Key: "symbol", Value: q.Symbol}}
	ts := bson.D{}
	if q.StartTs != nil {
		ts = append(ts, bson.E{Key: "$gte", Value: *q.StartTs})
	}
	if q.EndTs != nil {
		ts = append(ts, bson.E{Key: "$lte", Value: *q.EndTs})
	}
	if len(ts) > 0 {
		filter = append(filter, bson.E{Key: "timestamp", Value: ts})
	}
	return filter
}

func (s *MongoCandleStore) Latest(ctx context.Context, symbol string) (*models.Candle, error) {
	coll, err := s.collection("mongo latest")
	if err != nil {
		return nil, err
	}

	var c models.Candle
	err = coll.FindOne(ctx,
		bson.D{{Key: "symbol", Value: symbol}},
		options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}}),
	).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.NotFoundError("mongo latest", fmt.Sprintf("No candles found for %s", symbol))
	}
	if err != nil {
		return nil, models.StoreError("mongo latest", err)
	}
	return &c, nil
}

func (s *MongoCandleStore) Symbols(ctx context.Context) ([]string, error) {
	coll, err := s.collection("mongo symbols")
	if err != nil {
		return nil, err
	}

	values, err := coll.Distinct(ctx, "symbol", bson.D{})
	if err != nil {
		return nil, models.StoreError("mongo symbols", err)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if sym, ok := v.(string); ok {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *MongoCandleStore) Health(ctx context.Context) error {
	if s.client == nil {
		_, err := s.collection("mongo health")
		return err
	}
	return s.client.Health(ctx)
}

func (s *MongoCandleStore) Close(ctx context.Context) error {
	s.mu.Lock()
	s.coll = nil
	s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	return s.client.Close(ctx)
}
