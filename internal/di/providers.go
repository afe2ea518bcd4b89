package di

import (
	"context"
	"fmt"
	"time"

	"TransWatcher/internal/domain/repository"
	"TransWatcher/internal/handler/api"
	internalrepo "TransWatcher/internal/repository"
	"TransWatcher/internal/service/okx"
	"TransWatcher/internal/service/ratelimit"
	"TransWatcher/internal/usecase"
	"TransWatcher/pkg/cache"
	pkgch "TransWatcher/pkg/clickhouse"
	"TransWatcher/pkg/config"
	xhttp "TransWatcher/pkg/http"
	pkgkafka "TransWatcher/pkg/kafka"
	"TransWatcher/pkg/logger"
	"TransWatcher/pkg/metrics"
	pkgmongo "TransWatcher/pkg/mongo"
	"TransWatcher/pkg/server"
)

// ProvideLogger builds the application logger from the logging section.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache returns Redis when enabled, otherwise an in-process cache.
func ProvideCache(cfg *config.Config, l *logger.Logger) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize),
			cache.WithMemoryCleanup(cfg.Cache.MemoryCleanup),
		), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rc, err := cache.NewRedisCache(ctx,
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
		cache.WithRedisPool(cfg.Redis.Pool.Size, cfg.Redis.Pool.MinIdleConns, cfg.Redis.Pool.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("redis cache connected", logger.String("addr", cfg.Redis.Addr))
	return rc, nil
}

// ProvideInfoLimiter shares counters through Redis when it is enabled so every replica sees the same window.
func ProvideInfoLimiter(cfg *config.Config, c cache.Service) ratelimit.Limiter {
	if cfg.Redis.Enabled {
		return ratelimit.NewWindowLimiter(c, "info", cfg.RateLimit.InfoRequests, cfg.RateLimit.InfoWindow)
	}
	return ratelimit.NewTokenBucket(cfg.RateLimit.InfoRequests, cfg.RateLimit.InfoWindow)
}

// ProvideOKXClient creates the REST client for the exchange.
func ProvideOKXClient(cfg *config.Config, l *logger.Logger) *okx.Client {
	opts := []okx.Option{
		okx.WithBaseURL(cfg.OKX.BaseURL),
		okx.WithFlag(cfg.OKX.Flag),
		okx.WithTimeout(cfg.OKX.Timeout),
		okx.WithRateLimit(cfg.OKX.RateLimit, cfg.OKX.Burst),
		okx.WithLogger(l),
	}
	if len(cfg.OKX.PopularPairs) > 0 {
		opts = append(opts, okx.WithPopularPairs(cfg.OKX.PopularPairs))
	}
	return okx.New(opts...)
}

// ProvideMarketData puts the short-lived proxy cache in front of the client.
func ProvideMarketData(client *okx.Client, c cache.Service, cfg *config.Config, l *logger.Logger) repository.MarketData {
	return okx.NewCachedMarketData(client, c, cfg.Cache.TickerTTL, cfg.Cache.InstrumentsTTL, l)
}

// ProvideCandleStore selects the storage backend. Connecting is left to App.Init.
func ProvideCandleStore(cfg *config.Config, l *logger.Logger) (repository.CandleStore, error) {
	switch cfg.Store.Backend {
	case "mongo":
		client, err := pkgmongo.NewClient(
			pkgmongo.WithURI(cfg.Mongo.URI),
			pkgmongo.WithDatabase(cfg.Mongo.Database),
			pkgmongo.WithAppName("trans-watcher"),
			pkgmongo.WithConnectTimeout(cfg.Mongo.ConnectTimeout),
			pkgmongo.WithMaxPoolSize(cfg.Mongo.MaxPoolSize),
		)
		if err != nil {
			return nil, fmt.Errorf("mongo client: %w", err)
		}
		store := internalrepo.NewMongoCandleStore(client, cfg.Mongo.Collection)
		store.SetLogger(l)
		return store, nil
	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		store := internalrepo.NewCHCandleStore(client, cfg.ClickHouse.Table)
		store.SetLogger(l)
		return store, nil
	case "memory":
		return internalrepo.NewMemoryCandleStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, l *logger.Logger) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithBatchTimeout(cfg.Kafka.BatchTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithProducerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher publishes ingest events to Kafka, or drops them when there is no producer.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NoopEventPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.EventsTopic)
}

// ProvideKafkaConsumer creates the collect-request consumer, or nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *logger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaIngestHandler handles collect requests from the collect topic.
func ProvideKafkaIngestHandler(cfg *config.Config, ingestor *usecase.CandleIngestor) pkgkafka.MessageHandler {
	return usecase.NewKafkaIngestHandler(cfg.Kafka.CollectTopic, ingestor)
}

// ProvideCandleIngestor creates the fetch, normalize and upsert use case.
func ProvideCandleIngestor(
	market repository.MarketData,
	store repository.CandleStore,
	events repository.EventPublisher,
	m repository.Metrics,
	cfg *config.Config,
	l *logger.Logger,
) *usecase.CandleIngestor {
	return usecase.NewCandleIngestor(market, store, events, m, cfg.Ingest.BulkConcurrency, l)
}

// ProvideCandleQuery creates the read-side use case.
func ProvideCandleQuery(store repository.CandleStore) *usecase.CandleQuery {
	return usecase.NewCandleQuery(store)
}

// ProvideItemService creates the item use case over the in-memory store.
func ProvideItemService() *usecase.ItemService {
	return usecase.NewItemService(internalrepo.NewMemoryItemStore())
}

// ProvideStreamCollector creates the live candle collector, or nil when streaming is disabled.
func ProvideStreamCollector(
	cfg *config.Config,
	store repository.CandleStore,
	events repository.EventPublisher,
	m repository.Metrics,
	l *logger.Logger,
) (*usecase.CandleStreamCollector, error) {
	if !cfg.Stream.Enabled {
		return nil, nil
	}
	bar, err := repository.ParseBar(cfg.Stream.Bar)
	if err != nil {
		return nil, fmt.Errorf("stream bar: %w", err)
	}
	stream := okx.NewStream(
		cfg.Stream.URL,
		cfg.Stream.Symbols,
		bar,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
		l,
	)
	return usecase.NewCandleStreamCollector(stream, store, events, m, l), nil
}

// ProvideHTTPHandler registers every API route group.
func ProvideHTTPHandler(
	l *logger.Logger,
	market repository.MarketData,
	ingestor *usecase.CandleIngestor,
	query *usecase.CandleQuery,
	items *usecase.ItemService,
	limiter ratelimit.Limiter,
) xhttp.Handler {
	return xhttp.Handlers{
		api.NewSystemHandler(l, limiter),
		api.NewCandlesHandler(l, query, ingestor),
		api.NewOKXHandler(l, market, ingestor),
		api.NewItemsHandler(l, items),
	}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	store repository.CandleStore,
	events repository.EventPublisher,
	stream *usecase.CandleStreamCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	handler xhttp.Handler,
	c cache.Service,
) *server.App {
	return server.New(cfg, l, store, events, stream, consumer, kh, handler, c)
}
