//go:build wireinject
// +build wireinject

package di

import (
	"TransWatcher/pkg/config"
	"TransWatcher/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideInfoLimiter,
		ProvideOKXClient,
		ProvideMarketData,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideCandleStore,
		ProvideEventPublisher,

		// Use cases
		ProvideCandleIngestor,
		ProvideCandleQuery,
		ProvideItemService,
		ProvideStreamCollector,
		ProvideKafkaIngestHandler,

		// Application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
