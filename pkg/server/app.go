package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	domrepo "TransWatcher/internal/domain/repository"
	"TransWatcher/internal/usecase"
	"TransWatcher/pkg/config"
	xhttp "TransWatcher/pkg/http"
	pkgkafka "TransWatcher/pkg/kafka"
	applogger "TransWatcher/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	store      domrepo.CandleStore
	events     domrepo.EventPublisher
	stream     *usecase.CandleStreamCollector
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	handler    xhttp.Handler
	closers    []io.Closer
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
// stream and consumer may be nil when the matching feature is disabled.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	store domrepo.CandleStore,
	events domrepo.EventPublisher,
	stream *usecase.CandleStreamCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	handler xhttp.Handler,
	closers ...io.Closer,
) *App {
	return &App{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		events:   events,
		stream:   stream,
		consumer: consumer,
		kh:       kh,
		handler:  handler,
		closers:  closers,
	}
}

// Init connects the candle store and ensures its indexes. Calling it again is harmless.
// Index failures are logged and do not stop startup.
func (a *App) Init(ctx context.Context) error {
	if err := a.store.Connect(ctx); err != nil {
		return fmt.Errorf("connect %s store: %w", a.store.Backend(), err)
	}
	if err := a.store.EnsureIndexes(ctx); err != nil {
		a.logger.Warn("ensure indexes failed", applogger.String("backend", a.store.Backend()), applogger.Error(err))
	}
	a.logger.Info("candle store ready", applogger.String("backend", a.store.Backend()))
	return nil
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Init(ctx); err != nil {
		return err
	}

	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(a.cfg.Server.SlowThreshold),
		xhttp.WithCORS(a.cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(a.logger),
	)

	// Background feeds run until ctx is cancelled.
	if a.stream != nil {
		a.stream.Start(ctx)
		a.logger.Info("candle stream started",
			applogger.Strings("symbols", a.cfg.Stream.Symbols),
			applogger.String("bar", a.cfg.Stream.Bar),
		)
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(ctx); err != nil {
			a.logger.Error("kafka consumer error", applogger.Error(err))
		} else {
			a.logger.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-a.httpServer.Err():
	}
	stop()

	a.shutdown()
	return runErr
}

// shutdown gracefully stops all services. Feeds stop before the store closes.
func (a *App) shutdown() {
	a.logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.stream != nil {
		if err := a.stream.Stop(); err != nil {
			a.logger.Warn("candle stream stop error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Warn("event publisher close error", applogger.Error(err))
		}
	}

	if err := a.store.Close(ctx); err != nil {
		a.logger.Warn("candle store close error", applogger.Error(err))
	}

	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
}
