package repository

import (
	"context"

	"TransWatcher/internal/domain/models"
	"TransWatcher/internal/domain/repository"
	pkgkafka "TransWatcher/pkg/kafka"
)

// KafkaEventPublisher emits one candles.ingested event per successful upsert, keyed by symbol.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ repository.EventPublisher = (*KafkaEventPublisher)(nil)

func NewKafkaEventPublisher(p *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: p, topic: topic}
}

func (p *KafkaEventPublisher) PublishIngested(ctx context.Context, ev *models.IngestEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Symbol), ev)
}

func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}

// NoopEventPublisher is used when Kafka is disabled.
type NoopEventPublisher struct{}

var _ repository.EventPublisher = NoopEventPublisher{}

func (NoopEventPublisher) PublishIngested(context.Context, *models.IngestEvent) error { return nil }

func (NoopEventPublisher) Close() error { return nil }
