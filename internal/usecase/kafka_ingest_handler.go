package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/creasty/defaults"

	"TransWatcher/internal/domain/models"
	domrepo "TransWatcher/internal/domain/repository"
	xhttp "TransWatcher/pkg/http"
	pkgkafka "TransWatcher/pkg/kafka"
)

func init() {
	// Candle requests from HTTP and Kafka share the bar rule.
	xhttp.RegisterValidation("bar", domrepo.IsValidBar)
}

// KafkaIngestHandler turns ingest requests from Kafka into Collect runs.
type KafkaIngestHandler struct {
	topic    string
	ingestor *CandleIngestor
}

func NewKafkaIngestHandler(topic string, ingestor *CandleIngestor) *KafkaIngestHandler {
	return &KafkaIngestHandler{topic: topic, ingestor: ingestor}
}

func (h *KafkaIngestHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, bar?, limit?}
func (h *KafkaIngestHandler) Handle(ctx context.Context, b []byte) error {
	var req models.IngestRequest
	if err := defaults.Set(&req); err != nil {
		return err
	}
	if err := json.Unmarshal(b, &req); err != nil {
		h.ingestor.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode ingest request: %w: %w", pkgkafka.ErrPermanent, err)
	}
	if verr := xhttp.ValidateStruct(&req); verr != nil {
		h.ingestor.metrics.RecordError("consumer_validate")
		return fmt.Errorf("invalid ingest request %s: %w", verr[0].Message, pkgkafka.ErrPermanent)
	}

	_, err := h.ingestor.collect(ctx, req.Symbol, req.Bar, req.Limit, "kafka")
	switch models.KindOf(err) {
	case "":
		return nil
	case models.KindInput, models.KindEmptyBatch:
		// Bad symbol, bar or limit will not improve on retry.
		return fmt.Errorf("%w: %w", pkgkafka.ErrPermanent, err)
	default:
		return err
	}
}

var _ pkgkafka.MessageHandler = (*KafkaIngestHandler)(nil)
