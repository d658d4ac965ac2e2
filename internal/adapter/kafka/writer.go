package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/sensor-telemetry-service/internal/config"
	"github.com/couchcryptid/sensor-telemetry-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces telemetry events to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured telemetry topic.
// Events are keyed by sensor id so each sensor's readings stay ordered
// within a partition.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes multiple telemetry events in a single
// WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, events []domain.TelemetryEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d telemetry messages: %w", len(msgs), err)
	}
	w.logger.Debug("telemetry published", "sink", "kafka", "topic", w.writer.Topic, "batch_size", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a TelemetryEvent into a Kafka message.
func serializeToMessage(event domain.TelemetryEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize telemetry event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.SensorID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "alert_level", Value: []byte(event.Alert.Level)},
			{Key: "emitted_at", Value: []byte(event.EmittedAt.Format(time.RFC3339))},
		},
	}, nil
}
