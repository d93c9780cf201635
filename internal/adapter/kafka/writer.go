package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-data-wqflow/internal/config"
	"github.com/couchcryptid/storm-data-wqflow/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces sizing results to a Kafka topic.
// It implements sizing.Publisher.
type Writer struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured results topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaResultsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Writer{writer: w, topic: cfg.KafkaResultsTopic, logger: logger}
}

// Publish serializes one sizing result and writes it keyed by run id.
func (w *Writer) Publish(ctx context.Context, result domain.SizingResult) error {
	msg, err := serializeToMessage(result)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write sizing result to %s: %w", w.topic, err)
	}
	w.logger.Debug("sizing result published", "topic", w.topic, "run_id", result.RunID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a SizingResult into a Kafka message.
func serializeToMessage(result domain.SizingResult) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize sizing result: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(result.RunID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "mode", Value: []byte(result.Mode)},
			{Key: "computed_at", Value: []byte(result.ComputedAt.Format(time.RFC3339))},
			{Key: "q_wq_90_cms", Value: []byte(strconv.FormatFloat(result.QWQ90CMS, 'g', -1, 64))},
		},
	}, nil
}
