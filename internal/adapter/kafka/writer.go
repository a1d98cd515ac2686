package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/config"
	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/domain"
)

// Writer publishes merged records to a Kafka topic. It is the optional
// downstream sink; flat files remain the primary output.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and writes all merged records in a single
// WriteMessages call. A failure is fatal for the run, like an export failure.
func (w *Writer) Publish(ctx context.Context, records []domain.MergedRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	w.logger.Info("published merged records", "topic", w.writer.Topic, "count", len(records))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a merged record into a Kafka message keyed by
// storm id, so repeated runs compact cleanly per storm.
func serializeToMessage(record domain.MergedRecord) (kafkago.Message, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize merged record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(record.GST.GstID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "gst_start", Value: []byte(record.GST.StartTime.Format(time.RFC3339))},
			{Key: "cme_count", Value: []byte(strconv.Itoa(len(record.CMEs)))},
		},
	}, nil
}
