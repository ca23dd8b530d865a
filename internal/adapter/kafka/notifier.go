package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/obs-catalog-service/internal/config"
	"github.com/couchcryptid/obs-catalog-service/internal/domain"
)

// messageWriter is the subset of *kafkago.Writer the notifier needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Notifier publishes one message per newly cataloged file.
// It implements catalog.Notifier.
type Notifier struct {
	writer messageWriter
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the configured notification topic.
// The cataloged_at header is stamped from clock.
func NewNotifier(cfg *config.Config, logger *slog.Logger, clock clockwork.Clock) *Notifier {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Notifier{writer: w, clock: clock, logger: logger}
}

// Notify publishes recs in a single WriteMessages call. Messages are keyed by
// filename so redeliveries of the same file land on the same partition.
func (n *Notifier) Notify(ctx context.Context, report domain.ScanReport, recs []domain.Record) error {
	if len(recs) == 0 {
		return nil
	}
	catalogedAt := n.clock.Now().UTC()
	msgs := make([]kafkago.Message, len(recs))
	for i := range recs {
		msg, err := serializeToMessage(recs[i], report, catalogedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := n.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d %s notifications: %w", len(msgs), report.Provider, err)
	}
	n.logger.Debug("published notifications", "provider", report.Provider, "scan_id", report.ScanID, "count", len(msgs))
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeToMessage marshals a Record into a Kafka message.
func serializeToMessage(rec domain.Record, report domain.ScanReport, catalogedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Filename),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "provider", Value: []byte(report.Provider)},
			{Key: "scan_id", Value: []byte(report.ScanID)},
			{Key: "cataloged_at", Value: []byte(catalogedAt.Format(time.RFC3339))},
		},
	}, nil
}
