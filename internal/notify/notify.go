// Package notify delivers the NotificationRequested events emitted by the
// rules engine. The core never claims delivery happened; it only hands the
// request to a dispatcher.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/medireservas/medireservas/internal/rules"
	"github.com/medireservas/medireservas/libs/kafkax"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, n rules.Notification)
}

// LogDispatcher is the demo sink: it records the notification instead of
// sending anything.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(_ context.Context, n rules.Notification) {
	d.logger.Info("notification requested",
		"event", n.Event,
		"appointment_id", n.AppointmentID,
		"recipient", n.Recipient,
		"message", n.Message,
	)
}

// KafkaDispatcher publishes notification requests to a topic per event type,
// for a downstream delivery worker. Publish failures are logged, not
// propagated: a missed notification must never fail the booking operation.
type KafkaDispatcher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewKafkaDispatcher(brokers string, logger *slog.Logger) *KafkaDispatcher {
	return &KafkaDispatcher{
		writer: kafka.NewWriter(kafka.WriterConfig{
			Brokers:  kafkax.SplitBrokers(brokers),
			Balancer: &kafka.Hash{},
		}),
		logger: logger,
	}
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, n rules.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		d.logger.Error("notification payload marshal failed", "err", err)
		return
	}
	msg := kafka.Message{
		Topic: n.Event,
		Key:   []byte(n.AppointmentID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(n.Event)},
		},
	}
	msg.Headers = kafkax.InjectTraceHeaders(ctx, msg.Headers)
	if err := d.writer.WriteMessages(ctx, msg); err != nil {
		d.logger.Error("notification publish failed", "err", err, "event", n.Event)
	}
}

func (d *KafkaDispatcher) Close() error {
	return d.writer.Close()
}
