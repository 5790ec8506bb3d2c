package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/bankapp/ledger-core/internal/domain/port/notification"
)

// Publisher sends post-commit balance events to a Kafka topic. It is a
// best-effort sink: the ledger service publishes fire-and-forget and logs
// failures, so a broker outage never affects a committed operation.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a publisher writing to the given brokers and topic
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish implements notification.Sink. Events for the same account are
// keyed by account number so per-account ordering survives partitioning.
func (p *Publisher) Publish(ctx context.Context, event notification.BalanceEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Account),
		Value: data,
	})
}

// Close flushes and closes the underlying writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}
