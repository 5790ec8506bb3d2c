package events

import (
	"context"

	"github.com/bankapp/ledger-core/internal/domain/port/notification"
)

// NoopSink discards all events. Used when event publishing is disabled in
// configuration and as a default in tests.
type NoopSink struct{}

// NewNoopSink creates a sink that drops everything
func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

// Publish implements notification.Sink
func (s *NoopSink) Publish(ctx context.Context, event notification.BalanceEvent) error {
	return nil
}
