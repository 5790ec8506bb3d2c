package notification

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// EventKind classifies post-commit balance events
type EventKind string

const (
	EventDeposit        EventKind = "deposit"
	EventWithdrawal     EventKind = "withdrawal"
	EventTransferDebit  EventKind = "transfer_debit"
	EventTransferCredit EventKind = "transfer_credit"
	EventTransferFailed EventKind = "transfer_failed"
)

// BalanceEvent describes a committed (or rejected) ledger mutation for
// alerting and export consumers. Amounts are exact decimals, never floats.
type BalanceEvent struct {
	EventID          string          `json:"event_id"`
	Kind             EventKind       `json:"kind"`
	UserID           uint64          `json:"user_id"`
	Account          string          `json:"account"`
	Counterparty     string          `json:"counterparty,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	ResultingBalance decimal.Decimal `json:"resulting_balance"`
	OccurredAt       time.Time       `json:"occurred_at"`
}

// Sink receives post-commit balance events. Implementations must be
// best-effort: a failed publish is logged by the caller and never affects
// the outcome or durability of the ledger operation that produced it.
type Sink interface {
	Publish(ctx context.Context, event BalanceEvent) error
}
