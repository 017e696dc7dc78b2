package ports

import (
	"context"
	"time"

	"sacco/contexts/finance-core/psf-distribution-engine/domain/entities"
	contractsv1 "sacco/contracts/gen/events/v1"

	"github.com/shopspring/decimal"
)

type DistributeInput struct {
	PaymentID     string
	PayerMemberID string
	UnitAmount    decimal.Decimal
	TotalAmount   decimal.Decimal
}

// Ancestor is one step of the payer's chain, nearest-first.
type Ancestor struct {
	MemberID string
	Level    int
}

// AncestorResolver reads the referral tree owned by the member-network
// context. Wired in the composition root; this engine never mutates the tree.
type AncestorResolver interface {
	Ancestors(ctx context.Context, memberID string) ([]Ancestor, error)
}

// CreditedEvent is the fire-and-forget notification emitted per beneficiary
// after a non-replayed run.
type CreditedEvent struct {
	EventID       string
	PaymentID     string
	BeneficiaryID string
	Kind          entities.ShareKind
	Amount        decimal.Decimal
	OccurredAt    time.Time
}

// LedgerRepository is the append-only distribution ledger. AppendBatch must
// write the batch, its events and the credited outbox rows in one atomic
// transaction, rejecting a second batch for the same payment with
// ErrBatchConflict.
type LedgerRepository interface {
	GetBatch(ctx context.Context, paymentID string) ([]entities.DistributionEvent, bool, error)
	AppendBatch(ctx context.Context, batch entities.DistributionBatch, credited []CreditedEvent) error
	ListByMember(ctx context.Context, memberID string) ([]entities.DistributionEvent, error)
	AggregateTotals(ctx context.Context) (entities.LedgerTotals, error)
}

type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, EventEnvelope) error) error
}
