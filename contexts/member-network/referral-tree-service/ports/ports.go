package ports

import (
	"context"
	"time"

	"sacco/contexts/member-network/referral-tree-service/domain/entities"
	contractsv1 "sacco/contracts/gen/events/v1"
)

// OverflowScope selects where the breadth-first search for an open slot
// starts when the direct referrer is full.
type OverflowScope string

const (
	// OverflowScopeSubtree searches the referrer's subtree in level order.
	OverflowScopeSubtree OverflowScope = "subtree"
	// OverflowScopeGlobal searches the whole tree from the root in level order.
	OverflowScopeGlobal OverflowScope = "global"
)

// PlacedEvent describes a completed placement for the outbox.
type PlacedEvent struct {
	EventID    string
	EventType  string
	MemberID   string
	ReferrerID string
	ParentID   string
	Level      int
	Position   int
	Overflow   bool
	OccurredAt time.Time
}

// TreeRepository is the durable tree store. CreateNode must claim the
// (parent, position) slot and append the outbox row in one atomic write;
// a lost race surfaces as ErrSlotConflict so the engine can re-read and retry.
type TreeRepository interface {
	GetNode(ctx context.Context, memberID string) (entities.Node, error)
	GetRoot(ctx context.Context) (entities.Node, error)
	ListChildren(ctx context.Context, memberID string) ([]entities.Node, error)
	CreateNode(ctx context.Context, node entities.Node, event PlacedEvent) error
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
