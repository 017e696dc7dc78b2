package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"sacco/contexts/member-network/referral-tree-service/domain/entities"
	domainerrors "sacco/contexts/member-network/referral-tree-service/domain/errors"
	"sacco/contexts/member-network/referral-tree-service/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	nodes    map[string]entities.Node
	children map[string][]string // parent member id -> child member ids, position order
	rootID   string
	outbox   map[string]outboxRecord
}

type outboxRecord struct {
	Message ports.OutboxMessage
	Status  string
	SentAt  *time.Time
}

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

func NewStore() *Store {
	return &Store{
		nodes:    make(map[string]entities.Node),
		children: make(map[string][]string),
		outbox:   make(map[string]outboxRecord),
	}
}

func (s *Store) GetNode(_ context.Context, memberID string) (entities.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[strings.TrimSpace(memberID)]
	if !ok {
		return entities.Node{}, domainerrors.ErrNodeNotFound
	}
	return node, nil
}

func (s *Store) GetRoot(_ context.Context) (entities.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.rootID == "" {
		return entities.Node{}, domainerrors.ErrRootMissing
	}
	return s.nodes[s.rootID], nil
}

func (s *Store) ListChildren(_ context.Context, memberID string) ([]entities.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.children[strings.TrimSpace(memberID)]
	items := make([]entities.Node, 0, len(ids))
	for _, id := range ids {
		items = append(items, s.nodes[id])
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Position < items[j].Position
	})
	return items, nil
}

// CreateNode claims the slot and appends the outbox row under one lock, so
// concurrent placements can never both take the same position.
func (s *Store) CreateNode(_ context.Context, node entities.Node, event ports.PlacedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[node.MemberID]; exists {
		return domainerrors.ErrDuplicateNode
	}

	if node.IsRoot() {
		if s.rootID != "" {
			return domainerrors.ErrDuplicateNode
		}
	} else {
		parent, ok := s.nodes[node.ParentID]
		if !ok {
			return domainerrors.ErrNodeNotFound
		}
		siblings := s.children[node.ParentID]
		if node.Position != len(siblings) || !entities.HasOpenSlot(len(siblings)) {
			return domainerrors.ErrSlotConflict
		}
		if node.Level != parent.Level+1 {
			return domainerrors.ErrInvalidPlacement
		}
	}

	if err := s.appendOutboxLocked(event); err != nil {
		return err
	}

	s.nodes[node.MemberID] = node
	if node.IsRoot() {
		s.rootID = node.MemberID
	} else {
		s.children[node.ParentID] = append(s.children[node.ParentID], node.MemberID)
	}
	return nil
}

func (s *Store) appendOutboxLocked(event ports.PlacedEvent) error {
	envelope, err := buildPlacedEnvelope(event)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.outbox[event.EventID] = outboxRecord{
		Message: ports.OutboxMessage{
			OutboxID:     event.EventID,
			EventType:    event.EventType,
			PartitionKey: event.MemberID,
			Payload:      payload,
			CreatedAt:    event.OccurredAt.UTC(),
		},
		Status: outboxStatusPending,
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.Status == outboxStatusPending {
			items = append(items, row.Message)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrNodeNotFound
	}
	ts := sentAt.UTC()
	row.Status = outboxStatusSent
	row.SentAt = &ts
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// buildPlacedEnvelope renders a placement into the canonical event envelope.
func buildPlacedEnvelope(event ports.PlacedEvent) (ports.EventEnvelope, error) {
	data, err := json.Marshal(map[string]any{
		"member_id":   event.MemberID,
		"referrer_id": event.ReferrerID,
		"parent_id":   event.ParentID,
		"level":       event.Level,
		"position":    event.Position,
		"overflow":    event.Overflow,
	})
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          event.EventID,
		EventType:        event.EventType,
		OccurredAt:       event.OccurredAt.UTC(),
		SourceService:    "referral-tree-service",
		TraceID:          event.EventID,
		SchemaVersion:    1,
		PartitionKeyPath: "member_id",
		PartitionKey:     event.MemberID,
		Data:             data,
	}, nil
}
