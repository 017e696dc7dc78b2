package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"sacco/contexts/member-network/referral-tree-service/domain/entities"
	domainerrors "sacco/contexts/member-network/referral-tree-service/domain/errors"
	"sacco/contexts/member-network/referral-tree-service/ports"
)

func placedEvent(eventID string, node entities.Node) ports.PlacedEvent {
	return ports.PlacedEvent{
		EventID:    eventID,
		EventType:  "member.placed",
		MemberID:   node.MemberID,
		ParentID:   node.ParentID,
		Level:      node.Level,
		Position:   node.Position,
		OccurredAt: node.CreatedAt,
	}
}

func mustNode(t *testing.T, memberID string, parentID string, level int, position int) entities.Node {
	t.Helper()
	node, err := entities.NewNode(memberID, parentID, level, position, time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("build node %s: %v", memberID, err)
	}
	return node
}

func TestCreateNodeRejectsDuplicateMember(t *testing.T) {
	store := NewStore()
	root := mustNode(t, "root", "", 0, 0)
	if err := store.CreateNode(context.Background(), root, placedEvent("ev-1", root)); err != nil {
		t.Fatalf("create root failed: %v", err)
	}
	if err := store.CreateNode(context.Background(), root, placedEvent("ev-2", root)); !errors.Is(err, domainerrors.ErrDuplicateNode) {
		t.Fatalf("expected duplicate node, got %v", err)
	}
}

func TestCreateNodeRejectsTakenSlot(t *testing.T) {
	store := NewStore()
	root := mustNode(t, "root", "", 0, 0)
	if err := store.CreateNode(context.Background(), root, placedEvent("ev-1", root)); err != nil {
		t.Fatalf("create root failed: %v", err)
	}

	first := mustNode(t, "m-a", "root", 1, 0)
	if err := store.CreateNode(context.Background(), first, placedEvent("ev-2", first)); err != nil {
		t.Fatalf("create m-a failed: %v", err)
	}

	// Same position computed from a stale read of the children list.
	second := mustNode(t, "m-b", "root", 1, 0)
	if err := store.CreateNode(context.Background(), second, placedEvent("ev-3", second)); !errors.Is(err, domainerrors.ErrSlotConflict) {
		t.Fatalf("expected slot conflict, got %v", err)
	}
}

func TestCreateNodeWritesPendingOutboxRow(t *testing.T) {
	store := NewStore()
	root := mustNode(t, "root", "", 0, 0)
	if err := store.CreateNode(context.Background(), root, placedEvent("ev-1", root)); err != nil {
		t.Fatalf("create root failed: %v", err)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].EventType != "member.placed" || pending[0].PartitionKey != "root" {
		t.Fatalf("unexpected pending outbox: %+v", pending)
	}

	if err := store.MarkOutboxSent(context.Background(), pending[0].OutboxID, time.Now()); err != nil {
		t.Fatalf("mark sent failed: %v", err)
	}
	pending, err = store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected drained outbox, got %+v", pending)
	}
}
