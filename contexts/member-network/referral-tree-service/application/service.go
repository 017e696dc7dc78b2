package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"sacco/contexts/member-network/referral-tree-service/domain/entities"
	domainerrors "sacco/contexts/member-network/referral-tree-service/domain/errors"
	"sacco/contexts/member-network/referral-tree-service/ports"
)

const defaultMaxPlacementAttempts = 4

type Service struct {
	Repo                 ports.TreeRepository
	Clock                ports.Clock
	IDGen                ports.IDGenerator
	OverflowScope        ports.OverflowScope
	MaxPlacementAttempts int
	Logger               *slog.Logger
}

// EnsureRoot creates the tree root once at bootstrap. Calling it again with
// the same member id is a no-op; a different member id is a conflict.
func (s Service) EnsureRoot(ctx context.Context, rootMemberID string) (entities.Node, error) {
	rootMemberID = strings.TrimSpace(rootMemberID)
	if rootMemberID == "" {
		return entities.Node{}, domainerrors.ErrInvalidMemberID
	}

	existing, err := s.Repo.GetRoot(ctx)
	if err == nil {
		if existing.MemberID != rootMemberID {
			return entities.Node{}, domainerrors.ErrRootConflict
		}
		return existing, nil
	}
	if !errors.Is(err, domainerrors.ErrRootMissing) {
		return entities.Node{}, err
	}

	now := s.now()
	root, err := entities.NewNode(rootMemberID, "", 0, 0, now)
	if err != nil {
		return entities.Node{}, err
	}
	event, err := s.buildPlacedEvent(ctx, root, "", false, now)
	if err != nil {
		return entities.Node{}, err
	}
	if err := s.Repo.CreateNode(ctx, root, event); err != nil {
		if errors.Is(err, domainerrors.ErrDuplicateNode) || errors.Is(err, domainerrors.ErrSlotConflict) {
			// Lost the bootstrap race; the surviving root decides.
			return s.EnsureRoot(ctx, rootMemberID)
		}
		return entities.Node{}, err
	}

	ResolveLogger(s.Logger).Info("referral tree root created",
		"event", "referral_tree_root_created",
		"module", "member-network/referral-tree-service",
		"layer", "application",
		"member_id", root.MemberID,
	)
	return root, nil
}

// PlaceMember inserts a new member under its referrer, or under the nearest
// node with an open slot (breadth-first, level order then position order)
// when the referrer's slots are full. An absent referrer means "under root".
// Slot claims lost to concurrent placements are retried from a fresh read.
func (s Service) PlaceMember(ctx context.Context, referrerID string, newMemberID string) (entities.Node, error) {
	referrerID = strings.TrimSpace(referrerID)
	newMemberID = strings.TrimSpace(newMemberID)
	if newMemberID == "" {
		return entities.Node{}, domainerrors.ErrInvalidMemberID
	}
	if referrerID == newMemberID {
		return entities.Node{}, domainerrors.ErrInvalidPlacement
	}

	attempts := s.maxAttempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		node, err := s.placeOnce(ctx, referrerID, newMemberID)
		if err == nil {
			return node, nil
		}
		if !errors.Is(err, domainerrors.ErrSlotConflict) {
			return entities.Node{}, err
		}
		lastErr = err
		ResolveLogger(s.Logger).Warn("placement slot conflict, retrying",
			"event", "referral_tree_slot_conflict",
			"module", "member-network/referral-tree-service",
			"layer", "application",
			"member_id", newMemberID,
			"referrer_id", referrerID,
			"attempt", attempt,
		)
	}
	return entities.Node{}, lastErr
}

func (s Service) placeOnce(ctx context.Context, referrerID string, newMemberID string) (entities.Node, error) {
	if _, err := s.Repo.GetNode(ctx, newMemberID); err == nil {
		return entities.Node{}, domainerrors.ErrAlreadyPlaced
	} else if !errors.Is(err, domainerrors.ErrNodeNotFound) {
		return entities.Node{}, err
	}

	start, err := s.resolveStart(ctx, referrerID)
	if err != nil {
		return entities.Node{}, err
	}

	parent, position, err := s.findOpenSlot(ctx, start)
	if err != nil {
		return entities.Node{}, err
	}

	now := s.now()
	node, err := entities.NewNode(newMemberID, parent.MemberID, parent.Level+1, position, now)
	if err != nil {
		return entities.Node{}, err
	}

	overflow := referrerID != "" && parent.MemberID != referrerID
	event, err := s.buildPlacedEvent(ctx, node, referrerID, overflow, now)
	if err != nil {
		return entities.Node{}, err
	}
	if err := s.Repo.CreateNode(ctx, node, event); err != nil {
		if errors.Is(err, domainerrors.ErrDuplicateNode) {
			return entities.Node{}, domainerrors.ErrAlreadyPlaced
		}
		return entities.Node{}, err
	}

	ResolveLogger(s.Logger).Info("member placed in referral tree",
		"event", "referral_tree_member_placed",
		"module", "member-network/referral-tree-service",
		"layer", "application",
		"member_id", node.MemberID,
		"referrer_id", referrerID,
		"parent_id", node.ParentID,
		"level", node.Level,
		"position", node.Position,
		"overflow", overflow,
	)
	return node, nil
}

func (s Service) resolveStart(ctx context.Context, referrerID string) (entities.Node, error) {
	if referrerID == "" {
		root, err := s.Repo.GetRoot(ctx)
		if err != nil {
			return entities.Node{}, err
		}
		return root, nil
	}

	referrer, err := s.Repo.GetNode(ctx, referrerID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNodeNotFound) {
			return entities.Node{}, domainerrors.ErrUnknownReferrer
		}
		return entities.Node{}, err
	}
	if s.OverflowScope == ports.OverflowScopeGlobal {
		// Global policy only decides where overflow search starts; the
		// direct-referral fast path still wins when a slot is open.
		children, err := s.Repo.ListChildren(ctx, referrer.MemberID)
		if err != nil {
			return entities.Node{}, err
		}
		if entities.HasOpenSlot(len(children)) {
			return referrer, nil
		}
		return s.Repo.GetRoot(ctx)
	}
	return referrer, nil
}

// findOpenSlot walks the tree breadth-first from start and returns the first
// node with fewer than MaxChildSlots children, plus the position to claim.
// Level order then position order; the start node itself is checked first,
// which covers the direct-referral case.
func (s Service) findOpenSlot(ctx context.Context, start entities.Node) (entities.Node, int, error) {
	queue := []entities.Node{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		children, err := s.Repo.ListChildren(ctx, current.MemberID)
		if err != nil {
			return entities.Node{}, 0, err
		}
		if entities.HasOpenSlot(len(children)) {
			return current, len(children), nil
		}
		queue = append(queue, children...)
	}
	return entities.Node{}, 0, domainerrors.ErrTreeFull
}

// Ancestors returns the chain from the member's parent up to the root,
// nearest ancestor first. The member's own node is excluded.
func (s Service) Ancestors(ctx context.Context, memberID string) ([]entities.Node, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return nil, domainerrors.ErrInvalidMemberID
	}

	node, err := s.Repo.GetNode(ctx, memberID)
	if err != nil {
		return nil, err
	}

	chain := make([]entities.Node, 0, node.Level)
	for !node.IsRoot() {
		parent, err := s.Repo.GetNode(ctx, node.ParentID)
		if err != nil {
			return nil, err
		}
		chain = append(chain, parent)
		node = parent
	}
	return chain, nil
}

func (s Service) GetNode(ctx context.Context, memberID string) (entities.Node, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return entities.Node{}, domainerrors.ErrInvalidMemberID
	}
	return s.Repo.GetNode(ctx, memberID)
}

func (s Service) ListChildren(ctx context.Context, memberID string) ([]entities.Node, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return nil, domainerrors.ErrInvalidMemberID
	}
	if _, err := s.Repo.GetNode(ctx, memberID); err != nil {
		return nil, err
	}
	return s.Repo.ListChildren(ctx, memberID)
}

func (s Service) buildPlacedEvent(
	ctx context.Context,
	node entities.Node,
	referrerID string,
	overflow bool,
	occurredAt time.Time,
) (ports.PlacedEvent, error) {
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return ports.PlacedEvent{}, err
	}
	return ports.PlacedEvent{
		EventID:    strings.TrimSpace(eventID),
		EventType:  "member.placed",
		MemberID:   node.MemberID,
		ReferrerID: referrerID,
		ParentID:   node.ParentID,
		Level:      node.Level,
		Position:   node.Position,
		Overflow:   overflow,
		OccurredAt: occurredAt.UTC(),
	}, nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) maxAttempts() int {
	if s.MaxPlacementAttempts <= 0 {
		return defaultMaxPlacementAttempts
	}
	return s.MaxPlacementAttempts
}
