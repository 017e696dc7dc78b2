package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"sacco/contexts/member-network/referral-tree-service/adapters/memory"
	"sacco/contexts/member-network/referral-tree-service/domain/entities"
	domainerrors "sacco/contexts/member-network/referral-tree-service/domain/errors"
	"sacco/contexts/member-network/referral-tree-service/ports"
)

func newTreeService(store *memory.Store, scope ports.OverflowScope) Service {
	return Service{
		Repo:          store,
		Clock:         fixedClock{now: time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)},
		IDGen:         store,
		OverflowScope: scope,
	}
}

func mustEnsureRoot(t *testing.T, service Service) entities.Node {
	t.Helper()
	root, err := service.EnsureRoot(context.Background(), "root")
	if err != nil {
		t.Fatalf("ensure root failed: %v", err)
	}
	return root
}

func TestEnsureRootIsIdempotent(t *testing.T) {
	service := newTreeService(memory.NewStore(), ports.OverflowScopeSubtree)

	first := mustEnsureRoot(t, service)
	second := mustEnsureRoot(t, service)
	if first.MemberID != second.MemberID {
		t.Fatalf("expected same root, got %q and %q", first.MemberID, second.MemberID)
	}

	if _, err := service.EnsureRoot(context.Background(), "other-root"); !errors.Is(err, domainerrors.ErrRootConflict) {
		t.Fatalf("expected root conflict, got %v", err)
	}
}

func TestPlaceMemberFillsReferrerSlotsInOrder(t *testing.T) {
	service := newTreeService(memory.NewStore(), ports.OverflowScopeSubtree)
	mustEnsureRoot(t, service)

	for i, memberID := range []string{"m-a", "m-b", "m-c"} {
		node, err := service.PlaceMember(context.Background(), "root", memberID)
		if err != nil {
			t.Fatalf("place %s failed: %v", memberID, err)
		}
		if node.ParentID != "root" || node.Level != 1 || node.Position != i {
			t.Fatalf("unexpected placement for %s: %+v", memberID, node)
		}
	}
}

func TestPlaceMemberOverflowsToNearestOpenDescendant(t *testing.T) {
	service := newTreeService(memory.NewStore(), ports.OverflowScopeSubtree)
	mustEnsureRoot(t, service)

	for _, memberID := range []string{"m-a", "m-b", "m-c"} {
		if _, err := service.PlaceMember(context.Background(), "root", memberID); err != nil {
			t.Fatalf("place %s failed: %v", memberID, err)
		}
	}

	// Root's three slots are taken; the fourth referral spills to the first
	// child in level order.
	node, err := service.PlaceMember(context.Background(), "root", "m-d")
	if err != nil {
		t.Fatalf("overflow placement failed: %v", err)
	}
	if node.ParentID != "m-a" || node.Level != 2 || node.Position != 0 {
		t.Fatalf("expected m-d under m-a at level 2 position 0, got %+v", node)
	}
}

func TestPlaceMemberWithoutReferrerGoesUnderRoot(t *testing.T) {
	service := newTreeService(memory.NewStore(), ports.OverflowScopeSubtree)
	mustEnsureRoot(t, service)

	node, err := service.PlaceMember(context.Background(), "", "m-a")
	if err != nil {
		t.Fatalf("place without referrer failed: %v", err)
	}
	if node.ParentID != "root" || node.Level != 1 {
		t.Fatalf("expected placement under root, got %+v", node)
	}
}

func TestPlaceMemberRejectsUnknownReferrer(t *testing.T) {
	service := newTreeService(memory.NewStore(), ports.OverflowScopeSubtree)
	mustEnsureRoot(t, service)

	if _, err := service.PlaceMember(context.Background(), "nobody", "m-a"); !errors.Is(err, domainerrors.ErrUnknownReferrer) {
		t.Fatalf("expected unknown referrer, got %v", err)
	}
}

func TestPlaceMemberRejectsDuplicateAndSelfReferral(t *testing.T) {
	service := newTreeService(memory.NewStore(), ports.OverflowScopeSubtree)
	mustEnsureRoot(t, service)

	if _, err := service.PlaceMember(context.Background(), "root", "m-a"); err != nil {
		t.Fatalf("place failed: %v", err)
	}
	if _, err := service.PlaceMember(context.Background(), "root", "m-a"); !errors.Is(err, domainerrors.ErrAlreadyPlaced) {
		t.Fatalf("expected already placed, got %v", err)
	}
	if _, err := service.PlaceMember(context.Background(), "m-a", "m-a"); !errors.Is(err, domainerrors.ErrInvalidPlacement) {
		t.Fatalf("expected invalid placement, got %v", err)
	}
}

func TestOverflowScopeControlsSearchStart(t *testing.T) {
	build := func(scope ports.OverflowScope) (Service, *memory.Store) {
		store := memory.NewStore()
		service := newTreeService(store, scope)
		mustEnsureRoot(t, service)
		for _, memberID := range []string{"m-a", "m-b", "m-c"} {
			if _, err := service.PlaceMember(context.Background(), "root", memberID); err != nil {
				t.Fatalf("place %s failed: %v", memberID, err)
			}
		}
		for _, memberID := range []string{"a-1", "a-2", "a-3"} {
			if _, err := service.PlaceMember(context.Background(), "m-a", memberID); err != nil {
				t.Fatalf("place %s failed: %v", memberID, err)
			}
		}
		return service, store
	}

	// Subtree scope keeps the overflow inside the referrer's own downline.
	subtreeService, _ := build(ports.OverflowScopeSubtree)
	node, err := subtreeService.PlaceMember(context.Background(), "m-a", "m-x")
	if err != nil {
		t.Fatalf("subtree overflow failed: %v", err)
	}
	if node.ParentID != "a-1" {
		t.Fatalf("expected subtree overflow under a-1, got %+v", node)
	}

	// Global scope restarts the search at the root when the referrer is full.
	globalService, _ := build(ports.OverflowScopeGlobal)
	node, err = globalService.PlaceMember(context.Background(), "m-a", "m-x")
	if err != nil {
		t.Fatalf("global overflow failed: %v", err)
	}
	if node.ParentID != "m-b" {
		t.Fatalf("expected global overflow under m-b, got %+v", node)
	}
}

func TestAncestorsReturnsChainNearestFirst(t *testing.T) {
	service := newTreeService(memory.NewStore(), ports.OverflowScopeSubtree)
	mustEnsureRoot(t, service)

	if _, err := service.PlaceMember(context.Background(), "root", "m-a"); err != nil {
		t.Fatalf("place m-a failed: %v", err)
	}
	if _, err := service.PlaceMember(context.Background(), "m-a", "m-d"); err != nil {
		t.Fatalf("place m-d failed: %v", err)
	}

	chain, err := service.Ancestors(context.Background(), "m-d")
	if err != nil {
		t.Fatalf("ancestors failed: %v", err)
	}
	if len(chain) != 2 || chain[0].MemberID != "m-a" || chain[1].MemberID != "root" {
		t.Fatalf("unexpected ancestor chain: %+v", chain)
	}

	rootChain, err := service.Ancestors(context.Background(), "root")
	if err != nil {
		t.Fatalf("root ancestors failed: %v", err)
	}
	if len(rootChain) != 0 {
		t.Fatalf("expected empty chain for root, got %+v", rootChain)
	}
}

func TestConcurrentPlacementsNeverShareASlot(t *testing.T) {
	service := newTreeService(memory.NewStore(), ports.OverflowScopeSubtree)
	service.MaxPlacementAttempts = 64 // plenty of retries under deliberate contention
	mustEnsureRoot(t, service)

	const members = 10
	var wg sync.WaitGroup
	errs := make(chan error, members)
	for i := 0; i < members; i++ {
		memberID := fmt.Sprintf("m-%02d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := service.PlaceMember(context.Background(), "root", memberID); err != nil {
				errs <- fmt.Errorf("place %s: %w", memberID, err)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	seen := make(map[string]string)
	for i := 0; i < members; i++ {
		memberID := fmt.Sprintf("m-%02d", i)
		node, err := service.GetNode(context.Background(), memberID)
		if err != nil {
			t.Fatalf("get %s failed: %v", memberID, err)
		}
		slot := fmt.Sprintf("%s/%d", node.ParentID, node.Position)
		if holder, taken := seen[slot]; taken {
			t.Fatalf("slot %s claimed by both %s and %s", slot, holder, memberID)
		}
		seen[slot] = memberID
		children, err := service.ListChildren(context.Background(), node.ParentID)
		if err != nil {
			t.Fatalf("list children of %s failed: %v", node.ParentID, err)
		}
		if len(children) > entities.MaxChildSlots {
			t.Fatalf("parent %s has %d children", node.ParentID, len(children))
		}
	}
}

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time { return f.now }
