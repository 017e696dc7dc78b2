package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"sacco/contexts/internal-ops/network-reporting-service/adapters/memory"
	domainerrors "sacco/contexts/internal-ops/network-reporting-service/domain/errors"
	"sacco/contexts/internal-ops/network-reporting-service/ports"

	"github.com/shopspring/decimal"
)

func seededReader(t *testing.T) *memory.Reader {
	t.Helper()
	reader := memory.NewReader()
	placedAt := time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)

	reader.SeedNode(ports.MemberNode{MemberID: "root", Level: 0, PlacedAt: placedAt})
	reader.SeedNode(ports.MemberNode{MemberID: "m-a", ParentID: "root", Level: 1, Position: 0, PlacedAt: placedAt})
	reader.SeedNode(ports.MemberNode{MemberID: "m-b", ParentID: "root", Level: 1, Position: 1, PlacedAt: placedAt})
	reader.SeedNode(ports.MemberNode{MemberID: "m-d", ParentID: "m-a", Level: 2, Position: 0, PlacedAt: placedAt})

	reader.SeedCredit("m-a", ports.Credit{PaymentID: "pay-1", ShareKind: "ancestor", Amount: decimal.NewFromInt(30), CreatedAt: placedAt}, false)
	reader.SeedCredit("m-a", ports.Credit{PaymentID: "pay-2", ShareKind: "ancestor", Amount: decimal.NewFromInt(30), CreatedAt: placedAt.Add(time.Hour)}, false)
	reader.SeedCredit("company", ports.Credit{PaymentID: "pay-1", ShareKind: "company", Amount: decimal.NewFromInt(40), CreatedAt: placedAt}, true)
	reader.SeedPaymentCount(2)
	return reader
}

func TestNetworkOverviewSummarizesShape(t *testing.T) {
	reader := seededReader(t)
	service := Service{Tree: reader, Ledger: reader}

	overview, err := service.NetworkOverview(context.Background())
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if overview.NodeCount != 4 || overview.MaxDepth != 2 {
		t.Fatalf("unexpected shape: %+v", overview)
	}
	if overview.OpenSlots != 9 {
		t.Fatalf("expected 2N+1 open slots for 4 nodes, got %d", overview.OpenSlots)
	}
	if len(overview.Levels) != 3 || overview.Levels[0].Level != 0 || overview.Levels[1].Count != 2 {
		t.Fatalf("unexpected level counts: %+v", overview.Levels)
	}
}

func TestMemberStatementTotalsCredits(t *testing.T) {
	reader := seededReader(t)
	service := Service{Tree: reader, Ledger: reader}

	statement, err := service.MemberStatement(context.Background(), "m-a")
	if err != nil {
		t.Fatalf("statement failed: %v", err)
	}
	if statement.Node.ParentID != "root" || len(statement.Credits) != 2 {
		t.Fatalf("unexpected statement: %+v", statement)
	}
	if !statement.TotalCredited.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("expected total 60, got %s", statement.TotalCredited)
	}

	if _, err := service.MemberStatement(context.Background(), "ghost"); !errors.Is(err, domainerrors.ErrMemberNotFound) {
		t.Fatalf("expected member not found, got %v", err)
	}
	if _, err := service.MemberStatement(context.Background(), "  "); !errors.Is(err, domainerrors.ErrInvalidMemberID) {
		t.Fatalf("expected invalid member id, got %v", err)
	}
}

func TestLedgerTotalsPassThrough(t *testing.T) {
	reader := seededReader(t)
	service := Service{Tree: reader, Ledger: reader}

	totals, err := service.LedgerTotals(context.Background())
	if err != nil {
		t.Fatalf("totals failed: %v", err)
	}
	if totals.PaymentCount != 2 || totals.EventCount != 3 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
	if !totals.TotalDistributed.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected 100 distributed, got %s", totals.TotalDistributed)
	}
}
