package application

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	domainerrors "sacco/contexts/internal-ops/network-reporting-service/domain/errors"
	"sacco/contexts/internal-ops/network-reporting-service/ports"

	"github.com/shopspring/decimal"
)

type Service struct {
	Tree   ports.TreeReader
	Ledger ports.LedgerReader
	Logger *slog.Logger
}

// NetworkOverview summarizes tree shape for admin inspection. Open slots are
// derived, not stored: every node offers three slots and every non-root node
// occupies one, so a tree of N nodes always has 2N+1 openings.
func (s Service) NetworkOverview(ctx context.Context) (ports.NetworkOverview, error) {
	levels, err := s.Tree.CountNodesByLevel(ctx)
	if err != nil {
		return ports.NetworkOverview{}, err
	}
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].Level < levels[j].Level
	})

	overview := ports.NetworkOverview{Levels: levels}
	for _, level := range levels {
		overview.NodeCount += level.Count
		if level.Level > overview.MaxDepth {
			overview.MaxDepth = level.Level
		}
	}
	if overview.NodeCount > 0 {
		overview.OpenSlots = 2*overview.NodeCount + 1
	}
	return overview, nil
}

func (s Service) MemberStatement(ctx context.Context, memberID string) (ports.MemberStatement, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return ports.MemberStatement{}, domainerrors.ErrInvalidMemberID
	}

	node, found, err := s.Tree.GetNode(ctx, memberID)
	if err != nil {
		return ports.MemberStatement{}, err
	}
	if !found {
		return ports.MemberStatement{}, domainerrors.ErrMemberNotFound
	}

	credits, err := s.Ledger.ListCreditsByMember(ctx, memberID)
	if err != nil {
		return ports.MemberStatement{}, err
	}

	total := decimal.Zero
	for _, credit := range credits {
		total = total.Add(credit.Amount)
	}
	return ports.MemberStatement{
		Node:          node,
		Credits:       credits,
		TotalCredited: total,
	}, nil
}

func (s Service) LedgerTotals(ctx context.Context) (ports.LedgerTotals, error) {
	return s.Ledger.Totals(ctx)
}
