package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"sacco/contexts/internal-ops/network-reporting-service/ports"

	"github.com/shopspring/decimal"
)

// Reader is a seedable in-memory stand-in for the reporting read models.
type Reader struct {
	mu sync.RWMutex

	nodes   map[string]ports.MemberNode
	credits map[string][]ports.Credit // beneficiary id -> credits
	totals  ports.LedgerTotals
}

func NewReader() *Reader {
	return &Reader{
		nodes:   make(map[string]ports.MemberNode),
		credits: make(map[string][]ports.Credit),
		totals: ports.LedgerTotals{
			TotalDistributed: decimal.Zero,
			AncestorShare:    decimal.Zero,
			CompanyShare:     decimal.Zero,
		},
	}
}

func (r *Reader) SeedNode(node ports.MemberNode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[node.MemberID] = node
}

func (r *Reader) SeedCredit(beneficiaryID string, credit ports.Credit, company bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.credits[beneficiaryID] = append(r.credits[beneficiaryID], credit)
	r.totals.EventCount++
	r.totals.TotalDistributed = r.totals.TotalDistributed.Add(credit.Amount)
	if company {
		r.totals.CompanyShare = r.totals.CompanyShare.Add(credit.Amount)
	} else {
		r.totals.AncestorShare = r.totals.AncestorShare.Add(credit.Amount)
	}
}

func (r *Reader) SeedPaymentCount(count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totals.PaymentCount = count
}

func (r *Reader) GetNode(_ context.Context, memberID string) (ports.MemberNode, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	node, ok := r.nodes[strings.TrimSpace(memberID)]
	return node, ok, nil
}

func (r *Reader) CountNodesByLevel(_ context.Context) ([]ports.LevelCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[int]int)
	for _, node := range r.nodes {
		counts[node.Level]++
	}
	levels := make([]ports.LevelCount, 0, len(counts))
	for level, count := range counts {
		levels = append(levels, ports.LevelCount{Level: level, Count: count})
	}
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].Level < levels[j].Level
	})
	return levels, nil
}

func (r *Reader) Totals(_ context.Context) (ports.LedgerTotals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.totals, nil
}

func (r *Reader) ListCreditsByMember(_ context.Context, memberID string) ([]ports.Credit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := append([]ports.Credit(nil), r.credits[strings.TrimSpace(memberID)]...)
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}
