package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sacco/contexts/finance-core/psf-distribution-engine/adapters/memory"
	"sacco/contexts/finance-core/psf-distribution-engine/domain/entities"
	domainerrors "sacco/contexts/finance-core/psf-distribution-engine/domain/errors"
	"sacco/contexts/finance-core/psf-distribution-engine/ports"

	"github.com/shopspring/decimal"
)

type stubResolver struct {
	chains map[string][]ports.Ancestor
}

func (r stubResolver) Ancestors(_ context.Context, memberID string) ([]ports.Ancestor, error) {
	chain, ok := r.chains[memberID]
	if !ok {
		return nil, domainerrors.ErrUnknownPayer
	}
	return chain, nil
}

type seqIDGen struct {
	counter atomic.Int64
}

func (g *seqIDGen) NewID(_ context.Context) (string, error) {
	return fmt.Sprintf("id-%04d", g.counter.Add(1)), nil
}

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time { return f.now }

func newDistributionService(store *memory.Store) Service {
	return Service{
		Ledger: store,
		Tree: stubResolver{chains: map[string][]ports.Ancestor{
			"m-d":  {{MemberID: "m-a", Level: 1}, {MemberID: "root", Level: 0}},
			"root": {},
		}},
		Clock:             fixedClock{now: time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)},
		IDGen:             &seqIDGen{},
		DefaultUnitAmount: decimal.NewFromInt(30),
	}
}

func distribute(t *testing.T, service Service, paymentID string, payerID string, total string) ([]entities.DistributionEvent, bool) {
	t.Helper()
	events, replayed, err := service.Distribute(context.Background(), ports.DistributeInput{
		PaymentID:     paymentID,
		PayerMemberID: payerID,
		TotalAmount:   decimal.RequireFromString(total),
	})
	if err != nil {
		t.Fatalf("distribute %s failed: %v", paymentID, err)
	}
	return events, replayed
}

func TestDistributeCreditsAncestorsThenCompany(t *testing.T) {
	service := newDistributionService(memory.NewStore())

	events, replayed := distribute(t, service, "pay-1", "m-d", "100")
	if replayed {
		t.Fatal("first run must not be a replay")
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	first, second, company := events[0], events[1], events[2]
	if first.BeneficiaryID != "m-a" || first.Kind != entities.ShareKindAncestor || !first.Amount.Equal(decimal.NewFromInt(30)) || first.Depth != 1 {
		t.Fatalf("unexpected nearest ancestor credit: %+v", first)
	}
	if second.BeneficiaryID != "root" || second.Depth != 2 || !second.Amount.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("unexpected root credit: %+v", second)
	}
	if company.BeneficiaryID != entities.CompanyAccountID || company.Kind != entities.ShareKindCompany || !company.Amount.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("unexpected company share: %+v", company)
	}
	if first.Sequence != 0 || second.Sequence != 1 || company.Sequence != 2 {
		t.Fatalf("unexpected ordering: %d %d %d", first.Sequence, second.Sequence, company.Sequence)
	}
}

func TestDistributeReplayReturnsStoredBatchUnchanged(t *testing.T) {
	store := memory.NewStore()
	service := newDistributionService(store)

	first, _ := distribute(t, service, "pay-1", "m-d", "100")
	second, replayed := distribute(t, service, "pay-1", "m-d", "100")
	if !replayed {
		t.Fatal("second run must be flagged as replay")
	}
	if len(first) != len(second) {
		t.Fatalf("replay changed batch size: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].EventID != second[i].EventID || !first[i].Amount.Equal(second[i].Amount) {
			t.Fatalf("replay diverged at %d: %+v vs %+v", i, first[i], second[i])
		}
	}

	totals, err := service.AggregateTotals(context.Background())
	if err != nil {
		t.Fatalf("totals failed: %v", err)
	}
	if totals.PaymentCount != 1 || totals.EventCount != 3 {
		t.Fatalf("replay must not grow the ledger: %+v", totals)
	}
}

func TestDistributePayerWithoutAncestorsCreditsCompanyOnly(t *testing.T) {
	service := newDistributionService(memory.NewStore())

	events, _ := distribute(t, service, "pay-root", "root", "100")
	if len(events) != 1 {
		t.Fatalf("expected single company event, got %d", len(events))
	}
	if events[0].BeneficiaryID != entities.CompanyAccountID || !events[0].Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected company event: %+v", events[0])
	}
}

func TestDistributeCompanyShareFloorsAtZero(t *testing.T) {
	service := newDistributionService(memory.NewStore())

	events, _ := distribute(t, service, "pay-small", "m-d", "50")
	company := events[len(events)-1]
	if company.Kind != entities.ShareKindCompany || !company.Amount.IsZero() {
		t.Fatalf("expected zero company share, got %+v", company)
	}
}

func TestDistributeRejectsInvalidInput(t *testing.T) {
	service := newDistributionService(memory.NewStore())

	cases := []struct {
		name  string
		input ports.DistributeInput
		want  error
	}{
		{"empty payment", ports.DistributeInput{PayerMemberID: "m-d", TotalAmount: decimal.NewFromInt(100)}, domainerrors.ErrInvalidPaymentID},
		{"empty payer", ports.DistributeInput{PaymentID: "pay-1", TotalAmount: decimal.NewFromInt(100)}, domainerrors.ErrInvalidPayerID},
		{"negative total", ports.DistributeInput{PaymentID: "pay-1", PayerMemberID: "m-d", TotalAmount: decimal.NewFromInt(-1)}, domainerrors.ErrInvalidAmount},
		{"negative unit", ports.DistributeInput{PaymentID: "pay-1", PayerMemberID: "m-d", UnitAmount: decimal.NewFromInt(-5), TotalAmount: decimal.NewFromInt(100)}, domainerrors.ErrInvalidAmount},
	}
	for _, tc := range cases {
		if _, _, err := service.Distribute(context.Background(), tc.input); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	if _, _, err := service.Distribute(context.Background(), ports.DistributeInput{
		PaymentID:     "pay-1",
		PayerMemberID: "stranger",
		TotalAmount:   decimal.NewFromInt(100),
	}); !errors.Is(err, domainerrors.ErrUnknownPayer) {
		t.Fatalf("expected unknown payer, got %v", err)
	}
}

func TestDistributeConcurrentCallsAppendExactlyOnce(t *testing.T) {
	store := memory.NewStore()
	service := newDistributionService(store)

	const callers = 8
	var wg sync.WaitGroup
	var fresh atomic.Int64
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, replayed, err := service.Distribute(context.Background(), ports.DistributeInput{
				PaymentID:     "pay-race",
				PayerMemberID: "m-d",
				TotalAmount:   decimal.NewFromInt(100),
			})
			if err != nil {
				errs <- err
				return
			}
			if !replayed {
				fresh.Add(1)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
	if fresh.Load() != 1 {
		t.Fatalf("expected exactly one fresh run, got %d", fresh.Load())
	}

	totals, err := service.AggregateTotals(context.Background())
	if err != nil {
		t.Fatalf("totals failed: %v", err)
	}
	if totals.PaymentCount != 1 || totals.EventCount != 3 {
		t.Fatalf("concurrent calls corrupted ledger: %+v", totals)
	}
}

func TestDistributeEmitsCreditedOutboxUnlessDisabled(t *testing.T) {
	store := memory.NewStore()
	service := newDistributionService(store)

	distribute(t, service, "pay-1", "m-d", "100")
	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected one credited event per ledger entry, got %d", len(pending))
	}

	silentStore := memory.NewStore()
	silent := newDistributionService(silentStore)
	silent.DisableCreditedEmission = true
	distribute(t, silent, "pay-2", "m-d", "100")
	pending, err = silentStore.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no credited events, got %d", len(pending))
	}
}

func TestListByMemberCollectsCreditsAcrossPayments(t *testing.T) {
	service := newDistributionService(memory.NewStore())

	distribute(t, service, "pay-1", "m-d", "100")
	distribute(t, service, "pay-2", "m-d", "90")

	credits, err := service.ListByMember(context.Background(), "m-a")
	if err != nil {
		t.Fatalf("list by member failed: %v", err)
	}
	if len(credits) != 2 {
		t.Fatalf("expected 2 credits for m-a, got %d", len(credits))
	}
	for _, credit := range credits {
		if !credit.Amount.Equal(decimal.NewFromInt(30)) {
			t.Fatalf("unexpected credit amount: %+v", credit)
		}
	}
}
