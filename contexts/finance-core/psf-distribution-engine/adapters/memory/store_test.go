package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"sacco/contexts/finance-core/psf-distribution-engine/domain/entities"
	domainerrors "sacco/contexts/finance-core/psf-distribution-engine/domain/errors"

	"github.com/shopspring/decimal"
)

func sampleBatch(paymentID string) entities.DistributionBatch {
	now := time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)
	return entities.DistributionBatch{
		PaymentID:     paymentID,
		PayerMemberID: "m-d",
		UnitAmount:    decimal.NewFromInt(30),
		TotalAmount:   decimal.NewFromInt(100),
		Events: []entities.DistributionEvent{
			{EventID: "ev-1", PaymentID: paymentID, BeneficiaryID: "m-a", Kind: entities.ShareKindAncestor, Amount: decimal.NewFromInt(30), Sequence: 0, Depth: 1, CreatedAt: now},
			{EventID: "ev-2", PaymentID: paymentID, BeneficiaryID: entities.CompanyAccountID, Kind: entities.ShareKindCompany, Amount: decimal.NewFromInt(70), Sequence: 1, Depth: 0, CreatedAt: now},
		},
		CreatedAt: now,
	}
}

func TestAppendBatchRejectsSecondBatchForSamePayment(t *testing.T) {
	store := NewStore()
	if err := store.AppendBatch(context.Background(), sampleBatch("pay-1"), nil); err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	if err := store.AppendBatch(context.Background(), sampleBatch("pay-1"), nil); !errors.Is(err, domainerrors.ErrBatchConflict) {
		t.Fatalf("expected batch conflict, got %v", err)
	}

	events, found, err := store.GetBatch(context.Background(), "pay-1")
	if err != nil || !found {
		t.Fatalf("get batch failed: found=%v err=%v", found, err)
	}
	if len(events) != 2 {
		t.Fatalf("expected original batch intact, got %d events", len(events))
	}
}

func TestReserveEventDeduplicatesByIDAndHash(t *testing.T) {
	store := NewStore()
	expires := time.Now().Add(time.Hour)

	seen, err := store.ReserveEvent(context.Background(), "ev-1", "hash-a", expires)
	if err != nil || seen {
		t.Fatalf("first reserve: seen=%v err=%v", seen, err)
	}
	seen, err = store.ReserveEvent(context.Background(), "ev-1", "hash-a", expires)
	if err != nil || !seen {
		t.Fatalf("redelivery should be seen: seen=%v err=%v", seen, err)
	}
	if _, err = store.ReserveEvent(context.Background(), "ev-1", "hash-b", expires); !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict on payload mismatch, got %v", err)
	}
}
