package workers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"sacco/contexts/finance-core/psf-distribution-engine/adapters/memory"
	application "sacco/contexts/finance-core/psf-distribution-engine/application"
	"sacco/contexts/finance-core/psf-distribution-engine/ports"

	"github.com/shopspring/decimal"
)

type stubResolver struct{}

func (stubResolver) Ancestors(_ context.Context, _ string) ([]ports.Ancestor, error) {
	return []ports.Ancestor{{MemberID: "m-a", Level: 1}}, nil
}

type recordingSubscriber struct {
	handler func(context.Context, ports.EventEnvelope) error
}

func (s *recordingSubscriber) Subscribe(
	_ context.Context,
	_ string,
	_ string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	s.handler = handler
	return nil
}

func approvedEnvelope(t *testing.T, eventID string, paymentID string) ports.EventEnvelope {
	t.Helper()
	data, err := json.Marshal(map[string]string{
		"payment_id":      paymentID,
		"payer_member_id": "m-d",
		"total_amount":    "100",
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return ports.EventEnvelope{
		EventID:    eventID,
		EventType:  "payment.approved",
		OccurredAt: time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC),
		Data:       data,
	}
}

func TestPaymentApprovedConsumerDistributesOncePerEvent(t *testing.T) {
	store := memory.NewStore()
	service := application.Service{
		Ledger:            store,
		Tree:              stubResolver{},
		IDGen:             store,
		DefaultUnitAmount: decimal.NewFromInt(30),
	}

	subscriber := &recordingSubscriber{}
	consumer := PaymentApprovedConsumer{
		Subscriber: subscriber,
		Service:    service,
		Dedup:      store,
	}
	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if subscriber.handler == nil {
		t.Fatal("consumer never subscribed")
	}

	envelope := approvedEnvelope(t, "ev-1", "pay-1")
	if err := subscriber.handler(context.Background(), envelope); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	// Redelivery of the same event id is dropped by the dedup store.
	if err := subscriber.handler(context.Background(), envelope); err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}

	events, found, err := store.GetBatch(context.Background(), "pay-1")
	if err != nil || !found {
		t.Fatalf("batch missing: found=%v err=%v", found, err)
	}
	if len(events) != 2 {
		t.Fatalf("expected ancestor + company events, got %d", len(events))
	}

	totals, err := store.AggregateTotals(context.Background())
	if err != nil {
		t.Fatalf("totals failed: %v", err)
	}
	if totals.PaymentCount != 1 {
		t.Fatalf("redelivery created a second run: %+v", totals)
	}
}

func TestPaymentApprovedConsumerRejectsMalformedUnitAmount(t *testing.T) {
	store := memory.NewStore()
	service := application.Service{
		Ledger:            store,
		Tree:              stubResolver{},
		IDGen:             store,
		DefaultUnitAmount: decimal.NewFromInt(30),
	}

	subscriber := &recordingSubscriber{}
	consumer := PaymentApprovedConsumer{
		Subscriber: subscriber,
		Service:    service,
	}
	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	data, err := json.Marshal(map[string]string{
		"payment_id":      "pay-bad-unit",
		"payer_member_id": "m-d",
		"unit_amount":     "not-a-number",
		"total_amount":    "100",
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope := ports.EventEnvelope{
		EventID:   "ev-bad-unit",
		EventType: "payment.approved",
		Data:      data,
	}

	// A garbled unit must fail the delivery, not fall back to the default:
	// the batch append is exactly-once, so a wrong amount would be permanent.
	if err := subscriber.handler(context.Background(), envelope); err == nil {
		t.Fatal("expected malformed unit amount to fail the delivery")
	}
	if _, found, err := store.GetBatch(context.Background(), "pay-bad-unit"); err != nil || found {
		t.Fatalf("no batch may be written for a rejected delivery: found=%v err=%v", found, err)
	}

	// An absent unit still falls back to the configured default.
	if err := subscriber.handler(context.Background(), approvedEnvelope(t, "ev-ok", "pay-ok")); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	events, found, err := store.GetBatch(context.Background(), "pay-ok")
	if err != nil || !found {
		t.Fatalf("batch missing: found=%v err=%v", found, err)
	}
	if !events[0].Amount.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected default unit credit, got %s", events[0].Amount)
	}
}

func TestPaymentApprovedConsumerSurvivesDistinctPaymentsSameApproval(t *testing.T) {
	store := memory.NewStore()
	service := application.Service{
		Ledger:            store,
		Tree:              stubResolver{},
		IDGen:             store,
		DefaultUnitAmount: decimal.NewFromInt(30),
	}

	subscriber := &recordingSubscriber{}
	consumer := PaymentApprovedConsumer{
		Subscriber: subscriber,
		Service:    service,
		Dedup:      store,
	}
	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if err := subscriber.handler(context.Background(), approvedEnvelope(t, "ev-1", "pay-1")); err != nil {
		t.Fatalf("first payment failed: %v", err)
	}
	if err := subscriber.handler(context.Background(), approvedEnvelope(t, "ev-2", "pay-2")); err != nil {
		t.Fatalf("second payment failed: %v", err)
	}

	totals, err := store.AggregateTotals(context.Background())
	if err != nil {
		t.Fatalf("totals failed: %v", err)
	}
	if totals.PaymentCount != 2 {
		t.Fatalf("expected two runs, got %+v", totals)
	}
}
