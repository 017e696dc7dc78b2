package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"sacco/contexts/finance-core/psf-distribution-engine/domain/entities"
	domainerrors "sacco/contexts/finance-core/psf-distribution-engine/domain/errors"
	"sacco/contexts/finance-core/psf-distribution-engine/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Store struct {
	mu sync.RWMutex

	batches    map[string]entities.DistributionBatch
	eventDedup map[string]dedupRecord
	outbox     map[string]outboxRecord
}

type dedupRecord struct {
	PayloadHash string
	ExpiresAt   time.Time
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
		batches:    make(map[string]entities.DistributionBatch),
		eventDedup: make(map[string]dedupRecord),
		outbox:     make(map[string]outboxRecord),
	}
}

func (s *Store) GetBatch(_ context.Context, paymentID string) ([]entities.DistributionEvent, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch, ok := s.batches[strings.TrimSpace(paymentID)]
	if !ok {
		return nil, false, nil
	}
	return append([]entities.DistributionEvent(nil), batch.Events...), true, nil
}

// AppendBatch holds one lock across the existence check and the write, so two
// concurrent runs for the same payment can never both append.
func (s *Store) AppendBatch(_ context.Context, batch entities.DistributionBatch, credited []ports.CreditedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	paymentID := strings.TrimSpace(batch.PaymentID)
	if paymentID == "" {
		return domainerrors.ErrInvalidPaymentID
	}
	if _, exists := s.batches[paymentID]; exists {
		return domainerrors.ErrBatchConflict
	}

	for _, event := range credited {
		envelope, err := buildCreditedEnvelope(event)
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
				EventType:    "fund.credited",
				PartitionKey: event.BeneficiaryID,
				Payload:      payload,
				CreatedAt:    event.OccurredAt.UTC(),
			},
			Status: outboxStatusPending,
		}
	}

	stored := batch
	stored.Events = append([]entities.DistributionEvent(nil), batch.Events...)
	s.batches[paymentID] = stored
	return nil
}

func (s *Store) ListByMember(_ context.Context, memberID string) ([]entities.DistributionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	memberID = strings.TrimSpace(memberID)
	items := make([]entities.DistributionEvent, 0)
	for _, batch := range s.batches {
		for _, event := range batch.Events {
			if event.BeneficiaryID == memberID {
				items = append(items, event)
			}
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].Sequence < items[j].Sequence
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) AggregateTotals(_ context.Context) (entities.LedgerTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := entities.LedgerTotals{
		TotalDistributed: decimal.Zero,
		AncestorShare:    decimal.Zero,
		CompanyShare:     decimal.Zero,
	}
	for _, batch := range s.batches {
		totals.PaymentCount++
		for _, event := range batch.Events {
			totals.EventCount++
			totals.TotalDistributed = totals.TotalDistributed.Add(event.Amount)
			switch event.Kind {
			case entities.ShareKindCompany:
				totals.CompanyShare = totals.CompanyShare.Add(event.Amount)
			default:
				totals.AncestorShare = totals.AncestorShare.Add(event.Amount)
			}
		}
	}
	return totals, nil
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(eventID)
	if key == "" {
		return false, domainerrors.ErrInvalidPaymentID
	}
	if existing, ok := s.eventDedup[key]; ok {
		if existing.PayloadHash != payloadHash {
			return false, domainerrors.ErrIdempotencyConflict
		}
		return true, nil
	}
	s.eventDedup[key] = dedupRecord{
		PayloadHash: payloadHash,
		ExpiresAt:   expiresAt.UTC(),
	}
	return false, nil
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
		return domainerrors.ErrBatchNotFound
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

func buildCreditedEnvelope(event ports.CreditedEvent) (ports.EventEnvelope, error) {
	data, err := json.Marshal(map[string]any{
		"payment_id":     event.PaymentID,
		"beneficiary_id": event.BeneficiaryID,
		"share_kind":     string(event.Kind),
		"amount":         event.Amount.String(),
	})
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          event.EventID,
		EventType:        "fund.credited",
		OccurredAt:       event.OccurredAt.UTC(),
		SourceService:    "psf-distribution-engine",
		TraceID:          event.EventID,
		SchemaVersion:    1,
		PartitionKeyPath: "beneficiary_id",
		PartitionKey:     event.BeneficiaryID,
		Data:             data,
	}, nil
}
