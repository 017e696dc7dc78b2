package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sacco/contexts/finance-core/psf-distribution-engine/domain/entities"
	domainerrors "sacco/contexts/finance-core/psf-distribution-engine/domain/errors"
	"sacco/contexts/finance-core/psf-distribution-engine/ports"

	"github.com/shopspring/decimal"
)

type Service struct {
	Ledger                  ports.LedgerRepository
	Tree                    ports.AncestorResolver
	Clock                   ports.Clock
	IDGen                   ports.IDGenerator
	DefaultUnitAmount       decimal.Decimal
	DisableCreditedEmission bool
	Logger                  *slog.Logger
}

// Distribute runs the PSF split for one approved payment: one UnitAmount
// credit per ancestor walking payer -> root, then the residual to the company
// account. The whole run is one atomic ledger append keyed by payment id;
// a payment that was already processed is returned as-is with replayed=true
// and nothing is written.
func (s Service) Distribute(
	ctx context.Context,
	input ports.DistributeInput,
) ([]entities.DistributionEvent, bool, error) {
	paymentID := strings.TrimSpace(input.PaymentID)
	payerID := strings.TrimSpace(input.PayerMemberID)
	if paymentID == "" {
		return nil, false, domainerrors.ErrInvalidPaymentID
	}
	if payerID == "" {
		return nil, false, domainerrors.ErrInvalidPayerID
	}

	unit := input.UnitAmount
	if unit.IsZero() {
		unit = s.DefaultUnitAmount
	}
	if !unit.IsPositive() || input.TotalAmount.IsNegative() {
		return nil, false, domainerrors.ErrInvalidAmount
	}

	if existing, found, err := s.Ledger.GetBatch(ctx, paymentID); err != nil {
		return nil, false, err
	} else if found {
		return existing, true, nil
	}

	ancestors, err := s.Tree.Ancestors(ctx, payerID)
	if err != nil {
		return nil, false, err
	}

	now := s.now()
	batch, credited, err := s.buildBatch(ctx, paymentID, payerID, unit, input.TotalAmount, ancestors, now)
	if err != nil {
		return nil, false, err
	}

	if err := s.Ledger.AppendBatch(ctx, batch, credited); err != nil {
		if errors.Is(err, domainerrors.ErrBatchConflict) {
			// A concurrent call won the append; its batch is the truth.
			existing, found, readErr := s.Ledger.GetBatch(ctx, paymentID)
			if readErr != nil {
				return nil, false, readErr
			}
			if found {
				return existing, true, nil
			}
			return nil, false, err
		}
		return nil, false, fmt.Errorf("%w: %v", domainerrors.ErrDistributionFailed, err)
	}

	ResolveLogger(s.Logger).Info("psf distribution completed",
		"event", "psf_distribution_completed",
		"module", "finance-core/psf-distribution-engine",
		"layer", "application",
		"payment_id", paymentID,
		"payer_member_id", payerID,
		"ancestor_count", len(ancestors),
		"unit_amount", unit.String(),
		"total_amount", input.TotalAmount.String(),
	)
	return batch.Events, false, nil
}

func (s Service) buildBatch(
	ctx context.Context,
	paymentID string,
	payerID string,
	unit decimal.Decimal,
	total decimal.Decimal,
	ancestors []ports.Ancestor,
	now time.Time,
) (entities.DistributionBatch, []ports.CreditedEvent, error) {
	events := make([]entities.DistributionEvent, 0, len(ancestors)+1)
	credited := make([]ports.CreditedEvent, 0, len(ancestors)+1)

	appendEvent := func(beneficiaryID string, kind entities.ShareKind, amount decimal.Decimal, depth int) error {
		eventID, err := s.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		sequence := len(events)
		events = append(events, entities.DistributionEvent{
			EventID:       strings.TrimSpace(eventID),
			PaymentID:     paymentID,
			BeneficiaryID: beneficiaryID,
			Kind:          kind,
			Amount:        amount,
			Sequence:      sequence,
			Depth:         depth,
			CreatedAt:     now,
		})
		if s.DisableCreditedEmission {
			return nil
		}
		creditedID, err := s.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		credited = append(credited, ports.CreditedEvent{
			EventID:       strings.TrimSpace(creditedID),
			PaymentID:     paymentID,
			BeneficiaryID: beneficiaryID,
			Kind:          kind,
			Amount:        amount,
			OccurredAt:    now,
		})
		return nil
	}

	for i, ancestor := range ancestors {
		if err := appendEvent(ancestor.MemberID, entities.ShareKindAncestor, unit, i+1); err != nil {
			return entities.DistributionBatch{}, nil, err
		}
	}
	residual := entities.CompanyShare(total, unit, len(ancestors))
	if err := appendEvent(entities.CompanyAccountID, entities.ShareKindCompany, residual, 0); err != nil {
		return entities.DistributionBatch{}, nil, err
	}

	return entities.DistributionBatch{
		PaymentID:     paymentID,
		PayerMemberID: payerID,
		UnitAmount:    unit,
		TotalAmount:   total,
		Events:        events,
		CreatedAt:     now,
	}, credited, nil
}

func (s Service) ListByPayment(ctx context.Context, paymentID string) ([]entities.DistributionEvent, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, domainerrors.ErrInvalidPaymentID
	}
	events, found, err := s.Ledger.GetBatch(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domainerrors.ErrBatchNotFound
	}
	return events, nil
}

func (s Service) ListByMember(ctx context.Context, memberID string) ([]entities.DistributionEvent, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return nil, domainerrors.ErrInvalidPayerID
	}
	return s.Ledger.ListByMember(ctx, memberID)
}

func (s Service) AggregateTotals(ctx context.Context) (entities.LedgerTotals, error) {
	return s.Ledger.AggregateTotals(ctx)
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
