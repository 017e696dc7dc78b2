package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"sacco/contexts/finance-core/psf-distribution-engine/application"
	"sacco/contexts/finance-core/psf-distribution-engine/domain/entities"
	domainerrors "sacco/contexts/finance-core/psf-distribution-engine/domain/errors"
	"sacco/contexts/finance-core/psf-distribution-engine/ports"
	httptransport "sacco/contexts/finance-core/psf-distribution-engine/transport/http"

	"github.com/shopspring/decimal"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) DistributeHandler(
	ctx context.Context,
	req httptransport.DistributeRequest,
) (httptransport.DistributeResponse, error) {
	unit, err := parseAmount(req.UnitAmount, true)
	if err != nil {
		return httptransport.DistributeResponse{}, err
	}
	total, err := parseAmount(req.TotalAmount, false)
	if err != nil {
		return httptransport.DistributeResponse{}, err
	}

	events, replayed, err := h.Service.Distribute(ctx, ports.DistributeInput{
		PaymentID:     req.PaymentID,
		PayerMemberID: req.PayerMemberID,
		UnitAmount:    unit,
		TotalAmount:   total,
	})
	if err != nil {
		return httptransport.DistributeResponse{}, err
	}
	return httptransport.DistributeResponse{
		Status:   "success",
		Replayed: replayed,
		Data:     toDTOs(events),
	}, nil
}

func (h Handler) ListByPaymentHandler(
	ctx context.Context,
	paymentID string,
) (httptransport.EventListResponse, error) {
	events, err := h.Service.ListByPayment(ctx, paymentID)
	if err != nil {
		return httptransport.EventListResponse{}, err
	}
	return httptransport.EventListResponse{
		Status: "success",
		Data:   toDTOs(events),
	}, nil
}

func (h Handler) ListByMemberHandler(
	ctx context.Context,
	memberID string,
) (httptransport.EventListResponse, error) {
	events, err := h.Service.ListByMember(ctx, memberID)
	if err != nil {
		return httptransport.EventListResponse{}, err
	}
	return httptransport.EventListResponse{
		Status: "success",
		Data:   toDTOs(events),
	}, nil
}

func (h Handler) TotalsHandler(ctx context.Context) (httptransport.TotalsResponse, error) {
	totals, err := h.Service.AggregateTotals(ctx)
	if err != nil {
		return httptransport.TotalsResponse{}, err
	}
	resp := httptransport.TotalsResponse{Status: "success"}
	resp.Data.TotalDistributed = totals.TotalDistributed.String()
	resp.Data.AncestorShare = totals.AncestorShare.String()
	resp.Data.CompanyShare = totals.CompanyShare.String()
	resp.Data.EventCount = totals.EventCount
	resp.Data.PaymentCount = totals.PaymentCount
	return resp, nil
}

func toDTOs(events []entities.DistributionEvent) []httptransport.DistributionEventDTO {
	items := make([]httptransport.DistributionEventDTO, 0, len(events))
	for _, event := range events {
		items = append(items, httptransport.DistributionEventDTO{
			EventID:       event.EventID,
			PaymentID:     event.PaymentID,
			BeneficiaryID: event.BeneficiaryID,
			ShareKind:     string(event.Kind),
			Amount:        event.Amount.String(),
			Depth:         event.Depth,
			CreatedAt:     event.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return items
}

// parseAmount accepts decimal strings from the wire; unit amount may be
// omitted to fall back to the configured PSF unit.
func parseAmount(raw string, optional bool) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if optional {
			return decimal.Zero, nil
		}
		return decimal.Zero, domainerrors.ErrInvalidAmount
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, domainerrors.ErrInvalidAmount
	}
	return value, nil
}
