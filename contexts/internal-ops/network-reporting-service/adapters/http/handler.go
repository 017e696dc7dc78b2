package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"sacco/contexts/internal-ops/network-reporting-service/application"
	httptransport "sacco/contexts/internal-ops/network-reporting-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) NetworkOverviewHandler(ctx context.Context) (httptransport.NetworkOverviewResponse, error) {
	overview, err := h.Service.NetworkOverview(ctx)
	if err != nil {
		return httptransport.NetworkOverviewResponse{}, err
	}
	resp := httptransport.NetworkOverviewResponse{Status: "success"}
	resp.Data.NodeCount = overview.NodeCount
	resp.Data.MaxDepth = overview.MaxDepth
	resp.Data.OpenSlots = overview.OpenSlots
	resp.Data.Levels = make([]httptransport.LevelCountDTO, 0, len(overview.Levels))
	for _, level := range overview.Levels {
		resp.Data.Levels = append(resp.Data.Levels, httptransport.LevelCountDTO{
			Level: level.Level,
			Count: level.Count,
		})
	}
	return resp, nil
}

func (h Handler) MemberStatementHandler(
	ctx context.Context,
	memberID string,
) (httptransport.MemberStatementResponse, error) {
	statement, err := h.Service.MemberStatement(ctx, memberID)
	if err != nil {
		return httptransport.MemberStatementResponse{}, err
	}
	resp := httptransport.MemberStatementResponse{Status: "success"}
	resp.Data.MemberID = statement.Node.MemberID
	resp.Data.ParentID = statement.Node.ParentID
	resp.Data.Level = statement.Node.Level
	resp.Data.Position = statement.Node.Position
	resp.Data.PlacedAt = statement.Node.PlacedAt.UTC().Format(time.RFC3339)
	resp.Data.TotalCredited = statement.TotalCredited.String()
	resp.Data.Credits = make([]httptransport.CreditDTO, 0, len(statement.Credits))
	for _, credit := range statement.Credits {
		resp.Data.Credits = append(resp.Data.Credits, httptransport.CreditDTO{
			PaymentID: credit.PaymentID,
			ShareKind: credit.ShareKind,
			Amount:    credit.Amount.String(),
			CreatedAt: credit.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return resp, nil
}

func (h Handler) LedgerTotalsHandler(ctx context.Context) (httptransport.LedgerTotalsResponse, error) {
	totals, err := h.Service.LedgerTotals(ctx)
	if err != nil {
		return httptransport.LedgerTotalsResponse{}, err
	}
	resp := httptransport.LedgerTotalsResponse{Status: "success"}
	resp.Data.TotalDistributed = totals.TotalDistributed.String()
	resp.Data.AncestorShare = totals.AncestorShare.String()
	resp.Data.CompanyShare = totals.CompanyShare.String()
	resp.Data.EventCount = totals.EventCount
	resp.Data.PaymentCount = totals.PaymentCount
	return resp, nil
}
