package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"sacco/contexts/member-network/referral-tree-service/application"
	"sacco/contexts/member-network/referral-tree-service/domain/entities"
	httptransport "sacco/contexts/member-network/referral-tree-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) PlaceMemberHandler(
	ctx context.Context,
	req httptransport.PlaceMemberRequest,
) (httptransport.PlaceMemberResponse, error) {
	node, err := h.Service.PlaceMember(ctx, req.ReferrerID, req.MemberID)
	if err != nil {
		return httptransport.PlaceMemberResponse{}, err
	}
	return httptransport.PlaceMemberResponse{
		Status:   "success",
		Overflow: req.ReferrerID != "" && node.ParentID != req.ReferrerID,
		Data:     toDTO(node),
	}, nil
}

func (h Handler) GetNodeHandler(
	ctx context.Context,
	memberID string,
) (httptransport.NodeResponse, error) {
	node, err := h.Service.GetNode(ctx, memberID)
	if err != nil {
		return httptransport.NodeResponse{}, err
	}
	return httptransport.NodeResponse{
		Status: "success",
		Data:   toDTO(node),
	}, nil
}

func (h Handler) ListChildrenHandler(
	ctx context.Context,
	memberID string,
) (httptransport.NodeListResponse, error) {
	children, err := h.Service.ListChildren(ctx, memberID)
	if err != nil {
		return httptransport.NodeListResponse{}, err
	}
	return toListResponse(children), nil
}

func (h Handler) ListAncestorsHandler(
	ctx context.Context,
	memberID string,
) (httptransport.NodeListResponse, error) {
	ancestors, err := h.Service.Ancestors(ctx, memberID)
	if err != nil {
		return httptransport.NodeListResponse{}, err
	}
	return toListResponse(ancestors), nil
}

func toListResponse(nodes []entities.Node) httptransport.NodeListResponse {
	resp := httptransport.NodeListResponse{
		Status: "success",
		Data:   make([]httptransport.NodeDTO, 0, len(nodes)),
	}
	for _, node := range nodes {
		resp.Data = append(resp.Data, toDTO(node))
	}
	return resp
}

func toDTO(node entities.Node) httptransport.NodeDTO {
	return httptransport.NodeDTO{
		MemberID:  node.MemberID,
		ParentID:  node.ParentID,
		Level:     node.Level,
		Position:  node.Position,
		CreatedAt: node.CreatedAt.UTC().Format(time.RFC3339),
	}
}
