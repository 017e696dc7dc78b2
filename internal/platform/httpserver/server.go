package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	referraltreeservice "sacco/contexts/member-network/referral-tree-service"
	treedomainerrors "sacco/contexts/member-network/referral-tree-service/domain/errors"
	treehttp "sacco/contexts/member-network/referral-tree-service/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "sacco/internal/platform/httpserver/docs"

	psfdistributionengine "sacco/contexts/finance-core/psf-distribution-engine"
	networkreportingservice "sacco/contexts/internal-ops/network-reporting-service"
)

type Server struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	addr         string
	tree         referraltreeservice.Module
	distribution psfdistributionengine.Module
	reporting    networkreportingservice.Module
}

func New(
	tree referraltreeservice.Module,
	distribution psfdistributionengine.Module,
	reporting networkreportingservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		addr:         addr,
		tree:         tree,
		distribution: distribution,
		reporting:    reporting,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/network/v1/placements", s.handlePlaceMember)
	s.mux.HandleFunc("GET /api/network/v1/members/{member_id}", s.handleGetNode)
	s.mux.HandleFunc("GET /api/network/v1/members/{member_id}/children", s.handleListChildren)
	s.mux.HandleFunc("GET /api/network/v1/members/{member_id}/ancestors", s.handleListAncestors)

	s.mux.HandleFunc("POST /api/funds/v1/distributions", s.handleDistribute)
	s.mux.HandleFunc("GET /api/funds/v1/distributions/{payment_id}", s.handleListByPayment)
	s.mux.HandleFunc("GET /api/funds/v1/members/{member_id}/credits", s.handleListByMember)
	s.mux.HandleFunc("GET /api/funds/v1/totals", s.handleFundTotals)

	s.mux.HandleFunc("GET /api/reports/v1/network", s.handleNetworkOverview)
	s.mux.HandleFunc("GET /api/reports/v1/totals", s.handleReportTotals)
	s.mux.HandleFunc("GET /api/reports/v1/members/{member_id}/statement", s.handleMemberStatement)
}

func (s *Server) handlePlaceMember(w http.ResponseWriter, r *http.Request) {
	var req treehttp.PlaceMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTreeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.tree.Handler.PlaceMemberHandler(r.Context(), req)
	if err != nil {
		writeTreeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tree.Handler.GetNodeHandler(r.Context(), r.PathValue("member_id"))
	if err != nil {
		writeTreeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListChildren(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tree.Handler.ListChildrenHandler(r.Context(), r.PathValue("member_id"))
	if err != nil {
		writeTreeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAncestors(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tree.Handler.ListAncestorsHandler(r.Context(), r.PathValue("member_id"))
	if err != nil {
		writeTreeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeTreeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, treedomainerrors.ErrInvalidMemberID),
		errors.Is(err, treedomainerrors.ErrInvalidPlacement):
		writeTreeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, treedomainerrors.ErrUnknownReferrer):
		writeTreeError(w, http.StatusNotFound, "referrer_not_found", err.Error())
	case errors.Is(err, treedomainerrors.ErrNodeNotFound):
		writeTreeError(w, http.StatusNotFound, "member_not_found", err.Error())
	case errors.Is(err, treedomainerrors.ErrAlreadyPlaced),
		errors.Is(err, treedomainerrors.ErrDuplicateNode):
		writeTreeError(w, http.StatusConflict, "already_placed", err.Error())
	case errors.Is(err, treedomainerrors.ErrSlotConflict):
		writeTreeError(w, http.StatusConflict, "placement_contention", err.Error())
	case errors.Is(err, treedomainerrors.ErrRootConflict):
		writeTreeError(w, http.StatusConflict, "root_conflict", err.Error())
	case errors.Is(err, treedomainerrors.ErrTreeFull):
		writeTreeError(w, http.StatusConflict, "tree_full", err.Error())
	case errors.Is(err, treedomainerrors.ErrRootMissing):
		writeTreeError(w, http.StatusServiceUnavailable, "root_missing", err.Error())
	default:
		writeTreeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeTreeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, treehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
