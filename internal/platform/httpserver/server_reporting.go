package httpserver

import (
	"errors"
	"net/http"

	reportingdomainerrors "sacco/contexts/internal-ops/network-reporting-service/domain/errors"
	reportinghttp "sacco/contexts/internal-ops/network-reporting-service/transport/http"
)

func (s *Server) handleNetworkOverview(w http.ResponseWriter, r *http.Request) {
	resp, err := s.reporting.Handler.NetworkOverviewHandler(r.Context())
	if err != nil {
		writeReportingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReportTotals(w http.ResponseWriter, r *http.Request) {
	resp, err := s.reporting.Handler.LedgerTotalsHandler(r.Context())
	if err != nil {
		writeReportingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMemberStatement(w http.ResponseWriter, r *http.Request) {
	resp, err := s.reporting.Handler.MemberStatementHandler(r.Context(), r.PathValue("member_id"))
	if err != nil {
		writeReportingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeReportingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reportingdomainerrors.ErrInvalidMemberID):
		writeReportingError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, reportingdomainerrors.ErrMemberNotFound):
		writeReportingError(w, http.StatusNotFound, "member_not_found", err.Error())
	default:
		writeReportingError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeReportingError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, reportinghttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
