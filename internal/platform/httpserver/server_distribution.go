package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	distributiondomainerrors "sacco/contexts/finance-core/psf-distribution-engine/domain/errors"
	distributionhttp "sacco/contexts/finance-core/psf-distribution-engine/transport/http"
)

func (s *Server) handleDistribute(w http.ResponseWriter, r *http.Request) {
	var req distributionhttp.DistributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDistributionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.distribution.Handler.DistributeHandler(r.Context(), req)
	if err != nil {
		writeDistributionDomainError(w, err)
		return
	}

	// A replayed payment returns the stored batch rather than creating one.
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleListByPayment(w http.ResponseWriter, r *http.Request) {
	resp, err := s.distribution.Handler.ListByPaymentHandler(r.Context(), r.PathValue("payment_id"))
	if err != nil {
		writeDistributionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListByMember(w http.ResponseWriter, r *http.Request) {
	resp, err := s.distribution.Handler.ListByMemberHandler(r.Context(), r.PathValue("member_id"))
	if err != nil {
		writeDistributionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFundTotals(w http.ResponseWriter, r *http.Request) {
	resp, err := s.distribution.Handler.TotalsHandler(r.Context())
	if err != nil {
		writeDistributionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeDistributionDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, distributiondomainerrors.ErrInvalidPaymentID),
		errors.Is(err, distributiondomainerrors.ErrInvalidPayerID),
		errors.Is(err, distributiondomainerrors.ErrInvalidAmount):
		writeDistributionError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, distributiondomainerrors.ErrUnknownPayer):
		writeDistributionError(w, http.StatusNotFound, "payer_not_found", err.Error())
	case errors.Is(err, distributiondomainerrors.ErrBatchNotFound):
		writeDistributionError(w, http.StatusNotFound, "distribution_not_found", err.Error())
	case errors.Is(err, distributiondomainerrors.ErrBatchConflict),
		errors.Is(err, distributiondomainerrors.ErrIdempotencyConflict):
		writeDistributionError(w, http.StatusConflict, "distribution_conflict", err.Error())
	default:
		writeDistributionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeDistributionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, distributionhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
