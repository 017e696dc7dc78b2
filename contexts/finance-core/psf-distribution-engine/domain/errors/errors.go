package errors

import "errors"

var (
	ErrInvalidPaymentID    = errors.New("payment id is required")
	ErrInvalidPayerID      = errors.New("payer member id is required")
	ErrInvalidAmount       = errors.New("distribution amount is invalid")
	ErrUnknownPayer        = errors.New("payer has no node in the referral tree")
	ErrDistributionFailed  = errors.New("distribution run failed, nothing was written")
	ErrBatchConflict       = errors.New("a distribution batch already exists for this payment")
	ErrBatchNotFound       = errors.New("no distribution batch exists for this payment")
	ErrIdempotencyConflict = errors.New("event id already processed with a different payload")
)
