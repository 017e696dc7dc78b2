package errors

import "errors"

var (
	ErrInvalidMemberID = errors.New("member id is required")
	ErrMemberNotFound  = errors.New("member has no node in the referral tree")
)
