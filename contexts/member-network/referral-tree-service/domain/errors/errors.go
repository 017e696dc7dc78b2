package errors

import "errors"

var (
	ErrInvalidMemberID  = errors.New("member id is invalid")
	ErrInvalidPlacement = errors.New("node placement is invalid")
	ErrAlreadyPlaced    = errors.New("member is already placed in the referral tree")
	ErrUnknownReferrer  = errors.New("referrer has no node in the referral tree")
	ErrNodeNotFound     = errors.New("member has no node in the referral tree")
	ErrRootMissing      = errors.New("referral tree root has not been created")
	ErrRootConflict     = errors.New("referral tree root already exists for a different member")
	ErrTreeFull         = errors.New("no node in the referral tree has an open slot")
	ErrDuplicateNode    = errors.New("a node already exists for this member")
	ErrSlotConflict     = errors.New("slot was claimed by a concurrent placement")
)
