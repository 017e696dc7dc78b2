package entities

import (
	"strings"
	"time"

	domainerrors "sacco/contexts/member-network/referral-tree-service/domain/errors"
)

// MaxChildSlots bounds the fanout of every node in the referral tree.
const MaxChildSlots = 3

// Node is one member's position in the referral tree. A node is written
// exactly once at placement time; parent, level and position never change.
type Node struct {
	MemberID  string
	ParentID  string // empty only for the root
	Level     int
	Position  int
	CreatedAt time.Time
}

func NewNode(memberID string, parentID string, level int, position int, createdAt time.Time) (Node, error) {
	if strings.TrimSpace(memberID) == "" {
		return Node{}, domainerrors.ErrInvalidMemberID
	}
	if parentID == "" {
		if level != 0 || position != 0 {
			return Node{}, domainerrors.ErrInvalidPlacement
		}
	} else {
		if level < 1 || position < 0 || position >= MaxChildSlots {
			return Node{}, domainerrors.ErrInvalidPlacement
		}
		if parentID == memberID {
			return Node{}, domainerrors.ErrInvalidPlacement
		}
	}
	return Node{
		MemberID:  strings.TrimSpace(memberID),
		ParentID:  strings.TrimSpace(parentID),
		Level:     level,
		Position:  position,
		CreatedAt: createdAt.UTC(),
	}, nil
}

func (n Node) IsRoot() bool {
	return n.ParentID == ""
}

// HasOpenSlot reports whether a node with the given child count can accept
// another direct child.
func HasOpenSlot(childCount int) bool {
	return childCount < MaxChildSlots
}
