package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// MemberNode is the reporting view of a referral-tree placement.
type MemberNode struct {
	MemberID string
	ParentID string
	Level    int
	Position int
	PlacedAt time.Time
}

type LevelCount struct {
	Level int
	Count int
}

// Credit is one ledger event from the beneficiary's point of view.
type Credit struct {
	PaymentID string
	ShareKind string
	Amount    decimal.Decimal
	CreatedAt time.Time
}

type LedgerTotals struct {
	TotalDistributed decimal.Decimal
	AncestorShare    decimal.Decimal
	CompanyShare     decimal.Decimal
	EventCount       int
	PaymentCount     int
}

// TreeReader and LedgerReader are read-only views over state owned by the
// member-network and finance-core contexts. Reporting never mutates either.
type TreeReader interface {
	GetNode(ctx context.Context, memberID string) (MemberNode, bool, error)
	CountNodesByLevel(ctx context.Context) ([]LevelCount, error)
}

type LedgerReader interface {
	Totals(ctx context.Context) (LedgerTotals, error)
	ListCreditsByMember(ctx context.Context, memberID string) ([]Credit, error)
}

type NetworkOverview struct {
	NodeCount int
	MaxDepth  int
	OpenSlots int
	Levels    []LevelCount
}

type MemberStatement struct {
	Node          MemberNode
	Credits       []Credit
	TotalCredited decimal.Decimal
}
