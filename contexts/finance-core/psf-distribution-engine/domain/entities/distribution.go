package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// CompanyAccountID is the sentinel beneficiary for the reserve share.
const CompanyAccountID = "company"

// ShareKind distinguishes ancestor credits from the company/reserve share.
// Kept as a distinct variant so the two cases can diverge without overloading
// a boolean.
type ShareKind string

const (
	ShareKindAncestor ShareKind = "ancestor"
	ShareKindCompany  ShareKind = "company"
)

// DistributionEvent is one credit inside a distribution run. Events are
// append-only; a payment's events are written together or not at all.
type DistributionEvent struct {
	EventID       string
	PaymentID     string
	BeneficiaryID string
	Kind          ShareKind
	Amount        decimal.Decimal
	// Sequence orders the run: ancestors nearest-first from 0, company last.
	Sequence int
	// Depth is the beneficiary's distance above the payer; 0 for the company share.
	Depth     int
	CreatedAt time.Time
}

// DistributionBatch is the full run for one approved payment.
type DistributionBatch struct {
	PaymentID     string
	PayerMemberID string
	UnitAmount    decimal.Decimal
	TotalAmount   decimal.Decimal
	Events        []DistributionEvent
	CreatedAt     time.Time
}

// CompanyShare computes the residual that accrues to the reserve account:
// the payment total minus what the ancestor chain absorbed, floored at zero.
func CompanyShare(total decimal.Decimal, unit decimal.Decimal, ancestorCount int) decimal.Decimal {
	residual := total.Sub(unit.Mul(decimal.NewFromInt(int64(ancestorCount))))
	if residual.IsNegative() {
		return decimal.Zero
	}
	return residual
}

type LedgerTotals struct {
	TotalDistributed decimal.Decimal
	AncestorShare    decimal.Decimal
	CompanyShare     decimal.Decimal
	EventCount       int
	PaymentCount     int
}
