package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sacco/contexts/internal-ops/network-reporting-service/ports"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Reader runs read-only reporting queries directly against the tables owned
// by the member-network and finance-core contexts. Keeping the queries here,
// instead of importing those contexts, preserves the module boundary.
type Reader struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewReader(db *gorm.DB, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		db:     db,
		logger: logger,
	}
}

func (r *Reader) GetNode(ctx context.Context, memberID string) (ports.MemberNode, bool, error) {
	var row nodeRow
	err := r.db.WithContext(ctx).
		Table("referral_tree_nodes").
		Where("member_id = ?", memberID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.MemberNode{}, false, nil
		}
		return ports.MemberNode{}, false, err
	}
	return row.toPort(), true, nil
}

func (r *Reader) CountNodesByLevel(ctx context.Context) ([]ports.LevelCount, error) {
	var rows []ports.LevelCount
	if err := r.db.WithContext(ctx).
		Table("referral_tree_nodes").
		Select("level, COUNT(*) AS count").
		Group("level").
		Order("level ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Reader) Totals(ctx context.Context) (ports.LedgerTotals, error) {
	type aggregateRow struct {
		Kind   string
		Total  decimal.Decimal
		Events int
	}
	var rows []aggregateRow
	if err := r.db.WithContext(ctx).
		Table("psf_distribution_events").
		Select("kind, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS events").
		Group("kind").
		Find(&rows).
		Error; err != nil {
		return ports.LedgerTotals{}, err
	}

	totals := ports.LedgerTotals{
		TotalDistributed: decimal.Zero,
		AncestorShare:    decimal.Zero,
		CompanyShare:     decimal.Zero,
	}
	for _, row := range rows {
		totals.EventCount += row.Events
		totals.TotalDistributed = totals.TotalDistributed.Add(row.Total)
		if row.Kind == "company" {
			totals.CompanyShare = totals.CompanyShare.Add(row.Total)
		} else {
			totals.AncestorShare = totals.AncestorShare.Add(row.Total)
		}
	}

	var paymentCount int64
	if err := r.db.WithContext(ctx).
		Table("psf_distribution_runs").
		Count(&paymentCount).
		Error; err != nil {
		return ports.LedgerTotals{}, err
	}
	totals.PaymentCount = int(paymentCount)
	return totals, nil
}

func (r *Reader) ListCreditsByMember(ctx context.Context, memberID string) ([]ports.Credit, error) {
	var rows []creditRow
	if err := r.db.WithContext(ctx).
		Table("psf_distribution_events").
		Where("beneficiary_id = ?", memberID).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]ports.Credit, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

type nodeRow struct {
	MemberID  string
	ParentID  *string
	Level     int
	Position  int
	CreatedAt time.Time
}

func (row nodeRow) toPort() ports.MemberNode {
	parentID := ""
	if row.ParentID != nil {
		parentID = *row.ParentID
	}
	return ports.MemberNode{
		MemberID: row.MemberID,
		ParentID: parentID,
		Level:    row.Level,
		Position: row.Position,
		PlacedAt: row.CreatedAt.UTC(),
	}
}

type creditRow struct {
	PaymentID string
	Kind      string
	Amount    decimal.Decimal
	CreatedAt time.Time
}

func (row creditRow) toPort() ports.Credit {
	return ports.Credit{
		PaymentID: row.PaymentID,
		ShareKind: row.Kind,
		Amount:    row.Amount,
		CreatedAt: row.CreatedAt.UTC(),
	}
}
