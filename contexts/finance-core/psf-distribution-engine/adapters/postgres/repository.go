package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"sacco/contexts/finance-core/psf-distribution-engine/domain/entities"
	domainerrors "sacco/contexts/finance-core/psf-distribution-engine/domain/errors"
	"sacco/contexts/finance-core/psf-distribution-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) GetBatch(ctx context.Context, paymentID string) ([]entities.DistributionEvent, bool, error) {
	var run runModel
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		First(&run).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var rows []eventModel
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("sequence ASC").
		Find(&rows).
		Error; err != nil {
		return nil, false, err
	}
	items := make([]entities.DistributionEvent, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, true, nil
}

// AppendBatch is the exactly-once guard: the run row's payment_id primary key
// rejects a second batch for the same payment, and run, events and credited
// outbox rows commit together or not at all.
func (r *Repository) AppendBatch(
	ctx context.Context,
	batch entities.DistributionBatch,
	credited []ports.CreditedEvent,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		run := runModel{
			PaymentID:     batch.PaymentID,
			PayerMemberID: batch.PayerMemberID,
			UnitAmount:    batch.UnitAmount,
			TotalAmount:   batch.TotalAmount,
			EventCount:    len(batch.Events),
			CreatedAt:     batch.CreatedAt.UTC(),
		}
		if err := tx.Create(&run).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrBatchConflict
			}
			return err
		}

		for _, event := range batch.Events {
			row := eventModelFromEntity(event)
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		for _, event := range credited {
			envelope, err := buildCreditedEnvelope(event)
			if err != nil {
				return err
			}
			payload, err := json.Marshal(envelope)
			if err != nil {
				return err
			}
			outboxRow := outboxModel{
				OutboxID:     event.EventID,
				EventType:    "fund.credited",
				PartitionKey: event.BeneficiaryID,
				Payload:      payload,
				Status:       outboxStatusPending,
				CreatedAt:    event.OccurredAt.UTC(),
			}
			if err := tx.Create(&outboxRow).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) ListByMember(ctx context.Context, memberID string) ([]entities.DistributionEvent, error) {
	var rows []eventModel
	if err := r.db.WithContext(ctx).
		Where("beneficiary_id = ?", memberID).
		Order("created_at ASC").
		Order("sequence ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.DistributionEvent, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) AggregateTotals(ctx context.Context) (entities.LedgerTotals, error) {
	type aggregateRow struct {
		Kind   string
		Total  decimal.Decimal
		Events int
	}
	var rows []aggregateRow
	if err := r.db.WithContext(ctx).
		Model(&eventModel{}).
		Select("kind, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS events").
		Group("kind").
		Find(&rows).
		Error; err != nil {
		return entities.LedgerTotals{}, err
	}

	totals := entities.LedgerTotals{
		TotalDistributed: decimal.Zero,
		AncestorShare:    decimal.Zero,
		CompanyShare:     decimal.Zero,
	}
	for _, row := range rows {
		totals.EventCount += row.Events
		totals.TotalDistributed = totals.TotalDistributed.Add(row.Total)
		switch entities.ShareKind(row.Kind) {
		case entities.ShareKindCompany:
			totals.CompanyShare = totals.CompanyShare.Add(row.Total)
		default:
			totals.AncestorShare = totals.AncestorShare.Add(row.Total)
		}
	}

	var paymentCount int64
	if err := r.db.WithContext(ctx).
		Model(&runModel{}).
		Count(&paymentCount).
		Error; err != nil {
		return entities.LedgerTotals{}, err
	}
	totals.PaymentCount = int(paymentCount)
	return totals, nil
}

func (r *Repository) ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	row := eventDedupModel{
		EventID:     eventID,
		PayloadHash: payloadHash,
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: time.Now().UTC(),
	}
	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return false, createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return false, nil
	}

	var existing eventDedupModel
	if err := r.db.WithContext(ctx).
		Select("payload_hash").
		Where("event_id = ?", eventID).
		First(&existing).
		Error; err != nil {
		return false, err
	}
	if existing.PayloadHash != payloadHash {
		return false, domainerrors.ErrIdempotencyConflict
	}
	return true, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	ts := sentAt.UTC()
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":  outboxStatusSent,
			"sent_at": &ts,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrBatchNotFound
	}
	return nil
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

type runModel struct {
	PaymentID     string          `gorm:"column:payment_id;primaryKey"`
	PayerMemberID string          `gorm:"column:payer_member_id"`
	UnitAmount    decimal.Decimal `gorm:"column:unit_amount;type:numeric(20,4)"`
	TotalAmount   decimal.Decimal `gorm:"column:total_amount;type:numeric(20,4)"`
	EventCount    int             `gorm:"column:event_count"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
}

func (runModel) TableName() string {
	return "psf_distribution_runs"
}

type eventModel struct {
	EventID       string          `gorm:"column:event_id;primaryKey"`
	PaymentID     string          `gorm:"column:payment_id"`
	BeneficiaryID string          `gorm:"column:beneficiary_id"`
	Kind          string          `gorm:"column:kind"`
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric(20,4)"`
	Sequence      int             `gorm:"column:sequence"`
	Depth         int             `gorm:"column:depth"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
}

func (eventModel) TableName() string {
	return "psf_distribution_events"
}

func eventModelFromEntity(event entities.DistributionEvent) eventModel {
	return eventModel{
		EventID:       event.EventID,
		PaymentID:     event.PaymentID,
		BeneficiaryID: event.BeneficiaryID,
		Kind:          string(event.Kind),
		Amount:        event.Amount,
		Sequence:      event.Sequence,
		Depth:         event.Depth,
		CreatedAt:     event.CreatedAt.UTC(),
	}
}

func (m eventModel) toEntity() entities.DistributionEvent {
	return entities.DistributionEvent{
		EventID:       m.EventID,
		PaymentID:     m.PaymentID,
		BeneficiaryID: m.BeneficiaryID,
		Kind:          entities.ShareKind(m.Kind),
		Amount:        m.Amount,
		Sequence:      m.Sequence,
		Depth:         m.Depth,
		CreatedAt:     m.CreatedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "psf_distribution_outbox"
}

func (m outboxModel) toPort() ports.OutboxMessage {
	return ports.OutboxMessage{
		OutboxID:     m.OutboxID,
		EventType:    m.EventType,
		PartitionKey: m.PartitionKey,
		Payload:      append([]byte(nil), m.Payload...),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "psf_distribution_event_dedup"
}

func buildCreditedEnvelope(event ports.CreditedEvent) (ports.EventEnvelope, error) {
	data, err := json.Marshal(map[string]any{
		"payment_id":     event.PaymentID,
		"beneficiary_id": event.BeneficiaryID,
		"share_kind":     string(event.Kind),
		"amount":         event.Amount.String(),
	})
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          event.EventID,
		EventType:        "fund.credited",
		OccurredAt:       event.OccurredAt.UTC(),
		SourceService:    "psf-distribution-engine",
		TraceID:          event.EventID,
		SchemaVersion:    1,
		PartitionKeyPath: "beneficiary_id",
		PartitionKey:     event.BeneficiaryID,
		Data:             data,
	}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
