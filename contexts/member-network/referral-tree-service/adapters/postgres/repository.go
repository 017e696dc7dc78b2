package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"sacco/contexts/member-network/referral-tree-service/domain/entities"
	domainerrors "sacco/contexts/member-network/referral-tree-service/domain/errors"
	"sacco/contexts/member-network/referral-tree-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"

	slotConstraint   = "referral_tree_nodes_unique_slot"
	memberConstraint = "referral_tree_nodes_pkey"
	rootConstraint   = "referral_tree_nodes_unique_root"
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

func (r *Repository) GetNode(ctx context.Context, memberID string) (entities.Node, error) {
	var row nodeModel
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Node{}, domainerrors.ErrNodeNotFound
		}
		return entities.Node{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetRoot(ctx context.Context) (entities.Node, error) {
	var row nodeModel
	err := r.db.WithContext(ctx).
		Where("parent_id IS NULL").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Node{}, domainerrors.ErrRootMissing
		}
		return entities.Node{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListChildren(ctx context.Context, memberID string) ([]entities.Node, error) {
	var rows []nodeModel
	if err := r.db.WithContext(ctx).
		Where("parent_id = ?", memberID).
		Order("position ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Node, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// CreateNode writes the node and its outbox row in one transaction. The
// unique index over (parent_id, position) is the slot-claim guard: the loser
// of a concurrent claim gets ErrSlotConflict and the engine retries from a
// fresh read.
func (r *Repository) CreateNode(ctx context.Context, node entities.Node, event ports.PlacedEvent) error {
	envelope, err := buildPlacedEnvelope(event)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := nodeModelFromEntity(node)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				switch constraintName(err) {
				case memberConstraint, rootConstraint:
					return domainerrors.ErrDuplicateNode
				case slotConstraint:
					return domainerrors.ErrSlotConflict
				}
				return domainerrors.ErrSlotConflict
			}
			return err
		}

		outboxRow := outboxModel{
			OutboxID:     event.EventID,
			EventType:    event.EventType,
			PartitionKey: event.MemberID,
			Payload:      payload,
			Status:       outboxStatusPending,
			CreatedAt:    event.OccurredAt.UTC(),
		}
		return tx.Create(&outboxRow).Error
	})
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
		return domainerrors.ErrNodeNotFound
	}
	return nil
}

// CountNodesByLevel summarizes tree fanout for operational inspection.
func (r *Repository) CountNodesByLevel(ctx context.Context) (map[int]int, error) {
	type levelRow struct {
		Level int
		Count int
	}
	var rows []levelRow
	if err := r.db.WithContext(ctx).
		Model(&nodeModel{}).
		Select("level, COUNT(*) AS count").
		Group("level").
		Order("level ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	counts := make(map[int]int, len(rows))
	for _, row := range rows {
		counts[row.Level] = row.Count
	}
	return counts, nil
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

type nodeModel struct {
	MemberID  string    `gorm:"column:member_id;primaryKey"`
	ParentID  *string   `gorm:"column:parent_id"`
	Level     int       `gorm:"column:level"`
	Position  int       `gorm:"column:position"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (nodeModel) TableName() string {
	return "referral_tree_nodes"
}

func nodeModelFromEntity(node entities.Node) nodeModel {
	row := nodeModel{
		MemberID:  node.MemberID,
		Level:     node.Level,
		Position:  node.Position,
		CreatedAt: node.CreatedAt.UTC(),
	}
	if !node.IsRoot() {
		parentID := node.ParentID
		row.ParentID = &parentID
	}
	return row
}

func (m nodeModel) toEntity() entities.Node {
	parentID := ""
	if m.ParentID != nil {
		parentID = *m.ParentID
	}
	return entities.Node{
		MemberID:  m.MemberID,
		ParentID:  parentID,
		Level:     m.Level,
		Position:  m.Position,
		CreatedAt: m.CreatedAt.UTC(),
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
	return "referral_tree_outbox"
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

func buildPlacedEnvelope(event ports.PlacedEvent) (ports.EventEnvelope, error) {
	data, err := json.Marshal(map[string]any{
		"member_id":   event.MemberID,
		"referrer_id": event.ReferrerID,
		"parent_id":   event.ParentID,
		"level":       event.Level,
		"position":    event.Position,
		"overflow":    event.Overflow,
	})
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          event.EventID,
		EventType:        event.EventType,
		OccurredAt:       event.OccurredAt.UTC(),
		SourceService:    "referral-tree-service",
		TraceID:          event.EventID,
		SchemaVersion:    1,
		PartitionKeyPath: "member_id",
		PartitionKey:     event.MemberID,
		Data:             data,
	}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
