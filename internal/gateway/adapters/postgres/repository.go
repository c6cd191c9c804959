package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nodegate/internal/gateway/domain/entities"
)

// Repository persists node events and their outbox rows in Postgres. The
// event row and the outbox row are written in one transaction, so an event
// is either fully recorded or not recorded at all.
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

// AppendEvent records an engine event and queues it for publication. The
// sequence number is the idempotency key: replaying an already recorded
// sequence number is a no-op, which makes redelivery from the engine's
// event stream safe.
func (r *Repository) AppendEvent(ctx context.Context, event entities.NodeEvent, payload []byte) error {
	eventID := uuid.NewString()
	createdAt := time.Unix(event.ObservedAtUnix, 0).UTC()
	if event.ObservedAtUnix == 0 {
		createdAt = time.Now().UTC()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		eventRow := nodeEventModel{
			SequenceNumber: event.SequenceNumber,
			EventType:      string(event.Type),
			PaymentID:      event.PaymentID,
			PaymentHash:    event.PaymentHash,
			AmountMsat:     event.AmountMsat,
			UserChannelID:  event.UserChannelID,
			CounterpartyID: event.CounterpartyID,
			FeeEarnedMsat:  event.FeeEarnedMsat,
			Reason:         event.Reason,
			ObservedAt:     createdAt,
		}
		createResult := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sequence_number"}},
			DoNothing: true,
		}).Create(&eventRow)
		if createResult.Error != nil {
			if isUniqueViolation(createResult.Error) {
				return nil
			}
			return createResult.Error
		}
		if createResult.RowsAffected == 0 {
			return nil
		}

		outboxRow := outboxModel{
			EventID:        eventID,
			SequenceNumber: event.SequenceNumber,
			EventType:      string(event.Type),
			Payload:        append([]byte(nil), payload...),
			Status:         string(entities.OutboxStatusPending),
			CreatedAt:      createdAt,
		}
		return tx.Create(&outboxRow).Error
	})
}

func (r *Repository) ListPending(ctx context.Context, limit int) ([]entities.OutboxEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(entities.OutboxStatusPending)).
		Order("sequence_number ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.OutboxEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) MarkAttempt(ctx context.Context, eventID string) error {
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("event_id = ? AND status = ?", eventID, string(entities.OutboxStatusPending)).
		Update("attempt_count", gorm.Expr("attempt_count + 1")).
		Error
}

func (r *Repository) MarkDelivered(ctx context.Context, eventID string, deliveredAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("event_id = ? AND status = ?", eventID, string(entities.OutboxStatusPending)).
		Updates(map[string]any{
			"status":        string(entities.OutboxStatusDelivered),
			"delivered_at":  deliveredAt.UTC(),
			"attempt_count": gorm.Expr("attempt_count + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		r.logger.WarnContext(ctx, "outbox entry already delivered or missing",
			slog.String("event", "outbox_mark_delivered_noop"),
			slog.String("event_id", eventID),
		)
	}
	return nil
}

type nodeEventModel struct {
	SequenceNumber int64     `gorm:"column:sequence_number;primaryKey"`
	EventType      string    `gorm:"column:event_type"`
	PaymentID      string    `gorm:"column:payment_id"`
	PaymentHash    string    `gorm:"column:payment_hash"`
	AmountMsat     *uint64   `gorm:"column:amount_msat"`
	UserChannelID  string    `gorm:"column:user_channel_id"`
	CounterpartyID string    `gorm:"column:counterparty_id"`
	FeeEarnedMsat  *uint64   `gorm:"column:fee_earned_msat"`
	Reason         string    `gorm:"column:reason"`
	ObservedAt     time.Time `gorm:"column:observed_at"`
}

func (nodeEventModel) TableName() string {
	return "node_events"
}

type outboxModel struct {
	EventID        string     `gorm:"column:event_id;primaryKey"`
	SequenceNumber int64      `gorm:"column:sequence_number"`
	EventType      string     `gorm:"column:event_type"`
	Payload        []byte     `gorm:"column:payload"`
	Status         string     `gorm:"column:status"`
	AttemptCount   int        `gorm:"column:attempt_count"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	DeliveredAt    *time.Time `gorm:"column:delivered_at"`
}

func (outboxModel) TableName() string {
	return "node_event_outbox"
}

func (m outboxModel) toEntity() entities.OutboxEntry {
	entry := entities.OutboxEntry{
		EventID:        m.EventID,
		SequenceNumber: m.SequenceNumber,
		EventType:      entities.NodeEventType(m.EventType),
		Payload:        append([]byte(nil), m.Payload...),
		Status:         entities.OutboxStatus(m.Status),
		AttemptCount:   m.AttemptCount,
		CreatedAtUnix:  m.CreatedAt.UTC().Unix(),
	}
	if m.DeliveredAt != nil {
		deliveredAt := m.DeliveredAt.UTC()
		entry.DeliveredAt = &deliveredAt
	}
	return entry
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
