package mysql

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"Backstage_Jobs/internal/model"
)

type OutboxRepository struct {
	DB *gorm.DB
}

// insertOutbox must be called with the transaction that performs the change being described.
func insertOutbox(tx *gorm.DB, event string, aggregateID uint64, recipient string, fields map[string]any) error {
	body := map[string]any{
		"event_time": time.Now().UTC().Format(time.RFC3339Nano),
		"event_type": event,
	}
	for k, v := range fields {
		body[k] = v
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	ob := &model.EventOutbox{
		EventID:     uuid.NewString(),
		EventType:   event,
		AggregateID: aggregateID,
		Recipient:   recipient,
		Payload:     string(payload),
		Status:      model.OutboxPending,
	}
	return tx.Create(ob).Error
}

// ListDeliverable returns pending rows and failed rows still under maxRetry, oldest first.
func (r *OutboxRepository) ListDeliverable(ctx context.Context, batchSize, maxRetry int) ([]model.EventOutbox, error) {
	var list []model.EventOutbox
	if err := r.DB.WithContext(ctx).
		Where("status = ? OR (status = ? AND retry < ?)", model.OutboxPending, model.OutboxFailed, maxRetry).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.EventOutbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxFailed, "retry": gorm.Expr("retry + 1")}).Error
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.EventOutbox{}).Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}
