package model

import "time"

const (
	EventApplicationCreated       = "application.created"
	EventApplicationStatusChanged = "application.status_changed"
	EventApplicationWithdrawn     = "application.withdrawn"
	EventPostingCancelled         = "posting.cancelled"
)

const (
	OutboxPending int8 = 0
	OutboxSent    int8 = 1
	OutboxFailed  int8 = 2
)

// EventOutbox rows are written in the same transaction as the change they describe.
type EventOutbox struct {
	ID          uint64    `gorm:"primaryKey"`
	EventID     string    `gorm:"size:36;not null;uniqueIndex"`
	EventType   string    `gorm:"size:48;not null"`
	AggregateID uint64    `gorm:"not null"`
	Recipient   string    `gorm:"size:128"`
	Payload     string    `gorm:"type:text;not null"`
	Status      int8      `gorm:"not null;default:0;index:idx_event_outbox_status"`
	Retry       int       `gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (EventOutbox) TableName() string { return "event_outbox" }
