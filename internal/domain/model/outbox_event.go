package model

import "time"

const (
	EventOrderCreated   = "order.created"
	EventOrderCancelled = "order.cancelled"
)

// OutboxEvent はトランザクション内で書かれ、コミット後にポーラーが送る。
type OutboxEvent struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"`
	EventID     string     `gorm:"type:uuid;not null;uniqueIndex"`
	EventType   string     `gorm:"type:varchar(100);not null"`
	AggregateID string     `gorm:"type:uuid;not null"`
	Payload     []byte     `gorm:"type:jsonb;not null"`
	CreatedAt   time.Time  `gorm:"not null"`
	SentAt      *time.Time `gorm:"index"`
}
