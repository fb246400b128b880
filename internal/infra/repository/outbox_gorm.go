package repository

import (
	"context"
	"time"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/domain/model"
	repo "github.com/JoGabriel-Carvalho/santuario-geek-server/internal/repository"

	"gorm.io/gorm"
)

type outboxGormRepository struct {
	db *gorm.DB
}

func NewOutboxGormRepository(db *gorm.DB) repo.OutboxRepository {
	return &outboxGormRepository{db: db}
}

func (r *outboxGormRepository) Enqueue(ctx context.Context, event model.OutboxEvent) error {
	return r.db.WithContext(ctx).Create(&event).Error
}

func (r *outboxGormRepository) FetchPending(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	var events []model.OutboxEvent
	if err := r.db.WithContext(ctx).
		Where("sent_at IS NULL").
		Order("id asc").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *outboxGormRepository) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.OutboxEvent{}).
		Where("id = ? AND sent_at IS NULL", id).
		Update("sent_at", sentAt).Error
}
