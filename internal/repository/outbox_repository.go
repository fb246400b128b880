package repository

import (
	"context"
	"time"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/domain/model"
)

type OutboxRepository interface {
	Enqueue(ctx context.Context, event model.OutboxEvent) error
	// 未送信を古い順に
	FetchPending(ctx context.Context, limit int) ([]model.OutboxEvent, error)
	MarkSent(ctx context.Context, id int64, sentAt time.Time) error
}
