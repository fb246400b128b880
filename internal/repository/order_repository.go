package repository

import (
	"context"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/domain/model"
)

type OrderRepository interface {
	// 注文と明細をまとめて保存する。どちらかだけが残ることはない。
	Insert(ctx context.Context, order model.Order, items []model.OrderLineItem) (string, error)
	// 更新件数を返す
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) (int64, error)
	FindByID(ctx context.Context, orderID string) (model.Order, error)
	FindByIDForUpdate(ctx context.Context, orderID string) (model.Order, error)
	ListLineItems(ctx context.Context, orderID string) ([]model.OrderLineItem, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]model.Order, error)
}
