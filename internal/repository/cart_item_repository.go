package repository

import (
	"context"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/domain/model"
)

type CartItemRepository interface {
	// 同じユーザーのカート操作を直列化する（Tx内でのみ有効）
	LockUser(ctx context.Context, userID string) error

	ListByUserID(ctx context.Context, userID string) ([]model.CartItem, error)
	FindByUserAndProduct(ctx context.Context, userID, productID string) (model.CartItem, error)
	// 同一商品は数量をプラス
	Merge(ctx context.Context, item model.CartItem) (model.CartItem, error)
	UpdateQuantity(ctx context.Context, userID, productID string, qty int64) error
	Delete(ctx context.Context, userID, productID string) error
	// 消した件数を返す
	ClearByUserID(ctx context.Context, userID string) (int64, error)
}
