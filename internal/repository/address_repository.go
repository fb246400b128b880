package repository

import (
	"context"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/domain/model"
)

// 住所(Address)を保存・取得する窓口
type AddressRepository interface {
	Create(ctx context.Context, address model.Address) (model.Address, error)

	//ユーザーが持つ住所一覧を返す（新しい順）
	ListByUserID(ctx context.Context, userID string) ([]model.Address, error)

	//住所IDから住所を1件取得
	FindByID(ctx context.Context, addressID string) (model.Address, error)

	//住所の更新。
	Update(ctx context.Context, address model.Address) error

	//住所の削除。
	Delete(ctx context.Context, addressID string) error

	//一番新しく登録された住所。なければ ErrNotFound
	LatestByUserID(ctx context.Context, userID string) (model.Address, error)
}
