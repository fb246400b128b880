package repository

import (
	"context"
	"errors"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 一意制約違反
var ErrDuplicate = errors.New("duplicate")

// 一覧検索
type ProductListQuery struct {
	Limit  int
	Offset int
	// 名前の部分一致 or タグの完全一致
	Term     string
	Category string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, error)
	FindByID(ctx context.Context, id string) (model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id string) error
}
