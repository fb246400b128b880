package repository

import (
	"context"
	"errors"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/domain/model"
	repo "github.com/JoGabriel-Carvalho/santuario-geek-server/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 商品テーブルを価格・在庫の読み取り元として使う。
type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 価格と在庫を読む。Tx内なら FOR SHARE で行を押さえる。
func (r *InventoryGormRepository) PriceAndStock(ctx context.Context, productID string) (model.StockQuote, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Select("id", "name", "price", "available_quantity").
		Where("id = ?", productID).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.StockQuote{}, repo.ErrNotFound
	}
	if err != nil {
		return model.StockQuote{}, err
	}

	return model.StockQuote{
		ProductID:         p.ID,
		Name:              p.Name,
		UnitPrice:         p.Price,
		AvailableQuantity: p.AvailableQuantity,
	}, nil
}

// 在庫調整の履歴を保存
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	return r.db.WithContext(ctx).Create(&adjustment).Error
}
