package repository

import (
	"context"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/domain/model"
)

// 価格と在庫の読み取り窓口。在庫は減らさない。
type InventoryOracle interface {
	// 商品がなければ ErrNotFound
	PriceAndStock(ctx context.Context, productID string) (model.StockQuote, error)
}

type InventoryAdjustmentRepository interface {
	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
