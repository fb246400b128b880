package model

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID                string          `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string          `gorm:"type:varchar(255);not null" json:"name"`
	Description       string          `gorm:"type:text;not null;default:''" json:"description"`
	Picture           string          `gorm:"type:text;not null;default:''" json:"picture"`
	Price             decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	AvailableQuantity int64           `gorm:"not null;default:0" json:"available_quantity"`
	Category          string          `gorm:"type:varchar(100);not null;default:'';index" json:"category"`
	Tags              pq.StringArray  `gorm:"type:text[];not null;default:'{}'" json:"tags"`
	CreatedAt         time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"not null" json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`
}

// StockQuote は在庫照会の結果。
// 読み取った時点の価格と在庫数。
type StockQuote struct {
	ProductID         string
	Name              string
	UnitPrice         decimal.Decimal
	AvailableQuantity int64
}
