package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細
// 商品名と単価は注文時点のスナップショット。
type OrderLineItem struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID     string          `gorm:"type:uuid;not null;index" json:"order_id"`
	LineNo      int             `gorm:"not null" json:"line_no"`
	ProductID   string          `gorm:"type:uuid;not null" json:"product_id"`
	ProductName string          `gorm:"type:varchar(255);not null" json:"product_name"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price_at_purchase;type:numeric(10,2);not null" json:"unit_price_at_purchase"`
	Subtotal    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
}
