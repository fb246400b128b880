package model

import "time"

// カートの明細
// (user_id, product_id) は一意。価格は持たず、注文時に商品から読む。
type CartItem struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:uq_cart_items_user_product,priority:1" json:"user_id"`
	ProductID string    `gorm:"type:uuid;not null;uniqueIndex:uq_cart_items_user_product,priority:2" json:"product_id"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
