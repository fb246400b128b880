package model

import "time"

//在庫調整の履歴
//管理者が在庫数を変えたときに差分を残す。

type InventoryAdjustment struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   string    `gorm:"type:uuid;not null;index" json:"product_id"`
	AdminUserID string    `gorm:"type:uuid;not null;index" json:"admin_user_id"`
	Delta       int64     `gorm:"not null" json:"delta"`
	Reason      string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}
