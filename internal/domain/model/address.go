package model

import (
	"time"

	"gorm.io/gorm"
)

// 配送先住所
// 注文時はユーザーの最新の住所が使われる。
// 注文から参照されるので削除は論理削除。
type Address struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`

	Street string `gorm:"type:varchar(255);not null" json:"street"`
	City   string `gorm:"type:varchar(255);not null" json:"city"`
	//郵便番号
	PostalCode string `gorm:"type:varchar(20);not null" json:"postal_code"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
