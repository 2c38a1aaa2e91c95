// internal/service/payment/infrastructure/gorm_model.go
package infrastructure

import (
	"database/sql"
	"time"
)

// OrderModel 对应数据库中的 orders 表
type OrderModel struct {
	ID                   string `gorm:"primaryKey;size:64"`
	OwnerID              string `gorm:"size:64;index"`
	Status               string `gorm:"size:16;index"`
	GatewayTransactionID sql.NullString `gorm:"size:64"`
	CreatedAt            time.Time
	UpdatedAt            time.Time `gorm:"index"`
}

// TableName 指定 GORM 应该使用的表名
func (OrderModel) TableName() string {
	return "orders"
}
