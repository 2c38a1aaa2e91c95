// internal/service/payment/infrastructure/mysql.go
package infrastructure

import (
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NewOrderDB 打开 MySQL 连接并迁移订单表结构。
// SkipDefaultTransaction：仓储的写操作都是单条语句，不需要 GORM 的隐式事务。
func NewOrderDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to mysql")
	}
	if err := db.AutoMigrate(&OrderModel{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate orders table")
	}
	return db, nil
}
