// internal/service/payment/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"database/sql/driver"
	"net"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/domain"
)

// GormOrderRepository 是 domain.OrderRepository 的 GORM 实现。
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository 创建一个新的 GORM 仓储实例。
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID 按商户订单号查找订单。
func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, classifyStorageErr(err)
	}
	return ToDomainOrder(&model), nil
}

// FinalizeStatus 把 "读-判-写" 压缩成单条带前置条件的 UPDATE。
// WHERE status = 'pending' 与赋值在同一条语句里原子生效：
// 并发竞争同一订单的通知中恰好只有一个赢家，输家拿到 RowsAffected == 0。
func (r *GormOrderRepository) FinalizeStatus(ctx context.Context, id string, next domain.Status, gatewayTxID string) (bool, error) {
	updates := map[string]interface{}{
		"status":     string(next),
		"updated_at": time.Now(),
	}
	if gatewayTxID != "" {
		updates["gateway_transaction_id"] = gatewayTxID
	}

	result := r.db.WithContext(ctx).Model(&OrderModel{}).
		Where("id = ? AND status = ?", id, string(domain.StatusPending)).
		Updates(updates)
	if result.Error != nil {
		return false, classifyStorageErr(result.Error)
	}
	return result.RowsAffected == 1, nil
}

// RecordGatewayTransaction 在订单仍为 pending 时记录最近一次网关交易号。
// 同样带前置条件：不会动已终结订单的任何字段。
func (r *GormOrderRepository) RecordGatewayTransaction(ctx context.Context, id, gatewayTxID string) error {
	result := r.db.WithContext(ctx).Model(&OrderModel{}).
		Where("id = ? AND status = ?", id, string(domain.StatusPending)).
		Updates(map[string]interface{}{
			"gateway_transaction_id": gatewayTxID,
			"updated_at":             time.Now(),
		})
	if result.Error != nil {
		return classifyStorageErr(result.Error)
	}
	return nil
}

// FindPaidSince 返回自 since 以来完成支付的订单。
func (r *GormOrderRepository) FindPaidSince(ctx context.Context, since time.Time, limit int) ([]*domain.Order, error) {
	var models []OrderModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at >= ?", string(domain.StatusPaid), since).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, classifyStorageErr(err)
	}

	orders := make([]*domain.Order, 0, len(models))
	for i := range models {
		orders = append(orders, ToDomainOrder(&models[i]))
	}
	return orders, nil
}

// classifyStorageErr 区分瞬时故障与其它存储错误。
// 瞬时故障（超时、连接中断、锁等待/死锁）包装为 domain.ErrStorageUnavailable，
// 向网关表达 "请重试整条通知"；其余错误原样上抛。
func classifyStorageErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, gomysql.ErrInvalidConn) {
		return errors.Wrap(domain.ErrStorageUnavailable, err.Error())
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Wrap(domain.ErrStorageUnavailable, err.Error())
	}

	var myErr *gomysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1040, // too many connections
			1205, // lock wait timeout
			1213: // deadlock, MySQL 已回滚该语句
			return errors.Wrap(domain.ErrStorageUnavailable, myErr.Message)
		}
	}
	return err
}
