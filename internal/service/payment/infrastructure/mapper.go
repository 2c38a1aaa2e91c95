// internal/service/payment/infrastructure/mapper.go
package infrastructure

import (
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/domain"
)

// ToDomainOrder 将数据库模型转换为领域模型。
func ToDomainOrder(m *OrderModel) *domain.Order {
	order := &domain.Order{
		ID:        m.ID,
		OwnerID:   m.OwnerID,
		Status:    domain.Status(m.Status),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.GatewayTransactionID.Valid {
		order.GatewayTransactionID = m.GatewayTransactionID.String
	}
	return order
}
