// internal/service/payment/domain/order.go
package domain

import "time"

// Order 是支付对账子系统的聚合根。
// 订单由结账流程创建（初始状态 pending），此后只被对账引擎修改，永远不会被删除。
type Order struct {
	ID                   string // 商户订单号，网关以此引用订单
	OwnerID              string // 下单账号，用于定位购物车等副作用
	Status               Status
	GatewayTransactionID string // 最近一次网关交易号，首次通知前为空
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ApplyTransition 在内存中尝试将订单推进到终态 next。
// 返回 true 表示状态真的发生了变化；对已终结订单或非法目标状态返回 false。
// 注意：这只是领域规则的内存表达，对并发通知起仲裁作用的是存储层的条件更新。
func (o *Order) ApplyTransition(next Status, gatewayTxID string) bool {
	if !CanTransition(o.Status, next) {
		return false
	}
	o.Status = next
	if gatewayTxID != "" {
		o.GatewayTransactionID = gatewayTxID
	}
	o.UpdatedAt = time.Now()
	return true
}
