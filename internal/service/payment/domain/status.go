// internal/service/payment/domain/status.go
package domain

// Status 定义了订单支付生命周期的规范状态。
// pending 是唯一的非终态；paid / cancelled / failed 一旦到达便不可再被覆盖。
type Status string

const (
	StatusPending   Status = "pending"   // 等待网关给出结论
	StatusPaid      Status = "paid"      // 支付成功
	StatusCancelled Status = "cancelled" // 已取消（用户主动或网关侧过期）
	StatusFailed    Status = "failed"    // 支付被拒绝
)

// IsTerminal 判断状态是否为终态。
func (s Status) IsTerminal() bool {
	switch s {
	case StatusPaid, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// CanTransition 检查一次状态流转是否合法。
// 合法边只有 pending -> {paid, cancelled, failed}；终态上的重复通知是 no-op 而不是错误。
func CanTransition(from, to Status) bool {
	if from != StatusPending {
		return false
	}
	return to.IsTerminal()
}
