// internal/service/payment/domain/notification.go
package domain

import "github.com/pkg/errors"

// Notification 是网关异步回调的一次性载荷。它不作为实体持久化：
// 网关会对非 2xx 应答重试，幂等的条件更新让重复投递天然安全。
type Notification struct {
	OrderID           string
	TransactionStatus string
	FraudStatus       string // 可选，仅 capture 类通知携带
	TransactionID     string

	// 网关摘要字段，验签时使用
	StatusCode   string
	GrossAmount  string
	SignatureKey string
}

// Validate 校验通知的必填字段。
// 只有 order_id 缺失会被直接拒绝；未识别的状态值交由 MapGatewayStatus 失败安全处理。
func (n *Notification) Validate() error {
	if n.OrderID == "" {
		return errors.Wrap(ErrMalformedNotification, "order_id is required")
	}
	return nil
}
