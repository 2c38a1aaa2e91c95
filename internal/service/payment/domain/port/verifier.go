package port

import (
	"context"

	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/domain"
)

// VerifiedStatus 是验签通过后可以信任的网关状态。
type VerifiedStatus struct {
	TransactionStatus string
	FraudStatus       string
	TransactionID     string
}

// GatewayVerifier 是支付网关验真服务的出站端口。
// 实现负责确认一条通知确实来自网关（签名摘要校验，必要时回查网关状态接口），
// 并返回可信的状态字段。校验失败必须返回 domain.ErrUnauthenticated，
// 引擎绝不会用一条未经验证的通知去推进订单状态。
type GatewayVerifier interface {
	Verify(ctx context.Context, n *domain.Notification) (*VerifiedStatus, error)
}
