package port

import (
	"context"

	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/domain"
)

// EventPublisher 是审计/可观测性事件流的出站端口。
// 发布是尽力而为的：事件发不出去不影响支付结果的确认，但必须留下日志。
type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, event *domain.OrderStatusChanged) error
	PublishCartClearFailed(ctx context.Context, event *domain.CartClearFailed) error
	PublishAlert(ctx context.Context, event *domain.NotificationAlert) error
}
