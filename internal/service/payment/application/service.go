// internal/service/payment/application/service.go
package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/IRedDragonICY/progress-jogja-sub001/internal/pkg/logger"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/domain"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/domain/port"
)

// ReconcileService 是支付通知对账的业务编排入口。
// 它被并发调用，每条入站通知一次；同一订单的并发通知由存储层的
// 条件更新仲裁，这里不持有任何进程内锁。
type ReconcileService struct {
	orderRepo domain.OrderRepository
	verifier  port.GatewayVerifier
	cart      port.CartService
	publisher port.EventPublisher
	alert     port.AlertPolicy // 可为 nil，表示未启用告警策略
	tracer    trace.Tracer

	// 单次下游调用（验签、存储读写、副作用）的超时预算，
	// 防止慢依赖把处理槽位占死
	opTimeout time.Duration
}

// NewReconcileService 创建对账服务实例。
func NewReconcileService(
	orderRepo domain.OrderRepository,
	verifier port.GatewayVerifier,
	cart port.CartService,
	publisher port.EventPublisher,
	alert port.AlertPolicy,
	tracer trace.Tracer,
	opTimeout time.Duration,
) *ReconcileService {
	if opTimeout <= 0 {
		opTimeout = 3 * time.Second
	}
	return &ReconcileService{
		orderRepo: orderRepo,
		verifier:  verifier,
		cart:      cart,
		publisher: publisher,
		alert:     alert,
		tracer:    tracer,
		opTimeout: opTimeout,
	}
}

// Reconcile 处理一条网关通知：验真 -> 定位订单 -> 状态映射 ->
// 条件流转 -> （仅当本次流转把订单推进到 paid 时）清空购物车。
// 重复投递与乱序投递都被条件更新吸收为 no-op。
func (s *ReconcileService) Reconcile(ctx context.Context, req *NotificationRequest) (*ReconcileResponse, error) {
	ctx, span := s.tracer.Start(ctx, "payment.Reconcile")
	defer span.End()

	n := req.ToNotification()
	if err := n.Validate(); err != nil {
		notificationsTotal.WithLabelValues("malformed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed notification")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("order.id", n.OrderID),
		attribute.String("gateway.transaction_status", n.TransactionStatus),
		attribute.String("gateway.fraud_status", n.FraudStatus),
	)

	// 1. 验真。失败即短路，未经验证的通知绝不触达存储层。
	verifyCtx, cancelVerify := context.WithTimeout(ctx, s.opTimeout)
	defer cancelVerify()
	verified, err := s.verifier.Verify(verifyCtx, n)
	if err != nil {
		notificationsTotal.WithLabelValues("unauthenticated").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "notification verification failed")
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", n.OrderID).Msg("Rejected unverified notification")
		return nil, err
	}

	// 2. 告警策略只观察，不改变处理结果。
	s.evaluateAlert(ctx, n)

	// 3. 定位订单。缺失直接上报，由网关的重试机制决定下一步。
	storageCtx, cancelStorage := context.WithTimeout(ctx, s.opTimeout)
	defer cancelStorage()
	order, err := s.orderRepo.FindByID(storageCtx, n.OrderID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrOrderNotFound) {
			notificationsTotal.WithLabelValues("not_found").Inc()
			logger.Ctx(ctx).Error().Str("order_id", n.OrderID).
				Msg("Notification references unknown order; possible reference mismatch with checkout")
		} else {
			notificationsTotal.WithLabelValues("storage_error").Inc()
		}
		return nil, err
	}

	// 4. 状态映射基于验真后的可信字段，而不是通知原文。
	candidate := domain.MapGatewayStatus(verified.TransactionStatus, verified.FraudStatus)
	span.SetAttributes(attribute.String("order.candidate_status", string(candidate)))

	if candidate == domain.StatusPending {
		// 未决：不推进状态，只记录最近一次网关交易号。
		if verified.TransactionID != "" && order.Status == domain.StatusPending {
			if err := s.orderRepo.RecordGatewayTransaction(storageCtx, order.ID, verified.TransactionID); err != nil {
				// 交易号留痕是 advisory 的，失败不影响应答
				logger.Ctx(ctx).Warn().Err(err).Str("order_id", order.ID).
					Msg("Failed to record gateway transaction id")
			}
		}
		notificationsTotal.WithLabelValues("accepted_no_action").Inc()
		span.AddEvent("Notification accepted without state change.")
		return &ReconcileResponse{
			OrderID: order.ID,
			Status:  order.Status,
			Applied: false,
			Message: "notification accepted; no state change",
		}, nil
	}

	// 5. 条件流转：前置条件 status = pending 与写入在存储层原子生效。
	changed, err := s.orderRepo.FinalizeStatus(storageCtx, order.ID, candidate, verified.TransactionID)
	if err != nil {
		notificationsTotal.WithLabelValues("storage_error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "conditional status update failed")
		return nil, err
	}

	if !changed {
		// 订单已被并发或更早的通知终结，本次是 no-op。
		notificationsTotal.WithLabelValues("noop").Inc()
		span.AddEvent("Order already finalized; notification treated as no-op.")
		current, findErr := s.orderRepo.FindByID(storageCtx, order.ID)
		status := order.Status
		if findErr == nil {
			status = current.Status
		}
		return &ReconcileResponse{
			OrderID: order.ID,
			Status:  status,
			Applied: false,
			Message: "order already finalized",
		}, nil
	}

	notificationsTotal.WithLabelValues("finalized").Inc()
	span.AddEvent("Order finalized.")
	logger.Ctx(ctx).Info().
		Str("order_id", order.ID).
		Str("status", string(candidate)).
		Str("transaction_id", verified.TransactionID).
		Msg("Order status finalized")

	s.publishStatusChanged(ctx, order, candidate, verified.TransactionID)

	// 6. 副作用：只有赢得 pending -> paid 流转的这一次调用触发清空购物车。
	if candidate == domain.StatusPaid {
		s.clearCart(ctx, order)
	}

	return &ReconcileResponse{
		OrderID: order.ID,
		Status:  candidate,
		Applied: true,
		Message: "order finalized",
	}, nil
}

// evaluateAlert 执行可选的告警策略，命中时把可疑通知发进审计流。
func (s *ReconcileService) evaluateAlert(ctx context.Context, n *domain.Notification) {
	if s.alert == nil {
		return
	}
	matched, rule, err := s.alert.Evaluate(n)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("Alert policy evaluation failed")
		return
	}
	if !matched {
		return
	}
	event := &domain.NotificationAlert{
		EventID:           uuid.New().String(),
		OrderID:           n.OrderID,
		TransactionStatus: n.TransactionStatus,
		FraudStatus:       n.FraudStatus,
		Rule:              rule,
		OccurredAt:        time.Now(),
	}
	if err := s.publisher.PublishAlert(ctx, event); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", n.OrderID).Msg("Failed to publish notification alert")
	}
}

// publishStatusChanged 发布状态变更事件，尽力而为。
func (s *ReconcileService) publishStatusChanged(ctx context.Context, order *domain.Order, to domain.Status, txID string) {
	event := &domain.OrderStatusChanged{
		EventID:       uuid.New().String(),
		OrderID:       order.ID,
		OwnerID:       order.OwnerID,
		From:          domain.StatusPending,
		To:            to,
		TransactionID: txID,
		OccurredAt:    time.Now(),
	}
	if err := s.publisher.PublishStatusChanged(ctx, event); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", order.ID).Msg("Failed to publish status change event")
	}
}

// clearCart 触发购物车清空。失败不回传给网关——钱已经落账，
// 购物车清理是 advisory 的；失败会进指标和审计流，由后台清扫补偿。
func (s *ReconcileService) clearCart(ctx context.Context, order *domain.Order) {
	ctx, span := s.tracer.Start(ctx, "payment.ClearCart")
	defer span.End()
	span.SetAttributes(attribute.String("cart.owner_id", order.OwnerID))

	clearCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	err := s.cart.Clear(clearCtx, order.OwnerID)
	if err == nil {
		span.AddEvent("Cart cleared.")
		return
	}

	cartClearFailuresTotal.Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, "cart clear failed")
	logger.Ctx(ctx).Error().Err(err).
		Str("order_id", order.ID).
		Str("owner_id", order.OwnerID).
		Msg("Cart clear failed after payment finalization")

	event := &domain.CartClearFailed{
		EventID:    uuid.New().String(),
		OrderID:    order.ID,
		OwnerID:    order.OwnerID,
		Reason:     err.Error(),
		OccurredAt: time.Now(),
	}
	if perr := s.publisher.PublishCartClearFailed(ctx, event); perr != nil {
		logger.Ctx(ctx).Error().Err(perr).Str("order_id", order.ID).
			Msg("CRITICAL: cart clear failure could not be published to the audit stream")
	}
}
