package interfaces

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"github.com/IRedDragonICY/progress-jogja-sub001/internal/pkg/logger"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/application"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/domain"
)

const serviceName = "payment-service"

// Reconciler 是 HTTP 层对应用服务的依赖面。
type Reconciler interface {
	Reconcile(ctx context.Context, req *application.NotificationRequest) (*application.ReconcileResponse, error)
}

// PaymentHandler 封装了 payment 服务的 HTTP 处理器
type PaymentHandler struct {
	service Reconciler
}

// NewPaymentHandler 创建一个新的 HTTP 处理器实例
func NewPaymentHandler(service Reconciler) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *PaymentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/payment/notification", h.handleNotification)
}

// handleNotification 处理网关的异步支付回调。
// 应答约定：2xx 表示通知已被消化（包括重复投递），网关不再重试；
// 4xx 表示通知本身不可接受；503 表示暂时失败，请求网关稍后重投。
func (h *PaymentHandler) handleNotification(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "payment.NotificationHandler")
	defer span.End()

	var req application.NotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	span.SetAttributes(
		attribute.String("order.id", req.OrderID),
		attribute.String("payment.transaction_status", req.TransactionStatus),
	)

	resp, err := h.service.Reconcile(ctx, &req)
	if err != nil {
		var statusCode int
		switch {
		case errors.Is(err, domain.ErrMalformedNotification):
			statusCode = http.StatusBadRequest
		case errors.Is(err, domain.ErrUnauthenticated):
			statusCode = http.StatusUnauthorized
		case errors.Is(err, domain.ErrOrderNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(err, domain.ErrStorageUnavailable):
			// 让网关按自己的退避策略重投
			statusCode = http.StatusServiceUnavailable
		default:
			statusCode = http.StatusInternalServerError
		}
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", req.OrderID).
			Int("status_code", statusCode).Msg("notification rejected")
		http.Error(w, err.Error(), statusCode)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
