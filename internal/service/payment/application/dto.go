// internal/service/payment/application/dto.go
package application

import "github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/domain"

// NotificationRequest 是入站通知的应用层 DTO，字段名与网关的回调载荷一致。
type NotificationRequest struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status,omitempty"`
	TransactionID     string `json:"transaction_id,omitempty"`
	StatusCode        string `json:"status_code,omitempty"`
	GrossAmount       string `json:"gross_amount,omitempty"`
	SignatureKey      string `json:"signature_key,omitempty"`
}

// ToNotification 从应用层 DTO 转换为领域对象。
func (r *NotificationRequest) ToNotification() *domain.Notification {
	return &domain.Notification{
		OrderID:           r.OrderID,
		TransactionStatus: r.TransactionStatus,
		FraudStatus:       r.FraudStatus,
		TransactionID:     r.TransactionID,
		StatusCode:        r.StatusCode,
		GrossAmount:       r.GrossAmount,
		SignatureKey:      r.SignatureKey,
	}
}

// ReconcileResponse 是一次对账的输出数据。
type ReconcileResponse struct {
	OrderID string        `json:"order_id"`
	Status  domain.Status `json:"status"`
	// Applied 表示本次通知是否真正推进了订单状态；
	// 重复投递和未决通知都会得到 false，但同样以成功应答。
	Applied bool   `json:"applied"`
	Message string `json:"message"`
}
