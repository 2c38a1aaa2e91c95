// internal/service/payment/domain/event.go
package domain

import "time"

// OrderStatusChanged 在条件更新真正赢得一次状态流转后发布。
// 推送网关消费它，把支付结果实时推给买家。
type OrderStatusChanged struct {
	EventID       string `json:"eventId"`
	OrderID       string `json:"orderId"`
	OwnerID       string `json:"ownerId"`
	From          Status `json:"from"`
	To            Status `json:"to"`
	TransactionID string `json:"transactionId,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// CartClearFailed 表示支付已落账但购物车清理失败。
// 支付结果不受影响，事件进入审计流，由后台清扫补偿。
type CartClearFailed struct {
	EventID    string    `json:"eventId"`
	OrderID    string    `json:"orderId"`
	OwnerID    string    `json:"ownerId"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NotificationAlert 是告警策略命中的可疑通知记录。
type NotificationAlert struct {
	EventID           string    `json:"eventId"`
	OrderID           string    `json:"orderId"`
	TransactionStatus string    `json:"transactionStatus"`
	FraudStatus       string    `json:"fraudStatus,omitempty"`
	Rule              string    `json:"rule"`
	OccurredAt        time.Time `json:"occurredAt"`
}
