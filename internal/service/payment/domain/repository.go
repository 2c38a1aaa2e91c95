// internal/service/payment/domain/repository.go
package domain

import (
	"context"
	"time"
)

// OrderRepository 定义了订单聚合的持久化接口。
// 它位于领域层，但由基础设施层实现。
type OrderRepository interface {
	// FindByID 根据商户订单号查找订单。订单不存在时返回 ErrOrderNotFound。
	FindByID(ctx context.Context, id string) (*Order, error)

	// FinalizeStatus 以 "当前持久化状态仍为 pending" 为前置条件的原子条件更新。
	// 前置条件与写入在存储层的同一条语句中生效：并发竞争同一订单的若干通知中
	// 恰好只有一个赢家。返回 true 表示本次调用赢得了流转；
	// false 表示订单已被别的通知终结，本次是 no-op 而不是错误。
	FinalizeStatus(ctx context.Context, id string, next Status, gatewayTxID string) (bool, error)

	// RecordGatewayTransaction 在订单尚未终结时记下最近一次网关交易号。
	// 用于 capture+challenge 这类未决通知：状态不动，但交易引用要留痕。
	RecordGatewayTransaction(ctx context.Context, id, gatewayTxID string) error

	// FindPaidSince 返回自 since 以来完成支付的订单，供购物车清扫补偿使用。
	FindPaidSince(ctx context.Context, since time.Time, limit int) ([]*Order, error)
}
