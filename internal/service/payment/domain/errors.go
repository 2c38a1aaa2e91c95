// internal/service/payment/domain/errors.go
package domain

import "github.com/pkg/errors"

// 对账引擎的错误分类。接口层据此决定 HTTP 状态码，
// 调用方（网关的重试机制）据此决定是否重投通知。
var (
	// ErrUnauthenticated 通知未通过签名/来源校验，属于永久失败，不会触达存储层。
	ErrUnauthenticated = errors.New("notification failed authenticity verification")

	// ErrOrderNotFound 通知引用的订单不存在，可能意味着结账与网关之间的订单号错位。
	ErrOrderNotFound = errors.New("order not found")

	// ErrMalformedNotification 载荷缺少必填字段，属于永久失败。
	ErrMalformedNotification = errors.New("malformed notification payload")

	// ErrStorageUnavailable 存储层瞬时故障（超时、连接中断）。
	// 这是唯一可重试的类别：条件更新是幂等的，重投整条通知是安全的。
	ErrStorageUnavailable = errors.New("order storage temporarily unavailable")
)
