// internal/service/payment/domain/mapper.go
package domain

// 支付网关上报的 transaction_status 词汇表。
const (
	TxStatusCapture    = "capture"
	TxStatusSettlement = "settlement"
	TxStatusCancel     = "cancel"
	TxStatusExpire     = "expire"
	TxStatusDeny       = "deny"
)

// 网关欺诈检查的结论。
const (
	FraudAccept    = "accept"
	FraudChallenge = "challenge"
)

// MapGatewayStatus 把网关上报的 (transaction_status, fraud_status) 翻译为规范状态。
// 这是一个全函数：任何输入都有定义。未识别的状态一律落到 pending ——
// 宁可不做决定，也绝不让一条畸形或未来新增的网关状态把订单错误地推进到终态。
func MapGatewayStatus(transactionStatus, fraudStatus string) Status {
	switch transactionStatus {
	case TxStatusCapture:
		if fraudStatus == FraudAccept {
			return StatusPaid
		}
		// 欺诈检查未通过或未给出结论（如 challenge），保持未决
		return StatusPending
	case TxStatusSettlement:
		return StatusPaid
	case TxStatusCancel, TxStatusExpire:
		return StatusCancelled
	case TxStatusDeny:
		return StatusFailed
	default:
		return StatusPending
	}
}
