package port

import "github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/domain"

// AlertPolicy 是告警规则引擎的出站端口。
// 策略只做观察：评估一条已通过验签的通知是否可疑（比如欺诈检查被 challenge），
// 命中与否都不改变对账流程本身的处理结果。
type AlertPolicy interface {
	// Evaluate 返回是否命中以及命中的规则描述。
	Evaluate(n *domain.Notification) (matched bool, rule string, err error)
}
