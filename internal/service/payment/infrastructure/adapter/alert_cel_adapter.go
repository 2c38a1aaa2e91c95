package adapter

import (
	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/domain"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/domain/port"
)

// AlertCELAdapter 用一条 CEL 表达式实现 port.AlertPolicy。
// 规则由配置下发，例如:
//
//	transaction_status == 'capture' && fraud_status == 'challenge'
//
// 表达式在构造时编译并校验返回类型，运行期只做求值。
type AlertCELAdapter struct {
	rule    string
	program cel.Program
}

// NewAlertCELAdapter 编译规则表达式并创建适配器实例。
func NewAlertCELAdapter(rule string) (*AlertCELAdapter, error) {
	env, err := cel.NewEnv(
		cel.Variable("order_id", cel.StringType),
		cel.Variable("transaction_status", cel.StringType),
		cel.Variable("fraud_status", cel.StringType),
		cel.Variable("gross_amount", cel.StringType),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create CEL environment")
	}

	ast, issues := env.Compile(rule)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(issues.Err(), "failed to compile alert rule %q", rule)
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.Errorf("alert rule %q must evaluate to bool, got %s", rule, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build program for alert rule %q", rule)
	}

	return &AlertCELAdapter{rule: rule, program: program}, nil
}

var _ port.AlertPolicy = (*AlertCELAdapter)(nil)

// Evaluate 对一条通知求值告警规则。
func (a *AlertCELAdapter) Evaluate(n *domain.Notification) (bool, string, error) {
	out, _, err := a.program.Eval(map[string]interface{}{
		"order_id":           n.OrderID,
		"transaction_status": n.TransactionStatus,
		"fraud_status":       n.FraudStatus,
		"gross_amount":       n.GrossAmount,
	})
	if err != nil {
		return false, a.rule, errors.Wrap(err, "failed to evaluate alert rule")
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, a.rule, errors.Errorf("alert rule returned non-bool value %v", out)
	}
	return matched, a.rule, nil
}
