package port

import "context"

// CartService 是购物车子系统的出站端口。
// 对账引擎只负责在订单到达 paid 时触发一次清空，
// 从不读取或修改具体条目——购物车的不变量归它自己的子系统管。
// 实现必须幂等：清空一个已空的购物车等价于 no-op。
type CartService interface {
	Clear(ctx context.Context, ownerID string) error
}
