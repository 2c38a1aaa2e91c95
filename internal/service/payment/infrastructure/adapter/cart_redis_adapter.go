package adapter

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/IRedDragonICY/progress-jogja-sub001/internal/pkg/redis"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/service/payment/domain/port"
)

const clearCartScriptName = "clear_cart"

// CartRedisAdapter 是 port.CartService 接口的 Redis 实现。
type CartRedisAdapter struct {
	redisClient *redis.Client
}

// NewCartRedisAdapter 创建一个新的购物车服务适配器实例。
// 它在创建时会加载所需的 Lua 脚本。
func NewCartRedisAdapter(redisClient *redis.Client) (*CartRedisAdapter, error) {
	if err := redisClient.LoadScriptFromContent(clearCartScriptName, clearCartScript); err != nil {
		return nil, fmt.Errorf("failed to load clear_cart script: %w", err)
	}
	return &CartRedisAdapter{redisClient: redisClient}, nil
}

var _ port.CartService = (*CartRedisAdapter)(nil)

// Clear 清空 owner 的全部待结算条目。
// 条目与元数据在同一脚本里删除，重复执行与清空已空购物车都是 no-op。
func (a *CartRedisAdapter) Clear(ctx context.Context, ownerID string) error {
	itemsKey := fmt.Sprintf("cart:items:{%s}", ownerID)
	metaKey := fmt.Sprintf("cart:meta:{%s}", ownerID)

	_, err := a.redisClient.RunScript(ctx, clearCartScriptName, []string{itemsKey, metaKey})
	if err != nil {
		return errors.Wrapf(err, "cart adapter failed to clear cart for owner %s", ownerID)
	}
	return nil
}

var clearCartScript = `
-- scripts/clear_cart.lua

-- KEYS[1]: 购物车条目的 Key, 例如: cart:items:{user-789}
-- KEYS[2]: 购物车元数据的 Key, 例如: cart:meta:{user-789}

-- 1. 记录清掉了多少条目 (购物车已空时为 0)
local removed = redis.call('hlen', KEYS[1])

-- 2. 条目和元数据一并删除
redis.call('del', KEYS[1], KEYS[2])

return removed
`
