// internal/pkg/session/manager.go
package session

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const sessionTTL = time.Hour

// Manager 在 Redis 中维护 "用户 -> 所在推送网关节点" 的会话映射。
// message-router 一类的组件据此把消息路由到正确的网关实例。
type Manager struct {
	rdb *goredis.Client
}

// NewManager 创建一个会话管理器。
func NewManager(addr string) *Manager {
	return &Manager{rdb: goredis.NewClient(&goredis.Options{Addr: addr})}
}

func sessionKey(userID string) string {
	return fmt.Sprintf("session:gateway:{%s}", userID)
}

// SetUserGateway 记录用户当前连接的网关节点。
func (m *Manager) SetUserGateway(ctx context.Context, userID, nodeID string) error {
	return m.rdb.Set(ctx, sessionKey(userID), nodeID, sessionTTL).Err()
}

// GetUserGateway 查询用户所在的网关节点。
func (m *Manager) GetUserGateway(ctx context.Context, userID string) (string, error) {
	return m.rdb.Get(ctx, sessionKey(userID)).Result()
}

// RemoveUserGateway 在连接断开时清理会话。
func (m *Manager) RemoveUserGateway(ctx context.Context, userID string) error {
	return m.rdb.Del(ctx, sessionKey(userID)).Err()
}
