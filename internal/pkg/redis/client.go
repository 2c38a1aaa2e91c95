// internal/pkg/redis/client.go
package redis

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

// Client 封装了 go-redis 客户端和一组按名字注册的 Lua 脚本。
// 脚本通过 EVALSHA 执行，未加载时 go-redis 会自动回退到 EVAL。
type Client struct {
	rdb *goredis.Client

	mu      sync.RWMutex
	scripts map[string]*goredis.Script
}

// NewClient 创建一个新的 Redis 客户端包装。
func NewClient(addr string) *Client {
	return &Client{
		rdb:     goredis.NewClient(&goredis.Options{Addr: addr}),
		scripts: make(map[string]*goredis.Script),
	}
}

// GetClient 暴露底层客户端，供需要 pipeline 等高级操作的调用方使用。
func (c *Client) GetClient() *goredis.Client {
	return c.rdb
}

// LoadScriptFromContent 以 name 注册一段 Lua 脚本内容。
func (c *Client) LoadScriptFromContent(name, content string) error {
	if content == "" {
		return errors.Errorf("lua script %q is empty", name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scripts[name] = goredis.NewScript(content)
	return nil
}

// RunScript 执行一段已注册的 Lua 脚本。
func (c *Client) RunScript(ctx context.Context, name string, keys []string, args ...interface{}) (interface{}, error) {
	c.mu.RLock()
	script, ok := c.scripts[name]
	c.mu.RUnlock()
	if !ok {
		return nil, errors.Errorf("lua script %q is not loaded", name)
	}
	return script.Run(ctx, c.rdb, keys, args...).Result()
}

// Close 关闭底层连接。
func (c *Client) Close() error {
	return c.rdb.Close()
}
