// internal/pkg/zookeeper/lock.go
package zookeeper

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/pkg/errors"
)

const (
	lockRoot = "/distributed_locks" // 所有分布式锁的根节点

	// 等待前序节点释放的上限，防止死等
	lockWaitTimeout = 30 * time.Second
)

// DistributedLock 是基于临时顺序节点的 ZooKeeper 分布式锁。
// 多个清扫实例竞争同一资源时，只有持有最小序号节点的实例获得锁；
// 会话断开后临时节点自动删除，不会留下死锁。
type DistributedLock struct {
	conn     *Conn
	path     string // 锁的路径，例如 /distributed_locks/cart-sweep
	lockNode string // 成功获取锁后，自己创建的节点路径
}

// NewDistributedLock 创建一个新的分布式锁实例，并确保锁路径存在。
func NewDistributedLock(conn *Conn, resourceID string) (*DistributedLock, error) {
	if err := ensureNode(conn, lockRoot); err != nil {
		return nil, err
	}
	lockPath := lockRoot + "/" + resourceID
	if err := ensureNode(conn, lockPath); err != nil {
		return nil, err
	}
	return &DistributedLock{conn: conn, path: lockPath}, nil
}

func ensureNode(conn *Conn, path string) error {
	exists, _, err := conn.Exists(path)
	if err != nil {
		return errors.Wrapf(err, "failed to check node %s", path)
	}
	if exists {
		return nil
	}
	if _, err := conn.Create(path, []byte(""), 0, zk.WorldACL(zk.PermAll)); err != nil && err != zk.ErrNodeExists {
		return errors.Wrapf(err, "failed to create node %s", path)
	}
	return nil
}

// Lock 尝试获取锁，获取不到则阻塞等待前序节点释放。
func (l *DistributedLock) Lock() error {
	// 1. 在锁路径下创建一个临时顺序节点
	nodePath, err := l.conn.CreateProtectedEphemeralSequential(l.path+"/lock-", []byte(""), zk.WorldACL(zk.PermAll))
	if err != nil {
		return fmt.Errorf("failed to create sequential node: %w", err)
	}
	l.lockNode = nodePath

	for {
		// 2. 获取锁路径下的所有子节点并排序
		children, _, err := l.conn.Children(l.path)
		if err != nil {
			return fmt.Errorf("failed to get children nodes: %w", err)
		}
		sort.Strings(children)

		// 3. 自己是最小节点则获锁成功
		myNodeName := strings.TrimPrefix(l.lockNode, l.path+"/")
		if myNodeName == children[0] {
			return nil
		}

		// 4. 否则监听排在自己前面的那个节点
		prevNodeIndex := -1
		for i, child := range children {
			if child == myNodeName {
				prevNodeIndex = i - 1
				break
			}
		}
		if prevNodeIndex < 0 {
			return errors.New("cannot find previous node, something is wrong")
		}
		prevNodePath := l.path + "/" + children[prevNodeIndex]

		_, _, eventChan, err := l.conn.ExistsW(prevNodePath)
		if err != nil {
			// 前一个节点在检查时刚好被删除，重新竞争
			if err == zk.ErrNoNode {
				continue
			}
			return fmt.Errorf("failed to watch previous node: %w", err)
		}

		select {
		case event := <-eventChan:
			if event.Type == zk.EventNodeDeleted {
				continue
			}
		case <-time.After(lockWaitTimeout):
			return errors.New("timeout waiting for lock")
		}
	}
}

// Unlock 释放锁。
func (l *DistributedLock) Unlock() error {
	if l.lockNode == "" {
		return errors.New("no lock to unlock")
	}
	err := l.conn.Delete(l.lockNode, -1)
	if err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("failed to delete lock node: %w", err)
	}
	l.lockNode = ""
	return nil
}
