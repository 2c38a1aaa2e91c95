// internal/pkg/zookeeper/conn.go
package zookeeper

import (
	"time"

	"github.com/go-zookeeper/zk"
)

// Conn 包装了 ZooKeeper 连接，锁等上层组件都基于它工作。
type Conn struct {
	*zk.Conn
}

// Connect 建立一条到 ZooKeeper 集群的连接。
func Connect(servers []string, sessionTimeout time.Duration) (*Conn, error) {
	conn, _, err := zk.Connect(servers, sessionTimeout)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: conn}, nil
}
