// cmd/push-gateway/main.go
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/IRedDragonICY/progress-jogja-sub001/internal/pkg/bootstrap"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/pkg/mq"
	"github.com/IRedDragonICY/progress-jogja-sub001/internal/pkg/session"
)

const (
	serviceName = "push-gateway"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var (
	sessionMgr *session.Manager
	nodeID     = "push-gateway-" + uuid.New().String()[:8]
	upgrader   = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool { // 简化处理，允许所有跨域
			return true
		},
	}
)

// Hub 维护所有活跃的连接，并负责按用户投递消息
type Hub struct {
	clients    map[string]*Client // 使用UserID作为Key
	register   chan *Client
	unregister chan *Client
	lock       sync.RWMutex
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.lock.Lock()
			h.clients[client.userID] = client
			h.lock.Unlock()
			log.Printf("Client %s registered on node %s", client.userID, nodeID)
		case client := <-h.unregister:
			h.lock.Lock()
			if _, ok := h.clients[client.userID]; ok {
				delete(h.clients, client.userID)
				close(client.send)
			}
			h.lock.Unlock()
			log.Printf("Client %s unregistered.", client.userID)
		}
	}
}

// push 把一条消息投递给指定用户，用户不在本节点时返回 false
func (h *Hub) push(userID string, message []byte) bool {
	h.lock.RLock()
	client, ok := h.clients[userID]
	h.lock.RUnlock()
	if !ok {
		return false
	}
	select {
	case client.send <- message:
		return true
	default:
		// 发送缓冲已满，视为连接不健康，交由 readPump 的超时回收
		return false
	}
}

// Client 是一个WebSocket连接的代表
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

// writePump 把 send channel 中的消息写入 websocket，并维持心跳
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 消费客户端的 pong 与关闭帧，连接断开时注销并清理会话
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
		if err := sessionMgr.RemoveUserGateway(context.Background(), c.userID); err != nil {
			log.Printf("Failed to remove session for user %s: %v", c.userID, err)
		}
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func serveWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	// 1. 从URL参数获取UserID
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userID is required", http.StatusBadRequest)
		return
	}

	// 2. HTTP升级为WebSocket
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	// 3. 创建客户端实例并注册到Hub
	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256), userID: userID}
	client.hub.register <- client

	// 4. 在Redis中设置会话信息
	err = sessionMgr.SetUserGateway(context.Background(), userID, nodeID)
	if err != nil {
		log.Printf("Failed to set session for user %s: %v", userID, err)
		conn.Close()
		return
	}

	// 5. 启动读写goroutine
	go client.writePump()
	go client.readPump()
}

// consumeOrderEvents 消费订单状态事件流，把属于本节点在线用户的事件推下去。
// 每个网关节点使用独立的消费组：人人都读全量事件流，按本地连接表过滤。
// 消息以 ownerId 为 key 分区，同一买家的事件天然有序。
func consumeOrderEvents(ctx context.Context, hub *Hub, brokers []string, topic string) {
	reader := mq.NewReader(brokers, nodeID, topic)
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Failed to read order event: %v", err)
			continue
		}

		ownerID := string(msg.Key)
		if ownerID == "" {
			continue
		}

		// 只校验事件是合法 JSON，原样透传给客户端
		if !json.Valid(msg.Value) {
			log.Printf("Dropping malformed event for owner %s", ownerID)
			continue
		}

		if hub.push(ownerID, msg.Value) {
			log.Printf("Pushed event to user %s", ownerID)
		}
	}
}

func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()

	sessionMgr = session.NewManager(cfg.Infra.Redis.Addr)
	hub := newHub()
	go hub.run()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go consumeOrderEvents(ctx, hub, cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.OrderEventsTopic)

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r)
	})

	log.Printf("Push Gateway (%s) started on :8088", nodeID)
	err := http.ListenAndServe(":8088", nil)
	if err != nil {
		log.Fatal("ListenAndServe: ", err)
	}
}
