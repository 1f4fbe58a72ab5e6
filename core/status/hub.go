package status

import (
	"context"
	"sync"
	"time"

	"AirCue/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub 状态频道 WebSocket 管理中心。
// 每个主题一组客户端；注册即推当前视图。
type Hub struct {
	topics map[string]*Topic

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	done     chan struct{}
	stopOnce sync.Once
}

// NewHub 创建 Hub
func NewHub(topics ...*Topic) *Hub {
	h := &Hub{
		topics:     make(map[string]*Topic),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	for _, t := range topics {
		h.topics[t.Name()] = t
	}
	return h
}

// Topic 按名称取主题，不存在返回 nil
func (h *Hub) Topic(name string) *Topic {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.topics[name]
}

// Run 启动 Hub 主循环
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if topic := h.Topic(client.topicName); topic != nil {
				topic.AddSubscriber(client)
				logger.Info("status subscriber registered",
					logger.String("topic", client.topicName),
					logger.String("subscriber", client.id))
			}

		case client := <-h.unregister:
			if topic := h.Topic(client.topicName); topic != nil {
				topic.RemoveSubscriber(client.id)
			}
			client.closeSend()
			logger.Info("status subscriber unregistered",
				logger.String("topic", client.topicName),
				logger.String("subscriber", client.id))

		case <-h.done:
			return
		}
	}
}

// Stop 停止 Hub
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// Register 注册客户端
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister 注销客户端
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Client 一个状态频道的 WebSocket 订阅者
type Client struct {
	hub       *Hub
	topicName string
	id        string
	conn      *websocket.Conn
	send      chan []byte

	sendMu sync.Mutex
	closed bool
}

// NewClient 创建客户端
func NewClient(hub *Hub, topicName string, conn *websocket.Conn) *Client {
	return &Client{
		hub:       hub,
		topicName: topicName,
		id:        uuid.New().String(),
		conn:      conn,
		send:      make(chan []byte, 64),
	}
}

// ID 实现 Subscriber
func (c *Client) ID() string {
	return c.id
}

// Send 实现 Subscriber，非阻塞；缓冲满或已关闭返回 false。
// 推送来自图和主循环之外的 goroutine，closed 标记保证
// 不会向已被注销路径关闭的通道写入。
func (c *Client) Send(payload []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump 读取循环。状态频道是只读镜像，
// 入站数据只用于心跳与连接存活检测。
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if _, _, err := c.conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Warn("status websocket read error",
						logger.ErrorField(err),
						logger.String("topic", c.topicName))
				}
				return
			}
		}
	}
}

// WritePump 写入循环
func (c *Client) WritePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
