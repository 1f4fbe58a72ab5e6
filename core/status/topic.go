package status

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"AirCue/logger"
)

// ViewCache 最新视图的外部缓存（Redis 实现见 cache 包）。
// 新订阅者与进程重启后的首帧从这里兜底。
type ViewCache interface {
	Put(ctx context.Context, topic string, payload []byte) error
	Get(ctx context.Context, topic string) ([]byte, error)
}

// Subscriber 外部订阅者句柄。Send 非阻塞，缓冲满返回 false。
type Subscriber interface {
	ID() string
	Send(payload []byte) bool
}

// Envelope 推送消息的外层结构
type Envelope struct {
	Topic     string      `json:"topic"`
	Scope     string      `json:"scope,omitempty"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// RenderFunc 从已上报的数据源渲染出完整视图
type RenderFunc func(sources map[string]interface{}) interface{}

// Topic 按功能划分的状态扇出主题。
// 可聚合多个命名数据源；同一范围下所有必需源至少上报一次后
// 才开始对外发送，避免推送残缺视图。
// 每次接受更新都重新渲染并推给全部订阅者。
type Topic struct {
	name     string
	required []string
	render   RenderFunc
	cache    ViewCache

	mu          sync.Mutex
	scope       string
	reported    map[string]bool
	sources     map[string]interface{}
	subscribers map[string]Subscriber
	latest      []byte
}

// NewTopic 创建主题
func NewTopic(name string, required []string, render RenderFunc, cache ViewCache) *Topic {
	return &Topic{
		name:        name,
		required:    required,
		render:      render,
		cache:       cache,
		reported:    make(map[string]bool),
		sources:     make(map[string]interface{}),
		subscribers: make(map[string]Subscriber),
	}
}

// Name 主题名
func (t *Topic) Name() string {
	return t.name
}

// Update 数据源上报，实现 reactive.Sink。
// scope 变化意味着之前其他源的数据属于旧范围，上报记录清零重计。
func (t *Topic) Update(source string, scope string, data interface{}) {
	t.mu.Lock()

	if scope != t.scope {
		t.scope = scope
		t.reported = make(map[string]bool)
		t.sources = make(map[string]interface{})
	}
	t.reported[source] = true
	t.sources[source] = data

	if !t.allRequiredReported() {
		t.mu.Unlock()
		logger.Debug("topic withholding partial view",
			logger.String("topic", t.name),
			logger.String("source", source))
		return
	}

	snapshot := make(map[string]interface{}, len(t.sources))
	for k, v := range t.sources {
		snapshot[k] = v
	}
	scopeNow := t.scope
	t.mu.Unlock()

	view := t.render(snapshot)
	payload, err := json.Marshal(&Envelope{
		Topic:     t.name,
		Scope:     scopeNow,
		Timestamp: time.Now().UnixMilli(),
		Data:      view,
	})
	if err != nil {
		logger.Warn("failed to marshal topic view",
			logger.ErrorField(err),
			logger.String("topic", t.name))
		return
	}

	t.mu.Lock()
	// 范围在渲染期间又变了就丢弃这帧，下一次上报会重渲染
	if t.scope != scopeNow {
		t.mu.Unlock()
		return
	}
	t.latest = payload
	subs := make([]Subscriber, 0, len(t.subscribers))
	for _, sub := range t.subscribers {
		subs = append(subs, sub)
	}
	t.mu.Unlock()

	for _, sub := range subs {
		if !sub.Send(payload) {
			logger.Warn("subscriber send buffer full",
				logger.String("topic", t.name),
				logger.String("subscriber", sub.ID()))
		}
	}

	if t.cache != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := t.cache.Put(ctx, t.name, payload); err != nil {
				logger.Warn("failed to cache topic view",
					logger.ErrorField(err),
					logger.String("topic", t.name))
			}
		}()
	}
}

func (t *Topic) allRequiredReported() bool {
	for _, src := range t.required {
		if !t.reported[src] {
			return false
		}
	}
	return true
}

// AddSubscriber 注册订阅者并立即推送当前视图，
// 而不是只推之后的变化。本地还没有视图时从外部缓存兜底。
func (t *Topic) AddSubscriber(sub Subscriber) {
	t.mu.Lock()
	t.subscribers[sub.ID()] = sub
	latest := t.latest
	t.mu.Unlock()

	if latest != nil {
		sub.Send(latest)
		return
	}

	if t.cache != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			payload, err := t.cache.Get(ctx, t.name)
			if err != nil || payload == nil {
				return
			}
			sub.Send(payload)
		}()
	}
}

// RemoveSubscriber 移除订阅者
func (t *Topic) RemoveSubscriber(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.subscribers, id)
}

// SubscriberCount 当前订阅者数量
func (t *Topic) SubscriberCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subscribers)
}

// Latest 最近一次对外发送的完整帧（没有则为 nil）
func (t *Topic) Latest() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest
}
