package store

import (
	"context"
	"encoding/json"
	"fmt"

	"AirCue/logger"

	"github.com/go-redis/redis/v8"
)

// EventKind 文档变更类型
type EventKind string

const (
	EventAdded   EventKind = "added"
	EventChanged EventKind = "changed"
	EventRemoved EventKind = "removed"
)

// ChangeEvent 单个文档的变更通知。
// 路由字段（PlaylistID/RundownID/StudioID/ActivationID）用于订阅过滤，
// 不携带文档内容本身，订阅方按需拉取快照。
type ChangeEvent struct {
	Collection   string    `json:"collection"`
	Kind         EventKind `json:"kind"`
	DocID        string    `json:"docId"`
	StudioID     string    `json:"studioId,omitempty"`
	PlaylistID   string    `json:"playlistId,omitempty"`
	RundownID    string    `json:"rundownId,omitempty"`
	ActivationID string    `json:"activationId,omitempty"`
}

// Query 订阅过滤条件，零值字段表示不过滤
type Query struct {
	Collection   string
	DocIDs       []string
	StudioID     string
	PlaylistID   string
	RundownIDs   []string
	ActivationID string
}

// Matches 判断事件是否命中查询
func (q Query) Matches(ev ChangeEvent) bool {
	if q.Collection != "" && ev.Collection != q.Collection {
		return false
	}
	if q.StudioID != "" && ev.StudioID != q.StudioID {
		return false
	}
	if q.PlaylistID != "" && ev.PlaylistID != q.PlaylistID {
		return false
	}
	if q.ActivationID != "" && ev.ActivationID != q.ActivationID {
		return false
	}
	if len(q.DocIDs) > 0 && !containsString(q.DocIDs, ev.DocID) {
		return false
	}
	if len(q.RundownIDs) > 0 && !containsString(q.RundownIDs, ev.RundownID) {
		return false
	}
	return true
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// FeedHandlers 变更回调，未设置的回调被忽略
type FeedHandlers struct {
	Added   func(ev ChangeEvent)
	Changed func(ev ChangeEvent)
	Removed func(ev ChangeEvent)
}

func (h FeedHandlers) dispatch(ev ChangeEvent) {
	switch ev.Kind {
	case EventAdded:
		if h.Added != nil {
			h.Added(ev)
		}
	case EventChanged:
		if h.Changed != nil {
			h.Changed(ev)
		}
	case EventRemoved:
		if h.Removed != nil {
			h.Removed(ev)
		}
	}
}

// ChangeFeed 活动中的订阅句柄
type ChangeFeed interface {
	Stop()
}

// Observer 按查询建立变更订阅的能力
type Observer interface {
	Observe(q Query, h FeedHandlers) (ChangeFeed, error)
}

// ChannelFor 集合对应的Redis发布频道
func ChannelFor(collection string) string {
	return fmt.Sprintf("docs:%s", collection)
}

// redisFeed 基于Redis pub/sub 的变更订阅
type redisFeed struct {
	pubsub *redis.PubSub
	cancel context.CancelFunc
}

func (f *redisFeed) Stop() {
	f.cancel()
	_ = f.pubsub.Close()
}

// RedisObserver 基于Redis pub/sub 的 Observer 实现。
// 每个集合一个频道，订阅方在本地按 Query 过滤。
type RedisObserver struct {
	client *redis.Client
}

// NewRedisObserver 创建 RedisObserver
func NewRedisObserver(client *redis.Client) *RedisObserver {
	return &RedisObserver{client: client}
}

// Observe 建立一个变更订阅
func (o *RedisObserver) Observe(q Query, h FeedHandlers) (ChangeFeed, error) {
	if q.Collection == "" {
		return nil, fmt.Errorf("observe requires a collection")
	}

	ctx, cancel := context.WithCancel(context.Background())
	pubsub := o.client.Subscribe(ctx, ChannelFor(q.Collection))

	// 确认订阅建立后再返回，避免漏掉紧随其后的事件
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe %s: %w", q.Collection, err)
	}

	ch := pubsub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					logger.Warn("invalid change event payload",
						logger.ErrorField(err),
						logger.String("channel", msg.Channel))
					continue
				}
				if q.Matches(ev) {
					h.dispatch(ev)
				}
			}
		}
	}()

	return &redisFeed{pubsub: pubsub, cancel: cancel}, nil
}

// Publisher 变更事件发布端，仓库层在事务提交后调用
type Publisher interface {
	Publish(ctx context.Context, ev ChangeEvent)
}

// RedisPublisher 基于Redis pub/sub 的 Publisher 实现
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher 创建 RedisPublisher
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish 发布一个变更事件。发布失败只记日志：
// 持久化状态已是权威，镜像侧最多延迟到下一次事件。
func (p *RedisPublisher) Publish(ctx context.Context, ev ChangeEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Warn("failed to marshal change event", logger.ErrorField(err))
		return
	}
	if err := p.client.Publish(ctx, ChannelFor(ev.Collection), payload).Err(); err != nil {
		logger.Warn("failed to publish change event",
			logger.ErrorField(err),
			logger.String("collection", ev.Collection),
			logger.String("docId", ev.DocID))
	}
}
