package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// statusViewTTL 视图缓存过期时间。
// 正常运行时每次推送都会刷新；过期兜底避免僵尸视图。
const statusViewTTL = 24 * time.Hour

// StatusViewCache 把每个主题最近一次渲染的完整帧存进Redis，
// 新订阅者与进程重启后不用等订阅图收敛就能拿到已知状态。
type StatusViewCache struct {
	client *redis.Client
}

// NewStatusViewCache 创建视图缓存
func NewStatusViewCache(client *redis.Client) *StatusViewCache {
	return &StatusViewCache{client: client}
}

// viewKey 主题视图的Redis键
func viewKey(topic string) string {
	return fmt.Sprintf("status:view:%s", topic)
}

// Put 写入主题最新视图
func (c *StatusViewCache) Put(ctx context.Context, topic string, payload []byte) error {
	if c.client == nil {
		return nil
	}
	return c.client.Set(ctx, viewKey(topic), payload, statusViewTTL).Err()
}

// Get 读取主题最新视图，不存在返回 nil
func (c *StatusViewCache) Get(ctx context.Context, topic string) ([]byte, error) {
	if c.client == nil {
		return nil, nil
	}
	payload, err := c.client.Get(ctx, viewKey(topic)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}
