package status_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"AirCue/core/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSubscriber 记录收到的帧
type fakeSubscriber struct {
	id string

	mu     sync.Mutex
	frames [][]byte
	full   bool
}

func (f *fakeSubscriber) ID() string { return f.id }

func (f *fakeSubscriber) Send(payload []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return false
	}
	f.frames = append(f.frames, payload)
	return true
}

func (f *fakeSubscriber) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeSubscriber) lastEnvelope(t *testing.T) *status.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.frames)
	var env status.Envelope
	require.NoError(t, json.Unmarshal(f.frames[len(f.frames)-1], &env))
	return &env
}

// memViewCache 进程内 ViewCache
type memViewCache struct {
	mu    sync.Mutex
	views map[string][]byte
}

func newMemViewCache() *memViewCache {
	return &memViewCache{views: make(map[string][]byte)}
}

func (c *memViewCache) Put(ctx context.Context, topic string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views[topic] = payload
	return nil
}

func (c *memViewCache) Get(ctx context.Context, topic string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.views[topic], nil
}

func renderMerge(sources map[string]interface{}) interface{} {
	out := make(map[string]interface{}, len(sources))
	for k, v := range sources {
		out[k] = v
	}
	return out
}

// 必需源没到齐之前不对外发送任何帧
func TestTopicWithholdsUntilAllRequiredSourcesReport(t *testing.T) {
	topic := status.NewTopic("t", []string{"a", "b"}, renderMerge, nil)
	sub := &fakeSubscriber{id: "s1"}
	topic.AddSubscriber(sub)

	topic.Update("a", "scope1", "dataA")
	assert.Zero(t, sub.frameCount())
	assert.Nil(t, topic.Latest())

	topic.Update("b", "scope1", "dataB")
	require.Equal(t, 1, sub.frameCount())

	env := sub.lastEnvelope(t)
	assert.Equal(t, "t", env.Topic)
	assert.Equal(t, "scope1", env.Scope)
}

// 之后每次任一源上报都重新渲染并推送
func TestTopicPushesOnEveryUpdateOnceComplete(t *testing.T) {
	topic := status.NewTopic("t", []string{"a"}, renderMerge, nil)
	sub := &fakeSubscriber{id: "s1"}
	topic.AddSubscriber(sub)

	topic.Update("a", "scope1", "v1")
	topic.Update("a", "scope1", "v2")
	topic.Update("extra", "scope1", "x")

	assert.Equal(t, 3, sub.frameCount())
}

// 范围变化清零上报记录：旧范围的数据不和新范围的混在一起
func TestTopicScopeChangeResetsGating(t *testing.T) {
	topic := status.NewTopic("t", []string{"a", "b"}, renderMerge, nil)
	sub := &fakeSubscriber{id: "s1"}
	topic.AddSubscriber(sub)

	topic.Update("a", "act1", "dataA")
	topic.Update("b", "act1", "dataB")
	require.Equal(t, 1, sub.frameCount())

	// 新的激活周期：a 上报新范围后 b 的旧数据不再算数
	topic.Update("a", "act2", "dataA2")
	assert.Equal(t, 1, sub.frameCount())

	topic.Update("b", "act2", "dataB2")
	assert.Equal(t, 2, sub.frameCount())
	assert.Equal(t, "act2", sub.lastEnvelope(t).Scope)
}

// 新订阅者立即收到当前视图，不用等下一次变化
func TestTopicAddSubscriberPushesLatest(t *testing.T) {
	topic := status.NewTopic("t", []string{"a"}, renderMerge, nil)

	topic.Update("a", "scope1", "v1")

	late := &fakeSubscriber{id: "s2"}
	topic.AddSubscriber(late)
	assert.Equal(t, 1, late.frameCount())
}

// 本地还没有视图时新订阅者从外部缓存兜底
func TestTopicAddSubscriberFallsBackToCache(t *testing.T) {
	cache := newMemViewCache()
	require.NoError(t, cache.Put(context.Background(), "t", []byte(`{"topic":"t"}`)))

	topic := status.NewTopic("t", []string{"a"}, renderMerge, cache)
	sub := &fakeSubscriber{id: "s1"}
	topic.AddSubscriber(sub)

	require.Eventually(t, func() bool { return sub.frameCount() == 1 },
		time.Second, 5*time.Millisecond)
}

// 完整帧异步写入外部缓存
func TestTopicCachesLatestView(t *testing.T) {
	cache := newMemViewCache()
	topic := status.NewTopic("t", []string{"a"}, renderMerge, cache)

	topic.Update("a", "scope1", "v1")

	require.Eventually(t, func() bool {
		payload, _ := cache.Get(context.Background(), "t")
		return payload != nil
	}, time.Second, 5*time.Millisecond)
}

// 发送缓冲满的订阅者被跳过，不阻塞其他订阅者
func TestTopicSlowSubscriberDoesNotBlock(t *testing.T) {
	topic := status.NewTopic("t", []string{"a"}, renderMerge, nil)
	slow := &fakeSubscriber{id: "slow", full: true}
	fast := &fakeSubscriber{id: "fast"}
	topic.AddSubscriber(slow)
	topic.AddSubscriber(fast)

	topic.Update("a", "scope1", "v1")

	assert.Zero(t, slow.frameCount())
	assert.Equal(t, 1, fast.frameCount())
}

// 移除订阅者后不再推送
func TestTopicRemoveSubscriber(t *testing.T) {
	topic := status.NewTopic("t", []string{"a"}, renderMerge, nil)
	sub := &fakeSubscriber{id: "s1"}
	topic.AddSubscriber(sub)
	assert.Equal(t, 1, topic.SubscriberCount())

	topic.RemoveSubscriber("s1")
	assert.Zero(t, topic.SubscriberCount())

	topic.Update("a", "scope1", "v1")
	assert.Zero(t, sub.frameCount())
}
