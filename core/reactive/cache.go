package reactive

import (
	"context"
	"sync"
	"time"

	"AirCue/logger"
	"AirCue/store"
)

// DefaultDebounce 默认去抖间隔。一次逻辑事件（例如一次 take）
// 往往同时触及多个集合，去抖让下游只看到一个一致的快照，
// 而不是一串瞬态的中间状态。
const DefaultDebounce = 20 * time.Millisecond

// ReactiveCache 把同一逻辑范围下的 N 路变更订阅合并成
// 单个去抖后的 changed 信号。任何一路的 added/changed/removed
// 都会重置去抖计时器；计时器触发后执行一次快照拉取，
// 并以一致的只读快照回调 onChanged。
type ReactiveCache struct {
	name     string
	debounce time.Duration
	fetch    func(ctx context.Context) (interface{}, error)
	onChange func(snapshot interface{})

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	feeds   []store.ChangeFeed
	timer   *time.Timer
	stopped bool
}

// NewReactiveCache 建立全部订阅并返回缓存。
// 不做初始拉取；需要初始快照时调用 Refresh。
func NewReactiveCache(
	name string,
	observer store.Observer,
	queries []store.Query,
	debounce time.Duration,
	fetch func(ctx context.Context) (interface{}, error),
	onChange func(snapshot interface{}),
) (*ReactiveCache, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &ReactiveCache{
		name:     name,
		debounce: debounce,
		fetch:    fetch,
		onChange: onChange,
		ctx:      ctx,
		cancel:   cancel,
	}

	handlers := store.FeedHandlers{
		Added:   func(store.ChangeEvent) { c.bump() },
		Changed: func(store.ChangeEvent) { c.bump() },
		Removed: func(store.ChangeEvent) { c.bump() },
	}

	for _, q := range queries {
		feed, err := observer.Observe(q, handlers)
		if err != nil {
			c.Stop()
			return nil, err
		}
		c.feeds = append(c.feeds, feed)
	}

	return c, nil
}

// bump 重置去抖计时器
func (c *ReactiveCache) bump() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, c.fire)
}

func (c *ReactiveCache) fire() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.mu.Unlock()

	c.Refresh()
}

// Refresh 立即拉取一次快照并回调。
// 订阅建立后的初始快照也走这条路径。
func (c *ReactiveCache) Refresh() {
	snapshot, err := c.fetch(c.ctx)
	if err != nil {
		if c.ctx.Err() != nil {
			return
		}
		logger.Warn("reactive cache fetch failed",
			logger.ErrorField(err),
			logger.String("cache", c.name))
		return
	}

	c.mu.Lock()
	stopped := c.stopped
	c.mu.Unlock()
	if stopped {
		return
	}

	c.onChange(snapshot)
}

// Stop 停掉全部订阅并取消未触发的计时器
func (c *ReactiveCache) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	feeds := c.feeds
	c.feeds = nil
	c.mu.Unlock()

	c.cancel()
	for _, f := range feeds {
		f.Stop()
	}
}
