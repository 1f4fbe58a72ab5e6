package store

import "sync"

// MemObserver 进程内 Observer 实现，用于测试与单机部署。
// Broadcast 同步分发事件给所有命中查询的订阅。
type MemObserver struct {
	mu    sync.Mutex
	seq   int
	feeds map[int]*memFeed
}

type memFeed struct {
	owner    *MemObserver
	id       int
	query    Query
	handlers FeedHandlers
	stopped  bool
}

func (f *memFeed) Stop() {
	f.owner.mu.Lock()
	defer f.owner.mu.Unlock()
	f.stopped = true
	delete(f.owner.feeds, f.id)
}

// NewMemObserver 创建 MemObserver
func NewMemObserver() *MemObserver {
	return &MemObserver{feeds: make(map[int]*memFeed)}
}

// Observe 建立一个进程内订阅
func (o *MemObserver) Observe(q Query, h FeedHandlers) (ChangeFeed, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.seq++
	f := &memFeed{owner: o, id: o.seq, query: q, handlers: h}
	o.feeds[f.id] = f
	return f, nil
}

// Broadcast 同步分发事件
func (o *MemObserver) Broadcast(ev ChangeEvent) {
	o.mu.Lock()
	targets := make([]*memFeed, 0, len(o.feeds))
	for _, f := range o.feeds {
		if !f.stopped && f.query.Matches(ev) {
			targets = append(targets, f)
		}
	}
	o.mu.Unlock()

	for _, f := range targets {
		f.handlers.dispatch(ev)
	}
}

// FeedCount 当前活动订阅数（测试用）
func (o *MemObserver) FeedCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.feeds)
}
