package reactive

import (
	"context"
	"sync/atomic"
	"time"

	"AirCue/logger"
	"AirCue/store"
)

// Snapshot 节点向下游传递的值：范围 + 该范围下的文档快照。
// Empty 为真表示"不再适用"（区别于"还没有数据"）。
type Snapshot struct {
	Key   ScopeKey
	Empty bool
	Docs  interface{}
}

// Observer 节点的下游观察者。OnUpstream 以相同快照重复调用必须无害。
type Observer interface {
	OnUpstream(s *Snapshot)
}

// ObserverFunc 函数适配器
type ObserverFunc func(s *Snapshot)

func (f ObserverFunc) OnUpstream(s *Snapshot) { f(s) }

// NodeConfig 节点行为定义
type NodeConfig struct {
	Name string
	// Scope 纯函数：从上游快照推导本节点的订阅范围
	Scope func(upstream *Snapshot) ScopeKey
	// Queries 范围对应的变更订阅查询集
	Queries func(key ScopeKey) []store.Query
	// Resolve 拉取范围下的文档快照（异步执行，不在循环线程上）
	Resolve func(ctx context.Context, key ScopeKey) (interface{}, error)
	// Debounce 内容变更的去抖间隔，零值用 DefaultDebounce
	Debounce time.Duration
}

// Node 订阅图中的一个节点。
// 持有零或一个活动订阅（ReactiveCache），范围由上游值推导。
// 全部状态只在事件循环 goroutine 上访问。
type Node struct {
	loop     *Loop
	observer store.Observer
	cfg      NodeConfig

	downstream []Observer

	// 循环线程私有状态
	upstream    *Snapshot
	lastKey     *ScopeKey
	cache       *ReactiveCache
	snapshot    *Snapshot
	evalPending bool
	// generation 每次范围变更自增；
	// 在途的快照落地时比对，不匹配则丢弃，防止复活过期订阅
	generation uint64

	// 统计（测试与运维观测用）
	subscribeCount   atomic.Int64
	unsubscribeCount atomic.Int64
	notifyCount      atomic.Int64
}

// NewNode 创建节点
func NewNode(loop *Loop, observer store.Observer, cfg NodeConfig) *Node {
	return &Node{loop: loop, observer: observer, cfg: cfg}
}

// AddDownstream 注册下游观察者
func (n *Node) AddDownstream(obs Observer) {
	n.downstream = append(n.downstream, obs)
}

// Push 从任意 goroutine 向节点投递上游值
func (n *Node) Push(s *Snapshot) {
	n.loop.Post(func() { n.OnUpstream(s) })
}

// OnUpstream 接收上游通知。只记录最新值并挂起一次求值：
// 同一执行轮内的多次通知合并成一次重订阅决策。
func (n *Node) OnUpstream(s *Snapshot) {
	n.upstream = s
	if n.evalPending {
		return
	}
	n.evalPending = true
	n.loop.Defer(n.evaluate)
}

// evaluate 求值：比较新旧范围，决定是否重订阅。循环线程上执行。
func (n *Node) evaluate() {
	n.evalPending = false

	newKey := n.cfg.Scope(n.upstream)

	if n.lastKey != nil && newKey.Equal(*n.lastKey) {
		// 范围没变：不触碰订阅，范围内的内容变化由活动订阅自己的事件驱动。
		// 约束：节点从上游保留的非规范化状态只有 ScopeKey 一份，
		// 这里整体覆盖即完成刷新；若将来缓存更多上游派生字段，
		// 必须在本分支一并刷新，否则同范围更新会携带过期值。
		if n.snapshot != nil {
			n.snapshot.Key = newKey
		}
		return
	}

	n.rescope(newKey)
}

// rescope 退订旧范围、订阅新范围。重订阅是异步的；
// 捕获的 generation 保证过期的在途结果不会落地。
func (n *Node) rescope(newKey ScopeKey) {
	n.generation++
	gen := n.generation
	key := newKey
	n.lastKey = &key

	if n.cache != nil {
		n.cache.Stop()
		n.cache = nil
		n.unsubscribeCount.Add(1)
	}

	if newKey.Empty {
		// 显式空信号：下游必须能区分"还没有数据"与"不再适用"
		n.snapshot = &Snapshot{Key: newKey, Empty: true}
		n.notify()
		return
	}

	cache, err := NewReactiveCache(
		n.cfg.Name,
		n.observer,
		n.cfg.Queries(newKey),
		n.cfg.Debounce,
		func(ctx context.Context) (interface{}, error) {
			return n.cfg.Resolve(ctx, newKey)
		},
		func(docs interface{}) {
			n.loop.Post(func() { n.applySnapshot(gen, newKey, docs) })
		},
	)
	if err != nil {
		// 订阅失败按节点隔离：清空自身并向下游发空信号，不向上传播
		logger.Error("node failed to resubscribe",
			logger.ErrorField(err),
			logger.String("node", n.cfg.Name))
		n.snapshot = &Snapshot{Key: newKey, Empty: true}
		n.notify()
		return
	}
	n.cache = cache
	n.subscribeCount.Add(1)

	// 先订阅后拉取初始快照，窗口内的事件只会多触发一次刷新
	go cache.Refresh()
}

// applySnapshot 在途快照落地。generation 不匹配说明范围已再次变更，丢弃。
func (n *Node) applySnapshot(gen uint64, key ScopeKey, docs interface{}) {
	if gen != n.generation {
		logger.Debug("discarding stale snapshot",
			logger.String("node", n.cfg.Name))
		return
	}
	n.snapshot = &Snapshot{Key: key, Docs: docs}
	n.notify()
}

// notify 向全部下游扇出当前快照
func (n *Node) notify() {
	n.notifyCount.Add(1)
	for _, obs := range n.downstream {
		obs.OnUpstream(n.snapshot)
	}
}

// Stop 停掉节点的活动订阅
func (n *Node) Stop() {
	n.loop.Post(func() {
		if n.cache != nil {
			n.cache.Stop()
			n.cache = nil
			n.unsubscribeCount.Add(1)
		}
	})
}

// SubscribeCount 累计订阅次数
func (n *Node) SubscribeCount() int64 { return n.subscribeCount.Load() }

// UnsubscribeCount 累计退订次数
func (n *Node) UnsubscribeCount() int64 { return n.unsubscribeCount.Load() }

// NotifyCount 累计下游通知次数
func (n *Node) NotifyCount() int64 { return n.notifyCount.Load() }

// CurrentSnapshot 循环线程上读取当前快照（测试用，经 Post 访问）
func (n *Node) CurrentSnapshot(out func(*Snapshot)) {
	n.loop.Post(func() { out(n.snapshot) })
}
