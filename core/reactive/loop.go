package reactive

import (
	"sync"

	"AirCue/logger"

	"github.com/petermattis/goid"
)

// Loop 单线程协作式事件循环。
// 订阅节点的全部求值都在这个 goroutine 上执行，节点状态因此无需加锁。
// Defer 把任务挂到当前执行轮（turn）的末尾：同一轮内的多次上游通知
// 会合并成一次求值决策。
type Loop struct {
	tasks    chan func()
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	// 以下字段只在循环 goroutine 上访问
	loopGoID int64
	deferred []func()
}

// NewLoop 创建事件循环
func NewLoop() *Loop {
	return &Loop{
		tasks: make(chan func(), 256),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Start 启动循环 goroutine
func (l *Loop) Start() {
	go l.run()
}

func (l *Loop) run() {
	l.loopGoID = goid.Get()
	defer close(l.done)

	for {
		select {
		case <-l.stop:
			return
		case task := <-l.tasks:
			l.runTurn(task)
		}
	}
}

// runTurn 执行一个任务以及它在本轮内挂起的全部延迟任务。
// 延迟任务执行期间新挂起的延迟任务仍属于本轮。
func (l *Loop) runTurn(task func()) {
	l.safeCall(task)
	for len(l.deferred) > 0 {
		next := l.deferred[0]
		l.deferred = l.deferred[1:]
		l.safeCall(next)
	}
	l.deferred = nil
}

func (l *Loop) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event loop task panicked", logger.Any("panic", r))
		}
	}()
	fn()
}

// Post 从任意 goroutine 调度一个任务，开启新的执行轮
func (l *Loop) Post(fn func()) {
	select {
	case <-l.stop:
	case l.tasks <- fn:
	}
}

// Defer 把任务挂到当前执行轮末尾。只能在循环 goroutine 上调用。
func (l *Loop) Defer(fn func()) {
	if goid.Get() != l.loopGoID {
		// 循环外调用降级为 Post，语义上仍是"之后执行"
		logger.Warn("loop.Defer called off the loop goroutine")
		l.Post(fn)
		return
	}
	l.deferred = append(l.deferred, fn)
}

// OnLoop 判断当前 goroutine 是否为循环 goroutine
func (l *Loop) OnLoop() bool {
	return goid.Get() == l.loopGoID
}

// Stop 停止循环并等待退出
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
	<-l.done
}
