package playout

import "sync"

// lockManager 每个播出单一把互斥锁，保证单写者语义。
// 不同播出单的操作完全并行。
type lockManager struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockManager() *lockManager {
	return &lockManager{locks: make(map[string]*sync.Mutex)}
}

// acquire 获取指定播出单的锁，返回解锁函数
func (lm *lockManager) acquire(playlistID string) func() {
	lm.mu.Lock()
	l, ok := lm.locks[playlistID]
	if !ok {
		l = &sync.Mutex{}
		lm.locks[playlistID] = l
	}
	lm.mu.Unlock()

	l.Lock()
	return l.Unlock
}
