package status

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// 注销路径关闭发送通道后，推送必须返回 false 而不是 panic
func TestClientSendAfterClose(t *testing.T) {
	c := NewClient(nil, "playlist", nil)

	assert.True(t, c.Send([]byte("a")))
	c.closeSend()
	assert.False(t, c.Send([]byte("b")))

	// 重复关闭是幂等的
	c.closeSend()
}

// 推送与注销并发时不得崩溃
func TestClientSendCloseRace(t *testing.T) {
	c := NewClient(nil, "playlist", nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			c.Send([]byte("x"))
		}
	}()
	go func() {
		defer wg.Done()
		c.closeSend()
	}()
	wg.Wait()

	assert.False(t, c.Send([]byte("y")))
}
