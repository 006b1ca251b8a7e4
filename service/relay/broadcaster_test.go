package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tryRecv 非阻塞收一帧（push 是同步的，测试里不需要等）
func tryRecv(c *Conn) (Frame, bool) {
	select {
	case f := <-c.Out():
		return f, true
	default:
		return Frame{}, false
	}
}

func drainEvents(c *Conn) []string {
	var out []string
	for {
		f, ok := tryRecv(c)
		if !ok {
			return out
		}
		out = append(out, f.Event)
	}
}

func TestBroadcasterSendTo(t *testing.T) {
	b := NewBroadcaster()
	c1 := b.Register("c1")

	require.True(t, b.SendTo("c1", Frame{Event: "ping"}))
	f, ok := tryRecv(c1)
	require.True(t, ok)
	assert.Equal(t, "ping", f.Event)

	// 不存在的连接
	assert.False(t, b.SendTo("nope", Frame{Event: "ping"}))
}

func TestBroadcasterBroadcastAll(t *testing.T) {
	b := NewBroadcaster()
	c1 := b.Register("c1")
	c2 := b.Register("c2")
	c3 := b.Register("c3")

	b.BroadcastAll(Frame{Event: "hello"})

	for _, c := range []*Conn{c1, c2, c3} {
		f, ok := tryRecv(c)
		require.True(t, ok, "conn %s should receive", c.ID)
		assert.Equal(t, "hello", f.Event)
	}
}

func TestBroadcasterBroadcastExcept(t *testing.T) {
	b := NewBroadcaster()
	c1 := b.Register("c1")
	c2 := b.Register("c2")

	b.BroadcastExcept("c1", Frame{Event: "hello"})

	_, ok := tryRecv(c1)
	assert.False(t, ok, "excluded conn should not receive")
	_, ok = tryRecv(c2)
	assert.True(t, ok)
}

func TestBroadcasterUnregister(t *testing.T) {
	b := NewBroadcaster()
	c1 := b.Register("c1")
	assert.Equal(t, 1, b.Size())

	b.Unregister("c1")
	assert.Equal(t, 0, b.Size())

	select {
	case <-c1.Done():
	default:
		t.Fatal("done channel should be closed after unregister")
	}

	// 注销后定点投递失败，不 panic
	assert.False(t, b.SendTo("c1", Frame{Event: "ping"}))
	b.BroadcastAll(Frame{Event: "hello"})

	// 重复注销无害
	b.Unregister("c1")
}

func TestBroadcasterDropOnFullBuffer(t *testing.T) {
	b := NewBroadcaster()
	c1 := b.Register("c1")

	// 没有写协程排空，塞满缓冲后继续投递应丢帧而不是阻塞
	for i := 0; i < defaultOutboundBuffer+10; i++ {
		b.BroadcastAll(Frame{Event: "flood"})
	}

	n := 0
	for {
		if _, ok := tryRecv(c1); !ok {
			break
		}
		n++
	}
	assert.Equal(t, defaultOutboundBuffer, n)
}
