package relay

import (
	"MProject/logger"
	"sync"
)

const defaultOutboundBuffer = 256

// Conn 一条连接的出站端：缓冲队列由写协程（ws_server）排空。
// 满了就丢帧（presence 类事件丢了可以被下一次快照覆盖，不值得阻塞别人）。
type Conn struct {
	ID string

	out  chan Frame
	done chan struct{}
	once sync.Once
}

// Out 写协程从这里取帧
func (c *Conn) Out() <-chan Frame { return c.out }

// Done 连接注销后关闭
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) close() {
	c.once.Do(func() { close(c.done) })
}

// push 非阻塞投递；连接已注销或队列满都算投递失败
func (c *Conn) push(f Frame) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- f:
		return true
	case <-c.done:
		return false
	default:
		logger.Warnf("[Broadcaster] outbound full, drop event=%s conn=%s", f.Event, c.ID)
		return false
	}
}

// Broadcaster 连接表 + 两个发送原语。自身不持有任何业务状态。
type Broadcaster struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{conns: make(map[string]*Conn)}
}

// Register 登记新连接，返回其出站端
func (b *Broadcaster) Register(connID string) *Conn {
	c := &Conn{
		ID:   connID,
		out:  make(chan Frame, defaultOutboundBuffer),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.conns[connID] = c
	b.mu.Unlock()
	return c
}

// Unregister 注销连接；重复调用无害
func (b *Broadcaster) Unregister(connID string) {
	b.mu.Lock()
	c, ok := b.conns[connID]
	if ok {
		delete(b.conns, connID)
	}
	b.mu.Unlock()
	if ok {
		c.close()
	}
}

// BroadcastAll 对所有在册连接 best-effort 投递，不保证接收方之间的顺序
func (b *Broadcaster) BroadcastAll(f Frame) {
	b.mu.RLock()
	targets := make([]*Conn, 0, len(b.conns))
	for _, c := range b.conns {
		targets = append(targets, c)
	}
	b.mu.RUnlock()

	for _, c := range targets {
		c.push(f)
	}
}

// BroadcastExcept 除指定连接外全体投递（例如 user-joined 不必发给刚加入的人）
func (b *Broadcaster) BroadcastExcept(exceptConnID string, f Frame) {
	b.mu.RLock()
	targets := make([]*Conn, 0, len(b.conns))
	for id, c := range b.conns {
		if id == exceptConnID {
			continue
		}
		targets = append(targets, c)
	}
	b.mu.RUnlock()

	for _, c := range targets {
		c.push(f)
	}
}

// SendTo 定点投递；连接已关是预期内的竞态，静默返回 false 而不是报错
func (b *Broadcaster) SendTo(connID string, f Frame) bool {
	b.mu.RLock()
	c, ok := b.conns[connID]
	b.mu.RUnlock()
	if !ok {
		return false
	}
	return c.push(f)
}

// Size 在册连接数
func (b *Broadcaster) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.conns)
}
