package relay

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	gw    *Gateway
	store *fakeStore
}

func newSessionFixture() *sessionFixture {
	store := &fakeStore{}
	return &sessionFixture{gw: NewGateway(store, nil), store: store}
}

// join 注册连接 + 开会话 + 发 bind，返回 (会话, 出站端)
func (fx *sessionFixture) join(t *testing.T, connID, userID string) (*Session, *Conn) {
	t.Helper()
	c := fx.gw.Broadcaster().Register(connID)
	s := fx.gw.OpenSession(connID, "")
	s.HandleFrame(context.Background(), &InboundFrame{
		Event: EvtIdentityBind,
		Data:  map[string]any{"userId": userID},
	})
	require.Equal(t, SessionActive, s.State())
	return s, c
}

func TestSessionBindBroadcasts(t *testing.T) {
	fx := newSessionFixture()
	_, c1 := fx.join(t, "c1", "alice")

	// 首位用户：没人可通知，自己拿到空名单 + 只含自己的活动快照
	evts := []string{}
	var snapshot Frame
	for {
		f, ok := tryRecv(c1)
		if !ok {
			break
		}
		evts = append(evts, f.Event)
		if f.Event == EvtOnlineSnapshot {
			snapshot = f
		}
	}
	assert.Equal(t, []string{EvtOnlineSnapshot, EvtActivitySnapshot}, evts)
	assert.Equal(t, []string{}, snapshot.Data)

	// 第二位加入
	_, c2 := fx.join(t, "c2", "bob")

	// alice 收到 user-joined + 新的活动快照
	f, ok := tryRecv(c1)
	require.True(t, ok)
	assert.Equal(t, EvtUserJoined, f.Event)
	assert.Equal(t, "bob", f.Data)
	f, ok = tryRecv(c1)
	require.True(t, ok)
	assert.Equal(t, EvtActivitySnapshot, f.Event)

	// bob 的在线名单里有 alice、没有自己
	f, ok = tryRecv(c2)
	require.True(t, ok)
	require.Equal(t, EvtOnlineSnapshot, f.Event)
	assert.Equal(t, []string{"alice"}, f.Data)

	f, ok = tryRecv(c2)
	require.True(t, ok)
	require.Equal(t, EvtActivitySnapshot, f.Event)
	pairs := f.Data.([][2]string)
	require.Len(t, pairs, 2)
	sort.Slice(pairs, func(i, j int) bool { return pairs[i][0] < pairs[j][0] })
	assert.Equal(t, [2]string{"alice", ActivityIdle}, pairs[0])
	assert.Equal(t, [2]string{"bob", ActivityIdle}, pairs[1])
}

func TestSessionDropsPreBindEvents(t *testing.T) {
	fx := newSessionFixture()
	c := fx.gw.Broadcaster().Register("c1")
	s := fx.gw.OpenSession("c1", "")

	s.HandleFrame(context.Background(), &InboundFrame{
		Event: EvtMessageSend,
		Data:  map[string]any{"senderId": "alice", "receiverId": "bob", "content": "hi"},
	})
	s.HandleFrame(context.Background(), &InboundFrame{
		Event: EvtActivityUpdate,
		Data:  map[string]any{"userId": "alice", "activity": "x"},
	})

	assert.Equal(t, SessionUnbound, s.State())
	assert.Equal(t, 0, fx.store.appendCount())
	_, ok := tryRecv(c)
	assert.False(t, ok, "pre-bind events should produce nothing")
}

func TestSessionBindAuthMismatch(t *testing.T) {
	fx := newSessionFixture()
	fx.gw.Broadcaster().Register("c1")
	s := fx.gw.OpenSession("c1", "alice")

	s.HandleFrame(context.Background(), &InboundFrame{
		Event: EvtIdentityBind,
		Data:  map[string]any{"userId": "mallory"},
	})

	// 令牌身份和 bind 不一致：丢弃，会话留在 Unbound
	assert.Equal(t, SessionUnbound, s.State())
	assert.Equal(t, 0, fx.gw.Registry().OnlineCount())
}

func TestSessionDuplicateLogin(t *testing.T) {
	fx := newSessionFixture()
	s1, c1 := fx.join(t, "c1", "alice")
	drainEvents(c1)

	// 同一用户从第二条连接 bind：在线表换成新连接，旧连接不被踢
	_, c2 := fx.join(t, "c2", "alice")
	drainEvents(c2)

	connID, ok := fx.gw.Registry().LookupConn("alice")
	require.True(t, ok)
	assert.Equal(t, "c2", connID)
	assert.Equal(t, 1, fx.gw.Registry().OnlineCount())

	// 旧连接之后断线：在线表里已没有它，不得广播 user-left
	s1.Terminate(context.Background())
	evts := drainEvents(c2)
	assert.NotContains(t, evts, EvtUserLeft)
	assert.Equal(t, 1, fx.gw.Registry().OnlineCount())
}

func TestSessionActivityUpdate(t *testing.T) {
	fx := newSessionFixture()
	s1, c1 := fx.join(t, "c1", "alice")
	_, c2 := fx.join(t, "c2", "bob")
	drainEvents(c1)
	drainEvents(c2)

	s1.HandleFrame(context.Background(), &InboundFrame{
		Event: EvtActivityUpdate,
		Data:  map[string]any{"userId": "alice", "activity": "Playing Numb by Linkin Park"},
	})

	// 所有人（含本人）都收到 activity-changed
	for _, c := range []*Conn{c1, c2} {
		f, ok := tryRecv(c)
		require.True(t, ok)
		require.Equal(t, EvtActivityChanged, f.Event)
		data := f.Data.(map[string]string)
		assert.Equal(t, "alice", data["userId"])
		assert.Equal(t, "Playing Numb by Linkin Park", data["activity"])
	}
}

func TestSessionActivityIdempotent(t *testing.T) {
	fx := newSessionFixture()
	s, c1 := fx.join(t, "c1", "alice")
	drainEvents(c1)

	// 同一标签重复上报：每次都广播，但注册表状态与只设置一次等价
	for i := 0; i < 2; i++ {
		s.HandleFrame(context.Background(), &InboundFrame{
			Event: EvtActivityUpdate,
			Data:  map[string]any{"userId": "alice", "activity": "Playing X"},
		})
	}

	evts := drainEvents(c1)
	assert.Equal(t, []string{EvtActivityChanged, EvtActivityChanged}, evts)

	entries := fx.gw.Registry().SnapshotActivities()
	require.Len(t, entries, 1)
	assert.Equal(t, "Playing X", entries[0].Activity)
}

func TestSessionActivityUnknownUser(t *testing.T) {
	fx := newSessionFixture()
	s, c1 := fx.join(t, "c1", "alice")
	drainEvents(c1)

	s.HandleFrame(context.Background(), &InboundFrame{
		Event: EvtActivityUpdate,
		Data:  map[string]any{"userId": "ghost", "activity": "x"},
	})

	// 不在线的用户：静默丢弃，不广播
	_, ok := tryRecv(c1)
	assert.False(t, ok)
}

func TestSessionMalformedSend(t *testing.T) {
	fx := newSessionFixture()
	s, c1 := fx.join(t, "c1", "alice")
	drainEvents(c1)

	s.HandleFrame(context.Background(), &InboundFrame{
		Event: EvtMessageSend,
		Data:  map[string]any{"senderId": map[string]any{"bogus": true}},
	})

	f, ok := tryRecv(c1)
	require.True(t, ok)
	assert.Equal(t, EvtMessageFailed, f.Event)
	assert.Equal(t, 0, fx.store.appendCount())
}

func TestSessionSendEndToEnd(t *testing.T) {
	fx := newSessionFixture()
	s, c1 := fx.join(t, "c1", "alice")
	_, c2 := fx.join(t, "c2", "bob")
	drainEvents(c1)
	drainEvents(c2)

	s.HandleFrame(context.Background(), &InboundFrame{
		Event: EvtMessageSend,
		Data:  map[string]any{"senderId": "alice", "receiverId": "bob", "content": "hey bob"},
	})

	f, ok := tryRecv(c2)
	require.True(t, ok)
	assert.Equal(t, EvtMessageDelivered, f.Event)

	f, ok = tryRecv(c1)
	require.True(t, ok)
	assert.Equal(t, EvtMessageAcked, f.Event)

	assert.Equal(t, 1, fx.store.appendCount())
}

func TestSessionTerminate(t *testing.T) {
	fx := newSessionFixture()
	s1, c1 := fx.join(t, "c1", "alice")
	_, c2 := fx.join(t, "c2", "bob")
	drainEvents(c1)
	drainEvents(c2)

	s1.Terminate(context.Background())

	assert.Equal(t, SessionTerminated, s1.State())
	assert.Equal(t, 1, fx.gw.Registry().OnlineCount())

	f, ok := tryRecv(c2)
	require.True(t, ok)
	assert.Equal(t, EvtUserLeft, f.Event)
	assert.Equal(t, "alice", f.Data)

	// 终态后事件不再处理
	s1.HandleFrame(context.Background(), &InboundFrame{
		Event: EvtMessageSend,
		Data:  map[string]any{"senderId": "alice", "receiverId": "bob", "content": "late"},
	})
	assert.Equal(t, 0, fx.store.appendCount())

	// 幂等
	s1.Terminate(context.Background())
}

func TestSessionTerminateBeforeBind(t *testing.T) {
	fx := newSessionFixture()
	_, c1 := fx.join(t, "c1", "alice")
	drainEvents(c1)

	fx.gw.Broadcaster().Register("c2")
	s2 := fx.gw.OpenSession("c2", "")
	s2.Terminate(context.Background())

	// 从未 bind 的连接断线：没有 user-left
	evts := drainEvents(c1)
	assert.NotContains(t, evts, EvtUserLeft)
}
