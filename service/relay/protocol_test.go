package relay

import (
	msgstore "MProject/module/chat/message"
	errs "MProject/tools/errs"
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore 记录 Append 调用，可注入失败
type fakeStore struct {
	mu      sync.Mutex
	seq     int
	calls   []string
	failErr error
}

func (s *fakeStore) Append(_ context.Context, senderID, receiverID, content string) (*msgstore.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, senderID+"->"+receiverID)
	if s.failErr != nil {
		return nil, s.failErr
	}
	s.seq++
	return &msgstore.Message{
		ID:         "m" + strconv.Itoa(s.seq),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  int64(1700000000000 + s.seq),
	}, nil
}

func (s *fakeStore) appendCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newProtocolFixture() (*fakeStore, *Registry, *Broadcaster, *Protocol) {
	store := &fakeStore{}
	reg := NewRegistry()
	bcast := NewBroadcaster()
	return store, reg, bcast, NewProtocol(store, reg, bcast)
}

func TestRelayDeliversAndAcks(t *testing.T) {
	store, reg, bcast, p := newProtocolFixture()
	sender := bcast.Register("cs")
	receiver := bcast.Register("cr")
	reg.Bind("alice", "cs")
	reg.Bind("bob", "cr")

	p.Relay(context.Background(), "cs", "alice", "bob", "hey")

	require.Equal(t, 1, store.appendCount())

	f, ok := tryRecv(receiver)
	require.True(t, ok)
	assert.Equal(t, EvtMessageDelivered, f.Event)
	msg := f.Data.(*msgstore.Message)
	assert.Equal(t, "alice", msg.SenderID)
	assert.Equal(t, "hey", msg.Content)
	assert.NotEmpty(t, msg.ID)

	f, ok = tryRecv(sender)
	require.True(t, ok)
	assert.Equal(t, EvtMessageAcked, f.Event)
	// 确认帧里带的是同一条已落库消息
	assert.Equal(t, msg.ID, f.Data.(*msgstore.Message).ID)
}

func TestRelayReceiverOffline(t *testing.T) {
	store, reg, bcast, p := newProtocolFixture()
	sender := bcast.Register("cs")
	reg.Bind("alice", "cs")

	p.Relay(context.Background(), "cs", "alice", "bob", "hey")

	// 落库照常，发送方照样拿到确认
	require.Equal(t, 1, store.appendCount())
	f, ok := tryRecv(sender)
	require.True(t, ok)
	assert.Equal(t, EvtMessageAcked, f.Event)
}

func TestRelayValidation(t *testing.T) {
	store, _, bcast, p := newProtocolFixture()
	sender := bcast.Register("cs")
	other := bcast.Register("co")

	for _, bad := range []struct{ s, r, c string }{
		{"", "bob", "hey"},
		{"alice", "", "hey"},
		{"alice", "bob", ""},
	} {
		p.Relay(context.Background(), "cs", bad.s, bad.r, bad.c)
	}

	// 校验失败不碰存储
	assert.Equal(t, 0, store.appendCount())

	for i := 0; i < 3; i++ {
		f, ok := tryRecv(sender)
		require.True(t, ok)
		assert.Equal(t, EvtMessageFailed, f.Event)
		assert.Equal(t, "senderId, receiverId and content are required", f.Data)
	}
	// 错误只回给发送方
	_, ok := tryRecv(other)
	assert.False(t, ok)
}

func TestRelayPersistFailure(t *testing.T) {
	store, reg, bcast, p := newProtocolFixture()
	sender := bcast.Register("cs")
	receiver := bcast.Register("cr")
	reg.Bind("bob", "cr")
	store.failErr = errs.ErrMessagePersist.WrapMsg("insert message", "cause", "connection reset")

	p.Relay(context.Background(), "cs", "alice", "bob", "hey")

	// 落库失败：不投递也不确认，只有 message-failed 回发送方
	_, ok := tryRecv(receiver)
	assert.False(t, ok)

	f, ok := tryRecv(sender)
	require.True(t, ok)
	assert.Equal(t, EvtMessageFailed, f.Event)
	assert.Contains(t, f.Data.(string), "insert message")

	_, ok = tryRecv(sender)
	assert.False(t, ok, "no ack after persist failure")
}

func TestRelayPersistBeforeDeliver(t *testing.T) {
	store := &fakeStore{}
	reg := NewRegistry()
	bcast := NewBroadcaster()
	p := NewProtocol(store, reg, bcast)

	receiver := bcast.Register("cr")
	reg.Bind("bob", "cr")

	p.Relay(context.Background(), "cs", "alice", "bob", "hey")

	// 接收方拿到帧的时刻，Append 一定已经发生过
	f, ok := tryRecv(receiver)
	require.True(t, ok)
	require.Equal(t, EvtMessageDelivered, f.Event)
	assert.Equal(t, []string{"alice->bob"}, store.calls)
}
