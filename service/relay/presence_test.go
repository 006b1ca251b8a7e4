package relay

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryBindUnique(t *testing.T) {
	r := NewRegistry()

	prev, displaced := r.Bind("u1", "c1")
	require.False(t, displaced)
	require.Empty(t, prev)

	// 同一用户重连：替换而不是追加
	prev, displaced = r.Bind("u1", "c2")
	require.True(t, displaced)
	assert.Equal(t, "c1", prev)

	assert.Equal(t, 1, r.OnlineCount())
	connID, ok := r.LookupConn("u1")
	require.True(t, ok)
	assert.Equal(t, "c2", connID)
}

func TestRegistryBindEmptyArgs(t *testing.T) {
	r := NewRegistry()
	_, displaced := r.Bind("", "c1")
	assert.False(t, displaced)
	_, displaced = r.Bind("u1", "")
	assert.False(t, displaced)
	assert.Equal(t, 0, r.OnlineCount())
}

func TestRegistrySnapshotAfterManyBinds(t *testing.T) {
	r := NewRegistry()
	r.Bind("u1", "c1")
	r.Bind("u2", "c2")
	r.Bind("u3", "c3")
	// u2 重连两次，在线表里仍然只有一条
	r.Bind("u2", "c4")
	r.Bind("u2", "c5")

	online := r.SnapshotOnline()
	sort.Strings(online)
	assert.Equal(t, []string{"u1", "u2", "u3"}, online)
	assert.Equal(t, 3, r.OnlineCount())
}

func TestRegistryUnbindByConn(t *testing.T) {
	r := NewRegistry()
	r.Bind("u1", "c1")

	uid, ok := r.Unbind("c1")
	require.True(t, ok)
	assert.Equal(t, "u1", uid)
	assert.Equal(t, 0, r.OnlineCount())

	// 再 unbind 同一个 conn：什么都摘不到
	_, ok = r.Unbind("c1")
	assert.False(t, ok)
}

func TestRegistryStaleUnbindAfterRebind(t *testing.T) {
	r := NewRegistry()
	r.Bind("u1", "c1")
	r.Bind("u1", "c2") // c1 被顶掉

	// 旧连接断线：在线表里已经没有它，不能影响新连接的条目
	_, ok := r.Unbind("c1")
	assert.False(t, ok)

	connID, ok := r.LookupConn("u1")
	require.True(t, ok)
	assert.Equal(t, "c2", connID)
}

func TestRegistryActivity(t *testing.T) {
	r := NewRegistry()
	r.Bind("u1", "c1")

	// bind 后默认 Idle
	entries := r.SnapshotActivities()
	require.Len(t, entries, 1)
	assert.Equal(t, ActivityIdle, entries[0].Activity)

	require.True(t, r.SetActivity("u1", "Playing Numb by Linkin Park"))
	entries = r.SnapshotActivities()
	assert.Equal(t, "Playing Numb by Linkin Park", entries[0].Activity)

	// 不在线用户：no-op
	assert.False(t, r.SetActivity("ghost", "anything"))

	// 重连后活动重置回 Idle
	r.Bind("u1", "c2")
	entries = r.SnapshotActivities()
	assert.Equal(t, ActivityIdle, entries[0].Activity)
}

func TestRegistrySnapshotIsCopy(t *testing.T) {
	r := NewRegistry()
	r.Bind("u1", "c1")

	online := r.SnapshotOnline()
	online[0] = "mutated"

	again := r.SnapshotOnline()
	assert.Equal(t, []string{"u1"}, again)
}
