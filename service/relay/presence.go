package relay

import (
	"sync"
)

// ActivityIdle 新上线用户的默认活动标签
const ActivityIdle = "Idle"

type ActivityEntry struct {
	UserID   string `json:"userId"`
	Activity string `json:"activity"`
}

type presenceEntry struct {
	userID   string
	connID   string
	activity string
}

// Registry 在线表：userId 维度唯一（同一用户重连是“替换”不是“追加”）。
// 所有操作都要求并发安全；快照只返回拷贝，不暴露内部存储。
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]*presenceEntry
	byConn map[string]string // connID -> userID
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]*presenceEntry),
		byConn: make(map[string]string),
	}
}

// Bind 插入或替换该用户的在线条目，活动标签重置为 Idle。
// 返回被顶掉的旧 connID（如有）——是否踢掉旧连接由调用方决策。
func (r *Registry) Bind(userID, connID string) (prevConnID string, displaced bool) {
	if userID == "" || connID == "" {
		return "", false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byUser[userID]; ok {
		prevConnID = old.connID
		displaced = true
		delete(r.byConn, old.connID)
	}
	r.byUser[userID] = &presenceEntry{
		userID:   userID,
		connID:   connID,
		activity: ActivityIdle,
	}
	r.byConn[connID] = userID
	return prevConnID, displaced
}

// SetActivity 更新活动标签；用户不在线时为 no-op（活动更新可能跟断线赛跑，不算错）。
func (r *Registry) SetActivity(userID, activity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byUser[userID]
	if !ok {
		return false
	}
	e.activity = activity
	return true
}

// Unbind 按 connID 摘除条目（断线时只知道连接，不知道用户；
// 且用户可能已经用新 connID 重连，此时旧连接摘不到任何条目）。
func (r *Registry) Unbind(connID string) (userID string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok = r.byConn[connID]
	if !ok {
		return "", false
	}
	delete(r.byConn, connID)
	delete(r.byUser, userID)
	return userID, true
}

// LookupConn 查某用户当前连接
func (r *Registry) LookupConn(userID string) (connID string, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byUser[userID]
	if !ok {
		return "", false
	}
	return e.connID, true
}

// SnapshotOnline 当前在线用户快照（拷贝，无实时性保证）
func (r *Registry) SnapshotOnline() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byUser))
	for uid := range r.byUser {
		out = append(out, uid)
	}
	return out
}

// SnapshotActivities 全量 (userId, activity) 快照
func (r *Registry) SnapshotActivities() []ActivityEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ActivityEntry, 0, len(r.byUser))
	for _, e := range r.byUser {
		out = append(out, ActivityEntry{UserID: e.userID, Activity: e.activity})
	}
	return out
}

// OnlineCount 在线人数（统计/日志用）
func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
