package relay

import (
	"MProject/logger"
	"context"
)

// PresenceMirror 在线状态写穿（redis），best-effort：
// 失败只打日志，registry 始终是唯一权威。
type PresenceMirror interface {
	Online(ctx context.Context, userID, connID, activity string) error
	SetActivity(ctx context.Context, userID, activity string) error
	Offline(ctx context.Context, userID, connID string) error
}

// Gateway 把 relay 各部件拢在一起；每条连接开一个 Session。
type Gateway struct {
	reg      *Registry
	bcast    *Broadcaster
	protocol *Protocol
	mirror   PresenceMirror // 可为 nil
}

func NewGateway(store MessageStore, mirror PresenceMirror) *Gateway {
	reg := NewRegistry()
	bcast := NewBroadcaster()
	return &Gateway{
		reg:      reg,
		bcast:    bcast,
		protocol: NewProtocol(store, reg, bcast),
		mirror:   mirror,
	}
}

func (g *Gateway) Registry() *Registry       { return g.reg }
func (g *Gateway) Broadcaster() *Broadcaster { return g.bcast }

// ===== 会话状态机 =====

type SessionState int

const (
	SessionUnbound SessionState = iota
	SessionActive
	SessionTerminated
)

// Session 一条连接的生命周期：Unbound -> Active -> Terminated。
// 事件由该连接的读循环串行送入，状态字段不需要加锁。
type Session struct {
	gw     *Gateway
	connID string

	state      SessionState
	userID     string
	authUserID string // 握手阶段校验出的身份；空串表示未校验
}

// OpenSession 连接升级成功后调用；authUserID 传空表示握手没带可验令牌
func (g *Gateway) OpenSession(connID, authUserID string) *Session {
	return &Session{
		gw:         g,
		connID:     connID,
		state:      SessionUnbound,
		authUserID: authUserID,
	}
}

func (s *Session) ConnID() string      { return s.connID }
func (s *Session) State() SessionState { return s.state }
func (s *Session) UserID() string      { return s.userID }

// HandleFrame 入站事件分发。Unbound 阶段除 bind 外全部丢弃
// （presence 按 userId 记账，身份未知时没有可做的事，这是预期行为不是错误）。
func (s *Session) HandleFrame(ctx context.Context, f *InboundFrame) {
	if f == nil {
		return
	}
	switch s.state {
	case SessionTerminated:
		return
	case SessionUnbound:
		if f.Event != EvtIdentityBind {
			logger.Debugf("[Session] drop pre-bind event=%s conn=%s", f.Event, s.connID)
			return
		}
		s.handleBind(ctx, f)
	case SessionActive:
		switch f.Event {
		case EvtActivityUpdate:
			s.handleActivity(ctx, f)
		case EvtMessageSend:
			s.handleSend(ctx, f)
		default:
			logger.Debugf("[Session] drop event=%s state=Active conn=%s", f.Event, s.connID)
		}
	}
}

func (s *Session) handleBind(ctx context.Context, f *InboundFrame) {
	p, err := ExtractBindPayload(f)
	if err != nil || p.UserID == "" {
		logger.Warnf("[Session] bad bind payload conn=%s err=%v", s.connID, err)
		return
	}
	// 握手已验明身份时，bind 必须一致
	if s.authUserID != "" && p.UserID != s.authUserID {
		logger.Warnf("[Session] bind user mismatch conn=%s token=%s bind=%s", s.connID, s.authUserID, p.UserID)
		return
	}

	prevConnID, displaced := s.gw.reg.Bind(p.UserID, s.connID)
	s.userID = p.UserID
	s.state = SessionActive

	if displaced {
		// 重复登录：旧连接不主动踢，由它自己的断线收尾（那时在线表里已没有它，
		// 不会再广播 user-left）。
		logger.Warnf("[Session] duplicate login user=%s stale_conn=%s new_conn=%s", p.UserID, prevConnID, s.connID)
	}

	if s.gw.mirror != nil {
		if err := s.gw.mirror.Online(ctx, p.UserID, s.connID, ActivityIdle); err != nil {
			logger.Warnf("[Session] presence mirror online failed user=%s err=%v", p.UserID, err)
		}
	}

	// (a) 其他人收到 user-joined
	s.gw.bcast.BroadcastExcept(s.connID, BuildUserJoined(p.UserID))

	// (b) 自己收到在线名单（不含自己）
	online := s.gw.reg.SnapshotOnline()
	others := make([]string, 0, len(online))
	for _, uid := range online {
		if uid != p.UserID {
			others = append(others, uid)
		}
	}
	s.gw.bcast.SendTo(s.connID, BuildOnlineSnapshot(others))

	// (c) 所有人收到全量活动快照
	s.gw.bcast.BroadcastAll(BuildActivitySnapshot(s.gw.reg.SnapshotActivities()))

	logger.Infof("[Session] bound user=%s conn=%s online=%d", p.UserID, s.connID, s.gw.reg.OnlineCount())
}

func (s *Session) handleActivity(ctx context.Context, f *InboundFrame) {
	p, err := ExtractActivityPayload(f)
	if err != nil {
		logger.Debugf("[Session] bad activity payload conn=%s err=%v", s.connID, err)
		return
	}
	uid := p.UserID
	if uid == "" {
		uid = s.userID
	}
	if !s.gw.reg.SetActivity(uid, p.Activity) {
		// 活动更新跟断线赛跑：用户已不在线，静默丢弃
		return
	}
	if s.gw.mirror != nil {
		if err := s.gw.mirror.SetActivity(ctx, uid, p.Activity); err != nil {
			logger.Warnf("[Session] presence mirror activity failed user=%s err=%v", uid, err)
		}
	}
	s.gw.bcast.BroadcastAll(BuildActivityChanged(uid, p.Activity))
}

func (s *Session) handleSend(ctx context.Context, f *InboundFrame) {
	p, err := ExtractSendPayload(f)
	if err != nil {
		s.gw.bcast.SendTo(s.connID, BuildMessageFailed("malformed message-send payload"))
		return
	}
	s.gw.protocol.Relay(ctx, s.connID, p.SenderID, p.ReceiverID, p.Content)
}

// Terminate 传输层断线时调用（任何先前状态都合法）。终态，之后事件不再处理。
// 正在飞行中的 Relay 调用不被打断：落库照常完成，投递/确认按“断了就丢”处理。
func (s *Session) Terminate(ctx context.Context) {
	if s.state == SessionTerminated {
		return
	}
	prevState := s.state
	s.state = SessionTerminated

	s.gw.bcast.Unregister(s.connID)

	userID, ok := s.gw.reg.Unbind(s.connID)
	if !ok {
		// 从未 bind，或已被同用户的新连接顶掉——都不广播
		logger.Debugf("[Session] terminate without presence conn=%s state=%d", s.connID, prevState)
		return
	}

	if s.gw.mirror != nil {
		if err := s.gw.mirror.Offline(ctx, userID, s.connID); err != nil {
			logger.Warnf("[Session] presence mirror offline failed user=%s err=%v", userID, err)
		}
	}

	s.gw.bcast.BroadcastAll(BuildUserLeft(userID))
	logger.Infof("[Session] terminated user=%s conn=%s online=%d", userID, s.connID, s.gw.reg.OnlineCount())
}
