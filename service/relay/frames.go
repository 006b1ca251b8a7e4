package relay

import (
	decode "MProject/tools/decode"
	errors "MProject/tools/errs"
	"encoding/json"
	"fmt"
)

// ===== 事件名（闭集，一行对应协议表里一行） =====

const (
	// client -> relay
	EvtIdentityBind   = "identity-bind"
	EvtActivityUpdate = "activity-update"
	EvtMessageSend    = "message-send"

	// relay -> client
	EvtUserJoined       = "user-joined"
	EvtOnlineSnapshot   = "online-snapshot"
	EvtActivitySnapshot = "activity-snapshot"
	EvtActivityChanged  = "activity-changed"
	EvtMessageDelivered = "message-delivered"
	EvtMessageAcked     = "message-acknowledged"
	EvtMessageFailed    = "message-failed"
	EvtUserLeft         = "user-left"
)

// Frame 出站帧：{"event": ..., "data": ...}
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// InboundFrame 入站帧：payload 先落成 map，进状态机前再按事件解码
type InboundFrame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

func ParseFrameJSON(raw []byte) (*InboundFrame, error) {
	frame := &InboundFrame{}
	if err := json.Unmarshal(raw, frame); err != nil {
		return nil, fmt.Errorf("unmarshal frame failed: %w", err)
	}
	if frame.Event == "" {
		return nil, errors.New("frame event is empty")
	}
	return frame, nil
}

// ===== 入站 payload =====

type BindPayload struct {
	UserID string `json:"userId"`
}

type ActivityPayload struct {
	UserID   string `json:"userId"`
	Activity string `json:"activity"`
}

type SendPayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

func ExtractBindPayload(f *InboundFrame) (*BindPayload, error) {
	if f == nil || f.Data == nil {
		return nil, errors.New("nil bind payload")
	}
	return decode.DecodeMap[BindPayload](f.Data)
}

func ExtractActivityPayload(f *InboundFrame) (*ActivityPayload, error) {
	if f == nil || f.Data == nil {
		return nil, errors.New("nil activity payload")
	}
	return decode.DecodeMap[ActivityPayload](f.Data)
}

func ExtractSendPayload(f *InboundFrame) (*SendPayload, error) {
	if f == nil || f.Data == nil {
		return nil, errors.New("nil send payload")
	}
	return decode.DecodeMap[SendPayload](f.Data)
}

// ---- 构造服务端事件帧 ----

func BuildUserJoined(userID string) Frame {
	return Frame{Event: EvtUserJoined, Data: userID}
}

func BuildUserLeft(userID string) Frame {
	return Frame{Event: EvtUserLeft, Data: userID}
}

func BuildOnlineSnapshot(userIDs []string) Frame {
	if userIDs == nil {
		userIDs = []string{}
	}
	return Frame{Event: EvtOnlineSnapshot, Data: userIDs}
}

func BuildActivitySnapshot(entries []ActivityEntry) Frame {
	pairs := make([][2]string, 0, len(entries))
	for _, e := range entries {
		pairs = append(pairs, [2]string{e.UserID, e.Activity})
	}
	return Frame{Event: EvtActivitySnapshot, Data: pairs}
}

func BuildActivityChanged(userID, activity string) Frame {
	return Frame{Event: EvtActivityChanged, Data: map[string]string{
		"userId":   userID,
		"activity": activity,
	}}
}

func BuildMessageFailed(cause string) Frame {
	return Frame{Event: EvtMessageFailed, Data: cause}
}
