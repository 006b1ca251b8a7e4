package relay

import (
	"MProject/logger"
	msgstore "MProject/module/chat/message"
	errs "MProject/tools/errs"
	"context"
)

// MessageStore 持久化边界：relay 只认 append（历史查询走 REST，不进这里）
type MessageStore interface {
	Append(ctx context.Context, senderID, receiverID, content string) (*msgstore.Message, error)
}

// Protocol 单条消息的转发状态机：
// Requested -> Persisted -> (Delivered | Undeliverable) -> Acknowledged
// 核心不变量：先落库再投递——接收方实时看到的消息一定已经能从历史里查到。
type Protocol struct {
	store MessageStore
	reg   *Registry
	bcast *Broadcaster
}

func NewProtocol(store MessageStore, reg *Registry, bcast *Broadcaster) *Protocol {
	return &Protocol{store: store, reg: reg, bcast: bcast}
}

// Relay 处理一次 message-send。
// senderConnID 是发起连接；所有错误只回给发送方，绝不广播。
func (p *Protocol) Relay(ctx context.Context, senderConnID, senderID, receiverID, content string) {
	// 1) 参数校验（调用方错误，只打回发送方）
	if senderID == "" || receiverID == "" || content == "" {
		p.failSender(senderConnID, "senderId, receiverId and content are required")
		return
	}

	// 2) 先持久化；失败即整单失败：不投递、消息不存在
	msg, err := p.store.Append(ctx, senderID, receiverID, content)
	if err != nil {
		logger.Errorf("[Protocol] persist failed sender=%s receiver=%s err=%v", senderID, receiverID, err)
		p.failSender(senderConnID, causeOf(err))
		return
	}

	// 3) 接收方在线就投递；不在线仅保留已落库状态（没有重投队列）
	if connID, ok := p.reg.LookupConn(receiverID); ok {
		if !p.bcast.SendTo(connID, Frame{Event: EvtMessageDelivered, Data: msg}) {
			// 断线跟投递赛跑，预期内，静默
			logger.Debugf("[Protocol] deliver miss receiver=%s conn=%s", receiverID, connID)
		}
	}

	// 4) 无论接收方是否可达，都给发送方确认（带已落库的完整消息）
	p.bcast.SendTo(senderConnID, Frame{Event: EvtMessageAcked, Data: msg})
}

func (p *Protocol) failSender(senderConnID, cause string) {
	p.bcast.SendTo(senderConnID, BuildMessageFailed(cause))
}

// causeOf 提取可读原因：CodeError 取 msg+detail，其他错误取 Error()
func causeOf(err error) string {
	if err == nil {
		return ""
	}
	var codeErr *errs.CodeError
	if unwrapped := errs.Unwrap(err); unwrapped != nil {
		if ce, ok := unwrapped.(*errs.CodeError); ok {
			codeErr = ce
		}
	}
	if codeErr != nil {
		if codeErr.Detail != "" {
			return codeErr.Msg + ": " + codeErr.Detail
		}
		return codeErr.Msg
	}
	return err.Error()
}
