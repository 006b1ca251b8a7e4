package relay

import (
	"context"
	"net"
	"net/http"
	"time"

	"MProject/logger"
	midsec "MProject/middleware/security"
	"MProject/tools/ids"
	safe "MProject/tools/safe"

	"github.com/emicklei/go-restful/v3/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgraded = websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096, CheckOrigin: func(r *http.Request) bool { return true }}

const writeDeadline = 5 * time.Second

type ServerConf struct {
	Secret []byte // 非空则校验握手 query 里的 token；relay 自己不做凭证校验，只消费结果
}

type Server struct {
	gw   *Gateway
	conf ServerConf
}

func NewServer(gw *Gateway, conf ServerConf) *Server {
	return &Server{gw: gw, conf: conf}
}

func (s *Server) Gateway() *Gateway { return s.gw }

// HandleWS ===== WebSocket 入口：升级、起写协程、读循环、断线收尾 =====
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgraded.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// 常见：非 WebSocket 请求/握手失败
		logger.Infof("[HandleWS] upgrade websocket error: %v", err)
		return
	}
	defer func(ws *websocket.Conn) {
		if err := ws.Close(); err != nil {
			logger.Debugf("[HandleWS] close websocket error: %v", err)
		}
	}(ws)

	// 握手带了 token 就先验出身份，后面 bind 必须对得上
	authUserID := ""
	if len(s.conf.Secret) > 0 {
		if token := c.Query("token"); token != "" {
			uid, verr := midsec.VerifyToken(s.conf.Secret, token)
			if verr != nil {
				logger.Warnf("[HandleWS] handshake token invalid: %v", verr)
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid token"),
					time.Now().Add(writeDeadline))
				return
			}
			authUserID = uid
		}
	}

	connID := ids.GenerateConnID()
	conn := s.gw.bcast.Register(connID)
	session := s.gw.OpenSession(connID, authUserID)
	logger.Infof("[HandleWS] connected conn=%s remote=%s", connID, ws.RemoteAddr())

	done := make(chan struct{})
	// ---- 写协程：排空出站队列；出错只关 socket，读循环随之退出 ----
	go func() {
		defer close(done)
		defer safe.Recover("HandleWS.writer")
		for {
			select {
			case f := <-conn.Out():
				_ = ws.SetWriteDeadline(time.Now().Add(writeDeadline))
				if werr := ws.WriteJSON(f); werr != nil {
					logger.Debugf("[HandleWS] write failed conn=%s err=%v", connID, werr)
					_ = ws.Close()
					return
				}
			case <-conn.Done():
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeDeadline))
				return
			}
		}
	}()

	// ---- 读循环：只读，不写；出错即退出（写协程收尾） ----
	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[WS] peer closed conn=%s err=%v", connID, rerr)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[WS] read timeout conn=%s err=%v", connID, rerr)
			} else {
				logger.Infof("[WS] read err conn=%s err=%v", connID, rerr)
			}
			break
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		// 解析业务帧
		msg, perr := ParseFrameJSON(data)
		if perr != nil {
			// 只打印简短样本
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			log.Printf("[WS] ParseFrameJSON err conn=%s err=%v sample=%q len=%d",
				connID, perr, sample, len(data))
			continue
		}

		session.HandleFrame(c.Request.Context(), msg)
	}

	// ---- 退出阶段：下线、广播 user-left、等写协程收尾 ----
	{
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		session.Terminate(ctx)
		cancel()
	}

	<-done // 等写协程真正退出再关 ws
}
