package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/LENAX/akshare-warehouse/pkg/api/dto"
	"github.com/LENAX/akshare-warehouse/pkg/core/events"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
)

// WebSocketHandler 执行状态实时推送
type WebSocketHandler struct {
	subscriber events.Subscriber
	upgrader   websocket.Upgrader
	clients    int32
}

// NewWebSocketHandler 创建WebSocketHandler
func NewWebSocketHandler(subscriber events.Subscriber) *WebSocketHandler {
	return &WebSocketHandler{
		subscriber: subscriber,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Clients 当前连接数
func (h *WebSocketHandler) Clients() int {
	return int(atomic.LoadInt32(&h.clients))
}

// wsConn 串行化同一连接上的写操作
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConn) send(msg *dto.WSMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.conn.WriteJSON(msg)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
}

// Serve 推送执行事件；客户端发送ping（文本或{"type":"ping"}）时回复pong
// GET /ws/executions
func (h *WebSocketHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️ [WebSocket] 升级连接失败: %v", err)
		return
	}
	defer conn.Close()

	atomic.AddInt32(&h.clients, 1)
	defer atomic.AddInt32(&h.clients, -1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := h.subscriber.Subscribe(ctx)
	if err != nil {
		log.Printf("❌ [WebSocket] 订阅事件失败: %v", err)
		return
	}

	ws := &wsConn{conn: conn}
	if err := ws.send(&dto.WSMessage{Type: "connected"}); err != nil {
		return
	}
	log.Printf("✅ [WebSocket] 客户端已连接: %s", c.ClientIP())

	go h.pushEvents(ctx, cancel, ws, ch)
	h.readLoop(ws)
	log.Printf("✅ [WebSocket] 客户端已断开: %s", c.ClientIP())
}

// pushEvents 转发事件并定时发送心跳，写失败时结束连接
func (h *WebSocketHandler) pushEvents(ctx context.Context, cancel context.CancelFunc, ws *wsConn, ch <-chan *events.AcquisitionEvent) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := ws.send(&dto.WSMessage{Type: string(ev.Type), Data: ev}); err != nil {
				ws.conn.Close()
				return
			}
		case <-ticker.C:
			if err := ws.ping(); err != nil {
				ws.conn.Close()
				return
			}
		}
	}
}

func (h *WebSocketHandler) readLoop(ws *wsConn) {
	ws.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.conn.SetPongHandler(func(string) error {
		return ws.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, message, err := ws.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("⚠️ [WebSocket] 读取失败: %v", err)
			}
			return
		}
		ws.conn.SetReadDeadline(time.Now().Add(wsPongWait))

		if isPing(message) {
			if err := ws.send(&dto.WSMessage{Type: "pong"}); err != nil {
				return
			}
		}
	}
}

func isPing(message []byte) bool {
	text := strings.TrimSpace(string(message))
	if strings.EqualFold(text, "ping") {
		return true
	}
	var msg dto.WSMessage
	return json.Unmarshal(message, &msg) == nil && strings.EqualFold(msg.Type, "ping")
}
