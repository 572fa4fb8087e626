package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/wfunc/maze-game/internal/repository"
	"github.com/wfunc/maze-game/internal/service"
	ws "github.com/wfunc/maze-game/internal/websocket"
	"go.uber.org/zap"
)

// WebSocket关闭码
const (
	closeInvalidToken    = 4001
	closeNoActiveSession = 4002
)

// WebSocketHandler 实时连接处理器
type WebSocketHandler struct {
	hub         *ws.Hub
	repos       *repository.Manager
	authService *service.AuthService
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// NewWebSocketHandler 创建实时连接处理器
func NewWebSocketHandler(hub *ws.Hub, repos *repository.Manager, authService *service.AuthService, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		repos:       repos,
		authService: authService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// 生产环境应该检查Origin
				return true
			},
		},
		logger: logger,
	}
}

// Connect 建立游戏实时连接，要求持有效JWT且存在激活的游戏会话
func (h *WebSocketHandler) Connect(c *gin.Context) {
	token := c.Query("token")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket升级失败", zap.Error(err))
		return
	}

	user, err := h.authService.ValidateToken(c.Request.Context(), token)
	if err != nil {
		h.closeWith(conn, closeInvalidToken, "无效的令牌")
		return
	}

	sessions, err := h.repos.GameSession().FindActiveByUser(c.Request.Context(), user.ID)
	if err != nil || len(sessions) == 0 {
		h.closeWith(conn, closeNoActiveSession, "没有激活的游戏会话")
		return
	}

	// 存在多个激活会话时绑定最近开始的那个
	session := sessions[len(sessions)-1]

	client := ws.NewClient(h.hub, conn, user.ID, user.Username,
		session.SessionToken, session.MazeID, session.CurrentRoomX, session.CurrentRoomY)

	// 附带角色外观快照，供进房广播使用
	if character, err := h.repos.Character().FindByUserID(c.Request.Context(), user.ID); err == nil {
		client.Character = character.Snapshot()
	}

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	h.logger.Info("WebSocket连接建立",
		zap.String("client_id", client.ID),
		zap.Uint("user_id", user.ID),
		zap.Uint("maze_id", session.MazeID))
}

// closeWith 发送关闭帧后断开连接
func (h *WebSocketHandler) closeWith(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), deadline)
	_ = conn.Close()
}

// OnlineCount 获取在线人数
func (h *WebSocketHandler) OnlineCount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"online_count": h.hub.GetOnlineCount(),
	})
}
