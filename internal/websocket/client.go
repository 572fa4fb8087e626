package websocket

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// 错误定义
var (
	ErrClientNotFound      = errors.New("客户端未找到")
	ErrSessionNotConnected = errors.New("会话未连接")
	ErrSendBufferFull      = errors.New("发送缓冲区已满")
)

// WebSocket配置
const (
	// 写超时
	writeWait = 10 * time.Second

	// 读取pong超时
	pongWait = 60 * time.Second

	// ping发送周期（必须小于pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 最大消息大小
	maxMessageSize = 4 * 1024
)

// 玩家默认视线高度
const defaultPosY = 1.6

// NewClient 创建新客户端
func NewClient(hub *Hub, conn *websocket.Conn, userID uint, username, sessionToken string, mazeID uint, roomX, roomY int) *Client {
	return &Client{
		ID:           uuid.New().String(),
		UserID:       userID,
		Username:     username,
		SessionToken: sessionToken,
		MazeID:       mazeID,
		RoomX:        roomX,
		RoomY:        roomY,
		Hub:          hub,
		Conn:         conn,
		Send:         make(chan []byte, 256),
		pose:         posePayload{PosY: defaultPosY},
	}
}

// ReadPump 读取消息
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Error("WebSocket读取错误",
					zap.String("client_id", c.ID),
					zap.Error(err))
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump 写入消息
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub关闭了通道
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// 批量发送队列中的消息
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// posePayload 房间内三维坐标和朝向
type posePayload struct {
	PosX  float64 `json:"pos_x"`
	PosY  float64 `json:"pos_y"`
	PosZ  float64 `json:"pos_z"`
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
}

// roomChangePayload 房间切换通知
type roomChangePayload struct {
	RoomX int `json:"room_x"`
	RoomY int `json:"room_y"`
}

// chatPayload 聊天消息
type chatPayload struct {
	Message string `json:"message"`
}

// handleMessage 处理接收到的消息
func (c *Client) handleMessage(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.Hub.logger.Error("解析WebSocket消息失败",
			zap.String("client_id", c.ID),
			zap.Error(err))
		c.sendError("消息格式错误")
		c.Close()
		return
	}

	if msg.Type == "" {
		c.Hub.logger.Warn("收到空消息类型",
			zap.String("client_id", c.ID))
		c.sendError("消息类型不能为空")
		c.Close()
		return
	}

	switch msg.Type {
	case MessageTypePing:
		c.handlePing()

	case MessageTypePong:
		c.Hub.logger.Debug("收到pong",
			zap.String("client_id", c.ID))

	case MessageTypePositionUpdate:
		c.handlePositionUpdate(&msg)

	case MessageTypeRoomChange:
		c.handleRoomChange(&msg)

	case MessageTypeChat:
		c.handleChat(&msg)

	default:
		c.Hub.logger.Warn("收到不支持的消息类型",
			zap.String("client_id", c.ID),
			zap.String("type", msg.Type))
		c.sendError("不支持的消息类型: " + msg.Type)
	}
}

// handlePing 回复pong
func (c *Client) handlePing() {
	msg := &Message{
		Type:      MessageTypePong,
		Timestamp: time.Now().Unix(),
	}
	c.Hub.SendToClient(c.ID, msg)
}

// handlePositionUpdate 把房间内姿态转发给同房间的其他玩家
func (c *Client) handlePositionUpdate(msg *Message) {
	pose := posePayload{PosY: defaultPosY}
	if err := json.Unmarshal(msg.Data, &pose); err != nil {
		c.sendError("位置数据格式错误")
		return
	}
	c.SetPose(pose)

	data, _ := json.Marshal(map[string]interface{}{
		"user_id": c.UserID,
		"pos_x":   pose.PosX,
		"pos_y":   pose.PosY,
		"pos_z":   pose.PosZ,
		"yaw":     pose.Yaw,
		"pitch":   pose.Pitch,
	})
	out := &Message{
		Type:      MessageTypePlayerMoved,
		UserID:    c.UserID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	c.Hub.BroadcastToRoomExcept(c.MazeID, c.RoomX, c.RoomY, c.ID, out)
}

// handleRoomChange 客户端通知已进入新房间，更新注册表
func (c *Client) handleRoomChange(msg *Message) {
	var change roomChangePayload
	if err := json.Unmarshal(msg.Data, &change); err != nil {
		c.sendError("房间切换数据格式错误")
		return
	}

	if change.RoomX == c.RoomX && change.RoomY == c.RoomY {
		return
	}
	c.Hub.ChangeRoom(c, change.RoomX, change.RoomY)
}

// handleChat 向同房间的玩家广播聊天消息
func (c *Client) handleChat(msg *Message) {
	var chat chatPayload
	if err := json.Unmarshal(msg.Data, &chat); err != nil {
		c.sendError("聊天数据格式错误")
		return
	}
	chat.Message = strings.TrimSpace(chat.Message)
	if chat.Message == "" {
		return
	}
	if len(chat.Message) > maxChatLength {
		c.sendError("聊天消息过长")
		return
	}

	now := time.Now()
	data, _ := json.Marshal(map[string]interface{}{
		"user_id":   c.UserID,
		"username":  c.Username,
		"message":   chat.Message,
		"timestamp": now.UTC().Format(time.RFC3339),
	})
	out := &Message{
		Type:      MessageTypeChatMessage,
		UserID:    c.UserID,
		Username:  c.Username,
		Data:      data,
		Timestamp: now.Unix(),
	}
	c.Hub.BroadcastToRoom(c.MazeID, c.RoomX, c.RoomY, out)
}

// sendError 发送错误消息
func (c *Client) sendError(message string) {
	errorMsg := &Message{
		Type:      MessageTypeError,
		Timestamp: time.Now().Unix(),
		Data:      json.RawMessage(`{"error":"` + message + `"}`),
	}
	c.Hub.SendToClient(c.ID, errorMsg)
}

// Close 关闭客户端连接
func (c *Client) Close() {
	c.Hub.unregister <- c
}
