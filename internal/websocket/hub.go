package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub WebSocket连接管理中心，按迷宫房间维护在线玩家
type Hub struct {
	// 客户端连接池
	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 会话令牌到客户端的映射
	sessionClients map[string]*Client
	sessionMu      sync.RWMutex

	// 房间键("mazeID:x:y")到客户端列表的映射
	rooms  map[string][]*Client
	roomMu sync.RWMutex

	// 迷宫ID到客户端列表的映射
	mazeClients map[uint][]*Client
	mazeMu      sync.RWMutex

	// 消息广播通道
	broadcast chan *Message

	// 注册/注销通道
	register   chan *Client
	unregister chan *Client

	// 日志
	logger *zap.Logger
}

// Client WebSocket客户端
type Client struct {
	ID           string                 // 客户端ID
	UserID       uint                   // 用户ID
	Username     string                 // 用户名
	SessionToken string                 // 游戏会话令牌
	MazeID       uint                   // 所在迷宫ID
	RoomX        int                    // 所在房间X坐标
	RoomY        int                    // 所在房间Y坐标
	Character    map[string]interface{} // 角色外观快照
	Hub          *Hub                   // Hub引用
	Conn         *websocket.Conn        // WebSocket连接
	Send         chan []byte            // 发送通道

	// 房间内实时姿态，读协程写入、Hub读取
	poseMu sync.Mutex
	pose   posePayload
}

// SetPose 更新客户端的房间内姿态
func (c *Client) SetPose(pose posePayload) {
	c.poseMu.Lock()
	c.pose = pose
	c.poseMu.Unlock()
}

// Pose 读取客户端的房间内姿态
func (c *Client) Pose() posePayload {
	c.poseMu.Lock()
	defer c.poseMu.Unlock()
	return c.pose
}

// Message WebSocket消息
type Message struct {
	Type         string          `json:"type"`
	UserID       uint            `json:"user_id,omitempty"`
	Username     string          `json:"username,omitempty"`
	SessionToken string          `json:"session_token,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
	Timestamp    int64           `json:"timestamp"`
}

// MessageType 消息类型
const (
	// 系统消息
	MessageTypeConnected = "connected"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
	MessageTypeError     = "error"

	// 客户端上行消息
	MessageTypePositionUpdate = "position_update"
	MessageTypeRoomChange     = "room_change"
	MessageTypeChat           = "chat"

	// 服务端推送消息
	MessageTypePlayerJoined  = "player_joined"
	MessageTypePlayerLeft    = "player_left"
	MessageTypePlayerMoved   = "player_moved"
	MessageTypeRoomPlayers   = "room_players"
	MessageTypeChatMessage   = "chat_message"
	MessageTypeRewardSpawned = "reward_spawned"
	MessageTypeRewardClaimed = "reward_claimed"
	MessageTypeTrapTriggered = "trap_triggered"
	MessageTypeGameEnded     = "game_ended"
)

// 聊天消息最大长度
const maxChatLength = 500

// roomKey 生成房间在注册表中的键
func roomKey(mazeID uint, x, y int) string {
	return fmt.Sprintf("%d:%d:%d", mazeID, x, y)
}

// NewHub 创建Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:        make(map[string]*Client),
		sessionClients: make(map[string]*Client),
		rooms:          make(map[string][]*Client),
		mazeClients:    make(map[uint][]*Client),
		broadcast:      make(chan *Message, 256),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		logger:         logger,
	}
}

// Run 运行Hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// registerClient 注册客户端并加入其所在房间
func (h *Hub) registerClient(client *Client) {
	h.clientsMu.Lock()
	h.clients[client.ID] = client
	h.clientsMu.Unlock()

	h.sessionMu.Lock()
	h.sessionClients[client.SessionToken] = client
	h.sessionMu.Unlock()

	h.mazeMu.Lock()
	h.mazeClients[client.MazeID] = append(h.mazeClients[client.MazeID], client)
	h.mazeMu.Unlock()

	h.addToRoom(client)

	h.logger.Info("WebSocket客户端连接",
		zap.String("client_id", client.ID),
		zap.Uint("user_id", client.UserID),
		zap.Uint("maze_id", client.MazeID))

	// 发送连接成功消息
	msg := &Message{
		Type:      MessageTypeConnected,
		Timestamp: time.Now().Unix(),
		Data:      json.RawMessage(`{"message":"连接成功"}`),
	}
	h.SendToClient(client.ID, msg)

	// 通知同房间玩家，并向新玩家发送房间内已有玩家的快照
	h.notifyRoomPresence(client, MessageTypePlayerJoined)
	h.sendRoomSnapshot(client)
}

// unregisterClient 注销客户端
func (h *Hub) unregisterClient(client *Client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[client.ID]; !ok {
		h.clientsMu.Unlock()
		return
	}
	delete(h.clients, client.ID)
	close(client.Send)
	h.clientsMu.Unlock()

	h.sessionMu.Lock()
	if h.sessionClients[client.SessionToken] == client {
		delete(h.sessionClients, client.SessionToken)
	}
	h.sessionMu.Unlock()

	h.mazeMu.Lock()
	h.mazeClients[client.MazeID] = removeClient(h.mazeClients[client.MazeID], client)
	if len(h.mazeClients[client.MazeID]) == 0 {
		delete(h.mazeClients, client.MazeID)
	}
	h.mazeMu.Unlock()

	h.removeFromRoom(client)
	h.notifyRoomPresence(client, MessageTypePlayerLeft)

	h.logger.Info("WebSocket客户端断开",
		zap.String("client_id", client.ID),
		zap.Uint("user_id", client.UserID))
}

// addToRoom 把客户端加入其当前房间
func (h *Hub) addToRoom(client *Client) {
	key := roomKey(client.MazeID, client.RoomX, client.RoomY)

	h.roomMu.Lock()
	h.rooms[key] = append(h.rooms[key], client)
	h.roomMu.Unlock()
}

// removeFromRoom 把客户端从其当前房间移除
func (h *Hub) removeFromRoom(client *Client) {
	key := roomKey(client.MazeID, client.RoomX, client.RoomY)

	h.roomMu.Lock()
	h.rooms[key] = removeClient(h.rooms[key], client)
	if len(h.rooms[key]) == 0 {
		delete(h.rooms, key)
	}
	h.roomMu.Unlock()
}

// ChangeRoom 客户端从旧房间迁移到新房间，并通知两侧玩家
func (h *Hub) ChangeRoom(client *Client, newX, newY int) {
	h.notifyRoomPresence(client, MessageTypePlayerLeft)
	h.removeFromRoom(client)

	client.RoomX = newX
	client.RoomY = newY

	h.addToRoom(client)
	h.notifyRoomPresence(client, MessageTypePlayerJoined)
	h.sendRoomSnapshot(client)
}

// sendRoomSnapshot 把房间内其他玩家的列表发给刚进入的客户端
func (h *Hub) sendRoomSnapshot(client *Client) {
	occupants := h.GetRoomClients(client.MazeID, client.RoomX, client.RoomY)

	players := make([]map[string]interface{}, 0, len(occupants))
	for _, other := range occupants {
		if other.ID == client.ID {
			continue
		}
		pose := other.Pose()
		players = append(players, map[string]interface{}{
			"user_id":   other.UserID,
			"username":  other.Username,
			"pos_x":     pose.PosX,
			"pos_y":     pose.PosY,
			"pos_z":     pose.PosZ,
			"yaw":       pose.Yaw,
			"pitch":     pose.Pitch,
			"character": other.Character,
		})
	}

	data, _ := json.Marshal(map[string]interface{}{"players": players})
	msg := &Message{
		Type:      MessageTypeRoomPlayers,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := h.SendToClient(client.ID, msg); err != nil {
		h.logger.Warn("房间快照发送失败",
			zap.String("client_id", client.ID),
			zap.Error(err))
	}
}

// notifyRoomPresence 向客户端所在房间的其他玩家广播进出消息
func (h *Hub) notifyRoomPresence(client *Client, msgType string) {
	payload := map[string]interface{}{
		"user_id":  client.UserID,
		"username": client.Username,
		"room_x":   client.RoomX,
		"room_y":   client.RoomY,
	}
	// 进入房间时附带角色外观，供其他客户端渲染
	if msgType == MessageTypePlayerJoined && client.Character != nil {
		payload["character"] = client.Character
	}
	data, _ := json.Marshal(payload)
	msg := &Message{
		Type:      msgType,
		UserID:    client.UserID,
		Username:  client.Username,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	h.BroadcastToRoomExcept(client.MazeID, client.RoomX, client.RoomY, client.ID, msg)
}

// broadcastMessage 向所有客户端广播消息
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("序列化消息失败", zap.Error(err))
		return
	}

	h.clientsMu.RLock()
	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("客户端发送缓冲区满",
				zap.String("client_id", client.ID))
		}
	}
	h.clientsMu.RUnlock()
}

// SendToClient 发送消息给指定客户端
func (h *Hub) SendToClient(clientID string, message *Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.clientsMu.RLock()
	client, ok := h.clients[clientID]
	h.clientsMu.RUnlock()

	if !ok {
		return ErrClientNotFound
	}

	select {
	case client.Send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// SendToSession 发送消息给指定会话的客户端
func (h *Hub) SendToSession(sessionToken string, message *Message) error {
	h.sessionMu.RLock()
	client, ok := h.sessionClients[sessionToken]
	h.sessionMu.RUnlock()

	if !ok {
		return ErrSessionNotConnected
	}
	return h.SendToClient(client.ID, message)
}

// BroadcastToRoom 向指定房间的所有客户端广播消息
func (h *Hub) BroadcastToRoom(mazeID uint, x, y int, message *Message) {
	h.BroadcastToRoomExcept(mazeID, x, y, "", message)
}

// BroadcastToRoomExcept 向指定房间除某客户端外的所有客户端广播消息
func (h *Hub) BroadcastToRoomExcept(mazeID uint, x, y int, exceptID string, message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("序列化消息失败", zap.Error(err))
		return
	}

	h.roomMu.RLock()
	clients := make([]*Client, len(h.rooms[roomKey(mazeID, x, y)]))
	copy(clients, h.rooms[roomKey(mazeID, x, y)])
	h.roomMu.RUnlock()

	for _, client := range clients {
		if client.ID == exceptID {
			continue
		}
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("房间客户端发送缓冲区满",
				zap.String("client_id", client.ID))
		}
	}
}

// BroadcastToMaze 向指定迷宫的所有客户端广播消息
func (h *Hub) BroadcastToMaze(mazeID uint, message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("序列化消息失败", zap.Error(err))
		return
	}

	h.mazeMu.RLock()
	clients := make([]*Client, len(h.mazeClients[mazeID]))
	copy(clients, h.mazeClients[mazeID])
	h.mazeMu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("迷宫客户端发送缓冲区满",
				zap.String("client_id", client.ID),
				zap.Uint("maze_id", mazeID))
		}
	}
}

// GetRoomClients 获取房间内的所有客户端
func (h *Hub) GetRoomClients(mazeID uint, x, y int) []*Client {
	h.roomMu.RLock()
	defer h.roomMu.RUnlock()

	clients := h.rooms[roomKey(mazeID, x, y)]
	result := make([]*Client, len(clients))
	copy(result, clients)
	return result
}

// GetOnlineCount 获取在线人数
func (h *Hub) GetOnlineCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// GetMazeOnlineCount 获取指定迷宫的在线人数
func (h *Hub) GetMazeOnlineCount(mazeID uint) int {
	h.mazeMu.RLock()
	defer h.mazeMu.RUnlock()
	return len(h.mazeClients[mazeID])
}

// Broadcast 广播消息（公开方法）
func (h *Hub) Broadcast(message *Message) {
	h.broadcast <- message
}

// Register 注册客户端（公开方法）
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister 注销客户端（公开方法）
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// removeClient 从切片中移除指定客户端
func removeClient(clients []*Client, target *Client) []*Client {
	for i, c := range clients {
		if c == target {
			return append(clients[:i], clients[i+1:]...)
		}
	}
	return clients
}
