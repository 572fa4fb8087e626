package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestClient 创建不带真实连接的测试客户端
func newTestClient(hub *Hub, userID uint, token string, mazeID uint, x, y int) *Client {
	return &Client{
		ID:           token + "-client",
		UserID:       userID,
		Username:     "player",
		SessionToken: token,
		MazeID:       mazeID,
		RoomX:        x,
		RoomY:        y,
		Hub:          hub,
		Send:         make(chan []byte, 16),
	}
}

// drain 清空客户端的发送队列
func drain(c *Client) {
	for {
		select {
		case <-c.Send:
		default:
			return
		}
	}
}

// receive 读取客户端收到的下一条消息
func receive(t *testing.T, c *Client) *Message {
	select {
	case data := <-c.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	case <-time.After(time.Second):
		t.Fatal("等待消息超时")
		return nil
	}
}

// 测试注册后收到连接成功消息
func TestHubRegisterSendsConnected(t *testing.T) {
	hub := NewHub(zap.NewNop())

	client := newTestClient(hub, 1, "token-a", 1, 0, 0)
	hub.registerClient(client)

	msg := receive(t, client)
	assert.Equal(t, MessageTypeConnected, msg.Type)
	assert.Equal(t, 1, hub.GetOnlineCount())
}

// 测试同房间玩家收到加入和离开通知
func TestHubRoomPresenceNotifications(t *testing.T) {
	hub := NewHub(zap.NewNop())

	first := newTestClient(hub, 1, "token-a", 1, 2, 3)
	hub.registerClient(first)
	drain(first)

	second := newTestClient(hub, 2, "token-b", 1, 2, 3)
	hub.registerClient(second)

	// 先到的玩家收到新玩家加入的通知
	msg := receive(t, first)
	assert.Equal(t, MessageTypePlayerJoined, msg.Type)
	assert.Equal(t, uint(2), msg.UserID)

	hub.unregisterClient(second)
	msg = receive(t, first)
	assert.Equal(t, MessageTypePlayerLeft, msg.Type)
	assert.Equal(t, uint(2), msg.UserID)
}

// 测试加入房间时收到在线玩家快照
func TestHubJoinSendsRoomSnapshot(t *testing.T) {
	hub := NewHub(zap.NewNop())

	first := newTestClient(hub, 1, "token-a", 1, 2, 3)
	first.SetPose(posePayload{PosX: 1.5, PosY: 1.6, PosZ: -2, Yaw: 90})
	hub.registerClient(first)
	drain(first)

	second := newTestClient(hub, 2, "token-b", 1, 2, 3)
	hub.registerClient(second)

	msg := receive(t, second)
	assert.Equal(t, MessageTypeConnected, msg.Type)

	msg = receive(t, second)
	require.Equal(t, MessageTypeRoomPlayers, msg.Type)

	var payload struct {
		Players []map[string]interface{} `json:"players"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	require.Len(t, payload.Players, 1)
	assert.Equal(t, float64(1), payload.Players[0]["user_id"])
	assert.Equal(t, "player", payload.Players[0]["username"])
	assert.Equal(t, 1.5, payload.Players[0]["pos_x"])
	assert.Equal(t, 90.0, payload.Players[0]["yaw"])
}

// 测试独自进入房间时快照为空列表
func TestHubJoinEmptyRoomSnapshot(t *testing.T) {
	hub := NewHub(zap.NewNop())

	client := newTestClient(hub, 1, "token-a", 1, 0, 0)
	hub.registerClient(client)

	msg := receive(t, client)
	assert.Equal(t, MessageTypeConnected, msg.Type)

	msg = receive(t, client)
	require.Equal(t, MessageTypeRoomPlayers, msg.Type)

	var payload struct {
		Players []map[string]interface{} `json:"players"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Empty(t, payload.Players)
}

// 测试房间广播只到达同房间的客户端
func TestHubBroadcastToRoom(t *testing.T) {
	hub := NewHub(zap.NewNop())

	inRoom := newTestClient(hub, 1, "token-a", 1, 0, 0)
	otherRoom := newTestClient(hub, 2, "token-b", 1, 4, 4)
	otherMaze := newTestClient(hub, 3, "token-c", 2, 0, 0)
	hub.registerClient(inRoom)
	hub.registerClient(otherRoom)
	hub.registerClient(otherMaze)
	drain(inRoom)
	drain(otherRoom)
	drain(otherMaze)

	hub.BroadcastToRoom(1, 0, 0, &Message{Type: MessageTypeChat, Timestamp: time.Now().Unix()})

	msg := receive(t, inRoom)
	assert.Equal(t, MessageTypeChat, msg.Type)
	assert.Empty(t, otherRoom.Send)
	assert.Empty(t, otherMaze.Send)
}

// 测试迷宫广播到达迷宫内所有房间的客户端
func TestHubBroadcastToMaze(t *testing.T) {
	hub := NewHub(zap.NewNop())

	a := newTestClient(hub, 1, "token-a", 1, 0, 0)
	b := newTestClient(hub, 2, "token-b", 1, 4, 4)
	other := newTestClient(hub, 3, "token-c", 2, 0, 0)
	hub.registerClient(a)
	hub.registerClient(b)
	hub.registerClient(other)
	drain(a)
	drain(b)
	drain(other)

	hub.BroadcastToMaze(1, &Message{Type: MessageTypeGameEnded, Timestamp: time.Now().Unix()})

	assert.Equal(t, MessageTypeGameEnded, receive(t, a).Type)
	assert.Equal(t, MessageTypeGameEnded, receive(t, b).Type)
	assert.Empty(t, other.Send)
}

// 测试房间切换更新注册表并通知两侧
func TestHubChangeRoom(t *testing.T) {
	hub := NewHub(zap.NewNop())

	mover := newTestClient(hub, 1, "token-a", 1, 0, 0)
	oldNeighbor := newTestClient(hub, 2, "token-b", 1, 0, 0)
	newNeighbor := newTestClient(hub, 3, "token-c", 1, 0, 1)
	hub.registerClient(mover)
	hub.registerClient(oldNeighbor)
	hub.registerClient(newNeighbor)
	drain(mover)
	drain(oldNeighbor)
	drain(newNeighbor)

	hub.ChangeRoom(mover, 0, 1)

	assert.Equal(t, MessageTypePlayerLeft, receive(t, oldNeighbor).Type)
	assert.Equal(t, MessageTypePlayerJoined, receive(t, newNeighbor).Type)

	// 迁移后收到新房间的玩家快照
	snapshot := receive(t, mover)
	require.Equal(t, MessageTypeRoomPlayers, snapshot.Type)
	var payload struct {
		Players []map[string]interface{} `json:"players"`
	}
	require.NoError(t, json.Unmarshal(snapshot.Data, &payload))
	require.Len(t, payload.Players, 1)
	assert.Equal(t, float64(3), payload.Players[0]["user_id"])

	assert.Len(t, hub.GetRoomClients(1, 0, 0), 1)
	assert.Len(t, hub.GetRoomClients(1, 0, 1), 2)
	assert.Equal(t, 0, mover.RoomX)
	assert.Equal(t, 1, mover.RoomY)
}

// 测试按会话令牌定向发送
func TestHubSendToSession(t *testing.T) {
	hub := NewHub(zap.NewNop())

	client := newTestClient(hub, 1, "token-a", 1, 0, 0)
	hub.registerClient(client)
	drain(client)

	err := hub.SendToSession("token-a", &Message{Type: MessageTypePong, Timestamp: time.Now().Unix()})
	require.NoError(t, err)
	assert.Equal(t, MessageTypePong, receive(t, client).Type)

	err = hub.SendToSession("missing", &Message{Type: MessageTypePong})
	assert.ErrorIs(t, err, ErrSessionNotConnected)
}

// 测试注销后清理所有映射
func TestHubUnregisterCleansUp(t *testing.T) {
	hub := NewHub(zap.NewNop())

	client := newTestClient(hub, 1, "token-a", 1, 0, 0)
	hub.registerClient(client)
	hub.unregisterClient(client)

	assert.Equal(t, 0, hub.GetOnlineCount())
	assert.Equal(t, 0, hub.GetMazeOnlineCount(1))
	assert.Empty(t, hub.GetRoomClients(1, 0, 0))

	err := hub.SendToSession("token-a", &Message{Type: MessageTypePong})
	assert.ErrorIs(t, err, ErrSessionNotConnected)
}
