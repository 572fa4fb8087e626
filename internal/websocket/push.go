package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wfunc/maze-game/internal/game"
	"github.com/wfunc/maze-game/internal/models"
	"go.uber.org/zap"
)

// PushManager 游戏事件推送管理器
type PushManager struct {
	hub    *Hub
	logger *zap.Logger
}

// NewPushManager 创建推送管理器
func NewPushManager(hub *Hub, logger *zap.Logger) *PushManager {
	return &PushManager{
		hub:    hub,
		logger: logger,
	}
}

// NotifyRewardSpawned 只通知奖励所在房间的玩家
func (pm *PushManager) NotifyRewardSpawned(reward *models.Reward) {
	data, _ := json.Marshal(map[string]interface{}{
		"reward_id":   reward.ID,
		"reward_type": reward.RewardType,
		"room_x":      reward.RoomX,
		"room_y":      reward.RoomY,
		"amount":      reward.Amount,
		"expires_at":  reward.ExpiresAt.Unix(),
	})
	msg := &Message{
		Type:      MessageTypeRewardSpawned,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	pm.hub.BroadcastToRoom(reward.MazeID, reward.RoomX, reward.RoomY, msg)

	pm.logger.Debug("推送奖励生成",
		zap.Uint("maze_id", reward.MazeID),
		zap.String("reward_type", reward.RewardType))
}

// NotifyRewardClaimed 向迷宫逐条广播被领取的奖励，大奖附带游戏结束标记
func (pm *PushManager) NotifyRewardClaimed(mazeID uint, userID uint, username string, claimed []game.ClaimedReward) {
	for _, r := range claimed {
		isBig := r.RewardType == models.RewardTypeBig
		payload := map[string]interface{}{
			"reward_type":   r.RewardType,
			"amount":        r.Amount,
			"winner":        username,
			"is_big_reward": isBig,
		}
		if isBig {
			payload["game_ended"] = true
			payload["message"] = fmt.Sprintf("%s 赢得了大奖 %.2f 元！", username, r.Amount)
		}

		data, _ := json.Marshal(payload)
		msg := &Message{
			Type:      MessageTypeRewardClaimed,
			UserID:    userID,
			Username:  username,
			Data:      data,
			Timestamp: time.Now().Unix(),
		}
		pm.hub.BroadcastToMaze(mazeID, msg)
	}
}

// NotifyTrapTriggered 向触发者所在房间广播陷阱触发
func (pm *PushManager) NotifyTrapTriggered(mazeID uint, x, y int, userID uint, effects []game.TrapEffect) {
	if len(effects) == 0 {
		return
	}

	traps := make([]map[string]interface{}, 0, len(effects))
	for _, e := range effects {
		traps = append(traps, map[string]interface{}{
			"trap_type": e.TrapType,
			"duration":  e.Duration,
		})
	}

	data, _ := json.Marshal(map[string]interface{}{
		"user_id": userID,
		"room_x":  x,
		"room_y":  y,
		"traps":   traps,
	})
	msg := &Message{
		Type:      MessageTypeTrapTriggered,
		UserID:    userID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	pm.hub.BroadcastToRoom(mazeID, x, y, msg)
}

// NotifyGameEnded 大奖被领取后向全迷宫广播游戏结束
func (pm *PushManager) NotifyGameEnded(mazeID uint, winnerID uint, winnerName string, amount float64) {
	data, _ := json.Marshal(map[string]interface{}{
		"winner_id":   winnerID,
		"winner_name": winnerName,
		"amount":      amount,
	})
	msg := &Message{
		Type:      MessageTypeGameEnded,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	pm.hub.BroadcastToMaze(mazeID, msg)

	pm.logger.Info("推送游戏结束",
		zap.Uint("maze_id", mazeID),
		zap.Uint("winner_id", winnerID),
		zap.Float64("amount", amount))
}

// SyncRoomChange 玩家通过HTTP移动后同步连接注册表中的房间
func (pm *PushManager) SyncRoomChange(sessionToken string, newX, newY int) {
	pm.hub.sessionMu.RLock()
	client, ok := pm.hub.sessionClients[sessionToken]
	pm.hub.sessionMu.RUnlock()

	if !ok {
		return
	}
	if client.RoomX == newX && client.RoomY == newY {
		return
	}
	pm.hub.ChangeRoom(client, newX, newY)
}
