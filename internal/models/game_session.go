package models

import (
	"time"
)

// GameSession 游戏会话表，一个用户在一个迷宫中的一次完整游玩
type GameSession struct {
	BaseModel
	UserID       uint   `gorm:"not null;index" json:"user_id"`
	MazeID       uint   `gorm:"not null;index" json:"maze_id"`
	SessionToken string `gorm:"uniqueIndex;size:255;not null" json:"session_token"`

	// 当前房间坐标
	CurrentRoomX int `gorm:"default:0" json:"current_room_x"`
	CurrentRoomY int `gorm:"default:0" json:"current_room_y"`

	// 房间内的3D位置
	PositionX float64 `gorm:"default:0" json:"position_x"`
	PositionY float64 `gorm:"default:1.6" json:"position_y"` // 视线高度
	PositionZ float64 `gorm:"default:0" json:"position_z"`

	// 朝向
	RotationYaw   float64 `gorm:"default:0" json:"rotation_yaw"`
	RotationPitch float64 `gorm:"default:0" json:"rotation_pitch"`

	// 会话状态
	IsActive  bool       `gorm:"default:true;index" json:"is_active"`
	StartedAt time.Time  `gorm:"autoCreateTime" json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	// 统计
	RoomsVisited     int `gorm:"default:1" json:"rooms_visited"`
	RewardsCollected int `gorm:"default:0" json:"rewards_collected"`
	TrapsTriggered   int `gorm:"default:0" json:"traps_triggered"`

	// 陷阱效果
	IsFrozen    bool       `gorm:"default:false" json:"is_frozen"`
	FrozenUntil *time.Time `json:"frozen_until,omitempty"`

	// 关联
	VisitedRooms []VisitedRoom `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
}

// VisitedRoom 已访问房间表（用于小地图）
type VisitedRoom struct {
	BaseModel
	SessionID uint `gorm:"not null;index;uniqueIndex:idx_session_room" json:"session_id"`
	RoomX     int  `gorm:"not null;uniqueIndex:idx_session_room" json:"room_x"`
	RoomY     int  `gorm:"not null;uniqueIndex:idx_session_room" json:"room_y"`
}

// PlayerPosition 玩家实时位置表（多人同步用）
type PlayerPosition struct {
	BaseModel
	SessionID uint `gorm:"uniqueIndex;not null" json:"session_id"`

	RoomX int `gorm:"not null" json:"room_x"`
	RoomY int `gorm:"not null" json:"room_y"`

	PosX float64 `gorm:"default:0" json:"pos_x"`
	PosY float64 `gorm:"default:1.6" json:"pos_y"`
	PosZ float64 `gorm:"default:0" json:"pos_z"`

	Yaw   float64 `gorm:"default:0" json:"yaw"`
	Pitch float64 `gorm:"default:0" json:"pitch"`
}

// TableName 指定GameSession表名
func (GameSession) TableName() string {
	return "game_sessions"
}

// TableName 指定VisitedRoom表名
func (VisitedRoom) TableName() string {
	return "visited_rooms"
}

// TableName 指定PlayerPosition表名
func (PlayerPosition) TableName() string {
	return "player_positions"
}

// HasVisited 检查坐标是否已在访问集合中
func (s *GameSession) HasVisited(x, y int) bool {
	for _, v := range s.VisitedRooms {
		if v.RoomX == x && v.RoomY == y {
			return true
		}
	}
	return false
}
