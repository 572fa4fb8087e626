package models

import (
	"time"
)

// 陷阱类型
const (
	TrapTeleportStart   = "teleport_start"   // 传送回起点
	TrapFreeze          = "freeze"           // 一段时间内无法移动
	TrapBlind           = "blind"            // 屏幕暂时变黑（客户端效果）
	TrapSlow            = "slow"             // 移动速度降低（客户端效果）
	TrapReverseControls = "reverse_controls" // 操作反转（客户端效果）
	TrapRandomTeleport  = "random_teleport"  // 传送到随机房间
	TrapLoseReward      = "lose_reward"      // 损失部分余额
)

// TrapTypes 所有陷阱类型
var TrapTypes = []string{
	TrapTeleportStart,
	TrapFreeze,
	TrapBlind,
	TrapSlow,
	TrapReverseControls,
	TrapRandomTeleport,
	TrapLoseReward,
}

// TrapDurations 各类型默认持续时间（秒）
var TrapDurations = map[string]int{
	TrapTeleportStart:   0,
	TrapFreeze:          180,
	TrapBlind:           30,
	TrapSlow:            60,
	TrapReverseControls: 45,
	TrapRandomTeleport:  0,
	TrapLoseReward:      0,
}

// Trap 陷阱表，触发后永久失效
type Trap struct {
	BaseModel
	MazeID uint `gorm:"not null;index" json:"maze_id"`
	RoomX  int  `gorm:"not null" json:"room_x"`
	RoomY  int  `gorm:"not null" json:"room_y"`

	TrapType string `gorm:"size:50;not null" json:"trap_type"`

	// 效果参数
	Duration  int     `gorm:"default:180" json:"duration"`  // 秒
	Intensity float64 `gorm:"default:1.0" json:"intensity"` // slow陷阱: 0.5 = 半速

	// 触发状态
	IsTriggered   bool       `gorm:"default:false" json:"is_triggered"`
	TriggeredByID *uint      `json:"triggered_by_id,omitempty"`
	TriggeredAt   *time.Time `json:"triggered_at,omitempty"`

	IsActive bool `gorm:"default:true;index" json:"is_active"`
}

// TableName 指定Trap表名
func (Trap) TableName() string {
	return "traps"
}

// IsValidTrapType 检查陷阱类型是否合法
func IsValidTrapType(trapType string) bool {
	for _, t := range TrapTypes {
		if t == trapType {
			return true
		}
	}
	return false
}
