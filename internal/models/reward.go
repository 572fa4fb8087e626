package models

import (
	"time"
)

// 奖励类型
const (
	RewardTypeBig   = "big"
	RewardTypeSmall = "small"
)

// Reward 奖励表，绑定到迷宫内的一个房间坐标
type Reward struct {
	BaseModel
	MazeID uint `gorm:"not null;index" json:"maze_id"`
	RoomX  int  `gorm:"not null" json:"room_x"`
	RoomY  int  `gorm:"not null" json:"room_y"`

	RewardType string  `gorm:"size:20;not null" json:"reward_type"` // big, small
	Amount     float64 `gorm:"not null" json:"amount"`

	// 时效
	SpawnedAt time.Time `gorm:"autoCreateTime" json:"spawned_at"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`

	// 状态
	IsClaimed   bool       `gorm:"default:false;index" json:"is_claimed"`
	ClaimedByID *uint      `json:"claimed_by_id,omitempty"`
	ClaimedAt   *time.Time `json:"claimed_at,omitempty"`
	IsExpired   bool       `gorm:"default:false;index" json:"is_expired"`
}

// RewardClaim 奖励领取记录表
type RewardClaim struct {
	BaseModel
	RewardID uint    `gorm:"not null;index" json:"reward_id"`
	UserID   uint    `gorm:"not null;index" json:"user_id"`
	Amount   float64 `gorm:"not null" json:"amount"`
}

// TableName 指定Reward表名
func (Reward) TableName() string {
	return "rewards"
}

// TableName 指定RewardClaim表名
func (RewardClaim) TableName() string {
	return "reward_claims"
}

// IsBig 是否为大奖
func (r *Reward) IsBig() bool {
	return r.RewardType == RewardTypeBig
}

// Claimable 在给定时刻是否可领取
func (r *Reward) Claimable(now time.Time) bool {
	return !r.IsClaimed && !r.IsExpired && now.Before(r.ExpiresAt)
}
