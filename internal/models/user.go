package models

import (
	"gorm.io/gorm"
)

// User 用户基础信息表
type User struct {
	BaseModel
	Username       string  `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email          string  `gorm:"uniqueIndex;size:100;not null" json:"email"`
	HashedPassword string  `gorm:"size:255;not null" json:"-"`
	Balance        float64 `gorm:"default:0" json:"balance"`
	Status         string  `gorm:"size:20;default:'active'" json:"status"` // active, banned
	IsAdmin        bool    `gorm:"default:false" json:"is_admin"`

	// 关联（注意：查询时使用 Preload 加载，避免循环依赖）
	OwnedRooms   []Room        `gorm:"foreignKey:OwnerID" json:"-"`
	GameSessions []GameSession `gorm:"foreignKey:UserID" json:"-"`
}

// Character 角色外观快照表
type Character struct {
	BaseModel
	UserID     uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	Gender     string `gorm:"size:10;default:'male'" json:"gender"`
	SkinColor  string `gorm:"size:7;default:'#F5CBA7'" json:"skin_color"`
	HairStyle  string `gorm:"size:50;default:'short'" json:"hair_style"`
	HairColor  string `gorm:"size:7;default:'#2C1B10'" json:"hair_color"`
	ShirtStyle string `gorm:"size:50;default:'tshirt'" json:"shirt_style"`
	ShirtColor string `gorm:"size:7;default:'#3498DB'" json:"shirt_color"`
	PantsStyle string `gorm:"size:50;default:'jeans'" json:"pants_style"`
	PantsColor string `gorm:"size:7;default:'#2C3E50'" json:"pants_color"`
}

// TableName 指定User表名
func (User) TableName() string {
	return "users"
}

// BeforeCreate 创建前的钩子
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Status == "" {
		u.Status = "active"
	}
	return nil
}

// IsActive 检查用户是否激活
func (u *User) IsActive() bool {
	return u.Status == "active"
}

// Snapshot 生成广播用的外观快照
func (c *Character) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"gender":      c.Gender,
		"skin_color":  c.SkinColor,
		"hair_style":  c.HairStyle,
		"hair_color":  c.HairColor,
		"shirt_style": c.ShirtStyle,
		"shirt_color": c.ShirtColor,
		"pants_style": c.PantsStyle,
		"pants_color": c.PantsColor,
	}
}
