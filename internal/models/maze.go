package models

import (
	"time"
)

// 房间装修模板
const (
	TemplateDefault      = "default"
	TemplateHalloween    = "halloween"
	TemplateChristmas    = "christmas"
	TemplateModernOffice = "modern_office"
	TemplateOldSalon     = "old_salon"
	TemplateSpaceship    = "spaceship"
	TemplateUnderwater   = "underwater"
	TemplateForest       = "forest"
	TemplateDesert       = "desert"
	TemplateCyberpunk    = "cyberpunk"
	TemplateMedieval     = "medieval"
	TemplateRandom       = "random"
)

// RoomTemplates 所有可用的具体模板（不含random）
var RoomTemplates = []string{
	TemplateDefault,
	TemplateHalloween,
	TemplateChristmas,
	TemplateModernOffice,
	TemplateOldSalon,
	TemplateSpaceship,
	TemplateUnderwater,
	TemplateForest,
	TemplateDesert,
	TemplateCyberpunk,
	TemplateMedieval,
}

// 墙面方向
const (
	WallNorth = "north"
	WallSouth = "south"
	WallEast  = "east"
	WallWest  = "west"
)

// Maze 迷宫表
type Maze struct {
	BaseModel
	Name              string  `gorm:"size:100;not null" json:"name"`
	Width             int     `gorm:"not null;default:10" json:"width"`
	Height            int     `gorm:"not null;default:10" json:"height"`
	IsActive          bool    `gorm:"default:true;index" json:"is_active"`
	BigRewardChance   float64 `gorm:"default:0.001" json:"big_reward_chance"`
	SmallRewardChance float64 `gorm:"default:0.05" json:"small_reward_chance"`

	// 关联
	Rooms []Room `gorm:"foreignKey:MazeID;constraint:OnDelete:CASCADE" json:"-"`
}

// Room 房间表，(maze_id, x, y) 唯一
type Room struct {
	BaseModel
	MazeID uint `gorm:"not null;index;uniqueIndex:idx_maze_coord" json:"maze_id"`
	X      int  `gorm:"not null;uniqueIndex:idx_maze_coord" json:"x"`
	Y      int  `gorm:"not null;uniqueIndex:idx_maze_coord" json:"y"`

	// 四面门
	DoorNorth bool `gorm:"default:false" json:"door_north"`
	DoorSouth bool `gorm:"default:false" json:"door_south"`
	DoorEast  bool `gorm:"default:false" json:"door_east"`
	DoorWest  bool `gorm:"default:false" json:"door_west"`

	// 归属
	OwnerID *uint      `gorm:"index" json:"owner_id"`
	IsSold  bool       `gorm:"default:false" json:"is_sold"`
	SoldAt  *time.Time `json:"sold_at,omitempty"`

	// 传送门
	HasPortal bool `gorm:"default:false" json:"has_portal"`

	// 关联
	Design *RoomDesign `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"design,omitempty"`
	Ads    []RoomAd    `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"ads,omitempty"`
}

// RoomDesign 房间装修表（与房间一对一）
type RoomDesign struct {
	BaseModel
	RoomID uint `gorm:"uniqueIndex;not null" json:"room_id"`

	Template string `gorm:"size:50;default:'default'" json:"template"`

	// 墙面
	WallColor      string `gorm:"size:7;default:'#808080'" json:"wall_color"`
	WallTextureURL string `gorm:"size:500" json:"wall_texture_url,omitempty"`

	// 地面
	FloorColor      string `gorm:"size:7;default:'#6B4E3D'" json:"floor_color"`
	FloorTextureURL string `gorm:"size:500" json:"floor_texture_url,omitempty"`

	// 天花板
	CeilingColor string `gorm:"size:7;default:'#EEEEEE'" json:"ceiling_color"`

	// 门
	DoorModel      string `gorm:"size:50;default:'standard'" json:"door_model"`
	DoorColor      string `gorm:"size:7;default:'#8B4513'" json:"door_color"`
	DoorHandleType string `gorm:"size:50;default:'gold_round'" json:"door_handle_type"`

	// 踢脚线
	BaseboardColor  string  `gorm:"size:7;default:'#4A3728'" json:"baseboard_color"`
	BaseboardHeight float64 `gorm:"default:0.3" json:"baseboard_height"`

	// 灯光
	AmbientLightColor     string  `gorm:"size:7;default:'#FFFFFF'" json:"ambient_light_color"`
	AmbientLightIntensity float64 `gorm:"default:0.5" json:"ambient_light_intensity"`

	// 扩展字段
	ExtraFeatures JSONMap `gorm:"type:json" json:"extra_features,omitempty"`
}

// RoomAd 房间墙面广告表（每面墙最多一个）
type RoomAd struct {
	BaseModel
	RoomID uint   `gorm:"not null;index;uniqueIndex:idx_room_wall" json:"room_id"`
	Wall   string `gorm:"size:10;not null;uniqueIndex:idx_room_wall" json:"wall"` // north, south, east, west

	AdType      string `gorm:"size:20;not null" json:"ad_type"` // image, video, canvas
	ContentURL  string `gorm:"size:500" json:"content_url,omitempty"`
	ContentText string `gorm:"size:200" json:"content_text,omitempty"`

	// 点击统计
	ClickURL   string `gorm:"size:500" json:"click_url,omitempty"`
	ClickCount int    `gorm:"default:0" json:"click_count"`
	ViewCount  int    `gorm:"default:0" json:"view_count"`

	IsActive bool `gorm:"default:true" json:"is_active"`
}

// Portal 传送门表
type Portal struct {
	BaseModel
	MazeID uint `gorm:"not null;index" json:"maze_id"`
	RoomX  int  `gorm:"not null" json:"room_x"`
	RoomY  int  `gorm:"not null" json:"room_y"`

	// 视觉样式
	PortalStyle string `gorm:"size:50;default:'default'" json:"portal_style"` // default, fire, ice, electric
	PortalColor string `gorm:"size:7;default:'#8B00FF'" json:"portal_color"`

	IsActive bool `gorm:"default:true" json:"is_active"`
	UseCount int  `gorm:"default:0" json:"use_count"`
}

// TableName 指定Maze表名
func (Maze) TableName() string {
	return "mazes"
}

// TableName 指定Room表名
func (Room) TableName() string {
	return "rooms"
}

// TableName 指定RoomDesign表名
func (RoomDesign) TableName() string {
	return "room_designs"
}

// TableName 指定RoomAd表名
func (RoomAd) TableName() string {
	return "room_ads"
}

// TableName 指定Portal表名
func (Portal) TableName() string {
	return "portals"
}

// HasDoor 检查指定方向是否有门
func (r *Room) HasDoor(direction string) bool {
	switch direction {
	case WallNorth:
		return r.DoorNorth
	case WallSouth:
		return r.DoorSouth
	case WallEast:
		return r.DoorEast
	case WallWest:
		return r.DoorWest
	default:
		return false
	}
}

// SetDoor 设置指定方向的门
func (r *Room) SetDoor(direction string, open bool) {
	switch direction {
	case WallNorth:
		r.DoorNorth = open
	case WallSouth:
		r.DoorSouth = open
	case WallEast:
		r.DoorEast = open
	case WallWest:
		r.DoorWest = open
	}
}

// WallsWithoutDoors 返回所有没有门的墙面
func (r *Room) WallsWithoutDoors() []string {
	var walls []string
	if !r.DoorNorth {
		walls = append(walls, WallNorth)
	}
	if !r.DoorSouth {
		walls = append(walls, WallSouth)
	}
	if !r.DoorEast {
		walls = append(walls, WallEast)
	}
	if !r.DoorWest {
		walls = append(walls, WallWest)
	}
	return walls
}
