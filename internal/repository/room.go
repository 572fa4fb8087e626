package repository

import (
	"context"
	"errors"
	"time"

	"github.com/wfunc/maze-game/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoomRepository 房间仓储接口
type RoomRepository interface {
	BaseRepository
	BatchCreate(ctx context.Context, rooms []*models.Room) error
	FindByCoord(ctx context.Context, mazeID uint, x, y int) (*models.Room, error)
	FindByMaze(ctx context.Context, mazeID uint) ([]*models.Room, error)
	FindSoldByMaze(ctx context.Context, mazeID uint) ([]*models.Room, error)
	FindByOwner(ctx context.Context, ownerID uint) ([]*models.Room, error)
	MarkSold(ctx context.Context, roomID, ownerID uint) error
	SaveDesign(ctx context.Context, design *models.RoomDesign) error
	FindDesign(ctx context.Context, roomID uint) (*models.RoomDesign, error)
	SaveAd(ctx context.Context, ad *models.RoomAd) error
	FindAds(ctx context.Context, roomID uint) ([]*models.RoomAd, error)
	IncrementAdClicks(ctx context.Context, adID uint) error
	CreatePortal(ctx context.Context, portal *models.Portal) error
	FindPortalByRoom(ctx context.Context, mazeID uint, x, y int) (*models.Portal, error)
	FindPortalsByMaze(ctx context.Context, mazeID uint) ([]*models.Portal, error)
	IncrementPortalUse(ctx context.Context, portalID uint) error
}

// roomRepo 房间仓储实现
type roomRepo struct {
	*BaseRepo
}

// NewRoomRepository 创建房间仓储
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// BatchCreate 批量创建房间（迷宫生成时使用）
func (r *roomRepo) BatchCreate(ctx context.Context, rooms []*models.Room) error {
	if len(rooms) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(rooms, 100).Error
}

// FindByCoord 根据迷宫ID和坐标查找房间
func (r *roomRepo) FindByCoord(ctx context.Context, mazeID uint, x, y int) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).
		Where("maze_id = ? AND x = ? AND y = ?", mazeID, x, y).
		First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("房间不存在")
		}
		return nil, err
	}
	return &room, nil
}

// FindByMaze 查找迷宫的所有房间
func (r *roomRepo) FindByMaze(ctx context.Context, mazeID uint) ([]*models.Room, error) {
	var rooms []*models.Room
	err := r.db.WithContext(ctx).
		Where("maze_id = ?", mazeID).
		Order("y, x").
		Find(&rooms).Error
	return rooms, err
}

// FindSoldByMaze 查找迷宫中已售出的房间
func (r *roomRepo) FindSoldByMaze(ctx context.Context, mazeID uint) ([]*models.Room, error) {
	var rooms []*models.Room
	err := r.db.WithContext(ctx).
		Where("maze_id = ? AND is_sold = ?", mazeID, true).
		Find(&rooms).Error
	return rooms, err
}

// FindByOwner 查找用户拥有的房间
func (r *roomRepo) FindByOwner(ctx context.Context, ownerID uint) ([]*models.Room, error) {
	var rooms []*models.Room
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Find(&rooms).Error
	return rooms, err
}

// MarkSold 标记房间已售出，已售房间不可重复购买
func (r *roomRepo) MarkSold(ctx context.Context, roomID, ownerID uint) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.Room{}).
		Where("id = ? AND is_sold = ?", roomID, false).
		Updates(map[string]interface{}{
			"is_sold":  true,
			"owner_id": ownerID,
			"sold_at":  &now,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errors.New("房间已售出")
	}

	return nil
}

// SaveDesign 创建或更新房间装修
func (r *roomRepo) SaveDesign(ctx context.Context, design *models.RoomDesign) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "room_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"template", "wall_color", "wall_texture_url",
				"floor_color", "floor_texture_url", "ceiling_color",
				"door_model", "door_color", "door_handle_type",
				"baseboard_color", "baseboard_height",
				"ambient_light_color", "ambient_light_intensity",
				"extra_features", "updated_at",
			}),
		}).
		Create(design).Error
}

// FindDesign 查找房间装修
func (r *roomRepo) FindDesign(ctx context.Context, roomID uint) (*models.RoomDesign, error) {
	var design models.RoomDesign
	err := r.db.WithContext(ctx).Where("room_id = ?", roomID).First(&design).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("装修不存在")
		}
		return nil, err
	}
	return &design, nil
}

// SaveAd 创建或更新墙面广告（每面墙最多一个）
func (r *roomRepo) SaveAd(ctx context.Context, ad *models.RoomAd) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "room_id"}, {Name: "wall"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"ad_type", "content_url", "content_text", "click_url",
				"is_active", "updated_at",
			}),
		}).
		Create(ad).Error
}

// FindAds 查找房间的所有广告
func (r *roomRepo) FindAds(ctx context.Context, roomID uint) ([]*models.RoomAd, error) {
	var ads []*models.RoomAd
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND is_active = ?", roomID, true).
		Find(&ads).Error
	return ads, err
}

// IncrementAdClicks 增加广告点击数
func (r *roomRepo) IncrementAdClicks(ctx context.Context, adID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.RoomAd{}).
		Where("id = ?", adID).
		Update("click_count", gorm.Expr("click_count + 1")).Error
}

// CreatePortal 创建传送门
func (r *roomRepo) CreatePortal(ctx context.Context, portal *models.Portal) error {
	return r.db.WithContext(ctx).Create(portal).Error
}

// FindPortalByRoom 查找指定房间的传送门
func (r *roomRepo) FindPortalByRoom(ctx context.Context, mazeID uint, x, y int) (*models.Portal, error) {
	var portal models.Portal
	err := r.db.WithContext(ctx).
		Where("maze_id = ? AND room_x = ? AND room_y = ? AND is_active = ?", mazeID, x, y, true).
		First(&portal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("传送门不存在")
		}
		return nil, err
	}
	return &portal, nil
}

// FindPortalsByMaze 查找迷宫的所有传送门
func (r *roomRepo) FindPortalsByMaze(ctx context.Context, mazeID uint) ([]*models.Portal, error) {
	var portals []*models.Portal
	err := r.db.WithContext(ctx).
		Where("maze_id = ? AND is_active = ?", mazeID, true).
		Find(&portals).Error
	return portals, err
}

// IncrementPortalUse 增加传送门使用次数
func (r *roomRepo) IncrementPortalUse(ctx context.Context, portalID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Portal{}).
		Where("id = ?", portalID).
		Update("use_count", gorm.Expr("use_count + 1")).Error
}
