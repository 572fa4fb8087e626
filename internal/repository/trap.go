package repository

import (
	"context"
	"errors"
	"time"

	"github.com/wfunc/maze-game/internal/models"
	"gorm.io/gorm"
)

// ErrTrapGone 陷阱已被触发或已失效
var ErrTrapGone = errors.New("陷阱已被触发或已失效")

// TrapRepository 陷阱仓储接口
type TrapRepository interface {
	BaseRepository
	Create(ctx context.Context, trap *models.Trap) error
	FindByID(ctx context.Context, id uint) (*models.Trap, error)
	FindActiveByRoom(ctx context.Context, mazeID uint, x, y int) ([]*models.Trap, error)
	FindActiveByMaze(ctx context.Context, mazeID uint) ([]*models.Trap, error)
	CountActiveByMaze(ctx context.Context, mazeID uint) (int64, error)
	Trigger(ctx context.Context, trapID, userID uint, now time.Time) error
}

// trapRepo 陷阱仓储实现
type trapRepo struct {
	*BaseRepo
}

// NewTrapRepository 创建陷阱仓储
func NewTrapRepository(db *gorm.DB) TrapRepository {
	return &trapRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建陷阱
func (r *trapRepo) Create(ctx context.Context, trap *models.Trap) error {
	return r.db.WithContext(ctx).Create(trap).Error
}

// FindByID 根据ID查找陷阱
func (r *trapRepo) FindByID(ctx context.Context, id uint) (*models.Trap, error) {
	var trap models.Trap
	err := r.db.WithContext(ctx).First(&trap, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("陷阱不存在")
		}
		return nil, err
	}
	return &trap, nil
}

// FindActiveByRoom 查找房间内未触发的陷阱
func (r *trapRepo) FindActiveByRoom(ctx context.Context, mazeID uint, x, y int) ([]*models.Trap, error) {
	var traps []*models.Trap
	err := r.db.WithContext(ctx).
		Where("maze_id = ? AND room_x = ? AND room_y = ?", mazeID, x, y).
		Where("is_active = ? AND is_triggered = ?", true, false).
		Find(&traps).Error
	return traps, err
}

// FindActiveByMaze 查找迷宫内所有未触发的陷阱
func (r *trapRepo) FindActiveByMaze(ctx context.Context, mazeID uint) ([]*models.Trap, error) {
	var traps []*models.Trap
	err := r.db.WithContext(ctx).
		Where("maze_id = ?", mazeID).
		Where("is_active = ? AND is_triggered = ?", true, false).
		Find(&traps).Error
	return traps, err
}

// CountActiveByMaze 统计迷宫内的有效陷阱数量
func (r *trapRepo) CountActiveByMaze(ctx context.Context, mazeID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Trap{}).
		Where("maze_id = ?", mazeID).
		Where("is_active = ? AND is_triggered = ?", true, false).
		Count(&count).Error
	return count, err
}

// Trigger 触发陷阱，条件更新保证同一陷阱只能被触发一次
func (r *trapRepo) Trigger(ctx context.Context, trapID, userID uint, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Trap{}).
		Where("id = ? AND is_active = ? AND is_triggered = ?", trapID, true, false).
		Updates(map[string]interface{}{
			"is_triggered":    true,
			"is_active":       false,
			"triggered_by_id": userID,
			"triggered_at":    &now,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrTrapGone
	}

	return nil
}
