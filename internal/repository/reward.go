package repository

import (
	"context"
	"errors"
	"time"

	"github.com/wfunc/maze-game/internal/models"
	"gorm.io/gorm"
)

// ErrRewardGone 奖励已被领取或已过期
var ErrRewardGone = errors.New("奖励已被领取或已过期")

// RewardRepository 奖励仓储接口
type RewardRepository interface {
	BaseRepository
	Create(ctx context.Context, reward *models.Reward) error
	FindByID(ctx context.Context, id uint) (*models.Reward, error)
	FindActiveByRoom(ctx context.Context, mazeID uint, x, y int, now time.Time) ([]*models.Reward, error)
	FindPendingByRoom(ctx context.Context, mazeID uint, x, y int) ([]*models.Reward, error)
	FindActiveByMaze(ctx context.Context, mazeID uint, now time.Time) ([]*models.Reward, error)
	CountActiveByRoom(ctx context.Context, mazeID uint, x, y int, now time.Time) (int64, error)
	HasActiveBigReward(ctx context.Context, mazeID uint, now time.Time) (bool, error)
	Claim(ctx context.Context, rewardID, userID uint, now time.Time) error
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
	MarkExpiredByID(ctx context.Context, rewardID uint) error
	CreateClaim(ctx context.Context, claim *models.RewardClaim) error
}

// rewardRepo 奖励仓储实现
type rewardRepo struct {
	*BaseRepo
}

// NewRewardRepository 创建奖励仓储
func NewRewardRepository(db *gorm.DB) RewardRepository {
	return &rewardRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建奖励
func (r *rewardRepo) Create(ctx context.Context, reward *models.Reward) error {
	return r.db.WithContext(ctx).Create(reward).Error
}

// FindByID 根据ID查找奖励
func (r *rewardRepo) FindByID(ctx context.Context, id uint) (*models.Reward, error) {
	var reward models.Reward
	err := r.db.WithContext(ctx).First(&reward, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("奖励不存在")
		}
		return nil, err
	}
	return &reward, nil
}

// FindActiveByRoom 查找房间内未领取且未过期的奖励
func (r *rewardRepo) FindActiveByRoom(ctx context.Context, mazeID uint, x, y int, now time.Time) ([]*models.Reward, error) {
	var rewards []*models.Reward
	err := r.db.WithContext(ctx).
		Where("maze_id = ? AND room_x = ? AND room_y = ?", mazeID, x, y).
		Where("is_claimed = ? AND is_expired = ? AND expires_at > ?", false, false, now).
		Find(&rewards).Error
	return rewards, err
}

// FindPendingByRoom 查找房间内未领取且未标记过期的奖励，包含已到期但尚未清理的
func (r *rewardRepo) FindPendingByRoom(ctx context.Context, mazeID uint, x, y int) ([]*models.Reward, error) {
	var rewards []*models.Reward
	err := r.db.WithContext(ctx).
		Where("maze_id = ? AND room_x = ? AND room_y = ?", mazeID, x, y).
		Where("is_claimed = ? AND is_expired = ?", false, false).
		Find(&rewards).Error
	return rewards, err
}

// FindActiveByMaze 查找迷宫内所有有效奖励
func (r *rewardRepo) FindActiveByMaze(ctx context.Context, mazeID uint, now time.Time) ([]*models.Reward, error) {
	var rewards []*models.Reward
	err := r.db.WithContext(ctx).
		Where("maze_id = ?", mazeID).
		Where("is_claimed = ? AND is_expired = ? AND expires_at > ?", false, false, now).
		Find(&rewards).Error
	return rewards, err
}

// CountActiveByRoom 统计房间内的有效奖励数量
func (r *rewardRepo) CountActiveByRoom(ctx context.Context, mazeID uint, x, y int, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Reward{}).
		Where("maze_id = ? AND room_x = ? AND room_y = ?", mazeID, x, y).
		Where("is_claimed = ? AND is_expired = ? AND expires_at > ?", false, false, now).
		Count(&count).Error
	return count, err
}

// HasActiveBigReward 检查迷宫中是否已有未领取的大奖
func (r *rewardRepo) HasActiveBigReward(ctx context.Context, mazeID uint, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Reward{}).
		Where("maze_id = ? AND reward_type = ?", mazeID, models.RewardTypeBig).
		Where("is_claimed = ? AND is_expired = ? AND expires_at > ?", false, false, now).
		Count(&count).Error
	return count > 0, err
}

// Claim 领取奖励，条件更新保证同一奖励只能被领取一次
func (r *rewardRepo) Claim(ctx context.Context, rewardID, userID uint, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Reward{}).
		Where("id = ? AND is_claimed = ? AND is_expired = ? AND expires_at > ?",
			rewardID, false, false, now).
		Updates(map[string]interface{}{
			"is_claimed":    true,
			"claimed_by_id": userID,
			"claimed_at":    &now,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrRewardGone
	}

	return nil
}

// MarkExpired 将到期奖励标记为过期，返回处理数量
func (r *rewardRepo) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Reward{}).
		Where("is_claimed = ? AND is_expired = ? AND expires_at <= ?", false, false, now).
		Update("is_expired", true)
	return result.RowsAffected, result.Error
}

// MarkExpiredByID 将单个奖励标记为过期
func (r *rewardRepo) MarkExpiredByID(ctx context.Context, rewardID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Reward{}).
		Where("id = ? AND is_claimed = ?", rewardID, false).
		Update("is_expired", true).Error
}

// CreateClaim 创建领取记录
func (r *rewardRepo) CreateClaim(ctx context.Context, claim *models.RewardClaim) error {
	return r.db.WithContext(ctx).Create(claim).Error
}
