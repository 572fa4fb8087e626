package repository

import (
	"context"
	"errors"
	"time"

	"github.com/wfunc/maze-game/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GameSessionRepository 游戏会话仓储接口
type GameSessionRepository interface {
	BaseRepository
	Create(ctx context.Context, session *models.GameSession) error
	Update(ctx context.Context, session *models.GameSession) error
	FindByToken(ctx context.Context, token string) (*models.GameSession, error)
	FindActiveByToken(ctx context.Context, token string) (*models.GameSession, error)
	FindActiveByUser(ctx context.Context, userID uint) ([]*models.GameSession, error)
	FindActiveByMaze(ctx context.Context, mazeID uint) ([]*models.GameSession, error)
	End(ctx context.Context, sessionID uint) error
	MoveTo(ctx context.Context, sessionID uint, x, y int) error
	AddVisitedRoom(ctx context.Context, sessionID uint, x, y int) (bool, error)
	IncrementRoomsVisited(ctx context.Context, sessionID uint) error
	ListVisitedRooms(ctx context.Context, sessionID uint) ([]*models.VisitedRoom, error)
	SetFrozen(ctx context.Context, sessionID uint, until time.Time) error
	ClearFrozen(ctx context.Context, sessionID uint) error
	IncrementRewards(ctx context.Context, sessionID uint) error
	IncrementTraps(ctx context.Context, sessionID uint) error
	UpsertPosition(ctx context.Context, pos *models.PlayerPosition) error
	DeletePosition(ctx context.Context, sessionID uint) error
	FindPositionsByRoom(ctx context.Context, sessionIDs []uint) ([]*models.PlayerPosition, error)
}

// gameSessionRepo 游戏会话仓储实现
type gameSessionRepo struct {
	*BaseRepo
}

// NewGameSessionRepository 创建游戏会话仓储
func NewGameSessionRepository(db *gorm.DB) GameSessionRepository {
	return &gameSessionRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建游戏会话
func (r *gameSessionRepo) Create(ctx context.Context, session *models.GameSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// Update 更新游戏会话
func (r *gameSessionRepo) Update(ctx context.Context, session *models.GameSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}

// FindByToken 根据令牌查找会话
func (r *gameSessionRepo) FindByToken(ctx context.Context, token string) (*models.GameSession, error) {
	var session models.GameSession
	err := r.db.WithContext(ctx).
		Where("session_token = ?", token).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("会话不存在")
		}
		return nil, err
	}
	return &session, nil
}

// FindActiveByToken 根据令牌查找激活的会话
func (r *gameSessionRepo) FindActiveByToken(ctx context.Context, token string) (*models.GameSession, error) {
	var session models.GameSession
	err := r.db.WithContext(ctx).
		Where("session_token = ? AND is_active = ?", token, true).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("会话不存在或已结束")
		}
		return nil, err
	}
	return &session, nil
}

// FindActiveByUser 查找用户的激活会话
func (r *gameSessionRepo) FindActiveByUser(ctx context.Context, userID uint) ([]*models.GameSession, error) {
	var sessions []*models.GameSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Find(&sessions).Error
	return sessions, err
}

// FindActiveByMaze 查找迷宫的所有激活会话
func (r *gameSessionRepo) FindActiveByMaze(ctx context.Context, mazeID uint) ([]*models.GameSession, error) {
	var sessions []*models.GameSession
	err := r.db.WithContext(ctx).
		Where("maze_id = ? AND is_active = ?", mazeID, true).
		Find(&sessions).Error
	return sessions, err
}

// End 结束会话
func (r *gameSessionRepo) End(ctx context.Context, sessionID uint) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.GameSession{}).
		Where("id = ? AND is_active = ?", sessionID, true).
		Updates(map[string]interface{}{
			"is_active": false,
			"ended_at":  &now,
		}).Error
}

// MoveTo 更新当前房间坐标
func (r *gameSessionRepo) MoveTo(ctx context.Context, sessionID uint, x, y int) error {
	return r.db.WithContext(ctx).
		Model(&models.GameSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{
			"current_room_x": x,
			"current_room_y": y,
		}).Error
}

// AddVisitedRoom 记录已访问的房间，返回是否为首次访问
func (r *gameSessionRepo) AddVisitedRoom(ctx context.Context, sessionID uint, x, y int) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.VisitedRoom{
			SessionID: sessionID,
			RoomX:     x,
			RoomY:     y,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// IncrementRoomsVisited 累加移动步数，重复进入同一房间也计入
func (r *gameSessionRepo) IncrementRoomsVisited(ctx context.Context, sessionID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.GameSession{}).
		Where("id = ?", sessionID).
		Update("rooms_visited", gorm.Expr("rooms_visited + 1")).Error
}

// ListVisitedRooms 列出会话已访问的所有房间
func (r *gameSessionRepo) ListVisitedRooms(ctx context.Context, sessionID uint) ([]*models.VisitedRoom, error) {
	var rooms []*models.VisitedRoom
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at").
		Find(&rooms).Error
	return rooms, err
}

// SetFrozen 冻结玩家到指定时刻
func (r *gameSessionRepo) SetFrozen(ctx context.Context, sessionID uint, until time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.GameSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{
			"is_frozen":    true,
			"frozen_until": &until,
		}).Error
}

// ClearFrozen 解除冻结
func (r *gameSessionRepo) ClearFrozen(ctx context.Context, sessionID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.GameSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{
			"is_frozen":    false,
			"frozen_until": nil,
		}).Error
}

// IncrementRewards 增加奖励计数
func (r *gameSessionRepo) IncrementRewards(ctx context.Context, sessionID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.GameSession{}).
		Where("id = ?", sessionID).
		Update("rewards_collected", gorm.Expr("rewards_collected + 1")).Error
}

// IncrementTraps 增加陷阱计数
func (r *gameSessionRepo) IncrementTraps(ctx context.Context, sessionID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.GameSession{}).
		Where("id = ?", sessionID).
		Update("traps_triggered", gorm.Expr("traps_triggered + 1")).Error
}

// UpsertPosition 创建或更新玩家实时位置
func (r *gameSessionRepo) UpsertPosition(ctx context.Context, pos *models.PlayerPosition) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"room_x", "room_y", "pos_x", "pos_y", "pos_z",
				"yaw", "pitch", "updated_at",
			}),
		}).
		Create(pos).Error
}

// DeletePosition 删除玩家实时位置（会话结束时）
func (r *gameSessionRepo) DeletePosition(ctx context.Context, sessionID uint) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Where("session_id = ?", sessionID).
		Delete(&models.PlayerPosition{}).Error
}

// FindPositionsByRoom 查找指定会话集合的实时位置
func (r *gameSessionRepo) FindPositionsByRoom(ctx context.Context, sessionIDs []uint) ([]*models.PlayerPosition, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	var positions []*models.PlayerPosition
	err := r.db.WithContext(ctx).
		Where("session_id IN ?", sessionIDs).
		Find(&positions).Error
	return positions, err
}
