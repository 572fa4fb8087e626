package repository

import (
	"context"
	"errors"

	"github.com/wfunc/maze-game/internal/models"
	"gorm.io/gorm"
)

// MazeRepository 迷宫仓储接口
type MazeRepository interface {
	BaseRepository
	Create(ctx context.Context, maze *models.Maze) error
	Update(ctx context.Context, maze *models.Maze) error
	FindByID(ctx context.Context, id uint) (*models.Maze, error)
	FindActive(ctx context.Context) (*models.Maze, error)
	GetAll(ctx context.Context, pagination *Pagination) ([]*models.Maze, error)
	Activate(ctx context.Context, mazeID uint) error
}

// mazeRepo 迷宫仓储实现
type mazeRepo struct {
	*BaseRepo
}

// NewMazeRepository 创建迷宫仓储
func NewMazeRepository(db *gorm.DB) MazeRepository {
	return &mazeRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建迷宫
func (r *mazeRepo) Create(ctx context.Context, maze *models.Maze) error {
	return r.db.WithContext(ctx).Create(maze).Error
}

// Update 更新迷宫
func (r *mazeRepo) Update(ctx context.Context, maze *models.Maze) error {
	return r.db.WithContext(ctx).Save(maze).Error
}

// FindByID 根据ID查找迷宫
func (r *mazeRepo) FindByID(ctx context.Context, id uint) (*models.Maze, error) {
	var maze models.Maze
	err := r.db.WithContext(ctx).First(&maze, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("迷宫不存在")
		}
		return nil, err
	}
	return &maze, nil
}

// FindActive 查找当前激活的迷宫
func (r *mazeRepo) FindActive(ctx context.Context) (*models.Maze, error) {
	var maze models.Maze
	err := r.db.WithContext(ctx).Where("is_active = ?", true).First(&maze).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("没有激活的迷宫")
		}
		return nil, err
	}
	return &maze, nil
}

// GetAll 获取所有迷宫（分页）
func (r *mazeRepo) GetAll(ctx context.Context, pagination *Pagination) ([]*models.Maze, error) {
	var mazes []*models.Maze
	query := r.db.WithContext(ctx).Model(&models.Maze{})

	var total int64
	query.Count(&total)
	pagination.Total = total

	err := query.
		Scopes(Paginate(pagination)).
		Order("created_at DESC").
		Find(&mazes).Error
	return mazes, err
}

// Activate 激活指定迷宫，同时停用其他所有迷宫
func (r *mazeRepo) Activate(ctx context.Context, mazeID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Maze{}).
			Where("is_active = ?", true).
			Update("is_active", false).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Maze{}).
			Where("id = ?", mazeID).
			Update("is_active", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.New("迷宫不存在")
		}
		return nil
	})
}
