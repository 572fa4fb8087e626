package repository

import (
	"context"
	"errors"

	"github.com/wfunc/maze-game/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CharacterRepository 角色外观仓储接口
type CharacterRepository interface {
	BaseRepository
	Upsert(ctx context.Context, character *models.Character) error
	FindByUserID(ctx context.Context, userID uint) (*models.Character, error)
}

// characterRepo 角色外观仓储实现
type characterRepo struct {
	*BaseRepo
}

// NewCharacterRepository 创建角色外观仓储
func NewCharacterRepository(db *gorm.DB) CharacterRepository {
	return &characterRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Upsert 创建或更新角色外观
func (r *characterRepo) Upsert(ctx context.Context, character *models.Character) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"gender", "skin_color", "hair_style", "hair_color",
				"shirt_style", "shirt_color", "pants_style", "pants_color",
				"updated_at",
			}),
		}).
		Create(character).Error
}

// FindByUserID 根据用户ID查找角色外观
func (r *characterRepo) FindByUserID(ctx context.Context, userID uint) (*models.Character, error) {
	var character models.Character
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&character).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("角色不存在")
		}
		return nil, err
	}
	return &character, nil
}
