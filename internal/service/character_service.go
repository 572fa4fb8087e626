package service

import (
	"context"

	apperrors "github.com/wfunc/maze-game/internal/errors"
	"github.com/wfunc/maze-game/internal/models"
	"github.com/wfunc/maze-game/internal/repository"
	"go.uber.org/zap"
)

// CharacterRequest 角色外观修改请求，nil字段表示不修改
type CharacterRequest struct {
	Gender     *string `json:"gender,omitempty"`
	SkinColor  *string `json:"skin_color,omitempty"`
	HairStyle  *string `json:"hair_style,omitempty"`
	HairColor  *string `json:"hair_color,omitempty"`
	ShirtStyle *string `json:"shirt_style,omitempty"`
	ShirtColor *string `json:"shirt_color,omitempty"`
	PantsStyle *string `json:"pants_style,omitempty"`
	PantsColor *string `json:"pants_color,omitempty"`
}

// CharacterService 角色外观服务
type CharacterService struct {
	repos *repository.Manager
	log   *zap.Logger
}

// NewCharacterService 创建角色外观服务
func NewCharacterService(repos *repository.Manager, log *zap.Logger) *CharacterService {
	return &CharacterService{
		repos: repos,
		log:   log,
	}
}

// Get 获取用户的角色外观，不存在时返回默认外观
func (s *CharacterService) Get(ctx context.Context, userID uint) (*models.Character, error) {
	character, err := s.repos.Character().FindByUserID(ctx, userID)
	if err != nil || character == nil {
		character = &models.Character{UserID: userID}
		if err := s.repos.Character().Upsert(ctx, character); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert, "创建默认角色失败")
		}
	}
	return character, nil
}

// Customize 修改角色外观
func (s *CharacterService) Customize(ctx context.Context, userID uint, req *CharacterRequest) (*models.Character, error) {
	character, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Gender != nil {
		if *req.Gender != "male" && *req.Gender != "female" {
			return nil, apperrors.New(apperrors.ErrInvalidParam, "无效的性别")
		}
		character.Gender = *req.Gender
	}
	if req.SkinColor != nil {
		character.SkinColor = *req.SkinColor
	}
	if req.HairStyle != nil {
		character.HairStyle = *req.HairStyle
	}
	if req.HairColor != nil {
		character.HairColor = *req.HairColor
	}
	if req.ShirtStyle != nil {
		character.ShirtStyle = *req.ShirtStyle
	}
	if req.ShirtColor != nil {
		character.ShirtColor = *req.ShirtColor
	}
	if req.PantsStyle != nil {
		character.PantsStyle = *req.PantsStyle
	}
	if req.PantsColor != nil {
		character.PantsColor = *req.PantsColor
	}

	if err := s.repos.Character().Upsert(ctx, character); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseUpdate, "保存角色失败")
	}

	s.log.Info("角色外观已更新", zap.Uint("user_id", userID))
	return character, nil
}
