package game

import (
	"context"

	apperrors "github.com/wfunc/maze-game/internal/errors"
	"github.com/wfunc/maze-game/internal/logger"
	"github.com/wfunc/maze-game/internal/models"
	"github.com/wfunc/maze-game/internal/repository"
)

// MazeService 迷宫管理服务
type MazeService struct {
	repos     *repository.Manager
	generator *Generator
}

// NewMazeService 创建迷宫管理服务
func NewMazeService(repos *repository.Manager, generator *Generator) *MazeService {
	return &MazeService{
		repos:     repos,
		generator: generator,
	}
}

// Create 生成并持久化一个新迷宫，房间、装修、广告位和传送门一并落库
func (s *MazeService) Create(ctx context.Context, name string, width, height, portalCount int) (*models.Maze, error) {
	layout, err := s.generator.Generate(width, height, portalCount)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidParam, "迷宫生成失败")
	}

	maze := &models.Maze{
		Name:              name,
		Width:             width,
		Height:            height,
		BigRewardChance:   0.001,
		SmallRewardChance: 0.05,
	}
	if err := s.repos.Maze().Create(ctx, maze); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert, "创建迷宫失败")
	}

	for _, room := range layout.Rooms {
		room.MazeID = maze.ID
	}
	if err := s.repos.Room().BatchCreate(ctx, layout.Rooms); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert, "创建房间失败")
	}

	for _, portal := range layout.Portals {
		portal.MazeID = maze.ID
		if err := s.repos.Room().CreatePortal(ctx, portal); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert, "创建传送门失败")
		}
	}

	logger.LogGameEvent("maze_created", "", map[string]interface{}{
		"maze_id": maze.ID,
		"name":    name,
		"width":   width,
		"height":  height,
	})
	return maze, nil
}

// Activate 激活指定迷宫，同时停用其他所有迷宫
func (s *MazeService) Activate(ctx context.Context, mazeID uint) error {
	if err := s.repos.Maze().Activate(ctx, mazeID); err != nil {
		return apperrors.Wrap(err, apperrors.ErrMazeNotFound, "激活迷宫失败")
	}
	return nil
}

// Layout 返回迷宫的完整布局（房间和传送门）
func (s *MazeService) Layout(ctx context.Context, mazeID uint) ([]*models.Room, []*models.Portal, error) {
	rooms, err := s.repos.Room().FindByMaze(ctx, mazeID)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "查询房间失败")
	}
	portals, err := s.repos.Room().FindPortalsByMaze(ctx, mazeID)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "查询传送门失败")
	}
	return rooms, portals, nil
}
