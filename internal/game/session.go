package game

import (
	"context"
	"math/rand"
	"sync"

	apperrors "github.com/wfunc/maze-game/internal/errors"
	"github.com/wfunc/maze-game/internal/logger"
	"github.com/wfunc/maze-game/internal/models"
	"github.com/wfunc/maze-game/internal/repository"
	"github.com/wfunc/maze-game/internal/utils"
)

// MoveResult 一次移动的完整结果
type MoveResult struct {
	Session   *models.GameSession `json:"session"`
	Room      *models.Room        `json:"room"`
	Rewards   []ClaimedReward     `json:"rewards,omitempty"`
	Traps     []TrapEffect        `json:"traps,omitempty"`
	GameEnded bool                `json:"game_ended"`
}

// RoomState 玩家当前房间的完整状态
type RoomState struct {
	Session *models.GameSession `json:"session"`
	Room    *models.Room        `json:"room"`
	Design  *models.RoomDesign  `json:"design,omitempty"`
	Ads     []*models.RoomAd    `json:"ads,omitempty"`
	Rewards []*models.Reward    `json:"rewards,omitempty"`
	Portal  *models.Portal      `json:"portal,omitempty"`
}

// SessionService 游戏会话服务
type SessionService struct {
	repos   *repository.Manager
	rewards *RewardService
	traps   *TrapService
	clock   Clock

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSessionService 创建游戏会话服务
func NewSessionService(repos *repository.Manager, rewards *RewardService, traps *TrapService, clock Clock, seed int64) *SessionService {
	return &SessionService{
		repos:   repos,
		rewards: rewards,
		traps:   traps,
		clock:   clock,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

func (s *SessionService) randIntn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// Start 在指定迷宫开始新会话，玩家从起点(0,0)出发
func (s *SessionService) Start(ctx context.Context, userID, mazeID uint) (*models.GameSession, error) {
	maze, err := s.repos.Maze().FindByID(ctx, mazeID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrMazeNotFound, "迷宫不存在")
	}
	if !maze.IsActive {
		return nil, apperrors.New(apperrors.ErrMazeInactive, "迷宫未激活")
	}

	token, err := utils.GenerateSessionToken()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "生成会话令牌失败")
	}

	session := &models.GameSession{
		UserID:       userID,
		MazeID:       mazeID,
		SessionToken: token,
		CurrentRoomX: 0,
		CurrentRoomY: 0,
		PositionY:    1.6,
		IsActive:     true,
		StartedAt:    s.clock.Now(),
		RoomsVisited: 1,
	}
	if err := s.repos.GameSession().Create(ctx, session); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert, "创建会话失败")
	}

	// 起点记入访问集合，注意RoomsVisited从1起算所以这里不走计数路径
	_ = s.repos.GameSession().GetDB().WithContext(ctx).Create(&models.VisitedRoom{
		SessionID: session.ID,
		RoomX:     0,
		RoomY:     0,
	}).Error

	_ = s.repos.GameSession().UpsertPosition(ctx, &models.PlayerPosition{
		SessionID: session.ID,
		PosY:      1.6,
	})

	logger.LogGameEvent("session_started", token, map[string]interface{}{
		"user_id": userID,
		"maze_id": mazeID,
	})
	return session, nil
}

// StartInActiveMaze 在当前激活的迷宫中开始新会话
func (s *SessionService) StartInActiveMaze(ctx context.Context, userID uint) (*models.GameSession, error) {
	maze, err := s.repos.Maze().FindActive(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrMazeNotFound, "没有激活的迷宫")
	}
	return s.Start(ctx, userID, maze.ID)
}

// Find 根据令牌查找激活的会话
func (s *SessionService) Find(ctx context.Context, token string) (*models.GameSession, error) {
	session, err := s.repos.GameSession().FindActiveByToken(ctx, token)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrSessionNotFound, "会话不存在或已结束")
	}
	return session, nil
}

// Authorize 查找会话并校验归属，令牌不属于该用户时拒绝
func (s *SessionService) Authorize(ctx context.Context, token string, userID uint) (*models.GameSession, error) {
	session, err := s.Find(ctx, token)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, apperrors.New(apperrors.ErrAuthorization, "会话不属于当前用户")
	}
	return session, nil
}

// Move 向指定方向移动一个房间，自动领取奖励并触发陷阱
func (s *SessionService) Move(ctx context.Context, token, direction string) (*MoveResult, error) {
	if !IsValidDirection(direction) {
		return nil, apperrors.New(apperrors.ErrInvalidDirection, "无效的移动方向")
	}

	session, err := s.Find(ctx, token)
	if err != nil {
		return nil, err
	}

	maze, err := s.repos.Maze().FindByID(ctx, session.MazeID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrMazeNotFound, "迷宫不存在")
	}

	// 冻结检查，已到期的冻结惰性解除
	frozen, err := s.traps.ResolveFrozen(ctx, session)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseUpdate, "冻结状态处理失败")
	}
	if frozen {
		return nil, apperrors.New(apperrors.ErrPlayerFrozen, "玩家处于冻结状态")
	}

	room, err := s.repos.Room().FindByCoord(ctx, session.MazeID, session.CurrentRoomX, session.CurrentRoomY)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrRoomNotFound, "当前房间不存在")
	}

	if !room.HasDoor(direction) {
		return nil, apperrors.New(apperrors.ErrNoDoor, "该方向没有门")
	}

	dx, dy := Delta(direction)
	nx, ny := session.CurrentRoomX+dx, session.CurrentRoomY+dy
	if nx < 0 || nx >= maze.Width || ny < 0 || ny >= maze.Height {
		return nil, apperrors.New(apperrors.ErrNoDoor, "已到达迷宫边界")
	}

	newRoom, err := s.repos.Room().FindByCoord(ctx, session.MazeID, nx, ny)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrRoomNotFound, "目标房间不存在")
	}

	if err := s.repos.GameSession().MoveTo(ctx, session.ID, nx, ny); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseUpdate, "移动失败")
	}
	session.CurrentRoomX, session.CurrentRoomY = nx, ny

	if _, err := s.repos.GameSession().AddVisitedRoom(ctx, session.ID, nx, ny); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert, "记录访问失败")
	}
	// 计数按移动次数累加，回到走过的房间也算
	if err := s.repos.GameSession().IncrementRoomsVisited(ctx, session.ID); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseUpdate, "更新移动统计失败")
	}
	session.RoomsVisited++

	result := &MoveResult{Session: session, Room: newRoom}

	// 自动领取新房间内的奖励
	claimed, bigClaimed, err := s.rewards.ClaimAt(ctx, session, nx, ny)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseUpdate, "奖励领取失败")
	}
	result.Rewards = claimed

	// 触发新房间内的陷阱
	effects, err := s.traps.TriggerAt(ctx, session, maze, nx, ny)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseUpdate, "陷阱触发失败")
	}
	result.Traps = effects

	// 大奖被领取后整场游戏结束
	if bigClaimed {
		result.GameEnded = true
		if err := s.EndAll(ctx, session.MazeID); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// UsePortal 使用当前房间的传送门，随机传送到迷宫内的其他房间
func (s *SessionService) UsePortal(ctx context.Context, token string) (*models.GameSession, error) {
	session, err := s.Find(ctx, token)
	if err != nil {
		return nil, err
	}

	frozen, err := s.traps.ResolveFrozen(ctx, session)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseUpdate, "冻结状态处理失败")
	}
	if frozen {
		return nil, apperrors.New(apperrors.ErrPlayerFrozen, "玩家处于冻结状态")
	}

	portal, err := s.repos.Room().FindPortalByRoom(ctx, session.MazeID, session.CurrentRoomX, session.CurrentRoomY)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrNoPortal, "当前房间没有传送门")
	}

	maze, err := s.repos.Maze().FindByID(ctx, session.MazeID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrMazeNotFound, "迷宫不存在")
	}

	// 目的地完全随机，可能落回当前房间
	nx := s.randIntn(maze.Width)
	ny := s.randIntn(maze.Height)

	if err := s.repos.GameSession().MoveTo(ctx, session.ID, nx, ny); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseUpdate, "传送失败")
	}
	_, _ = s.repos.GameSession().AddVisitedRoom(ctx, session.ID, nx, ny)
	_ = s.repos.Room().IncrementPortalUse(ctx, portal.ID)

	session.CurrentRoomX, session.CurrentRoomY = nx, ny

	logger.LogGameEvent("portal_used", token, map[string]interface{}{
		"portal_id": portal.ID,
		"to_x":      nx,
		"to_y":      ny,
	})
	return session, nil
}

// End 结束会话
func (s *SessionService) End(ctx context.Context, token string) error {
	session, err := s.Find(ctx, token)
	if err != nil {
		return err
	}

	if err := s.repos.GameSession().End(ctx, session.ID); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseUpdate, "结束会话失败")
	}
	_ = s.repos.GameSession().DeletePosition(ctx, session.ID)

	logger.LogGameEvent("session_ended", token, nil)
	return nil
}

// EndAll 结束迷宫内的所有激活会话（大奖被领取后调用）
func (s *SessionService) EndAll(ctx context.Context, mazeID uint) error {
	sessions, err := s.repos.GameSession().FindActiveByMaze(ctx, mazeID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "查询会话失败")
	}

	for _, session := range sessions {
		if err := s.repos.GameSession().End(ctx, session.ID); err != nil {
			return apperrors.Wrap(err, apperrors.ErrDatabaseUpdate, "结束会话失败")
		}
		_ = s.repos.GameSession().DeletePosition(ctx, session.ID)
	}
	return nil
}

// CurrentState 返回玩家当前房间的完整状态
func (s *SessionService) CurrentState(ctx context.Context, token string) (*RoomState, error) {
	session, err := s.Find(ctx, token)
	if err != nil {
		return nil, err
	}

	room, err := s.repos.Room().FindByCoord(ctx, session.MazeID, session.CurrentRoomX, session.CurrentRoomY)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrRoomNotFound, "当前房间不存在")
	}

	state := &RoomState{Session: session, Room: room}

	if design, err := s.repos.Room().FindDesign(ctx, room.ID); err == nil {
		state.Design = design
	}
	if ads, err := s.repos.Room().FindAds(ctx, room.ID); err == nil {
		state.Ads = ads
	}
	if rewards, err := s.repos.Reward().FindActiveByRoom(ctx, session.MazeID, room.X, room.Y, s.clock.Now()); err == nil {
		state.Rewards = rewards
	}
	if portal, err := s.repos.Room().FindPortalByRoom(ctx, session.MazeID, room.X, room.Y); err == nil {
		state.Portal = portal
	}

	return state, nil
}

// VisitedRooms 返回会话已访问的房间列表（小地图用）
func (s *SessionService) VisitedRooms(ctx context.Context, token string) ([]*models.VisitedRoom, error) {
	session, err := s.Find(ctx, token)
	if err != nil {
		return nil, err
	}

	rooms, err := s.repos.GameSession().ListVisitedRooms(ctx, session.ID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "查询访问记录失败")
	}
	return rooms, nil
}
