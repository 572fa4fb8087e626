package game

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/wfunc/maze-game/internal/config"
	"github.com/wfunc/maze-game/internal/logger"
	"github.com/wfunc/maze-game/internal/models"
	"github.com/wfunc/maze-game/internal/repository"
)

// TrapEffect 陷阱触发后施加给玩家的效果
type TrapEffect struct {
	TrapID     uint    `json:"trap_id"`
	TrapType   string  `json:"trap_type"`
	Duration   int     `json:"duration"`
	Intensity  float64 `json:"intensity"`
	NewRoomX   *int    `json:"new_room_x,omitempty"`
	NewRoomY   *int    `json:"new_room_y,omitempty"`
	AmountLost float64 `json:"amount_lost,omitempty"`
}

// TrapService 陷阱服务，负责放置和触发
type TrapService struct {
	repos *repository.Manager
	cfg   *config.TrapConfig
	clock Clock

	mu  sync.Mutex
	rng *rand.Rand
}

// NewTrapService 创建陷阱服务
func NewTrapService(repos *repository.Manager, cfg *config.TrapConfig, clock Clock, seed int64) *TrapService {
	return &TrapService{
		repos: repos,
		cfg:   cfg,
		clock: clock,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

func (s *TrapService) randIntn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// Spawn 在指定房间放置陷阱，起点房间不允许放置
func (s *TrapService) Spawn(ctx context.Context, mazeID uint, x, y int, trapType string) (*models.Trap, error) {
	if !models.IsValidTrapType(trapType) {
		return nil, errors.New("未知的陷阱类型")
	}
	if x == 0 && y == 0 {
		return nil, errors.New("起点房间不能放置陷阱")
	}

	trap := &models.Trap{
		MazeID:    mazeID,
		RoomX:     x,
		RoomY:     y,
		TrapType:  trapType,
		Duration:  models.TrapDurations[trapType],
		Intensity: 1.0,
		IsActive:  true,
	}
	if trapType == models.TrapSlow {
		trap.Intensity = 0.5
	}

	if err := s.repos.Trap().Create(ctx, trap); err != nil {
		return nil, err
	}
	return trap, nil
}

// SpawnRandom 在随机房间放置随机类型的陷阱
func (s *TrapService) SpawnRandom(ctx context.Context, maze *models.Maze) (*models.Trap, error) {
	trapType := models.TrapTypes[s.randIntn(len(models.TrapTypes))]

	// 起点(0,0)被排除，最多重试几次
	for i := 0; i < 10; i++ {
		x := s.randIntn(maze.Width)
		y := s.randIntn(maze.Height)
		if x == 0 && y == 0 {
			continue
		}
		return s.Spawn(ctx, maze.ID, x, y, trapType)
	}
	return nil, errors.New("找不到可放置陷阱的房间")
}

// TriggerAt 触发房间内的所有陷阱并施加效果
func (s *TrapService) TriggerAt(ctx context.Context, session *models.GameSession, maze *models.Maze, x, y int) ([]TrapEffect, error) {
	now := s.clock.Now()

	traps, err := s.repos.Trap().FindActiveByRoom(ctx, session.MazeID, x, y)
	if err != nil {
		return nil, err
	}

	var effects []TrapEffect
	for _, trap := range traps {
		// 条件更新保证同一陷阱只触发一次
		if err := s.repos.Trap().Trigger(ctx, trap.ID, session.UserID, now); err != nil {
			if errors.Is(err, repository.ErrTrapGone) {
				continue
			}
			return effects, err
		}

		effect := TrapEffect{
			TrapID:    trap.ID,
			TrapType:  trap.TrapType,
			Duration:  trap.Duration,
			Intensity: trap.Intensity,
		}

		switch trap.TrapType {
		case models.TrapTeleportStart:
			zero := 0
			effect.NewRoomX, effect.NewRoomY = &zero, &zero
			if err := s.repos.GameSession().MoveTo(ctx, session.ID, 0, 0); err != nil {
				return effects, err
			}
			session.CurrentRoomX, session.CurrentRoomY = 0, 0

		case models.TrapFreeze:
			until := now.Add(s.cfg.FreezeDuration)
			if err := s.repos.GameSession().SetFrozen(ctx, session.ID, until); err != nil {
				return effects, err
			}
			session.IsFrozen = true
			session.FrozenUntil = &until

		case models.TrapRandomTeleport:
			nx := s.randIntn(maze.Width)
			ny := s.randIntn(maze.Height)
			effect.NewRoomX, effect.NewRoomY = &nx, &ny
			if err := s.repos.GameSession().MoveTo(ctx, session.ID, nx, ny); err != nil {
				return effects, err
			}
			_, _ = s.repos.GameSession().AddVisitedRoom(ctx, session.ID, nx, ny)
			session.CurrentRoomX, session.CurrentRoomY = nx, ny

		case models.TrapLoseReward:
			user, err := s.repos.User().FindByID(ctx, session.UserID)
			if err != nil {
				return effects, err
			}
			loss := user.Balance * s.cfg.LoseRewardRate
			if loss > 0 {
				if err := s.repos.User().DeductBalance(ctx, session.UserID, loss); err == nil {
					effect.AmountLost = loss
					_ = s.repos.TransactionRepo().Create(ctx, &models.Transaction{
						UserID:          session.UserID,
						TransactionType: models.TransactionTrapPenalty,
						Amount:          -loss,
						BalanceAfter:    user.Balance - loss,
						ReferenceType:   "trap",
						ReferenceID:     trap.ID,
					})
				}
			}

		default:
			// blind、slow、reverse_controls只影响客户端表现，服务端仅下发效果
		}

		_ = s.repos.GameSession().IncrementTraps(ctx, session.ID)

		logger.LogGameEvent("trap_triggered", session.SessionToken, map[string]interface{}{
			"trap_id":   trap.ID,
			"trap_type": trap.TrapType,
			"room_x":    x,
			"room_y":    y,
		})

		effects = append(effects, effect)
	}

	return effects, nil
}

// ResolveFrozen 处理冻结状态的惰性过期，返回玩家当前是否仍被冻结
func (s *TrapService) ResolveFrozen(ctx context.Context, session *models.GameSession) (bool, error) {
	if !session.IsFrozen {
		return false, nil
	}

	if session.FrozenUntil != nil && s.clock.Now().Before(*session.FrozenUntil) {
		return true, nil
	}

	// 冻结已到期，顺手解除
	if err := s.repos.GameSession().ClearFrozen(ctx, session.ID); err != nil {
		return false, err
	}
	session.IsFrozen = false
	session.FrozenUntil = nil
	return false, nil
}
