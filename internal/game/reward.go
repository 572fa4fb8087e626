package game

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"

	"github.com/wfunc/maze-game/internal/config"
	"github.com/wfunc/maze-game/internal/logger"
	"github.com/wfunc/maze-game/internal/models"
	"github.com/wfunc/maze-game/internal/repository"
)

// ClaimedReward 奖励领取结果
type ClaimedReward struct {
	RewardID   uint    `json:"reward_id"`
	RewardType string  `json:"reward_type"`
	Amount     float64 `json:"amount"`
}

// RewardService 奖励服务，负责生成、领取和过期清理
type RewardService struct {
	repos *repository.Manager
	cfg   *config.RewardConfig
	clock Clock

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRewardService 创建奖励服务
func NewRewardService(repos *repository.Manager, cfg *config.RewardConfig, clock Clock, seed int64) *RewardService {
	return &RewardService{
		repos: repos,
		cfg:   cfg,
		clock: clock,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

func (s *RewardService) randFloat() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *RewardService) randIntn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// roundAmount 金额保留两位小数
func roundAmount(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// unoccupiedRooms 过滤掉有玩家正停留的房间
func (s *RewardService) unoccupiedRooms(ctx context.Context, mazeID uint, rooms []*models.Room) ([]*models.Room, error) {
	sessions, err := s.repos.GameSession().FindActiveByMaze(ctx, mazeID)
	if err != nil {
		return nil, err
	}

	occupied := make(map[[2]int]struct{}, len(sessions))
	for _, sess := range sessions {
		occupied[[2]int{sess.CurrentRoomX, sess.CurrentRoomY}] = struct{}{}
	}

	empty := make([]*models.Room, 0, len(rooms))
	for _, room := range rooms {
		if _, ok := occupied[[2]int{room.X, room.Y}]; !ok {
			empty = append(empty, room)
		}
	}
	return empty, nil
}

// SpawnBig 在随机房间生成大奖，全迷宫同时最多存在一个
func (s *RewardService) SpawnBig(ctx context.Context, mazeID uint) (*models.Reward, error) {
	now := s.clock.Now()

	has, err := s.repos.Reward().HasActiveBigReward(ctx, mazeID, now)
	if err != nil {
		return nil, err
	}
	if has {
		return nil, nil
	}

	rooms, err := s.repos.Room().FindByMaze(ctx, mazeID)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, errors.New("迷宫没有房间")
	}

	// 不在有玩家的房间生成，没有空房间时本轮跳过
	rooms, err = s.unoccupiedRooms(ctx, mazeID, rooms)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, nil
	}

	room := rooms[s.randIntn(len(rooms))]
	amount := roundAmount(s.cfg.BigMinAmount + s.randFloat()*(s.cfg.BigMaxAmount-s.cfg.BigMinAmount))

	reward := &models.Reward{
		MazeID:     mazeID,
		RoomX:      room.X,
		RoomY:      room.Y,
		RewardType: models.RewardTypeBig,
		Amount:     amount,
		SpawnedAt:  now,
		ExpiresAt:  now.Add(s.cfg.BigDuration),
	}
	if err := s.repos.Reward().Create(ctx, reward); err != nil {
		return nil, err
	}

	logger.LogGameEvent("big_reward_spawned", "", map[string]interface{}{
		"maze_id": mazeID,
		"room_x":  room.X,
		"room_y":  room.Y,
		"amount":  amount,
	})
	return reward, nil
}

// SpawnSmall 在已售房间中生成小额奖励，没有已售房间时回退到所有房间
func (s *RewardService) SpawnSmall(ctx context.Context, mazeID uint) (*models.Reward, error) {
	now := s.clock.Now()

	rooms, err := s.repos.Room().FindSoldByMaze(ctx, mazeID)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		rooms, err = s.repos.Room().FindByMaze(ctx, mazeID)
		if err != nil {
			return nil, err
		}
	}
	if len(rooms) == 0 {
		return nil, errors.New("迷宫没有房间")
	}

	rooms, err = s.unoccupiedRooms(ctx, mazeID, rooms)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, nil
	}

	room := rooms[s.randIntn(len(rooms))]
	amount := roundAmount(s.cfg.SmallMinAmount + s.randFloat()*(s.cfg.SmallMaxAmount-s.cfg.SmallMinAmount))

	reward := &models.Reward{
		MazeID:     mazeID,
		RoomX:      room.X,
		RoomY:      room.Y,
		RewardType: models.RewardTypeSmall,
		Amount:     amount,
		SpawnedAt:  now,
		ExpiresAt:  now.Add(s.cfg.SmallDuration),
	}
	if err := s.repos.Reward().Create(ctx, reward); err != nil {
		return nil, err
	}
	return reward, nil
}

// MaybeSpawn 按配置概率投放奖励，返回本轮生成的奖励
func (s *RewardService) MaybeSpawn(ctx context.Context, mazeID uint) ([]*models.Reward, error) {
	var spawned []*models.Reward

	if s.randFloat() < s.cfg.BigChance {
		reward, err := s.SpawnBig(ctx, mazeID)
		if err != nil {
			return spawned, err
		}
		if reward != nil {
			spawned = append(spawned, reward)
		}
	}

	if s.randFloat() < s.cfg.SmallChance {
		reward, err := s.SpawnSmall(ctx, mazeID)
		if err != nil {
			return spawned, err
		}
		if reward != nil {
			spawned = append(spawned, reward)
		}
	}

	return spawned, nil
}

// ClaimAt 领取房间内的所有有效奖励并入账，返回领取结果和是否领到大奖
func (s *RewardService) ClaimAt(ctx context.Context, session *models.GameSession, x, y int) ([]ClaimedReward, bool, error) {
	now := s.clock.Now()

	rewards, err := s.repos.Reward().FindPendingByRoom(ctx, session.MazeID, x, y)
	if err != nil {
		return nil, false, err
	}

	var claimed []ClaimedReward
	bigClaimed := false

	for _, reward := range rewards {
		// 已到期但还没被清理任务处理的奖励，顺手标记过期
		if !now.Before(reward.ExpiresAt) {
			_ = s.repos.Reward().MarkExpiredByID(ctx, reward.ID)
			continue
		}

		// 条件更新保证并发时同一奖励只归一个玩家
		if err := s.repos.Reward().Claim(ctx, reward.ID, session.UserID, now); err != nil {
			if errors.Is(err, repository.ErrRewardGone) {
				continue
			}
			return claimed, bigClaimed, err
		}

		if err := s.repos.User().AddBalance(ctx, session.UserID, reward.Amount); err != nil {
			return claimed, bigClaimed, err
		}

		if err := s.repos.Reward().CreateClaim(ctx, &models.RewardClaim{
			RewardID: reward.ID,
			UserID:   session.UserID,
			Amount:   reward.Amount,
		}); err != nil {
			return claimed, bigClaimed, err
		}

		user, err := s.repos.User().FindByID(ctx, session.UserID)
		if err == nil {
			_ = s.repos.TransactionRepo().Create(ctx, &models.Transaction{
				UserID:          session.UserID,
				TransactionType: models.TransactionRewardClaim,
				Amount:          reward.Amount,
				BalanceAfter:    user.Balance,
				ReferenceType:   "reward",
				ReferenceID:     reward.ID,
			})
		}

		_ = s.repos.GameSession().IncrementRewards(ctx, session.ID)

		claimed = append(claimed, ClaimedReward{
			RewardID:   reward.ID,
			RewardType: reward.RewardType,
			Amount:     reward.Amount,
		})

		if reward.IsBig() {
			bigClaimed = true
			logger.LogGameEvent("big_reward_claimed", session.SessionToken, map[string]interface{}{
				"reward_id": reward.ID,
				"amount":    reward.Amount,
			})
		}
	}

	return claimed, bigClaimed, nil
}

// Expire 清理已到期的奖励，返回处理数量
func (s *RewardService) Expire(ctx context.Context) (int64, error) {
	return s.repos.Reward().MarkExpired(ctx, s.clock.Now())
}
