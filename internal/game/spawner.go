package game

import (
	"context"
	"sync"
	"time"

	"github.com/wfunc/maze-game/internal/logger"
	"github.com/wfunc/maze-game/internal/models"
	"github.com/wfunc/maze-game/internal/repository"
	"go.uber.org/zap"
)

// Spawner 后台奖励投放器，周期性地在激活迷宫中投放奖励并清理过期奖励
type Spawner struct {
	repos    *repository.Manager
	rewards  *RewardService
	interval time.Duration

	// OnRewardSpawned 奖励生成后的回调（用于实时广播）
	OnRewardSpawned func(reward *models.Reward)

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSpawner 创建后台投放器
func NewSpawner(repos *repository.Manager, rewards *RewardService, interval time.Duration) *Spawner {
	return &Spawner{
		repos:    repos,
		rewards:  rewards,
		interval: interval,
	}
}

// Start 启动后台循环
func (s *Spawner) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		logger.Info("奖励投放器启动", zap.Duration("interval", s.interval))

		for {
			select {
			case <-ctx.Done():
				logger.Info("奖励投放器停止")
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop 停止后台循环并等待退出
func (s *Spawner) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// tick 单轮投放，任何错误只记录日志不中断循环
func (s *Spawner) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("奖励投放器异常恢复", zap.Any("panic", r))
		}
	}()

	if expired, err := s.rewards.Expire(ctx); err != nil {
		logger.Error("过期奖励清理失败", zap.Error(err))
	} else if expired > 0 {
		logger.Debug("过期奖励已清理", zap.Int64("count", expired))
	}

	maze, err := s.repos.Maze().FindActive(ctx)
	if err != nil {
		// 没有激活的迷宫时静默跳过
		return
	}

	spawned, err := s.rewards.MaybeSpawn(ctx, maze.ID)
	if err != nil {
		logger.Error("奖励投放失败", zap.Error(err), zap.Uint("maze_id", maze.ID))
		return
	}

	if s.OnRewardSpawned != nil {
		for _, reward := range spawned {
			s.OnRewardSpawned(reward)
		}
	}
}
