package repository

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// Manager 仓储管理器，提供所有仓储的统一访问接口
type Manager struct {
	db *gorm.DB

	// 仓储实例（使用懒加载）
	userOnce sync.Once
	user     UserRepository

	characterOnce sync.Once
	character     CharacterRepository

	mazeOnce sync.Once
	maze     MazeRepository

	roomOnce sync.Once
	room     RoomRepository

	gameSessionOnce sync.Once
	gameSession     GameSessionRepository

	rewardOnce sync.Once
	reward     RewardRepository

	trapOnce sync.Once
	trap     TrapRepository

	transactionOnce sync.Once
	transaction     TransactionRepository
}

// NewManager 创建仓储管理器
func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

// GetDB 获取数据库实例
func (m *Manager) GetDB() *gorm.DB {
	return m.db
}

// User 获取用户仓储
func (m *Manager) User() UserRepository {
	m.userOnce.Do(func() {
		m.user = NewUserRepository(m.db)
	})
	return m.user
}

// Character 获取角色外观仓储
func (m *Manager) Character() CharacterRepository {
	m.characterOnce.Do(func() {
		m.character = NewCharacterRepository(m.db)
	})
	return m.character
}

// Maze 获取迷宫仓储
func (m *Manager) Maze() MazeRepository {
	m.mazeOnce.Do(func() {
		m.maze = NewMazeRepository(m.db)
	})
	return m.maze
}

// Room 获取房间仓储
func (m *Manager) Room() RoomRepository {
	m.roomOnce.Do(func() {
		m.room = NewRoomRepository(m.db)
	})
	return m.room
}

// GameSession 获取游戏会话仓储
func (m *Manager) GameSession() GameSessionRepository {
	m.gameSessionOnce.Do(func() {
		m.gameSession = NewGameSessionRepository(m.db)
	})
	return m.gameSession
}

// Reward 获取奖励仓储
func (m *Manager) Reward() RewardRepository {
	m.rewardOnce.Do(func() {
		m.reward = NewRewardRepository(m.db)
	})
	return m.reward
}

// Trap 获取陷阱仓储
func (m *Manager) Trap() TrapRepository {
	m.trapOnce.Do(func() {
		m.trap = NewTrapRepository(m.db)
	})
	return m.trap
}

// TransactionRepo 获取交易流水仓储
func (m *Manager) TransactionRepo() TransactionRepository {
	m.transactionOnce.Do(func() {
		m.transaction = NewTransactionRepository(m.db)
	})
	return m.transaction
}

// WithTransaction 在事务中执行操作
func (m *Manager) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return m.db.WithContext(ctx).Transaction(fn)
}
