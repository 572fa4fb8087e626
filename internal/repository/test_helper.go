package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wfunc/maze-game/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB 为测试套件设置测试数据库
func SetupTestDB() *gorm.DB {
	// 使用内存数据库进行测试（更快，不需要文件系统，在所有环境中都能工作）
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}

	// 自动迁移所有模型
	err = db.AutoMigrate(
		// 用户系统
		&models.User{},
		&models.Character{},

		// 迷宫系统
		&models.Maze{},
		&models.Room{},
		&models.RoomDesign{},
		&models.RoomAd{},
		&models.Portal{},

		// 会话系统
		&models.GameSession{},
		&models.VisitedRoom{},
		&models.PlayerPosition{},

		// 奖励与陷阱
		&models.Reward{},
		&models.RewardClaim{},
		&models.Trap{},

		// 交易系统
		&models.Transaction{},
	)
	if err != nil {
		panic(err)
	}

	return db
}

// CleanupTestDB 清理测试数据库
func CleanupTestDB(db *gorm.DB) {
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// SeedTestUser 创建测试用户
func SeedTestUser(t *testing.T, db *gorm.DB, username string, balance float64) *models.User {
	user := &models.User{
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: "hashed",
		Balance:        balance,
		Status:         "active",
	}
	err := db.Create(user).Error
	require.NoError(t, err)
	return user
}

// SeedTestMaze 创建测试迷宫（不含房间）
func SeedTestMaze(t *testing.T, db *gorm.DB, name string, width, height int) *models.Maze {
	maze := &models.Maze{
		Name:              name,
		Width:             width,
		Height:            height,
		IsActive:          true,
		BigRewardChance:   0.001,
		SmallRewardChance: 0.05,
	}
	err := db.Create(maze).Error
	require.NoError(t, err)
	return maze
}

// SeedTestSession 创建测试游戏会话
func SeedTestSession(t *testing.T, db *gorm.DB, userID, mazeID uint, token string) *models.GameSession {
	session := &models.GameSession{
		UserID:       userID,
		MazeID:       mazeID,
		SessionToken: token,
		CurrentRoomX: 0,
		CurrentRoomY: 0,
		IsActive:     true,
		StartedAt:    time.Now(),
		RoomsVisited: 1,
	}
	err := db.Create(session).Error
	require.NoError(t, err)
	return session
}

// SeedTestReward 创建测试奖励
func SeedTestReward(t *testing.T, db *gorm.DB, mazeID uint, x, y int, rewardType string, amount float64, lifetime time.Duration) *models.Reward {
	now := time.Now()
	reward := &models.Reward{
		MazeID:     mazeID,
		RoomX:      x,
		RoomY:      y,
		RewardType: rewardType,
		Amount:     amount,
		SpawnedAt:  now,
		ExpiresAt:  now.Add(lifetime),
	}
	err := db.Create(reward).Error
	require.NoError(t, err)
	return reward
}
