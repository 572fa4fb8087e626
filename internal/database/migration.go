package database

import (
	"fmt"

	"github.com/wfunc/maze-game/internal/logger"
	"github.com/wfunc/maze-game/internal/models"
	"go.uber.org/zap"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	// 清理过期锁文件
	CleanupStaleLocks()

	// 获取迁移锁，避免多个进程同时迁移
	dbPath := getDBPath()
	if dbPath != "" {
		lockFile, err := acquireMigrationLock(dbPath)
		if err != nil {
			logger.Error("无法获取迁移锁", zap.Error(err))
			return fmt.Errorf("获取迁移锁失败: %w", err)
		}
		defer releaseMigrationLock(lockFile)
	}

	// 定义需要迁移的模型
	migrationModels := []interface{}{
		// 用户相关
		&models.User{},
		&models.Character{},

		// 迷宫相关
		&models.Maze{},
		&models.Room{},
		&models.RoomDesign{},
		&models.RoomAd{},
		&models.Portal{},

		// 会话相关
		&models.GameSession{},
		&models.VisitedRoom{},
		&models.PlayerPosition{},

		// 奖励与陷阱
		&models.Reward{},
		&models.RewardClaim{},
		&models.Trap{},

		// 交易相关
		&models.Transaction{},
	}

	logger.Info("开始数据库迁移...")

	// SQLite迁移重建表时外键约束会引起锁定问题
	if DB.Dialector.Name() == "sqlite" {
		DB.Exec("PRAGMA foreign_keys = OFF")
		defer DB.Exec("PRAGMA foreign_keys = ON")
	}

	for _, model := range migrationModels {
		if err := DB.AutoMigrate(model); err != nil {
			logger.Error("迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return err
		}
		logger.Debug("迁移成功", zap.String("model", fmt.Sprintf("%T", model)))
	}

	// 创建索引
	if err := createIndexes(); err != nil {
		return err
	}

	logger.Info("数据库迁移完成")
	return nil
}

// createIndexes 创建数据库索引
func createIndexes() error {
	// 用户表索引
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_users_username"), zap.Error(err))
	}

	// 游戏会话索引
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_game_sessions_user_id ON game_sessions(user_id)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_game_sessions_user_id"), zap.Error(err))
	}

	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_game_sessions_maze_active ON game_sessions(maze_id, is_active)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_game_sessions_maze_active"), zap.Error(err))
	}

	// 奖励表索引（后台清理任务按迷宫+状态扫描）
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_rewards_maze_state ON rewards(maze_id, is_claimed, is_expired)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_rewards_maze_state"), zap.Error(err))
	}

	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_rewards_room ON rewards(maze_id, room_x, room_y)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_rewards_room"), zap.Error(err))
	}

	// 陷阱表索引
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_traps_room ON traps(maze_id, room_x, room_y, is_active)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_traps_room"), zap.Error(err))
	}

	// 交易表索引
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_transactions_user_id"), zap.Error(err))
	}

	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_transactions_created_at"), zap.Error(err))
	}

	logger.Info("数据库索引创建完成")
	return nil
}

// DropAllTables 删除所有表（仅用于测试环境）
func DropAllTables() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	var tables []string
	if err := DB.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tables).Error; err != nil {
		return err
	}

	for _, table := range tables {
		if err := DB.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)).Error; err != nil {
			logger.Error("删除表失败", zap.String("table", table), zap.Error(err))
			return err
		}
	}

	logger.Info("所有表已删除")
	return nil
}
