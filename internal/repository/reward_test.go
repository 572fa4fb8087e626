package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/wfunc/maze-game/internal/models"
	"gorm.io/gorm"
)

// RewardRepositoryTestSuite 奖励仓储测试套件
type RewardRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo RewardRepository
	ctx  context.Context
	maze *models.Maze
}

func (suite *RewardRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.repo = NewRewardRepository(suite.db)
	suite.ctx = context.Background()
	suite.maze = SeedTestMaze(suite.T(), suite.db, "测试迷宫", 5, 5)
}

func (suite *RewardRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

// 测试创建和查找奖励
func (suite *RewardRepositoryTestSuite) TestCreateAndFind() {
	reward := SeedTestReward(suite.T(), suite.db, suite.maze.ID, 2, 3, models.RewardTypeSmall, 25, 10*time.Second)

	found, err := suite.repo.FindByID(suite.ctx, reward.ID)
	suite.NoError(err)
	suite.Equal(2, found.RoomX)
	suite.Equal(3, found.RoomY)
	suite.Equal(models.RewardTypeSmall, found.RewardType)
	suite.False(found.IsClaimed)
}

// 测试按房间查找有效奖励
func (suite *RewardRepositoryTestSuite) TestFindActiveByRoom() {
	now := time.Now()
	SeedTestReward(suite.T(), suite.db, suite.maze.ID, 1, 1, models.RewardTypeSmall, 10, 10*time.Second)
	SeedTestReward(suite.T(), suite.db, suite.maze.ID, 1, 1, models.RewardTypeSmall, 20, 10*time.Second)
	// 其他房间的奖励不应该出现
	SeedTestReward(suite.T(), suite.db, suite.maze.ID, 2, 2, models.RewardTypeSmall, 30, 10*time.Second)

	rewards, err := suite.repo.FindActiveByRoom(suite.ctx, suite.maze.ID, 1, 1, now)
	suite.NoError(err)
	suite.Len(rewards, 2)
}

// 测试领取奖励
func (suite *RewardRepositoryTestSuite) TestClaim() {
	user := SeedTestUser(suite.T(), suite.db, "claimer", 0)
	reward := SeedTestReward(suite.T(), suite.db, suite.maze.ID, 0, 0, models.RewardTypeSmall, 15, 10*time.Second)

	err := suite.repo.Claim(suite.ctx, reward.ID, user.ID, time.Now())
	suite.NoError(err)

	found, err := suite.repo.FindByID(suite.ctx, reward.ID)
	suite.NoError(err)
	suite.True(found.IsClaimed)
	suite.Equal(user.ID, *found.ClaimedByID)
	suite.NotNil(found.ClaimedAt)
}

// 测试重复领取被拒绝
func (suite *RewardRepositoryTestSuite) TestClaimTwice() {
	user1 := SeedTestUser(suite.T(), suite.db, "first", 0)
	user2 := SeedTestUser(suite.T(), suite.db, "second", 0)
	reward := SeedTestReward(suite.T(), suite.db, suite.maze.ID, 0, 0, models.RewardTypeBig, 5000, 3*time.Second)

	err := suite.repo.Claim(suite.ctx, reward.ID, user1.ID, time.Now())
	suite.NoError(err)

	err = suite.repo.Claim(suite.ctx, reward.ID, user2.ID, time.Now())
	suite.ErrorIs(err, ErrRewardGone)

	// 领取者仍然是第一个用户
	found, _ := suite.repo.FindByID(suite.ctx, reward.ID)
	suite.Equal(user1.ID, *found.ClaimedByID)
}

// 测试多个玩家争抢同一奖励时只有一个成功
func (suite *RewardRepositoryTestSuite) TestCompetingClaims() {
	reward := SeedTestReward(suite.T(), suite.db, suite.maze.ID, 0, 0, models.RewardTypeBig, 8000, 3*time.Second)

	users := make([]*models.User, 5)
	for i := range users {
		users[i] = SeedTestUser(suite.T(), suite.db, "racer"+string(rune('a'+i)), 0)
	}

	successCount := 0
	for _, user := range users {
		if err := suite.repo.Claim(suite.ctx, reward.ID, user.ID, time.Now()); err == nil {
			successCount++
		}
	}

	suite.Equal(1, successCount)

	// 领取者是第一个成功的用户
	found, _ := suite.repo.FindByID(suite.ctx, reward.ID)
	suite.Equal(users[0].ID, *found.ClaimedByID)
}

// 测试过期时间已到但未被清理任务处理的奖励不可领取
func (suite *RewardRepositoryTestSuite) TestClaimExpiredBeforeSweep() {
	user := SeedTestUser(suite.T(), suite.db, "late", 0)
	reward := SeedTestReward(suite.T(), suite.db, suite.maze.ID, 0, 0, models.RewardTypeSmall, 10, -1*time.Second)

	// 清理任务还没有运行，is_expired仍然是false
	suite.False(reward.IsExpired)

	err := suite.repo.Claim(suite.ctx, reward.ID, user.ID, time.Now())
	suite.ErrorIs(err, ErrRewardGone)
}

// 测试过期清理
func (suite *RewardRepositoryTestSuite) TestMarkExpired() {
	SeedTestReward(suite.T(), suite.db, suite.maze.ID, 0, 0, models.RewardTypeSmall, 10, -5*time.Second)
	SeedTestReward(suite.T(), suite.db, suite.maze.ID, 1, 0, models.RewardTypeSmall, 20, -1*time.Second)
	fresh := SeedTestReward(suite.T(), suite.db, suite.maze.ID, 2, 0, models.RewardTypeSmall, 30, 10*time.Second)

	count, err := suite.repo.MarkExpired(suite.ctx, time.Now())
	suite.NoError(err)
	suite.Equal(int64(2), count)

	// 未过期的奖励不受影响
	found, _ := suite.repo.FindByID(suite.ctx, fresh.ID)
	suite.False(found.IsExpired)

	// 再次运行不应该重复处理
	count, err = suite.repo.MarkExpired(suite.ctx, time.Now())
	suite.NoError(err)
	suite.Equal(int64(0), count)
}

// 测试大奖唯一性检查
func (suite *RewardRepositoryTestSuite) TestHasActiveBigReward() {
	now := time.Now()

	has, err := suite.repo.HasActiveBigReward(suite.ctx, suite.maze.ID, now)
	suite.NoError(err)
	suite.False(has)

	SeedTestReward(suite.T(), suite.db, suite.maze.ID, 3, 3, models.RewardTypeBig, 9000, 3*time.Second)

	has, err = suite.repo.HasActiveBigReward(suite.ctx, suite.maze.ID, now)
	suite.NoError(err)
	suite.True(has)
}

func TestRewardRepositorySuite(t *testing.T) {
	suite.Run(t, new(RewardRepositoryTestSuite))
}
