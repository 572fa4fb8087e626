package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// UserRepositoryTestSuite 用户仓储测试套件
type UserRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo UserRepository
	ctx  context.Context
}

func (suite *UserRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.repo = NewUserRepository(suite.db)
	suite.ctx = context.Background()
}

func (suite *UserRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

// 测试余额增加
func (suite *UserRepositoryTestSuite) TestAddBalance() {
	user := SeedTestUser(suite.T(), suite.db, "rich", 100)

	suite.NoError(suite.repo.AddBalance(suite.ctx, user.ID, 50))

	found, _ := suite.repo.FindByID(suite.ctx, user.ID)
	suite.Equal(150.0, found.Balance)
}

// 测试余额扣减
func (suite *UserRepositoryTestSuite) TestDeductBalance() {
	user := SeedTestUser(suite.T(), suite.db, "buyer", 100)

	suite.NoError(suite.repo.DeductBalance(suite.ctx, user.ID, 60))

	found, _ := suite.repo.FindByID(suite.ctx, user.ID)
	suite.Equal(40.0, found.Balance)
}

// 测试余额不足时扣减被拒绝
func (suite *UserRepositoryTestSuite) TestDeductBalanceInsufficient() {
	user := SeedTestUser(suite.T(), suite.db, "poor", 10)

	err := suite.repo.DeductBalance(suite.ctx, user.ID, 100)
	suite.Error(err)

	// 余额保持不变
	found, _ := suite.repo.FindByID(suite.ctx, user.ID)
	suite.Equal(10.0, found.Balance)
}

// 测试按用户名查找
func (suite *UserRepositoryTestSuite) TestFindByUsername() {
	SeedTestUser(suite.T(), suite.db, "alice", 0)

	found, err := suite.repo.FindByUsername(suite.ctx, "alice")
	suite.NoError(err)
	suite.Equal("alice", found.Username)

	_, err = suite.repo.FindByUsername(suite.ctx, "nobody")
	suite.Error(err)
}

func TestUserRepositorySuite(t *testing.T) {
	suite.Run(t, new(UserRepositoryTestSuite))
}
