package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/wfunc/maze-game/internal/models"
	"gorm.io/gorm"
)

// MazeRepositoryTestSuite 迷宫仓储测试套件
type MazeRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo MazeRepository
	ctx  context.Context
}

func (suite *MazeRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.repo = NewMazeRepository(suite.db)
	suite.ctx = context.Background()
}

func (suite *MazeRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

// 测试创建和查找
func (suite *MazeRepositoryTestSuite) TestCreateAndFind() {
	maze := &models.Maze{Name: "一号迷宫", Width: 10, Height: 10}
	suite.NoError(suite.repo.Create(suite.ctx, maze))
	suite.NotZero(maze.ID)

	found, err := suite.repo.FindByID(suite.ctx, maze.ID)
	suite.NoError(err)
	suite.Equal("一号迷宫", found.Name)
	suite.Equal(10, found.Width)
}

// 测试激活迷宫时停用其他迷宫
func (suite *MazeRepositoryTestSuite) TestActivateDeactivatesOthers() {
	m1 := &models.Maze{Name: "旧迷宫", Width: 5, Height: 5, IsActive: true}
	m2 := &models.Maze{Name: "新迷宫", Width: 8, Height: 8}
	suite.NoError(suite.repo.Create(suite.ctx, m1))
	suite.NoError(suite.repo.Create(suite.ctx, m2))

	suite.NoError(suite.repo.Activate(suite.ctx, m2.ID))

	active, err := suite.repo.FindActive(suite.ctx)
	suite.NoError(err)
	suite.Equal(m2.ID, active.ID)

	old, _ := suite.repo.FindByID(suite.ctx, m1.ID)
	suite.False(old.IsActive)
}

// 测试激活不存在的迷宫
func (suite *MazeRepositoryTestSuite) TestActivateMissing() {
	err := suite.repo.Activate(suite.ctx, 9999)
	suite.Error(err)
}

// 测试无激活迷宫时查找失败
func (suite *MazeRepositoryTestSuite) TestFindActiveEmpty() {
	_, err := suite.repo.FindActive(suite.ctx)
	suite.Error(err)
}

func TestMazeRepositorySuite(t *testing.T) {
	suite.Run(t, new(MazeRepositoryTestSuite))
}
