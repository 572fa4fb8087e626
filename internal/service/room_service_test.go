package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	apperrors "github.com/wfunc/maze-game/internal/errors"
	"github.com/wfunc/maze-game/internal/models"
	"github.com/wfunc/maze-game/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RoomServiceTestSuite 房间经济服务测试套件
type RoomServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	repos   *repository.Manager
	service *RoomService
	ctx     context.Context
	user    *models.User
	maze    *models.Maze
	room    *models.Room
}

func (suite *RoomServiceTestSuite) SetupTest() {
	suite.db = repository.SetupTestDB()
	suite.repos = repository.NewManager(suite.db)
	suite.service = NewRoomService(suite.repos, 1.0, zap.NewNop())
	suite.ctx = context.Background()

	suite.user = repository.SeedTestUser(suite.T(), suite.db, "buyer", 10)
	suite.maze = repository.SeedTestMaze(suite.T(), suite.db, "测试迷宫", 3, 3)

	// 一个有北门的房间
	suite.room = &models.Room{
		MazeID:    suite.maze.ID,
		X:         1,
		Y:         1,
		DoorNorth: true,
	}
	suite.Require().NoError(suite.db.Create(suite.room).Error)
}

func (suite *RoomServiceTestSuite) TearDownTest() {
	repository.CleanupTestDB(suite.db)
}

// 测试购买房间扣款、过户并记录流水
func (suite *RoomServiceTestSuite) TestPurchase() {
	result, err := suite.service.Purchase(suite.ctx, suite.user.ID, suite.maze.ID, 1, 1)
	suite.NoError(err)
	suite.True(result.Room.IsSold)
	suite.Equal(suite.user.ID, *result.Room.OwnerID)
	suite.Equal(9.0, result.NewBalance)

	var count int64
	suite.db.Model(&models.Transaction{}).
		Where("user_id = ? AND transaction_type = ?", suite.user.ID, models.TransactionRoomPurchase).
		Count(&count)
	suite.Equal(int64(1), count)
}

// 测试重复购买被拒绝
func (suite *RoomServiceTestSuite) TestPurchaseAlreadySold() {
	_, err := suite.service.Purchase(suite.ctx, suite.user.ID, suite.maze.ID, 1, 1)
	suite.Require().NoError(err)

	other := repository.SeedTestUser(suite.T(), suite.db, "other", 10)
	_, err = suite.service.Purchase(suite.ctx, other.ID, suite.maze.ID, 1, 1)
	suite.True(apperrors.Is(err, apperrors.ErrRoomAlreadySold))

	// 失败方余额不变
	found, _ := suite.repos.User().FindByID(suite.ctx, other.ID)
	suite.Equal(10.0, found.Balance)
}

// 测试余额不足购买失败
func (suite *RoomServiceTestSuite) TestPurchaseInsufficientBalance() {
	poor := repository.SeedTestUser(suite.T(), suite.db, "poor", 0.5)
	_, err := suite.service.Purchase(suite.ctx, poor.ID, suite.maze.ID, 1, 1)
	suite.True(apperrors.Is(err, apperrors.ErrInsufficientBalance))

	// 房间仍然在售
	room, _ := suite.repos.Room().FindByCoord(suite.ctx, suite.maze.ID, 1, 1)
	suite.False(room.IsSold)
}

// 测试只有房主能装修
func (suite *RoomServiceTestSuite) TestUpdateDesignOwnerOnly() {
	template := models.TemplateHalloween
	req := &DesignRequest{Template: &template}

	// 未购买时不能装修
	_, err := suite.service.UpdateDesign(suite.ctx, suite.user.ID, suite.maze.ID, 1, 1, req)
	suite.True(apperrors.Is(err, apperrors.ErrNotRoomOwner))

	_, err = suite.service.Purchase(suite.ctx, suite.user.ID, suite.maze.ID, 1, 1)
	suite.Require().NoError(err)

	design, err := suite.service.UpdateDesign(suite.ctx, suite.user.ID, suite.maze.ID, 1, 1, req)
	suite.NoError(err)
	suite.Equal(models.TemplateHalloween, design.Template)

	// 其他用户不能装修
	other := repository.SeedTestUser(suite.T(), suite.db, "other", 10)
	_, err = suite.service.UpdateDesign(suite.ctx, other.ID, suite.maze.ID, 1, 1, req)
	suite.True(apperrors.Is(err, apperrors.ErrNotRoomOwner))
}

// 测试装修部分字段更新
func (suite *RoomServiceTestSuite) TestUpdateDesignPartial() {
	_, err := suite.service.Purchase(suite.ctx, suite.user.ID, suite.maze.ID, 1, 1)
	suite.Require().NoError(err)

	wall := "#FF0000"
	design, err := suite.service.UpdateDesign(suite.ctx, suite.user.ID, suite.maze.ID, 1, 1, &DesignRequest{
		WallColor: &wall,
	})
	suite.NoError(err)
	suite.Equal("#FF0000", design.WallColor)

	// 再次更新其他字段，已有字段保留
	floor := "#00FF00"
	design, err = suite.service.UpdateDesign(suite.ctx, suite.user.ID, suite.maze.ID, 1, 1, &DesignRequest{
		FloorColor: &floor,
	})
	suite.NoError(err)
	suite.Equal("#FF0000", design.WallColor)
	suite.Equal("#00FF00", design.FloorColor)
}

// 测试广告不能放在有门的墙面
func (suite *RoomServiceTestSuite) TestPlaceAdWallWithDoor() {
	_, err := suite.service.Purchase(suite.ctx, suite.user.ID, suite.maze.ID, 1, 1)
	suite.Require().NoError(err)

	_, err = suite.service.PlaceAd(suite.ctx, suite.user.ID, suite.maze.ID, 1, 1, &AdRequest{
		Wall:        models.WallNorth,
		AdType:      "canvas",
		ContentText: "广告",
	})
	suite.True(apperrors.Is(err, apperrors.ErrWallHasDoor))
}

// 测试同一墙面广告覆盖
func (suite *RoomServiceTestSuite) TestPlaceAdReplacesExisting() {
	_, err := suite.service.Purchase(suite.ctx, suite.user.ID, suite.maze.ID, 1, 1)
	suite.Require().NoError(err)

	first, err := suite.service.PlaceAd(suite.ctx, suite.user.ID, suite.maze.ID, 1, 1, &AdRequest{
		Wall:        models.WallSouth,
		AdType:      "canvas",
		ContentText: "第一版",
	})
	suite.Require().NoError(err)

	_, err = suite.service.PlaceAd(suite.ctx, suite.user.ID, suite.maze.ID, 1, 1, &AdRequest{
		Wall:        models.WallSouth,
		AdType:      "image",
		ContentURL:  "https://cdn.example.com/ad.png",
	})
	suite.NoError(err)

	ads, err := suite.repos.Room().FindAds(suite.ctx, first.RoomID)
	suite.NoError(err)
	suite.Require().Len(ads, 1)
	suite.Equal("image", ads[0].AdType)
}

// 测试非房主不能放广告
func (suite *RoomServiceTestSuite) TestPlaceAdOwnerOnly() {
	_, err := suite.service.PlaceAd(suite.ctx, suite.user.ID, suite.maze.ID, 1, 1, &AdRequest{
		Wall:   models.WallSouth,
		AdType: "canvas",
	})
	suite.True(apperrors.Is(err, apperrors.ErrNotRoomOwner))
}

func TestRoomServiceSuite(t *testing.T) {
	suite.Run(t, new(RoomServiceTestSuite))
}
