package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/wfunc/maze-game/internal/models"
	"gorm.io/gorm"
)

// RoomRepositoryTestSuite 房间仓储测试套件
type RoomRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo RoomRepository
	ctx  context.Context
	maze *models.Maze
}

func (suite *RoomRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.repo = NewRoomRepository(suite.db)
	suite.ctx = context.Background()
	suite.maze = SeedTestMaze(suite.T(), suite.db, "测试迷宫", 3, 3)
}

func (suite *RoomRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

func (suite *RoomRepositoryTestSuite) seedRoom(x, y int) *models.Room {
	room := &models.Room{
		MazeID:    suite.maze.ID,
		X:         x,
		Y:         y,
		DoorNorth: true,
	}
	suite.NoError(suite.db.Create(room).Error)
	return room
}

// 测试批量创建和按坐标查找
func (suite *RoomRepositoryTestSuite) TestBatchCreateAndFindByCoord() {
	rooms := make([]*models.Room, 0, 9)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			rooms = append(rooms, &models.Room{MazeID: suite.maze.ID, X: x, Y: y})
		}
	}
	suite.NoError(suite.repo.BatchCreate(suite.ctx, rooms))

	found, err := suite.repo.FindByCoord(suite.ctx, suite.maze.ID, 2, 1)
	suite.NoError(err)
	suite.Equal(2, found.X)
	suite.Equal(1, found.Y)

	all, err := suite.repo.FindByMaze(suite.ctx, suite.maze.ID)
	suite.NoError(err)
	suite.Len(all, 9)
}

// 测试房间购买标记
func (suite *RoomRepositoryTestSuite) TestMarkSold() {
	room := suite.seedRoom(1, 1)

	err := suite.repo.MarkSold(suite.ctx, room.ID, 42)
	suite.NoError(err)

	found, _ := suite.repo.FindByCoord(suite.ctx, suite.maze.ID, 1, 1)
	suite.True(found.IsSold)
	suite.Equal(uint(42), *found.OwnerID)
	suite.NotNil(found.SoldAt)

	// 重复购买被拒绝
	err = suite.repo.MarkSold(suite.ctx, room.ID, 99)
	suite.Error(err)

	found, _ = suite.repo.FindByCoord(suite.ctx, suite.maze.ID, 1, 1)
	suite.Equal(uint(42), *found.OwnerID)
}

// 测试已售房间查询
func (suite *RoomRepositoryTestSuite) TestFindSoldByMaze() {
	r1 := suite.seedRoom(0, 0)
	suite.seedRoom(1, 0)

	suite.NoError(suite.repo.MarkSold(suite.ctx, r1.ID, 7))

	sold, err := suite.repo.FindSoldByMaze(suite.ctx, suite.maze.ID)
	suite.NoError(err)
	suite.Len(sold, 1)
	suite.Equal(r1.ID, sold[0].ID)
}

// 测试装修的创建和更新
func (suite *RoomRepositoryTestSuite) TestSaveDesign() {
	room := suite.seedRoom(0, 0)

	err := suite.repo.SaveDesign(suite.ctx, &models.RoomDesign{
		RoomID:    room.ID,
		Template:  models.TemplateHalloween,
		WallColor: "#FF6600",
	})
	suite.NoError(err)

	// 更新同一房间的装修不应该产生新记录
	err = suite.repo.SaveDesign(suite.ctx, &models.RoomDesign{
		RoomID:    room.ID,
		Template:  models.TemplateChristmas,
		WallColor: "#00FF00",
	})
	suite.NoError(err)

	design, err := suite.repo.FindDesign(suite.ctx, room.ID)
	suite.NoError(err)
	suite.Equal(models.TemplateChristmas, design.Template)
	suite.Equal("#00FF00", design.WallColor)

	var count int64
	suite.db.Model(&models.RoomDesign{}).Where("room_id = ?", room.ID).Count(&count)
	suite.Equal(int64(1), count)
}

// 测试墙面广告每面墙最多一个
func (suite *RoomRepositoryTestSuite) TestSaveAdPerWall() {
	room := suite.seedRoom(0, 0)

	err := suite.repo.SaveAd(suite.ctx, &models.RoomAd{
		RoomID:     room.ID,
		Wall:       models.WallSouth,
		AdType:     "image",
		ContentURL: "https://example.com/a.png",
		IsActive:   true,
	})
	suite.NoError(err)

	// 同一面墙的广告会被替换
	err = suite.repo.SaveAd(suite.ctx, &models.RoomAd{
		RoomID:     room.ID,
		Wall:       models.WallSouth,
		AdType:     "video",
		ContentURL: "https://example.com/b.mp4",
		IsActive:   true,
	})
	suite.NoError(err)

	ads, err := suite.repo.FindAds(suite.ctx, room.ID)
	suite.NoError(err)
	suite.Len(ads, 1)
	suite.Equal("video", ads[0].AdType)
}

// 测试传送门
func (suite *RoomRepositoryTestSuite) TestPortals() {
	err := suite.repo.CreatePortal(suite.ctx, &models.Portal{
		MazeID:   suite.maze.ID,
		RoomX:    2,
		RoomY:    2,
		IsActive: true,
	})
	suite.NoError(err)

	portal, err := suite.repo.FindPortalByRoom(suite.ctx, suite.maze.ID, 2, 2)
	suite.NoError(err)
	suite.Equal(2, portal.RoomX)

	suite.NoError(suite.repo.IncrementPortalUse(suite.ctx, portal.ID))

	portal, _ = suite.repo.FindPortalByRoom(suite.ctx, suite.maze.ID, 2, 2)
	suite.Equal(1, portal.UseCount)

	_, err = suite.repo.FindPortalByRoom(suite.ctx, suite.maze.ID, 0, 0)
	suite.Error(err)
}

func TestRoomRepositorySuite(t *testing.T) {
	suite.Run(t, new(RoomRepositoryTestSuite))
}
