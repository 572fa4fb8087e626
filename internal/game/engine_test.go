package game

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/wfunc/maze-game/internal/config"
	apperrors "github.com/wfunc/maze-game/internal/errors"
	"github.com/wfunc/maze-game/internal/models"
	"github.com/wfunc/maze-game/internal/repository"
	"gorm.io/gorm"
)

// EngineTestSuite 游戏引擎集成测试套件
type EngineTestSuite struct {
	suite.Suite
	db       *gorm.DB
	repos    *repository.Manager
	clock    *FakeClock
	rewards  *RewardService
	traps    *TrapService
	sessions *SessionService
	mazes    *MazeService
	ctx      context.Context
	user     *models.User
	maze     *models.Maze
}

func (suite *EngineTestSuite) SetupTest() {
	suite.db = repository.SetupTestDB()
	suite.repos = repository.NewManager(suite.db)
	suite.clock = &FakeClock{Current: time.Now()}
	suite.ctx = context.Background()

	rewardCfg := &config.RewardConfig{
		BigMinAmount:   1000,
		BigMaxAmount:   10000,
		SmallMinAmount: 1,
		SmallMaxAmount: 50,
		BigChance:      0.001,
		SmallChance:    0.05,
		BigDuration:    3 * time.Second,
		SmallDuration:  10 * time.Second,
	}
	trapCfg := &config.TrapConfig{
		FreezeDuration:  180 * time.Second,
		BlindDuration:   30 * time.Second,
		SlowDuration:    60 * time.Second,
		ReverseDuration: 45 * time.Second,
		LoseRewardRate:  0.1,
	}

	suite.rewards = NewRewardService(suite.repos, rewardCfg, suite.clock, 1)
	suite.traps = NewTrapService(suite.repos, trapCfg, suite.clock, 2)
	suite.sessions = NewSessionService(suite.repos, suite.rewards, suite.traps, suite.clock, 3)
	suite.mazes = NewMazeService(suite.repos, NewGenerator(42))

	var err error
	suite.maze, err = suite.mazes.Create(suite.ctx, "测试迷宫", 5, 5, 2)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.mazes.Activate(suite.ctx, suite.maze.ID))

	suite.user = repository.SeedTestUser(suite.T(), suite.db, "player", 100)
}

func (suite *EngineTestSuite) TearDownTest() {
	repository.CleanupTestDB(suite.db)
}

// openDirection 返回起点房间的一个开门方向
func (suite *EngineTestSuite) openDirection(x, y int) string {
	room, err := suite.repos.Room().FindByCoord(suite.ctx, suite.maze.ID, x, y)
	suite.Require().NoError(err)
	for _, dir := range Directions {
		if room.HasDoor(dir) {
			return dir
		}
	}
	suite.FailNow("房间没有任何门")
	return ""
}

// 测试开始会话
func (suite *EngineTestSuite) TestStartSession() {
	session, err := suite.sessions.StartInActiveMaze(suite.ctx, suite.user.ID)
	suite.NoError(err)
	suite.NotEmpty(session.SessionToken)
	suite.Equal(0, session.CurrentRoomX)
	suite.Equal(0, session.CurrentRoomY)
	suite.True(session.IsActive)
	suite.Equal(1, session.RoomsVisited)
}

// 测试未激活迷宫不能开始会话
func (suite *EngineTestSuite) TestStartSessionInactiveMaze() {
	other, err := suite.mazes.Create(suite.ctx, "未激活迷宫", 3, 3, 0)
	suite.Require().NoError(err)

	_, err = suite.sessions.Start(suite.ctx, suite.user.ID, other.ID)
	suite.True(apperrors.Is(err, apperrors.ErrMazeInactive))
}

// 测试通过有门的方向移动
func (suite *EngineTestSuite) TestMoveThroughDoor() {
	session, err := suite.sessions.StartInActiveMaze(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)

	dir := suite.openDirection(0, 0)
	result, err := suite.sessions.Move(suite.ctx, session.SessionToken, dir)
	suite.NoError(err)

	dx, dy := Delta(dir)
	suite.Equal(dx, result.Session.CurrentRoomX)
	suite.Equal(dy, result.Session.CurrentRoomY)
	suite.NotNil(result.Room)

	// 访问记录增加
	visited, err := suite.sessions.VisitedRooms(suite.ctx, session.SessionToken)
	suite.NoError(err)
	suite.Len(visited, 2)
}

// 测试撞墙移动失败且坐标不变
func (suite *EngineTestSuite) TestMoveBlockedByWall() {
	session, err := suite.sessions.StartInActiveMaze(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)

	room, err := suite.repos.Room().FindByCoord(suite.ctx, suite.maze.ID, 0, 0)
	suite.Require().NoError(err)

	var blocked string
	for _, dir := range Directions {
		if !room.HasDoor(dir) {
			blocked = dir
			break
		}
	}
	// 起点在角落，总有墙
	suite.Require().NotEmpty(blocked)

	_, err = suite.sessions.Move(suite.ctx, session.SessionToken, blocked)
	suite.True(apperrors.Is(err, apperrors.ErrNoDoor))

	// 坐标保持不变
	found, _ := suite.sessions.Find(suite.ctx, session.SessionToken)
	suite.Equal(0, found.CurrentRoomX)
	suite.Equal(0, found.CurrentRoomY)
}

// 测试无效方向
func (suite *EngineTestSuite) TestMoveInvalidDirection() {
	session, err := suite.sessions.StartInActiveMaze(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)

	_, err = suite.sessions.Move(suite.ctx, session.SessionToken, "up")
	suite.True(apperrors.Is(err, apperrors.ErrInvalidDirection))
}

// 测试冻结阻止移动，到期后惰性解除
func (suite *EngineTestSuite) TestFrozenBlocksMoveUntilExpiry() {
	session, err := suite.sessions.StartInActiveMaze(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)

	until := suite.clock.Now().Add(180 * time.Second)
	suite.Require().NoError(suite.repos.GameSession().SetFrozen(suite.ctx, session.ID, until))

	dir := suite.openDirection(0, 0)
	_, err = suite.sessions.Move(suite.ctx, session.SessionToken, dir)
	suite.True(apperrors.Is(err, apperrors.ErrPlayerFrozen))

	// 时间推进到冻结期之后，移动恢复且冻结标记被清除
	suite.clock.Advance(181 * time.Second)
	result, err := suite.sessions.Move(suite.ctx, session.SessionToken, dir)
	suite.NoError(err)
	suite.False(result.Session.IsFrozen)

	found, _ := suite.sessions.Find(suite.ctx, session.SessionToken)
	suite.False(found.IsFrozen)
	suite.Nil(found.FrozenUntil)
}

// 测试移动时自动领取小奖励
func (suite *EngineTestSuite) TestMoveAutoClaimsReward() {
	session, err := suite.sessions.StartInActiveMaze(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)

	dir := suite.openDirection(0, 0)
	dx, dy := Delta(dir)

	repository.SeedTestReward(suite.T(), suite.db, suite.maze.ID, dx, dy, models.RewardTypeSmall, 25, 10*time.Second)

	result, err := suite.sessions.Move(suite.ctx, session.SessionToken, dir)
	suite.NoError(err)
	suite.Require().Len(result.Rewards, 1)
	suite.Equal(25.0, result.Rewards[0].Amount)
	suite.False(result.GameEnded)

	// 余额入账
	user, _ := suite.repos.User().FindByID(suite.ctx, suite.user.ID)
	suite.Equal(125.0, user.Balance)

	// 交易流水已记录
	var count int64
	suite.db.Model(&models.Transaction{}).
		Where("user_id = ? AND transaction_type = ?", suite.user.ID, models.TransactionRewardClaim).
		Count(&count)
	suite.Equal(int64(1), count)
}

// 测试领取大奖后整场游戏结束
func (suite *EngineTestSuite) TestBigRewardEndsGame() {
	session, err := suite.sessions.StartInActiveMaze(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)

	other := repository.SeedTestUser(suite.T(), suite.db, "other", 0)
	otherSession, err := suite.sessions.StartInActiveMaze(suite.ctx, other.ID)
	suite.Require().NoError(err)

	dir := suite.openDirection(0, 0)
	dx, dy := Delta(dir)
	repository.SeedTestReward(suite.T(), suite.db, suite.maze.ID, dx, dy, models.RewardTypeBig, 5000, 3*time.Second)

	result, err := suite.sessions.Move(suite.ctx, session.SessionToken, dir)
	suite.NoError(err)
	suite.True(result.GameEnded)

	// 迷宫内所有会话都被结束
	_, err = suite.sessions.Find(suite.ctx, session.SessionToken)
	suite.Error(err)
	_, err = suite.sessions.Find(suite.ctx, otherSession.SessionToken)
	suite.Error(err)
}

// 测试lose_reward陷阱扣除一成余额
func (suite *EngineTestSuite) TestLoseRewardTrap() {
	session, err := suite.sessions.StartInActiveMaze(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)

	dir := suite.openDirection(0, 0)
	dx, dy := Delta(dir)

	_, err = suite.traps.Spawn(suite.ctx, suite.maze.ID, dx, dy, models.TrapLoseReward)
	suite.Require().NoError(err)

	result, err := suite.sessions.Move(suite.ctx, session.SessionToken, dir)
	suite.NoError(err)
	suite.Require().Len(result.Traps, 1)
	suite.Equal(models.TrapLoseReward, result.Traps[0].TrapType)
	suite.Equal(10.0, result.Traps[0].AmountLost)

	user, _ := suite.repos.User().FindByID(suite.ctx, suite.user.ID)
	suite.Equal(90.0, user.Balance)
}

// 测试freeze陷阱冻结玩家
func (suite *EngineTestSuite) TestFreezeTrap() {
	session, err := suite.sessions.StartInActiveMaze(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)

	dir := suite.openDirection(0, 0)
	dx, dy := Delta(dir)

	_, err = suite.traps.Spawn(suite.ctx, suite.maze.ID, dx, dy, models.TrapFreeze)
	suite.Require().NoError(err)

	result, err := suite.sessions.Move(suite.ctx, session.SessionToken, dir)
	suite.NoError(err)
	suite.Require().Len(result.Traps, 1)
	suite.Equal(models.TrapFreeze, result.Traps[0].TrapType)

	// 冻结期内无法继续移动
	next := suite.openDirection(dx, dy)
	_, err = suite.sessions.Move(suite.ctx, session.SessionToken, next)
	suite.True(apperrors.Is(err, apperrors.ErrPlayerFrozen))
}

// 测试teleport_start陷阱送回起点
func (suite *EngineTestSuite) TestTeleportStartTrap() {
	session, err := suite.sessions.StartInActiveMaze(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)

	dir := suite.openDirection(0, 0)
	dx, dy := Delta(dir)

	_, err = suite.traps.Spawn(suite.ctx, suite.maze.ID, dx, dy, models.TrapTeleportStart)
	suite.Require().NoError(err)

	result, err := suite.sessions.Move(suite.ctx, session.SessionToken, dir)
	suite.NoError(err)
	suite.Require().Len(result.Traps, 1)

	found, _ := suite.sessions.Find(suite.ctx, session.SessionToken)
	suite.Equal(0, found.CurrentRoomX)
	suite.Equal(0, found.CurrentRoomY)
}

// 测试陷阱只触发一次
func (suite *EngineTestSuite) TestTrapTriggersOnce() {
	session, err := suite.sessions.StartInActiveMaze(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)

	dir := suite.openDirection(0, 0)
	dx, dy := Delta(dir)

	_, err = suite.traps.Spawn(suite.ctx, suite.maze.ID, dx, dy, models.TrapBlind)
	suite.Require().NoError(err)

	result, err := suite.sessions.Move(suite.ctx, session.SessionToken, dir)
	suite.NoError(err)
	suite.Len(result.Traps, 1)

	// 回到起点再进入同一房间，陷阱不再触发
	back := Opposite(dir)
	_, err = suite.sessions.Move(suite.ctx, session.SessionToken, back)
	suite.Require().NoError(err)
	result, err = suite.sessions.Move(suite.ctx, session.SessionToken, dir)
	suite.NoError(err)
	suite.Empty(result.Traps)
}

// 测试起点不能放置陷阱
func (suite *EngineTestSuite) TestTrapNotAtStart() {
	_, err := suite.traps.Spawn(suite.ctx, suite.maze.ID, 0, 0, models.TrapFreeze)
	suite.Error(err)
}

// 测试奖励过期清理
func (suite *EngineTestSuite) TestRewardExpiry() {
	reward, err := suite.rewards.SpawnSmall(suite.ctx, suite.maze.ID)
	suite.Require().NoError(err)
	suite.NotNil(reward)

	// 10秒有效期之后清理任务把它标记为过期
	suite.clock.Advance(11 * time.Second)
	count, err := suite.rewards.Expire(suite.ctx)
	suite.NoError(err)
	suite.Equal(int64(1), count)
}

// 测试大奖全迷宫同时只有一个
func (suite *EngineTestSuite) TestSingleBigReward() {
	first, err := suite.rewards.SpawnBig(suite.ctx, suite.maze.ID)
	suite.NoError(err)
	suite.NotNil(first)
	suite.GreaterOrEqual(first.Amount, 1000.0)
	suite.LessOrEqual(first.Amount, 10000.0)

	// 已有未领取的大奖时不再生成
	second, err := suite.rewards.SpawnBig(suite.ctx, suite.maze.ID)
	suite.NoError(err)
	suite.Nil(second)

	// 第一个过期后可以再次生成
	suite.clock.Advance(4 * time.Second)
	third, err := suite.rewards.SpawnBig(suite.ctx, suite.maze.ID)
	suite.NoError(err)
	suite.NotNil(third)
}

// 测试小奖励优先投放在已售房间
func (suite *EngineTestSuite) TestSmallRewardPrefersSoldRooms() {
	room, err := suite.repos.Room().FindByCoord(suite.ctx, suite.maze.ID, 2, 2)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repos.Room().MarkSold(suite.ctx, room.ID, suite.user.ID))

	// 只有一个已售房间时小奖励必然落在那里
	for i := 0; i < 5; i++ {
		reward, err := suite.rewards.SpawnSmall(suite.ctx, suite.maze.ID)
		suite.Require().NoError(err)
		suite.Equal(2, reward.RoomX)
		suite.Equal(2, reward.RoomY)
	}
}

// 测试传送门使用
func (suite *EngineTestSuite) TestUsePortal() {
	session, err := suite.sessions.StartInActiveMaze(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)

	// 起点没有传送门
	_, err = suite.sessions.UsePortal(suite.ctx, session.SessionToken)
	suite.True(apperrors.Is(err, apperrors.ErrNoPortal))

	// 在起点放置传送门后可以使用
	suite.Require().NoError(suite.repos.Room().CreatePortal(suite.ctx, &models.Portal{
		MazeID:   suite.maze.ID,
		RoomX:    0,
		RoomY:    0,
		IsActive: true,
	}))

	// 目的地完全随机，可能落回原房间，只校验落点在迷宫内
	moved, err := suite.sessions.UsePortal(suite.ctx, session.SessionToken)
	suite.NoError(err)
	suite.GreaterOrEqual(moved.CurrentRoomX, 0)
	suite.Less(moved.CurrentRoomX, suite.maze.Width)
	suite.GreaterOrEqual(moved.CurrentRoomY, 0)
	suite.Less(moved.CurrentRoomY, suite.maze.Height)
}

// 测试奖励不落在有玩家停留的房间
func (suite *EngineTestSuite) TestSpawnSkipsOccupiedRooms() {
	small, err := suite.mazes.Create(suite.ctx, "小迷宫", 3, 3, 0)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.mazes.Activate(suite.ctx, small.ID))

	// 九个玩家占满所有房间
	var corner *models.GameSession
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			player := repository.SeedTestUser(suite.T(), suite.db, fmt.Sprintf("p%d%d", x, y), 0)
			session, err := suite.sessions.Start(suite.ctx, player.ID, small.ID)
			suite.Require().NoError(err)
			suite.Require().NoError(suite.repos.GameSession().MoveTo(suite.ctx, session.ID, x, y))
			corner = session
		}
	}

	reward, err := suite.rewards.SpawnBig(suite.ctx, small.ID)
	suite.NoError(err)
	suite.Nil(reward)

	reward, err = suite.rewards.SpawnSmall(suite.ctx, small.ID)
	suite.NoError(err)
	suite.Nil(reward)

	// 把角落玩家挪走，奖励只会落在空出来的(2,2)
	suite.Require().NoError(suite.repos.GameSession().MoveTo(suite.ctx, corner.ID, 0, 0))
	reward, err = suite.rewards.SpawnSmall(suite.ctx, small.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(reward)
	suite.Equal(2, reward.RoomX)
	suite.Equal(2, reward.RoomY)
}

// 测试同一奖励只归先到的玩家
func (suite *EngineTestSuite) TestRewardClaimedOnlyOnce() {
	session, err := suite.sessions.StartInActiveMaze(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)

	rival := repository.SeedTestUser(suite.T(), suite.db, "rival", 100)
	rivalSession, err := suite.sessions.StartInActiveMaze(suite.ctx, rival.ID)
	suite.Require().NoError(err)

	dir := suite.openDirection(0, 0)
	dx, dy := Delta(dir)
	repository.SeedTestReward(suite.T(), suite.db, suite.maze.ID, dx, dy, models.RewardTypeSmall, 25, 10*time.Second)

	first, err := suite.sessions.Move(suite.ctx, session.SessionToken, dir)
	suite.NoError(err)
	suite.Len(first.Rewards, 1)

	second, err := suite.sessions.Move(suite.ctx, rivalSession.SessionToken, dir)
	suite.NoError(err)
	suite.Empty(second.Rewards)

	// 只有先到者入账
	winner, _ := suite.repos.User().FindByID(suite.ctx, suite.user.ID)
	suite.Equal(125.0, winner.Balance)
	loser, _ := suite.repos.User().FindByID(suite.ctx, rival.ID)
	suite.Equal(100.0, loser.Balance)
}

// 测试进入房间时顺手标记已到期的奖励
func (suite *EngineTestSuite) TestClaimMarksStaleRewardExpired() {
	session, err := suite.sessions.StartInActiveMaze(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)

	dir := suite.openDirection(0, 0)
	dx, dy := Delta(dir)
	seeded := repository.SeedTestReward(suite.T(), suite.db, suite.maze.ID, dx, dy, models.RewardTypeSmall, 25, 10*time.Second)

	suite.clock.Advance(11 * time.Second)

	result, err := suite.sessions.Move(suite.ctx, session.SessionToken, dir)
	suite.NoError(err)
	suite.Empty(result.Rewards)

	// 奖励未入账且被标记过期
	user, _ := suite.repos.User().FindByID(suite.ctx, suite.user.ID)
	suite.Equal(100.0, user.Balance)

	var reward models.Reward
	suite.Require().NoError(suite.db.First(&reward, seeded.ID).Error)
	suite.True(reward.IsExpired)
	suite.False(reward.IsClaimed)
}

// 测试重复进入同一房间也累计移动数
func (suite *EngineTestSuite) TestRoomsVisitedCountsRepeats() {
	session, err := suite.sessions.StartInActiveMaze(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)

	dir := suite.openDirection(0, 0)
	_, err = suite.sessions.Move(suite.ctx, session.SessionToken, dir)
	suite.Require().NoError(err)
	_, err = suite.sessions.Move(suite.ctx, session.SessionToken, Opposite(dir))
	suite.Require().NoError(err)

	// 起点算一次，之后每次移动都累加
	found, _ := suite.sessions.Find(suite.ctx, session.SessionToken)
	suite.Equal(3, found.RoomsVisited)

	// 去重后的访问记录仍然只有两个房间
	visited, _ := suite.sessions.VisitedRooms(suite.ctx, session.SessionToken)
	suite.Len(visited, 2)
}

// 测试会话令牌不能被其他用户使用
func (suite *EngineTestSuite) TestAuthorizeRejectsOtherUser() {
	session, err := suite.sessions.StartInActiveMaze(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)

	owner, err := suite.sessions.Authorize(suite.ctx, session.SessionToken, suite.user.ID)
	suite.NoError(err)
	suite.Equal(suite.user.ID, owner.UserID)

	intruder := repository.SeedTestUser(suite.T(), suite.db, "intruder", 0)
	_, err = suite.sessions.Authorize(suite.ctx, session.SessionToken, intruder.ID)
	suite.True(apperrors.Is(err, apperrors.ErrAuthorization))
}

// 测试奖励金额保留两位小数
func (suite *EngineTestSuite) TestRewardAmountRounded() {
	small, err := suite.rewards.SpawnSmall(suite.ctx, suite.maze.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(small)
	suite.Equal(math.Round(small.Amount*100)/100, small.Amount)

	big, err := suite.rewards.SpawnBig(suite.ctx, suite.maze.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(big)
	suite.Equal(math.Round(big.Amount*100)/100, big.Amount)
}

// 测试结束会话
func (suite *EngineTestSuite) TestEndSession() {
	session, err := suite.sessions.StartInActiveMaze(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)

	suite.NoError(suite.sessions.End(suite.ctx, session.SessionToken))

	_, err = suite.sessions.Find(suite.ctx, session.SessionToken)
	suite.True(apperrors.Is(err, apperrors.ErrSessionNotFound))
}

// 测试当前房间状态查询
func (suite *EngineTestSuite) TestCurrentState() {
	session, err := suite.sessions.StartInActiveMaze(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)

	state, err := suite.sessions.CurrentState(suite.ctx, session.SessionToken)
	suite.NoError(err)
	suite.Equal(0, state.Room.X)
	suite.Equal(0, state.Room.Y)
	// 生成器给每个房间都配了装修
	suite.NotNil(state.Design)
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}
