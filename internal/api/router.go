package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/maze-game/internal/config"
	"github.com/wfunc/maze-game/internal/game"
	"github.com/wfunc/maze-game/internal/middleware"
	"github.com/wfunc/maze-game/internal/repository"
	"github.com/wfunc/maze-game/internal/service"
	"github.com/wfunc/maze-game/internal/utils"
	ws "github.com/wfunc/maze-game/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Router API路由器
type Router struct {
	engine *gin.Engine
	log    *zap.Logger

	authHandler      *AuthHandler
	mazeHandler      *MazeHandler
	roomHandler      *RoomHandler
	adminHandler     *AdminHandler
	websocketHandler *WebSocketHandler
	authMiddleware   *middleware.AuthMiddleware
}

// Deps 路由器依赖
type Deps struct {
	DB       *gorm.DB
	Config   *config.Config
	Hub      *ws.Hub
	Push     *ws.PushManager
	Repos    *repository.Manager
	Sessions *game.SessionService
	Mazes    *game.MazeService
	Rewards  *game.RewardService
	Traps    *game.TrapService
	Log      *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(deps *Deps) *Router {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())

	jwtManager := utils.NewJWTManager(
		deps.Config.Security.JWT.Secret,
		time.Duration(deps.Config.Security.JWT.ExpireHours)*time.Hour,
		7*24*time.Hour,
	)

	authService := service.NewAuthService(deps.Repos, jwtManager, deps.Log)
	characterService := service.NewCharacterService(deps.Repos, deps.Log)
	roomService := service.NewRoomService(deps.Repos, deps.Config.Game.Room.Price, deps.Log)

	router := &Router{
		engine:           engine,
		log:              deps.Log,
		authHandler:      NewAuthHandler(authService, characterService),
		mazeHandler:      NewMazeHandler(deps.Repos, deps.Sessions, deps.Mazes, deps.Push),
		roomHandler:      NewRoomHandler(roomService),
		adminHandler:     NewAdminHandler(deps.Repos, deps.Mazes, deps.Rewards, deps.Traps, deps.Hub, deps.Push),
		websocketHandler: NewWebSocketHandler(deps.Hub, deps.Repos, authService, deps.Log),
		authMiddleware:   middleware.NewAuthMiddleware(authService),
	}

	router.setupRoutes()
	return router
}

// Engine 返回底层gin引擎
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	// 实时连接
	r.engine.GET("/ws", r.websocketHandler.Connect)

	v1 := r.engine.Group("/api/v1")
	{
		// 认证相关路由（不需要认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/refresh", r.authHandler.RefreshToken)

			authRequired := auth.Group("")
			authRequired.Use(r.authMiddleware.RequireAuth())
			{
				authRequired.GET("/me", r.authHandler.GetProfile)
			}
		}

		// 角色外观
		character := v1.Group("/character")
		character.Use(r.authMiddleware.RequireAuth())
		{
			character.GET("", r.authHandler.GetCharacter)
			character.PUT("", r.authHandler.CustomizeCharacter)
		}

		// 迷宫和游戏会话
		maze := v1.Group("/maze")
		{
			maze.GET("/list", r.mazeHandler.ListMazes)
			maze.GET("/:id/layout", r.mazeHandler.GetLayout)

			mazeAuth := maze.Group("")
			mazeAuth.Use(r.authMiddleware.RequireAuth())
			{
				mazeAuth.POST("/start", r.mazeHandler.StartSession)
				mazeAuth.POST("/start/:id", r.mazeHandler.StartSessionInMaze)
				mazeAuth.POST("/move", r.mazeHandler.Move)
				mazeAuth.GET("/current", r.mazeHandler.CurrentState)
				mazeAuth.GET("/visited", r.mazeHandler.VisitedRooms)
				mazeAuth.POST("/use-portal", r.mazeHandler.UsePortal)
				mazeAuth.POST("/end", r.mazeHandler.EndSession)
			}
		}

		// 房间经济
		room := v1.Group("/room")
		{
			room.POST("/ads/:id/click", r.roomHandler.RecordAdClick)

			roomAuth := room.Group("")
			roomAuth.Use(r.authMiddleware.RequireAuth())
			{
				roomAuth.POST("/purchase", r.roomHandler.Purchase)
				roomAuth.PUT("/design", r.roomHandler.UpdateDesign)
				roomAuth.POST("/ads", r.roomHandler.PlaceAd)
				roomAuth.GET("/owned", r.roomHandler.OwnedRooms)
			}
		}

		// 在线统计
		v1.GET("/online", r.websocketHandler.OnlineCount)

		// 管理端路由（需要管理员权限）
		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.RequireAuth(), r.authMiddleware.RequireAdmin())
		{
			admin.POST("/maze/create", r.adminHandler.CreateMaze)
			admin.PUT("/maze/:id/activate", r.adminHandler.ActivateMaze)
			admin.POST("/maze/:id/spawn-reward", r.adminHandler.SpawnReward)
			admin.POST("/maze/:id/spawn-trap", r.adminHandler.SpawnTrap)
			admin.GET("/stats", r.adminHandler.Stats)
		}
	}
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}
