package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/maze-game/internal/api"
	"github.com/wfunc/maze-game/internal/config"
	"github.com/wfunc/maze-game/internal/database"
	"github.com/wfunc/maze-game/internal/game"
	"github.com/wfunc/maze-game/internal/logger"
	"github.com/wfunc/maze-game/internal/repository"
	ws "github.com/wfunc/maze-game/internal/websocket"
	"go.uber.org/zap"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("maze-game %s (build: %s, commit: %s)\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	// 初始化日志系统
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Cleanup()

	logger.Info("迷宫游戏服务启动中",
		zap.String("version", Version),
		zap.String("mode", cfg.Server.Mode))

	// 初始化数据库
	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("数据库初始化失败", zap.Error(err))
	}
	defer database.Close()

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(); err != nil {
			logger.Fatal("数据库迁移失败", zap.Error(err))
		}
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 组装服务
	repos := repository.NewManager(database.GetDB())
	clock := game.NewClock()
	seed := time.Now().UnixNano()

	rewards := game.NewRewardService(repos, &cfg.Game.Reward, clock, seed)
	traps := game.NewTrapService(repos, &cfg.Game.Trap, clock, seed+1)
	sessions := game.NewSessionService(repos, rewards, traps, clock, seed+2)
	mazes := game.NewMazeService(repos, game.NewGenerator(seed+3))

	// 实时连接中心
	hub := ws.NewHub(logger.GetModuleLogger("websocket"))
	go hub.Run()
	push := ws.NewPushManager(hub, logger.GetModuleLogger("push"))

	// 后台奖励投放器
	spawner := game.NewSpawner(repos, rewards, cfg.Game.Spawner.Interval)
	spawner.OnRewardSpawned = push.NotifyRewardSpawned

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	spawner.Start(ctx)

	// HTTP路由
	router := api.NewRouter(&api.Deps{
		DB:       database.GetDB(),
		Config:   cfg,
		Hub:      hub,
		Push:     push,
		Repos:    repos,
		Sessions: sessions,
		Mazes:    mazes,
		Rewards:  rewards,
		Traps:    traps,
		Log:      logger.GetLogger(),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP服务监听", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP服务启动失败", zap.Error(err))
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("收到退出信号，开始优雅关闭")

	// 停止后台投放器
	spawner.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP服务关闭失败", zap.Error(err))
	}

	logger.Info("服务已退出")
}
