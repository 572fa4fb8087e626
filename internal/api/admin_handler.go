package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/maze-game/internal/errors"
	"github.com/wfunc/maze-game/internal/game"
	"github.com/wfunc/maze-game/internal/models"
	"github.com/wfunc/maze-game/internal/repository"
	ws "github.com/wfunc/maze-game/internal/websocket"
)

// AdminHandler 管理端处理器
type AdminHandler struct {
	repos   *repository.Manager
	mazes   *game.MazeService
	rewards *game.RewardService
	traps   *game.TrapService
	hub     *ws.Hub
	push    *ws.PushManager
}

// NewAdminHandler 创建管理端处理器
func NewAdminHandler(repos *repository.Manager, mazes *game.MazeService, rewards *game.RewardService, traps *game.TrapService, hub *ws.Hub, push *ws.PushManager) *AdminHandler {
	return &AdminHandler{
		repos:   repos,
		mazes:   mazes,
		rewards: rewards,
		traps:   traps,
		hub:     hub,
		push:    push,
	}
}

// CreateMazeRequest 创建迷宫请求
type CreateMazeRequest struct {
	Name        string `json:"name" binding:"required"`
	Width       int    `json:"width" binding:"required"`
	Height      int    `json:"height" binding:"required"`
	PortalCount int    `json:"portal_count"`
}

// CreateMaze 生成新迷宫
// @Summary 生成新迷宫
// @Tags Admin
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body CreateMazeRequest true "迷宫参数"
// @Success 200 {object} models.Maze
// @Router /api/v1/admin/maze/create [post]
func (h *AdminHandler) CreateMaze(c *gin.Context) {
	var req CreateMazeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	maze, err := h.mazes.Create(c.Request.Context(), req.Name, req.Width, req.Height, req.PortalCount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, maze)
}

// ActivateMaze 激活迷宫
// @Summary 激活迷宫（同时停用其他迷宫）
// @Tags Admin
// @Security Bearer
// @Param id path int true "迷宫ID"
// @Router /api/v1/admin/maze/{id}/activate [put]
func (h *AdminHandler) ActivateMaze(c *gin.Context) {
	mazeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.mazes.Activate(c.Request.Context(), uint(mazeID)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "迷宫已激活"})
}

// SpawnRewardRequest 手动投放奖励请求
type SpawnRewardRequest struct {
	RewardType string `json:"reward_type" binding:"required"`
}

// SpawnReward 手动投放奖励
// @Summary 手动投放奖励
// @Tags Admin
// @Security Bearer
// @Param id path int true "迷宫ID"
// @Param request body SpawnRewardRequest true "奖励类型"
// @Router /api/v1/admin/maze/{id}/spawn-reward [post]
func (h *AdminHandler) SpawnReward(c *gin.Context) {
	mazeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	var req SpawnRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	var reward *models.Reward
	switch req.RewardType {
	case models.RewardTypeBig:
		reward, err = h.rewards.SpawnBig(c.Request.Context(), uint(mazeID))
	case models.RewardTypeSmall:
		reward, err = h.rewards.SpawnSmall(c.Request.Context(), uint(mazeID))
	default:
		respondError(c, apperrors.New(apperrors.ErrInvalidParam, "无效的奖励类型"))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if reward == nil {
		respondError(c, apperrors.New(apperrors.ErrAlreadyExists, "已存在未领取的大奖"))
		return
	}

	if h.push != nil {
		h.push.NotifyRewardSpawned(reward)
	}

	c.JSON(http.StatusOK, reward)
}

// SpawnTrapRequest 手动放置陷阱请求
type SpawnTrapRequest struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	TrapType string `json:"trap_type" binding:"required"`
	Random   bool   `json:"random"`
}

// SpawnTrap 手动放置陷阱
// @Summary 手动放置陷阱
// @Tags Admin
// @Security Bearer
// @Param id path int true "迷宫ID"
// @Param request body SpawnTrapRequest true "陷阱参数"
// @Router /api/v1/admin/maze/{id}/spawn-trap [post]
func (h *AdminHandler) SpawnTrap(c *gin.Context) {
	mazeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	var req SpawnTrapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	var trap *models.Trap
	if req.Random {
		maze, findErr := h.repos.Maze().FindByID(c.Request.Context(), uint(mazeID))
		if findErr != nil {
			respondError(c, apperrors.Wrap(findErr, apperrors.ErrMazeNotFound))
			return
		}
		trap, err = h.traps.SpawnRandom(c.Request.Context(), maze)
	} else {
		trap, err = h.traps.Spawn(c.Request.Context(), uint(mazeID), req.X, req.Y, req.TrapType)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, trap)
}

// Stats 运营统计
// @Summary 运营统计
// @Tags Admin
// @Security Bearer
// @Router /api/v1/admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	stats := gin.H{
		"online_count": 0,
	}
	if h.hub != nil {
		stats["online_count"] = h.hub.GetOnlineCount()
	}

	if maze, err := h.repos.Maze().FindActive(ctx); err == nil {
		sessions, _ := h.repos.GameSession().FindActiveByMaze(ctx, maze.ID)
		trapCount, _ := h.repos.Trap().CountActiveByMaze(ctx, maze.ID)
		stats["active_maze_id"] = maze.ID
		stats["active_sessions"] = len(sessions)
		stats["active_traps"] = trapCount
	}

	c.JSON(http.StatusOK, stats)
}
