package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/maze-game/internal/errors"
	"github.com/wfunc/maze-game/internal/game"
	"github.com/wfunc/maze-game/internal/middleware"
	"github.com/wfunc/maze-game/internal/models"
	"github.com/wfunc/maze-game/internal/repository"
	ws "github.com/wfunc/maze-game/internal/websocket"
)

// MazeHandler 迷宫和游戏会话处理器
type MazeHandler struct {
	repos    *repository.Manager
	sessions *game.SessionService
	mazes    *game.MazeService
	push     *ws.PushManager
}

// NewMazeHandler 创建迷宫处理器
func NewMazeHandler(repos *repository.Manager, sessions *game.SessionService, mazes *game.MazeService, push *ws.PushManager) *MazeHandler {
	return &MazeHandler{
		repos:    repos,
		sessions: sessions,
		mazes:    mazes,
		push:     push,
	}
}

// ListMazes 获取迷宫列表
// @Summary 获取迷宫列表
// @Tags Maze
// @Produce json
// @Success 200 {array} models.Maze
// @Router /api/v1/maze/list [get]
func (h *MazeHandler) ListMazes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	mazes, err := h.repos.Maze().GetAll(c.Request.Context(), repository.NewPagination(page, pageSize))
	if err != nil {
		respondError(c, apperrors.Wrap(err, apperrors.ErrDatabaseQuery))
		return
	}

	c.JSON(http.StatusOK, gin.H{"mazes": mazes})
}

// GetLayout 获取迷宫完整布局
// @Summary 获取迷宫布局（房间和传送门）
// @Tags Maze
// @Produce json
// @Param id path int true "迷宫ID"
// @Router /api/v1/maze/{id}/layout [get]
func (h *MazeHandler) GetLayout(c *gin.Context) {
	mazeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	rooms, portals, err := h.mazes.Layout(c.Request.Context(), uint(mazeID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rooms":   rooms,
		"portals": portals,
	})
}

// StartSession 在当前激活的迷宫开始游戏
// @Summary 开始游戏
// @Tags Maze
// @Security Bearer
// @Success 200 {object} models.GameSession
// @Router /api/v1/maze/start [post]
func (h *MazeHandler) StartSession(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	session, err := h.sessions.StartInActiveMaze(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_token": session.SessionToken,
		"maze_id":       session.MazeID,
		"room_x":        session.CurrentRoomX,
		"room_y":        session.CurrentRoomY,
	})
}

// StartSessionInMaze 在指定迷宫开始游戏
// @Summary 在指定迷宫开始游戏
// @Tags Maze
// @Security Bearer
// @Param id path int true "迷宫ID"
// @Success 200 {object} models.GameSession
// @Router /api/v1/maze/start/{id} [post]
func (h *MazeHandler) StartSessionInMaze(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	mazeID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	session, err := h.sessions.Start(c.Request.Context(), userID, uint(mazeID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_token": session.SessionToken,
		"maze_id":       session.MazeID,
		"room_x":        session.CurrentRoomX,
		"room_y":        session.CurrentRoomY,
	})
}

// MoveRequest 移动请求
type MoveRequest struct {
	SessionToken string `json:"session_token" binding:"required"`
	Direction    string `json:"direction" binding:"required"`
}

// Move 向指定方向移动
// @Summary 移动一个房间
// @Tags Maze
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body MoveRequest true "移动请求"
// @Success 200 {object} game.MoveResult
// @Router /api/v1/maze/move [post]
func (h *MazeHandler) Move(c *gin.Context) {
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	userID, _ := middleware.GetUserID(c)
	if _, err := h.sessions.Authorize(c.Request.Context(), req.SessionToken, userID); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.sessions.Move(c.Request.Context(), req.SessionToken, req.Direction)
	if err != nil {
		respondError(c, err)
		return
	}

	h.notifyMove(c, req.SessionToken, result)

	c.JSON(http.StatusOK, result)
}

// notifyMove 移动成功后同步连接注册表并广播游戏事件
func (h *MazeHandler) notifyMove(c *gin.Context, token string, result *game.MoveResult) {
	if h.push == nil {
		return
	}

	session := result.Session
	h.push.SyncRoomChange(token, session.CurrentRoomX, session.CurrentRoomY)

	username, _ := middleware.GetUsername(c)
	h.push.NotifyRewardClaimed(session.MazeID, session.UserID, username, result.Rewards)
	h.push.NotifyTrapTriggered(session.MazeID, session.CurrentRoomX, session.CurrentRoomY, session.UserID, result.Traps)

	if result.GameEnded {
		var amount float64
		for _, r := range result.Rewards {
			if r.RewardType == models.RewardTypeBig {
				amount = r.Amount
			}
		}
		h.push.NotifyGameEnded(session.MazeID, session.UserID, username, amount)
	}
}

// CurrentState 获取当前房间状态
// @Summary 获取当前房间状态
// @Tags Maze
// @Security Bearer
// @Param session_token query string true "会话令牌"
// @Success 200 {object} game.RoomState
// @Router /api/v1/maze/current [get]
func (h *MazeHandler) CurrentState(c *gin.Context) {
	token := c.Query("session_token")
	if token == "" {
		respondError(c, apperrors.New(apperrors.ErrInvalidParam, "缺少会话令牌"))
		return
	}

	userID, _ := middleware.GetUserID(c)
	if _, err := h.sessions.Authorize(c.Request.Context(), token, userID); err != nil {
		respondError(c, err)
		return
	}

	state, err := h.sessions.CurrentState(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// VisitedRooms 获取已访问的房间（小地图）
// @Summary 获取已访问的房间列表
// @Tags Maze
// @Security Bearer
// @Param session_token query string true "会话令牌"
// @Router /api/v1/maze/visited [get]
func (h *MazeHandler) VisitedRooms(c *gin.Context) {
	token := c.Query("session_token")
	if token == "" {
		respondError(c, apperrors.New(apperrors.ErrInvalidParam, "缺少会话令牌"))
		return
	}

	userID, _ := middleware.GetUserID(c)
	if _, err := h.sessions.Authorize(c.Request.Context(), token, userID); err != nil {
		respondError(c, err)
		return
	}

	rooms, err := h.sessions.VisitedRooms(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"visited_rooms": rooms})
}

// PortalRequest 传送门请求
type PortalRequest struct {
	SessionToken string `json:"session_token" binding:"required"`
}

// UsePortal 使用当前房间的传送门
// @Summary 使用传送门
// @Tags Maze
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body PortalRequest true "传送门请求"
// @Router /api/v1/maze/use-portal [post]
func (h *MazeHandler) UsePortal(c *gin.Context) {
	var req PortalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	userID, _ := middleware.GetUserID(c)
	if _, err := h.sessions.Authorize(c.Request.Context(), req.SessionToken, userID); err != nil {
		respondError(c, err)
		return
	}

	session, err := h.sessions.UsePortal(c.Request.Context(), req.SessionToken)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.push != nil {
		h.push.SyncRoomChange(req.SessionToken, session.CurrentRoomX, session.CurrentRoomY)
	}

	c.JSON(http.StatusOK, gin.H{
		"room_x": session.CurrentRoomX,
		"room_y": session.CurrentRoomY,
	})
}

// EndSession 结束游戏会话
// @Summary 结束游戏会话
// @Tags Maze
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body PortalRequest true "会话令牌"
// @Router /api/v1/maze/end [post]
func (h *MazeHandler) EndSession(c *gin.Context) {
	var req PortalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	userID, _ := middleware.GetUserID(c)
	if _, err := h.sessions.Authorize(c.Request.Context(), req.SessionToken, userID); err != nil {
		respondError(c, err)
		return
	}

	if err := h.sessions.End(c.Request.Context(), req.SessionToken); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "会话已结束"})
}
