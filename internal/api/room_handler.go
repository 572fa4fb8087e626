package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/maze-game/internal/middleware"
	"github.com/wfunc/maze-game/internal/service"
)

// RoomHandler 房间经济处理器
type RoomHandler struct {
	roomService *service.RoomService
}

// NewRoomHandler 创建房间经济处理器
func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

// PurchaseRequest 购房请求
type PurchaseRequest struct {
	MazeID uint `json:"maze_id" binding:"required"`
	X      int  `json:"x"`
	Y      int  `json:"y"`
}

// Purchase 购买房间
// @Summary 购买房间
// @Tags Room
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body PurchaseRequest true "购房请求"
// @Success 200 {object} service.PurchaseResult
// @Router /api/v1/room/purchase [post]
func (h *RoomHandler) Purchase(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := h.roomService.Purchase(c.Request.Context(), userID, req.MazeID, req.X, req.Y)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DesignRequest 装修请求（带房间定位）
type DesignRequest struct {
	MazeID uint                  `json:"maze_id" binding:"required"`
	X      int                   `json:"x"`
	Y      int                   `json:"y"`
	Design service.DesignRequest `json:"design"`
}

// UpdateDesign 更新房间装修
// @Summary 更新房间装修
// @Tags Room
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body DesignRequest true "装修请求"
// @Success 200 {object} models.RoomDesign
// @Router /api/v1/room/design [put]
func (h *RoomHandler) UpdateDesign(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req DesignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	design, err := h.roomService.UpdateDesign(c.Request.Context(), userID, req.MazeID, req.X, req.Y, &req.Design)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, design)
}

// PlaceAdRequest 广告放置请求（带房间定位）
type PlaceAdRequest struct {
	MazeID uint              `json:"maze_id" binding:"required"`
	X      int               `json:"x"`
	Y      int               `json:"y"`
	Ad     service.AdRequest `json:"ad" binding:"required"`
}

// PlaceAd 在房间墙面放置广告
// @Summary 放置墙面广告
// @Tags Room
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body PlaceAdRequest true "广告请求"
// @Success 200 {object} models.RoomAd
// @Router /api/v1/room/ads [post]
func (h *RoomHandler) PlaceAd(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req PlaceAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	ad, err := h.roomService.PlaceAd(c.Request.Context(), userID, req.MazeID, req.X, req.Y, &req.Ad)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ad)
}

// RecordAdClick 记录广告点击
// @Summary 记录广告点击
// @Tags Room
// @Param id path int true "广告ID"
// @Router /api/v1/room/ads/{id}/click [post]
func (h *RoomHandler) RecordAdClick(c *gin.Context) {
	adID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.roomService.RecordAdClick(c.Request.Context(), uint(adID)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "已记录"})
}

// OwnedRooms 查询当前用户拥有的房间
// @Summary 查询拥有的房间
// @Tags Room
// @Security Bearer
// @Router /api/v1/room/owned [get]
func (h *RoomHandler) OwnedRooms(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	rooms, err := h.roomService.OwnedRooms(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}
