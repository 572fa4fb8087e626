package service

import (
	"context"
	"fmt"

	apperrors "github.com/wfunc/maze-game/internal/errors"
	"github.com/wfunc/maze-game/internal/models"
	"github.com/wfunc/maze-game/internal/repository"
	"go.uber.org/zap"
)

// PurchaseResult 房间购买结果
type PurchaseResult struct {
	Room       *models.Room `json:"room"`
	NewBalance float64      `json:"new_balance"`
}

// DesignRequest 房间装修请求，nil字段表示不修改
type DesignRequest struct {
	Template              *string                `json:"template,omitempty"`
	WallColor             *string                `json:"wall_color,omitempty"`
	WallTextureURL        *string                `json:"wall_texture_url,omitempty"`
	FloorColor            *string                `json:"floor_color,omitempty"`
	FloorTextureURL       *string                `json:"floor_texture_url,omitempty"`
	CeilingColor          *string                `json:"ceiling_color,omitempty"`
	DoorModel             *string                `json:"door_model,omitempty"`
	DoorColor             *string                `json:"door_color,omitempty"`
	DoorHandleType        *string                `json:"door_handle_type,omitempty"`
	BaseboardColor        *string                `json:"baseboard_color,omitempty"`
	BaseboardHeight       *float64               `json:"baseboard_height,omitempty"`
	AmbientLightColor     *string                `json:"ambient_light_color,omitempty"`
	AmbientLightIntensity *float64               `json:"ambient_light_intensity,omitempty"`
	ExtraFeatures         map[string]interface{} `json:"extra_features,omitempty"`
}

// AdRequest 广告放置请求
type AdRequest struct {
	Wall        string `json:"wall" binding:"required"`
	AdType      string `json:"ad_type" binding:"required"`
	ContentURL  string `json:"content_url,omitempty"`
	ContentText string `json:"content_text,omitempty"`
	ClickURL    string `json:"click_url,omitempty"`
}

// RoomService 房间经济服务
type RoomService struct {
	repos *repository.Manager
	price float64
	log   *zap.Logger
}

// NewRoomService 创建房间经济服务
func NewRoomService(repos *repository.Manager, price float64, log *zap.Logger) *RoomService {
	return &RoomService{
		repos: repos,
		price: price,
		log:   log,
	}
}

// Purchase 购买房间，扣款和过户的原子性靠条件更新保证
func (s *RoomService) Purchase(ctx context.Context, userID uint, mazeID uint, x, y int) (*PurchaseResult, error) {
	room, err := s.repos.Room().FindByCoord(ctx, mazeID, x, y)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrRoomNotFound)
	}
	if room.IsSold {
		return nil, apperrors.New(apperrors.ErrRoomAlreadySold)
	}

	// 先扣款，扣款成功才过户
	if err := s.repos.User().DeductBalance(ctx, userID, s.price); err != nil {
		return nil, apperrors.New(apperrors.ErrInsufficientBalance)
	}

	if err := s.repos.Room().MarkSold(ctx, room.ID, userID); err != nil {
		// 房间已被他人抢先买走，退款
		if refundErr := s.repos.User().AddBalance(ctx, userID, s.price); refundErr != nil {
			s.log.Error("购房失败后退款失败",
				zap.Error(refundErr),
				zap.Uint("user_id", userID),
				zap.Uint("room_id", room.ID))
		}
		return nil, apperrors.New(apperrors.ErrRoomAlreadySold)
	}

	user, err := s.repos.User().FindByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}

	tx := &models.Transaction{
		UserID:          userID,
		TransactionType: models.TransactionRoomPurchase,
		Amount:          -s.price,
		BalanceAfter:    user.Balance,
		ReferenceType:   "room",
		ReferenceID:     room.ID,
		Description:     fmt.Sprintf("购买房间(%d, %d)", room.X, room.Y),
	}
	if err := s.repos.TransactionRepo().Create(ctx, tx); err != nil {
		s.log.Error("记录购房流水失败", zap.Error(err), zap.Uint("room_id", room.ID))
	}

	room, err = s.repos.Room().FindByCoord(ctx, mazeID, x, y)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}

	s.log.Info("房间购买成功",
		zap.Uint("user_id", userID),
		zap.Uint("room_id", room.ID),
		zap.Int("x", x),
		zap.Int("y", y),
		zap.Float64("price", s.price))

	return &PurchaseResult{
		Room:       room,
		NewBalance: user.Balance,
	}, nil
}

// UpdateDesign 更新房间装修，只有房主可以操作
func (s *RoomService) UpdateDesign(ctx context.Context, userID uint, mazeID uint, x, y int, req *DesignRequest) (*models.RoomDesign, error) {
	room, err := s.repos.Room().FindByCoord(ctx, mazeID, x, y)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrRoomNotFound)
	}
	if room.OwnerID == nil || *room.OwnerID != userID {
		return nil, apperrors.New(apperrors.ErrNotRoomOwner)
	}

	design, err := s.repos.Room().FindDesign(ctx, room.ID)
	if err != nil || design == nil {
		design = &models.RoomDesign{RoomID: room.ID}
	}

	applyDesignRequest(design, req)

	if err := s.repos.Room().SaveDesign(ctx, design); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseUpdate, "保存装修失败")
	}

	s.log.Info("房间装修已更新",
		zap.Uint("user_id", userID),
		zap.Uint("room_id", room.ID))
	return design, nil
}

// PlaceAd 在房间墙面放置广告，有门的墙面不可放置，同一墙面覆盖旧广告
func (s *RoomService) PlaceAd(ctx context.Context, userID uint, mazeID uint, x, y int, req *AdRequest) (*models.RoomAd, error) {
	if req.Wall != models.WallNorth && req.Wall != models.WallSouth &&
		req.Wall != models.WallEast && req.Wall != models.WallWest {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "无效的墙面方向")
	}

	room, err := s.repos.Room().FindByCoord(ctx, mazeID, x, y)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrRoomNotFound)
	}
	if room.OwnerID == nil || *room.OwnerID != userID {
		return nil, apperrors.New(apperrors.ErrNotRoomOwner)
	}
	if room.HasDoor(req.Wall) {
		return nil, apperrors.New(apperrors.ErrWallHasDoor)
	}

	ad := &models.RoomAd{
		RoomID:      room.ID,
		Wall:        req.Wall,
		AdType:      req.AdType,
		ContentURL:  req.ContentURL,
		ContentText: req.ContentText,
		ClickURL:    req.ClickURL,
		IsActive:    true,
	}
	if err := s.repos.Room().SaveAd(ctx, ad); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseUpdate, "保存广告失败")
	}

	s.log.Info("房间广告已放置",
		zap.Uint("user_id", userID),
		zap.Uint("room_id", room.ID),
		zap.String("wall", req.Wall))
	return ad, nil
}

// RecordAdClick 记录广告点击
func (s *RoomService) RecordAdClick(ctx context.Context, adID uint) error {
	if err := s.repos.Room().IncrementAdClicks(ctx, adID); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseUpdate)
	}
	return nil
}

// OwnedRooms 查询用户拥有的所有房间
func (s *RoomService) OwnedRooms(ctx context.Context, userID uint) ([]*models.Room, error) {
	rooms, err := s.repos.Room().FindByOwner(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return rooms, nil
}

// applyDesignRequest 把请求中的非空字段合并进装修记录
func applyDesignRequest(design *models.RoomDesign, req *DesignRequest) {
	if req.Template != nil {
		design.Template = *req.Template
	}
	if req.WallColor != nil {
		design.WallColor = *req.WallColor
	}
	if req.WallTextureURL != nil {
		design.WallTextureURL = *req.WallTextureURL
	}
	if req.FloorColor != nil {
		design.FloorColor = *req.FloorColor
	}
	if req.FloorTextureURL != nil {
		design.FloorTextureURL = *req.FloorTextureURL
	}
	if req.CeilingColor != nil {
		design.CeilingColor = *req.CeilingColor
	}
	if req.DoorModel != nil {
		design.DoorModel = *req.DoorModel
	}
	if req.DoorColor != nil {
		design.DoorColor = *req.DoorColor
	}
	if req.DoorHandleType != nil {
		design.DoorHandleType = *req.DoorHandleType
	}
	if req.BaseboardColor != nil {
		design.BaseboardColor = *req.BaseboardColor
	}
	if req.BaseboardHeight != nil {
		design.BaseboardHeight = *req.BaseboardHeight
	}
	if req.AmbientLightColor != nil {
		design.AmbientLightColor = *req.AmbientLightColor
	}
	if req.AmbientLightIntensity != nil {
		design.AmbientLightIntensity = *req.AmbientLightIntensity
	}
	if req.ExtraFeatures != nil {
		design.ExtraFeatures = models.JSONMap(req.ExtraFeatures)
	}
}
