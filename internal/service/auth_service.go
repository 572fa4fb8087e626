package service

import (
	"context"
	"regexp"
	"time"

	apperrors "github.com/wfunc/maze-game/internal/errors"
	"github.com/wfunc/maze-game/internal/models"
	"github.com/wfunc/maze-game/internal/repository"
	"github.com/wfunc/maze-game/internal/utils"
	"go.uber.org/zap"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse 认证响应
type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	ExpiresIn    int64        `json:"expires_in"`
	TokenType    string       `json:"token_type"`
}

// AuthService 认证服务
type AuthService struct {
	repos      *repository.Manager
	jwtManager *utils.JWTManager
	log        *zap.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(repos *repository.Manager, jwtManager *utils.JWTManager, log *zap.Logger) *AuthService {
	return &AuthService{
		repos:      repos,
		jwtManager: jwtManager,
		log:        log,
	}
}

// Register 用户注册，创建用户和默认角色外观
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := s.validateRegisterRequest(req); err != nil {
		return nil, err
	}

	// 检查用户是否已存在
	if user, _ := s.repos.User().FindByUsername(ctx, req.Username); user != nil {
		return nil, apperrors.New(apperrors.ErrUserExists, "用户名已存在")
	}
	if user, _ := s.repos.User().FindByEmail(ctx, req.Email); user != nil {
		return nil, apperrors.New(apperrors.ErrUserExists, "邮箱已被使用")
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "密码加密失败")
	}

	user := &models.User{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashedPassword,
		Status:         "active",
	}
	if err := s.repos.User().Create(ctx, user); err != nil {
		s.log.Error("创建用户失败", zap.Error(err), zap.String("username", req.Username))
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert, "创建用户失败")
	}

	// 创建默认角色外观
	character := &models.Character{UserID: user.ID}
	if err := s.repos.Character().Upsert(ctx, character); err != nil {
		s.log.Error("创建角色失败", zap.Error(err), zap.Uint("user_id", user.ID))
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert, "创建角色失败")
	}

	s.log.Info("用户注册成功",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username))

	return s.buildAuthResponse(user)
}

// Login 用户登录
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.repos.User().FindByUsername(ctx, req.Username)
	if err != nil || user == nil {
		s.log.Warn("登录失败：用户不存在", zap.String("username", req.Username))
		return nil, apperrors.New(apperrors.ErrInvalidCredentials)
	}

	if !user.IsActive() {
		return nil, apperrors.New(apperrors.ErrUserBanned)
	}

	valid, err := utils.VerifyPassword(req.Password, user.HashedPassword)
	if err != nil || !valid {
		s.log.Warn("登录失败：密码错误", zap.Uint("user_id", user.ID))
		return nil, apperrors.New(apperrors.ErrInvalidCredentials)
	}

	s.log.Info("用户登录成功",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username))

	return s.buildAuthResponse(user)
}

// RefreshToken 用刷新令牌换取新的访问令牌
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidToken)
	}
	if claims.TokenType != "refresh" {
		return nil, apperrors.New(apperrors.ErrInvalidToken, "不是刷新令牌")
	}

	user, err := s.repos.User().FindByID(ctx, claims.UserID)
	if err != nil || user == nil {
		return nil, apperrors.New(apperrors.ErrUserNotFound)
	}
	if !user.IsActive() {
		return nil, apperrors.New(apperrors.ErrUserBanned)
	}

	return s.buildAuthResponse(user)
}

// ValidateToken 验证访问令牌并返回对应用户
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidToken)
	}
	if claims.TokenType != "access" {
		return nil, apperrors.New(apperrors.ErrInvalidToken, "不是访问令牌")
	}

	user, err := s.repos.User().FindByID(ctx, claims.UserID)
	if err != nil || user == nil {
		return nil, apperrors.New(apperrors.ErrUserNotFound)
	}
	if !user.IsActive() {
		return nil, apperrors.New(apperrors.ErrUserBanned)
	}
	return user, nil
}

// GetUser 获取用户信息
func (s *AuthService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repos.User().FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, apperrors.New(apperrors.ErrUserNotFound)
	}
	return user, nil
}

// buildAuthResponse 生成令牌对并组装响应
func (s *AuthService) buildAuthResponse(user *models.User) (*AuthResponse, error) {
	role := "user"
	if user.IsAdmin {
		role = "admin"
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username, user.Email, role)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "生成访问令牌失败")
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "生成刷新令牌失败")
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.GetTokenExpiry("access") / time.Second),
		TokenType:    "Bearer",
	}, nil
}

// validateRegisterRequest 验证注册请求
func (s *AuthService) validateRegisterRequest(req *RegisterRequest) error {
	if len(req.Username) < 3 || len(req.Username) > 20 {
		return apperrors.New(apperrors.ErrInvalidParam, "用户名长度必须在3-20个字符之间")
	}
	if !usernamePattern.MatchString(req.Username) {
		return apperrors.New(apperrors.ErrInvalidParam, "用户名只能包含字母、数字和下划线")
	}
	if !emailPattern.MatchString(req.Email) {
		return apperrors.New(apperrors.ErrInvalidParam, "邮箱格式不正确")
	}
	if len(req.Password) < 6 {
		return apperrors.New(apperrors.ErrInvalidParam, "密码长度至少6个字符")
	}
	return nil
}
