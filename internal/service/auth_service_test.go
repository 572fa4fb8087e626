package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	apperrors "github.com/wfunc/maze-game/internal/errors"
	"github.com/wfunc/maze-game/internal/repository"
	"github.com/wfunc/maze-game/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthServiceTestSuite 认证服务测试套件
type AuthServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *AuthService
	ctx     context.Context
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.db = repository.SetupTestDB()
	repos := repository.NewManager(suite.db)
	jwtManager := utils.NewJWTManager("test-secret-key", time.Hour, 24*time.Hour)
	suite.service = NewAuthService(repos, jwtManager, zap.NewNop())
	suite.ctx = context.Background()
}

func (suite *AuthServiceTestSuite) TearDownTest() {
	repository.CleanupTestDB(suite.db)
}

// 测试注册成功
func (suite *AuthServiceTestSuite) TestRegister() {
	resp, err := suite.service.Register(suite.ctx, &RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	suite.NoError(err)
	suite.NotNil(resp.User)
	suite.Equal("alice", resp.User.Username)
	suite.NotEmpty(resp.AccessToken)
	suite.NotEmpty(resp.RefreshToken)
	suite.Equal("Bearer", resp.TokenType)

	// 注册时自动创建默认角色
	character, err := suite.service.repos.Character().FindByUserID(suite.ctx, resp.User.ID)
	suite.NoError(err)
	suite.NotNil(character)
}

// 测试重复用户名注册失败
func (suite *AuthServiceTestSuite) TestRegisterDuplicateUsername() {
	req := &RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	}
	_, err := suite.service.Register(suite.ctx, req)
	suite.Require().NoError(err)

	req.Email = "other@example.com"
	_, err = suite.service.Register(suite.ctx, req)
	suite.True(apperrors.Is(err, apperrors.ErrUserExists))
}

// 测试无效注册参数
func (suite *AuthServiceTestSuite) TestRegisterValidation() {
	cases := []RegisterRequest{
		{Username: "ab", Email: "a@b.com", Password: "password123"},
		{Username: "user name", Email: "a@b.com", Password: "password123"},
		{Username: "alice", Email: "not-an-email", Password: "password123"},
		{Username: "alice", Email: "a@b.com", Password: "123"},
	}
	for _, req := range cases {
		_, err := suite.service.Register(suite.ctx, &req)
		suite.True(apperrors.Is(err, apperrors.ErrInvalidParam), "请求 %+v 应该被拒绝", req)
	}
}

// 测试登录成功和失败
func (suite *AuthServiceTestSuite) TestLogin() {
	_, err := suite.service.Register(suite.ctx, &RegisterRequest{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "password123",
	})
	suite.Require().NoError(err)

	resp, err := suite.service.Login(suite.ctx, &LoginRequest{
		Username: "bob",
		Password: "password123",
	})
	suite.NoError(err)
	suite.NotEmpty(resp.AccessToken)

	_, err = suite.service.Login(suite.ctx, &LoginRequest{
		Username: "bob",
		Password: "wrongpassword",
	})
	suite.True(apperrors.Is(err, apperrors.ErrInvalidCredentials))

	_, err = suite.service.Login(suite.ctx, &LoginRequest{
		Username: "nobody",
		Password: "password123",
	})
	suite.True(apperrors.Is(err, apperrors.ErrInvalidCredentials))
}

// 测试封禁用户无法登录
func (suite *AuthServiceTestSuite) TestLoginBanned() {
	resp, err := suite.service.Register(suite.ctx, &RegisterRequest{
		Username: "banned",
		Email:    "banned@example.com",
		Password: "password123",
	})
	suite.Require().NoError(err)

	suite.Require().NoError(suite.service.repos.User().UpdateStatus(suite.ctx, resp.User.ID, "banned"))

	_, err = suite.service.Login(suite.ctx, &LoginRequest{
		Username: "banned",
		Password: "password123",
	})
	suite.True(apperrors.Is(err, apperrors.ErrUserBanned))
}

// 测试访问令牌验证
func (suite *AuthServiceTestSuite) TestValidateToken() {
	resp, err := suite.service.Register(suite.ctx, &RegisterRequest{
		Username: "carol",
		Email:    "carol@example.com",
		Password: "password123",
	})
	suite.Require().NoError(err)

	user, err := suite.service.ValidateToken(suite.ctx, resp.AccessToken)
	suite.NoError(err)
	suite.Equal(resp.User.ID, user.ID)

	_, err = suite.service.ValidateToken(suite.ctx, "not-a-token")
	suite.True(apperrors.Is(err, apperrors.ErrInvalidToken))

	// 刷新令牌不能当访问令牌用
	_, err = suite.service.ValidateToken(suite.ctx, resp.RefreshToken)
	suite.True(apperrors.Is(err, apperrors.ErrInvalidToken))
}

// 测试刷新令牌换取新令牌
func (suite *AuthServiceTestSuite) TestRefreshToken() {
	resp, err := suite.service.Register(suite.ctx, &RegisterRequest{
		Username: "dave",
		Email:    "dave@example.com",
		Password: "password123",
	})
	suite.Require().NoError(err)

	refreshed, err := suite.service.RefreshToken(suite.ctx, resp.RefreshToken)
	suite.NoError(err)
	suite.NotEmpty(refreshed.AccessToken)

	// 访问令牌不能当刷新令牌用
	_, err = suite.service.RefreshToken(suite.ctx, resp.AccessToken)
	suite.True(apperrors.Is(err, apperrors.ErrInvalidToken))
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
