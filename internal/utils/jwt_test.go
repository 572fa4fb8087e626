package utils

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// JWTTestSuite JWT工具测试套件
type JWTTestSuite struct {
	suite.Suite
	manager *JWTManager
}

func (suite *JWTTestSuite) SetupTest() {
	suite.manager = NewJWTManager(
		"test-secret-key",
		1*time.Hour,    // access token expiry
		7*24*time.Hour, // refresh token expiry
	)
}

// 测试创建JWT管理器
func (suite *JWTTestSuite) TestNewJWTManager() {
	manager := NewJWTManager("secret", 1*time.Hour, 24*time.Hour)
	suite.NotNil(manager)
	// 私有字段无法直接访问，通过GetTokenExpiry间接验证
	suite.Equal(1*time.Hour, manager.GetTokenExpiry("access"))
	suite.Equal(24*time.Hour, manager.GetTokenExpiry("refresh"))
}

// 测试生成访问令牌
func (suite *JWTTestSuite) TestGenerateAccessToken() {
	token, err := suite.manager.GenerateAccessToken(123, "testuser", "test@example.com", "user")
	suite.NoError(err)
	suite.NotEmpty(token)
}

// 测试验证令牌
func (suite *JWTTestSuite) TestValidateToken() {
	userID := uint(789)
	username := "validuser"
	email := "valid@example.com"
	role := "admin"

	token, _ := suite.manager.GenerateAccessToken(userID, username, email, role)

	claims, err := suite.manager.ValidateToken(token)
	suite.NoError(err)
	suite.NotNil(claims)
	suite.Equal(userID, claims.UserID)
	suite.Equal(username, claims.Username)
	suite.Equal(email, claims.Email)
	suite.Equal(role, claims.Role)
}

// 测试验证无效令牌
func (suite *JWTTestSuite) TestValidateInvalidToken() {
	// 无效格式的令牌
	claims, err := suite.manager.ValidateToken("invalid.token.format")
	suite.Error(err)
	suite.Nil(claims)

	// 错误的签名
	wrongManager := NewJWTManager("wrong-secret", 1*time.Hour, 24*time.Hour)
	token, _ := wrongManager.GenerateAccessToken(1, "user", "email", "role")
	claims, err = suite.manager.ValidateToken(token)
	suite.Error(err)
	suite.Nil(claims)
}

// 测试过期令牌
func (suite *JWTTestSuite) TestExpiredToken() {
	// 创建一个立即过期的管理器
	expiredManager := NewJWTManager("test-secret-key", -1*time.Hour, -1*time.Hour)

	token, _ := expiredManager.GenerateAccessToken(111, "expired", "expired@test.com", "user")

	claims, err := suite.manager.ValidateToken(token)
	suite.Error(err)
	suite.Nil(claims)
}

// 测试刷新访问令牌
func (suite *JWTTestSuite) TestRefreshAccessToken() {
	userID := uint(222)
	username := "refreshuser"
	email := "refresh@example.com"
	role := "user"

	refreshToken, _ := suite.manager.GenerateRefreshToken(userID)

	newAccessToken, err := suite.manager.RefreshAccessToken(refreshToken, username, email, role)
	suite.NoError(err)
	suite.NotEmpty(newAccessToken)

	claims, err := suite.manager.ValidateToken(newAccessToken)
	suite.NoError(err)
	suite.Equal(userID, claims.UserID)
	suite.Equal(username, claims.Username)
	suite.Equal(email, claims.Email)
	suite.Equal(role, claims.Role)
}

// 测试令牌类型
func (suite *JWTTestSuite) TestTokenTypes() {
	userID := uint(333)

	accessToken, _ := suite.manager.GenerateAccessToken(userID, "user", "email", "role")
	accessClaims, _ := suite.manager.ValidateToken(accessToken)
	suite.Equal("access", accessClaims.TokenType)

	refreshToken, _ := suite.manager.GenerateRefreshToken(userID)
	refreshClaims, _ := suite.manager.ValidateToken(refreshToken)
	suite.Equal("refresh", refreshClaims.TokenType)
}

// 测试无效的刷新令牌
func (suite *JWTTestSuite) TestRefreshWithInvalidToken() {
	// 使用访问令牌尝试刷新
	accessToken, _ := suite.manager.GenerateAccessToken(1, "user", "email", "role")
	newToken, err := suite.manager.RefreshAccessToken(accessToken, "user", "email", "role")
	suite.Error(err) // 应该失败，因为不是刷新令牌
	suite.Empty(newToken)

	// 使用无效令牌
	newToken, err = suite.manager.RefreshAccessToken("invalid.token", "user", "email", "role")
	suite.Error(err)
	suite.Empty(newToken)
}

// 测试并发生成令牌
func (suite *JWTTestSuite) TestConcurrentTokenGeneration() {
	done := make(chan bool, 10)

	for i := 0; i < 10; i++ {
		go func(id int) {
			userID := uint(id)
			username := fmt.Sprintf("user%d", id)
			email := fmt.Sprintf("user%d@test.com", id)

			token, err := suite.manager.GenerateAccessToken(userID, username, email, "user")
			suite.NoError(err)
			suite.NotEmpty(token)
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

// 测试令牌的标准声明
func (suite *JWTTestSuite) TestStandardClaims() {
	token, _ := suite.manager.GenerateAccessToken(1, "user", "email", "role")
	claims, _ := suite.manager.ValidateToken(token)

	suite.NotNil(claims.IssuedAt)
	suite.NotNil(claims.ExpiresAt)

	// 比较Unix时间戳
	issuedTime := claims.IssuedAt.Unix()
	expiresTime := claims.ExpiresAt.Unix()
	suite.Greater(expiresTime, issuedTime)
}

func TestJWTSuite(t *testing.T) {
	suite.Run(t, new(JWTTestSuite))
}
