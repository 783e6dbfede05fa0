package service

import (
	"errors"
	"time"

	"github.com/thuhoaidev/EduPro-sub004/internal/config"
	"github.com/thuhoaidev/EduPro-sub004/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid Token 无效
var ErrTokenInvalid = errors.New("invalid token")

// JWTClaims 管理员 JWT 声明
type JWTClaims struct {
	AdminID      uint   `json:"admin_id"`
	Username     string `json:"username"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// UserJWTClaims 用户 JWT 声明
type UserJWTClaims struct {
	UserID       uint   `json:"user_id"`
	Email        string `json:"email"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// TokenService 签发与解析 Token（登录由账号服务负责，这里供种子数据与测试使用）
type TokenService struct {
	adminCfg config.JWTConfig
	userCfg  config.JWTConfig
}

// NewTokenService 创建 Token 服务
func NewTokenService(adminCfg, userCfg config.JWTConfig) *TokenService {
	return &TokenService{adminCfg: adminCfg, userCfg: userCfg}
}

// IssueAdminToken 签发管理员 Token
func (s *TokenService) IssueAdminToken(admin *models.Admin) (string, time.Time, error) {
	expiresAt, registered := registeredClaims(s.adminCfg.ExpireHours)
	claims := JWTClaims{
		AdminID:          admin.ID,
		Username:         admin.Username,
		TokenVersion:     admin.TokenVersion,
		RegisteredClaims: registered,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.adminCfg.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// IssueUserToken 签发用户 Token
func (s *TokenService) IssueUserToken(user *models.User) (string, time.Time, error) {
	expiresAt, registered := registeredClaims(s.userCfg.ExpireHours)
	claims := UserJWTClaims{
		UserID:           user.ID,
		Email:            user.Email,
		TokenVersion:     user.TokenVersion,
		RegisteredClaims: registered,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.userCfg.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ParseAdminToken 解析管理员 Token
func ParseAdminToken(secret, tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	if err := parseHS256(secret, tokenString, claims); err != nil {
		return nil, err
	}
	if claims.AdminID == 0 {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParseUserToken 解析用户 Token
func ParseUserToken(secret, tokenString string) (*UserJWTClaims, error) {
	claims := &UserJWTClaims{}
	if err := parseHS256(secret, tokenString, claims); err != nil {
		return nil, err
	}
	if claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func parseHS256(secret, tokenString string, claims jwt.Claims) error {
	if secret == "" || tokenString == "" {
		return ErrTokenInvalid
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}

func registeredClaims(expireHours int) (time.Time, jwt.RegisteredClaims) {
	if expireHours <= 0 {
		expireHours = 24
	}
	now := time.Now()
	expiresAt := now.Add(time.Duration(expireHours) * time.Hour)
	return expiresAt, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
}
