package router

import (
	"strconv"
	"strings"
	"time"

	"github.com/thuhoaidev/EduPro-sub004/internal/authz"
	"github.com/thuhoaidev/EduPro-sub004/internal/cache"
	"github.com/thuhoaidev/EduPro-sub004/internal/config"
	"github.com/thuhoaidev/EduPro-sub004/internal/constants"
	handlershared "github.com/thuhoaidev/EduPro-sub004/internal/http/handlers/shared"
	"github.com/thuhoaidev/EduPro-sub004/internal/http/response"
	"github.com/thuhoaidev/EduPro-sub004/internal/logger"
	"github.com/thuhoaidev/EduPro-sub004/internal/repository"
	"github.com/thuhoaidev/EduPro-sub004/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"
const requestIDHeader = "X-Request-ID"
const adminIsSuperContextKey = "admin_is_super"

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{"Content-Type", "Authorization", requestIDHeader}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials); allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化访问日志
func LoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.L()
	}
	sugar := log.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			entry.Errorw("request", "errors", c.Errors.String())
			return
		}
		entry.Infow("request")
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// JWTAuthMiddleware 管理员 JWT 鉴权
func JWTAuthMiddleware(secretKey string, adminRepo repository.AdminRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretKey == "" || adminRepo == nil {
			response.Unauthorized(c, "auth_unavailable", "admin authentication is not configured")
			return
		}
		tokenString, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, "unauthorized", "missing or malformed Authorization header")
			return
		}
		claims, err := service.ParseAdminToken(secretKey, tokenString)
		if err != nil {
			response.Unauthorized(c, "token_invalid", "invalid token")
			return
		}

		if cached, hit, cacheErr := cache.GetAdminAuthState(c.Request.Context(), claims.AdminID); cacheErr == nil && hit && cached != nil {
			if claims.TokenVersion != cached.TokenVersion || !issuedAfter(claims.IssuedAt, cached.TokenInvalidBefore) {
				response.Unauthorized(c, "token_revoked", "token has been revoked")
				return
			}
			setAdminContext(c, claims, cached.IsSuper)
			c.Next()
			return
		}

		admin, err := adminRepo.GetByID(claims.AdminID)
		if err != nil || admin == nil {
			response.Unauthorized(c, "token_invalid", "invalid token")
			return
		}
		state := cache.AdminAuthState(admin)
		if claims.TokenVersion != state.TokenVersion || !issuedAfter(claims.IssuedAt, state.TokenInvalidBefore) {
			response.Unauthorized(c, "token_revoked", "token has been revoked")
			return
		}
		_ = cache.SetAdminAuthState(c.Request.Context(), state)

		setAdminContext(c, claims, admin.IsSuper)
		c.Next()
	}
}

func setAdminContext(c *gin.Context, claims *service.JWTClaims, isSuper bool) {
	c.Set(handlershared.AdminIDKey, claims.AdminID)
	c.Set("username", claims.Username)
	c.Set(adminIsSuperContextKey, isSuper)
}

// AdminRBACMiddleware 管理端 RBAC 鉴权
func AdminRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("admin_rbac_service_unavailable")
			response.Unauthorized(c, "unauthorized", "authorization unavailable")
			return
		}
		if isSuper, ok := c.Get(adminIsSuperContextKey); ok {
			if superValue, typeOK := isSuper.(bool); typeOK && superValue {
				c.Next()
				return
			}
		}

		adminID, ok := handlershared.ContextUint(c, handlershared.AdminIDKey)
		if !ok {
			response.Unauthorized(c, "unauthorized", "authentication required")
			return
		}

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}
		allowed, err := authzService.EnforceAdmin(adminID, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("admin_rbac_enforce_failed",
				"admin_id", adminID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			response.Unauthorized(c, "unauthorized", "authorization failed")
			return
		}
		if !allowed {
			logger.Warnw("admin_rbac_permission_denied",
				"admin_id", adminID,
				"method", c.Request.Method,
				"resource", authz.NormalizeObject(resource),
			)
			response.Forbidden(c, "permission denied")
			return
		}
		c.Next()
	}
}

// UserJWTAuthMiddleware 用户 JWT 鉴权，令牌缺失或无效时拒绝
func UserJWTAuthMiddleware(secretKey string, userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretKey == "" || userRepo == nil {
			response.Unauthorized(c, "auth_unavailable", "user authentication is not configured")
			return
		}
		tokenString, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, "unauthorized", "missing or malformed Authorization header")
			return
		}
		claims, reason := authenticateUser(c, secretKey, userRepo, tokenString)
		if reason != "" {
			response.Unauthorized(c, reason, userAuthMessages[reason])
			return
		}
		setUserContext(c, claims)
		c.Next()
	}
}

// OptionalUserJWTMiddleware 可选用户鉴权：令牌有效时注入身份，否则按匿名继续
func OptionalUserJWTMiddleware(secretKey string, userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok || secretKey == "" || userRepo == nil {
			c.Next()
			return
		}
		claims, reason := authenticateUser(c, secretKey, userRepo, tokenString)
		if reason != "" {
			handlershared.RequestLog(c).Debugw("optional_user_token_ignored", "reason", reason)
			c.Next()
			return
		}
		setUserContext(c, claims)
		c.Next()
	}
}

var userAuthMessages = map[string]string{
	"token_invalid": "invalid token",
	"token_revoked": "token has been revoked",
	"user_disabled": "user is disabled",
}

// authenticateUser 校验用户令牌，失败时返回原因标识
func authenticateUser(c *gin.Context, secretKey string, userRepo repository.UserRepository, tokenString string) (*service.UserJWTClaims, string) {
	claims, err := service.ParseUserToken(secretKey, tokenString)
	if err != nil {
		return nil, "token_invalid"
	}

	state, hit, cacheErr := cache.GetUserAuthState(c.Request.Context(), claims.UserID)
	if cacheErr != nil || !hit || state == nil {
		user, err := userRepo.GetByID(claims.UserID)
		if err != nil || user == nil {
			return nil, "token_invalid"
		}
		state = cache.UserAuthState(user)
		_ = cache.SetUserAuthState(c.Request.Context(), state)
	}

	if !isActiveUserStatus(state.Status) {
		return nil, "user_disabled"
	}
	if claims.TokenVersion != state.TokenVersion || !issuedAfter(claims.IssuedAt, state.TokenInvalidBefore) {
		return nil, "token_revoked"
	}
	return claims, ""
}

func setUserContext(c *gin.Context, claims *service.UserJWTClaims) {
	c.Set(handlershared.UserIDKey, claims.UserID)
	c.Set("user_email", claims.Email)
}

func issuedAfter(issuedAt *jwt.NumericDate, invalidBeforeUnix int64) bool {
	if invalidBeforeUnix <= 0 {
		return true
	}
	if issuedAt == nil {
		return false
	}
	return issuedAt.Time.Unix() >= invalidBeforeUnix
}

func isActiveUserStatus(status string) bool {
	return strings.ToLower(strings.TrimSpace(status)) == constants.UserStatusActive
}
