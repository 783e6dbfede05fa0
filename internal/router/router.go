package router

import (
	"sort"
	"strings"

	"github.com/thuhoaidev/EduPro-sub004/internal/authz"
	"github.com/thuhoaidev/EduPro-sub004/internal/config"
	adminhandlers "github.com/thuhoaidev/EduPro-sub004/internal/http/handlers/admin"
	publichandlers "github.com/thuhoaidev/EduPro-sub004/internal/http/handlers/public"
	"github.com/thuhoaidev/EduPro-sub004/internal/http/response"
	"github.com/thuhoaidev/EduPro-sub004/internal/logger"
	"github.com/thuhoaidev/EduPro-sub004/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	var limiter RateLimiter
	if c.RateLimiter != nil {
		limiter = c.RateLimiter
	}
	voucherRule := RateLimitRule{
		Prefix:        "voucher",
		WindowSeconds: cfg.Security.VoucherRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.VoucherRateLimit.MaxAttempts,
	}
	voucherRateLimit := RateLimitMiddleware(limiter, voucherRule, KeyByUserOrIP)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(logger.Z()))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 可选登录：匿名时只返回通用券
		apiV1.GET("/vouchers/available",
			OptionalUserJWTMiddleware(cfg.UserJWT.SecretKey, c.UserRepo),
			publicHandler.ListAvailableVouchers,
		)

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.POST("/vouchers/validate", voucherRateLimit, publicHandler.ValidateVoucher)
			user.POST("/vouchers/apply", voucherRateLimit, publicHandler.ApplyVoucher)
			user.GET("/me/voucher-usages", publicHandler.ListMyVoucherUsages)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
		{
			authorized.GET("/authz/me", adminHandler.GetAuthzMe)
			authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminPermissionCatalog(r))
			})

			// 优惠券管理
			authorized.GET("/vouchers", adminHandler.GetAdminVouchers)
			authorized.POST("/vouchers", adminHandler.CreateVoucher)
			authorized.GET("/vouchers/:id", adminHandler.GetAdminVoucher)
			authorized.PUT("/vouchers/:id", adminHandler.UpdateVoucher)
			authorized.DELETE("/vouchers/:id", adminHandler.DeleteVoucher)
			authorized.GET("/vouchers/:id/usages", adminHandler.GetAdminVoucherUsages)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildAdminPermissionCatalog 从已注册路由生成可授权的权限清单
func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))
	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})
	return items
}

func deriveAdminPermissionModule(object string) string {
	segments := strings.Split(strings.TrimPrefix(strings.TrimSpace(object), "/"), "/")
	if len(segments) < 2 || segments[0] != "admin" {
		return segments[0]
	}
	return segments[1]
}
