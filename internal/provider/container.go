package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thuhoaidev/EduPro-sub004/internal/authz"
	"github.com/thuhoaidev/EduPro-sub004/internal/cache"
	"github.com/thuhoaidev/EduPro-sub004/internal/config"
	"github.com/thuhoaidev/EduPro-sub004/internal/logger"
	"github.com/thuhoaidev/EduPro-sub004/internal/repository"
	"github.com/thuhoaidev/EduPro-sub004/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config *config.Config

	// Repositories
	AdminRepo        repository.AdminRepository
	UserRepo         repository.UserRepository
	OrderRepo        repository.OrderRepository
	VoucherRepo      repository.VoucherRepository
	VoucherUsageRepo repository.VoucherUsageRepository

	// Services
	AuthzService        *authz.Service
	TokenService        *service.TokenService
	VoucherService      *service.VoucherService
	VoucherAdminService *service.VoucherAdminService

	// RateLimiter Redis 未启用时为 nil
	RateLimiter *cache.RedisRateLimiter
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config, db *gorm.DB) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if db == nil {
		return nil, errors.New("db is nil")
	}

	// 初始化缓存，失败时降级为无缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	} else if cache.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := cache.Ping(ctx); err != nil {
			logger.Warnw("provider_ping_redis_failed", "error", err)
		}
		cancel()
	}

	c := &Container{Config: cfg}
	c.initRepositories(db)
	if err := c.initServices(db); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.VoucherRepo = repository.NewVoucherRepository(db)
	c.VoucherUsageRepo = repository.NewVoucherUsageRepository(db)
}

func (c *Container) initServices(db *gorm.DB) error {
	authzService, err := authz.NewService(db)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		return err
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		return err
	}
	c.AuthzService = authzService

	evaluator, err := service.NewVoucherEvaluator(c.Config.Voucher)
	if err != nil {
		return fmt.Errorf("init voucher evaluator: %w", err)
	}
	profiles := service.NewShopperProfileLoader(c.UserRepo, c.OrderRepo)

	c.TokenService = service.NewTokenService(c.Config.JWT, c.Config.UserJWT)
	c.VoucherService = service.NewVoucherService(c.VoucherRepo, c.VoucherUsageRepo, profiles, evaluator)
	c.VoucherAdminService = service.NewVoucherAdminService(c.VoucherRepo, c.VoucherUsageRepo)
	c.RateLimiter = cache.NewRedisRateLimiter(cache.Client())
	return nil
}
