package app

import (
	"errors"
	"time"

	"github.com/thuhoaidev/EduPro-sub004/internal/config"
	"github.com/thuhoaidev/EduPro-sub004/internal/provider"
	"github.com/thuhoaidev/EduPro-sub004/internal/router"

	"gorm.io/gorm"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, db *gorm.DB) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container, err := provider.NewContainer(cfg, db)
	if err != nil {
		return nil, err
	}

	engine := router.SetupRouter(cfg, container)
	readHeaderTimeout := time.Duration(cfg.Server.ReadHeaderTimeoutSeconds) * time.Second
	return NewRunner(NewHTTPService(cfg.Server.Addr(), engine, readHeaderTimeout), newCacheService()), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	if opts.Config == nil {
		return errors.New("config is nil")
	}
	if opts.DB == nil {
		return errors.New("db is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.DB)
	if err != nil {
		return err
	}

	if opts.ShutdownTimeout <= 0 && opts.Config.Server.ShutdownTimeoutSeconds > 0 {
		opts.ShutdownTimeout = time.Duration(opts.Config.Server.ShutdownTimeoutSeconds) * time.Second
	}
	opts = normalizeOptions(opts)
	opts.Logger.Infow("app_start", "addr", opts.Config.Server.Addr())
	return RunWithOptions(runner, opts)
}
