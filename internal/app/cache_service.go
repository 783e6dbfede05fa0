package app

import (
	"context"

	"github.com/thuhoaidev/EduPro-sub004/internal/cache"
)

// cacheService 托管 Redis 连接的生命周期，停止时关闭连接
type cacheService struct{}

func newCacheService() *cacheService {
	return &cacheService{}
}

// Name 服务名称
func (s *cacheService) Name() string {
	return "cache"
}

// Start 阻塞直到收到停止信号
func (s *cacheService) Start(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// Stop 关闭 Redis 连接
func (s *cacheService) Stop(context.Context) error {
	return cache.Close()
}
