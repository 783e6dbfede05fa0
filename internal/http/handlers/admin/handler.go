package admin

import "github.com/thuhoaidev/EduPro-sub004/internal/provider"

// Handler 优惠券后台接口处理器，路由层已完成管理员令牌与 RBAC 校验
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
