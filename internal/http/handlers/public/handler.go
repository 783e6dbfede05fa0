package public

import "github.com/thuhoaidev/EduPro-sub004/internal/provider"

// Handler 用户侧接口处理器入口
// 说明：可用列表允许匿名访问，其余接口需要用户令牌。
type Handler struct {
	*provider.Container
}

// New 创建用户侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
